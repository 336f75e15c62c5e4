package main

import (
	"os"

	"github.com/danmuck/kitchenctl/internal/logging"
	"github.com/rs/zerolog/log"
)

func main() {
	logging.ConfigureRuntime()
	if err := newRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("kitchenctl failed")
		os.Exit(1)
	}
}

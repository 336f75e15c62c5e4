package chefclient

import "errors"

var (
	// ErrResourceMissing reports a bundled support file that cannot be read.
	ErrResourceMissing = errors.New("chefclient: resource missing")
	// ErrConfigRender reports configuration that cannot be serialized.
	ErrConfigRender = errors.New("chefclient: config render failed")
	// ErrCommandAssembly reports a mandatory command token without a value.
	ErrCommandAssembly = errors.New("chefclient: command assembly failed")
	// ErrInvalidConfig reports unknown keys or values of the wrong shape.
	ErrInvalidConfig = errors.New("chefclient: invalid config")
)

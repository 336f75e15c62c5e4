package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/kitchenctl/internal/chefclient"
	"github.com/danmuck/kitchenctl/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const version = "0.1.0"

type Server struct {
	ID       string
	Addr     string
	Appeared time.Time

	router *gin.Engine
}

func New(id, addr string, corsOrigins []string) *Server {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestInstrumentation(id, log.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		ID:       id,
		Addr:     addr,
		Appeared: time.Now(),
		router:   r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Serve() error {
	log.Info().Str("id", s.ID).Str("addr", s.Addr).Msg("api listening")
	return s.router.Run(s.Addr)
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.ID,
			"version": version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.POST("/v1/plan", s.handlePlan)
}

// PlanRequest carries one provisioner map, as it would appear in a suite file.
type PlanRequest struct {
	Instance    string         `json:"instance"`
	Provisioner map[string]any `json:"provisioner"`
}

type PlanResponse struct {
	Instance       string   `json:"instance"`
	ConfigFilename string   `json:"config_filename"`
	ConfigFile     string   `json:"config_file"`
	Attributes     string   `json:"attributes"`
	RunArgs        []string `json:"run_args"`
	Prepare        string   `json:"prepare"`
	Run            string   `json:"run"`
}

func (s *Server) handlePlan(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := BuildPlan(req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chefclient.ErrInvalidConfig) ||
			errors.Is(err, chefclient.ErrCommandAssembly) ||
			errors.Is(err, chefclient.ErrConfigRender) {
			status = http.StatusUnprocessableEntity
		}
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// BuildPlan renders everything a provisioning run would produce for req.
func BuildPlan(req PlanRequest) (PlanResponse, error) {
	raw := req.Provisioner
	if strings.TrimSpace(req.Instance) != "" {
		if _, ok := raw["node_name"]; !ok {
			raw = cloneWith(raw, "node_name", req.Instance)
		}
	}
	cfg, err := chefclient.Decode(raw)
	if err != nil {
		return PlanResponse{}, err
	}

	configFile, err := chefclient.RenderConfigFile(cfg)
	if err != nil {
		return PlanResponse{}, err
	}
	attributes, err := chefclient.RenderAttributes(cfg)
	if err != nil {
		return PlanResponse{}, err
	}
	args, err := chefclient.BuildRunArgs(cfg.ConfigFilename, cfg)
	if err != nil {
		return PlanResponse{}, err
	}

	elevation := cfg.Elevation()
	prepare := chefclient.BuildPrepareCommand(cfg.RootPath, cfg.RemotePath(cfg.ConfigFilename))
	run := chefclient.BuildRunCommand(cfg.Family(), cfg.ChefClientPath, args)
	return PlanResponse{
		Instance:       req.Instance,
		ConfigFilename: cfg.ConfigFilename,
		ConfigFile:     configFile,
		Attributes:     string(attributes),
		RunArgs:        args,
		Prepare:        prepare.Render(elevation),
		Run:            run.Render(elevation),
	}, nil
}

func cloneWith(in map[string]any, key string, value any) map[string]any {
	out := make(map[string]any, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	out[key] = value
	return out
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		out = append(out, origin)
	}
	if len(out) == 0 {
		return []string{"http://localhost:3000"}
	}
	return out
}

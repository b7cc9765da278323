// Package ops exposes the operational HTTP surface: health, per-endpoint
// daemon status, and Prometheus metrics. It is off unless OPS_LISTEN is
// set and carries no user-facing functionality.
package ops

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/guiyumin/transmote/internal/engine"
	"github.com/guiyumin/transmote/internal/version"
)

// Response is the standard API response structure.
type Response struct {
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
}

// EndpointStatus is one endpoint's reachability snapshot.
type EndpointStatus struct {
	Endpoint  string `json:"endpoint"`
	Reachable bool   `json:"reachable"`
	Torrents  int    `json:"torrents"`
	Error     string `json:"error,omitempty"`
}

// Server is the ops HTTP server.
type Server struct {
	addr    string
	engines map[string]engine.Engine
	reg     *prometheus.Registry
	server  *http.Server
}

// NewServer builds the ops server on addr, probing the given engines for
// /api/status and serving reg on /metrics.
func NewServer(addr string, engines map[string]engine.Engine, reg *prometheus.Registry) *Server {
	return &Server{addr: addr, engines: engines, reg: reg}
}

// Start blocks serving until Stop or a listener error. It returns
// http.ErrServerClosed after a graceful shutdown.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(loggingMiddleware())

	api := r.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/status", s.handleStatus)

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{})))

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Info().Str("addr", s.addr).Msg("ops server listening")
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("ops request")
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Code: 200,
		Data: gin.H{
			"status":  "ok",
			"version": version.Version,
		},
		Message: "everything is good",
	})
}

// handleStatus probes every endpoint with a short deadline. A daemon
// being down degrades its entry, not the response.
func (s *Server) handleStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	statuses := make([]EndpointStatus, 0, len(s.engines))
	for name, eng := range s.engines {
		st := EndpointStatus{Endpoint: name}
		torrents, err := eng.List(ctx)
		if err != nil {
			st.Error = err.Error()
		} else {
			st.Reachable = true
			st.Torrents = len(torrents)
		}
		statuses = append(statuses, st)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Endpoint < statuses[j].Endpoint })

	c.JSON(http.StatusOK, Response{
		Code:    200,
		Data:    statuses,
		Message: "ok",
	})
}

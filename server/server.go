// Package server exposes research and discovery over a REST API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/bububa/deepsearch/agents"
	"github.com/bububa/deepsearch/discovery"
	"github.com/bububa/deepsearch/metrics"
	"github.com/bububa/deepsearch/research"
	"github.com/bububa/deepsearch/tools"
	"github.com/bububa/deepsearch/tools/fanout"
)

const shutdownTimeout = 10 * time.Second

type Researcher interface {
	Research(ctx context.Context, topic string) (*research.Report, error)
}

type Discoverer interface {
	Discover(ctx context.Context, request string) (*discovery.EndpointDescriptor, error)
}

// Server is the HTTP API
type Server struct {
	router     *gin.Engine
	server     *http.Server
	researcher Researcher
	discoverer Discoverer
}

func New(addr string, researcher Researcher, discoverer Discoverer, m *metrics.Metrics) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), RequestIDMiddleware(), LoggerMiddleware())
	s := &Server{
		router:     router,
		researcher: researcher,
		discoverer: discoverer,
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	router.GET("/", s.welcome)
	router.GET("/healthz", s.health)
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}
	router.POST("/search/", s.search)
	router.POST("/research/", s.research)
	return s
}

// Router returns the underlying Gin engine
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until ctx is done then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.server.Addr).Msg("http server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	log.Info().Msg("http server stopped")
	return nil
}

func (s *Server) welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to the deepsearch API. POST /search/?question= to discover tools, POST /research/?topic= to research a topic.",
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) search(c *gin.Context) {
	question := strings.TrimSpace(c.Query("question"))
	if question == "" {
		s.fail(c, tools.ErrEmptyRequest)
		return
	}
	descriptor, err := s.discoverer.Discover(c.Request.Context(), question)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"request_id": c.GetString(requestIDKey),
		"question":   question,
		"result":     descriptor,
	})
}

func (s *Server) research(c *gin.Context) {
	topic := strings.TrimSpace(c.Query("topic"))
	if topic == "" {
		s.fail(c, tools.ErrEmptyRequest)
		return
	}
	report, err := s.researcher.Research(c.Request.Context(), topic)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"request_id": c.GetString(requestIDKey),
		"topic":      topic,
		"result":     report,
	})
}

func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(StatusCode(err), gin.H{
		"request_id": c.GetString(requestIDKey),
		"error":      err.Error(),
	})
}

// StatusCode maps a run error to its HTTP status
func StatusCode(err error) int {
	switch {
	case errors.Is(err, tools.ErrEmptyRequest):
		return http.StatusBadRequest
	case errors.Is(err, fanout.ErrNoResults):
		return http.StatusNotFound
	case errors.Is(err, fanout.ErrSearchUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, agents.ErrModelsExhausted):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

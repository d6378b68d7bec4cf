// Package server exposes the radar HTTP API: a streaming research endpoint,
// an aggregated search endpoint and the search history CRUD.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/topicradar/config"
	"github.com/mohammad-safakhou/topicradar/internal/research"
	"github.com/mohammad-safakhou/topicradar/internal/search"
	"github.com/mohammad-safakhou/topicradar/models"
)

// Researcher is the orchestration surface the handlers need.
type Researcher interface {
	Run(ctx context.Context, topic string, lens search.Intent) <-chan research.StreamEvent
	Search(ctx context.Context, query string, lens search.Intent) (research.SearchReport, error)
}

// History is the persistence surface the handlers need. List is the
// metadata-only projection; full summaries come from GetByID.
type History interface {
	List(ctx context.Context, limit, offset int) ([]models.HistoryListItem, error)
	GetByID(ctx context.Context, id int64) (models.HistoryEntry, error)
	Delete(ctx context.Context, id int64) error
}

// Server wires the echo router to the orchestrator and history store.
type Server struct {
	echo       *echo.Echo
	researcher Researcher
	history    History
	logger     *log.Logger
}

func New(cfg config.ServerConfig, researcher Researcher, history History, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	}
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	s := &Server{echo: e, researcher: researcher, history: history, logger: logger}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.GET("/research/stream", s.streamResearch)
	api.GET("/search", s.searchAggregated)
	api.GET("/history", s.listHistory)
	api.GET("/history/:id", s.getHistory)
	api.DELETE("/history/:id", s.deleteHistory)

	return s
}

// Start blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Start(addr string) error { return s.echo.Start(addr) }

func (s *Server) Shutdown(ctx context.Context) error { return s.echo.Shutdown(ctx) }

// Handler exposes the underlying router, used by tests.
func (s *Server) Handler() http.Handler { return s.echo }

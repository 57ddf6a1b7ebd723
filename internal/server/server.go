// Package server is the interactive dashboard: upload a CSV, choose features
// and target, train an SVR, inspect metrics and charts, and predict single
// points. Each upload becomes an in-memory session keyed by a uuid.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ezoic/svrdash/internal/config"
	svrErrors "github.com/ezoic/svrdash/pkg/errors"
	"github.com/ezoic/svrdash/pkg/log"
	"github.com/ezoic/svrdash/predictor"
)

const shutdownTimeout = 10 * time.Second

// Server serves the dashboard.
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	store  *Store
	logger log.Logger
}

// New builds the router for cfg.
func New(cfg *config.Config) (*Server, error) {
	gin.SetMode(cfg.Server.GinMode)

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, svrErrors.Wrap(err, "failed to parse templates")
	}

	router := gin.New()
	router.Use(requestLogger(), gin.Recovery())
	router.MaxMultipartMemory = cfg.Server.MaxUploadMB << 20
	router.SetHTMLTemplate(tmpl)

	s := &Server{
		cfg:    cfg,
		router: router,
		store:  NewStore(cfg.Server.SessionTTL, cfg.Server.MaxSessions),
		logger: log.GetLoggerWithName("server"),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router
	r.GET("/", s.handleIndex)
	r.GET("/healthz", s.handleHealth)
	r.POST("/upload", s.handleUpload)

	sessions := r.Group("/sessions/:id")
	sessions.GET("", s.handleSession)
	sessions.POST("/run", s.handleRun)
	sessions.POST("/predict", s.handlePredict)
	sessions.GET("/charts", s.handleCharts)
	sessions.GET("/plot/line.png", s.handleLinePNG)
	sessions.GET("/plot/bars.png", s.handleBarsPNG)
	sessions.GET("/export.xlsx", s.handleExport)
	sessions.GET("/model.gob", s.handleModel)
	sessions.GET("/model.json", s.handleModelJSON)

	api := r.Group("/api/sessions/:id")
	api.GET("", s.apiSession)
	api.DELETE("", s.apiDelete)
	api.POST("/run", s.apiRun)
	api.POST("/predict", s.apiPredict)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Store returns the session store.
func (s *Server) Store() *Store { return s.store }

// defaultOptions are the pipeline options a new session starts with.
func (s *Server) defaultOptions() predictor.Options {
	return predictor.Options{
		TrainRatio: s.cfg.Model.TrainRatio,
		Params:     s.cfg.Model.Params,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully. Expired
// sessions are swept once per TTL.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.sweep(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "addr", s.cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return svrErrors.Wrap(err, "failed to start HTTP server")
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return svrErrors.Wrap(err, "failed to shut down HTTP server")
	}
	return nil
}

func (s *Server) sweep(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Server.SessionTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.store.Sweep(); n > 0 {
				s.logger.Info("Expired sessions removed", "count", n, "live", s.store.Len())
			}
		}
	}
}

// Package server is the HTTP adapter over the approval engine. It is a
// thin layer: every authorization decision belongs to the engine, and the
// actor context is taken from headers resolved by the upstream gateway.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hostelhq/mega-events/internal/engine"
	"github.com/hostelhq/mega-events/internal/export"
)

// Config holds HTTP server configuration
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP server adapter
type Server struct {
	config     Config
	httpServer *http.Server
	router     *gin.Engine
	engine     *engine.Engine
	statements *export.StatementGenerator
	logger     *zap.Logger
}

// New creates a new HTTP server wired to the approval engine
func New(config Config, eng *engine.Engine, statements *export.StatementGenerator, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	s := &Server{
		config:     config,
		router:     router,
		engine:     eng,
		statements: statements,
		logger:     logger,
	}

	router.Use(gin.Recovery())
	router.Use(s.requestIDMiddleware())
	router.Use(s.loggingMiddleware())

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.engine, s.statements, s.logger)

	s.router.GET("/health", handlers.HealthCheck)

	api := s.router.Group("/api/v1")
	{
		api.POST("/mega-series", handlers.CreateSeries)
		api.GET("/mega-series", handlers.ListSeries)
		api.GET("/mega-series/:id", handlers.GetSeries)
		api.POST("/mega-series/:id/occurrences", handlers.CreateOccurrence)

		api.GET("/occurrences/:id/proposal", handlers.GetProposal)
		api.POST("/occurrences/:id/proposal", handlers.CreateProposal)
		api.PUT("/occurrences/:id/proposal", handlers.UpdateProposal)
		api.POST("/occurrences/:id/proposal/submit", handlers.SubmitProposal)
		api.POST("/occurrences/:id/proposal/approve", handlers.ApproveProposal)
		api.POST("/occurrences/:id/proposal/reject", handlers.RejectProposal)
		api.POST("/occurrences/:id/proposal/request-revision", handlers.RequestProposalRevision)

		api.GET("/occurrences/:id/expense", handlers.GetExpense)
		api.POST("/occurrences/:id/expense", handlers.CreateExpense)
		api.PUT("/occurrences/:id/expense", handlers.UpdateExpense)
		api.POST("/occurrences/:id/expense/approve", handlers.ApproveExpense)
		api.POST("/occurrences/:id/expense/reject", handlers.RejectExpense)
		api.GET("/occurrences/:id/expense/statement", handlers.ExpenseStatement)

		api.GET("/approval-history", handlers.ApprovalHistory)
	}
}

// Start begins serving HTTP requests
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

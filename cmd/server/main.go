package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hostelhq/mega-events/internal/config"
	"github.com/hostelhq/mega-events/internal/engine"
	"github.com/hostelhq/mega-events/internal/export"
	"github.com/hostelhq/mega-events/internal/repository"
	"github.com/hostelhq/mega-events/internal/server"
	"github.com/hostelhq/mega-events/pkg/database"
	"github.com/hostelhq/mega-events/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting mega-events approval service")

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(ctx, cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	seriesRepo := repository.NewSeriesRepository(db.DB, logger)
	occurrenceRepo := repository.NewOccurrenceRepository(db.DB, logger)
	proposalRepo := repository.NewProposalRepository(db.DB, logger)
	expenseRepo := repository.NewExpenseRepository(db.DB, logger)
	stageRepo := repository.NewStageRepository(db.DB, logger)
	eventRepo := repository.NewEventRepository(db.DB, logger)

	eng := engine.New(db, seriesRepo, occurrenceRepo, proposalRepo, expenseRepo, stageRepo, eventRepo, logger)

	statements := export.NewStatementGenerator(export.Config{
		InstitutionName: cfg.Export.InstitutionName,
		SheetName:       cfg.Export.SheetName,
	}, logger)

	srv := server.New(server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, eng, statements, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	case sig := <-quit:
		logger.Info("Shutting down", zap.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", zap.Error(err))
		}
	}

	logger.Info("Server stopped")
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/rpupo63/blog-backend/api"
	"github.com/rpupo63/blog-backend/config"
	"github.com/rpupo63/blog-backend/database"
	"github.com/rpupo63/blog-backend/models"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Exiting")
	}
}

func run() error {
	app, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	setupLogger(app)

	log.Info().Str("env", app.Env).Str("dbType", app.DBType).Msg("Initializing app...")

	db, err := database.Open(app)
	if err != nil {
		return err
	}
	currentDB := database.New(db)
	defer func() {
		if err := currentDB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}()

	// If generating models, run generation and exit
	if app.GenerateModels {
		log.Info().Msg("Generating models and query helpers...")
		return models.GenerateModels(db, app.GeneratedOutPath)
	}

	// If generating column mismatch report, run report and exit
	if app.GenerateColumnReport {
		log.Info().Msg("Generating column mismatch report...")
		_, err := models.GenerateColumnMismatchReport(db)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if app.AutoMigrate {
		if err := currentDB.Migrate(ctx); err != nil {
			return err
		}
	}

	server, err := api.NewServer(app, currentDB)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Closing server")
		server.ShutdownGracefully(shutdownTimeout)
		return nil
	})

	return g.Wait()
}

func setupLogger(app config.App) {
	level, err := zerolog.ParseLevel(app.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if app.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
}

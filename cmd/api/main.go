package main

import (
	"context"
	"flag"
	"os"
	"time"

	"cinepwa/proj/internal/api/tasks"
	"cinepwa/proj/internal/clients/tmdb"
	"cinepwa/proj/internal/config"
	"cinepwa/proj/internal/lib/logger"
	"cinepwa/proj/internal/services"
	"cinepwa/proj/internal/storage/memory"
	"cinepwa/proj/internal/storage/postgres"
	pgmodels "cinepwa/proj/internal/storage/postgres/models"
)

const version = "1.0.0"

func main() {
	cfgPath := flag.String("config", "config/local.yml", "path to config file")
	flag.Parse()
	cfg := config.MustLoad(*cfgPath)
	log := logger.SetupLogger(cfg.Debug)

	var storage services.Storage
	switch cfg.DB.Driver {
	case config.DriverMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		storage = services.MemoryStorage(memory.New())
	default:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		db, err := postgres.New(ctx, cfg.DB.Dsn, cfg.DB.MaxConns, cfg.DB.MaxConnIdleTime)
		cancel()
		if err != nil {
			log.Error("failed to connect to database", "errMsg", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		log.Info("database connection established")
		storage = services.PostgresStorage(pgmodels.New(db))
	}

	content := tmdb.New(tmdb.Options{
		BaseURL:     cfg.TMDB.BaseURL,
		AccessToken: cfg.TMDB.AccessToken,
		Language:    cfg.TMDB.Language,
		Rps:         cfg.TMDB.Rps,
		Timeout:     cfg.TMDB.Timeout,
	})
	bgTasks := tasks.New(log, cfg.Tasks.Workers, cfg.Tasks.QueueSize)
	bgTasks.Run()
	svcs := services.New(log, cfg, storage, content, services.NewMailer(log, cfg.SMTPServer), bgTasks)

	app := NewApplication(cfg, log, svcs, content)
	if err := app.serve(bgTasks); err != nil {
		log.Error("server stopped with error", "errMsg", err.Error())
		os.Exit(1)
	}
}

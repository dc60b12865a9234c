package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/sanye891/next-dashboard/internal/blob"
	"github.com/sanye891/next-dashboard/internal/config"
	"github.com/sanye891/next-dashboard/internal/database"
	"github.com/sanye891/next-dashboard/internal/logging"
	"github.com/sanye891/next-dashboard/internal/router"
	"github.com/sanye891/next-dashboard/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	// a .env is optional, environment variables win either way
	_ = godotenv.Load()

	// load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// ensure basic directories exist
	if cfg.Database.Driver == "sqlite" {
		if err := ensureDir(filepath.Dir(cfg.Database.Path)); err != nil {
			log.Fatalf("create data dir: %v", err)
		}
	}
	if err := ensureDir(filepath.Dir(cfg.Log.File)); err != nil {
		log.Fatalf("create log dir: %v", err)
	}

	logger := logging.New(cfg.Log)

	// init database
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatalf("init database: %v", err)
	}

	// run migrations
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatalf("migrate database: %v", err)
	}

	// object storage
	blobClient, err := blob.New(context.Background(), cfg.Storage)
	if err != nil {
		logger.Fatalf("init storage: %v", err)
	}

	// change feed, optionally mirrored to AMQP
	feed := store.NewFeed(logger)
	if cfg.Events.AMQPURL != "" {
		pub, err := store.DialAMQP(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			logger.Fatalf("connect amqp: %v", err)
		}
		defer pub.Close()
		feed.SetPublisher(pub)
	}

	// setup router
	r := router.SetupRouter(cfg, router.Dependencies{
		DB:   db,
		Blob: blobClient,
		Feed: feed,
		Log:  logger,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	logger.Infof("server listening on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("run server: %v", err)
	}
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

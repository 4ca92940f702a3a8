package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cabinetfs/cabinet/internal/logger"
	"github.com/cabinetfs/cabinet/pkg/api"
	"github.com/cabinetfs/cabinet/pkg/config"
	"github.com/cabinetfs/cabinet/pkg/files"
	"github.com/cabinetfs/cabinet/pkg/session"
	"github.com/cabinetfs/cabinet/pkg/users"
	"github.com/cabinetfs/cabinet/pkg/worker"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (YAML)")
	printConfig := flag.Bool("print-config", false, "Print the effective configuration and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *printConfig {
		dump, err := config.Dump(cfg)
		if err != nil {
			log.Fatalf("Failed to render configuration: %v", err)
		}
		fmt.Print(dump)
		return
	}

	logger.SetLevel(cfg.Logging.Level)

	fmt.Println("Cabinet - File Storage Service")
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Build the storage layer from configuration
	store, err := config.CreateMetadataStore(ctx, &cfg.Metadata)
	if err != nil {
		log.Fatalf("Failed to create metadata store: %v", err)
	}
	defer store.Close()

	contentStore, err := config.CreateContentStore(ctx, &cfg.Content)
	if err != nil {
		log.Fatalf("Failed to create content store: %v", err)
	}
	defer contentStore.Close()

	cache, err := config.CreateSessionCache(ctx, &cfg.Sessions)
	if err != nil {
		log.Fatalf("Failed to create session cache: %v", err)
	}
	defer cache.Close()

	jobQueue, err := config.CreateQueue(ctx, &cfg.Queue)
	if err != nil {
		log.Fatalf("Failed to create job queue: %v", err)
	}
	defer jobQueue.Close()

	logger.Info("Metadata store: %s, content store: %s, sessions: %s, queue: %s",
		cfg.Metadata.Type, cfg.Content.Type, cfg.Sessions.Type, cfg.Queue.Type)

	sessions := session.NewManager(cache, cfg.Sessions.TTL)
	userSvc := users.NewService(store, jobQueue)
	fileSvc := files.NewService(store, contentStore, jobQueue)

	// In-process job consumers, unless a standalone worker owns the queue
	if cfg.Worker.Enabled {
		w := worker.New(store, contentStore, jobQueue, cfg.Worker.Concurrency)
		go w.Run(ctx)
		logger.Info("Started %d worker(s) per topic", cfg.Worker.Concurrency)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.New(userSvc, fileSvc, sessions, store),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Listening on %s", cfg.Server.Address)
		serverErr <- srv.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Received signal %v, shutting down...", sig)
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error: %v", err)
			os.Exit(1)
		}
		return
	}

	// Stop the workers, then drain in-flight HTTP requests
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}

	logger.Info("Server stopped")
}

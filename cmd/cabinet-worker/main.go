// Command cabinet-worker runs the background job consumers as a standalone
// process. The queue directory is opened exclusively, so the API server must
// run with worker.enabled = false when this binary owns the queue.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cabinetfs/cabinet/internal/logger"
	"github.com/cabinetfs/cabinet/pkg/config"
	"github.com/cabinetfs/cabinet/pkg/worker"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (YAML)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.SetLevel(cfg.Logging.Level)

	fmt.Println("Cabinet Worker - Background Job Consumer")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	jobQueue, err := config.CreateQueue(ctx, &cfg.Queue)
	if err != nil {
		log.Fatalf("Failed to create job queue: %v", err)
	}
	defer jobQueue.Close()

	w := worker.New(store, contentStore, jobQueue, cfg.Worker.Concurrency)

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	logger.Info("Consuming jobs with %d worker(s) per topic. Press Ctrl+C to stop.", cfg.Worker.Concurrency)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	<-done
}

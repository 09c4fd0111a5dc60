// wikiforge is the pipeline daemon: it runs the worker dispatcher, the
// cleanup service, and the REST/NDJSON API server in one process.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/wikiforge/wikiforge/internal/bootstrap"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "Path to configuration directory")
	dataRoot := flag.String("data-root", getEnv("WIKIFORGE_DATA_ROOT", "./data"), "Path to the data root directory")
	httpAddr := flag.String("http-addr", getEnv("HTTP_ADDR", ":8080"), "HTTP listen address")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: could not load %s: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	app, err := bootstrap.Build(ctx, bootstrap.Options{
		ConfigDir: *configDir,
		DataRoot:  *dataRoot,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("Failed to initialize wikiforge: %v", err)
	}

	stats := app.Config.Stats()
	logger.Info("wikiforge starting",
		"llm_providers", stats.LLMProviders,
		"endpoint_pools", stats.EndpointPools,
		"http_addr", *httpAddr,
	)

	if err := app.Serve(ctx, *httpAddr); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}

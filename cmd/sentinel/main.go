package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sentinelops/aws-log-sentinel/internal/audit"
	"github.com/sentinelops/aws-log-sentinel/internal/cache"
	"github.com/sentinelops/aws-log-sentinel/internal/cloud"
	"github.com/sentinelops/aws-log-sentinel/internal/config"
	"github.com/sentinelops/aws-log-sentinel/internal/logger"
	"github.com/sentinelops/aws-log-sentinel/internal/redact"
	"github.com/sentinelops/aws-log-sentinel/internal/redact/profiles"
	"github.com/sentinelops/aws-log-sentinel/internal/scrub"
	"github.com/sentinelops/aws-log-sentinel/internal/server"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		healthCheck = flag.Bool("health-check", false, "Perform health check and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("AWS Log Sentinel %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	if *healthCheck {
		performHealthCheck()
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	loggerConfig := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if cfg.Logging.File.Enabled {
		loggerConfig.File = &logger.FileConfig{
			Enabled:  cfg.Logging.File.Enabled,
			Path:     cfg.Logging.File.Path,
			MaxSize:  cfg.Logging.File.MaxSize,
			MaxAge:   cfg.Logging.File.MaxAge,
			Compress: cfg.Logging.File.Compress,
		}
	}

	log, err := logger.New(loggerConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting AWS Log Sentinel",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("build_date", date),
		zap.Int("port", cfg.Server.Port),
	)

	engine, err := buildEngine(cfg, log)
	if err != nil {
		log.Fatal("Failed to build redaction engine", zap.Error(err))
	}

	ctx := context.Background()
	cloudClient, err := cloud.New(ctx, cfg.AWS, log.WithComponent("cloud"))
	if err != nil {
		log.Fatal("Failed to create AWS client", zap.Error(err))
	}

	var queryCache *cache.QueryCache
	if cfg.Cache.Enabled {
		queryCache, err = cache.New(cfg.Cache, log.WithComponent("cache"))
		if err != nil {
			log.Fatal("Failed to create query cache", zap.Error(err))
		}
		defer queryCache.Close()
	}

	var auditStore *audit.Store
	if cfg.Audit.Enabled {
		auditStore, err = audit.New(cfg.Audit, log.WithComponent("audit"))
		if err != nil {
			log.Fatal("Failed to create audit store", zap.Error(err))
		}
		defer auditStore.Close()
	}

	srv := server.New(cfg, log, engine, cloudClient, cloudClient, queryCache, auditStore)

	// Profile and detector changes need a restart; watching the file at
	// least makes edits visible in the logs.
	config.Watch(cfg, func(newCfg *config.Config) {
		log.Info("Configuration file changed; restart to apply")
	})

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error("Server error", zap.Error(err))
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Give outstanding requests 30 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Stop(ctx); err != nil {
			log.Error("Failed to shutdown server gracefully", zap.Error(err))
			os.Exit(1)
		}

		log.Info("Server shutdown complete")
	}
}

// buildEngine wires the generic scrubber and the configured profiles into
// a redaction engine
func buildEngine(cfg *config.Config, log *logger.Logger) (*redact.Engine, error) {
	scrubber, err := scrub.New(cfg.Redaction.Detectors, log.WithComponent("scrub"))
	if err != nil {
		return nil, fmt.Errorf("failed to create scrubber: %w", err)
	}

	engine := redact.New(scrubber, log.WithComponent("redact"))

	for _, name := range cfg.Redaction.Profiles {
		profile, ok := profiles.ByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown compliance profile: %s (built-in: %v)", name, profiles.Names())
		}
		engine.LoadProfile(profile)
	}

	return engine, nil
}

// performHealthCheck performs a health check against the running server
func performHealthCheck() {
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get("http://localhost:8080/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Health check failed: HTTP %d\n", resp.StatusCode)
		os.Exit(1)
	}

	fmt.Println("Health check passed")
	os.Exit(0)
}

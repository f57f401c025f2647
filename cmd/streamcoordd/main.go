// Package main provides the entry point for streamcoordd.
//
// streamcoordd is the per-node coordinator process: it runs a Raft voter,
// gossip-based membership discovery, the leader-local phase executor, and
// the admin HTTP API that streamcoordctl and other operators talk to.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/yndnr/streamcoord-go/internal/cluster"
	"github.com/yndnr/streamcoord-go/internal/infra/buildinfo"
	"github.com/yndnr/streamcoord-go/internal/infra/confloader"
	"github.com/yndnr/streamcoord-go/internal/infra/shutdown"
	"github.com/yndnr/streamcoord-go/internal/logengine"
	"github.com/yndnr/streamcoord-go/internal/registry"
	"github.com/yndnr/streamcoord-go/internal/server/config"
	"github.com/yndnr/streamcoord-go/internal/server/httpserver"
	"github.com/yndnr/streamcoord-go/internal/server/localserver"
	"github.com/yndnr/streamcoord-go/internal/telemetry/logger"
	"github.com/yndnr/streamcoord-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("streamcoordd %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, slogLogger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	log.Info("starting streamcoordd", "version", buildinfo.Version, "config", *configFile)

	reg, err := registry.Open(registry.Config{Dir: cfg.Storage.DataDir, Logger: slogLogger})
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}

	engine, err := initLogEngine(cfg, slogLogger)
	if err != nil {
		return fmt.Errorf("init log engine: %w", err)
	}

	bootstrap, err := cluster.DecideBootstrap(context.Background(), reg, cluster.BootstrapConfig{
		Self:     cluster.Node(cfg.Cluster.NodeID),
		LockName: cfg.Cluster.StartupLockName,
		Peers:    cfg.Cluster.Seeds,
		Logger:   slogLogger,
	})
	if err != nil {
		return fmt.Errorf("decide bootstrap: %w", err)
	}
	log.Info("bootstrap decision", "decision", string(bootstrap))

	clusterCfg, err := config.ToClusterConfig(cfg, engine, reg, reg, slogLogger)
	if err != nil {
		return fmt.Errorf("build cluster config: %w", err)
	}
	clusterCfg.Bootstrap = bootstrap == cluster.DecisionBootstrap

	coord, err := cluster.New(clusterCfg)
	if err != nil {
		return fmt.Errorf("init coordinator: %w", err)
	}
	if err := coord.Start(); err != nil {
		return fmt.Errorf("start coordinator: %w", err)
	}

	metrics := metric.NewRegistry()
	collector := metric.NewCollector(coord, metrics, 15*time.Second, slogLogger)
	collectorCtx, stopCollector := context.WithCancel(context.Background())
	go collector.Run(collectorCtx)

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Client:             coord.Client(),
		Logger:             slogLogger,
		CORSAllowedOrigins: nil,
		GlobalRateLimit:    httpserver.DefaultRouterConfig().GlobalRateLimit,
		EnableAudit:        true,
	})

	mux := http.NewServeMux()
	mux.Handle("/", router)
	mux.Handle("/metrics", metrics.Handler())

	httpServer := httpserver.New(cfg.Server.HTTP.Addr, mux)

	shutdownHandler := shutdown.NewHandler(30 * time.Second)

	localSrv := localserver.New(cfg.Server.Local.Path, localserver.NewHandler(coord, func() {
		p, err := os.FindProcess(os.Getpid())
		if err == nil {
			p.Signal(os.Interrupt)
		}
	}))

	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down local management socket")
		return localSrv.Shutdown(ctx)
	})
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("stopping metrics collector")
		stopCollector()
		return nil
	})
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("stopping coordinator")
		return coord.Stop()
	})
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("closing registry")
		return reg.Close()
	})

	go func() {
		log.Info("HTTP server listening", "addr", cfg.Server.HTTP.Addr)

		var err error
		if cfg.Server.HTTP.TLSCertFile != "" && cfg.Server.HTTP.TLSKeyFile != "" {
			err = httpServer.ListenAndServeTLS(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	go func() {
		log.Info("local management socket listening", "path", cfg.Server.Local.Path)
		if err := localSrv.ListenAndServe(); err != nil {
			log.Error("local socket error", "error", err)
		}
	}()

	log.Info("streamcoordd started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("streamcoordd stopped gracefully")
	return nil
}

// loadConfig loads configuration from file and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// initLogger initializes the structured logger, returning both the
// Logger interface and a slog.Logger for components that need it.
func initLogger(cfg *config.ServerConfig) (logger.Logger, *slog.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, nil, err
	}

	logger.SetDefault(log)
	return log, slog.Default(), nil
}

// initLogEngine builds the production LogEngine (containerd-backed). A
// data directory without a reachable containerd socket falls back to an
// in-memory engine, which is useful for local development but loses all
// stream data across a restart.
func initLogEngine(cfg *config.ServerConfig, log *slog.Logger) (cluster.LogEngine, error) {
	engine, err := logengine.New(logengine.Config{
		SocketPath: logengine.DefaultSocketPath,
		Namespace:  logengine.DefaultNamespace,
		Logger:     log,
	})
	if err != nil {
		log.Warn("containerd log engine unavailable, falling back to in-memory engine", "error", err)
		return logengine.NewInMemory(), nil
	}
	return engine, nil
}

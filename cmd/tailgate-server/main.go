package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/BrandonDHaskell/tailgate/server/internal/config"
	"github.com/BrandonDHaskell/tailgate/server/internal/db"
	"github.com/BrandonDHaskell/tailgate/server/internal/health"
	"github.com/BrandonDHaskell/tailgate/server/internal/httpapi"
	"github.com/BrandonDHaskell/tailgate/server/internal/logging"
	"github.com/BrandonDHaskell/tailgate/server/internal/metrics"
	"github.com/BrandonDHaskell/tailgate/server/internal/netbox"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/alert"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/engine"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/service"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/store"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/store/memory"
	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (overrides TAILGATE_CONFIG)")
	flag.Parse()

	cfg := config.FromEnv()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, "tailgate-server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Engine
	correlator := engine.NewCorrelator(cfg.WindowSeconds)
	settings := service.NewSettings(correlator.Window(), cfg.Mode)
	m.Track(correlator.Counter().Snapshot, correlator.Window().Seconds)

	// History store and pruner
	history, closeHistory, err := openHistory(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeHistory()

	pruner := service.NewHistoryPruner(history, service.PrunerConfig{
		RetentionDays: cfg.HistoryRetentionDays,
		Interval:      time.Duration(cfg.PruneIntervalHours) * time.Hour,
	}, logger)
	pruner.Start(ctx)
	defer pruner.Stop()

	// Alerts
	sinks, closeSinks := alertSinks(cfg, logger)
	defer closeSinks()
	dispatcher := alert.NewDispatcher(logger, alert.DispatcherOptions{
		OnDropped: func() { m.Dropped.WithLabelValues("alert").Inc() },
	}, sinks...)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	// Services
	accessSvc := service.NewAccessService(correlator, history, m, logger)
	cameraSvc := service.NewCameraService(correlator, history, dispatcher, m, logger)
	querySvc := service.NewQueryService(correlator, settings, history,
		time.Duration(cfg.HistoryRetentionDays)*24*time.Hour)

	// gRPC health
	var healthSrv *health.Server
	var status netbox.StatusReporter
	if cfg.GRPCAddr != "" {
		healthSrv = health.New(logger)
		status = healthSrv
		go func() {
			if err := healthSrv.ListenAndServe(cfg.GRPCAddr); err != nil {
				logger.Error("grpc health server error", zap.Error(err))
			}
		}()
		defer healthSrv.Stop()
	}

	// NetBox listener
	supervisor := netbox.NewSupervisor(cfg.NetBox, accessSvc, netbox.ListenerOptions{
		Status:  status,
		Metrics: m,
	}, logger)
	if cfg.NetBox.Enabled {
		supervisor.Start(ctx)
	} else {
		logger.Info("netbox listener disabled")
	}
	defer supervisor.Stop()

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:        logger,
		Addr:          cfg.HTTPAddr,
		AccessService: accessSvc,
		CameraService: cameraSvc,
		QueryService:  querySvc,
		Settings:      settings,
		NetBox:        supervisor,
		Metrics:       m,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("env", cfg.Env),
			zap.Int("window_seconds", cfg.WindowSeconds),
			zap.String("mode", cfg.Mode))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openHistory returns the sqlite history store when the database is
// enabled, otherwise an in-memory one.
func openHistory(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.HistoryStore, func(), error) {
	if !cfg.DBEnabled {
		logger.Info("history database disabled, using memory store")
		return memory.NewHistoryStore(), func() {}, nil
	}

	sqlDB, err := db.Open(ctx, db.Config{Path: cfg.DBPath})
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	writer := db.NewWorker(sqlDB)
	logger.Info("history database opened", zap.String("path", cfg.DBPath))

	return sqlite.NewHistoryStore(sqlDB, writer), func() { closeDB(writer, sqlDB, logger) }, nil
}

func closeDB(writer *db.Worker, sqlDB *sql.DB, logger *zap.Logger) {
	writer.Close()
	if err := sqlDB.Close(); err != nil {
		logger.Warn("close db", zap.Error(err))
	}
}

// alertSinks builds the sinks that have an address configured.
func alertSinks(cfg config.Config, logger *zap.Logger) ([]alert.Sink, func()) {
	var sinks []alert.Sink
	var closers []func()

	if cfg.MQTT.Broker != "" {
		sink, err := alert.NewMQTTSink(alert.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Topic:    cfg.MQTT.Topic,
			QoS:      byte(cfg.MQTT.QoS),
		})
		if err != nil {
			logger.Warn("mqtt alert sink unavailable", zap.String("broker", cfg.MQTT.Broker), zap.Error(err))
		} else {
			sinks = append(sinks, sink)
			closers = append(closers, sink.Close)
		}
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		sinks = append(sinks, alert.NewRedisStreamSink(client, cfg.Redis.Stream))
		closers = append(closers, func() { _ = client.Close() })
	}

	logger.Info("alert sinks configured", zap.Int("count", len(sinks)))
	return sinks, func() {
		for _, c := range closers {
			c()
		}
	}
}

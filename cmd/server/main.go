package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stationops/backend/internal/application/activity"
	"github.com/stationops/backend/internal/application/orders"
	"github.com/stationops/backend/internal/application/seed"
	"github.com/stationops/backend/internal/application/syncbridge"
	"github.com/stationops/backend/internal/domain/order"
	"github.com/stationops/backend/internal/infrastructure/config"
	"github.com/stationops/backend/internal/infrastructure/localstore"
	"github.com/stationops/backend/internal/infrastructure/logger"
	"github.com/stationops/backend/internal/infrastructure/remote"
	"github.com/stationops/backend/internal/infrastructure/scheduler"
	"github.com/stationops/backend/internal/infrastructure/state"
	"github.com/stationops/backend/internal/infrastructure/storage"
	"github.com/stationops/backend/internal/infrastructure/telemetry"
	"github.com/stationops/backend/internal/interfaces/http/handler"
	"github.com/stationops/backend/internal/interfaces/http/middleware"
	"github.com/stationops/backend/internal/interfaces/http/router"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting station backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Telemetry
	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		ExportInterval:    cfg.Telemetry.ExportInterval,
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	businessMetrics, err := telemetry.NewBusinessMetrics(meterProvider.Meter("station"), log)
	if err != nil {
		log.Fatal("Failed to initialize business metrics", zap.Error(err))
	}

	// Local snapshot store
	store, err := localstore.Open(localstore.Config{
		Path:     cfg.LocalStore.Path,
		MaxBytes: cfg.LocalStore.MaxBytes,
	}, log)
	if err != nil {
		log.Fatal("Failed to open local store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing local store", zap.Error(err))
		}
	}()

	// Working copy, rehydrated from the last snapshot
	st := state.NewStore(false)
	if err := store.LoadSnapshot(ctx, st); err != nil {
		log.Warn("Failed to load snapshot, starting empty", zap.Error(err))
	}
	seeded := st.OrderCount() > 0

	// Application services
	ledgerSvc := activity.NewService(st)
	orderSvc := orders.NewService(st, ledgerSvc, order.TransitionPolicy(cfg.Orders.TransitionPolicy))
	orderSvc.SetBusinessMetrics(businessMetrics)

	if cfg.LocalStore.SeedDemoData && !seeded {
		seed.DemoData(ctx, st, orderSvc, log)
	}

	// Flush scheduler
	flusher := scheduler.NewFlushScheduler(store, st, cfg.LocalStore.FlushInterval, log)
	flusher.SetBusinessMetrics(businessMetrics)
	flusher.Start(ctx)

	// Remote sync bridge
	var bridge *syncbridge.Bridge
	if cfg.Remote.Enabled {
		remoteClient, err := remote.NewClient(&remote.DatabaseConfig{
			Host:            cfg.Remote.Database.Host,
			Port:            cfg.Remote.Database.Port,
			User:            cfg.Remote.Database.User,
			Password:        cfg.Remote.Database.Password,
			DBName:          cfg.Remote.Database.DBName,
			SSLMode:         cfg.Remote.Database.SSLMode,
			MaxOpenConns:    cfg.Remote.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Remote.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Remote.Database.ConnMaxLifetime,
		}, log)
		if err != nil {
			log.Warn("Remote store connection failed, continuing on local data only", zap.Error(err))
		} else {
			defer func() {
				if err := remoteClient.Close(); err != nil {
					log.Error("Error closing remote client", zap.Error(err))
				}
			}()

			feed, err := remote.NewSubscriber(remote.RedisConfig{
				Host:     cfg.Remote.Redis.Host,
				Port:     cfg.Remote.Redis.Port,
				Password: cfg.Remote.Redis.Password,
				DB:       cfg.Remote.Redis.DB,
			}, remote.WithSubscriberLogger(log))
			if err != nil {
				log.Warn("Change feed connection failed, continuing on local data only", zap.Error(err))
			} else {
				bridge = syncbridge.New(remoteClient, feed, st, syncbridge.Config{
					ProbeTimeout: cfg.Remote.ProbeTimeout,
					PushInterval: cfg.Remote.PushInterval,
				}, log)
				bridge.SetBusinessMetrics(businessMetrics)
				if err := bridge.Start(ctx); err != nil {
					log.Warn("Sync bridge failed to start", zap.Error(err))
				}
			}
		}
	}

	// Snapshot archive storage
	var archive storage.ArchiveStorage
	if cfg.Storage.Enabled {
		s3Archive, err := storage.NewS3ArchiveStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Warn("Archive storage unavailable", zap.Error(err))
		} else {
			archive = s3Archive
		}
	}

	// HTTP surface
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	middleware.SetupValidator()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Telemetry.Enabled {
		engine.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r := router.NewRouter(engine)
	r.Register(handler.NewPurchaseOrderHandler(orderSvc))
	r.Register(handler.NewActivityHandler(ledgerSvc))
	r.Register(handler.NewSystemHandler(st, store, flusher, bridge, archive))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if bridge != nil {
		if err := bridge.Close(); err != nil {
			log.Warn("Error closing sync bridge", zap.Error(err))
		}
	}

	// Final flush. A failure here means recent changes exist only in
	// memory, so it is surfaced loudly before exit.
	if err := flusher.Stop(shutdownCtx); err != nil {
		log.Error("Final snapshot flush failed, recent changes may be lost", zap.Error(err))
	}

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error shutting down tracing", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error shutting down metrics", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

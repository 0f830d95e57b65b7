// Package main is the entry point for the service. It wires all dependencies
// using samber/do v2, starts the HTTP server, and handles graceful shutdown
// on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/do/v2"

	"github.com/jsamuelsen11/go-reqlog/internal/adapters/backend/collector"
	"github.com/jsamuelsen11/go-reqlog/internal/adapters/backend/slogbackend"
	adapthttp "github.com/jsamuelsen11/go-reqlog/internal/adapters/http"
	"github.com/jsamuelsen11/go-reqlog/internal/adapters/http/handlers"
	"github.com/jsamuelsen11/go-reqlog/internal/adapters/http/middleware"

	"github.com/jsamuelsen11/go-reqlog/internal/app"
	"github.com/jsamuelsen11/go-reqlog/internal/app/dispatch"
	"github.com/jsamuelsen11/go-reqlog/internal/domain/reqlog"
	"github.com/jsamuelsen11/go-reqlog/internal/platform/config"
	"github.com/jsamuelsen11/go-reqlog/internal/platform/health"
	"github.com/jsamuelsen11/go-reqlog/internal/platform/httpclient"
	"github.com/jsamuelsen11/go-reqlog/internal/platform/logging"
	"github.com/jsamuelsen11/go-reqlog/internal/platform/telemetry"
	"github.com/jsamuelsen11/go-reqlog/internal/ports"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	serverShutdownTimeout   = 15 * time.Second
	otelShutdownTimeout     = 5 * time.Second
	defaultDispatchShutdown = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; real deployments set the environment.
	_ = godotenv.Load()

	profile := os.Getenv("APP_PROFILE")
	if profile == "" {
		return errors.New("APP_PROFILE environment variable is required (e.g. local, dev, qa, prod)")
	}

	// Bootstrap: config, logger, telemetry.
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	ctx := context.Background()
	otel, err := initTelemetry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	// DI container.
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)
	do.ProvideValue(injector, otel.metrics)

	registerDependencies(injector, cfg, logger)

	// Resolve the server (eagerly wires the full graph).
	server, err := do.Invoke[*adapthttp.Server](injector)
	if err != nil {
		return fmt.Errorf("resolving server: %w", err)
	}
	dispatcher := do.MustInvoke[*dispatch.Dispatcher](injector)

	// Start server in background.
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// Wait for shutdown signal or server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	// Graceful shutdown: drain HTTP requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}

	// Wait for Start() goroutine to return.
	<-serverErr

	// Drain queued log entries now that no request can produce more.
	dispatchTimeout := cfg.Dispatch.ShutdownTimeout
	if dispatchTimeout <= 0 {
		dispatchTimeout = defaultDispatchShutdown
	}
	dispatchCtx, dispatchCancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer dispatchCancel()

	if err := dispatcher.Shutdown(dispatchCtx); err != nil {
		logger.Error("dispatcher shutdown error", slog.Any("error", err))
	}

	// Flush telemetry.
	otelCtx, otelCancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
	defer otelCancel()

	if err := otel.Shutdown(otelCtx); err != nil {
		logger.Error("telemetry shutdown error", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
	return nil
}

// otelProviders bundles OpenTelemetry provider lifecycle. All fields are nil
// when telemetry is disabled.
type otelProviders struct {
	tracer  *sdktrace.TracerProvider
	meter   *sdkmetric.MeterProvider
	metrics *telemetry.Metrics
}

// Shutdown flushes both providers. Nil-safe.
func (o *otelProviders) Shutdown(ctx context.Context) error {
	var errs []error
	if o.tracer != nil {
		if err := o.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	if o.meter != nil {
		if err := o.meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

func initTelemetry(ctx context.Context, cfg *config.Config) (*otelProviders, error) {
	if !cfg.Telemetry.Enabled {
		return &otelProviders{}, nil
	}

	tp, err := telemetry.InitTracer(ctx,
		cfg.Telemetry.ServiceName,
		cfg.Telemetry.Exporter,
		cfg.Telemetry.Endpoint,
	)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	mp, err := telemetry.InitMeter(ctx,
		cfg.Telemetry.ServiceName,
		cfg.Telemetry.Exporter,
		cfg.Telemetry.Endpoint,
	)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("init meter: %w", err)
	}

	metrics, err := telemetry.NewMetrics(mp, cfg.Telemetry.ServiceName)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, fmt.Errorf("creating metrics: %w", err)
	}

	return &otelProviders{
		tracer:  tp,
		meter:   mp,
		metrics: metrics,
	}, nil
}

// requestLogOptions maps the request_log config section onto the request
// logger options.
func requestLogOptions(rc *config.RequestLogConfig) (middleware.Options, error) {
	limit, err := rc.BodyLimit()
	if err != nil {
		return middleware.Options{}, err
	}

	opts := middleware.Options{
		RequestAllow:   rc.RequestAllow,
		RequestDeny:    rc.RequestDeny,
		ResponseAllow:  rc.ResponseAllow,
		BodyAllow:      rc.BodyAllow,
		BodyDeny:       rc.BodyDeny,
		HeaderDenylist: rc.HeaderDenylist,
		IgnoredRoutes:  rc.IgnoredRoutes,
		Level:          rc.Level,
		Msg:            rc.Msg,
		ExpressFormat:  rc.ExpressFormat,
		Colorize:       rc.Colorize,
		MetaField:      rc.MetaField,
		RequestField:   rc.RequestField,
		ResponseField:  rc.ResponseField,
		DisableMeta:    rc.DisableMeta,
		MaxBodyBytes:   limit,
	}
	if rc.StatusLevels {
		levels := reqlog.DefaultStatusLevels()
		opts.StatusLevels = &levels
	}
	if rc.TraceMeta {
		opts.DynamicMeta = middleware.TraceMeta
	}
	return opts, nil
}

// errorLogOptions derives the error logger options from the same section so
// both loggers agree on placement and redaction.
func errorLogOptions(rc *config.RequestLogConfig) middleware.ErrorOptions {
	opts := middleware.ErrorOptions{
		RequestAllow:   rc.RequestAllow,
		RequestDeny:    rc.RequestDeny,
		HeaderDenylist: rc.HeaderDenylist,
		MetaField:      rc.MetaField,
		RequestField:   rc.RequestField,
	}
	if rc.TraceMeta {
		opts.DynamicMeta = middleware.TraceMeta
	}
	return opts
}

func registerDependencies(injector *do.RootScope, cfg *config.Config, logger *slog.Logger) {
	do.Provide(injector, func(_ do.Injector) (ports.HealthRegistry, error) {
		return health.New(), nil
	})

	do.Provide(injector, func(i do.Injector) ([]ports.LogBackend, error) {
		var backends []ports.LogBackend
		if cfg.Dispatch.Stdout {
			access := logging.NewAccessLogger(cfg.Log.Format, os.Stdout, cfg.RequestLog.BodyDeny...)
			backends = append(backends, slogbackend.New("stdout", access))
		}
		if cfg.Collector.Enabled {
			metrics := do.MustInvoke[*telemetry.Metrics](i)
			client := httpclient.New(&cfg.Collector, "log-collector", metrics, logger)
			c := collector.New(client, cfg.Collector.Path, logger)
			do.MustInvoke[ports.HealthRegistry](i).Register(c)
			backends = append(backends, c)
		}
		return backends, nil
	})

	do.Provide(injector, func(i do.Injector) (*dispatch.Dispatcher, error) {
		backends := do.MustInvoke[[]ports.LogBackend](i)
		metrics := do.MustInvoke[*telemetry.Metrics](i)
		d, err := dispatch.New(backends, dispatch.Options{
			QueueSize: cfg.Dispatch.QueueSize,
			Workers:   cfg.Dispatch.Workers,
			FanOut:    cfg.Dispatch.FanOut,
		}, metrics, logger)
		if err != nil {
			return nil, err
		}
		do.MustInvoke[ports.HealthRegistry](i).Register(d)
		return d, nil
	})

	do.Provide(injector, func(i do.Injector) (*middleware.RequestLogger, error) {
		opts, err := requestLogOptions(&cfg.RequestLog)
		if err != nil {
			return nil, err
		}
		return middleware.NewRequestLogger(do.MustInvoke[*dispatch.Dispatcher](i), opts)
	})

	do.Provide(injector, func(i do.Injector) (*middleware.ErrorLogger, error) {
		return middleware.NewErrorLogger(do.MustInvoke[*dispatch.Dispatcher](i), errorLogOptions(&cfg.RequestLog))
	})

	do.Provide(injector, func(_ do.Injector) (ports.UserDirectory, error) {
		return app.NewUserDirectory(logger), nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.UserHandler, error) {
		svc := do.MustInvoke[ports.UserDirectory](i)
		return handlers.NewUserHandler(svc), nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.HealthHandler, error) {
		registry := do.MustInvoke[ports.HealthRegistry](i)
		return handlers.NewHealthHandler(registry), nil
	})

	do.Provide(injector, func(i do.Injector) (nethttp.Handler, error) {
		userH := do.MustInvoke[*handlers.UserHandler](i)
		healthH := do.MustInvoke[*handlers.HealthHandler](i)
		metrics := do.MustInvoke[*telemetry.Metrics](i)
		requests := do.MustInvoke[*middleware.RequestLogger](i)
		errs := do.MustInvoke[*middleware.ErrorLogger](i)

		onErr := errs.Wrap(middleware.WriteError)

		return adapthttp.NewRouter(handlers.NewDemoHandler(), userH, healthH, onErr,
			middleware.RequestID(),
			middleware.ContextLogger(logger),
			middleware.Tracing(metrics),
			requests.Handler,
			middleware.Recovery(onErr),
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*adapthttp.Server, error) {
		handler := do.MustInvoke[nethttp.Handler](i)
		return adapthttp.NewServer(cfg.Server, handler, logger), nil
	})
}

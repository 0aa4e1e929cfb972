package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/application-relay/external/upstream"
	"github.com/riskibarqy/application-relay/internal/config"
	"github.com/riskibarqy/application-relay/internal/infrastructure/eventsource"
	"github.com/riskibarqy/application-relay/internal/interfaces/httpapi"
	"github.com/riskibarqy/application-relay/internal/platform/logging"
	"github.com/riskibarqy/application-relay/internal/platform/resilience"
	"github.com/riskibarqy/application-relay/internal/usecase"
	"github.com/sourcegraph/conc/pool"
)

const shutdownTimeout = 10 * time.Second

// App owns the relay's long-running parts: the HTTP API and, when enabled,
// the event dispatcher loop.
type App struct {
	cfg        config.Config
	logger     *logging.Logger
	server     *http.Server
	resolver   *usecase.StatusResolver
	dispatcher *usecase.EventDispatcher
	redis      *redis.Client
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	statusClient, err := upstream.NewStatusClient(upstream.ClientConfig{
		PrimaryURL:   cfg.UpstreamPrimaryURL,
		SecondaryURL: cfg.UpstreamSecondaryURL,
		Timeout:      cfg.UpstreamTimeout,
		Logger:       logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.UpstreamCircuitEnabled,
			FailureThreshold: cfg.UpstreamCircuitFailureCount,
			OpenTimeout:      cfg.UpstreamCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.UpstreamCircuitHalfOpenMaxReq,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("build upstream status client: %w", err)
	}

	resolver, err := usecase.NewStatusResolver(statusClient, usecase.StatusResolverConfig{
		AttemptTimeout: cfg.ResolverAttemptTimeout,
		MaxRetries:     cfg.ResolverMaxRetries,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build status resolver: %w", err)
	}

	a := &App{
		cfg:      cfg,
		logger:   logger,
		resolver: resolver,
	}

	var publisher httpapi.EventPublisher
	readiness := map[string]httpapi.ReadinessCheck{}
	if cfg.DispatcherEnabled {
		source, err := a.buildDispatcher(cfg, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		publisher = source
		readiness["redis"] = func(ctx context.Context) error {
			return eventsource.Ping(ctx, a.redis)
		}
	}

	handler := httpapi.NewHandler(resolver, publisher, readiness, logger)
	a.server = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(handler, logger, cfg.MetricsEnabled),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	return a, nil
}

func (a *App) buildDispatcher(cfg config.Config, logger *logging.Logger) (*eventsource.RedisSource, error) {
	a.redis = eventsource.NewRedisClient(eventsource.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	source, err := eventsource.NewRedisSource(a.redis, cfg.RedisEventKey, logger)
	if err != nil {
		return nil, fmt.Errorf("build event source: %w", err)
	}
	deliverer, err := upstream.NewDeliverer(upstream.DelivererConfig{
		URLTemplate:     cfg.RecipientURLTemplate,
		Timeout:         cfg.RecipientTimeout,
		MaxConnsPerHost: cfg.RecipientMaxConnsPerHost,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build recipient deliverer: %w", err)
	}

	a.dispatcher, err = usecase.NewEventDispatcher(eventClient{RedisSource: source, Deliverer: deliverer}, usecase.EventDispatcherConfig{
		Cooldown:    cfg.DispatcherCooldown,
		MaxInFlight: cfg.DispatcherMaxInFlight,
		IdlePoll:    cfg.DispatcherIdlePoll,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build event dispatcher: %w", err)
	}

	return source, nil
}

// Handler exposes the HTTP router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run serves HTTP and runs the dispatcher until ctx is cancelled or one of
// them fails. It waits for in-flight deliveries before returning.
func (a *App) Run(ctx context.Context) error {
	p := pool.New().WithContext(ctx).WithCancelOnError()

	p.Go(a.serveHTTP)
	if a.dispatcher != nil {
		p.Go(a.dispatcher.Run)
	}

	return p.Wait()
}

func (a *App) serveHTTP(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "addr", a.cfg.HTTPAddr)
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	a.logger.Info("http server stopped")
	return nil
}

// Close releases worker pools and connections. Call it after Run returns.
func (a *App) Close() {
	if a.resolver != nil {
		a.resolver.Close()
	}
	if a.dispatcher != nil {
		a.dispatcher.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis client failed", "error", err)
		}
	}
}

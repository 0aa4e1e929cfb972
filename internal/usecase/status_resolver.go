package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/application-relay/internal/domain/status"
	"github.com/riskibarqy/application-relay/internal/platform/logging"
	"github.com/riskibarqy/application-relay/internal/platform/metrics"
	"github.com/riskibarqy/application-relay/internal/platform/resilience"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultStatusAttemptTimeout = 15 * time.Second
	// statusRaceWorkers is sized to the two calls of a single race.
	statusRaceWorkers = 2
)

type StatusResolverConfig struct {
	// AttemptTimeout bounds one race, not the whole retry chain.
	AttemptTimeout time.Duration
	// MaxRetries caps honoured retry-after answers. Zero means no cap.
	MaxRetries int
}

// StatusResolver races both status backends and follows retry-after answers
// until one of them gives a terminal response.
type StatusResolver struct {
	client StatusClient
	pool   *ants.Pool
	cfg    StatusResolverConfig
	logger *logging.Logger
	now    func() time.Time
	pause  func(ctx context.Context, d time.Duration) bool
}

func NewStatusResolver(client StatusClient, cfg StatusResolverConfig, logger *logging.Logger) (*StatusResolver, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: status client is required", ErrInvalidInput)
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = defaultStatusAttemptTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	logger = logger.Named("status_resolver")

	pool, err := ants.NewPool(statusRaceWorkers, ants.WithPanicHandler(func(p any) {
		logger.Error("status query worker panicked", "panic", p)
	}))
	if err != nil {
		return nil, fmt.Errorf("create status worker pool: %w", err)
	}

	return &StatusResolver{
		client: client,
		pool:   pool,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		pause:  resilience.Pause,
	}, nil
}

// Close releases the worker pool. Calls still running finish on their own.
func (r *StatusResolver) Close() {
	r.pool.Release()
}

// ResolveStatus returns ApplicationSuccess or ApplicationFailure for id. Errors
// are reserved for ErrTimeout, ErrInternal, ErrRetryBudgetExhausted and bad input.
func (r *StatusResolver) ResolveStatus(ctx context.Context, id string) (result status.ApplicationStatus, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatusResolver.ResolveStatus", attribute.String("application.id", id))
	defer func() {
		recordResolution(span, result, err)
		span.End()
	}()

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: application id is required", ErrInvalidInput)
	}

	logger := r.logger.With("application_id", id, "chain_id", uuid.NewString())
	waitCtx := ctx
	for retries := 0; ; retries++ {
		started := r.now()
		resp, raceErr := r.race(ctx, id)
		if raceErr != nil {
			outcome := metrics.OutcomeInternal
			if errors.Is(raceErr, ErrTimeout) {
				outcome = metrics.OutcomeTimeout
			}
			metrics.StatusResolutions.WithLabelValues(outcome).Inc()
			logger.WarnContext(ctx, "status race did not settle", "retries", retries, "error", raceErr)
			return nil, raceErr
		}

		switch v := resp.(type) {
		case status.Success:
			metrics.StatusResolutions.WithLabelValues(metrics.OutcomeSuccess).Inc()
			return status.ApplicationSuccess{ID: v.ApplicationID, Status: v.ApplicationStatus}, nil

		case status.RetryAfter:
			if r.cfg.MaxRetries > 0 && retries >= r.cfg.MaxRetries {
				metrics.StatusResolutions.WithLabelValues(metrics.OutcomeRetryExhausted).Inc()
				return nil, fmt.Errorf("%w: application %q still deferred after %d retries", ErrRetryBudgetExhausted, id, retries)
			}
			metrics.StatusRetries.Inc()
			logger.InfoContext(ctx, "upstream deferred status query", "delay", v.Delay, "retries", retries)
			if !r.pause(waitCtx, v.Delay) {
				// The retry still goes out; later waits no longer listen to the caller.
				logger.WarnContext(ctx, "retry-after wait interrupted, retrying now", "error", waitCtx.Err())
				waitCtx = context.WithoutCancel(ctx)
			}

		case status.Failure:
			elapsed := r.now().Sub(started)
			logger.ErrorContext(ctx, "status query failed", "error", v.Cause, "message", causeMessage(v.Cause), "elapsed", elapsed)
			metrics.StatusResolutions.WithLabelValues(metrics.OutcomeFailure).Inc()
			return status.ApplicationFailure{LastRequestTime: &elapsed, RetriesCount: retries}, nil

		default:
			metrics.StatusResolutions.WithLabelValues(metrics.OutcomeInternal).Inc()
			return nil, fmt.Errorf("%w: unexpected status response %T", ErrInternal, resp)
		}
	}
}

// race submits both backend calls and returns whichever answers first. The
// loser keeps running against a context that is never cancelled and drops its
// answer into the spare channel slot. Submissions happen off the caller's
// goroutine, so time spent waiting for a free worker counts against the
// attempt deadline.
func (r *StatusResolver) race(ctx context.Context, id string) (status.Response, error) {
	callCtx := context.WithoutCancel(ctx)
	calls := []func(context.Context, string) status.Response{
		r.client.GetApplicationStatus1,
		r.client.GetApplicationStatus2,
	}
	results := make(chan status.Response, len(calls))
	submitErrs := make(chan error, len(calls))

	timer := time.NewTimer(r.cfg.AttemptTimeout)
	defer timer.Stop()

	started := r.now()
	for _, call := range calls {
		go func() {
			if err := r.pool.Submit(func() {
				results <- query(callCtx, call, id)
			}); err != nil {
				submitErrs <- err
			}
		}()
	}

	select {
	case resp := <-results:
		metrics.StatusAttemptDuration.Observe(r.now().Sub(started).Seconds())
		return resp, nil
	case err := <-submitErrs:
		return nil, fmt.Errorf("%w: submit status query: %v", ErrInternal, err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: no backend answered application %q within %s", ErrTimeout, id, r.cfg.AttemptTimeout)
	}
}

func query(ctx context.Context, call func(context.Context, string) status.Response, id string) (resp status.Response) {
	var catcher panics.Catcher
	catcher.Try(func() {
		resp = call(ctx, id)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		return status.Failure{Cause: recovered.AsError()}
	}
	return resp
}

func causeMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

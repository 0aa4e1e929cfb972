package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/application-relay/internal/domain/delivery"
	"github.com/riskibarqy/application-relay/internal/platform/logging"
	"github.com/riskibarqy/application-relay/internal/platform/metrics"
	"github.com/riskibarqy/application-relay/internal/platform/resilience"
	"github.com/sourcegraph/conc/panics"
)

const (
	defaultDispatchCooldown    = time.Second
	defaultDispatchMaxInFlight = 64
)

type EventDispatcherConfig struct {
	// Cooldown is the wait between a rejected send and its single resend.
	Cooldown time.Duration
	// MaxInFlight bounds concurrent recipient deliveries, cooldowns included.
	MaxInFlight int
	// IdlePoll pauses the read loop after an empty read. Zero polls again at once.
	IdlePoll time.Duration
}

// EventDispatcher reads inbound events and fans each payload out to its
// recipients. A rejected delivery is resent exactly once after Timeout().
type EventDispatcher struct {
	client EventClient
	pool   *ants.Pool
	cfg    EventDispatcherConfig
	logger *logging.Logger
	pause  func(ctx context.Context, d time.Duration) bool

	inFlight sync.WaitGroup
}

func NewEventDispatcher(client EventClient, cfg EventDispatcherConfig, logger *logging.Logger) (*EventDispatcher, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: event client is required", ErrInvalidInput)
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaultDispatchCooldown
	}
	if cfg.MaxInFlight < 1 {
		cfg.MaxInFlight = defaultDispatchMaxInFlight
	}
	if cfg.IdlePoll < 0 {
		cfg.IdlePoll = 0
	}
	logger = logger.Named("event_dispatcher")

	pool, err := ants.NewPool(cfg.MaxInFlight, ants.WithPanicHandler(func(p any) {
		logger.Error("delivery worker panicked", "panic", p)
	}))
	if err != nil {
		return nil, fmt.Errorf("create delivery worker pool: %w", err)
	}

	return &EventDispatcher{
		client: client,
		pool:   pool,
		cfg:    cfg,
		logger: logger,
		pause:  resilience.Pause,
	}, nil
}

// Timeout is the cooldown before resending a rejected payload.
func (d *EventDispatcher) Timeout() time.Duration {
	return d.cfg.Cooldown
}

// Run is the dispatcher loop. It only returns once ctx is cancelled and every
// in-flight delivery has finished.
func (d *EventDispatcher) Run(ctx context.Context) error {
	d.logger.InfoContext(ctx, "event dispatcher started",
		"max_in_flight", d.cfg.MaxInFlight,
		"cooldown", d.Timeout(),
		"idle_poll", d.cfg.IdlePoll,
	)

	for ctx.Err() == nil {
		event, ok, err := d.client.ReadEvent(ctx)
		if err != nil {
			d.logger.WarnContext(ctx, "read event failed", "error", err)
			d.idle(ctx)
			continue
		}
		if !ok {
			d.idle(ctx)
			continue
		}

		if err := d.Dispatch(ctx, event); err != nil {
			d.logger.ErrorContext(ctx, "dispatch event failed", "recipients", len(event.Recipients), "error", err)
		}
	}

	d.logger.Info("event dispatcher stopping, waiting for in-flight deliveries")
	d.inFlight.Wait()
	d.logger.Info("event dispatcher stopped")
	return nil
}

// Dispatch starts one delivery per recipient and returns without waiting for
// any of them. It blocks only while the delivery pool is saturated.
func (d *EventDispatcher) Dispatch(ctx context.Context, event delivery.Event) error {
	metrics.EventsDispatched.Inc()

	// Sends outlive ctx so a shutdown never abandons a started delivery.
	sendCtx := context.WithoutCancel(ctx)
	payload := event.Payload
	for _, recipient := range event.Recipients {
		recipient := recipient
		d.inFlight.Add(1)
		metrics.DeliveriesInFlight.Inc()
		if err := d.pool.Submit(func() {
			defer d.inFlight.Done()
			defer metrics.DeliveriesInFlight.Dec()
			d.deliver(ctx, sendCtx, recipient, payload)
		}); err != nil {
			d.inFlight.Done()
			metrics.DeliveriesInFlight.Dec()
			return fmt.Errorf("submit delivery to recipient %q: %w", recipient, err)
		}
	}
	return nil
}

// Wait blocks until every delivery started so far has finished.
func (d *EventDispatcher) Wait() {
	d.inFlight.Wait()
}

func (d *EventDispatcher) Close() {
	d.pool.Release()
}

func (d *EventDispatcher) deliver(ctx, sendCtx context.Context, recipient string, payload []byte) {
	var catcher panics.Catcher
	catcher.Try(func() {
		if d.send(sendCtx, recipient, payload, metrics.AttemptFirst) != delivery.ResultRejected {
			return
		}

		d.logger.InfoContext(ctx, "payload rejected by recipient", "recipient", recipient)
		if !d.pause(ctx, d.Timeout()) {
			d.logger.ErrorContext(ctx, "cooldown interrupted, resending anyway", "recipient", recipient, "error", ctx.Err())
		}
		d.send(sendCtx, recipient, payload, metrics.AttemptRetry)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		d.logger.ErrorContext(ctx, "delivery panicked", "recipient", recipient, "error", recovered.AsError())
	}
}

// send performs one attempt. Transport errors count as a rejection.
func (d *EventDispatcher) send(ctx context.Context, recipient string, payload []byte, attempt string) delivery.Result {
	result, err := d.client.SendPayload(ctx, recipient, payload)
	if err != nil {
		metrics.Deliveries.WithLabelValues(attempt, metrics.DeliveryError).Inc()
		d.logger.WarnContext(ctx, "send payload failed", "recipient", recipient, "attempt", attempt, "error", err)
		return delivery.ResultRejected
	}

	switch result {
	case delivery.ResultAccepted:
		metrics.Deliveries.WithLabelValues(attempt, metrics.DeliveryAccepted).Inc()
		d.logger.InfoContext(ctx, "payload accepted by recipient", "recipient", recipient, "attempt", attempt)
	case delivery.ResultRejected:
		metrics.Deliveries.WithLabelValues(attempt, metrics.DeliveryRejected).Inc()
		d.logger.DebugContext(ctx, "send payload rejected", "recipient", recipient, "attempt", attempt)
	default:
		d.logger.WarnContext(ctx, "unknown delivery result", "recipient", recipient, "attempt", attempt, "result", string(result))
	}
	return result
}

func (d *EventDispatcher) idle(ctx context.Context) {
	if d.cfg.IdlePoll > 0 {
		d.pause(ctx, d.cfg.IdlePoll)
	}
}

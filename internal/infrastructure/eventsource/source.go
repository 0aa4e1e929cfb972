package eventsource

import (
	"context"
	"errors"
	"strings"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/application-relay/internal/domain/delivery"
	"github.com/riskibarqy/application-relay/internal/platform/logging"
)

const DefaultEventKey = "relay:events"

// envelope is the JSON shape of one list element. Payload is base64 on the wire.
type envelope struct {
	Recipients []string `json:"recipients" validate:"required,min=1,dive,required"`
	Payload    []byte   `json:"payload"`
}

// RedisSource reads events from a Redis list. Producers LPUSH, the source
// RPOPs, so events leave in arrival order.
type RedisSource struct {
	client    redis.UniversalClient
	key       string
	validator *validator.Validate
	logger    *logging.Logger
}

func NewRedisSource(client redis.UniversalClient, key string, logger *logging.Logger) (*RedisSource, error) {
	if client == nil {
		return nil, crerr.New("redis client is required")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultEventKey
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &RedisSource{
		client:    client,
		key:       key,
		validator: validator.New(),
		logger:    logger.Named("eventsource"),
	}, nil
}

// ReadEvent pops at most one event without blocking. An empty list, or an
// entry that fails to decode, reports ok=false with a nil error.
func (s *RedisSource) ReadEvent(ctx context.Context) (delivery.Event, bool, error) {
	raw, err := s.client.RPop(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return delivery.Event{}, false, nil
	}
	if err != nil {
		return delivery.Event{}, false, crerr.Wrapf(err, "pop event from %q", s.key)
	}

	event, err := s.decode(ctx, raw)
	if err != nil {
		s.logger.WarnContext(ctx, "dropping malformed event", "key", s.key, "size", len(raw), "error", err)
		return delivery.Event{}, false, nil
	}
	return event, true, nil
}

// Publish appends an event to the list in the same envelope ReadEvent expects.
func (s *RedisSource) Publish(ctx context.Context, event delivery.Event) error {
	raw, err := sonic.Marshal(envelope{Recipients: event.Recipients, Payload: event.Payload})
	if err != nil {
		return crerr.Wrap(err, "encode event")
	}
	if err := s.client.LPush(ctx, s.key, raw).Err(); err != nil {
		return crerr.Wrapf(err, "push event to %q", s.key)
	}
	return nil
}

func (s *RedisSource) decode(ctx context.Context, raw []byte) (delivery.Event, error) {
	var body envelope
	if err := sonic.Unmarshal(raw, &body); err != nil {
		return delivery.Event{}, crerr.Wrap(err, "decode event envelope")
	}
	if err := s.validator.StructCtx(ctx, body); err != nil {
		return delivery.Event{}, crerr.Wrap(err, "validate event envelope")
	}

	recipients := delivery.NormalizeRecipients(body.Recipients)
	if len(recipients) == 0 {
		return delivery.Event{}, crerr.New("event has no usable recipients")
	}
	return delivery.Event{Recipients: recipients, Payload: body.Payload}, nil
}

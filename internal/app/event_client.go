package app

import (
	"github.com/riskibarqy/application-relay/external/upstream"
	"github.com/riskibarqy/application-relay/internal/infrastructure/eventsource"
	"github.com/riskibarqy/application-relay/internal/usecase"
)

// eventClient reads from the Redis list and delivers over HTTP.
type eventClient struct {
	*eventsource.RedisSource
	*upstream.Deliverer
}

var _ usecase.EventClient = eventClient{}

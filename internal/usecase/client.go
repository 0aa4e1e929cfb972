package usecase

import (
	"context"

	"github.com/riskibarqy/application-relay/internal/domain/delivery"
	"github.com/riskibarqy/application-relay/internal/domain/status"
)

// StatusClient queries application status on two redundant backends.
// Implementations report every problem through status.Failure.
type StatusClient interface {
	GetApplicationStatus1(ctx context.Context, id string) status.Response
	GetApplicationStatus2(ctx context.Context, id string) status.Response
}

// EventClient is the inbound event source plus the outbound payload sender.
type EventClient interface {
	// ReadEvent polls for the next event without blocking. ok is false when
	// nothing is waiting.
	ReadEvent(ctx context.Context) (event delivery.Event, ok bool, err error)
	SendPayload(ctx context.Context, recipient string, payload []byte) (delivery.Result, error)
}

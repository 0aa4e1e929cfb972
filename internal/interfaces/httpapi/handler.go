package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/application-relay/internal/domain/delivery"
	"github.com/riskibarqy/application-relay/internal/domain/status"
	"github.com/riskibarqy/application-relay/internal/platform/logging"
	"github.com/riskibarqy/application-relay/internal/usecase"
	"go.opentelemetry.io/otel/attribute"
)

const maxEventBodyBytes = 1 << 20

type StatusResolver interface {
	ResolveStatus(ctx context.Context, id string) (status.ApplicationStatus, error)
}

// EventPublisher enqueues an event for the dispatcher loop.
type EventPublisher interface {
	Publish(ctx context.Context, event delivery.Event) error
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Handler struct {
	resolver  StatusResolver
	publisher EventPublisher
	readiness map[string]ReadinessCheck
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(resolver StatusResolver, publisher EventPublisher, readiness map[string]ReadinessCheck, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		resolver:  resolver,
		publisher: publisher,
		readiness: readiness,
		logger:    logger.Named("httpapi"),
		validator: validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Readyz")
	defer span.End()

	for name, check := range h.readiness {
		if err := check(ctx); err != nil {
			h.logger.WarnContext(ctx, "readiness check failed", "dependency", name, "error", err)
			writeError(ctx, w, fmt.Errorf("%w: %s is not ready", usecase.ErrDependencyUnavailable, name))
			return
		}
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ready"})
}

type applicationStatusRequest struct {
	ApplicationID string `validate:"required,max=128"`
}

func (h *Handler) GetApplicationStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetApplicationStatus")
	defer span.End()

	req := applicationStatusRequest{ApplicationID: strings.TrimSpace(r.PathValue("applicationID"))}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	annotate(ctx, attribute.String("relay.application_id", req.ApplicationID))

	result, err := h.resolver.ResolveStatus(ctx, req.ApplicationID)
	if err != nil {
		h.logger.ErrorContext(ctx, "resolve application status failed", "application_id", req.ApplicationID, "error", err)
		writeError(ctx, w, err)
		return
	}

	dto, err := toApplicationStatusDTO(req.ApplicationID, result)
	if err != nil {
		h.logger.ErrorContext(ctx, "map application status failed", "application_id", req.ApplicationID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, dto)
}

type publishEventRequest struct {
	Recipients []string `json:"recipients" validate:"required,min=1,max=1000,dive,required,max=256"`
	Payload    []byte   `json:"payload" validate:"required"`
}

func (h *Handler) PublishEvent(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PublishEvent")
	defer span.End()

	if h.publisher == nil {
		writeError(ctx, w, fmt.Errorf("%w: event dispatching is disabled", usecase.ErrDependencyUnavailable))
		return
	}

	var req publishEventRequest
	if err := sonic.ConfigDefault.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBodyBytes)).Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	recipients := delivery.NormalizeRecipients(req.Recipients)
	if len(recipients) == 0 {
		writeError(ctx, w, fmt.Errorf("%w: recipients must not be blank", usecase.ErrInvalidInput))
		return
	}

	annotate(ctx, attribute.Int("relay.recipients", len(recipients)))
	if err := h.publisher.Publish(ctx, delivery.Event{Recipients: recipients, Payload: req.Payload}); err != nil {
		h.logger.ErrorContext(ctx, "publish event failed", "recipients", len(recipients), "error", err)
		writeError(ctx, w, fmt.Errorf("%w: enqueue event: %v", usecase.ErrDependencyUnavailable, err))
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, publishEventDTO{Recipients: len(recipients)})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

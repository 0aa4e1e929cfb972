package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/application-relay/internal/usecase"
)

const (
	googleAPIVersion = "2.0"
	errorDomain      = "application-relay"

	internalErrorMessage = "internal server error"
)

type googleResponseEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       any              `json:"data,omitempty"`
	Error      *googleErrorBody `json:"error,omitempty"`
}

type googleErrorBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Errors  []googleErrorItem `json:"errors,omitempty"`
}

type googleErrorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
}

var internalError = mappedError{
	HTTPStatus: http.StatusInternalServerError,
	Reason:     "internalError",
	Status:     "INTERNAL",
}

// errorRules is checked in order; the first sentinel found in the chain wins.
var errorRules = []struct {
	target error
	mapped mappedError
}{
	{usecase.ErrInvalidInput, mappedError{http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"}},
	{usecase.ErrTimeout, mappedError{http.StatusGatewayTimeout, "upstreamTimeout", "DEADLINE_EXCEEDED"}},
	{usecase.ErrRetryBudgetExhausted, mappedError{http.StatusServiceUnavailable, "retryBudgetExhausted", "UNAVAILABLE"}},
	{usecase.ErrDependencyUnavailable, mappedError{http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE"}},
}

func writeJSON(w http.ResponseWriter, status int, payload googleResponseEnvelope) {
	payload.APIVersion = googleAPIVersion
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(_ context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, googleResponseEnvelope{Data: data})
}

// writeError maps err onto the envelope. Messages of 5xx errors other than
// unavailability are replaced so internals do not leak to callers.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	mapped := mapError(ctx, err)
	message := err.Error()
	if mapped == internalError {
		message = internalErrorMessage
	}
	writeJSON(w, mapped.HTTPStatus, googleResponseEnvelope{Error: newErrorBody(mapped, message)})
}

func writeInternalError(_ context.Context, w http.ResponseWriter) {
	writeJSON(w, internalError.HTTPStatus, googleResponseEnvelope{Error: newErrorBody(internalError, internalErrorMessage)})
}

func newErrorBody(mapped mappedError, message string) *googleErrorBody {
	return &googleErrorBody{
		Code:    mapped.HTTPStatus,
		Message: message,
		Status:  mapped.Status,
		Errors: []googleErrorItem{{
			Domain:  errorDomain,
			Reason:  mapped.Reason,
			Message: message,
		}},
	}
}

func mapError(_ context.Context, err error) mappedError {
	for _, rule := range errorRules {
		if errors.Is(err, rule.target) {
			return rule.mapped
		}
	}
	return internalError
}

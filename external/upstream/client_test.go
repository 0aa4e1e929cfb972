package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/application-relay/internal/domain/status"
	"github.com/riskibarqy/application-relay/internal/platform/logging"
	"github.com/riskibarqy/application-relay/internal/platform/resilience"
	"github.com/riskibarqy/application-relay/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStatusClient(t *testing.T, primary, secondary http.Handler, breaker resilience.CircuitBreakerConfig) *StatusClient {
	t.Helper()

	primarySrv := httptest.NewServer(primary)
	t.Cleanup(primarySrv.Close)
	secondarySrv := httptest.NewServer(secondary)
	t.Cleanup(secondarySrv.Close)

	client, err := NewStatusClient(ClientConfig{
		HTTPClient:     primarySrv.Client(),
		PrimaryURL:     primarySrv.URL + "/",
		SecondaryURL:   secondarySrv.URL,
		Timeout:        2 * time.Second,
		Logger:         logging.NewNop(),
		CircuitBreaker: breaker,
	})
	require.NoError(t, err)
	return client
}

func TestStatusClient_SuccessPayload(t *testing.T) {
	t.Parallel()

	var gotPath string
	primary := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"application_id":"A 1","application_status":"APPROVED"}`))
	})
	client := newTestStatusClient(t, primary, http.NotFoundHandler(), resilience.CircuitBreakerConfig{})

	resp := client.GetApplicationStatus1(context.Background(), "A 1")
	assert.Equal(t, status.Success{ApplicationID: "A 1", ApplicationStatus: "APPROVED"}, resp)
	assert.Equal(t, "/applications/A%201/status", gotPath)
}

func TestStatusClient_MissingIDFallsBackToRequested(t *testing.T) {
	t.Parallel()

	secondary := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"application_status":"PENDING"}`))
	})
	client := newTestStatusClient(t, http.NotFoundHandler(), secondary, resilience.CircuitBreakerConfig{})

	resp := client.GetApplicationStatus2(context.Background(), "A2")
	assert.Equal(t, status.Success{ApplicationID: "A2", ApplicationStatus: "PENDING"}, resp)
}

func TestStatusClient_RetryAfterHeaderSeconds(t *testing.T) {
	t.Parallel()

	primary := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	})
	client := newTestStatusClient(t, primary, http.NotFoundHandler(), resilience.CircuitBreakerConfig{})

	resp := client.GetApplicationStatus1(context.Background(), "A3")
	assert.Equal(t, status.RetryAfter{Delay: 3 * time.Second}, resp)
}

func TestStatusClient_RetryAfterBodyMillis(t *testing.T) {
	t.Parallel()

	primary := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"retry_after_ms":250}`))
	})
	client := newTestStatusClient(t, primary, http.NotFoundHandler(), resilience.CircuitBreakerConfig{})

	resp := client.GetApplicationStatus1(context.Background(), "A4")
	assert.Equal(t, status.RetryAfter{Delay: 250 * time.Millisecond}, resp)
}

func TestStatusClient_OutOfRangeRetryHintIsFailure(t *testing.T) {
	t.Parallel()

	primary := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "9300000000")
		w.WriteHeader(http.StatusTooManyRequests)
	})
	client := newTestStatusClient(t, primary, http.NotFoundHandler(), resilience.CircuitBreakerConfig{})

	resp := client.GetApplicationStatus1(context.Background(), "A4")
	failure, ok := resp.(status.Failure)
	if !ok {
		t.Fatalf("expected Failure for an overflowing retry hint, got %#v", resp)
	}
	assert.ErrorContains(t, failure.Cause, "without usable retry hint")
}

func TestStatusClient_NonSuccessStatusIsFailure(t *testing.T) {
	t.Parallel()

	primary := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"unknown application"}`))
	})
	client := newTestStatusClient(t, primary, http.NotFoundHandler(), resilience.CircuitBreakerConfig{})

	resp := client.GetApplicationStatus1(context.Background(), "A5")
	failure, ok := resp.(status.Failure)
	require.True(t, ok, "expected Failure, got %T", resp)
	assert.Contains(t, failure.Cause.Error(), "status=404")
	assert.False(t, isCircuitFailure(failure.Cause))
}

func TestStatusClient_MalformedPayloadIsFailure(t *testing.T) {
	t.Parallel()

	primary := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"application_id":`))
	})
	client := newTestStatusClient(t, primary, http.NotFoundHandler(), resilience.CircuitBreakerConfig{})

	resp := client.GetApplicationStatus1(context.Background(), "A6")
	_, ok := resp.(status.Failure)
	assert.True(t, ok, "expected Failure, got %T", resp)
}

func TestStatusClient_OpenBreakerShortCircuits(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	primary := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	client := newTestStatusClient(t, primary, http.NotFoundHandler(), resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
	})

	for i := 0; i < 2; i++ {
		resp := client.GetApplicationStatus1(context.Background(), "A7")
		failure, ok := resp.(status.Failure)
		require.True(t, ok, "expected Failure, got %T", resp)
		require.True(t, isCircuitFailure(failure.Cause), "expected transient failure, got %v", failure.Cause)
	}

	resp := client.GetApplicationStatus1(context.Background(), "A7")
	failure, ok := resp.(status.Failure)
	require.True(t, ok, "expected Failure, got %T", resp)
	assert.True(t, errors.Is(failure.Cause, usecase.ErrDependencyUnavailable), "expected ErrDependencyUnavailable, got %v", failure.Cause)
	assert.EqualValues(t, 2, hits.Load())
	assert.Equal(t, resilience.CircuitStateClosed, client.secondary.breaker.State())
}

func TestStatusClient_TransportErrorIsTransientFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	deadURL := srv.URL
	srv.Close()

	client, err := NewStatusClient(ClientConfig{
		PrimaryURL:   deadURL,
		SecondaryURL: deadURL,
		Timeout:      time.Second,
		Logger:       logging.NewNop(),
	})
	require.NoError(t, err)

	resp := client.GetApplicationStatus2(context.Background(), "A8")
	failure, ok := resp.(status.Failure)
	require.True(t, ok, "expected Failure, got %T", resp)
	assert.True(t, isCircuitFailure(failure.Cause), "expected transient failure, got %v", failure.Cause)
}

func TestNewStatusClient_ValidatesURLs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		primary   string
		secondary string
	}{
		{name: "missing primary", primary: "", secondary: "http://secondary"},
		{name: "missing secondary", primary: "http://primary", secondary: " "},
		{name: "bad scheme", primary: "ftp://primary", secondary: "http://secondary"},
		{name: "no host", primary: "http://", secondary: "http://secondary"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewStatusClient(ClientConfig{PrimaryURL: tc.primary, SecondaryURL: tc.secondary})
			assert.Error(t, err)
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		header string
		body   string
		want   time.Duration
		wantOK bool
	}{
		{name: "delta seconds", header: "7", want: 7 * time.Second, wantOK: true},
		{name: "http date", header: now.Add(90 * time.Second).Format(http.TimeFormat), want: 90 * time.Second, wantOK: true},
		{name: "date in the past", header: now.Add(-time.Minute).Format(http.TimeFormat), want: 0, wantOK: true},
		{name: "body millis", body: `{"retry_after_ms":1500}`, want: 1500 * time.Millisecond, wantOK: true},
		{name: "header wins over body", header: "1", body: `{"retry_after_ms":9000}`, want: time.Second, wantOK: true},
		{name: "no hint", body: `{"error":"busy"}`, wantOK: false},
		{name: "garbage header", header: "soon", wantOK: false},
		{name: "negative seconds", header: "-5", want: 0, wantOK: true},
		{name: "seconds at the bound", header: "86400", want: 24 * time.Hour, wantOK: true},
		{name: "seconds past the bound", header: "86401", wantOK: false},
		{name: "seconds overflowing duration", header: "9300000000", wantOK: false},
		{name: "millis overflowing duration", body: `{"retry_after_ms":9300000000000}`, wantOK: false},
		{name: "date far in the future", header: now.AddDate(5, 0, 0).Format(http.TimeFormat), wantOK: false},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := parseRetryAfter(tc.header, []byte(tc.body), now)
			if ok != tc.wantOK {
				t.Fatalf("ok mismatch: got=%v want=%v", ok, tc.wantOK)
			}
			if ok && got != tc.want {
				t.Fatalf("delay mismatch: got=%s want=%s", got, tc.want)
			}
		})
	}
}

package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/application-relay/internal/domain/status"
	"github.com/riskibarqy/application-relay/internal/platform/logging"
	"github.com/riskibarqy/application-relay/internal/platform/resilience"
	"github.com/riskibarqy/application-relay/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultTimeout      = 10 * time.Second
	maxStatusBodyBytes  = 1 << 20
	backendNamePrimary  = "primary"
	backendNameFallback = "secondary"
)

var errUpstreamTransient = crerr.New("upstream transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	PrimaryURL     string
	SecondaryURL   string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type backend struct {
	name    string
	baseURL string
	breaker *resilience.CircuitBreaker
}

// StatusClient queries the two status backends. Every outcome, including
// transport errors and open breakers, comes back as a status.Response.
type StatusClient struct {
	httpClient *http.Client
	primary    backend
	secondary  backend
	logger     *logging.Logger
	now        func() time.Time
}

var _ usecase.StatusClient = (*StatusClient)(nil)

func NewStatusClient(cfg ClientConfig) (*StatusClient, error) {
	primaryURL, err := normalizeBaseURL(cfg.PrimaryURL)
	if err != nil {
		return nil, fmt.Errorf("primary upstream url: %w", err)
	}
	secondaryURL, err := normalizeBaseURL(cfg.SecondaryURL)
	if err != nil {
		return nil, fmt.Errorf("secondary upstream url: %w", err)
	}
	if err := cfg.CircuitBreaker.Validate(); err != nil {
		return nil, fmt.Errorf("upstream circuit breaker: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	return &StatusClient{
		httpClient: httpClient,
		primary: backend{
			name:    backendNamePrimary,
			baseURL: primaryURL,
			breaker: resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		},
		secondary: backend{
			name:    backendNameFallback,
			baseURL: secondaryURL,
			breaker: resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		},
		logger: logger.Named("upstream"),
		now:    time.Now,
	}, nil
}

func (c *StatusClient) GetApplicationStatus1(ctx context.Context, id string) status.Response {
	return c.query(ctx, c.primary, id)
}

func (c *StatusClient) GetApplicationStatus2(ctx context.Context, id string) status.Response {
	return c.query(ctx, c.secondary, id)
}

func (c *StatusClient) query(ctx context.Context, b backend, id string) status.Response {
	if err := b.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "upstream circuit breaker rejected request", "backend", b.name, "state", b.breaker.State())
		return status.Failure{Cause: fmt.Errorf("%w: %s status backend is temporarily unavailable", usecase.ErrDependencyUnavailable, b.name)}
	}

	resp := c.fetch(ctx, b, id)
	if failure, ok := resp.(status.Failure); ok && isCircuitFailure(failure.Cause) {
		b.breaker.RecordFailure()
	} else {
		b.breaker.RecordSuccess()
	}
	return resp
}

func (c *StatusClient) fetch(ctx context.Context, b backend, id string) status.Response {
	fullURL := statusURL(b.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return status.Failure{Cause: crerr.Wrap(err, "build status request")}
	}
	req.Header.Set("accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return status.Failure{Cause: crerr.Mark(crerr.Wrapf(err, "query %s status backend", b.name), errUpstreamTransient)}
	}
	raw, readErr := io.ReadAll(io.LimitReader(res.Body, maxStatusBodyBytes))
	_ = res.Body.Close()
	if readErr != nil {
		return status.Failure{Cause: crerr.Mark(crerr.Wrap(readErr, "read status response body"), errUpstreamTransient)}
	}

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		return decodeSuccess(raw, id)

	case res.StatusCode == http.StatusTooManyRequests || res.StatusCode == http.StatusServiceUnavailable:
		if delay, ok := parseRetryAfter(res.Header.Get("Retry-After"), raw, c.now()); ok {
			c.logger.DebugContext(ctx, "upstream asked to retry later", "backend", b.name, "status", res.StatusCode, "delay", delay)
			return status.RetryAfter{Delay: delay}
		}
		return status.Failure{Cause: fmt.Errorf("%w: %s backend status=%d without usable retry hint body=%s", errUpstreamTransient, b.name, res.StatusCode, abbreviateBody(raw))}

	case isRetryableStatus(res.StatusCode):
		return status.Failure{Cause: fmt.Errorf("%w: %s backend status=%d body=%s", errUpstreamTransient, b.name, res.StatusCode, abbreviateBody(raw))}

	default:
		return status.Failure{Cause: fmt.Errorf("%s backend status=%d body=%s", b.name, res.StatusCode, abbreviateBody(raw))}
	}
}

type statusEnvelope struct {
	ApplicationID     string `json:"application_id"`
	ApplicationStatus string `json:"application_status"`
}

type retryHintEnvelope struct {
	RetryAfterMS *int64 `json:"retry_after_ms"`
}

func decodeSuccess(raw []byte, requestedID string) status.Response {
	var body statusEnvelope
	if err := sonic.Unmarshal(raw, &body); err != nil {
		return status.Failure{Cause: crerr.Wrap(err, "decode status payload")}
	}
	if strings.TrimSpace(body.ApplicationStatus) == "" {
		return status.Failure{Cause: crerr.Newf("status payload for application %q has no application_status", requestedID)}
	}
	if strings.TrimSpace(body.ApplicationID) == "" {
		body.ApplicationID = requestedID
	}
	return status.Success{ApplicationID: body.ApplicationID, ApplicationStatus: body.ApplicationStatus}
}

// maxRetryDelay bounds a usable retry hint. Larger hints, including ones
// that would overflow time.Duration, are treated as no hint.
const maxRetryDelay = 24 * time.Hour

// parseRetryAfter reads the Retry-After header (delta seconds or HTTP date)
// and falls back to a retry_after_ms body field.
func parseRetryAfter(header string, body []byte, now time.Time) (time.Duration, bool) {
	header = strings.TrimSpace(header)
	if header != "" {
		if seconds, err := strconv.ParseInt(header, 10, 64); err == nil {
			return scaleDelay(seconds, time.Second)
		}
		if at, err := http.ParseTime(header); err == nil {
			return boundDelay(at.Sub(now))
		}
	}

	if len(body) == 0 {
		return 0, false
	}
	var hint retryHintEnvelope
	if err := sonic.Unmarshal(body, &hint); err != nil || hint.RetryAfterMS == nil {
		return 0, false
	}
	return scaleDelay(*hint.RetryAfterMS, time.Millisecond)
}

// scaleDelay converts n units into a duration without overflowing.
func scaleDelay(n int64, unit time.Duration) (time.Duration, bool) {
	if n <= 0 {
		return 0, true
	}
	if n > int64(maxRetryDelay/unit) {
		return 0, false
	}
	return time.Duration(n) * unit, true
}

func boundDelay(d time.Duration) (time.Duration, bool) {
	switch {
	case d < 0:
		return 0, true
	case d > maxRetryDelay:
		return 0, false
	default:
		return d, true
	}
}

func statusURL(baseURL, id string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(baseURL)
	_, _ = buf.WriteString("/applications/")
	_, _ = buf.WriteString(url.PathEscape(id))
	_, _ = buf.WriteString("/status")
	return buf.String()
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return "", fmt.Errorf("base url is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("base url must use http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("base url must include a host")
	}
	return raw, nil
}

func isCircuitFailure(err error) bool {
	return crerr.Is(err, errUpstreamTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusRequestTimeout || code >= http.StatusInternalServerError
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	body := strings.TrimSpace(string(raw))
	if len(body) <= limit {
		return body
	}
	return body[:limit] + "..."
}

package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/application-relay/internal/domain/delivery"
	"github.com/riskibarqy/application-relay/internal/platform/logging"
	"github.com/valyala/fasthttp"
)

const (
	RecipientPlaceholder        = "{recipient}"
	defaultDeliveryTimeout      = 5 * time.Second
	defaultDeliveryConnsPerHost = 512
)

type DelivererConfig struct {
	// URLTemplate must contain {recipient}; it is replaced by the escaped recipient id.
	URLTemplate     string
	Timeout         time.Duration
	MaxConnsPerHost int
	Logger          *logging.Logger
}

// Deliverer POSTs event payloads to recipients over a pooled fasthttp client.
type Deliverer struct {
	client      *fasthttp.Client
	urlTemplate string
	timeout     time.Duration
	logger      *logging.Logger
}

func NewDeliverer(cfg DelivererConfig) (*Deliverer, error) {
	template := strings.TrimSpace(cfg.URLTemplate)
	if !strings.Contains(template, RecipientPlaceholder) {
		return nil, fmt.Errorf("recipient url template must contain %s", RecipientPlaceholder)
	}
	if _, err := normalizeBaseURL(strings.ReplaceAll(template, RecipientPlaceholder, "probe")); err != nil {
		return nil, fmt.Errorf("recipient url template: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultDeliveryTimeout
	}
	maxConns := cfg.MaxConnsPerHost
	if maxConns < 1 {
		maxConns = defaultDeliveryConnsPerHost
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Deliverer{
		client: &fasthttp.Client{
			Name:            "application-relay",
			MaxConnsPerHost: maxConns,
			ReadTimeout:     timeout,
			WriteTimeout:    timeout,
		},
		urlTemplate: template,
		timeout:     timeout,
		logger:      logger.Named("deliverer"),
	}, nil
}

// SendPayload makes one delivery attempt. Any HTTP answer maps to a Result;
// only transport failures return an error.
func (d *Deliverer) SendPayload(ctx context.Context, recipient string, payload []byte) (delivery.Result, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(d.recipientURL(recipient))
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/octet-stream")
	req.SetBody(payload)

	timeout := d.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return "", crerr.Wrapf(context.DeadlineExceeded, "deliver to recipient %q", recipient)
	}

	if err := d.client.DoTimeout(req, resp, timeout); err != nil {
		return "", crerr.Wrapf(err, "deliver to recipient %q", recipient)
	}

	code := resp.StatusCode()
	if code >= fasthttp.StatusOK && code < fasthttp.StatusMultipleChoices {
		return delivery.ResultAccepted, nil
	}
	d.logger.DebugContext(ctx, "recipient answered with non-2xx status", "recipient", recipient, "status", code)
	return delivery.ResultRejected, nil
}

func (d *Deliverer) recipientURL(recipient string) string {
	return strings.ReplaceAll(d.urlTemplate, RecipientPlaceholder, url.PathEscape(recipient))
}

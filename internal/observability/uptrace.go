package observability

import (
	"context"
	"strings"

	"github.com/riskibarqy/application-relay/internal/config"
	"github.com/riskibarqy/application-relay/internal/platform/logging"
	"github.com/uptrace/uptrace-go/uptrace"
	"go.opentelemetry.io/otel/attribute"
)

func noopShutdown(context.Context) error { return nil }

// InitUptrace points the global OpenTelemetry providers at Uptrace. The
// returned func flushes and stops them; it is a no-op when export is off.
func InitUptrace(cfg config.Config, logger *logging.Logger) (func(context.Context) error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("uptrace")

	switch {
	case !cfg.UptraceEnabled:
		logger.Info("uptrace export off", "reason", "UPTRACE_ENABLED=false")
		return noopShutdown, nil
	case strings.TrimSpace(cfg.UptraceDSN) == "":
		logger.Warn("uptrace export off", "reason", "no DSN in UPTRACE_DSN or OTEL_EXPORTER_OTLP_HEADERS")
		return noopShutdown, nil
	}

	uptrace.ConfigureOpentelemetry(uptraceOptions(cfg)...)
	logger.Info("uptrace export on",
		"service_name", cfg.ServiceName,
		"service_version", cfg.ServiceVersion,
		"environment", cfg.AppEnv,
	)

	return func(ctx context.Context) error {
		logger.Info("flushing uptrace exporters")
		return uptrace.Shutdown(ctx)
	}, nil
}

func uptraceOptions(cfg config.Config) []uptrace.Option {
	return []uptrace.Option{
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		uptrace.WithResourceAttributes(
			attribute.Bool("relay.dispatcher_enabled", cfg.DispatcherEnabled),
			attribute.String("relay.event_key", cfg.RedisEventKey),
		),
	}
}

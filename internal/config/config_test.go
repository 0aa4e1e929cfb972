package config

import (
	"testing"
	"time"

	"github.com/riskibarqy/application-relay/internal/platform/logging"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceName != "application-relay" {
		t.Fatalf("unexpected ServiceName: %q", cfg.ServiceName)
	}
	if cfg.ResolverAttemptTimeout != 15*time.Second {
		t.Fatalf("unexpected ResolverAttemptTimeout: %s", cfg.ResolverAttemptTimeout)
	}
	if cfg.ResolverMaxRetries != 0 {
		t.Fatalf("expected unbounded resolver retries, got=%d", cfg.ResolverMaxRetries)
	}
	if cfg.DispatcherCooldown != time.Second {
		t.Fatalf("unexpected DispatcherCooldown: %s", cfg.DispatcherCooldown)
	}
	if cfg.DispatcherMaxInFlight != 64 {
		t.Fatalf("unexpected DispatcherMaxInFlight: %d", cfg.DispatcherMaxInFlight)
	}
	if cfg.DispatcherIdlePoll != 25*time.Millisecond {
		t.Fatalf("unexpected DispatcherIdlePoll: %s", cfg.DispatcherIdlePoll)
	}
	if cfg.RedisEventKey != "relay:events" {
		t.Fatalf("unexpected RedisEventKey: %q", cfg.RedisEventKey)
	}
	if cfg.LogLevel != logging.LevelInfo {
		t.Fatalf("unexpected LogLevel: %s", cfg.LogLevel)
	}
	if cfg.PyroscopeAppName != cfg.ServiceName {
		t.Fatalf("expected PyroscopeAppName to default to service name, got=%q", cfg.PyroscopeAppName)
	}
}

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", `uptrace-dsn="https://token@api.uptrace.dev?grpc=4317"`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev?grpc=4317" {
		t.Fatalf("unexpected UptraceDSN: %q", cfg.UptraceDSN)
	}
}

func TestLoad_RelayTuning(t *testing.T) {
	t.Setenv("APP_ENV", EnvStage)
	t.Setenv("RESOLVER_ATTEMPT_TIMEOUT", "3s")
	t.Setenv("RESOLVER_MAX_RETRIES", "4")
	t.Setenv("DISPATCHER_COOLDOWN", "250ms")
	t.Setenv("DISPATCHER_MAX_IN_FLIGHT", "8")
	t.Setenv("DISPATCHER_IDLE_POLL", "0s")
	t.Setenv("UPSTREAM_PRIMARY_URL", "https://status-a.internal/")
	t.Setenv("UPSTREAM_SECONDARY_URL", "https://status-b.internal")
	t.Setenv("APP_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ResolverAttemptTimeout != 3*time.Second {
		t.Fatalf("unexpected ResolverAttemptTimeout: %s", cfg.ResolverAttemptTimeout)
	}
	if cfg.ResolverMaxRetries != 4 {
		t.Fatalf("unexpected ResolverMaxRetries: %d", cfg.ResolverMaxRetries)
	}
	if cfg.DispatcherCooldown != 250*time.Millisecond {
		t.Fatalf("unexpected DispatcherCooldown: %s", cfg.DispatcherCooldown)
	}
	if cfg.DispatcherMaxInFlight != 8 {
		t.Fatalf("unexpected DispatcherMaxInFlight: %d", cfg.DispatcherMaxInFlight)
	}
	if cfg.DispatcherIdlePoll != 0 {
		t.Fatalf("expected busy polling, got=%s", cfg.DispatcherIdlePoll)
	}
	if cfg.UpstreamPrimaryURL != "https://status-a.internal" {
		t.Fatalf("unexpected UpstreamPrimaryURL: %q", cfg.UpstreamPrimaryURL)
	}
	if cfg.LogLevel != logging.LevelDebug {
		t.Fatalf("unexpected LogLevel: %s", cfg.LogLevel)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "zero cooldown", key: "DISPATCHER_COOLDOWN", value: "0s"},
		{name: "negative idle poll", key: "DISPATCHER_IDLE_POLL", value: "-1ms"},
		{name: "zero in flight", key: "DISPATCHER_MAX_IN_FLIGHT", value: "0"},
		{name: "negative retries", key: "RESOLVER_MAX_RETRIES", value: "-1"},
		{name: "bad attempt timeout", key: "RESOLVER_ATTEMPT_TIMEOUT", value: "soon"},
		{name: "upstream without scheme", key: "UPSTREAM_PRIMARY_URL", value: "status-a.internal"},
		{name: "template without placeholder", key: "RECIPIENT_URL_TEMPLATE", value: "http://recipients.internal/events"},
		{name: "breaker threshold", key: "UPSTREAM_CIRCUIT_FAILURE_COUNT", value: "0"},
		{name: "bad metrics flag", key: "METRICS_ENABLED", value: "maybe"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("APP_ENV", EnvDev)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.value)
			}
		})
	}
}

func TestLoad_PyroscopeRequiresServerAddress(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

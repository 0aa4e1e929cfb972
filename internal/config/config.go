package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/application-relay/internal/platform/logging"
)

// Config stores runtime configuration for the relay.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	LogLevel       logging.Level
	MetricsEnabled bool
	PprofEnabled   bool
	PprofAddr      string

	UpstreamPrimaryURL            string
	UpstreamSecondaryURL          string
	UpstreamTimeout               time.Duration
	UpstreamCircuitEnabled        bool
	UpstreamCircuitFailureCount   int
	UpstreamCircuitOpenTimeout    time.Duration
	UpstreamCircuitHalfOpenMaxReq int
	ResolverAttemptTimeout        time.Duration
	ResolverMaxRetries            int
	DispatcherEnabled             bool
	DispatcherCooldown            time.Duration
	DispatcherMaxInFlight         int
	DispatcherIdlePoll            time.Duration
	RecipientURLTemplate          string
	RecipientTimeout              time.Duration
	RecipientMaxConnsPerHost      int
	RedisAddr                     string
	RedisPassword                 string
	RedisDB                       int
	RedisEventKey                 string
	UptraceEnabled                bool
	UptraceDSN                    string
	PyroscopeEnabled              bool
	PyroscopeServerAddress        string
	PyroscopeAppName              string
	PyroscopeAuthToken            string
	PyroscopeBasicAuthUser        string
	PyroscopeBasicAuthPassword    string
	PyroscopeUploadRate           time.Duration
}

const recipientPlaceholder = "{recipient}"

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := getEnvAsPositiveDuration("APP_READ_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	writeTimeout, err := getEnvAsPositiveDuration("APP_WRITE_TIMEOUT", "45s")
	if err != nil {
		return Config{}, err
	}

	metricsEnabled, err := strconv.ParseBool(getEnv("METRICS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse METRICS_ENABLED: %w", err)
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	upstreamPrimaryURL, err := getEnvAsHTTPURL("UPSTREAM_PRIMARY_URL", "http://localhost:8081")
	if err != nil {
		return Config{}, err
	}
	upstreamSecondaryURL, err := getEnvAsHTTPURL("UPSTREAM_SECONDARY_URL", "http://localhost:8082")
	if err != nil {
		return Config{}, err
	}
	upstreamTimeout, err := getEnvAsPositiveDuration("UPSTREAM_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	upstreamCircuitEnabled, err := strconv.ParseBool(getEnv("UPSTREAM_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPSTREAM_CIRCUIT_ENABLED: %w", err)
	}
	upstreamCircuitFailureCount, err := getEnvAsInt("UPSTREAM_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse UPSTREAM_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if upstreamCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("UPSTREAM_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	upstreamCircuitOpenTimeout, err := getEnvAsPositiveDuration("UPSTREAM_CIRCUIT_OPEN_TIMEOUT", "15s")
	if err != nil {
		return Config{}, err
	}
	upstreamCircuitHalfOpenMaxReq, err := getEnvAsInt("UPSTREAM_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse UPSTREAM_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if upstreamCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("UPSTREAM_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	resolverAttemptTimeout, err := getEnvAsPositiveDuration("RESOLVER_ATTEMPT_TIMEOUT", "15s")
	if err != nil {
		return Config{}, err
	}
	resolverMaxRetries, err := getEnvAsInt("RESOLVER_MAX_RETRIES", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse RESOLVER_MAX_RETRIES: %w", err)
	}
	if resolverMaxRetries < 0 {
		return Config{}, fmt.Errorf("RESOLVER_MAX_RETRIES must be >= 0")
	}

	dispatcherEnabled, err := strconv.ParseBool(getEnv("DISPATCHER_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DISPATCHER_ENABLED: %w", err)
	}
	dispatcherCooldown, err := getEnvAsPositiveDuration("DISPATCHER_COOLDOWN", "1s")
	if err != nil {
		return Config{}, err
	}
	dispatcherMaxInFlight, err := getEnvAsInt("DISPATCHER_MAX_IN_FLIGHT", 64)
	if err != nil {
		return Config{}, fmt.Errorf("parse DISPATCHER_MAX_IN_FLIGHT: %w", err)
	}
	if dispatcherMaxInFlight < 1 {
		return Config{}, fmt.Errorf("DISPATCHER_MAX_IN_FLIGHT must be >= 1")
	}
	dispatcherIdlePoll, err := time.ParseDuration(getEnv("DISPATCHER_IDLE_POLL", "25ms"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DISPATCHER_IDLE_POLL: %w", err)
	}
	if dispatcherIdlePoll < 0 {
		return Config{}, fmt.Errorf("DISPATCHER_IDLE_POLL must be >= 0")
	}

	recipientURLTemplate := strings.TrimSpace(getEnv("RECIPIENT_URL_TEMPLATE", "http://localhost:8090/recipients/{recipient}/events"))
	if dispatcherEnabled && !strings.Contains(recipientURLTemplate, recipientPlaceholder) {
		return Config{}, fmt.Errorf("RECIPIENT_URL_TEMPLATE must contain %s", recipientPlaceholder)
	}
	recipientTimeout, err := getEnvAsPositiveDuration("RECIPIENT_TIMEOUT", "5s")
	if err != nil {
		return Config{}, err
	}
	recipientMaxConnsPerHost, err := getEnvAsInt("RECIPIENT_MAX_CONNS_PER_HOST", 512)
	if err != nil {
		return Config{}, fmt.Errorf("parse RECIPIENT_MAX_CONNS_PER_HOST: %w", err)
	}
	if recipientMaxConnsPerHost < 1 {
		return Config{}, fmt.Errorf("RECIPIENT_MAX_CONNS_PER_HOST must be >= 1")
	}

	redisAddr := strings.TrimSpace(getEnv("REDIS_ADDR", "localhost:6379"))
	if dispatcherEnabled && redisAddr == "" {
		return Config{}, fmt.Errorf("REDIS_ADDR is required when DISPATCHER_ENABLED=true")
	}
	redisDB, err := getEnvAsInt("REDIS_DB", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse REDIS_DB: %w", err)
	}
	if redisDB < 0 {
		return Config{}, fmt.Errorf("REDIS_DB must be >= 0")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := getEnvAsPositiveDuration("PYROSCOPE_UPLOAD_RATE", "15s")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:                        appEnv,
		ServiceName:                   getEnv("APP_SERVICE_NAME", "application-relay"),
		ServiceVersion:                getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                      getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:                   readTimeout,
		WriteTimeout:                  writeTimeout,
		LogLevel:                      logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		MetricsEnabled:                metricsEnabled,
		PprofEnabled:                  pprofEnabled,
		PprofAddr:                     pprofAddr,
		UpstreamPrimaryURL:            upstreamPrimaryURL,
		UpstreamSecondaryURL:          upstreamSecondaryURL,
		UpstreamTimeout:               upstreamTimeout,
		UpstreamCircuitEnabled:        upstreamCircuitEnabled,
		UpstreamCircuitFailureCount:   upstreamCircuitFailureCount,
		UpstreamCircuitOpenTimeout:    upstreamCircuitOpenTimeout,
		UpstreamCircuitHalfOpenMaxReq: upstreamCircuitHalfOpenMaxReq,
		ResolverAttemptTimeout:        resolverAttemptTimeout,
		ResolverMaxRetries:            resolverMaxRetries,
		DispatcherEnabled:             dispatcherEnabled,
		DispatcherCooldown:            dispatcherCooldown,
		DispatcherMaxInFlight:         dispatcherMaxInFlight,
		DispatcherIdlePoll:            dispatcherIdlePoll,
		RecipientURLTemplate:          recipientURLTemplate,
		RecipientTimeout:              recipientTimeout,
		RecipientMaxConnsPerHost:      recipientMaxConnsPerHost,
		RedisAddr:                     redisAddr,
		RedisPassword:                 getEnv("REDIS_PASSWORD", ""),
		RedisDB:                       redisDB,
		RedisEventKey:                 strings.TrimSpace(getEnv("REDIS_EVENT_KEY", "relay:events")),
		UptraceEnabled:                uptraceEnabled,
		UptraceDSN:                    uptraceDSN,
		PyroscopeEnabled:              pyroscopeEnabled,
		PyroscopeServerAddress:        pyroscopeServerAddress,
		PyroscopeAuthToken:            strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:        strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword:    strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:           pyroscopeUploadRate,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsPositiveDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}

	return out, nil
}

func getEnvAsHTTPURL(key, fallback string) (string, error) {
	raw := strings.TrimRight(strings.TrimSpace(getEnv(key, fallback)), "/")
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%s must use http or https scheme", key)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%s must include host", key)
	}

	return raw, nil
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig
	GitLab        GitLabConfig
	Webhook       WebhookConfig
	Auth          AuthConfig
	Stream        StreamConfig
	Display       DisplayConfig
	Observability ObservabilityConfig
}

type ServerConfig struct {
	Port int
}

type GitLabConfig struct {
	BaseURL           string
	ProjectID         string
	APIToken          string
	OAuthClientID     string
	OAuthClientSecret string
	OAuthCallbackURL  string
	LogTiming         bool
}

type WebhookConfig struct {
	Secret string
}

type AuthConfig struct {
	SessionSecret string
	SecureCookie  bool
}

type StreamConfig struct {
	BufferSize int
	Heartbeat  time.Duration
}

type DisplayConfig struct {
	TimeZone *time.Location
}

type ObservabilityConfig struct {
	Enabled           bool
	OTLPEndpoint      string
	OTLPTraceHeaders  map[string]string
	OTLPMetricHeaders map[string]string
	ServiceName       string
	ServiceVer        string
	SamplingRatio     float64
	MetricsConsole    bool
}

var requiredKeys = []string{
	"gitlab_base_url",
	"gitlab_project_id",
	"gitlab_api_token",
	"webhook_secret",
	"session_secret",
	"port",
}

// Load reads configuration from the environment. Every missing required key
// is reported in one error.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("gitlab_oauth_app_id", "")
	v.SetDefault("gitlab_oauth_app_secret", "")
	v.SetDefault("gitlab_oauth_callback", "")
	v.SetDefault("secure_cookie", false)
	v.SetDefault("issuedash_log_upstream_timing", false)
	v.SetDefault("issuedash_stream_buffer", 16)
	v.SetDefault("issuedash_stream_heartbeat", "25s")
	v.SetDefault("display_timezone", "UTC")
	v.SetDefault("issuedash_otel_enabled", false)
	v.SetDefault("otel_exporter_otlp_endpoint", "")
	v.SetDefault("otel_exporter_otlp_headers", "")
	v.SetDefault("otel_exporter_otlp_traces_headers", "")
	v.SetDefault("otel_exporter_otlp_metrics_headers", "")
	v.SetDefault("otel_service_name", "issuedash")
	v.SetDefault("issuedash_version", "dev")
	v.SetDefault("otel_service_version", "")
	v.SetDefault("issuedash_otel_sampling_ratio", 1.0)
	v.SetDefault("issuedash_otel_metrics_console", false)

	missing := make([]string, 0, len(requiredKeys))
	for _, key := range requiredKeys {
		if strings.TrimSpace(v.GetString(key)) == "" {
			missing = append(missing, strings.ToUpper(key))
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	port := v.GetInt("port")
	if port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid PORT: %q", v.GetString("port"))
	}

	bufferSize := v.GetInt("issuedash_stream_buffer")
	if bufferSize <= 0 {
		bufferSize = 16
	}
	heartbeat := v.GetDuration("issuedash_stream_heartbeat")
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}

	zoneName := strings.TrimSpace(v.GetString("display_timezone"))
	zone, err := time.LoadLocation(zoneName)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DISPLAY_TIMEZONE %q: %w", zoneName, err)
	}

	samplingRatio := v.GetFloat64("issuedash_otel_sampling_ratio")
	if samplingRatio < 0 {
		samplingRatio = 0
	}
	if samplingRatio > 1 {
		samplingRatio = 1
	}

	callbackURL := strings.TrimSpace(v.GetString("gitlab_oauth_callback"))
	if callbackURL == "" {
		callbackURL = fmt.Sprintf("http://localhost:%d/auth/gitlab/callback", port)
	}

	serviceName := strings.TrimSpace(v.GetString("otel_service_name"))
	if serviceName == "" {
		serviceName = "issuedash"
	}
	serviceVersion := strings.TrimSpace(v.GetString("issuedash_version"))
	if serviceVersion == "" {
		serviceVersion = strings.TrimSpace(v.GetString("otel_service_version"))
	}
	if serviceVersion == "" {
		serviceVersion = "dev"
	}

	otlpEndpoint := strings.TrimSpace(v.GetString("otel_exporter_otlp_endpoint"))
	otlpCommonHeaders := parseOTLPHeaders(v.GetString("otel_exporter_otlp_headers"))
	otlpTraceHeaders := parseOTLPHeaders(v.GetString("otel_exporter_otlp_traces_headers"))
	otlpMetricHeaders := parseOTLPHeaders(v.GetString("otel_exporter_otlp_metrics_headers"))
	metricsConsole := v.GetBool("issuedash_otel_metrics_console")
	otelEnabled := v.GetBool("issuedash_otel_enabled") || otlpEndpoint != "" || metricsConsole

	return Config{
		Server: ServerConfig{Port: port},
		GitLab: GitLabConfig{
			BaseURL:           strings.TrimRight(strings.TrimSpace(v.GetString("gitlab_base_url")), "/"),
			ProjectID:         strings.TrimSpace(v.GetString("gitlab_project_id")),
			APIToken:          strings.TrimSpace(v.GetString("gitlab_api_token")),
			OAuthClientID:     strings.TrimSpace(v.GetString("gitlab_oauth_app_id")),
			OAuthClientSecret: strings.TrimSpace(v.GetString("gitlab_oauth_app_secret")),
			OAuthCallbackURL:  callbackURL,
			LogTiming:         v.GetBool("issuedash_log_upstream_timing"),
		},
		Webhook: WebhookConfig{Secret: v.GetString("webhook_secret")},
		Auth: AuthConfig{
			SessionSecret: strings.TrimSpace(v.GetString("session_secret")),
			SecureCookie:  v.GetBool("secure_cookie"),
		},
		Stream:  StreamConfig{BufferSize: bufferSize, Heartbeat: heartbeat},
		Display: DisplayConfig{TimeZone: zone},
		Observability: ObservabilityConfig{
			Enabled:           otelEnabled,
			OTLPEndpoint:      otlpEndpoint,
			OTLPTraceHeaders:  mergeHeaderMaps(otlpCommonHeaders, otlpTraceHeaders),
			OTLPMetricHeaders: mergeHeaderMaps(otlpCommonHeaders, otlpMetricHeaders),
			ServiceName:       serviceName,
			ServiceVer:        serviceVersion,
			SamplingRatio:     samplingRatio,
			MetricsConsole:    metricsConsole,
		},
	}, nil
}

// OAuthEnabled reports whether GitLab login is configured.
func (c Config) OAuthEnabled() bool {
	return c.GitLab.OAuthClientID != "" && c.GitLab.OAuthClientSecret != ""
}

func parseOTLPHeaders(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	out := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		pair := strings.SplitN(part, "=", 2)
		if len(pair) != 2 {
			continue
		}
		key := strings.TrimSpace(pair[0])
		value := strings.TrimSpace(pair[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mergeHeaderMaps(base, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

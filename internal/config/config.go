// Package config assembles VoiceCore's typed configuration from environment
// variables, one sub-struct per external collaborator, following the
// teacher's env-var-driven Config/Load/Validate shape.
package config

import (
	"fmt"
	"net/url"
	"strings"

	shconfig "github.com/priority-technologies/shreenika-voice-core/shared/config"
)

// Config holds all configuration for VoiceCore.
type Config struct {
	Model     ModelConfig
	Database  DatabaseConfig
	Server    ServerConfig
	Cache     CacheConfig
	Carrier   CarrierConfig
	Fillers   FillersConfig
	Telemetry TelemetryConfig
}

// ModelConfig holds the Gemini Live bidirectional-streaming session endpoint.
type ModelConfig struct {
	URL    string // wss:// endpoint for the Live API
	APIKey string
	Name   string // e.g. "gemini-2.0-flash-live-001"
}

// DatabaseConfig holds the Postgres connection used for calls/turns/call_logs/agents.
type DatabaseConfig struct {
	PostgresURL string
}

// ServerConfig holds the ambient ops HTTP surface (healthz/metrics only;
// the call control plane itself is out of scope per spec §1).
type ServerConfig struct {
	Host string
	Port int
}

// CacheConfig holds the Context Cache Manager's TTL and circuit breaker
// settings as read from the environment (spec §4.4). cache.NewManager does
// not take these values: it uses cache.TTL and a fixed breaker of 5
// failures and 30s, so the fields only appear in the config command output.
type CacheConfig struct {
	DefaultTTLSeconds   int
	BreakerFailureLimit int
}

// CarrierConfig selects and configures the carrier transport variant
// (telephony, browser, or webrtc — spec §4.2/§4.3, SPEC_FULL §12).
type CarrierConfig struct {
	Kind          string // "telephony", "browser", "webrtc"
	ListenAddr    string
	LiveKitURL    string
	LiveKitAPIKey string
	LiveKitSecret string
}

// FillersConfig points at the Hedge Selector's pre-loaded filler manifest
// (spec §4.7).
type FillersConfig struct {
	ManifestPath string
}

// TelemetryConfig configures the OpenTelemetry tracer (spec §4.10
// Supervisor: one span per call, child spans per state transition).
type TelemetryConfig struct {
	ServiceName  string
	Environment  string
	OTLPEndpoint string // empty disables export; spans still record in-process
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			URL:  "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1alpha.GenerativeService.BidiGenerateContent",
			Name: "gemini-2.0-flash-live-001",
		},
		Database: DatabaseConfig{},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Cache: CacheConfig{
			DefaultTTLSeconds:   3600,
			BreakerFailureLimit: 5,
		},
		Carrier: CarrierConfig{
			Kind:       "browser",
			ListenAddr: "0.0.0.0:9000",
		},
		Fillers: FillersConfig{
			ManifestPath: "assets/fillers/manifest.json",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "voicecore",
			Environment: "development",
		},
	}
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	cfg.Model.URL = shconfig.GetEnv("VOICECORE_MODEL_URL", cfg.Model.URL)
	cfg.Model.APIKey = shconfig.GetEnv("VOICECORE_MODEL_API_KEY", cfg.Model.APIKey)
	cfg.Model.Name = shconfig.GetEnv("VOICECORE_MODEL_NAME", cfg.Model.Name)

	cfg.Database.PostgresURL = shconfig.GetEnv("VOICECORE_POSTGRES_URL", cfg.Database.PostgresURL)

	cfg.Server.Host = shconfig.GetEnv("VOICECORE_SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = shconfig.GetEnvInt("VOICECORE_SERVER_PORT", cfg.Server.Port)

	cfg.Cache.DefaultTTLSeconds = shconfig.GetEnvInt("VOICECORE_CACHE_TTL_SECONDS", cfg.Cache.DefaultTTLSeconds)
	cfg.Cache.BreakerFailureLimit = shconfig.GetEnvInt("VOICECORE_CACHE_BREAKER_LIMIT", cfg.Cache.BreakerFailureLimit)

	cfg.Carrier.Kind = shconfig.GetEnv("VOICECORE_CARRIER_KIND", cfg.Carrier.Kind)
	cfg.Carrier.ListenAddr = shconfig.GetEnv("VOICECORE_CARRIER_LISTEN_ADDR", cfg.Carrier.ListenAddr)
	cfg.Carrier.LiveKitURL = shconfig.GetEnv("VOICECORE_LIVEKIT_URL", cfg.Carrier.LiveKitURL)
	cfg.Carrier.LiveKitAPIKey = shconfig.GetEnv("VOICECORE_LIVEKIT_API_KEY", cfg.Carrier.LiveKitAPIKey)
	cfg.Carrier.LiveKitSecret = shconfig.GetEnv("VOICECORE_LIVEKIT_API_SECRET", cfg.Carrier.LiveKitSecret)

	cfg.Fillers.ManifestPath = shconfig.GetEnv("VOICECORE_FILLER_MANIFEST", cfg.Fillers.ManifestPath)

	cfg.Telemetry.ServiceName = shconfig.GetEnv("VOICECORE_SERVICE_NAME", cfg.Telemetry.ServiceName)
	cfg.Telemetry.Environment = shconfig.GetEnv("VOICECORE_ENVIRONMENT", cfg.Telemetry.Environment)
	cfg.Telemetry.OTLPEndpoint = shconfig.GetEnv("VOICECORE_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func isValidURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server port must be between 1 and 65535")
	}

	if c.Model.URL == "" {
		errs = append(errs, "model URL is required")
	} else if !isValidURL(c.Model.URL) {
		errs = append(errs, "model URL must be a valid URL")
	}

	if c.Database.PostgresURL == "" {
		errs = append(errs, "PostgreSQL URL is required (VOICECORE_POSTGRES_URL)")
	} else if !isValidURL(c.Database.PostgresURL) {
		errs = append(errs, "PostgreSQL URL must be a valid URL")
	}

	switch c.Carrier.Kind {
	case "telephony", "browser", "webrtc":
	default:
		errs = append(errs, "carrier kind must be telephony, browser, or webrtc")
	}

	if c.Carrier.Kind == "webrtc" && (c.Carrier.LiveKitURL == "" || c.Carrier.LiveKitAPIKey == "" || c.Carrier.LiveKitSecret == "") {
		errs = append(errs, "webrtc carrier requires VOICECORE_LIVEKIT_URL, VOICECORE_LIVEKIT_API_KEY, VOICECORE_LIVEKIT_API_SECRET")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

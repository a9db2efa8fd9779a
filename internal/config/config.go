// Package config provides configuration loading and validation for the server and CLI.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Ranking modes
const (
	RecsModeLocal  = "local"
	RecsModeRemote = "remote"
)

// Config is the full application configuration. Values come from, in order of
// precedence: environment variables, an optional config file, defaults.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Session   SessionConfig   `mapstructure:"session"`
	Recs      RecsConfig      `mapstructure:"recs"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Database  DatabaseConfig  `mapstructure:"database"`
	LLM       LLMConfig       `mapstructure:"llm"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig configures the logger.
type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// SessionConfig configures session lifetime and recommendation sizes.
type SessionConfig struct {
	// IdleTTL of zero keeps sessions for the life of the process.
	IdleTTL        time.Duration `mapstructure:"idle_ttl"`
	CandidateLimit int           `mapstructure:"candidate_limit"`
	DefaultTop     int           `mapstructure:"default_top"`
	MaxTop         int           `mapstructure:"max_top"`
}

// RecsConfig configures the external recommendation service, which also serves
// interview questions and company insights.
type RecsConfig struct {
	Mode    string        `mapstructure:"mode"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Breaker BreakerConfig `mapstructure:"breaker"`
}

// IngestConfig configures the external ingestion/normalization service and the
// local fallback fetcher.
type IngestConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	UseBrowser   bool          `mapstructure:"use_browser"`
	MaxFiles     int           `mapstructure:"max_files"`
	MaxFileBytes int64         `mapstructure:"max_file_bytes"`
	Breaker      BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig configures a circuit breaker around an upstream service.
type BreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MinRequests      uint32        `mapstructure:"min_requests"`
	FailureThreshold float64       `mapstructure:"failure_threshold"`
}

// AuthConfig configures session cookies and social login.
type AuthConfig struct {
	JWTSecret          string        `mapstructure:"jwt_secret"`
	JWTExpirationHours int           `mapstructure:"jwt_expiration_hours"`
	CookieSecure       bool          `mapstructure:"cookie_secure"`
	AllowedOrigins     []string      `mapstructure:"allowed_origins"`
	Google             OAuthProvider `mapstructure:"google"`
	Kakao              OAuthProvider `mapstructure:"kakao"`
}

// OAuthProvider holds the client registration of one login provider.
type OAuthProvider struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// Enabled reports whether the provider is registered.
func (p OAuthProvider) Enabled() bool {
	return p.ClientID != "" && p.RedirectURL != ""
}

// DatabaseConfig configures the persistent user store. An empty URL keeps
// users in memory.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// LLMConfig configures the Gemini fallback used for interview questions.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	// Model overrides the default interview model when set.
	Model string `mapstructure:"model"`
}

// RateLimitConfig configures request rate limiting.
type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	DefaultLimit    int           `mapstructure:"default_limit"`
	DefaultWindow   time.Duration `mapstructure:"default_window"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Whitelist       []string      `mapstructure:"whitelist"`
	Blacklist       []string      `mapstructure:"blacklist"`
}

// legacyEnv maps the environment variable names used by existing deployments.
var legacyEnv = map[string][]string{
	"server.port":                 {"PORT"},
	"server.host":                 {"HOST"},
	"recs.base_url":               {"MCP_RECS_BASE", "RECS_BASE_URL"},
	"ingest.base_url":             {"MCP_INGEST_BASE", "INGEST_BASE_URL"},
	"auth.jwt_secret":             {"JWT_SECRET"},
	"auth.jwt_expiration_hours":   {"JWT_EXPIRATION_HOURS"},
	"auth.allowed_origins":        {"FRONTEND_ORIGIN"},
	"auth.google.client_id":       {"GOOGLE_CLIENT_ID"},
	"auth.google.client_secret":   {"GOOGLE_CLIENT_SECRET"},
	"auth.google.redirect_url":    {"GOOGLE_REDIRECT_URI"},
	"auth.kakao.client_id":        {"KAKAO_REST_API_KEY"},
	"auth.kakao.client_secret":    {"KAKAO_CLIENT_SECRET"},
	"auth.kakao.redirect_url":     {"KAKAO_REDIRECT_URI"},
	"database.url":                {"DATABASE_URL"},
	"llm.gemini_api_key":          {"GEMINI_API_KEY"},
	"llm.model":                   {"GEMINI_MODEL"},
	"rate_limit.enabled":          {"RATE_LIMIT_ENABLED"},
	"rate_limit.default_limit":    {"RATE_LIMIT_DEFAULT_LIMIT"},
	"rate_limit.default_window":   {"RATE_LIMIT_DEFAULT_WINDOW"},
	"rate_limit.cleanup_interval": {"RATE_LIMIT_CLEANUP_INTERVAL"},
	"rate_limit.whitelist":        {"RATE_LIMIT_WHITELIST"},
	"rate_limit.blacklist":        {"RATE_LIMIT_BLACKLIST"},
}

// setDefaults registers every key so that environment overrides are picked up
// by Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 4001)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)

	v.SetDefault("session.idle_ttl", time.Duration(0))
	v.SetDefault("session.candidate_limit", 100)
	v.SetDefault("session.default_top", 20)
	v.SetDefault("session.max_top", 50)

	v.SetDefault("recs.mode", RecsModeLocal)
	v.SetDefault("recs.base_url", "")
	v.SetDefault("recs.timeout", 20*time.Second)
	setBreakerDefaults(v, "recs.breaker")

	v.SetDefault("ingest.base_url", "")
	v.SetDefault("ingest.timeout", 10*time.Second)
	v.SetDefault("ingest.use_browser", false)
	v.SetDefault("ingest.max_files", 10)
	v.SetDefault("ingest.max_file_bytes", int64(10<<20))
	setBreakerDefaults(v, "ingest.breaker")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_expiration_hours", 24*7)
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.allowed_origins", []string{})
	for _, p := range []string{"google", "kakao"} {
		v.SetDefault("auth."+p+".client_id", "")
		v.SetDefault("auth."+p+".client_secret", "")
		v.SetDefault("auth."+p+".redirect_url", "")
	}

	v.SetDefault("database.url", "")
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.model", "")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.default_limit", 1000)
	v.SetDefault("rate_limit.default_window", time.Minute)
	v.SetDefault("rate_limit.cleanup_interval", 5*time.Minute)
	v.SetDefault("rate_limit.whitelist", []string{})
	v.SetDefault("rate_limit.blacklist", []string{})
}

func setBreakerDefaults(v *viper.Viper, prefix string) {
	v.SetDefault(prefix+".enabled", true)
	v.SetDefault(prefix+".max_requests", uint32(3))
	v.SetDefault(prefix+".interval", time.Minute)
	v.SetDefault(prefix+".timeout", 30*time.Second)
	v.SetDefault(prefix+".min_requests", uint32(5))
	v.SetDefault(prefix+".failure_threshold", 0.6)
}

// Load reads configuration from the environment and, when path is not empty,
// from the given config file (any format viper understands).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.Auth.AllowedOrigins = splitList(cfg.Auth.AllowedOrigins)
	cfg.RateLimit.Whitelist = splitList(cfg.RateLimit.Whitelist)
	cfg.RateLimit.Blacklist = splitList(cfg.RateLimit.Blacklist)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' out of range: %d", c.Server.Port)
	}

	switch c.Recs.Mode {
	case RecsModeLocal:
	case RecsModeRemote:
		if c.Recs.BaseURL == "" {
			return fmt.Errorf("config error: 'recs.mode' is remote but 'recs.base_url' is empty")
		}
	default:
		return fmt.Errorf("config error: 'recs.mode' must be %q or %q, got %q", RecsModeLocal, RecsModeRemote, c.Recs.Mode)
	}

	for key, raw := range map[string]string{"recs.base_url": c.Recs.BaseURL, "ingest.base_url": c.Ingest.BaseURL} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config error: '%s' is not an absolute URL: %s", key, raw)
		}
	}

	if c.Session.CandidateLimit < 1 {
		return fmt.Errorf("config error: 'session.candidate_limit' must be positive")
	}
	if c.Session.DefaultTop < 1 || c.Session.MaxTop < c.Session.DefaultTop {
		return fmt.Errorf("config error: 'session.default_top' must be positive and not exceed 'session.max_top'")
	}
	if c.Session.IdleTTL < 0 {
		return fmt.Errorf("config error: 'session.idle_ttl' must be non-negative")
	}

	if c.Ingest.MaxFiles < 1 {
		return fmt.Errorf("config error: 'ingest.max_files' must be positive")
	}

	if (c.Auth.Google.Enabled() || c.Auth.Kakao.Enabled()) && c.Auth.JWTSecret == "" {
		return fmt.Errorf("config error: 'auth.jwt_secret' is required when a login provider is configured")
	}

	return nil
}

// splitList flattens comma-separated entries and drops blanks.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

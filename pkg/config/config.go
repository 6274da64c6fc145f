package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every gateway environment variable.
const EnvPrefix = "DISPATCH"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	Backend       BackendConfig
	Push          PushConfig
	Redis         RedisConfig
	AuthRateLimit AuthRateLimitConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Push.ensureURL(cfg.Backend.BaseURL); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DISPATCH_APP_ENV" required:"true"`
	Port         string `envconfig:"DISPATCH_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DISPATCH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DISPATCH_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// BackendConfig points the gateway at the freight backend REST API.
type BackendConfig struct {
	BaseURL        string        `envconfig:"DISPATCH_BACKEND_BASE_URL" required:"true"`
	APIPath        string        `envconfig:"DISPATCH_BACKEND_API_PATH" default:"/api"`
	RequestTimeout time.Duration `envconfig:"DISPATCH_BACKEND_REQUEST_TIMEOUT" default:"15s"`
}

// PushConfig controls the push channel connection to the backend.
type PushConfig struct {
	URL              string        `envconfig:"DISPATCH_PUSH_URL"`
	Path             string        `envconfig:"DISPATCH_PUSH_PATH" default:"/ws"`
	HandshakeTimeout time.Duration `envconfig:"DISPATCH_PUSH_HANDSHAKE_TIMEOUT" default:"10s"`
	PingInterval     time.Duration `envconfig:"DISPATCH_PUSH_PING_INTERVAL" default:"25s"`
	ReconnectMin     time.Duration `envconfig:"DISPATCH_PUSH_RECONNECT_MIN" default:"1s"`
	ReconnectMax     time.Duration `envconfig:"DISPATCH_PUSH_RECONNECT_MAX" default:"30s"`
	WriteTimeout     time.Duration `envconfig:"DISPATCH_PUSH_WRITE_TIMEOUT" default:"10s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DISPATCH_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DISPATCH_REDIS_ADDR"`
	Password     string        `envconfig:"DISPATCH_REDIS_PASSWORD"`
	DB           int           `envconfig:"DISPATCH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DISPATCH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DISPATCH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DISPATCH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DISPATCH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DISPATCH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"DISPATCH_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"DISPATCH_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"DISPATCH_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"DISPATCH_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// ensureURL derives the push channel URL from the backend base URL when it
// is not configured explicitly, switching the scheme to ws/wss.
func (p *PushConfig) ensureURL(backendBaseURL string) error {
	if p.URL != "" {
		return nil
	}
	if backendBaseURL == "" {
		return fmt.Errorf("either %s_PUSH_URL or %s_BACKEND_BASE_URL is required", EnvPrefix, EnvPrefix)
	}

	u, err := url.Parse(backendBaseURL)
	if err != nil {
		return fmt.Errorf("parsing backend base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + p.Path
	p.URL = u.String()
	return nil
}

// AngelaMos | 2026
// config.go

package config

import (
	"net"
	"strconv"
	"time"
)

// Config is read once at startup from defaults, an optional YAML file, a
// .env file and the process environment, in increasing precedence.
type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	JWT       JWTConfig       `koanf:"jwt"`
	OAuth     OAuthConfig     `koanf:"oauth"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
	Checkout  CheckoutConfig  `koanf:"checkout"`
	Storage   StorageConfig   `koanf:"storage"`
	Status    StatusConfig    `koanf:"status"`
	Site      SiteConfig      `koanf:"site"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	PublicURL   string `koanf:"public_url"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

// RedisConfig backs rate limits, the status snapshot, order delete
// confirmations and the realtime bus.
type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

// JWTConfig points at an ES256 keypair, as written by storectl gen-keys.
type JWTConfig struct {
	PrivateKeyPath     string        `koanf:"private_key_path"`
	PublicKeyPath      string        `koanf:"public_key_path"`
	AccessTokenExpire  time.Duration `koanf:"access_token_expire"`
	RefreshTokenExpire time.Duration `koanf:"refresh_token_expire"`
	Issuer             string        `koanf:"issuer"`
	Audience           string        `koanf:"audience"`
}

type OAuthConfig struct {
	StateSecret string        `koanf:"state_secret"`
	StateTTL    time.Duration `koanf:"state_ttl"`
	Google      OAuthProvider `koanf:"google"`
	Discord     OAuthProvider `koanf:"discord"`
}

type OAuthProvider struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	RedirectURL  string `koanf:"redirect_url"`
}

func (p OAuthProvider) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

// RateLimitConfig is the global per-IP window. Auth, checkout and the
// status proxies carry fixed tighter budgets of their own.
type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// OtelConfig.SampleRate outside (0, 1] falls back to 0.1.
type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// CheckoutConfig controls what a storefront order looks like when created.
// An empty InitialStatus leaves the column to its database default.
type CheckoutConfig struct {
	PaymentMethods []string `koanf:"payment_methods"`
	InitialStatus  string   `koanf:"initial_status"`
}

type StorageConfig struct {
	Driver        string `koanf:"driver"`
	CloudinaryURL string `koanf:"cloudinary_url"`
	Folder        string `koanf:"folder"`
	LocalDir      string `koanf:"local_dir"`
	LocalBaseURL  string `koanf:"local_base_url"`
	LogoMaxBytes  int64  `koanf:"logo_max_bytes"`
	LogoMaxWidth  uint   `koanf:"logo_max_width"`
}

type StatusConfig struct {
	MinecraftURL    string        `koanf:"minecraft_url"`
	DiscordURL      string        `koanf:"discord_url"`
	Attempts        int           `koanf:"attempts"`
	AttemptTimeout  time.Duration `koanf:"attempt_timeout"`
	BackoffStep     time.Duration `koanf:"backoff_step"`
	PollInterval    time.Duration `koanf:"poll_interval"`
	MaxPollBackoff  time.Duration `koanf:"max_poll_backoff"`
	DefaultServerIP string        `koanf:"default_server_ip"`
	DiscordServerID string        `koanf:"discord_server_id"`
	MonitorEnabled  bool          `koanf:"monitor_enabled"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
}

type SiteConfig struct {
	DefaultTheme    string `koanf:"default_theme"`
	ThemeStorageKey string `koanf:"theme_storage_key"`
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

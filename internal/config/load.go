// AngelaMos | 2026
// load.go

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// defaults lists every key the storefront reads, grouped by section. Keys
// with an empty default still need to be here so the environment can set
// them.
var defaults = map[string]map[string]any{
	"app": {
		"name":        "BuildMC Storefront",
		"version":     "1.0.0",
		"environment": "development",
		"public_url":  "http://localhost:3000",
	},
	"server": {
		"host":             "0.0.0.0",
		"port":             8080,
		"read_timeout":     "30s",
		"write_timeout":    "30s",
		"idle_timeout":     "120s",
		"shutdown_timeout": "15s",
	},
	"database": {
		"url":                "",
		"max_open_conns":     25,
		"max_idle_conns":     5,
		"conn_max_lifetime":  "1h",
		"conn_max_idle_time": "30m",
		"auto_migrate":       false,
	},
	"redis": {
		"url":            "",
		"pool_size":      10,
		"min_idle_conns": 5,
	},
	"jwt": {
		"private_key_path":     "keys/private.pem",
		"public_key_path":      "keys/public.pem",
		"access_token_expire":  "15m",
		"refresh_token_expire": "168h",
		"issuer":               "buildmc-storefront",
		"audience":             "buildmc-storefront-api",
	},
	"oauth": {
		"state_secret": "",
		"state_ttl":    "10m",
	},
	"oauth.google": {
		"client_id": "", "client_secret": "", "redirect_url": "",
	},
	"oauth.discord": {
		"client_id": "", "client_secret": "", "redirect_url": "",
	},
	"rate_limit": {
		"requests": 100,
		"window":   "1m",
		"burst":    20,
	},
	"cors": {
		"allowed_origins":   []string{"http://localhost:3000"},
		"allowed_methods":   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		"allowed_headers":   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		"allow_credentials": true,
		"max_age":           300,
	},
	"log": {
		"level":  "info",
		"format": "json",
	},
	"otel": {
		"endpoint":     "",
		"service_name": "buildmc-storefront",
		"enabled":      false,
		"insecure":     true,
		"sample_rate":  0.1,
	},
	"checkout": {
		"payment_methods": []string{"bkash"},
		"initial_status":  "unpaid",
	},
	"storage": {
		"driver":         "local",
		"cloudinary_url": "",
		"folder":         "product-images",
		"local_dir":      "uploads",
		"local_base_url": "http://localhost:8080/uploads",
		"logo_max_bytes": 2 << 20,
		"logo_max_width": 512,
	},
	"status": {
		"minecraft_url":     "https://api.mcstatus.io/v2/status/java/",
		"discord_url":       "https://discord.com/api/guilds/%s/widget.json",
		"attempts":          3,
		"attempt_timeout":   "10s",
		"backoff_step":      "1s",
		"poll_interval":     "2s",
		"max_poll_backoff":  "1m",
		"default_server_ip": "",
		"discord_server_id": "",
		"monitor_enabled":   true,
		"cache_ttl":         "30s",
	},
	"site": {
		"default_theme":     "minecraft",
		"theme_storage_key": "buildmc-theme",
	},
}

// envAliases are the conventional names some deployments already use.
// Every key is also settable by its path in upper snake case, so
// status.poll_interval reads STATUS_POLL_INTERVAL.
var envAliases = map[string]string{
	"ENVIRONMENT":                 "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"CLOUDINARY_URL":              "storage.cloudinary_url",
	"GOOGLE_CLIENT_ID":            "oauth.google.client_id",
	"GOOGLE_CLIENT_SECRET":        "oauth.google.client_secret",
	"GOOGLE_REDIRECT_URL":         "oauth.google.redirect_url",
	"DISCORD_CLIENT_ID":           "oauth.discord.client_id",
	"DISCORD_CLIENT_SECRET":       "oauth.discord.client_secret",
	"DISCORD_REDIRECT_URL":        "oauth.discord.redirect_url",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
}

// Load builds a Config. A missing configPath file is not an error.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")
	known := make(map[string]string)

	for section, values := range defaults {
		for name, value := range values {
			key := section + "." + name
			if err := k.Set(key, value); err != nil {
				return nil, fmt.Errorf("default %s: %w", key, err)
			}
			known[envName(key)] = key
		}
	}
	maps.Copy(known, envAliases)

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("read %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider("", ".", func(name string) string {
		return known[name]
	}), nil); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	c.Checkout.PaymentMethods = splitList(c.Checkout.PaymentMethods)

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// splitList accepts both YAML lists and comma separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for part := range strings.SplitSeq(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// validate reports every problem at once.
func (c *Config) validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Database.URL != "", "DATABASE_URL is required")
	check(c.Redis.URL != "", "REDIS_URL is required")
	check(c.JWT.PrivateKeyPath != "", "JWT_PRIVATE_KEY_PATH is required")
	check(c.JWT.PublicKeyPath != "", "JWT_PUBLIC_KEY_PATH is required")
	check(c.Server.ReadTimeout > 0, "server.read_timeout must be positive")
	check(c.Server.WriteTimeout > 0, "server.write_timeout must be positive")
	check(c.RateLimit.Requests > 0, "rate_limit.requests must be positive")
	check(len(c.Checkout.PaymentMethods) > 0, "checkout.payment_methods must not be empty")
	check(c.Status.Attempts >= 1, "status.attempts must be at least 1")
	check(c.Status.PollInterval > 0, "status.poll_interval must be positive")

	check(!c.CORS.AllowCredentials || !slices.Contains(c.CORS.AllowedOrigins, "*"),
		"CORS wildcard '*' cannot be used with allow_credentials")
	check(!c.IsProduction() || !c.Otel.Enabled || !c.Otel.Insecure,
		"OTEL_INSECURE must be false in production")

	switch c.Storage.Driver {
	case "local":
	case "cloudinary":
		check(c.Storage.CloudinaryURL != "", "CLOUDINARY_URL is required for the cloudinary driver")
	default:
		check(false, "unknown storage driver %q", c.Storage.Driver)
	}

	oauth := c.OAuth.Google.Enabled() || c.OAuth.Discord.Enabled()
	check(!oauth || c.OAuth.StateSecret != "",
		"OAUTH_STATE_SECRET is required when an OAuth provider is configured")

	return errors.Join(errs...)
}

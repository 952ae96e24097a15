// AngelaMos | 2026
// minecraft.go

package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"

	"github.com/buildmc/storefront/internal/core"
)

const (
	DefaultMinecraftURL   = "https://api.mcstatus.io/v2/status/java/"
	DefaultAttempts       = 3
	DefaultAttemptTimeout = 10 * time.Second
	DefaultBackoffStep    = time.Second

	unknownVersion = "Unknown"
)

var ErrServerIPRequired = errors.New("Server IP is required") //nolint:staticcheck // client-facing text

type Players struct {
	Online int `json:"online"`
	Max    int `json:"max"`
}

type ServerStatus struct {
	Online  bool    `json:"online"`
	Players Players `json:"players"`
	Version string  `json:"version"`
	MOTD    string  `json:"motd"`
}

// ServerFailure is the body sent when no attempt succeeded.
type ServerFailure struct {
	Error   string  `json:"error"`
	Online  bool    `json:"online"`
	Players Players `json:"players"`
}

type mcstatusResponse struct {
	Online  bool `json:"online"`
	Players *struct {
		Online int `json:"online"`
		Max    int `json:"max"`
	} `json:"players"`
	Version *struct {
		NameClean string `json:"name_clean"`
	} `json:"version"`
	MOTD *struct {
		Clean string `json:"clean"`
	} `json:"motd"`
}

type MinecraftOptions struct {
	BaseURL        string
	Attempts       int
	AttemptTimeout time.Duration
	BackoffStep    time.Duration
}

// MinecraftClient looks up a Java server through the mcstatus.io API.
type MinecraftClient struct {
	http    *http.Client
	baseURL string
	opts    MinecraftOptions
	logger  *slog.Logger
}

func NewMinecraftClient(client *http.Client, opts MinecraftOptions, logger *slog.Logger) *MinecraftClient {
	if client == nil {
		client = http.DefaultClient
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultMinecraftURL
	}
	if opts.Attempts < 1 {
		opts.Attempts = DefaultAttempts
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = DefaultAttemptTimeout
	}
	if opts.BackoffStep <= 0 {
		opts.BackoffStep = DefaultBackoffStep
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MinecraftClient{
		http:    client,
		baseURL: strings.TrimRight(opts.BaseURL, "/") + "/",
		opts:    opts,
		logger:  logger,
	}
}

// Status tries up to Attempts times, waiting one more BackoffStep after
// each failure, and returns the last error when every attempt fails.
func (c *MinecraftClient) Status(ctx context.Context, serverIP string) (*ServerStatus, error) {
	serverIP = strings.TrimSpace(serverIP)
	if serverIP == "" {
		return nil, ErrServerIPRequired
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{step: c.opts.BackoffStep}, uint64(c.opts.Attempts-1)),
		ctx,
	)

	var result *ServerStatus
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		actx, span := core.StartSpan(ctx, "status.minecraft",
			attribute.String("server", serverIP),
			attribute.Int("attempt", attempt),
		)
		status, err := c.fetch(actx, serverIP)
		if err != nil {
			core.SetSpanError(actx, err)
			span.End()
			c.logger.Debug("minecraft status attempt failed",
				"server", serverIP,
				"attempt", attempt,
				"error", err,
			)
			return err
		}
		span.End()
		result = status
		return nil
	}, policy)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *MinecraftClient) fetch(ctx context.Context, serverIP string) (*ServerStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.AttemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+url.PathEscape(serverIP), nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("Failed to fetch server status: %s", http.StatusText(resp.StatusCode)) //nolint:staticcheck // client-facing text
	}

	var body mcstatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode server status: %w", err)
	}

	status := &ServerStatus{Online: body.Online, Version: unknownVersion}
	if body.Players != nil {
		status.Players = Players{Online: body.Players.Online, Max: body.Players.Max}
	}
	if body.Version != nil && body.Version.NameClean != "" {
		status.Version = body.Version.NameClean
	}
	if body.MOTD != nil {
		status.MOTD = body.MOTD.Clean
	}
	return status, nil
}

// linearBackOff waits step, then 2*step, and so on.
type linearBackOff struct {
	step time.Duration
	n    int64
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return time.Duration(b.n) * b.step
}

func (b *linearBackOff) Reset() {
	b.n = 0
}

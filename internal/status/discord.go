// AngelaMos | 2026
// discord.go

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

	"go.opentelemetry.io/otel/attribute"

	"github.com/buildmc/storefront/internal/core"
)

const (
	DefaultDiscordURL = "https://discord.com/api/guilds/%s/widget.json"
	unknownGuild      = "Unknown"
)

var ErrServerIDRequired = errors.New("Discord server ID is required") //nolint:staticcheck // client-facing text

type DiscordStats struct {
	MemberCount   int     `json:"memberCount"`
	Name          string  `json:"name"`
	InstantInvite *string `json:"instantInvite"`
}

type DiscordFailure struct {
	Error         string  `json:"error"`
	MemberCount   int     `json:"memberCount"`
	Name          string  `json:"name"`
	InstantInvite *string `json:"instantInvite"`
}

// NewDiscordFailure is the body reported when guild stats cannot be fetched.
func NewDiscordFailure(err error) DiscordFailure {
	return DiscordFailure{Error: err.Error(), Name: unknownGuild}
}

type widgetResponse struct {
	Name          string  `json:"name"`
	PresenceCount int     `json:"presence_count"`
	InstantInvite *string `json:"instant_invite"`
}

// DiscordClient reads a guild's public widget. It makes one attempt.
type DiscordClient struct {
	http      *http.Client
	urlFormat string
	logger    *slog.Logger
}

// NewDiscordClient takes a URL format with a single %s for the guild id.
func NewDiscordClient(client *http.Client, urlFormat string, logger *slog.Logger) *DiscordClient {
	if client == nil {
		client = http.DefaultClient
	}
	if urlFormat == "" {
		urlFormat = DefaultDiscordURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DiscordClient{http: client, urlFormat: urlFormat, logger: logger}
}

func (c *DiscordClient) Stats(ctx context.Context, serverID string) (*DiscordStats, error) {
	serverID = strings.TrimSpace(serverID)
	if serverID == "" {
		return nil, ErrServerIDRequired
	}

	ctx, span := core.StartSpan(ctx, "status.discord", attribute.String("guild", serverID))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf(c.urlFormat, url.PathEscape(serverID)), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("discord widget request failed", "guild", serverID, "status", resp.StatusCode)
		return nil, fmt.Errorf("Failed to fetch Discord stats: %s", http.StatusText(resp.StatusCode)) //nolint:staticcheck // client-facing text
	}

	var body widgetResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode discord widget: %w", err)
	}

	stats := &DiscordStats{
		MemberCount: body.PresenceCount,
		Name:        body.Name,
	}
	if stats.Name == "" {
		stats.Name = unknownGuild
	}
	if body.InstantInvite != nil && *body.InstantInvite != "" {
		stats.InstantInvite = body.InstantInvite
	}
	return stats, nil
}

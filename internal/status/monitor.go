// AngelaMos | 2026
// monitor.go

package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/buildmc/storefront/internal/core"
	"github.com/buildmc/storefront/internal/settings"
)

var snapshotKey = core.RedisKey("status", "snapshot")

const (
	DefaultCacheTTL = 30 * time.Second

	warmTimeout = time.Minute

	displayChecking = "Checking..."
	displayOffline  = "Server Offline"
	displayUnknown  = "Status Unknown"
)

// SettingReader resolves a site setting, returning "" when it is unset.
type SettingReader interface {
	Setting(ctx context.Context, key string) (string, error)
}

type Targets struct {
	ServerIP        string
	DiscordServerID string
}

// Snapshot is the latest result of polling both upstreams.
type Snapshot struct {
	ServerIP        string        `json:"server_ip"`
	DiscordServerID string        `json:"discord_server_id"`
	Minecraft       *ServerStatus `json:"minecraft,omitempty"`
	MinecraftError  string        `json:"minecraft_error,omitempty"`
	Discord         *DiscordStats `json:"discord,omitempty"`
	DiscordError    string        `json:"discord_error,omitempty"`
	ServerStatus    string        `json:"server_status"`
	DiscordMembers  string        `json:"discord_members"`
	CheckedAt       time.Time     `json:"checked_at"`
}

// ServerDisplay is the line the site header shows for the game server.
func ServerDisplay(s *ServerStatus, err error) string {
	switch {
	case err != nil:
		return displayUnknown
	case s == nil:
		return displayChecking
	case s.Online:
		return fmt.Sprintf("In Game %d Online Players", s.Players.Online)
	default:
		return displayOffline
	}
}

func MembersDisplay(d *DiscordStats) string {
	if d == nil {
		return "0"
	}
	return strconv.Itoa(d.MemberCount)
}

type MonitorOptions struct {
	Defaults   Targets
	Interval   time.Duration
	MaxBackoff time.Duration
	CacheTTL   time.Duration
}

// Monitor keeps a current Snapshot for the configured server and guild.
// Site settings override the configured defaults on every poll.
type Monitor struct {
	minecraft *MinecraftClient
	discord   *DiscordClient
	settings  SettingReader
	cache     *redis.Client
	opts      MonitorOptions
	logger    *slog.Logger

	mu     sync.RWMutex
	latest *Snapshot

	warmMu  sync.Mutex
	warming chan struct{}
}

func NewMonitor(
	minecraft *MinecraftClient,
	discord *DiscordClient,
	siteSettings SettingReader,
	cache *redis.Client,
	opts MonitorOptions,
	logger *slog.Logger,
) *Monitor {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		minecraft: minecraft,
		discord:   discord,
		settings:  siteSettings,
		cache:     cache,
		opts:      opts,
		logger:    logger,
	}
}

// Run polls until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	return NewPoller("status", m.opts.Interval, m.opts.MaxBackoff, m.Refresh, m.logger).Run(ctx)
}

func (m *Monitor) Targets(ctx context.Context) Targets {
	t := m.opts.Defaults
	if m.settings == nil {
		return t
	}
	if v, err := m.settings.Setting(ctx, settings.KeyServerIP); err == nil && v != "" {
		t.ServerIP = v
	}
	if v, err := m.settings.Setting(ctx, settings.KeyDiscordServerID); err == nil && v != "" {
		t.DiscordServerID = v
	}
	return t
}

// Refresh queries both upstreams and records the result. A result that
// arrives after ctx is done is discarded.
func (m *Monitor) Refresh(ctx context.Context) error {
	targets := m.Targets(ctx)
	snap := Snapshot{
		ServerIP:        targets.ServerIP,
		DiscordServerID: targets.DiscordServerID,
	}

	var mcErr, discordErr error
	g, gctx := errgroup.WithContext(ctx)
	if targets.ServerIP != "" {
		g.Go(func() error {
			snap.Minecraft, mcErr = m.minecraft.Status(gctx, targets.ServerIP)
			return nil
		})
	}
	if targets.DiscordServerID != "" {
		g.Go(func() error {
			snap.Discord, discordErr = m.discord.Stats(gctx, targets.DiscordServerID)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // goroutines never fail

	if err := ctx.Err(); err != nil {
		return err
	}

	if mcErr != nil {
		snap.MinecraftError = mcErr.Error()
	}
	if discordErr != nil {
		snap.DiscordError = discordErr.Error()
	}
	snap.ServerStatus = ServerDisplay(snap.Minecraft, mcErr)
	snap.DiscordMembers = MembersDisplay(snap.Discord)
	snap.CheckedAt = time.Now().UTC()

	m.store(ctx, &snap)
	return errors.Join(mcErr, discordErr)
}

// Warm starts a background Refresh unless one is already running. The
// returned channel is closed when that refresh finishes.
func (m *Monitor) Warm() <-chan struct{} {
	m.warmMu.Lock()
	defer m.warmMu.Unlock()
	if m.warming != nil {
		return m.warming
	}

	done := make(chan struct{})
	m.warming = done
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
		defer cancel()
		if err := m.Refresh(ctx); err != nil {
			m.logger.Warn("status refresh failed", "error", err)
		}

		m.warmMu.Lock()
		m.warming = nil
		m.warmMu.Unlock()
		close(done)
	}()
	return done
}

func (m *Monitor) store(ctx context.Context, snap *Snapshot) {
	m.mu.Lock()
	m.latest = snap
	m.mu.Unlock()

	if m.cache == nil {
		return
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := m.cache.Set(ctx, snapshotKey, raw, m.opts.CacheTTL).Err(); err != nil {
		m.logger.Warn("failed to cache status snapshot", "error", err)
	}
}

// Latest returns this process's snapshot, falling back to one cached by
// another instance.
func (m *Monitor) Latest(ctx context.Context) (*Snapshot, bool) {
	m.mu.RLock()
	snap := m.latest
	m.mu.RUnlock()
	if snap != nil {
		cp := *snap
		return &cp, true
	}

	if m.cache == nil {
		return nil, false
	}
	raw, err := m.cache.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		return nil, false
	}
	var cached Snapshot
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false
	}
	return &cached, true
}

var errStaleSnapshot = errors.New("status snapshot is stale")

// Ping fails when no poll has landed within three intervals, which means
// the header is showing old player counts.
func (m *Monitor) Ping(ctx context.Context) error {
	snap, ok := m.Latest(ctx)
	if !ok {
		return errStaleSnapshot
	}
	limit := 3 * max(m.opts.Interval, time.Second)
	if age := time.Since(snap.CheckedAt); age > limit {
		return fmt.Errorf("%w: last poll %s ago", errStaleSnapshot, age.Round(time.Second))
	}
	return nil
}

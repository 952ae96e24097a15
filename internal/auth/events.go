// AngelaMos | 2026
// events.go

package auth

import (
	"context"
	"log/slog"
	"sync"

	"github.com/buildmc/storefront/internal/identity"
	"github.com/buildmc/storefront/internal/realtime"
)

type Subscriber interface {
	Subscribe(ctx context.Context, topics ...string) (*realtime.Subscription, error)
}

type sessionReader interface {
	CurrentSession(
		ctx context.Context,
		userID, sessionID string,
	) (*identity.Session, *identity.User, error)
}

// SessionSource feeds one caller's session into an identity.Context,
// translating auth events from the realtime bus.
type SessionSource struct {
	sessions  sessionReader
	bus       Subscriber
	userID    string
	sessionID string
	logger    *slog.Logger
}

func NewSessionSource(
	sessions sessionReader,
	bus Subscriber,
	userID, sessionID string,
	logger *slog.Logger,
) *SessionSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionSource{
		sessions:  sessions,
		bus:       bus,
		userID:    userID,
		sessionID: sessionID,
		logger:    logger,
	}
}

func (s *SessionSource) CurrentSession(
	ctx context.Context,
) (*identity.Session, *identity.User, error) {
	return s.sessions.CurrentSession(ctx, s.userID, s.sessionID)
}

func (s *SessionSource) Subscribe(ctx context.Context) (identity.Subscription, error) {
	sub, err := s.bus.Subscribe(ctx, Topic(s.userID))
	if err != nil {
		return nil, err
	}

	ch := &sessionChanges{
		source:  s,
		sub:     sub,
		changes: make(chan identity.Change, 4),
		done:    make(chan struct{}),
	}
	go ch.run(ctx)

	return ch, nil
}

type sessionChanges struct {
	source  *SessionSource
	sub     *realtime.Subscription
	changes chan identity.Change
	done    chan struct{}
	once    sync.Once
}

func (c *sessionChanges) Changes() <-chan identity.Change {
	return c.changes
}

func (c *sessionChanges) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.sub.Close()
	})
	return err
}

func (c *sessionChanges) run(ctx context.Context) {
	defer close(c.changes)

	for {
		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		case ev, ok := <-c.sub.Events():
			if !ok {
				return
			}

			change, relevant := c.translate(ctx, ev)
			if !relevant {
				continue
			}

			select {
			case c.changes <- change:
			case <-c.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}
}

func (c *sessionChanges) translate(
	ctx context.Context,
	ev realtime.Event,
) (identity.Change, bool) {
	var payload AuthEvent
	if err := ev.Decode(&payload); err != nil {
		c.source.logger.Warn("malformed auth event", "type", ev.Type, "error", err)
		return identity.Change{}, false
	}

	kind := identity.ChangeKind(payload.Kind)
	if kind == identity.SignedOut {
		if payload.SessionID != "" && payload.SessionID != c.source.sessionID {
			return identity.Change{}, false
		}
		return identity.Change{Kind: identity.SignedOut}, true
	}

	session, user, err := c.source.CurrentSession(ctx)
	if err != nil {
		c.source.logger.Warn("session refetch failed", "kind", kind, "error", err)
		return identity.Change{}, false
	}

	if session == nil {
		return identity.Change{Kind: identity.SignedOut}, true
	}

	return identity.Change{Kind: kind, Session: session, User: user}, true
}

var _ identity.Source = (*SessionSource)(nil)

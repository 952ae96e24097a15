// AngelaMos | 2026
// context.go

package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var ErrClosed = errors.New("identity context closed")

type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type State struct {
	User    *User    `json:"user"`
	Session *Session `json:"session"`
	IsAdmin bool     `json:"is_admin"`
	Loading bool     `json:"loading"`
}

type ChangeKind string

const (
	SignedIn       ChangeKind = "SIGNED_IN"
	SignedOut      ChangeKind = "SIGNED_OUT"
	TokenRefreshed ChangeKind = "TOKEN_REFRESHED"
	UserUpdated    ChangeKind = "USER_UPDATED"
)

// Change is an auth-state notification. A nil Session means no session.
type Change struct {
	Kind    ChangeKind
	Session *Session
	User    *User
}

type Subscription interface {
	Changes() <-chan Change
	Close() error
}

// Source is the account/session backend an identity Context tracks.
type Source interface {
	CurrentSession(ctx context.Context) (*Session, *User, error)
	Subscribe(ctx context.Context) (Subscription, error)
}

type RoleLookup interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// Context owns one caller's identity state. Both the initial fetch and
// every change notification go through apply; admin status is resolved
// afterwards so it never delays auth resolution.
type Context struct {
	source Source
	roles  RoleLookup
	logger *slog.Logger

	mu         sync.Mutex
	state      State
	generation uint64
	closed     bool
	sub        Subscription
	cancel     context.CancelFunc
	changes    chan State
	wg         sync.WaitGroup
}

func New(source Source, roles RoleLookup, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{
		source:  source,
		roles:   roles,
		logger:  logger,
		state:   State{Loading: true},
		changes: make(chan State, 1),
	}
}

func (c *Context) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.cancel != nil {
		c.mu.Unlock()
		return errors.New("identity context already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	sub, err := c.source.Subscribe(runCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe to auth changes: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		return errors.Join(ErrClosed, sub.Close())
	}
	c.sub = sub
	base := c.generation
	c.wg.Add(1)
	c.mu.Unlock()

	go c.listen(runCtx, sub)

	session, user, err := c.source.CurrentSession(runCtx)
	if err != nil {
		c.logger.Warn("initial session fetch failed", "error", err)
		session, user = nil, nil
	}
	// A change applied while the fetch was in flight is newer than it.
	c.apply(runCtx, base, session, user)

	return nil
}

func (c *Context) listen(ctx context.Context, sub Subscription) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ch, ok := <-sub.Changes():
			if !ok {
				return
			}
			if ch.Kind == SignedOut {
				c.apply(ctx, anyGeneration, nil, nil)
				continue
			}
			c.apply(ctx, anyGeneration, ch.Session, ch.User)
		}
	}
}

// anyGeneration applies a result regardless of what came before it.
const anyGeneration = ^uint64(0)

// apply drops the result when expect is set and another update has been
// applied since it was taken.
func (c *Context) apply(ctx context.Context, expect uint64, session *Session, user *User) {
	c.mu.Lock()
	if c.closed || (expect != anyGeneration && expect != c.generation) {
		c.mu.Unlock()
		return
	}

	c.generation++
	gen := c.generation

	prevUser := c.state.User
	c.state.Session = session
	c.state.User = user
	c.state.Loading = false

	if session == nil || user == nil {
		c.state.IsAdmin = false
	} else if prevUser == nil || prevUser.ID != user.ID {
		c.state.IsAdmin = false
	}

	snapshot := c.state

	lookup := session != nil && user != nil && c.roles != nil
	if lookup {
		c.wg.Add(1)
	}
	c.mu.Unlock()

	c.publish(snapshot)

	if !lookup {
		return
	}

	userID := user.ID
	go func() {
		defer c.wg.Done()
		c.resolveAdmin(ctx, gen, userID)
	}()
}

func (c *Context) resolveAdmin(ctx context.Context, gen uint64, userID string) {
	admin, err := c.roles.IsAdmin(ctx, userID)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Warn("admin role lookup failed",
				"user_id", userID,
				"error", err,
			)
		}
		admin = false
	}

	c.mu.Lock()
	if c.closed || gen != c.generation {
		c.mu.Unlock()
		return
	}
	changed := c.state.IsAdmin != admin
	c.state.IsAdmin = admin
	snapshot := c.state
	c.mu.Unlock()

	if changed {
		c.publish(snapshot)
	}
}

// publish keeps only the latest state for slow readers.
func (c *Context) publish(s State) {
	select {
	case c.changes <- s:
		return
	default:
	}

	select {
	case <-c.changes:
	default:
	}

	select {
	case c.changes <- s:
	default:
	}
}

func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Changes delivers the newest state after each update. It is never closed.
func (c *Context) Changes() <-chan State {
	return c.changes
}

// Close releases the subscription. No state is written afterwards.
func (c *Context) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	sub := c.sub
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	var err error
	if sub != nil {
		err = sub.Close()
	}

	c.wg.Wait()
	return err
}

// AngelaMos | 2026
// context_test.go

package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscription struct {
	ch     chan Change
	once   sync.Once
	closed chan struct{}
}

func (s *fakeSubscription) Changes() <-chan Change { return s.ch }

func (s *fakeSubscription) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

type fakeSource struct {
	session *Session
	user    *User
	sub     *fakeSubscription
	subs    int
}

func newFakeSource(session *Session, user *User) *fakeSource {
	return &fakeSource{
		session: session,
		user:    user,
		sub: &fakeSubscription{
			ch:     make(chan Change, 8),
			closed: make(chan struct{}),
		},
	}
}

func (f *fakeSource) CurrentSession(context.Context) (*Session, *User, error) {
	return f.session, f.user, nil
}

func (f *fakeSource) Subscribe(context.Context) (Subscription, error) {
	f.subs++
	return f.sub, nil
}

type fakeRoles struct {
	mu     sync.Mutex
	admins map[string]bool
	gate   chan struct{}
}

func (r *fakeRoles) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.admins[userID], nil
}

func (r *fakeRoles) set(userID string, admin bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.admins[userID] = admin
}

var (
	alice        = &User{ID: "u-alice", Email: "alice@example.com"}
	aliceSession = &Session{ID: "s1", UserID: "u-alice"}
)

func TestStartResolvesSessionThenAdmin(t *testing.T) {
	roles := &fakeRoles{admins: map[string]bool{"u-alice": true}}
	src := newFakeSource(aliceSession, alice)
	ic := New(src, roles, nil)

	assert.True(t, ic.State().Loading)

	require.NoError(t, ic.Start(context.Background()))
	defer ic.Close()

	st := ic.State()
	assert.False(t, st.Loading)
	require.NotNil(t, st.User)
	assert.Equal(t, "u-alice", st.User.ID)
	assert.Equal(t, 1, src.subs)

	require.Eventually(t, func() bool { return ic.State().IsAdmin }, time.Second, 5*time.Millisecond)
}

func TestRoleLookupMonotonicity(t *testing.T) {
	roles := &fakeRoles{admins: map[string]bool{}}
	src := newFakeSource(aliceSession, alice)
	ic := New(src, roles, nil)
	require.NoError(t, ic.Start(context.Background()))
	defer ic.Close()

	require.Never(t, func() bool { return ic.State().IsAdmin }, 50*time.Millisecond, 5*time.Millisecond)

	roles.set("u-alice", true)
	src.sub.ch <- Change{Kind: UserUpdated, Session: aliceSession, User: alice}
	require.Eventually(t, func() bool { return ic.State().IsAdmin }, time.Second, 5*time.Millisecond)

	roles.set("u-alice", false)
	src.sub.ch <- Change{Kind: UserUpdated, Session: aliceSession, User: alice}
	require.Eventually(t, func() bool { return !ic.State().IsAdmin }, time.Second, 5*time.Millisecond)
}

func TestSignedOutClearsState(t *testing.T) {
	roles := &fakeRoles{admins: map[string]bool{"u-alice": true}}
	src := newFakeSource(aliceSession, alice)
	ic := New(src, roles, nil)
	require.NoError(t, ic.Start(context.Background()))
	defer ic.Close()

	require.Eventually(t, func() bool { return ic.State().IsAdmin }, time.Second, 5*time.Millisecond)

	src.sub.ch <- Change{Kind: SignedOut}
	require.Eventually(t, func() bool {
		st := ic.State()
		return st.User == nil && st.Session == nil && !st.IsAdmin
	}, time.Second, 5*time.Millisecond)
}

func TestStaleAdminLookupIsDiscarded(t *testing.T) {
	roles := &fakeRoles{
		admins: map[string]bool{"u-alice": true},
		gate:   make(chan struct{}),
	}
	src := newFakeSource(aliceSession, alice)
	ic := New(src, roles, nil)
	require.NoError(t, ic.Start(context.Background()))
	defer ic.Close()

	src.sub.ch <- Change{Kind: SignedOut}
	require.Eventually(t, func() bool { return ic.State().User == nil }, time.Second, 5*time.Millisecond)

	close(roles.gate)
	require.Never(t, func() bool { return ic.State().IsAdmin }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestCloseReleasesSubscriptionAndFreezesState(t *testing.T) {
	src := newFakeSource(nil, nil)
	ic := New(src, &fakeRoles{admins: map[string]bool{}}, nil)
	require.NoError(t, ic.Start(context.Background()))

	require.NoError(t, ic.Close())
	require.NoError(t, ic.Close())

	select {
	case <-src.sub.closed:
	default:
		t.Fatal("subscription not released")
	}

	src.sub.ch <- Change{Kind: SignedIn, Session: aliceSession, User: alice}
	time.Sleep(20 * time.Millisecond)
	assert.Nil(t, ic.State().User)

	assert.ErrorIs(t, ic.Start(context.Background()), ErrClosed)
}

func TestChangesDeliversSignIn(t *testing.T) {
	src := newFakeSource(nil, nil)
	ic := New(src, nil, nil)
	require.NoError(t, ic.Start(context.Background()))
	defer ic.Close()

	src.sub.ch <- Change{Kind: SignedIn, Session: aliceSession, User: alice}

	timeout := time.After(time.Second)
	for {
		select {
		case st := <-ic.Changes():
			if st.User != nil {
				assert.Equal(t, "u-alice", st.User.ID)
				assert.False(t, st.Loading)
				return
			}
		case <-timeout:
			t.Fatal("sign-in state not delivered")
		}
	}
}

type gatedSource struct {
	*fakeSource
	release chan struct{}
}

func (g *gatedSource) CurrentSession(ctx context.Context) (*Session, *User, error) {
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	return g.fakeSource.CurrentSession(ctx)
}

func TestLateInitialFetchDoesNotUndoSignOut(t *testing.T) {
	src := &gatedSource{fakeSource: newFakeSource(aliceSession, alice), release: make(chan struct{})}
	ic := New(src, nil, nil)
	defer ic.Close()

	src.sub.ch <- Change{Kind: SignedOut}
	started := make(chan error, 1)
	go func() { started <- ic.Start(context.Background()) }()

	require.Eventually(t, func() bool { return !ic.State().Loading }, time.Second, 5*time.Millisecond)

	close(src.release)
	require.NoError(t, <-started)

	st := ic.State()
	assert.Nil(t, st.User)
	assert.Nil(t, st.Session)
}

// AngelaMos | 2026
// confirm_test.go

package order

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGuard(t *testing.T) (*DeleteGuard, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewDeleteGuard(client, 0), mr
}

func TestDeleteGuardConfirmConsumesToken(t *testing.T) {
	guard, _ := newTestGuard(t)
	ctx := context.Background()

	token, err := guard.Request(ctx, "o1")
	require.NoError(t, err)

	require.NoError(t, guard.Confirm(ctx, "o1", token))
	assert.ErrorIs(t, guard.Confirm(ctx, "o1", token), ErrConfirmationRequired)
}

func TestDeleteGuardWrongTokenKeepsPending(t *testing.T) {
	guard, _ := newTestGuard(t)
	ctx := context.Background()

	token, err := guard.Request(ctx, "o1")
	require.NoError(t, err)

	assert.ErrorIs(t, guard.Confirm(ctx, "o1", "bogus"), ErrConfirmationRequired)
	assert.ErrorIs(t, guard.Confirm(ctx, "o2", token), ErrConfirmationRequired)
	assert.NoError(t, guard.Confirm(ctx, "o1", token))
}

func TestDeleteGuardExpires(t *testing.T) {
	guard, mr := newTestGuard(t)
	ctx := context.Background()

	token, err := guard.Request(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfirmTTL, guard.TTL())

	mr.FastForward(DefaultConfirmTTL + time.Second)
	assert.ErrorIs(t, guard.Confirm(ctx, "o1", token), ErrConfirmationRequired)
}

func TestDeleteGuardCancel(t *testing.T) {
	guard, _ := newTestGuard(t)
	ctx := context.Background()

	token, err := guard.Request(ctx, "o1")
	require.NoError(t, err)

	require.NoError(t, guard.Cancel(ctx, "o1"))
	assert.ErrorIs(t, guard.Confirm(ctx, "o1", token), ErrConfirmationRequired)
	assert.ErrorIs(t, guard.Confirm(ctx, "o1", ""), ErrConfirmationRequired)
}

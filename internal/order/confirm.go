// AngelaMos | 2026
// confirm.go

package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/buildmc/storefront/internal/core"
)

const DefaultConfirmTTL = 2 * time.Minute

var ErrConfirmationRequired = errors.New("order delete was not confirmed")

// consumeScript deletes the pending confirmation only when the token
// matches, so a wrong token leaves the pending request in place.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// DeleteGuard holds pending order deletions until an admin confirms or
// cancels them. Unconfirmed requests expire after ttl.
type DeleteGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDeleteGuard(client *redis.Client, ttl time.Duration) *DeleteGuard {
	if ttl <= 0 {
		ttl = DefaultConfirmTTL
	}
	return &DeleteGuard{client: client, ttl: ttl}
}

func (g *DeleteGuard) Request(ctx context.Context, orderID string) (string, error) {
	token := uuid.NewString()
	if err := g.client.Set(ctx, confirmKey(orderID), token, g.ttl).Err(); err != nil {
		return "", fmt.Errorf("store delete confirmation: %w", err)
	}
	return token, nil
}

// Confirm consumes the pending request for orderID. It fails with
// ErrConfirmationRequired when nothing is pending or the token differs.
func (g *DeleteGuard) Confirm(ctx context.Context, orderID, token string) error {
	if token == "" {
		return ErrConfirmationRequired
	}

	n, err := consumeScript.Run(ctx, g.client, []string{confirmKey(orderID)}, token).Int()
	if err != nil {
		return fmt.Errorf("consume delete confirmation: %w", err)
	}
	if n == 0 {
		return ErrConfirmationRequired
	}
	return nil
}

func (g *DeleteGuard) Cancel(ctx context.Context, orderID string) error {
	if err := g.client.Del(ctx, confirmKey(orderID)).Err(); err != nil {
		return fmt.Errorf("cancel delete confirmation: %w", err)
	}
	return nil
}

func (g *DeleteGuard) TTL() time.Duration {
	return g.ttl
}

func confirmKey(orderID string) string {
	return core.RedisKey("order-delete", orderID)
}

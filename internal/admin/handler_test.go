// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmc/storefront/internal/order"
)

type fakeCatalog struct {
	products, categories int
	err                  error
}

func (f fakeCatalog) Counts(context.Context) (int, int, error) {
	return f.products, f.categories, f.err
}

type fakeOrders order.Summary

func (f fakeOrders) Summarize(context.Context) (order.Summary, error) {
	return order.Summary(f), nil
}

func newAdminRouter(cfg HandlerConfig) http.Handler {
	r := chi.NewRouter()
	NewHandler(cfg).RegisterRoutes(r)
	return r
}

func TestDashboard(t *testing.T) {
	h := newAdminRouter(HandlerConfig{
		Catalog: fakeCatalog{products: 12, categories: 3},
		Orders:  fakeOrders{Total: 9, Revenue: 1750.5, Pending: 4},
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data Dashboard `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, Dashboard{
		TotalProducts:   12,
		TotalOrders:     9,
		TotalCategories: 3,
		TotalRevenue:    1750.5,
		PendingOrders:   4,
	}, env.Data)
}

func TestDashboardCollaboratorError(t *testing.T) {
	h := newAdminRouter(HandlerConfig{
		Catalog: fakeCatalog{err: errors.New("relation \"products\" does not exist")},
		Orders:  fakeOrders{},
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "does not exist")
}

func TestSystemStatsReportsUnhealthyPing(t *testing.T) {
	h := newAdminRouter(HandlerConfig{
		DBPing:    func(context.Context) error { return errors.New("down") },
		RedisPing: func(context.Context) error { return nil },
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data SystemStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Data.Database.Reachable)
	assert.True(t, env.Data.Redis.Reachable)
	assert.Nil(t, env.Data.Database.Pool)
	assert.NotEmpty(t, env.Data.Process.GoVersion)
}

func TestPoolStatsShareOneShape(t *testing.T) {
	h := newAdminRouter(HandlerConfig{
		DBStats: func() sql.DBStats {
			return sql.DBStats{MaxOpenConnections: 25, OpenConnections: 4, InUse: 1, Idle: 3, WaitCount: 2}
		},
		RedisStats: func() *redis.PoolStats {
			return &redis.PoolStats{Hits: 10, Misses: 1, Timeouts: 0, TotalConns: 5, IdleConns: 2}
		},
	})

	decode := func(path string) Pool {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var env struct {
			Data Pool `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		return env.Data
	}

	db := decode("/stats/db")
	assert.Equal(t, 25, db.Limit)
	assert.Equal(t, 1, db.InUse)
	assert.Equal(t, int64(2), db.Waits)

	rd := decode("/stats/redis")
	assert.Equal(t, 5, rd.Open)
	assert.Equal(t, 3, rd.InUse)
	assert.Equal(t, uint32(10), rd.Hits)
}

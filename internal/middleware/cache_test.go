package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/suite-exchange/internal/config"
)

// memRedis answers the handful of commands the response cache issues from
// a map, without a server.
type memRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemRedis() (*memRedis, *redis.Client) {
	m := &memRedis{data: map[string]string{}}
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	rdb.AddHook(m)
	return m, rdb
}

func (m *memRedis) DialHook(next redis.DialHook) redis.DialHook { return next }

func (m *memRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (m *memRedis) ProcessHook(redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		args := cmd.Args()
		switch cmd.Name() {
		case "get":
			v, ok := m.data[fmt.Sprint(args[1])]
			if !ok {
				return redis.Nil
			}
			cmd.(*redis.StringCmd).SetVal(v)
		case "setex":
			switch v := args[3].(type) {
			case []byte:
				m.data[fmt.Sprint(args[1])] = string(v)
			default:
				m.data[fmt.Sprint(args[1])] = fmt.Sprint(v)
			}
			cmd.(*redis.StatusCmd).SetVal("OK")
		case "scan":
			prefix := strings.TrimSuffix(fmt.Sprint(args[3]), "*")
			var keys []string
			for k := range m.data {
				if strings.HasPrefix(k, prefix) {
					keys = append(keys, k)
				}
			}
			cmd.(*redis.ScanCmd).SetVal(keys, 0)
		case "del":
			var n int64
			for _, a := range args[1:] {
				if _, ok := m.data[fmt.Sprint(a)]; ok {
					delete(m.data, fmt.Sprint(a))
					n++
				}
			}
			cmd.(*redis.IntCmd).SetVal(n)
		default:
			return fmt.Errorf("unexpected command %q", cmd.Name())
		}
		return nil
	}
}

func (m *memRedis) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for k := range m.data {
		out = append(out, k)
	}
	return out
}

func TestListingWritesDropCachedDiscovery(t *testing.T) {
	store, rdb := newMemRedis()
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, KeyStrategy: "route_query", Prefix: "cache"}

	e := echo.New()
	reads := 0
	moderateStatus := http.StatusOK
	e.GET("/v1/listings", func(c echo.Context) error {
		reads++
		return c.JSON(http.StatusOK, map[string]int{"reads": reads})
	}, NewRedisCache(cfg, rdb, discard))
	e.GET("/v1/discussions", func(c echo.Context) error {
		return c.JSON(http.StatusOK, []string{})
	}, NewRedisCache(cfg, rdb, discard))
	e.POST("/v1/listings/:id/moderate", func(c echo.Context) error {
		return c.JSON(moderateStatus, map[string]string{})
	}, InvalidateCache(cfg, rdb, discard, "/v1/listings"))

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}
	moderate := func() {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/listings/7/moderate", nil))
		require.Equal(t, moderateStatus, rec.Code)
	}

	assert.Equal(t, "MISS", get("/v1/listings").Header().Get("X-Cache"))
	assert.Equal(t, "HIT", get("/v1/listings").Header().Get("X-Cache"))
	get("/v1/discussions")
	require.Len(t, store.keys(), 2)

	moderateStatus = http.StatusBadRequest
	moderate()
	assert.Equal(t, "HIT", get("/v1/listings").Header().Get("X-Cache"), "a rejected write keeps the cache")

	moderateStatus = http.StatusOK
	moderate()
	rec := get("/v1/listings")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"reads":2}`, rec.Body.String())
	assert.Equal(t, "HIT", get("/v1/discussions").Header().Get("X-Cache"), "other routes keep their entries")
}

func TestCacheKeysCarryTheRoute(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/listings?status=ACTIVE", nil), httptest.NewRecorder())
	c.SetPath("/v1/listings")
	key := cacheKeyFrom(config.CacheConfig{Prefix: "cache"}, c)
	assert.True(t, strings.HasPrefix(key, "cache:v1:listings:"), key)
}

func TestInvalidateCacheWithoutRedisIsPassThrough(t *testing.T) {
	mw := InvalidateCache(config.CacheConfig{Enabled: true}, nil, discard, "/v1/listings")
	rec, _ := run(t, mw, httptest.NewRequest(http.MethodPost, "/v1/listings", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

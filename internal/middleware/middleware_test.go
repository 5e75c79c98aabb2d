package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-booking/internal/cache"
	"github.com/iliyamo/room-booking/internal/config"
	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/utils"
)

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func do(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.RemoteAddr = "10.0.0.1:5555"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAndRequireAdmin(t *testing.T) {
	e := echo.New()
	g := e.Group("", JWTAuth("s3cret"))
	g.GET("/me", func(c echo.Context) error {
		r, ok := CurrentRequester(c)
		if !ok {
			return c.NoContent(http.StatusTeapot)
		}
		return c.JSON(http.StatusOK, r)
	})
	g.GET("/admin", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, RequireAdmin())

	user, err := utils.NewAccessToken("s3cret", 7, model.RoleUser, 5)
	require.NoError(t, err)
	adm, err := utils.NewAccessToken("s3cret", 1, model.RoleAdmin, 5)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", "garbage").Code)

	rec := do(e, http.MethodGet, "/me", user.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"UserID":7,"IsAdmin":false}`, rec.Body.String())

	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/admin", user.Token).Code)
	assert.Equal(t, http.StatusNoContent, do(e, http.MethodGet, "/admin", adm.Token).Code)
}

func TestLoginLimiter(t *testing.T) {
	rdb, _ := newRedis(t)
	e := echo.New()
	e.POST("/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		NewLoginLimiter(config.LoginLimitConfig{Enabled: true, Attempts: 3, Window: time.Minute, Prefix: "login"}, rdb))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/login", "").Code)
	}
	rec := do(e, http.MethodPost, "/login", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestLoginLimiterWithoutRedis(t *testing.T) {
	e := echo.New()
	e.POST("/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		NewLoginLimiter(config.LoginLimitConfig{Enabled: true, Attempts: 1, Window: time.Minute}, nil))
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/login", "").Code)
	}
}

func TestResponseCache(t *testing.T) {
	rdb, _ := newRedis(t)
	rc := NewResponseCache(config.CacheConfig{
		Enabled: true, TTL: time.Minute, Methods: map[string]bool{"GET": true}, KeyStrategy: "route_query",
	}, cache.New(rdb, "rb"))

	calls := 0
	e := echo.New()
	e.GET("/locations/:id", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id")})
	}, rc.Middleware())
	e.PATCH("/locations/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, rc.PurgeOnWrite())

	first := do(e, http.MethodGet, "/locations/1", "")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := do(e, http.MethodGet, "/locations/1", "")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	other := do(e, http.MethodGet, "/locations/2", "")
	assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"id":"2"}`, other.Body.String())

	assert.Equal(t, http.StatusOK, do(e, http.MethodPatch, "/locations/1", "").Code)
	assert.Equal(t, "MISS", do(e, http.MethodGet, "/locations/1", "").Header().Get("X-Cache"))
	assert.Equal(t, 3, calls)
}

func TestPayloadCodec(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, gotHdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	assert.False(t, ok)
}

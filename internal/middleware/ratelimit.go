package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/iliyamo/room-booking/internal/config"
)

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// NewLoginLimiter counts login attempts per client IP in Redis and answers
// 429 once cfg.Attempts is reached inside cfg.Window.  Without Redis, or
// when Redis errors, requests pass through.
func NewLoginLimiter(cfg config.LoginLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	store, err := redisstore.NewStoreWithOptions(rdb, limiter.StoreOptions{
		Prefix:   cfg.Prefix,
		MaxRetry: 3,
	})
	if err != nil {
		logrus.WithError(err).Warn("login limiter disabled: redis store unavailable")
		return passThrough
	}
	lim := limiter.New(store, limiter.Rate{Period: cfg.Window, Limit: cfg.Attempts})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			lc, err := lim.Get(c.Request().Context(), ip)
			if err != nil {
				logrus.WithError(err).WithField("ip", ip).Warn("login limiter: redis error")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(lc.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(lc.Remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(lc.Reset, 10))

			if lc.Reached {
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many login attempts, try again later"})
			}
			return next(c)
		}
	}
}

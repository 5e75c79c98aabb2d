package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"                   // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware" // request id, recover and CORS

	"github.com/iliyamo/room-booking/internal/handler"    // handlers implementing each endpoint
	"github.com/iliyamo/room-booking/internal/middleware" // JWT, roles, logging, caches
)

// Deps is everything the router mounts.
type Deps struct {
	JWTSecret     string
	Health        *handler.HealthHandler
	Auth          *handler.AuthHandler
	Catalog       *handler.CatalogHandler
	Bookings      *handler.BookingHandler
	LoginLimiter  echo.MiddlewareFunc
	ResponseCache *middleware.ResponseCache
}

// New returns an Echo instance with the global middleware chain and every
// route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	RegisterRoutes(e, d.Health)
	RegisterAuth(e, d.Auth, d.JWTSecret, d.LoginLimiter)
	RegisterCatalog(e, d.Catalog, d.JWTSecret, d.ResponseCache)
	RegisterBookings(e, d.Bookings, d.JWTSecret)
	return e
}

// RegisterRoutes registers the unauthenticated probes.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	// Liveness for load balancers; readiness also pings Postgres and Redis.
	e.GET("/healthz", h.Health)
	e.GET("/readyz", h.Ready)
}

// RegisterAuth registers the authentication routes.  Register, login and
// refresh are public; login sits behind the attempt counter.  Logout and
// me require a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, loginLimiter echo.MiddlewareFunc) {
	g := e.Group("/auth")
	g.POST("/register", a.Register)
	if loginLimiter != nil {
		g.POST("/login", a.Login, loginLimiter)
	} else {
		g.POST("/login", a.Login)
	}
	// Refresh accepts the token in the body or the HttpOnly cookie.
	g.POST("/refresh", a.Refresh)

	jwt := middleware.JWTAuth(jwtSecret)
	g.POST("/logout", a.Logout, jwt)
	g.GET("/me", a.Me, jwt)
}

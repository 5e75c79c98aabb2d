package handler

import (
	"context"  // provides context with cancellation for DB calls
	"errors"   // errors.Is for repository error kinds
	"net/http" // HTTP status codes and primitives
	"strings"  // string manipulation utilities
	"time"     // cookie and token expiries

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/room-booking/internal/config"     // app configuration
	"github.com/iliyamo/room-booking/internal/middleware" // authenticated caller lookup
	"github.com/iliyamo/room-booking/internal/model"      // user model
	"github.com/iliyamo/room-booking/internal/repository" // error kinds
	"github.com/iliyamo/room-booking/internal/utils"      // helper functions (hashing, token issuing)
)

// refreshCookie carries the raw refresh token for browser clients.
const refreshCookie = "refresh_token"

type userStore interface {
	Create(ctx context.Context, u *model.User, password string, cost int) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id int64) (model.User, error)
}

type tokenStore interface {
	StoreRefresh(ctx context.Context, userID int64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (int64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  userStore
	Tokens tokenStore
}

func NewAuthHandler(cfg config.Config, u userStore, t tokenStore) *AuthHandler {
	if u == nil || t == nil {
		panic("nil repository passed to NewAuthHandler")
	}
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
	FirstName  string `json:"first_name"`
	SecondName string `json:"second_name"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID         int64  `json:"id"`
	FirstName  string `json:"first_name"`
	SecondName string `json:"second_name"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Role       string `json:"role"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func toUserPart(u model.User) userPart {
	return userPart{ID: u.ID, FirstName: u.FirstName, SecondName: u.SecondName, Email: u.Email, Username: u.Username, Role: u.Role}
}

// Register creates a USER account and returns tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	u := model.User{
		FirstName:  strings.TrimSpace(req.FirstName),
		SecondName: strings.TrimSpace(req.SecondName),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Username:   strings.TrimSpace(req.Username),
		Role:       model.RoleUser,
	}
	if u.FirstName == "" || u.SecondName == "" || u.Email == "" || u.Username == "" || req.Password == "" {
		return badRequest(c, "first_name, second_name, email, username and password required")
	}
	if !strings.Contains(u.Email, "@") {
		return badRequest(c, "invalid email")
	}
	if len(req.Password) < 8 {
		return badRequest(c, "password must be at least 8 characters")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Users.Create(ctx, &u, req.Password, h.Cfg.BcryptCost); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email or username already exists"})
		}
		return writeError(c, err)
	}
	return h.issue(ctx, c, u, http.StatusCreated)
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email/password required")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return writeError(c, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	return h.issue(ctx, c, u, http.StatusOK)
}

// Refresh validates the refresh token from the body or cookie, revokes it
// and issues a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := h.refreshFrom(c)
	if raw == "" {
		return badRequest(c, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(raw)

	ctx, cancel := withTimeout(c)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return writeError(c, err)
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return writeError(c, err)
	}
	return h.issue(ctx, c, u, http.StatusOK)
}

// Logout revokes one session when a refresh token is supplied (body or
// cookie) and every session of the caller otherwise.  It runs behind
// JWTAuth.
func (h *AuthHandler) Logout(c echo.Context) error {
	req, ok := middleware.CurrentRequester(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if raw := h.refreshFrom(c); raw != "" {
		if err := h.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw)); err != nil {
			return writeError(c, err)
		}
	} else if err := h.Tokens.RevokeAllForUser(ctx, req.UserID); err != nil {
		return writeError(c, err)
	}
	c.SetCookie(&http.Cookie{Name: refreshCookie, Value: "", Path: "/auth", MaxAge: -1, HttpOnly: true})
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	req, ok := middleware.CurrentRequester(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, req.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

// issue signs an access token, stores a new refresh token and writes the
// pair plus the refresh cookie.
func (h *AuthHandler) issue(ctx context.Context, c echo.Context, u model.User, status int) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return writeError(c, err)
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return writeError(c, err)
	}

	c.SetCookie(&http.Cookie{
		Name:     refreshCookie,
		Value:    refresh.Raw,
		Path:     "/auth",
		Expires:  refresh.Exp,
		HttpOnly: true,
		Secure:   h.Cfg.Env == "prod",
		SameSite: http.SameSiteStrictMode,
	})
	return c.JSON(status, authResp{
		User:    toUserPart(u),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	})
}

// refreshFrom prefers the JSON body and falls back to the cookie.
func (h *AuthHandler) refreshFrom(c echo.Context) string {
	var req refreshReq
	_ = c.Bind(&req)
	if raw := strings.TrimSpace(req.RefreshToken); raw != "" {
		return raw
	}
	if ck, err := c.Cookie(refreshCookie); err == nil {
		return strings.TrimSpace(ck.Value)
	}
	return ""
}

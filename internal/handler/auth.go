package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ecommerce-backend/internal/config"
	"github.com/iliyamo/ecommerce-backend/internal/middleware"
	"github.com/iliyamo/ecommerce-backend/internal/model"
	"github.com/iliyamo/ecommerce-backend/internal/repository"
	"github.com/iliyamo/ecommerce-backend/internal/utils"
)

// UserStore is the account storage consumed by the auth endpoints.
// Satisfied by *repository.UserRepo.
type UserStore interface {
	Create(ctx context.Context, name, email, password string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// RefreshStore is the single-record-per-user refresh token store.
// Satisfied by *repository.TokenRepo.
type RefreshStore interface {
	Store(ctx context.Context, userID uint64, token string) error
	Get(ctx context.Context, userID uint64) (string, bool, error)
	Delete(ctx context.Context, userID uint64) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Tokens RefreshStore
}

func NewAuthHandler(cfg config.Config, u UserStore, t RefreshStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type signupReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type userResp struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// ----- cookie helpers -----

// authCookie builds one of the two credential cookies. Both are
// HttpOnly and path-wide; SameSite is Strict in production and Lax in
// development so the local frontend on a different port still works.
func (h *AuthHandler) authCookie(name, value string, exp time.Time) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if h.Cfg.Prod() {
		sameSite = http.SameSiteStrictMode
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		MaxAge:   int(time.Until(exp).Seconds()),
		HttpOnly: true,
		Secure:   h.Cfg.Prod(),
		SameSite: sameSite,
	}
}

func (h *AuthHandler) setSessionCookies(c echo.Context, access, refresh utils.Token) {
	c.SetCookie(h.authCookie(middleware.AccessTokenCookie, access.Value, access.Exp))
	c.SetCookie(h.authCookie(middleware.RefreshTokenCookie, refresh.Value, refresh.Exp))
}

func (h *AuthHandler) clearSessionCookies(c echo.Context) {
	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		ck := h.authCookie(name, "", time.Unix(0, 0))
		ck.MaxAge = -1
		c.SetCookie(ck)
	}
}

// issueSession creates the token pair, records the refresh token in the
// store (overwriting any previous one — the rotation guarantee) and
// sets both cookies.
func (h *AuthHandler) issueSession(ctx context.Context, c echo.Context, u model.User) error {
	access, err := utils.NewAccessToken(h.Cfg.AccessTokenSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTokenSecret, u.ID, u.Role, h.Cfg.RefreshTTLDays)
	if err != nil {
		return err
	}
	if err := h.Tokens.Store(ctx, u.ID, refresh.Value); err != nil {
		return err
	}
	h.setSessionCookies(c, access, refresh)
	return nil
}

// ----- endpoints -----

// Signup creates an account and opens a session immediately.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email/password required"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters long"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "user already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	u := model.User{ID: uid, Name: req.Name, Email: req.Email, Role: model.RoleCustomer}
	if err := h.issueSession(ctx, c, u); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}

	return c.JSON(http.StatusCreated, userResp{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
}

// Login verifies credentials and opens a new session. A missing account
// and a wrong password answer identically so emails cannot be
// enumerated.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
	}

	if err := h.issueSession(ctx, c, u); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}

	return c.JSON(http.StatusOK, userResp{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
}

// Logout requires proof of an active session: the refresh cookie must
// be present and verify. Its store record is deleted so the token is
// dead even before its cryptographic expiry, and both cookies are
// cleared.
func (h *AuthHandler) Logout(c echo.Context) error {
	cookie, err := c.Cookie(middleware.RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	claims, err := utils.VerifyToken(h.Cfg.RefreshTokenSecret, cookie.Value, utils.PurposeRefresh)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tokens.Delete(ctx, claims.UserID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}

	h.clearSessionCookies(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out successfully"})
}

// Refresh exchanges a valid refresh cookie for a new access cookie. The
// presented token must match the stored record byte-for-byte, which is
// what rejects a token rotated out by a later login. The refresh token
// itself is not rotated here and the record's TTL is not extended, so a
// session has a hard ceiling of the refresh lifetime from its last
// login regardless of activity.
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(middleware.RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	claims, err := utils.VerifyToken(h.Cfg.RefreshTokenSecret, cookie.Value, utils.PurposeRefresh)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stored, ok, err := h.Tokens.Get(ctx, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh store failed"})
	}
	if !ok || stored != cookie.Value {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	access, err := utils.NewAccessToken(h.Cfg.AccessTokenSecret, claims.UserID, claims.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	c.SetCookie(h.authCookie(middleware.AccessTokenCookie, access.Value, access.Exp))

	return c.JSON(http.StatusOK, echo.Map{"message": "token refreshed successfully"})
}

// Profile returns the account resolved by the session middleware.
func (h *AuthHandler) Profile(c echo.Context) error {
	u, ok := c.Get(middleware.ContextUser).(model.User)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, userResp{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
}

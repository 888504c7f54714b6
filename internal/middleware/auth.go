package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ecommerce-backend/internal/model"
	"github.com/iliyamo/ecommerce-backend/internal/repository"
	"github.com/iliyamo/ecommerce-backend/internal/utils"
)

// Cookie names shared between the session middleware and the auth
// handlers. Both cookies are HttpOnly and scoped to the whole path.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// Context keys populated by SessionAuth for downstream handlers.
const (
	ContextUser   = "user"    // model.User of the resolved account
	ContextUserID = "user_id" // uint64
	ContextRole   = "role"    // string
)

// UserProvider resolves an account by id. Satisfied by
// *repository.UserRepo; declared here so tests can substitute a fake.
type UserProvider interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// SessionAuth returns middleware that validates the access-token cookie
// on protected routes. The flow is strictly ordered: missing cookie,
// then signature/expiry, then account lookup — a deleted account makes
// an otherwise valid token worthless. On success the resolved account
// and role are attached to the context.
func SessionAuth(secret string, users UserProvider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(AccessTokenCookie)
			if err != nil || cookie.Value == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}

			claims, err := utils.VerifyToken(secret, cookie.Value, utils.PurposeAccess)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized - token expired or malformed"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, err := users.GetByID(ctx, claims.UserID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
			}

			c.Set(ContextUser, u)
			c.Set(ContextUserID, u.ID)
			c.Set(ContextRole, u.Role)
			return next(c)
		}
	}
}

// RequireAdmin rejects non-admin callers with 403. It must run after
// SessionAuth: a Forbidden answer asserts the identity was valid, which
// is only known once the account has been resolved.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, ok := c.Get(ContextRole).(string)
		if !ok || role != model.RoleAdmin {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied, admin only"})
		}
		return next(c)
	}
}

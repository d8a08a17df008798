package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"studydocs/internal/identity"
	"studydocs/internal/model"
)

// CallerLocalKey is the key used to store the resolved identity.Caller in Fiber's context locals.
const CallerLocalKey = "caller"

// Claims is the bearer token payload issued by the authentication service. The principal id is the
// subject; older tokens carry it as "id" instead. student_id is present when the token already
// knows the linked student profile.
type Claims struct {
	UserID    string `json:"id,omitempty"`
	Role      string `json:"role"`
	StudentID string `json:"student_id,omitempty"`
	jwt.RegisteredClaims
}

// CallerResolver turns an authenticated principal into a request-scoped caller.
type CallerResolver interface {
	Resolve(ctx context.Context, p model.Principal) (identity.Caller, error)
}

// Auth verifies the HS256 bearer token, resolves the caller once and stores it under CallerLocalKey.
// Handlers read it back with CallerFromCtx.
func Auth(secret []byte, resolver CallerResolver) fiber.Handler {
	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }

	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		scheme, raw, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(raw) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims := &Claims{}
		if _, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, keyFunc,
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		p := model.Principal{
			ID:      claims.Subject,
			Role:    model.Role(claims.Role),
			OwnerID: claims.StudentID,
		}
		if p.ID == "" {
			p.ID = claims.UserID
		}

		caller, err := resolver.Resolve(c.UserContext(), p)
		if err != nil {
			if errors.Is(err, identity.ErrNotAuthenticated) {
				return fiber.NewError(fiber.StatusUnauthorized, "invalid token claims")
			}
			return err
		}

		c.Locals(CallerLocalKey, caller)
		return c.Next()
	}
}

// CallerFromCtx returns the caller stored by Auth, or the zero Caller (role unset) when the
// request was not authenticated.
func CallerFromCtx(c *fiber.Ctx) identity.Caller {
	caller, _ := callerFromLocals(c)
	return caller
}

func callerFromLocals(c *fiber.Ctx) (identity.Caller, bool) {
	caller, ok := c.Locals(CallerLocalKey).(identity.Caller)
	return caller, ok
}

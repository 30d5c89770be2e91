package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-core/internal/domain"
)

// RequireAccount ensures a tenant account is authenticated.
func RequireAccount() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeAccount || principal.Account == nil {
			return fiber.NewError(http.StatusForbidden, "account required")
		}
		return c.Next()
	}
}

// RequireMainAccount ensures the caller is a tenant's primary login.
func RequireMainAccount() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Account == nil || !principal.Account.IsMain() {
			return fiber.NewError(http.StatusForbidden, "main account required")
		}
		return c.Next()
	}
}

// RequireOperator ensures the platform operator is authenticated.
func RequireOperator() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || !principal.Operator {
			return fiber.NewError(http.StatusForbidden, "operator required")
		}
		return c.Next()
	}
}

// RequireAnyRole ensures caller is authenticated (account or operator).
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}

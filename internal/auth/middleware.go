package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/portal-core/internal/domain"
	"github.com/spec-kit/portal-core/internal/repository"
	"github.com/spec-kit/portal-core/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller: either a tenant account
// or the platform operator.
type Principal struct {
	SubjectType domain.SubjectType
	Account     *domain.Account
	Operator    bool
}

// Actor converts the principal to the acting identity used by the role
// resolver and the workflow engine.
func (p *Principal) Actor(operatorLabel string) domain.Actor {
	if p.Operator {
		return domain.OperatorActor(operatorLabel)
	}
	return domain.AccountActor(p.Account)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens   *TokenManager
	accounts repository.AccountRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, accounts repository.AccountRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, accounts: accounts}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return util.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return util.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return util.NewUnauthorized("invalid token")
	}

	principal := &Principal{SubjectType: claims.Subject}

	switch claims.Subject {
	case domain.SubjectTypeAccount:
		account, err := m.accounts.GetByEmail(c.Context(), claims.SubjectID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return util.NewUnauthorized("account not found")
			}
			return util.MapError(err)
		}
		if account.Status == domain.AccountStatusSuspended {
			return util.NewAccountSuspended()
		}
		principal.Account = account
	case domain.SubjectTypeOperator:
		principal.Operator = true
	default:
		return util.NewUnauthorized("unknown subject")
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

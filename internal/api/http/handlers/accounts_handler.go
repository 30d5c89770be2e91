package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-core/internal/api/dto"
	"github.com/spec-kit/portal-core/internal/auth"
	"github.com/spec-kit/portal-core/internal/service"
)

// AccountsHandler exposes registration, login and sub-user endpoints.
type AccountsHandler struct {
	accounts *service.AccountService
	sessions *service.AuthService
}

// NewAccountsHandler constructs handler.
func NewAccountsHandler(accountService *service.AccountService, authService *service.AuthService) *AccountsHandler {
	return &AccountsHandler{accounts: accountService, sessions: authService}
}

// Register handles POST /auth/register.
func (h *AccountsHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	account, err := h.accounts.RegisterTrialAccount(c.Context(), service.AccountProfile{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.NewAccountSummary(account),
	})
}

// Login handles POST /auth/login.
func (h *AccountsHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	result, err := h.sessions.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	data := fiber.Map{
		"auth":                 dto.AuthResponse{Token: result.Token, ExpiresAt: result.ExpiresAt},
		"subscription_expired": result.SubscriptionExpired,
	}
	if result.Account != nil {
		data["account"] = dto.NewAccountSummary(result.Account)
	}
	return c.JSON(fiber.Map{"data": data})
}

// ValidateSession handles GET /auth/session.
func (h *AccountsHandler) ValidateSession(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}
	if principal.Operator {
		return c.JSON(fiber.Map{"data": fiber.Map{"operator": true, "valid": true}})
	}

	result, err := h.sessions.ValidateSession(c.Context(), principal.Account.Email, time.Now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"valid":                !result.SubscriptionExpired,
		"subscription_expired": result.SubscriptionExpired,
		"account":              dto.NewAccountSummary(result.Account),
	}})
}

// CreateSubUser handles POST /accounts/sub-users.
func (h *AccountsHandler) CreateSubUser(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return fiber.NewError(http.StatusForbidden, "account required")
	}

	var req dto.CreateSubUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	sub, err := h.accounts.CreateSubUser(c.Context(), principal.Account, service.AccountProfile{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewAccountSummary(sub)})
}

// ListSubUsers handles GET /accounts/sub-users.
func (h *AccountsHandler) ListSubUsers(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return fiber.NewError(http.StatusForbidden, "account required")
	}

	subs, err := h.accounts.ListSubUsers(c.Context(), principal.Account)
	if err != nil {
		return err
	}
	items := make([]dto.AccountSummary, 0, len(subs))
	for i := range subs {
		items = append(items, dto.NewAccountSummary(&subs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// RequestPasswordReset handles POST /auth/password/reset/request.
func (h *AccountsHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" {
		return fiber.NewError(http.StatusBadRequest, "email required")
	}

	token, err := h.sessions.RequestPasswordReset(c.Context(), req.Email)
	if err != nil {
		return err
	}
	// Token delivery happens out of band; returning expiry only.
	return c.JSON(fiber.Map{"data": fiber.Map{"expires_at": token.ExpiresAt}})
}

// ConfirmPasswordReset handles POST /auth/password/reset/confirm.
func (h *AccountsHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Token == "" || req.NewPassword == "" {
		return fiber.NewError(http.StatusBadRequest, "token and new password required")
	}

	if err := h.sessions.ConfirmPasswordReset(c.Context(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"reset": true}})
}

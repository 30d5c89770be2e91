package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-core/internal/api/dto"
	"github.com/spec-kit/portal-core/internal/auth"
	"github.com/spec-kit/portal-core/internal/domain"
	"github.com/spec-kit/portal-core/internal/repository"
	"github.com/spec-kit/portal-core/internal/service"
	"github.com/spec-kit/portal-core/pkg/util"
)

// SubscriptionsHandler exposes plan changes and permission checks.
type SubscriptionsHandler struct {
	subscriptions *service.SubscriptionService
	permissions   *service.PermissionService
	accounts      *service.AccountService
	usage         repository.UsageRepository
}

// NewSubscriptionsHandler constructs handler.
func NewSubscriptionsHandler(subscriptionService *service.SubscriptionService, permissionService *service.PermissionService, accountService *service.AccountService, usage repository.UsageRepository) *SubscriptionsHandler {
	return &SubscriptionsHandler{
		subscriptions: subscriptionService,
		permissions:   permissionService,
		accounts:      accountService,
		usage:         usage,
	}
}

// ChangePlan handles POST /subscription. Payment settlement happens
// upstream; by the time this is called the purchase is already confirmed.
func (h *SubscriptionsHandler) ChangePlan(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return fiber.NewError(http.StatusForbidden, "account required")
	}

	var req dto.ChangePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	account, err := h.subscriptions.ExtendOrChangePlan(c.Context(), principal.Account.OwnerKey(), req.Plan, req.DaysToAdd)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAccountSummary(account)})
}

// CheckPermission handles POST /permissions/check. A speculative check:
// the gate is pure, so asking never consumes quota or mutates state.
func (h *SubscriptionsHandler) CheckPermission(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.PermissionCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	if principal.Operator {
		return c.JSON(fiber.Map{"data": fiber.Map{"allowed": true}})
	}

	usage, main, err := h.usageSnapshot(c, principal.Account, req.Action)
	if err != nil {
		return err
	}
	if err := h.permissions.Check(main, req.Action, usage); err != nil {
		denied := util.ToDomainError(err)
		return c.JSON(fiber.Map{"data": fiber.Map{
			"allowed": false,
			"reason":  denied.Code,
			"message": denied.Message,
		}})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"allowed": true}})
}

// RecordTransaction handles POST /transactions: the generic daily-limited
// business action. The gate is consulted with a live counter, then the
// counter is advanced.
func (h *SubscriptionsHandler) RecordTransaction(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return fiber.NewError(http.StatusForbidden, "account required")
	}

	usage, main, err := h.usageSnapshot(c, principal.Account, domain.ActionDailyTransaction)
	if err != nil {
		return err
	}
	if err := h.permissions.Check(main, domain.ActionDailyTransaction, usage); err != nil {
		return err
	}

	count, err := h.usage.IncrementToday(c.Context(), principal.Account.OwnerKey(), time.Now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"count_today": count}})
}

func (h *SubscriptionsHandler) usageSnapshot(c *fiber.Ctx, account *domain.Account, action domain.PermissionAction) (domain.UsageSnapshot, *domain.Account, error) {
	main, err := h.accounts.EffectiveAccount(c.Context(), account)
	if err != nil {
		return domain.UsageSnapshot{}, nil, err
	}

	var usage domain.UsageSnapshot
	switch action {
	case domain.ActionCreateSubUser:
		subs, err := h.accounts.ListSubUsers(c.Context(), account)
		if err != nil {
			return domain.UsageSnapshot{}, nil, err
		}
		usage.SubUserCount = len(subs)
	case domain.ActionDailyTransaction:
		count, err := h.usage.CountToday(c.Context(), main.Email, time.Now())
		if err != nil {
			return domain.UsageSnapshot{}, nil, err
		}
		usage.CountToday = count
	}
	return usage, main, nil
}

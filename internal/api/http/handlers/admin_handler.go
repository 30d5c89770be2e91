package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-core/internal/api/dto"
	"github.com/spec-kit/portal-core/internal/catalog"
	"github.com/spec-kit/portal-core/internal/observability"
	"github.com/spec-kit/portal-core/internal/service"
)

// AdminHandler exposes operator-only administrative operations.
type AdminHandler struct {
	catalog       *catalog.Store
	subscriptions *service.SubscriptionService
	accounts      *service.AccountService
	metrics       *observability.Metrics
}

// NewAdminHandler constructs handler.
func NewAdminHandler(store *catalog.Store, subscriptionService *service.SubscriptionService, accountService *service.AccountService, metrics *observability.Metrics) *AdminHandler {
	return &AdminHandler{
		catalog:       store,
		subscriptions: subscriptionService,
		accounts:      accountService,
		metrics:       metrics,
	}
}

// GetCatalog handles GET /admin/catalog.
func (h *AdminHandler) GetCatalog(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.NewCatalogView(h.catalog.Catalog())})
}

// ReplaceCatalog handles PUT /admin/catalog. The whole catalog is swapped
// atomically; partial catalogs are rejected.
func (h *AdminHandler) ReplaceCatalog(c *fiber.Ctx) error {
	var req dto.ReplaceCatalogRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.catalog.Replace(req.ToCatalog()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCatalogView(h.catalog.Catalog())})
}

// SetTrialDays handles PUT /admin/trial-days.
func (h *AdminHandler) SetTrialDays(c *fiber.Ctx) error {
	var req dto.SetTrialDaysRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.subscriptions.SetTrialDays(req.Days); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"trial_days": h.subscriptions.TrialDays()}})
}

// ChangeSubscription handles POST /admin/subscriptions: operator-side plan
// change for any account.
func (h *AdminHandler) ChangeSubscription(c *fiber.Ctx) error {
	var req dto.ChangePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" {
		return fiber.NewError(http.StatusBadRequest, "email required")
	}

	account, err := h.subscriptions.ExtendOrChangePlan(c.Context(), req.Email, req.Plan, req.DaysToAdd)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAccountSummary(account)})
}

// SetSuspended handles POST /admin/accounts/suspension.
func (h *AdminHandler) SetSuspended(c *fiber.Ctx) error {
	var req dto.SuspendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" {
		return fiber.NewError(http.StatusBadRequest, "email required")
	}

	account, err := h.accounts.SetSuspended(c.Context(), req.Email, req.Suspended)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAccountSummary(account)})
}

// Metrics handles GET /admin/metrics.
func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	requests, errors := h.metrics.Snapshot()
	return c.JSON(fiber.Map{"data": fiber.Map{
		"requests": requests,
		"errors":   errors,
	}})
}

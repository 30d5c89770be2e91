package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-core/internal/api/http/handlers"
	"github.com/spec-kit/portal-core/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Accounts       *handlers.AccountsHandler
	Tickets        *handlers.TicketsHandler
	Subscriptions  *handlers.SubscriptionsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Accounts.Register)
	authGroup.Post("/login", cfg.Accounts.Login)
	authGroup.Post("/password/reset/request", cfg.Accounts.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Accounts.ConfirmPasswordReset)
	authGroup.Get("/session", cfg.AuthMiddleware.Handle, auth.RequireAnyRole(), cfg.Accounts.ValidateSession)

	accounts := app.Group("/accounts", cfg.AuthMiddleware.Handle, auth.RequireAccount())
	accounts.Post("/sub-users", auth.RequireMainAccount(), cfg.Accounts.CreateSubUser)
	accounts.Get("/sub-users", cfg.Accounts.ListSubUsers)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Get("/", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Get("/:id/role", cfg.Tickets.Role)
	tickets.Post("/:id/responses", cfg.Tickets.Respond)

	app.Post("/subscription", cfg.AuthMiddleware.Handle, auth.RequireMainAccount(), cfg.Subscriptions.ChangePlan)
	app.Post("/permissions/check", cfg.AuthMiddleware.Handle, auth.RequireAnyRole(), cfg.Subscriptions.CheckPermission)
	app.Post("/transactions", cfg.AuthMiddleware.Handle, auth.RequireAccount(), cfg.Subscriptions.RecordTransaction)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireOperator())
	admin.Get("/catalog", cfg.Admin.GetCatalog)
	admin.Put("/catalog", cfg.Admin.ReplaceCatalog)
	admin.Put("/trial-days", cfg.Admin.SetTrialDays)
	admin.Post("/subscriptions", cfg.Admin.ChangeSubscription)
	admin.Post("/accounts/suspension", cfg.Admin.SetSuspended)
	admin.Get("/metrics", cfg.Admin.Metrics)
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-core/internal/api/dto"
	"github.com/spec-kit/portal-core/internal/auth"
	"github.com/spec-kit/portal-core/internal/domain"
	"github.com/spec-kit/portal-core/internal/service"
)

// TicketsHandler exposes ticket workflow endpoints.
type TicketsHandler struct {
	tickets       *service.TicketService
	accounts      *service.AccountService
	operatorLabel string
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, accountService *service.AccountService, operatorLabel string) *TicketsHandler {
	return &TicketsHandler{
		tickets:       ticketService,
		accounts:      accountService,
		operatorLabel: operatorLabel,
	}
}

// Create handles POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	ticket, err := h.tickets.CreateTicket(c.Context(), principal.Actor(h.operatorLabel), service.TicketCreateInput{
		Subject:    req.Subject,
		Message:    req.Message,
		PartyName:  req.PartyName,
		PartyType:  req.PartyType,
		ToOperator: req.ToOperator,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// Get handles GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// List handles GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	filter := service.TicketListFilter{
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		filter.TextQuery = &q
	}
	if statusParam := strings.TrimSpace(c.Query("status")); statusParam != "" {
		status := domain.TicketStatus(strings.ToUpper(statusParam))
		if status != domain.TicketStatusPending && status != domain.TicketStatusResolved {
			return fiber.NewError(http.StatusBadRequest, "invalid status filter")
		}
		filter.Status = &status
	}

	tickets, err := h.tickets.ListTickets(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Role handles GET /tickets/:id/role.
func (h *TicketsHandler) Role(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	role, err := h.tickets.ResolveRole(c.Context(), c.Params("id"), principal.Actor(h.operatorLabel))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"role": role}})
}

// Respond handles POST /tickets/:id/responses.
func (h *TicketsHandler) Respond(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.RespondRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	actor := principal.Actor(h.operatorLabel)

	var attachment *service.AttachmentInput
	if req.Attachment != nil {
		if strings.TrimSpace(req.Attachment.FileName) == "" {
			return fiber.NewError(http.StatusBadRequest, "attachment file name required")
		}
		permitted, err := h.attachmentPermitted(c, principal)
		if err != nil {
			return err
		}
		attachment = &service.AttachmentInput{
			FileName:  req.Attachment.FileName,
			Permitted: permitted,
		}
	}

	ticket, err := h.tickets.SubmitResponse(c.Context(), c.Params("id"), actor, req.Message, attachment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// attachmentPermitted consults the gate on the effective MAIN account.
// The workflow engine does not re-check plan limits, it only refuses
// attachments flagged as disallowed here. Suspension and expiry denials
// propagate with their own codes rather than collapsing into a plain
// attachment refusal.
func (h *TicketsHandler) attachmentPermitted(c *fiber.Ctx, principal *auth.Principal) (bool, error) {
	if principal.Operator {
		return true, nil
	}
	return h.accounts.AttachmentPermitted(c.Context(), principal.Account)
}

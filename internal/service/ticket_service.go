package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/portal-core/internal/domain"
	"github.com/spec-kit/portal-core/internal/events"
	"github.com/spec-kit/portal-core/internal/repository"
	"github.com/spec-kit/portal-core/pkg/util"
)

// TicketService owns the ticket lifecycle: the two-state ping-pong
// workflow where edit rights alternate between creator and receiver.
// SubmitResponse is the only mutation path for ticket status.
type TicketService struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	resolver   *RoleResolver
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketHistoryRepository
	Resolver    *RoleResolver
	Dispatcher  events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Subject    string
	Message    string
	PartyName  string
	PartyType  domain.PartyType
	ToOperator bool
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	TextQuery *string
	Status    *domain.TicketStatus
	Limit     int
	Offset    int
}

// AttachmentInput references an already-stored attachment. Permitted is
// set by the caller after consulting the permission gate; the engine does
// not re-check plan limits but refuses to persist a disallowed attachment.
type AttachmentInput struct {
	FileName  string
	Permitted bool
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		resolver:   deps.Resolver,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTicket opens a new PENDING ticket and seeds its history.
func (s *TicketService) CreateTicket(ctx context.Context, actor domain.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, util.NewValidationError("subject required", nil)
	}

	creator := actor.Email
	if actor.Kind == domain.ActorOperator {
		creator = s.resolver.OperatorEmail()
	}

	ticket := &domain.Ticket{
		TicketNo:     generateTicketNo(),
		Subject:      subject,
		Message:      strings.TrimSpace(input.Message),
		CreatorEmail: creator,
		PartyName:    input.PartyName,
		PartyType:    input.PartyType,
		ToOperator:   input.ToOperator,
		Status:       domain.TicketStatusPending,
	}
	if ticket.PartyType == "" {
		ticket.PartyType = domain.PartyTypeCompany
	}

	entry := &domain.HistoryEntry{
		ActorLabel: actor.Label,
		Action:     "opened: " + subject,
		CreatedAt:  time.Now(),
	}
	if err := s.tickets.Create(ctx, ticket, entry); err != nil {
		return nil, err
	}
	ticket.History = []domain.HistoryEntry{*entry}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		EntityID: ticket.ID,
		Actor:    eventActor(actor),
		Payload: events.TicketCreatedPayload{
			TicketNo:   ticket.TicketNo,
			Subject:    ticket.Subject,
			PartyName:  ticket.PartyName,
			PartyType:  ticket.PartyType,
			ToOperator: ticket.ToOperator,
		},
	})
	return ticket, nil
}

// SubmitResponse appends one history entry and flips the ticket status.
//
// Edit rights follow the ping-pong rule: the receiver answers a PENDING
// ticket, the creator re-opens a RESOLVED one. Anyone else fails with
// NOT_AUTHORIZED_FOR_TRANSITION.
func (s *TicketService) SubmitResponse(ctx context.Context, ticketID string, actor domain.Actor, messageText string, attachment *AttachmentInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, util.NewTicketNotFound(ticketID)
		}
		return nil, err
	}

	role := s.resolver.Resolve(actor, ticket)
	canEdit := (ticket.Status == domain.TicketStatusPending && role == domain.RoleReceiver) ||
		(ticket.Status == domain.TicketStatusResolved && role == domain.RoleCreator)
	if !canEdit {
		return nil, util.NewNotAuthorizedForTransition("not this party's turn to respond")
	}

	if attachment != nil && !attachment.Permitted {
		return nil, util.NewAttachmentNotPermitted()
	}

	action := strings.TrimSpace(messageText)
	if action == "" {
		return nil, util.NewValidationError("message text required", nil)
	}
	if attachment != nil {
		action += " [attachment: " + attachment.FileName + "]"
	}

	oldStatus := ticket.Status
	ticket.Status = ticket.Status.Opposite()

	entry := &domain.HistoryEntry{
		TicketID:   ticket.ID,
		ActorLabel: actor.Label,
		Action:     action,
		CreatedAt:  time.Now(),
	}
	if err := s.tickets.SaveResponse(ctx, ticket, entry); err != nil {
		return nil, err
	}

	history, err := s.history.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	ticket.History = history

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketResponded,
		EntityID: ticket.ID,
		Actor:    eventActor(actor),
		Payload: events.TicketRespondedPayload{
			TicketNo:      ticket.TicketNo,
			OldStatus:     oldStatus,
			NewStatus:     ticket.Status,
			HasAttachment: attachment != nil,
		},
	})
	return ticket, nil
}

// GetTicket loads a ticket with its full history. Reads carry no
// authorization side effects; edit rights are enforced at the mutating edge.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, util.NewTicketNotFound(ticketID)
		}
		return nil, err
	}
	history, err := s.history.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	ticket.History = history
	return ticket, nil
}

// ResolveRole reports the actor's relationship to a ticket.
func (s *TicketService) ResolveRole(ctx context.Context, ticketID string, actor domain.Actor) (domain.TicketRole, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", util.NewTicketNotFound(ticketID)
		}
		return "", err
	}
	return s.resolver.Resolve(actor, ticket), nil
}

// ListTickets returns tickets matching the filter.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		TextQuery: filter.TextQuery,
		Status:    filter.Status,
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	})
}

func generateTicketNo() string {
	return "TKT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func eventActor(actor domain.Actor) events.Actor {
	return events.Actor{
		Kind:  actor.Kind,
		Email: actor.Email,
		Label: actor.Label,
	}
}

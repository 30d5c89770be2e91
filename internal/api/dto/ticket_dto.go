package dto

import (
	"time"

	"github.com/spec-kit/portal-core/internal/domain"
)

// CreateTicketRequest payload for opening a ticket.
type CreateTicketRequest struct {
	Subject    string           `json:"subject"`
	Message    string           `json:"message"`
	PartyName  string           `json:"party_name"`
	PartyType  domain.PartyType `json:"party_type"`
	ToOperator bool             `json:"to_operator"`
}

// AttachmentRef names an already-uploaded file.
type AttachmentRef struct {
	FileName string `json:"file_name"`
}

// RespondRequest payload for submitting a ticket response.
type RespondRequest struct {
	Message    string         `json:"message"`
	Attachment *AttachmentRef `json:"attachment,omitempty"`
}

// HistoryEntryView is the API projection of a history entry.
type HistoryEntryView struct {
	Seq        int64     `json:"seq"`
	ActorLabel string    `json:"actor_label"`
	Action     string    `json:"action"`
	CreatedAt  time.Time `json:"created_at"`
}

// TicketSummary is the list projection of a ticket.
type TicketSummary struct {
	ID           string              `json:"id"`
	TicketNo     string              `json:"ticket_no"`
	Subject      string              `json:"subject"`
	CreatorEmail string              `json:"creator_email"`
	PartyName    string              `json:"party_name"`
	PartyType    domain.PartyType    `json:"party_type"`
	ToOperator   bool                `json:"to_operator"`
	Status       domain.TicketStatus `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// TicketDetail adds the message body and history.
type TicketDetail struct {
	TicketSummary
	Message string             `json:"message"`
	History []HistoryEntryView `json:"history"`
}

// NewTicketSummary maps the domain model.
func NewTicketSummary(ticket *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:           ticket.ID,
		TicketNo:     ticket.TicketNo,
		Subject:      ticket.Subject,
		CreatorEmail: ticket.CreatorEmail,
		PartyName:    ticket.PartyName,
		PartyType:    ticket.PartyType,
		ToOperator:   ticket.ToOperator,
		Status:       ticket.Status,
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
	}
}

// NewTicketDetail maps the domain model with history.
func NewTicketDetail(ticket *domain.Ticket) TicketDetail {
	history := make([]HistoryEntryView, 0, len(ticket.History))
	for _, entry := range ticket.History {
		history = append(history, HistoryEntryView{
			Seq:        entry.Seq,
			ActorLabel: entry.ActorLabel,
			Action:     entry.Action,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return TicketDetail{
		TicketSummary: NewTicketSummary(ticket),
		Message:       ticket.Message,
		History:       history,
	}
}

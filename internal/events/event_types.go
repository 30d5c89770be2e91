package events

import (
	"time"

	"github.com/spec-kit/portal-core/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated        EventType = "ticket_created"
	EventTicketResponded      EventType = "ticket_responded"
	EventSubUserCreated       EventType = "sub_user_created"
	EventPlanChanged          EventType = "plan_changed"
	EventSubscriptionExpired  EventType = "subscription_expired"
	EventAccountSuspensionSet EventType = "account_suspension_set"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Kind  domain.ActorKind `json:"kind"`
	Email string           `json:"email,omitempty"`
	Label string           `json:"label,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	EntityID  string      `json:"entity_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNo   string           `json:"ticket_no"`
	Subject    string           `json:"subject"`
	PartyName  string           `json:"party_name"`
	PartyType  domain.PartyType `json:"party_type"`
	ToOperator bool             `json:"to_operator"`
}

// TicketRespondedPayload payload.
type TicketRespondedPayload struct {
	TicketNo      string              `json:"ticket_no"`
	OldStatus     domain.TicketStatus `json:"old_status"`
	NewStatus     domain.TicketStatus `json:"new_status"`
	HasAttachment bool                `json:"has_attachment"`
}

// SubUserCreatedPayload payload.
type SubUserCreatedPayload struct {
	OwnerEmail   string      `json:"owner_email"`
	SubUserEmail string      `json:"sub_user_email"`
	Plan         domain.Plan `json:"plan"`
}

// PlanChangedPayload payload.
type PlanChangedPayload struct {
	OldPlan      domain.Plan `json:"old_plan"`
	NewPlan      domain.Plan `json:"new_plan"`
	DaysAdded    int         `json:"days_added"`
	NewExpiresAt time.Time   `json:"new_expires_at"`
}

// SubscriptionExpiredPayload payload.
type SubscriptionExpiredPayload struct {
	Plan      domain.Plan `json:"plan"`
	ExpiredAt time.Time   `json:"expired_at"`
}

// AccountSuspensionSetPayload payload.
type AccountSuspensionSetPayload struct {
	Status domain.AccountStatus `json:"status"`
}

package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. The workflow is a
// strict two-state ping-pong: there is no third state and no terminal close.
type TicketStatus string

const (
	TicketStatusPending  TicketStatus = "PENDING"
	TicketStatusResolved TicketStatus = "RESOLVED"
)

// PartyType describes what kind of party a ticket is addressed to.
type PartyType string

const (
	PartyTypeAdmin   PartyType = "ADMIN"
	PartyTypeCompany PartyType = "COMPANY"
)

// Ticket is the aggregate for support correspondence between a company
// and the platform operator (or between companies).
type Ticket struct {
	ID           string
	TicketNo     string
	Subject      string
	Message      string
	CreatorEmail string
	PartyName    string
	PartyType    PartyType
	ToOperator   bool
	Status       TicketStatus
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	History      []HistoryEntry
}

// Opposite returns the other workflow state.
func (s TicketStatus) Opposite() TicketStatus {
	if s == TicketStatusPending {
		return TicketStatusResolved
	}
	return TicketStatusPending
}

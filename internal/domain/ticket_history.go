package domain

import "time"

// HistoryEntry is an immutable audit trail entry on a ticket. Entries are
// append-only and ordered by Seq; the ticket's current status is always
// derivable from the most recent workflow-changing entry.
type HistoryEntry struct {
	Seq        int64
	TicketID   string
	ActorLabel string
	Action     string
	CreatedAt  time.Time
}

package service

import (
	"github.com/spec-kit/portal-core/internal/domain"
)

// RoleResolver decides whether an acting identity is the CREATOR or the
// RECEIVER of a ticket. It is a pure decision function: no side effects,
// no storage access.
type RoleResolver struct {
	operatorEmail string
}

// NewRoleResolver builds a resolver bound to the reserved operator identity.
func NewRoleResolver(operatorEmail string) *RoleResolver {
	return &RoleResolver{operatorEmail: operatorEmail}
}

// OperatorEmail returns the reserved operator identity.
func (r *RoleResolver) OperatorEmail() string {
	return r.operatorEmail
}

// Resolve returns the actor's relationship to the ticket.
//
// A MAIN account inherits authorship of operator-origin tickets addressed
// to its company, so it can manage all correspondence the platform
// initiates. SUB accounts never inherit: they are CREATOR only for tickets
// they personally raised.
func (r *RoleResolver) Resolve(actor domain.Actor, ticket *domain.Ticket) domain.TicketRole {
	switch actor.Kind {
	case domain.ActorOperator:
		if ticket.CreatorEmail == r.operatorEmail {
			return domain.RoleCreator
		}
		return domain.RoleReceiver
	case domain.ActorMain:
		if ticket.CreatorEmail == r.operatorEmail || ticket.CreatorEmail == actor.Email {
			return domain.RoleCreator
		}
		return domain.RoleReceiver
	default:
		if ticket.CreatorEmail == actor.Email {
			return domain.RoleCreator
		}
		return domain.RoleReceiver
	}
}

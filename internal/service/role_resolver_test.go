package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/portal-core/internal/domain"
)

const testOperatorEmail = "admin@portal"

func TestRoleResolver(t *testing.T) {
	resolver := NewRoleResolver(testOperatorEmail)

	operatorTicket := &domain.Ticket{CreatorEmail: testOperatorEmail}
	mainTicket := &domain.Ticket{CreatorEmail: "owner@acme.test"}
	subTicket := &domain.Ticket{CreatorEmail: "sub@acme.test"}
	strangerTicket := &domain.Ticket{CreatorEmail: "other@corp.test"}

	operator := domain.OperatorActor("Platform Admin")
	mainActor := domain.Actor{Kind: domain.ActorMain, Email: "owner@acme.test", Label: "Acme Owner"}
	subActor := domain.Actor{Kind: domain.ActorSub, Email: "sub@acme.test", Label: "Acme Sub"}

	tests := []struct {
		name   string
		actor  domain.Actor
		ticket *domain.Ticket
		want   domain.TicketRole
	}{
		{"operator owns its own tickets", operator, operatorTicket, domain.RoleCreator},
		{"operator receives tenant tickets", operator, mainTicket, domain.RoleReceiver},
		{"main owns own ticket", mainActor, mainTicket, domain.RoleCreator},
		{"main inherits operator-origin ticket", mainActor, operatorTicket, domain.RoleCreator},
		{"main receives stranger ticket", mainActor, strangerTicket, domain.RoleReceiver},
		{"main receives its sub's ticket", mainActor, subTicket, domain.RoleReceiver},
		{"sub owns own ticket", subActor, subTicket, domain.RoleCreator},
		{"sub never inherits operator-origin ticket", subActor, operatorTicket, domain.RoleReceiver},
		{"sub receives main's ticket", subActor, mainTicket, domain.RoleReceiver},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, resolver.Resolve(tc.actor, tc.ticket))
		})
	}
}

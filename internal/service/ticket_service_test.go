package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/portal-core/internal/domain"
	"github.com/spec-kit/portal-core/pkg/util"
)

func newTestTicketService() (*TicketService, *fakeTicketRepo, *fakeHistoryRepo) {
	history := newFakeHistoryRepo()
	tickets := newFakeTicketRepo(history)
	svc := NewTicketService(TicketDependencies{
		TicketRepo:  tickets,
		HistoryRepo: history,
		Resolver:    NewRoleResolver(testOperatorEmail),
	})
	return svc, tickets, history
}

func mainTestActor() domain.Actor {
	return domain.Actor{Kind: domain.ActorMain, Email: "owner@acme.test", Label: "Acme Owner"}
}

func TestCreateTicketStartsPending(t *testing.T) {
	svc, _, _ := newTestTicketService()

	ticket, err := svc.CreateTicket(context.Background(), mainTestActor(), TicketCreateInput{
		Subject:    "Shipment stuck in customs",
		Message:    "Container has been held for a week.",
		PartyName:  "Platform",
		PartyType:  domain.PartyTypeAdmin,
		ToOperator: true,
	})
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusPending, ticket.Status)
	require.Equal(t, "owner@acme.test", ticket.CreatorEmail)
	require.Len(t, ticket.History, 1)
	require.Contains(t, ticket.TicketNo, "TKT-")
}

func TestCreateTicketWritesOpeningEntryWithTicket(t *testing.T) {
	svc, _, history := newTestTicketService()
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, mainTestActor(), TicketCreateInput{
		Subject: "Missing manifest", Message: "No manifest on file.", ToOperator: true,
	})
	require.NoError(t, err)

	// The opening entry is persisted by the same repository call that
	// stores the ticket, with its sequence already assigned.
	entries, err := history.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, ticket.ID, entries[0].TicketID)
	require.Contains(t, entries[0].Action, "opened: Missing manifest")
	require.NotZero(t, entries[0].Seq)
}

func TestSubmitResponsePingPong(t *testing.T) {
	svc, _, _ := newTestTicketService()
	ctx := context.Background()

	creator := mainTestActor()
	receiver := domain.OperatorActor("Platform Admin")

	ticket, err := svc.CreateTicket(ctx, creator, TicketCreateInput{
		Subject: "Invoice question", Message: "Please clarify line 3.", ToOperator: true,
	})
	require.NoError(t, err)

	// Creator may not answer while the ticket is pending.
	_, err = svc.SubmitResponse(ctx, ticket.ID, creator, "bump", nil)
	require.Error(t, err)
	require.True(t, util.IsCode(err, util.CodeNotAuthorizedForTransition))

	// Receiver answers; status flips to RESOLVED with one new entry.
	updated, err := svc.SubmitResponse(ctx, ticket.ID, receiver, "Line 3 is the fuel surcharge.", nil)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusResolved, updated.Status)
	require.Len(t, updated.History, 2)

	// Receiver may not answer again while resolved.
	_, err = svc.SubmitResponse(ctx, ticket.ID, receiver, "also...", nil)
	require.Error(t, err)
	require.True(t, util.IsCode(err, util.CodeNotAuthorizedForTransition))

	// Creator re-opens; status flips back to PENDING.
	reopened, err := svc.SubmitResponse(ctx, ticket.ID, creator, "That does not match the contract.", nil)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusPending, reopened.Status)
	require.Len(t, reopened.History, 3)

	// History is append-only and ordered.
	for i := 1; i < len(reopened.History); i++ {
		require.Greater(t, reopened.History[i].Seq, reopened.History[i-1].Seq)
	}
}

func TestSubmitResponseAppendsExactlyOneEntry(t *testing.T) {
	svc, _, history := newTestTicketService()
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, mainTestActor(), TicketCreateInput{
		Subject: "Question", Message: "?", ToOperator: true,
	})
	require.NoError(t, err)

	before, err := history.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)

	_, err = svc.SubmitResponse(ctx, ticket.ID, domain.OperatorActor("Platform Admin"), "Answer.", nil)
	require.NoError(t, err)

	after, err := history.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Equal(t, len(before)+1, len(after))
}

func TestSubmitResponseAttachment(t *testing.T) {
	svc, _, _ := newTestTicketService()
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, mainTestActor(), TicketCreateInput{
		Subject: "Docs", Message: "See attached.", ToOperator: true,
	})
	require.NoError(t, err)

	receiver := domain.OperatorActor("Platform Admin")

	// Disallowed attachments are refused even for the right party.
	_, err = svc.SubmitResponse(ctx, ticket.ID, receiver, "Here you go", &AttachmentInput{
		FileName: "invoice.pdf", Permitted: false,
	})
	require.Error(t, err)
	require.True(t, util.IsCode(err, util.CodeAttachmentNotPermitted))

	updated, err := svc.SubmitResponse(ctx, ticket.ID, receiver, "Here you go", &AttachmentInput{
		FileName: "invoice.pdf", Permitted: true,
	})
	require.NoError(t, err)
	last := updated.History[len(updated.History)-1]
	require.Contains(t, last.Action, "[attachment: invoice.pdf]")
}

func TestSubmitResponseConflictOnConcurrentFlip(t *testing.T) {
	svc, tickets, _ := newTestTicketService()
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, mainTestActor(), TicketCreateInput{
		Subject: "Race", Message: "go", ToOperator: true,
	})
	require.NoError(t, err)

	// Two responders read the same version; the second write must not
	// silently apply a stale decision.
	first, err := tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	second, err := tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)

	first.Status = first.Status.Opposite()
	require.NoError(t, tickets.SaveResponse(ctx, first, &domain.HistoryEntry{TicketID: first.ID, ActorLabel: "a", Action: "answered"}))

	second.Status = second.Status.Opposite()
	err = tickets.SaveResponse(ctx, second, &domain.HistoryEntry{TicketID: second.ID, ActorLabel: "b", Action: "answered"})
	require.Error(t, err)
	require.True(t, util.IsCode(err, util.CodeConflict))
}

func TestListTicketsFilter(t *testing.T) {
	svc, _, _ := newTestTicketService()
	ctx := context.Background()

	_, err := svc.CreateTicket(ctx, mainTestActor(), TicketCreateInput{
		Subject: "Customs delay", Message: "stuck", ToOperator: true,
	})
	require.NoError(t, err)
	second, err := svc.CreateTicket(ctx, mainTestActor(), TicketCreateInput{
		Subject: "Billing", Message: "overcharged", ToOperator: true,
	})
	require.NoError(t, err)

	_, err = svc.SubmitResponse(ctx, second.ID, domain.OperatorActor("Platform Admin"), "fixed", nil)
	require.NoError(t, err)

	query := "customs"
	byText, err := svc.ListTickets(ctx, TicketListFilter{TextQuery: &query})
	require.NoError(t, err)
	require.Len(t, byText, 1)
	require.Equal(t, "Customs delay", byText[0].Subject)

	resolved := domain.TicketStatusResolved
	byStatus, err := svc.ListTickets(ctx, TicketListFilter{Status: &resolved})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	require.Equal(t, "Billing", byStatus[0].Subject)
}

func TestGetTicketUnknownFailsClosed(t *testing.T) {
	svc, _, _ := newTestTicketService()

	_, err := svc.GetTicket(context.Background(), "missing")
	require.Error(t, err)
	require.True(t, util.IsCode(err, util.CodeTicketNotFound))
}

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/portal-core/internal/catalog"
	"github.com/spec-kit/portal-core/internal/domain"
	"github.com/spec-kit/portal-core/pkg/util"
)

func newTestGate(t *testing.T) *PermissionService {
	t.Helper()
	store, err := catalog.NewStoreWithCatalog(domain.DefaultPlanCatalog())
	require.NoError(t, err)
	return NewPermissionService(store)
}

func activeAccount(plan domain.Plan) *domain.Account {
	return &domain.Account{
		Email:              "owner@acme.test",
		Kind:               domain.AccountKindMain,
		Plan:               plan,
		Status:             domain.AccountStatusActive,
		SubscriptionStatus: domain.SubscriptionActive,
		ExpiresAt:          time.Now().AddDate(0, 1, 0),
	}
}

func TestCheckSubUserLimitBoundary(t *testing.T) {
	gate := newTestGate(t)
	account := activeAccount(domain.PlanOffice) // max 5 sub-users

	err := gate.Check(account, domain.ActionCreateSubUser, domain.UsageSnapshot{SubUserCount: 4})
	require.NoError(t, err)

	err = gate.Check(account, domain.ActionCreateSubUser, domain.UsageSnapshot{SubUserCount: 5})
	require.Error(t, err)
	require.True(t, util.IsCode(err, util.CodeLimitExceeded))
}

func TestCheckDailyTransactionLimit(t *testing.T) {
	gate := newTestGate(t)
	account := activeAccount(domain.PlanFree) // max 10/day

	require.NoError(t, gate.Check(account, domain.ActionDailyTransaction, domain.UsageSnapshot{CountToday: 9}))

	err := gate.Check(account, domain.ActionDailyTransaction, domain.UsageSnapshot{CountToday: 10})
	require.Error(t, err)
	require.True(t, util.IsCode(err, util.CodeLimitExceeded))
}

func TestCheckUnlimitedTransactionsSentinel(t *testing.T) {
	gate := newTestGate(t)
	account := activeAccount(domain.PlanCorporate)

	require.NoError(t, gate.Check(account, domain.ActionDailyTransaction, domain.UsageSnapshot{CountToday: 1_000_000}))
}

func TestCheckFileUploadByPlan(t *testing.T) {
	gate := newTestGate(t)

	err := gate.Check(activeAccount(domain.PlanFree), domain.ActionAttachFile, domain.UsageSnapshot{})
	require.Error(t, err)
	require.True(t, util.IsCode(err, util.CodeAttachmentNotPermitted))

	require.NoError(t, gate.Check(activeAccount(domain.PlanOffice), domain.ActionAttachFile, domain.UsageSnapshot{}))
}

func TestCheckDeniesSuspendedAndExpired(t *testing.T) {
	gate := newTestGate(t)

	suspended := activeAccount(domain.PlanCorporate)
	suspended.Status = domain.AccountStatusSuspended
	err := gate.Check(suspended, domain.ActionDailyTransaction, domain.UsageSnapshot{})
	require.True(t, util.IsCode(err, util.CodeAccountSuspended))

	expired := activeAccount(domain.PlanCorporate)
	expired.SubscriptionStatus = domain.SubscriptionExpired
	err = gate.Check(expired, domain.ActionAttachFile, domain.UsageSnapshot{})
	require.True(t, util.IsCode(err, util.CodeAccountExpired))
}

func TestCheckNilAccountFailsClosed(t *testing.T) {
	gate := newTestGate(t)

	err := gate.Check(nil, domain.ActionCreateSubUser, domain.UsageSnapshot{})
	require.Error(t, err)
	require.True(t, util.IsCode(err, util.CodeAccountNotFound))
}

func TestCheckUnknownPlanFailsClosed(t *testing.T) {
	gate := newTestGate(t)
	account := activeAccount(domain.Plan("PLATINUM"))

	// Zero-value limits: no sub-users, no uploads, zero daily transactions.
	err := gate.Check(account, domain.ActionCreateSubUser, domain.UsageSnapshot{})
	require.True(t, util.IsCode(err, util.CodeLimitExceeded))

	err = gate.Check(account, domain.ActionAttachFile, domain.UsageSnapshot{})
	require.True(t, util.IsCode(err, util.CodeAttachmentNotPermitted))

	err = gate.Check(account, domain.ActionDailyTransaction, domain.UsageSnapshot{})
	require.True(t, util.IsCode(err, util.CodeLimitExceeded))
}

func TestCheckActorOperatorExempt(t *testing.T) {
	gate := newTestGate(t)
	operator := domain.OperatorActor("Platform Support")

	// Even against a FREE account at its limits the operator passes.
	account := activeAccount(domain.PlanFree)
	err := gate.CheckActor(operator, account, domain.ActionCreateSubUser, domain.UsageSnapshot{SubUserCount: 99})
	require.NoError(t, err)

	member := domain.AccountActor(account)
	err = gate.CheckActor(member, account, domain.ActionCreateSubUser, domain.UsageSnapshot{SubUserCount: 99})
	require.True(t, util.IsCode(err, util.CodeLimitExceeded))
}

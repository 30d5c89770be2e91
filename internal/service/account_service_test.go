package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/portal-core/internal/catalog"
	"github.com/spec-kit/portal-core/internal/domain"
	"github.com/spec-kit/portal-core/pkg/util"
)

func newTestAccountService(t *testing.T) (*AccountService, *SubscriptionService, *fakeAccountRepo) {
	t.Helper()
	repo := newFakeAccountRepo()
	store, err := catalog.NewStoreWithCatalog(domain.DefaultPlanCatalog())
	require.NoError(t, err)
	subscriptions := NewSubscriptionService(repo, nil, 30)
	accounts := NewAccountService(AccountDependencies{
		AccountRepo:  repo,
		Permissions:  NewPermissionService(store),
		Subscription: subscriptions,
		BcryptCost:   4,
	})
	return accounts, subscriptions, repo
}

func TestRegisterTrialAccount(t *testing.T) {
	accounts, _, _ := newTestAccountService(t)
	ctx := context.Background()

	account, err := accounts.RegisterTrialAccount(ctx, AccountProfile{
		Email:    "owner@acme.test",
		Name:     "Acme Logistics",
		Password: "s3cret!pw",
		Role:     domain.BusinessRoleShipper,
	})
	require.NoError(t, err)
	require.Equal(t, domain.AccountKindMain, account.Kind)
	require.Equal(t, domain.PlanFree, account.Plan)
	require.Equal(t, domain.SubscriptionActive, account.SubscriptionStatus)
	require.WithinDuration(t, time.Now().AddDate(0, 0, 30), account.ExpiresAt, time.Minute)
	require.NotEqual(t, "s3cret!pw", account.PasswordHash)

	_, err = accounts.RegisterTrialAccount(ctx, AccountProfile{
		Email:    "owner@acme.test",
		Name:     "Duplicate",
		Password: "other",
		Role:     domain.BusinessRoleShipper,
	})
	require.Error(t, err)
	require.True(t, util.IsCode(err, util.CodeValidationFailed))
}

func TestRegisterMixedCaseEmailRoundTrip(t *testing.T) {
	accounts, _, repo := newTestAccountService(t)
	ctx := context.Background()

	account, err := accounts.RegisterTrialAccount(ctx, AccountProfile{
		Email:    "Owner@Acme.test",
		Name:     "Acme Logistics",
		Password: "s3cret!pw",
		Role:     domain.BusinessRoleShipper,
	})
	require.NoError(t, err)
	require.Equal(t, "owner@acme.test", account.Email)

	// The account stays reachable under the email exactly as entered.
	found, err := accounts.GetByEmail(ctx, "Owner@Acme.test")
	require.NoError(t, err)
	require.Equal(t, account.ID, found.ID)

	found, err = accounts.GetByEmail(ctx, "  OWNER@ACME.TEST ")
	require.NoError(t, err)
	require.Equal(t, account.ID, found.ID)

	// A re-registration under different casing hits the typed duplicate
	// check, not the database unique constraint.
	_, err = accounts.RegisterTrialAccount(ctx, AccountProfile{
		Email:    "OWNER@acme.TEST",
		Name:     "Acme Again",
		Password: "other!pw",
		Role:     domain.BusinessRoleShipper,
	})
	require.Error(t, err)
	require.True(t, util.IsCode(err, util.CodeValidationFailed))

	stored, err := repo.GetByEmail(ctx, "owner@acme.test")
	require.NoError(t, err)
	require.Equal(t, account.ID, stored.ID)
}

func TestCreateSubUserEnforcesPlanLimit(t *testing.T) {
	accounts, _, _ := newTestAccountService(t)
	ctx := context.Background()

	owner, err := accounts.RegisterTrialAccount(ctx, AccountProfile{
		Email:    "owner@acme.test",
		Name:     "Acme Logistics",
		Password: "s3cret!pw",
		Role:     domain.BusinessRoleShipper,
	})
	require.NoError(t, err)

	// FREE allows exactly one sub-user.
	first, err := accounts.CreateSubUser(ctx, owner, AccountProfile{
		Email:    "ops@acme.test",
		Name:     "Ops Desk",
		Password: "s3cret!pw",
		Role:     domain.BusinessRoleShipper,
	})
	require.NoError(t, err)
	require.Equal(t, domain.AccountKindSub, first.Kind)

	_, err = accounts.CreateSubUser(ctx, owner, AccountProfile{
		Email:    "sales@acme.test",
		Name:     "Sales Desk",
		Password: "s3cret!pw",
		Role:     domain.BusinessRoleShipper,
	})
	require.Error(t, err)
	require.True(t, util.IsCode(err, util.CodeLimitExceeded))
}

func TestCreateSubUserSucceedsAfterUpgrade(t *testing.T) {
	accounts, subscriptions, repo := newTestAccountService(t)
	ctx := context.Background()

	owner, err := accounts.RegisterTrialAccount(ctx, AccountProfile{
		Email:    "owner@acme.test",
		Name:     "Acme Logistics",
		Password: "s3cret!pw",
		Role:     domain.BusinessRoleShipper,
	})
	require.NoError(t, err)

	_, err = accounts.CreateSubUser(ctx, owner, AccountProfile{
		Email:    "ops@acme.test",
		Name:     "Ops Desk",
		Password: "s3cret!pw",
		Role:     domain.BusinessRoleShipper,
	})
	require.NoError(t, err)

	_, err = accounts.CreateSubUser(ctx, owner, AccountProfile{
		Email:    "sales@acme.test",
		Name:     "Sales Desk",
		Password: "s3cret!pw",
		Role:     domain.BusinessRoleShipper,
	})
	require.True(t, util.IsCode(err, util.CodeLimitExceeded))

	_, err = subscriptions.ExtendOrChangePlan(ctx, owner.Email, domain.PlanOffice, 365)
	require.NoError(t, err)

	// The identical call passes once the plan allows more sub-users.
	owner, err = repo.GetByEmail(ctx, owner.Email)
	require.NoError(t, err)
	sub, err := accounts.CreateSubUser(ctx, owner, AccountProfile{
		Email:    "sales@acme.test",
		Name:     "Sales Desk",
		Password: "s3cret!pw",
		Role:     domain.BusinessRoleShipper,
	})
	require.NoError(t, err)
	require.Equal(t, domain.PlanOffice, sub.Plan)
}

func TestCreateSubUserMirrorsOwnerSubscription(t *testing.T) {
	accounts, subscriptions, repo := newTestAccountService(t)
	ctx := context.Background()

	owner, err := accounts.RegisterTrialAccount(ctx, AccountProfile{
		Email:    "owner@acme.test",
		Name:     "Acme Logistics",
		Password: "s3cret!pw",
		Role:     domain.BusinessRoleForwarder,
	})
	require.NoError(t, err)

	_, err = subscriptions.ExtendOrChangePlan(ctx, owner.Email, domain.PlanCorporate, 90)
	require.NoError(t, err)
	owner, err = repo.GetByEmail(ctx, owner.Email)
	require.NoError(t, err)

	sub, err := accounts.CreateSubUser(ctx, owner, AccountProfile{
		Email:    "ops@acme.test",
		Name:     "Ops Desk",
		Password: "s3cret!pw",
		Role:     domain.BusinessRoleForwarder,
	})
	require.NoError(t, err)
	require.Equal(t, owner.Plan, sub.Plan)
	require.Equal(t, owner.SubscriptionStatus, sub.SubscriptionStatus)
	require.Equal(t, owner.ExpiresAt, sub.ExpiresAt)
	require.NotNil(t, sub.OwnerEmail)
	require.Equal(t, owner.Email, *sub.OwnerEmail)
}

func TestEffectiveAccountResolvesOwner(t *testing.T) {
	accounts, _, _ := newTestAccountService(t)
	ctx := context.Background()

	owner, err := accounts.RegisterTrialAccount(ctx, AccountProfile{
		Email:    "owner@acme.test",
		Name:     "Acme Logistics",
		Password: "s3cret!pw",
		Role:     domain.BusinessRoleShipper,
	})
	require.NoError(t, err)

	sub, err := accounts.CreateSubUser(ctx, owner, AccountProfile{
		Email:    "ops@acme.test",
		Name:     "Ops Desk",
		Password: "s3cret!pw",
		Role:     domain.BusinessRoleShipper,
	})
	require.NoError(t, err)

	effective, err := accounts.EffectiveAccount(ctx, sub)
	require.NoError(t, err)
	require.Equal(t, owner.Email, effective.Email)
	require.True(t, effective.IsMain())

	effective, err = accounts.EffectiveAccount(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, owner.Email, effective.Email)
}

func TestAttachmentPermittedKeepsTypedDenials(t *testing.T) {
	accounts, _, repo := newTestAccountService(t)
	ctx := context.Background()

	owner, err := accounts.RegisterTrialAccount(ctx, AccountProfile{
		Email:    "owner@acme.test",
		Name:     "Acme Logistics",
		Password: "s3cret!pw",
		Role:     domain.BusinessRoleShipper,
	})
	require.NoError(t, err)

	// FREE lacks the feature: a plain refusal, not an error.
	permitted, err := accounts.AttachmentPermitted(ctx, owner)
	require.NoError(t, err)
	require.False(t, permitted)

	owner.Plan = domain.PlanOffice
	require.NoError(t, repo.Update(ctx, owner))
	permitted, err = accounts.AttachmentPermitted(ctx, owner)
	require.NoError(t, err)
	require.True(t, permitted)

	// Suspension and expiry surface their own denial codes.
	owner.Status = domain.AccountStatusSuspended
	require.NoError(t, repo.Update(ctx, owner))
	_, err = accounts.AttachmentPermitted(ctx, owner)
	require.True(t, util.IsCode(err, util.CodeAccountSuspended))

	owner.Status = domain.AccountStatusActive
	owner.SubscriptionStatus = domain.SubscriptionExpired
	require.NoError(t, repo.Update(ctx, owner))
	_, err = accounts.AttachmentPermitted(ctx, owner)
	require.True(t, util.IsCode(err, util.CodeAccountExpired))
}

func TestSetSuspendedToggle(t *testing.T) {
	accounts, _, repo := newTestAccountService(t)
	ctx := context.Background()

	_, err := accounts.RegisterTrialAccount(ctx, AccountProfile{
		Email:    "owner@acme.test",
		Name:     "Acme Logistics",
		Password: "s3cret!pw",
		Role:     domain.BusinessRoleShipper,
	})
	require.NoError(t, err)

	account, err := accounts.SetSuspended(ctx, "owner@acme.test", true)
	require.NoError(t, err)
	require.Equal(t, domain.AccountStatusSuspended, account.Status)

	stored, err := repo.GetByEmail(ctx, "owner@acme.test")
	require.NoError(t, err)
	require.Equal(t, domain.AccountStatusSuspended, stored.Status)

	account, err = accounts.SetSuspended(ctx, "owner@acme.test", false)
	require.NoError(t, err)
	require.Equal(t, domain.AccountStatusActive, account.Status)

	_, err = accounts.SetSuspended(ctx, "ghost@acme.test", true)
	require.True(t, util.IsCode(err, util.CodeAccountNotFound))
}

func TestListSubUsers(t *testing.T) {
	accounts, _, _ := newTestAccountService(t)
	ctx := context.Background()

	owner, err := accounts.RegisterTrialAccount(ctx, AccountProfile{
		Email:    "owner@acme.test",
		Name:     "Acme Logistics",
		Password: "s3cret!pw",
		Role:     domain.BusinessRoleShipper,
	})
	require.NoError(t, err)

	subs, err := accounts.ListSubUsers(ctx, owner)
	require.NoError(t, err)
	require.Empty(t, subs)

	_, err = accounts.CreateSubUser(ctx, owner, AccountProfile{
		Email:    "ops@acme.test",
		Name:     "Ops Desk",
		Password: "s3cret!pw",
		Role:     domain.BusinessRoleShipper,
	})
	require.NoError(t, err)

	subs, err = accounts.ListSubUsers(ctx, owner)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, "ops@acme.test", subs[0].Email)
}

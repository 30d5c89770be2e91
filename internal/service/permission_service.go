package service

import (
	"github.com/spec-kit/portal-core/internal/catalog"
	"github.com/spec-kit/portal-core/internal/domain"
	"github.com/spec-kit/portal-core/pkg/util"
)

// PermissionService is the cross-cutting gate consulted by every
// privileged operation. It reads the plan catalog and the usage snapshot
// but mutates nothing, so it can be called speculatively (e.g. to gray
// out a UI affordance). A nil result means Allow; a DomainError carries
// the typed Deny reason.
type PermissionService struct {
	catalog *catalog.Store
}

// NewPermissionService constructs the gate.
func NewPermissionService(store *catalog.Store) *PermissionService {
	return &PermissionService{catalog: store}
}

// CheckActor applies the gate for any acting identity. The platform
// operator is exempt from plan limits when acting administratively.
func (s *PermissionService) CheckActor(actor domain.Actor, account *domain.Account, action domain.PermissionAction, usage domain.UsageSnapshot) error {
	if actor.Kind == domain.ActorOperator {
		return nil
	}
	return s.Check(account, action, usage)
}

// Check decides whether the account may perform the action under its
// current plan. Missing data fails closed.
func (s *PermissionService) Check(account *domain.Account, action domain.PermissionAction, usage domain.UsageSnapshot) error {
	if account == nil {
		return util.NewAccountNotFound("")
	}
	if account.Status == domain.AccountStatusSuspended {
		return util.NewAccountSuspended()
	}
	if account.SubscriptionStatus == domain.SubscriptionExpired {
		return util.NewAccountExpired()
	}

	limits := s.catalog.Limits(account.Plan)

	switch action {
	case domain.ActionCreateSubUser:
		if usage.SubUserCount >= limits.MaxSubUsers {
			return util.NewLimitExceeded("sub-user limit reached", map[string]any{
				"max_sub_users": limits.MaxSubUsers,
				"current":       usage.SubUserCount,
			})
		}
	case domain.ActionAttachFile:
		if !limits.AllowFileUpload {
			return util.NewAttachmentNotPermitted()
		}
	case domain.ActionDailyTransaction:
		if limits.MaxDailyTransactions == domain.UnlimitedTransactions {
			return nil
		}
		if usage.CountToday >= limits.MaxDailyTransactions {
			return util.NewLimitExceeded("daily transaction limit reached", map[string]any{
				"max_daily_transactions": limits.MaxDailyTransactions,
				"count_today":            usage.CountToday,
			})
		}
	default:
		return util.NewValidationError("unknown permission action", map[string]any{"action": action})
	}
	return nil
}

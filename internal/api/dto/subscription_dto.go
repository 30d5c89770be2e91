package dto

import (
	"github.com/spec-kit/portal-core/internal/domain"
)

// ChangePlanRequest payload for plan changes and renewals.
type ChangePlanRequest struct {
	Email     string      `json:"email,omitempty"`
	Plan      domain.Plan `json:"plan"`
	DaysToAdd int         `json:"days_to_add"`
}

// PlanLimitsView mirrors a plan catalog entry.
type PlanLimitsView struct {
	MaxSubUsers          int  `json:"max_sub_users"`
	MaxDailyTransactions int  `json:"max_daily_transactions"`
	AllowFileUpload      bool `json:"allow_file_upload"`
}

// ReplaceCatalogRequest payload for the administrative catalog override.
type ReplaceCatalogRequest struct {
	Plans map[domain.Plan]PlanLimitsView `json:"plans"`
}

// SetTrialDaysRequest payload.
type SetTrialDaysRequest struct {
	Days int `json:"days"`
}

// SuspendRequest payload for the suspension toggle.
type SuspendRequest struct {
	Email     string `json:"email"`
	Suspended bool   `json:"suspended"`
}

// PermissionCheckRequest asks the gate about an action ahead of time.
type PermissionCheckRequest struct {
	Action domain.PermissionAction `json:"action"`
}

// ToCatalog converts the request body into a domain catalog.
func (r ReplaceCatalogRequest) ToCatalog() domain.PlanCatalog {
	out := make(domain.PlanCatalog, len(r.Plans))
	for plan, limits := range r.Plans {
		out[plan] = domain.PlanLimits{
			MaxSubUsers:          limits.MaxSubUsers,
			MaxDailyTransactions: limits.MaxDailyTransactions,
			AllowFileUpload:      limits.AllowFileUpload,
		}
	}
	return out
}

// NewCatalogView maps a domain catalog for responses.
func NewCatalogView(c domain.PlanCatalog) map[domain.Plan]PlanLimitsView {
	out := make(map[domain.Plan]PlanLimitsView, len(c))
	for plan, limits := range c {
		out[plan] = PlanLimitsView{
			MaxSubUsers:          limits.MaxSubUsers,
			MaxDailyTransactions: limits.MaxDailyTransactions,
			AllowFileUpload:      limits.AllowFileUpload,
		}
	}
	return out
}

package domain

// UnlimitedTransactions is the sentinel the Plan Catalog uses for tiers
// without a daily transaction cap.
const UnlimitedTransactions = -1

// PlanLimits captures the permissions a subscription tier grants.
type PlanLimits struct {
	MaxSubUsers          int
	MaxDailyTransactions int
	AllowFileUpload      bool
}

// PlanCatalog maps every subscription tier to its limits. The catalog is
// replaced atomically as a whole, never patched per entry.
type PlanCatalog map[Plan]PlanLimits

// PermissionAction enumerates the privileged actions the gate decides on.
type PermissionAction string

const (
	ActionCreateSubUser    PermissionAction = "CREATE_SUB_USER"
	ActionAttachFile       PermissionAction = "ATTACH_FILE_TO_TICKET"
	ActionDailyTransaction PermissionAction = "DAILY_TRANSACTION"
)

// UsageSnapshot carries the usage counters a gate decision depends on.
// Snapshots are read before the check so the gate itself stays pure.
type UsageSnapshot struct {
	SubUserCount int
	CountToday   int
}

// DefaultPlanCatalog returns the built-in tier limits, used when no
// override is configured.
func DefaultPlanCatalog() PlanCatalog {
	return PlanCatalog{
		PlanFree:      {MaxSubUsers: 1, MaxDailyTransactions: 10, AllowFileUpload: false},
		PlanOffice:    {MaxSubUsers: 5, MaxDailyTransactions: 100, AllowFileUpload: true},
		PlanCorporate: {MaxSubUsers: 25, MaxDailyTransactions: UnlimitedTransactions, AllowFileUpload: true},
	}
}

// ValidPlan reports whether p names a known tier.
func ValidPlan(p Plan) bool {
	switch p {
	case PlanFree, PlanOffice, PlanCorporate:
		return true
	}
	return false
}

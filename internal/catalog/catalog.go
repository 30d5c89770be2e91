// Package catalog holds the live Plan Catalog: the mapping from
// subscription tier to its permission limits. The catalog is immutable at
// runtime except through Replace, which swaps the whole mapping atomically.
package catalog

import (
	"sync/atomic"

	"github.com/spec-kit/portal-core/internal/config"
	"github.com/spec-kit/portal-core/internal/domain"
	"github.com/spec-kit/portal-core/pkg/util"
)

// Store serves plan limits to the permission gate.
type Store struct {
	current atomic.Value // domain.PlanCatalog
}

// NewStore seeds the store from configuration.
func NewStore(cfg config.PlansConfig) *Store {
	s := &Store{}
	s.current.Store(fromConfig(cfg))
	return s
}

// NewStoreWithCatalog seeds the store from an explicit catalog.
func NewStoreWithCatalog(c domain.PlanCatalog) (*Store, error) {
	if err := validate(c); err != nil {
		return nil, err
	}
	s := &Store{}
	s.current.Store(clone(c))
	return s, nil
}

// Limits returns the limits for a plan. Unknown plans fail closed: the
// zero-value limits permit nothing.
func (s *Store) Limits(plan domain.Plan) domain.PlanLimits {
	return s.Catalog()[plan]
}

// Catalog returns the current full catalog.
func (s *Store) Catalog() domain.PlanCatalog {
	return s.current.Load().(domain.PlanCatalog)
}

// Replace swaps the entire catalog in one step. Partial catalogs are
// rejected so a tier can never be left without limits.
func (s *Store) Replace(c domain.PlanCatalog) error {
	if err := validate(c); err != nil {
		return err
	}
	s.current.Store(clone(c))
	return nil
}

func validate(c domain.PlanCatalog) error {
	for _, plan := range []domain.Plan{domain.PlanFree, domain.PlanOffice, domain.PlanCorporate} {
		limits, ok := c[plan]
		if !ok {
			return util.NewValidationError("catalog missing plan", map[string]any{"plan": plan})
		}
		if limits.MaxSubUsers < 0 {
			return util.NewValidationError("negative sub-user limit", map[string]any{"plan": plan})
		}
		if limits.MaxDailyTransactions < domain.UnlimitedTransactions {
			return util.NewValidationError("invalid daily transaction limit", map[string]any{"plan": plan})
		}
	}
	return nil
}

func clone(c domain.PlanCatalog) domain.PlanCatalog {
	out := make(domain.PlanCatalog, len(c))
	for plan, limits := range c {
		out[plan] = limits
	}
	return out
}

func fromConfig(cfg config.PlansConfig) domain.PlanCatalog {
	return domain.PlanCatalog{
		domain.PlanFree: {
			MaxSubUsers:          cfg.FreeMaxSubUsers,
			MaxDailyTransactions: cfg.FreeMaxDailyTx,
			AllowFileUpload:      cfg.FreeAllowUpload,
		},
		domain.PlanOffice: {
			MaxSubUsers:          cfg.OfficeMaxSubUsers,
			MaxDailyTransactions: cfg.OfficeMaxDailyTx,
			AllowFileUpload:      cfg.OfficeAllowUpload,
		},
		domain.PlanCorporate: {
			MaxSubUsers:          cfg.CorporateMaxSubUsers,
			MaxDailyTransactions: cfg.CorporateMaxDailyTx,
			AllowFileUpload:      cfg.CorporateAllowUpload,
		},
	}
}

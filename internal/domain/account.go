package domain

import (
	"strings"
	"time"
)

// AccountKind separates tenant main logins from their sub-logins.
type AccountKind string

const (
	AccountKindMain AccountKind = "MAIN"
	AccountKindSub  AccountKind = "SUB"
)

// AccountStatus represents lifecycle states for an account.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
)

// BusinessRole is the tenant's declared business role on the platform.
type BusinessRole string

const (
	BusinessRoleShipper   BusinessRole = "SHIPPER"
	BusinessRoleForwarder BusinessRole = "FORWARDER"
	BusinessRoleAdmin     BusinessRole = "ADMIN"
)

// Plan enumerates subscription tiers.
type Plan string

const (
	PlanFree      Plan = "FREE"
	PlanOffice    Plan = "OFFICE"
	PlanCorporate Plan = "CORPORATE"
)

// SubscriptionStatus tracks whether the account's subscription is current.
type SubscriptionStatus string

const (
	SubscriptionActive  SubscriptionStatus = "ACTIVE"
	SubscriptionExpired SubscriptionStatus = "EXPIRED"
)

// Account is the domain model for tenant logins. A MAIN account owns
// zero or more SUB accounts; a SUB account's plan and subscription fields
// are a snapshot of its owner's taken at creation time, and the owning
// MAIN account's expiry stays authoritative.
type Account struct {
	ID                 string
	Email              string
	Name               string
	PasswordHash       string
	Kind               AccountKind
	OwnerEmail         *string
	Role               BusinessRole
	Plan               Plan
	Status             AccountStatus
	SubscriptionStatus SubscriptionStatus
	RegisteredAt       time.Time
	ExpiresAt          time.Time
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NormalizeEmail canonicalizes an email for storage and lookup. Accounts
// are keyed by email, so every lookup path must normalize the same way the
// write path does or mixed-case registrations become unreachable.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsMain reports whether the account is a tenant's primary login.
func (a *Account) IsMain() bool {
	return a.Kind == AccountKindMain
}

// OwnerKey returns the email of the MAIN account that owns this login:
// the account's own email for MAIN accounts, the owner's for SUB accounts.
func (a *Account) OwnerKey() string {
	if a.Kind == AccountKindSub && a.OwnerEmail != nil {
		return *a.OwnerEmail
	}
	return a.Email
}

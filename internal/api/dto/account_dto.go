package dto

import (
	"time"

	"github.com/spec-kit/portal-core/internal/domain"
)

// RegisterRequest payload for new main accounts.
type RegisterRequest struct {
	Name     string              `json:"name"`
	Email    string              `json:"email"`
	Password string              `json:"password"`
	Role     domain.BusinessRole `json:"role"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateSubUserRequest payload for sub-user creation.
type CreateSubUserRequest struct {
	Name     string              `json:"name"`
	Email    string              `json:"email"`
	Password string              `json:"password"`
	Role     domain.BusinessRole `json:"role"`
}

// AccountSummary is the API projection of an account.
type AccountSummary struct {
	ID                 string                    `json:"id"`
	Email              string                    `json:"email"`
	Name               string                    `json:"name"`
	Kind               domain.AccountKind        `json:"kind"`
	OwnerEmail         *string                   `json:"owner_email,omitempty"`
	Role               domain.BusinessRole       `json:"role"`
	Plan               domain.Plan               `json:"plan"`
	Status             domain.AccountStatus      `json:"status"`
	SubscriptionStatus domain.SubscriptionStatus `json:"subscription_status"`
	RegisteredAt       time.Time                 `json:"registered_at"`
	ExpiresAt          time.Time                 `json:"expires_at"`
}

// PasswordResetRequest payload.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// NewAccountSummary maps the domain model.
func NewAccountSummary(account *domain.Account) AccountSummary {
	return AccountSummary{
		ID:                 account.ID,
		Email:              account.Email,
		Name:               account.Name,
		Kind:               account.Kind,
		OwnerEmail:         account.OwnerEmail,
		Role:               account.Role,
		Plan:               account.Plan,
		Status:             account.Status,
		SubscriptionStatus: account.SubscriptionStatus,
		RegisteredAt:       account.RegisteredAt,
		ExpiresAt:          account.ExpiresAt,
	}
}

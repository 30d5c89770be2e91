package domain

import "time"

// SubjectType differentiates tenant account tokens from operator tokens.
type SubjectType string

const (
	SubjectTypeAccount  SubjectType = "ACCOUNT"
	SubjectTypeOperator SubjectType = "OPERATOR"
)

// Token represents issued authentication token metadata.
type Token struct {
	ID        string
	SubjectID string
	Subject   SubjectType
	ExpiresAt time.Time
	IssuedAt  time.Time
}

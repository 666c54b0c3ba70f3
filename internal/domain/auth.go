package domain

import "time"

// SubjectType differentiates the kinds of token holders.
type SubjectType string

const (
	SubjectTypeOperator SubjectType = "OPERATOR"
)

// Token represents issued authentication token metadata.
type Token struct {
	Value     string
	SubjectID string
	Subject   SubjectType
	ExpiresAt time.Time
	IssuedAt  time.Time
}

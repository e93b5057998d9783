package domain

import "time"

// VerificationPurpose scopes a code to the flow that requested it.
type VerificationPurpose string

const (
	VerificationPurposeEmail    VerificationPurpose = "email"
	VerificationPurposePassword VerificationPurpose = "password"
)

// VerificationCodeTTL is the validity window granted at issuance.
const VerificationCodeTTL = 10 * time.Minute

// VerificationCode is a time-limited one-time code. At most one active
// code exists per email; issuing a new one supersedes prior codes.
type VerificationCode struct {
	ID        string
	Email     string
	Code      string
	Purpose   VerificationPurpose
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the code is past its validity window at now.
func (c *VerificationCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

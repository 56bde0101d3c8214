package domain

import "time"

// VerificationRecord is the outstanding email verification code for an address.
type VerificationRecord struct {
	Email     string
	Code      string
	ExpiresAt time.Time
}

// ExpiredAt reports whether the code can no longer be accepted at now.
func (r VerificationRecord) ExpiredAt(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

package models

import "time"

// OTPToken is a pending email one-time-passcode challenge. The code itself
// is only stored as a bcrypt hash. One pending challenge exists per account;
// re-sending replaces it.
type OTPToken struct {
	AccountID string
	Email     string
	CodeHash  []byte
	Expires   time.Time
	CreatedAt time.Time
}

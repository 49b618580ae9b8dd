// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is the application-level user record. AccountID links it to the
// identity layer (sessions, OTP challenges); exactly one User exists per
// account.
type User struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	AvatarURL string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
}

// AccountIdentity is the verified identity derived from a session token.
// It is ephemeral: resolved per request, never stored.
type AccountIdentity struct {
	AccountID string
	Email     string
}

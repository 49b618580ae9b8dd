package models

import "time"

// Session is a server-side login session. Deleting the row invalidates the
// session regardless of the cookie the client still holds.
type Session struct {
	ID        string
	AccountID string
	CreatedAt time.Time
	Expires   time.Time
}

package models

import "time"

// File describes metadata for one stored file. The bytes themselves live in
// object storage under BlobRef; the record and the blob are created and
// destroyed together.
type File struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Extension string `json:"extension"`
	// Type is the coarse category: image, document, video, audio or other.
	Type string `json:"type"`
	Size int64  `json:"size"`

	// OwnerID references the owning user record; OwnerAccountID is the
	// canonical ownership key used by authorization checks.
	OwnerID        string `json:"ownerId"`
	OwnerAccountID string `json:"ownerAccountId"`

	// SharedEmails lists accounts the file is shared with. It never contains
	// the owner's own email; the write path enforces that.
	SharedEmails []string `json:"sharedEmails"`

	BlobRef   string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SharedWith reports whether the file is shared with the given email.
func (f *File) SharedWith(email string) bool {
	for _, e := range f.SharedEmails {
		if e == email {
			return true
		}
	}
	return false
}

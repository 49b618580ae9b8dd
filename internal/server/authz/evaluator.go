// Package authz decides whether a user may perform an operation on a file.
// It is the single authorization authority: every handler and service asks
// CanPerform before touching a record, and client-side filtering of visible
// actions is never trusted.
package authz

import "github.com/bloomdrive/bloomdrive/internal/server/models"

// Action is a file operation subject to authorization.
type Action string

const (
	ActionView     Action = "view"
	ActionDownload Action = "download"
	ActionRename   Action = "rename"
	ActionShare    Action = "share"
	ActionUnshare  Action = "unshare"
	ActionDelete   Action = "delete"
	ActionLeave    Action = "leave"
)

// CanPerform reports whether user may perform action on file.
//
// Ownership is decided solely by comparing the file's owner_account_id
// against the user's account id. No other field participates: the owner
// object, denormalized ids and similar shortcuts have all been eliminated
// so there is exactly one comparison basis.
//
// Rules:
//
//	view, download    owner or shared
//	rename, delete    owner only
//	share, unshare    owner only (the owner manages the share list)
//	leave             shared non-owner only
func CanPerform(user *models.User, file *models.File, action Action) bool {
	if user == nil || file == nil {
		return false
	}

	isOwner := file.OwnerAccountID == user.AccountID
	isShared := file.SharedWith(user.Email)

	switch action {
	case ActionView, ActionDownload:
		return isOwner || isShared
	case ActionRename, ActionDelete, ActionShare, ActionUnshare:
		return isOwner
	case ActionLeave:
		return isShared && !isOwner
	default:
		return false
	}
}

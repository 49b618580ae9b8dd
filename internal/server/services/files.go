// This file implements FileService: upload, listing, rename, sharing,
// leaving, deletion and the storage usage summary. Every per-file operation
// funnels through the authz evaluator before touching the record.
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bloomdrive/bloomdrive/internal/common"
	"github.com/bloomdrive/bloomdrive/internal/filetype"
	"github.com/bloomdrive/bloomdrive/internal/logging"
	"github.com/bloomdrive/bloomdrive/internal/server/authz"
	"github.com/bloomdrive/bloomdrive/internal/server/blob"
	"github.com/bloomdrive/bloomdrive/internal/server/listcache"
	"github.com/bloomdrive/bloomdrive/internal/server/models"
	"github.com/bloomdrive/bloomdrive/internal/server/repositories/files"
	"github.com/bloomdrive/bloomdrive/internal/server/repositories/repomanager"
)

// MaxTotalBytes caps the total size of files a single account may own.
const MaxTotalBytes int64 = 2 * 1024 * 1024 * 1024

// FileService owns file records and the blobs behind them. Record writes go
// to Postgres, bytes to the blob store, listings through the cache.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blob.Store
	cache       listcache.Cache
	cacheTTL    time.Duration
	log         logging.Logger
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, blobs blob.Store, cache listcache.Cache, cacheTTL time.Duration, log logging.Logger) *FileService {
	return &FileService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		cache:       cache,
		cacheTTL:    cacheTTL,
		log:         log.With("service", "files"),
	}
}

// Upload stores the bytes first and only then creates the record, so a
// half-finished upload leaves an orphaned blob rather than a record pointing
// at nothing. If the record insert fails, the blob is removed again.
func (s *FileService) Upload(ctx context.Context, user *models.User, fileName string, data []byte) (*models.File, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, fmt.Errorf("file name is required: %w", common.ErrorValidation)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("file is empty: %w", common.ErrorValidation)
	}

	used, err := s.ownedBytes(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if used+int64(len(data)) > MaxTotalBytes {
		return nil, fmt.Errorf("storage limit reached: %w", common.ErrorValidation)
	}

	kind, ext := filetype.Detect(fileName)
	key := blob.RandomKey()

	if err := common.RetryTransient(ctx, func(ctx context.Context) error {
		return s.blobs.Put(ctx, key, data, filetype.ContentType(ext))
	}); err != nil {
		return nil, fmt.Errorf("error storing blob: %w", err)
	}

	file := &models.File{
		Name:           fileName,
		Extension:      ext,
		Type:           string(kind),
		Size:           int64(len(data)),
		OwnerID:        user.ID,
		OwnerAccountID: user.AccountID,
		SharedEmails:   []string{},
		BlobRef:        key,
	}

	created, err := s.repomanager.Files(s.db).Create(ctx, file)
	if err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			s.log.Error(ctx, "orphaned blob after failed record insert", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("error creating file record: %w", err)
	}

	s.invalidateListings(ctx, created, user.Email)
	return created, nil
}

// Open authorizes action (view or download) and returns the record together
// with the stored bytes.
func (s *FileService) Open(ctx context.Context, user *models.User, fileID string, action authz.Action) (*models.File, []byte, error) {
	file, err := s.getAuthorized(ctx, user, fileID, action)
	if err != nil {
		return nil, nil, err
	}

	var data []byte
	if err := common.RetryTransient(ctx, func(ctx context.Context) error {
		var err error
		data, err = s.blobs.Get(ctx, file.BlobRef)
		return err
	}); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, fmt.Errorf("blob missing for file %s: %w", fileID, common.ErrorInternal)
		}
		return nil, nil, fmt.Errorf("error reading blob: %w", err)
	}

	return file, data, nil
}

// Stat authorizes action and returns the record alone, for handlers that
// only need metadata.
func (s *FileService) Stat(ctx context.Context, user *models.User, fileID string, action authz.Action) (*models.File, error) {
	return s.getAuthorized(ctx, user, fileID, action)
}

// Rename changes the display name, keeping the extension canonical: a new
// name that already ends in the extension is not doubled up.
func (s *FileService) Rename(ctx context.Context, user *models.User, fileID, newName string) (*models.File, error) {
	file, err := s.getAuthorized(ctx, user, fileID, authz.ActionRename)
	if err != nil {
		return nil, err
	}

	base := filetype.CleanBaseName(newName, file.Extension)
	if base == "" {
		return nil, fmt.Errorf("file name is required: %w", common.ErrorValidation)
	}
	full := base
	if file.Extension != "" {
		full = base + "." + file.Extension
	}

	if err := s.repomanager.Files(s.db).UpdateName(ctx, fileID, full); err != nil {
		return nil, fmt.Errorf("error renaming file: %w", err)
	}

	file.Name = full
	s.invalidateListings(ctx, file, user.Email)
	return file, nil
}

// Share grants the given emails access to the file. Only the owner may
// share. Grants are additive; sharing with someone twice is a conflict, and
// sharing with the owner's own address is rejected.
func (s *FileService) Share(ctx context.Context, user *models.User, fileID string, emails []string) (*models.File, error) {
	file, err := s.getAuthorized(ctx, user, fileID, authz.ActionShare)
	if err != nil {
		return nil, err
	}

	merged := append([]string{}, file.SharedEmails...)
	seen := make(map[string]struct{}, len(merged))
	for _, e := range merged {
		seen[e] = struct{}{}
	}
	for _, raw := range emails {
		email, err := NormalizeEmail(raw)
		if err != nil {
			return nil, err
		}
		if email == user.Email {
			return nil, fmt.Errorf("cannot share a file with its owner: %w", common.ErrorValidation)
		}
		// Checked against seen rather than the stored list so that the same
		// address repeated within one request is also a conflict.
		if _, dup := seen[email]; dup {
			return nil, fmt.Errorf("already shared with %s: %w", email, common.ErrorConflict)
		}
		seen[email] = struct{}{}
		merged = append(merged, email)
	}

	if err := s.repomanager.Files(s.db).UpdateSharedEmails(ctx, fileID, merged); err != nil {
		return nil, fmt.Errorf("error updating share list: %w", err)
	}

	file.SharedEmails = merged
	s.invalidateListings(ctx, file, user.Email)
	return file, nil
}

// Unshare revokes access for the given emails. Emails not currently on the
// share list are ignored.
func (s *FileService) Unshare(ctx context.Context, user *models.User, fileID string, emails []string) (*models.File, error) {
	file, err := s.getAuthorized(ctx, user, fileID, authz.ActionUnshare)
	if err != nil {
		return nil, err
	}

	remove := make(map[string]struct{}, len(emails))
	for _, raw := range emails {
		remove[strings.ToLower(strings.TrimSpace(raw))] = struct{}{}
	}

	kept := make([]string, 0, len(file.SharedEmails))
	for _, e := range file.SharedEmails {
		if _, drop := remove[e]; !drop {
			kept = append(kept, e)
		}
	}

	if err := s.repomanager.Files(s.db).UpdateSharedEmails(ctx, fileID, kept); err != nil {
		return nil, fmt.Errorf("error updating share list: %w", err)
	}

	// Invalidate before shrinking the list so revoked users lose their
	// cached listings too.
	s.invalidateListings(ctx, file, user.Email)
	file.SharedEmails = kept
	return file, nil
}

// Leave removes the calling user from the file's share list. Owners cannot
// leave their own file; leaving a file the user is not on is a no-op.
func (s *FileService) Leave(ctx context.Context, user *models.User, fileID string) error {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error loading file: %w", err)
	}

	if file.OwnerAccountID == user.AccountID {
		return fmt.Errorf("owner cannot leave own file: %w", common.ErrorForbidden)
	}
	if !file.SharedWith(user.Email) {
		return nil
	}

	kept := make([]string, 0, len(file.SharedEmails)-1)
	for _, e := range file.SharedEmails {
		if e != user.Email {
			kept = append(kept, e)
		}
	}

	if err := s.repomanager.Files(s.db).UpdateSharedEmails(ctx, fileID, kept); err != nil {
		return fmt.Errorf("error updating share list: %w", err)
	}

	s.invalidateListings(ctx, file, user.Email)
	return nil
}

// Delete removes the record first and the blob after, so a failure between
// the two leaves an orphaned blob rather than a listed file with no bytes.
// Delete is idempotent: an id with no record succeeds as a no-op, so a
// retried delete never surfaces an error. Blob deletion failures are logged,
// not surfaced: the user-visible deletion already happened.
func (s *FileService) Delete(ctx context.Context, user *models.User, fileID string) error {
	file, err := s.getAuthorized(ctx, user, fileID, authz.ActionDelete)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return err
	}

	existed, err := s.repomanager.Files(s.db).Delete(ctx, fileID)
	if err != nil {
		return fmt.Errorf("error deleting file record: %w", err)
	}

	if existed {
		if err := common.RetryTransient(ctx, func(ctx context.Context) error {
			return s.blobs.Delete(ctx, file.BlobRef)
		}); err != nil {
			s.log.Error(ctx, "orphaned blob after record delete", "key", file.BlobRef, "error", err)
		}
	}

	s.invalidateListings(ctx, file, user.Email)
	return nil
}

// List returns the files visible to the user: owned plus shared with their
// email. Results are cached per user and query; cache failures fall through
// to the database.
func (s *FileService) List(ctx context.Context, user *models.User, opts files.ListOptions) ([]*models.File, error) {
	key := listcache.ListKey(user.Email, listFingerprint(opts))

	if cached, err := s.cache.Get(ctx, key); err == nil {
		var result []*models.File
		if err := json.Unmarshal(cached, &result); err == nil {
			return result, nil
		}
	} else if !errors.Is(err, listcache.ErrCacheMiss) {
		s.log.Warn(ctx, "list cache read failed", "error", err)
	}

	var result []*models.File
	if err := common.RetryTransient(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.repomanager.Files(s.db).ListVisible(ctx, user.ID, user.Email, opts)
		return err
	}); err != nil {
		return nil, fmt.Errorf("error listing files: %w", err)
	}

	if encoded, err := json.Marshal(result); err == nil {
		if err := s.cache.Set(ctx, key, encoded, s.cacheTTL); err != nil {
			s.log.Warn(ctx, "list cache write failed", "error", err)
		}
	}

	return result, nil
}

// UsageTypeSummary aggregates one file category.
type UsageTypeSummary struct {
	Size       int64     `json:"size"`
	LatestDate time.Time `json:"latestDate"`
}

// UsageSummary is the dashboard storage breakdown. Used counts bytes owned
// by the account; All is the fixed quota.
type UsageSummary struct {
	Image    UsageTypeSummary `json:"image"`
	Document UsageTypeSummary `json:"document"`
	Video    UsageTypeSummary `json:"video"`
	Audio    UsageTypeSummary `json:"audio"`
	Other    UsageTypeSummary `json:"other"`
	Used     int64            `json:"used"`
	All      int64            `json:"all"`
}

// Usage sums the user's owned files per category. Shared-in files do not
// count against the owner of the dashboard.
func (s *FileService) Usage(ctx context.Context, user *models.User) (*UsageSummary, error) {
	owned, err := s.repomanager.Files(s.db).ListOwned(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing owned files: %w", err)
	}

	summary := &UsageSummary{All: MaxTotalBytes}
	buckets := map[string]*UsageTypeSummary{
		string(filetype.Image):    &summary.Image,
		string(filetype.Document): &summary.Document,
		string(filetype.Video):    &summary.Video,
		string(filetype.Audio):    &summary.Audio,
		string(filetype.Other):    &summary.Other,
	}

	for _, f := range owned {
		bucket, ok := buckets[f.Type]
		if !ok {
			bucket = &summary.Other
		}
		bucket.Size += f.Size
		if f.UpdatedAt.After(bucket.LatestDate) {
			bucket.LatestDate = f.UpdatedAt
		}
		summary.Used += f.Size
	}

	return summary, nil
}

func (s *FileService) ownedBytes(ctx context.Context, ownerID string) (int64, error) {
	owned, err := s.repomanager.Files(s.db).ListOwned(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("error listing owned files: %w", err)
	}
	var total int64
	for _, f := range owned {
		total += f.Size
	}
	return total, nil
}

// getAuthorized loads the file and checks the action against the evaluator.
// A missing file is ErrorNotFound; a denied action is ErrorForbidden.
func (s *FileService) getAuthorized(ctx context.Context, user *models.User, fileID string, action authz.Action) (*models.File, error) {
	var file *models.File
	if err := common.RetryTransient(ctx, func(ctx context.Context) error {
		var err error
		file, err = s.repomanager.Files(s.db).GetByID(ctx, fileID)
		return err
	}); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading file: %w", err)
	}

	if !authz.CanPerform(user, file, action) {
		return nil, common.ErrorForbidden
	}
	return file, nil
}

// invalidateListings drops cached listings for everyone whose view of this
// file changed: the acting user, the owner and every share recipient.
func (s *FileService) invalidateListings(ctx context.Context, file *models.File, actorEmail string) {
	emails := append([]string{actorEmail}, file.SharedEmails...)

	if owner, err := s.repomanager.Users(s.db).GetByAccountID(ctx, file.OwnerAccountID); err == nil {
		emails = append(emails, owner.Email)
	}

	if err := s.cache.Invalidate(ctx, emails...); err != nil {
		s.log.Warn(ctx, "list cache invalidation failed", "error", err)
	}
}

func listFingerprint(opts files.ListOptions) string {
	return strings.Join(opts.Types, ",") + "|" + opts.Search + "|" + opts.Sort + "|" + strconv.Itoa(opts.Limit)
}

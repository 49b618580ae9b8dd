package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bloomdrive/bloomdrive/internal/common"
	"github.com/bloomdrive/bloomdrive/internal/dbx"
	"github.com/bloomdrive/bloomdrive/internal/logging"
	"github.com/bloomdrive/bloomdrive/internal/server/models"
	filesrepo "github.com/bloomdrive/bloomdrive/internal/server/repositories/files"
	otptokensrepo "github.com/bloomdrive/bloomdrive/internal/server/repositories/otptokens"
	sessionsrepo "github.com/bloomdrive/bloomdrive/internal/server/repositories/sessions"
	usersrepo "github.com/bloomdrive/bloomdrive/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newTestLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// --- in-memory repositories ---

type memUsersRepo struct {
	users  []*models.User
	nextID int
	err    error
}

func (r *memUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.nextID++
	copied := *u
	copied.ID = strconv.Itoa(r.nextID)
	copied.CreatedAt = time.Now()
	r.users = append(r.users, &copied)
	return &copied, nil
}

func (r *memUsersRepo) GetByAccountID(ctx context.Context, accountID string) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.AccountID == accountID {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

type memFilesRepo struct {
	files  map[string]*models.File
	nextID int
	err    error
}

func newMemFilesRepo() *memFilesRepo {
	return &memFilesRepo{files: map[string]*models.File{}}
}

func (r *memFilesRepo) Create(ctx context.Context, f *models.File) (*models.File, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.nextID++
	copied := *f
	copied.ID = strconv.Itoa(r.nextID)
	copied.CreatedAt = time.Now()
	copied.UpdatedAt = copied.CreatedAt
	r.files[copied.ID] = &copied
	return &copied, nil
}

func (r *memFilesRepo) GetByID(ctx context.Context, id string) (*models.File, error) {
	if r.err != nil {
		return nil, r.err
	}
	f, ok := r.files[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *f
	return &copied, nil
}

func (r *memFilesRepo) UpdateName(ctx context.Context, id string, name string) error {
	if r.err != nil {
		return r.err
	}
	f, ok := r.files[id]
	if !ok {
		return common.ErrorNotFound
	}
	f.Name = name
	f.UpdatedAt = time.Now()
	return nil
}

func (r *memFilesRepo) UpdateSharedEmails(ctx context.Context, id string, emails []string) error {
	if r.err != nil {
		return r.err
	}
	f, ok := r.files[id]
	if !ok {
		return common.ErrorNotFound
	}
	f.SharedEmails = emails
	f.UpdatedAt = time.Now()
	return nil
}

func (r *memFilesRepo) Delete(ctx context.Context, id string) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.files[id]
	delete(r.files, id)
	return ok, nil
}

func (r *memFilesRepo) ListVisible(ctx context.Context, ownerID string, email string, opts filesrepo.ListOptions) ([]*models.File, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*models.File
	for _, f := range r.files {
		if f.OwnerID != ownerID && !f.SharedWith(email) {
			continue
		}
		if len(opts.Types) > 0 {
			matched := false
			for _, t := range opts.Types {
				if f.Type == t {
					matched = true
				}
			}
			if !matched {
				continue
			}
		}
		if opts.Search != "" && !strings.Contains(strings.ToLower(f.Name), strings.ToLower(opts.Search)) {
			continue
		}
		copied := *f
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memFilesRepo) ListOwned(ctx context.Context, ownerID string) ([]*models.File, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*models.File
	for _, f := range r.files {
		if f.OwnerID == ownerID {
			copied := *f
			out = append(out, &copied)
		}
	}
	return out, nil
}

type memSessionsRepo struct {
	sessions map[string]*models.Session
	err      error
}

func newMemSessionsRepo() *memSessionsRepo {
	return &memSessionsRepo{sessions: map[string]*models.Session{}}
}

func (r *memSessionsRepo) Create(ctx context.Context, id string, accountID string, validity time.Duration) error {
	if r.err != nil {
		return r.err
	}
	r.sessions[id] = &models.Session{
		ID:        id,
		AccountID: accountID,
		CreatedAt: time.Now(),
		Expires:   time.Now().Add(validity),
	}
	return nil
}

func (r *memSessionsRepo) Find(ctx context.Context, id string) (*models.Session, error) {
	if r.err != nil {
		return nil, r.err
	}
	s, ok := r.sessions[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return s, nil
}

func (r *memSessionsRepo) Delete(ctx context.Context, id string) error {
	if r.err != nil {
		return r.err
	}
	delete(r.sessions, id)
	return nil
}

func (r *memSessionsRepo) DeleteForAccount(ctx context.Context, accountID string) error {
	if r.err != nil {
		return r.err
	}
	for id, s := range r.sessions {
		if s.AccountID == accountID {
			delete(r.sessions, id)
		}
	}
	return nil
}

type memOTPTokensRepo struct {
	tokens map[string]*models.OTPToken
	err    error
}

func newMemOTPTokensRepo() *memOTPTokensRepo {
	return &memOTPTokensRepo{tokens: map[string]*models.OTPToken{}}
}

func (r *memOTPTokensRepo) Replace(ctx context.Context, accountID string, email string, codeHash []byte, validity time.Duration) error {
	if r.err != nil {
		return r.err
	}
	r.tokens[accountID] = &models.OTPToken{
		AccountID: accountID,
		Email:     email,
		CodeHash:  codeHash,
		Expires:   time.Now().Add(validity),
		CreatedAt: time.Now(),
	}
	return nil
}

func (r *memOTPTokensRepo) Find(ctx context.Context, accountID string) (*models.OTPToken, error) {
	if r.err != nil {
		return nil, r.err
	}
	tok, ok := r.tokens[accountID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return tok, nil
}

func (r *memOTPTokensRepo) Delete(ctx context.Context, accountID string) error {
	if r.err != nil {
		return r.err
	}
	delete(r.tokens, accountID)
	return nil
}

// fakeRepoManager hands out the in-memory repositories regardless of the
// handle, so service code runs unchanged inside and outside transactions.
type fakeRepoManager struct {
	users    *memUsersRepo
	files    *memFilesRepo
	sessions *memSessionsRepo
	otps     *memOTPTokensRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:    &memUsersRepo{},
		files:    newMemFilesRepo(),
		sessions: newMemSessionsRepo(),
		otps:     newMemOTPTokensRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error   { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository            { return m.users }
func (m *fakeRepoManager) Files(dbx.DBTX) filesrepo.Repository            { return m.files }
func (m *fakeRepoManager) Sessions(dbx.DBTX) sessionsrepo.Repository      { return m.sessions }
func (m *fakeRepoManager) OTPTokens(dbx.DBTX) otptokensrepo.Repository    { return m.otps }

// --- fake blob store and mailer ---

type memBlobStore struct {
	blobs   map[string][]byte
	putErr  error
	getErr  error
	deleted []string
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: map[string][]byte{}}
}

func (s *memBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (s *memBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	data, ok := s.blobs[key]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", key, common.ErrorNotFound)
	}
	return data, nil
}

func (s *memBlobStore) Delete(ctx context.Context, key string) error {
	delete(s.blobs, key)
	s.deleted = append(s.deleted, key)
	return nil
}

type captureMailer struct {
	emails []string
	codes  []string
	err    error
}

func (m *captureMailer) SendOTP(ctx context.Context, email string, code string) error {
	if m.err != nil {
		return m.err
	}
	m.emails = append(m.emails, email)
	m.codes = append(m.codes, code)
	return nil
}

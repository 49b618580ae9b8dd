package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bloomdrive/bloomdrive/internal/common"
	"github.com/bloomdrive/bloomdrive/internal/logging"
	"github.com/bloomdrive/bloomdrive/internal/server/authz"
	"github.com/bloomdrive/bloomdrive/internal/server/config"
	"github.com/bloomdrive/bloomdrive/internal/server/models"
	filesrepo "github.com/bloomdrive/bloomdrive/internal/server/repositories/files"
	"github.com/bloomdrive/bloomdrive/internal/server/services"
)

const testCookie = "good-session-token"

// fakeIdentity authenticates any request presenting testCookie as the user
// it is configured with.
type fakeIdentity struct {
	user       *models.User
	resolveErr error

	signUpID  string
	signUpErr error
	signInID  string
	signInErr error

	verifySessionID string
	verifyCookie    string
	verifyErr       error

	loggedOut []string
}

func (f *fakeIdentity) SignUp(ctx context.Context, fullName, email string) (string, error) {
	return f.signUpID, f.signUpErr
}

func (f *fakeIdentity) SignIn(ctx context.Context, email string) (string, error) {
	return f.signInID, f.signInErr
}

func (f *fakeIdentity) VerifyOTP(ctx context.Context, accountID, code string) (string, string, error) {
	if f.verifyErr != nil {
		return "", "", f.verifyErr
	}
	return f.verifySessionID, f.verifyCookie, nil
}

func (f *fakeIdentity) Resolve(ctx context.Context, cookieValue string) (*models.AccountIdentity, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	if f.user == nil || cookieValue != testCookie {
		return nil, nil
	}
	return &models.AccountIdentity{AccountID: f.user.AccountID, Email: f.user.Email}, nil
}

func (f *fakeIdentity) CurrentUser(ctx context.Context, accountID string) (*models.User, error) {
	if f.user == nil || f.user.AccountID != accountID {
		return nil, common.ErrorNotFound
	}
	return f.user, nil
}

func (f *fakeIdentity) Logout(ctx context.Context, cookieValue string) {
	f.loggedOut = append(f.loggedOut, cookieValue)
}

// fakeFiles serves a single preset file and records mutations.
type fakeFiles struct {
	file *models.File
	data []byte

	uploadErr error
	openErr   error
	actionErr error

	deleted []string
	left    []string
}

func (f *fakeFiles) lookup(fileID string) (*models.File, error) {
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	if f.file == nil || f.file.ID != fileID {
		return nil, common.ErrorNotFound
	}
	return f.file, nil
}

func (f *fakeFiles) Upload(ctx context.Context, user *models.User, fileName string, data []byte) (*models.File, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.file = &models.File{
		ID: "up-1", Name: fileName, Size: int64(len(data)),
		OwnerID: user.ID, OwnerAccountID: user.AccountID,
		SharedEmails: []string{}, UpdatedAt: time.Now(),
	}
	f.data = data
	return f.file, nil
}

func (f *fakeFiles) Open(ctx context.Context, user *models.User, fileID string, action authz.Action) (*models.File, []byte, error) {
	if f.openErr != nil {
		return nil, nil, f.openErr
	}
	file, err := f.lookup(fileID)
	if err != nil {
		return nil, nil, err
	}
	return file, f.data, nil
}

func (f *fakeFiles) Rename(ctx context.Context, user *models.User, fileID, newName string) (*models.File, error) {
	file, err := f.lookup(fileID)
	if err != nil {
		return nil, err
	}
	file.Name = newName
	return file, nil
}

func (f *fakeFiles) Share(ctx context.Context, user *models.User, fileID string, emails []string) (*models.File, error) {
	file, err := f.lookup(fileID)
	if err != nil {
		return nil, err
	}
	file.SharedEmails = append(file.SharedEmails, emails...)
	return file, nil
}

func (f *fakeFiles) Unshare(ctx context.Context, user *models.User, fileID string, emails []string) (*models.File, error) {
	return f.lookup(fileID)
}

func (f *fakeFiles) Leave(ctx context.Context, user *models.User, fileID string) error {
	if _, err := f.lookup(fileID); err != nil {
		return err
	}
	f.left = append(f.left, fileID)
	return nil
}

func (f *fakeFiles) Delete(ctx context.Context, user *models.User, fileID string) error {
	if _, err := f.lookup(fileID); err != nil {
		// Deleting a missing record is a no-op, matching FileService.
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return err
	}
	f.deleted = append(f.deleted, fileID)
	return nil
}

func (f *fakeFiles) List(ctx context.Context, user *models.User, opts filesrepo.ListOptions) ([]*models.File, error) {
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	if f.file == nil {
		return nil, nil
	}
	return []*models.File{f.file}, nil
}

func (f *fakeFiles) Usage(ctx context.Context, user *models.User) (*services.UsageSummary, error) {
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	return &services.UsageSummary{Used: 42, All: services.MaxTotalBytes}, nil
}

// --- helpers ---

func testUser() *models.User {
	return &models.User{
		ID: "1", AccountID: "acc-1",
		Email: "ada@example.com", FullName: "Ada Lovelace",
	}
}

func newTestServer(t *testing.T, identity IdentityService, files FileService) *Server {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewServer(cfg, log, identity, files)
}

func doRequest(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func withSession(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: testCookie})
	return req
}

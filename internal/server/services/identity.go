// Package services contains server-side business logic. This file implements
// IdentityService: OTP sign-up and sign-in, session issuance, and resolving
// the session cookie to a verified identity on every request.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/bloomdrive/bloomdrive/internal/common"
	"github.com/bloomdrive/bloomdrive/internal/dbx"
	"github.com/bloomdrive/bloomdrive/internal/logging"
	"github.com/bloomdrive/bloomdrive/internal/server/auth"
	"github.com/bloomdrive/bloomdrive/internal/server/config"
	"github.com/bloomdrive/bloomdrive/internal/server/models"
	"github.com/bloomdrive/bloomdrive/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const otpCodeLength = 6

// IdentityService handles the passwordless login flow:
//   - SignUp / SignIn issue an email one-time passcode.
//   - VerifyOTP exchanges a correct passcode for a server-side session and a
//     signed cookie value.
//   - Resolve turns a cookie value into an AccountIdentity, or nil when the
//     request is simply unauthenticated.
type IdentityService struct {
	db                      *sql.DB
	repomanager             repomanager.RepositoryManager
	mailer                  Mailer
	log                     logging.Logger
	secretKey               []byte
	sessionValidityDuration time.Duration
	otpValidityDuration     time.Duration
}

func NewIdentityService(db *sql.DB, m repomanager.RepositoryManager, mailer Mailer, log logging.Logger, cfg *config.Config) *IdentityService {
	return &IdentityService{
		db:                      db,
		repomanager:             m,
		mailer:                  mailer,
		log:                     log.With("service", "identity"),
		secretKey:               []byte(cfg.SecretKey),
		sessionValidityDuration: cfg.SessionValidityDuration,
		otpValidityDuration:     cfg.OTPValidityDuration,
	}
}

// NormalizeEmail validates an email address and canonicalizes it to the
// lower-cased bare address, stripping any display name.
func NormalizeEmail(email string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return "", fmt.Errorf("invalid email %q: %w", email, common.ErrorValidation)
	}
	return strings.ToLower(addr.Address), nil
}

// SignUp registers a new account and emails it a passcode. If the email is
// already registered, no new account is created and the existing account just
// receives a passcode; sign-up then behaves exactly like sign-in.
func (s *IdentityService) SignUp(ctx context.Context, fullName, email string) (string, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return "", err
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return "", fmt.Errorf("full name is required: %w", common.ErrorValidation)
	}

	repo := s.repomanager.Users(s.db)

	existing, err := repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return "", fmt.Errorf("error searching user: %w", err)
	}
	if existing != nil {
		return existing.AccountID, s.issueOTP(ctx, existing.AccountID, email)
	}

	user := &models.User{
		AccountID: uuid.New().String(),
		Email:     email,
		FullName:  fullName,
	}
	if _, err := repo.Create(ctx, user); err != nil {
		return "", fmt.Errorf("error creating user: %w", err)
	}

	return user.AccountID, s.issueOTP(ctx, user.AccountID, email)
}

// SignIn emails a passcode to an existing account. Unknown emails return
// ErrorNotFound so the UI can steer the user to sign-up.
func (s *IdentityService) SignIn(ctx context.Context, email string) (string, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return "", err
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("error searching user: %w", err)
	}

	return user.AccountID, s.issueOTP(ctx, user.AccountID, email)
}

// issueOTP generates a fresh passcode, stores its bcrypt hash (displacing any
// previous pending code for the account) and hands the plaintext to the
// mailer. The plaintext is never persisted.
func (s *IdentityService) issueOTP(ctx context.Context, accountID, email string) error {
	code, err := common.MakeRandDigits(otpCodeLength)
	if err != nil {
		return fmt.Errorf("error generating code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error hashing code: %w", err)
	}

	if err := s.repomanager.OTPTokens(s.db).Replace(ctx, accountID, email, hash, s.otpValidityDuration); err != nil {
		return fmt.Errorf("error storing otp: %w", err)
	}

	if err := s.mailer.SendOTP(ctx, email, code); err != nil {
		return fmt.Errorf("error sending otp: %w", err)
	}
	return nil
}

// VerifyOTP checks the submitted passcode and, on success, atomically
// consumes the challenge and creates a session. It returns the session id
// and the signed value to put in the session cookie.
//
// Wrong, expired and missing codes all come back as ErrorUnauthenticated so
// the response does not reveal which case occurred.
func (s *IdentityService) VerifyOTP(ctx context.Context, accountID, code string) (string, string, error) {
	token, err := s.repomanager.OTPTokens(s.db).Find(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", "", common.ErrorUnauthenticated
		}
		return "", "", fmt.Errorf("error searching otp: %w", err)
	}

	if token.Expires.Before(time.Now()) {
		_ = s.repomanager.OTPTokens(s.db).Delete(ctx, accountID)
		return "", "", common.ErrorUnauthenticated
	}
	if bcrypt.CompareHashAndPassword(token.CodeHash, []byte(code)) != nil {
		return "", "", common.ErrorUnauthenticated
	}

	sessionID := uuid.New().String()
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.OTPTokens(tx).Delete(ctx, accountID); err != nil {
			return fmt.Errorf("error consuming otp: %w", err)
		}
		if err := s.repomanager.Sessions(tx).Create(ctx, sessionID, accountID, s.sessionValidityDuration); err != nil {
			return fmt.Errorf("error creating session: %w", err)
		}
		return nil
	}); err != nil {
		return "", "", err
	}

	cookieValue, err := auth.GenerateSessionToken(sessionID, s.secretKey, s.sessionValidityDuration)
	if err != nil {
		return "", "", fmt.Errorf("error signing session token: %w", err)
	}

	return sessionID, cookieValue, nil
}

// Resolve maps a session cookie value to the identity it proves.
//
// The return contract is deliberately narrow:
//   - (identity, nil): the session is valid.
//   - (nil, nil): the request is unauthenticated. Empty, malformed, expired
//     and revoked tokens all land here; none of them is an error.
//   - (nil, err): the backend failed. Callers must fail closed and must not
//     treat this as "logged out".
//
// Backend lookups go through the shared transient retry policy.
func (s *IdentityService) Resolve(ctx context.Context, cookieValue string) (*models.AccountIdentity, error) {
	if cookieValue == "" {
		return nil, nil
	}

	sessionID, err := auth.SessionIDFromToken(cookieValue, s.secretKey)
	if err != nil {
		return nil, nil
	}

	var identity *models.AccountIdentity
	err = common.RetryTransient(ctx, func(ctx context.Context) error {
		identity = nil

		session, err := s.repomanager.Sessions(s.db).Find(ctx, sessionID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil
			}
			return fmt.Errorf("%w: session lookup: %v", common.ErrorTransient, err)
		}
		if session.Expires.Before(time.Now()) {
			_ = s.repomanager.Sessions(s.db).Delete(ctx, sessionID)
			return nil
		}

		user, err := s.repomanager.Users(s.db).GetByAccountID(ctx, session.AccountID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil
			}
			return fmt.Errorf("%w: user lookup: %v", common.ErrorTransient, err)
		}

		identity = &models.AccountIdentity{AccountID: user.AccountID, Email: user.Email}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// CurrentUser loads the full user record for a resolved identity.
func (s *IdentityService) CurrentUser(ctx context.Context, accountID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}

// Logout revokes the session the cookie refers to. It never fails: the
// caller clears the cookie regardless, and a session that cannot be deleted
// right now expires on its own.
func (s *IdentityService) Logout(ctx context.Context, cookieValue string) {
	if cookieValue == "" {
		return
	}
	sessionID, err := auth.SessionIDFromToken(cookieValue, s.secretKey)
	if err != nil {
		return
	}
	if err := s.repomanager.Sessions(s.db).Delete(ctx, sessionID); err != nil {
		s.log.Warn(ctx, "session delete failed on logout", "error", err)
	}
}

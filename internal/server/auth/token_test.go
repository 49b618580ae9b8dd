package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/bloomdrive/bloomdrive/internal/common"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	sessionID := "sess-123"

	tok, err := GenerateSessionToken(sessionID, secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateSessionToken error: %v", err)
	}

	got, err := SessionIDFromToken(tok, secret)
	if err != nil {
		t.Fatalf("SessionIDFromToken error: %v", err)
	}
	if got != sessionID {
		t.Fatalf("session id mismatch: got %q want %q", got, sessionID)
	}
}

func TestSessionIDFromToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")

	tok, err := GenerateSessionToken("s1", secret, -1*time.Second)
	if err != nil {
		t.Fatalf("GenerateSessionToken error: %v", err)
	}

	_, err = SessionIDFromToken(tok, secret)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestSessionIDFromToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateSessionToken("s2", []byte("right-secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateSessionToken error: %v", err)
	}

	_, err = SessionIDFromToken(tok, []byte("wrong-secret"))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestSessionIDFromToken_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := SessionIDFromToken("not.a.jwt", []byte("k"))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bloomdrive/bloomdrive/internal/common"
	"github.com/gin-gonic/gin"
)

type signUpRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type signInRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	AccountID string `json:"accountId"`
	Password  string `json:"password"`
}

func (s *Server) handleSignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, fmt.Errorf("invalid request body: %w", common.ErrorValidation))
		return
	}

	accountID, err := s.identity.SignUp(c.Request.Context(), req.FullName, req.Email)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accountId": accountID})
}

func (s *Server) handleSignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, fmt.Errorf("invalid request body: %w", common.ErrorValidation))
		return
	}

	accountID, err := s.identity.SignIn(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.writeError(c, fmt.Errorf("account not found: %w", common.ErrorNotFound))
			return
		}
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accountId": accountID})
}

// handleVerifyOTP exchanges a correct passcode for a session. The signed
// session value travels only in the cookie; the body carries the session id
// so the client can tell a fresh login apart from a stale one.
func (s *Server) handleVerifyOTP(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AccountID == "" || req.Password == "" {
		s.writeError(c, fmt.Errorf("accountId and password are required: %w", common.ErrorValidation))
		return
	}

	sessionID, cookieValue, err := s.identity.VerifyOTP(c.Request.Context(), req.AccountID, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.setSessionCookie(c, cookieValue)
	c.JSON(http.StatusCreated, gin.H{"sessionId": sessionID})
}

// handleCheckAuth reports whether the caller is signed in. It never returns
// an error status so the UI can poll it unconditionally.
func (s *Server) handleCheckAuth(c *gin.Context) {
	user, err := s.currentUser(c)
	if err != nil || user == nil {
		c.JSON(http.StatusOK, gin.H{"isAuthenticated": false, "user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"isAuthenticated": true, "user": user})
}

// handleLogout revokes the session best-effort and always clears the cookie.
func (s *Server) handleLogout(c *gin.Context) {
	cookieValue, _ := c.Cookie(SessionCookieName)
	s.identity.Logout(c.Request.Context(), cookieValue)
	s.clearSessionCookie(c)
	c.Redirect(http.StatusSeeOther, "/sign-in")
}

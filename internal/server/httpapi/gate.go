package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/bloomdrive/bloomdrive/internal/server/models"
	"github.com/gin-gonic/gin"
)

const currentUserContextKey = "bloomdrive_current_user"

// resolveBudget bounds how long one request may wait on the identity
// backend before the gate fails closed.
const resolveBudget = 5 * time.Second

// currentUser resolves the session cookie to a full user record, caching the
// result in the gin context so one request never resolves twice.
//
// Returns (nil, nil) for an unauthenticated request and (nil, err) when the
// backend failed. The two must stay distinct: a backend failure is never
// treated as "logged out".
func (s *Server) currentUser(c *gin.Context) (*models.User, error) {
	if cached, ok := c.Get(currentUserContextKey); ok {
		user, _ := cached.(*models.User)
		return user, nil
	}

	cookieValue, _ := c.Cookie(SessionCookieName)

	ctx, cancel := context.WithTimeout(c.Request.Context(), resolveBudget)
	defer cancel()

	identity, err := s.identity.Resolve(ctx, cookieValue)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		c.Set(currentUserContextKey, (*models.User)(nil))
		return nil, nil
	}

	user, err := s.identity.CurrentUser(ctx, identity.AccountID)
	if err != nil {
		return nil, err
	}

	c.Set(currentUserContextKey, user)
	return user, nil
}

// requireAuthAPI gates JSON endpoints: anonymous requests get 401, backend
// failures get 503.
func (s *Server) requireAuthAPI() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.currentUser(c)
		if err != nil {
			s.log.Error(c.Request.Context(), "auth gate failed closed", "error", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "authentication backend unavailable"})
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// requireAuthPage gates HTML pages: anonymous visitors are sent to the
// sign-in page, backend failures render an error instead of a redirect so a
// flaky backend never looks like a logout.
func (s *Server) requireAuthPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.currentUser(c)
		if err != nil {
			s.log.Error(c.Request.Context(), "auth gate failed closed", "error", err)
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		if user == nil {
			c.Redirect(http.StatusSeeOther, "/sign-in")
			c.Abort()
			return
		}
		c.Next()
	}
}

// redirectAuthenticated sends signed-in users away from the auth pages. A
// backend failure falls through to the page: showing sign-in to a logged-in
// user is harmless, blocking it on an outage is not.
func (s *Server) redirectAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.currentUser(c)
		if err == nil && user != nil {
			c.Redirect(http.StatusSeeOther, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// mustCurrentUser returns the user cached by the gate. Handlers behind
// requireAuthAPI can rely on it being present.
func (s *Server) mustCurrentUser(c *gin.Context) *models.User {
	cached, _ := c.Get(currentUserContextKey)
	user, _ := cached.(*models.User)
	return user
}

// Package httpapi exposes BloomDrive over HTTP: the JSON API under /api,
// the minimal page shell, and the authentication gate in front of both.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bloomdrive/bloomdrive/internal/logging"
	"github.com/bloomdrive/bloomdrive/internal/server/authz"
	"github.com/bloomdrive/bloomdrive/internal/server/config"
	"github.com/bloomdrive/bloomdrive/internal/server/models"
	"github.com/bloomdrive/bloomdrive/internal/server/repositories/files"
	"github.com/bloomdrive/bloomdrive/internal/server/services"
	"github.com/gin-gonic/gin"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "session"

// IdentityService is the slice of the identity layer the HTTP surface needs.
type IdentityService interface {
	SignUp(ctx context.Context, fullName, email string) (string, error)
	SignIn(ctx context.Context, email string) (string, error)
	VerifyOTP(ctx context.Context, accountID, code string) (string, string, error)
	Resolve(ctx context.Context, cookieValue string) (*models.AccountIdentity, error)
	CurrentUser(ctx context.Context, accountID string) (*models.User, error)
	Logout(ctx context.Context, cookieValue string)
}

// FileService is the slice of the file layer the HTTP surface needs.
type FileService interface {
	Upload(ctx context.Context, user *models.User, fileName string, data []byte) (*models.File, error)
	Open(ctx context.Context, user *models.User, fileID string, action authz.Action) (*models.File, []byte, error)
	Rename(ctx context.Context, user *models.User, fileID, newName string) (*models.File, error)
	Share(ctx context.Context, user *models.User, fileID string, emails []string) (*models.File, error)
	Unshare(ctx context.Context, user *models.User, fileID string, emails []string) (*models.File, error)
	Leave(ctx context.Context, user *models.User, fileID string) error
	Delete(ctx context.Context, user *models.User, fileID string) error
	List(ctx context.Context, user *models.User, opts files.ListOptions) ([]*models.File, error)
	Usage(ctx context.Context, user *models.User) (*services.UsageSummary, error)
}

type Server struct {
	cfg      *config.Config
	log      logging.Logger
	identity IdentityService
	files    FileService
	engine   *gin.Engine
}

func NewServer(cfg *config.Config, log logging.Logger, identity IdentityService, files FileService) *Server {
	s := &Server{
		cfg:      cfg,
		log:      log.With("component", "httpapi"),
		identity: identity,
		files:    files,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())
	s.engine = engine
	s.routes()
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	// Pages. The dashboard is gated; the auth pages bounce users who are
	// already signed in back to the dashboard.
	s.engine.GET("/", s.requireAuthPage(), s.dashboardPage)
	s.engine.GET("/dashboard", s.requireAuthPage(), s.dashboardPage)
	s.engine.GET("/sign-in", s.redirectAuthenticated(), s.signInPage)
	s.engine.GET("/sign-up", s.redirectAuthenticated(), s.signUpPage)

	// Logout works as a plain link target too.
	s.engine.GET("/logout", s.handleLogout)

	// The UI polls this before deciding which page to render.
	s.engine.GET("/check-auth", s.handleCheckAuth)

	s.engine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := s.engine.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/sign-up", s.handleSignUp)
	authGroup.POST("/sign-in", s.handleSignIn)
	authGroup.POST("/verify", s.handleVerifyOTP)
	authGroup.GET("/check", s.handleCheckAuth)
	authGroup.POST("/logout", s.handleLogout)

	filesGroup := api.Group("/files", s.requireAuthAPI())
	filesGroup.GET("", s.handleListFiles)
	filesGroup.GET("/usage", s.handleUsage)
	filesGroup.POST("", s.handleUpload)
	filesGroup.PATCH("/:id/rename", s.handleRename)
	filesGroup.POST("/:id/share", s.handleShare)
	filesGroup.POST("/:id/unshare", s.handleUnshare)
	filesGroup.POST("/:id/leave", s.handleLeave)
	filesGroup.DELETE("/:id", s.handleDelete)
	filesGroup.GET("/:id/view", s.handleView)
	filesGroup.GET("/:id/download", s.handleDownload)
	filesGroup.GET("/:id/thumbnail", s.handleThumbnail)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.EndpointAddr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "http server listening", "addr", s.cfg.EndpointAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info(ctx, "shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) setSessionCookie(c *gin.Context, value string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookieName, value, int(s.cfg.SessionValidityDuration.Seconds()), "/", "", s.cfg.CookieSecure, true)
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", s.cfg.CookieSecure, true)
}

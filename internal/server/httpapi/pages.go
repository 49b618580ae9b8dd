package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// The page shell is deliberately minimal: the real UI is a separate frontend
// talking to /api. These pages exist so the gate has something to protect
// and redirects have somewhere to land.

const dashboardHTML = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>BloomDrive</title></head>
<body>
<h1>BloomDrive</h1>
<p>You are signed in. The API lives under <code>/api</code>.</p>
<form method="post" action="/api/auth/logout"><button type="submit">Sign out</button></form>
</body>
</html>`

const signInHTML = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>Sign in - BloomDrive</title></head>
<body>
<h1>Sign in</h1>
<p>POST your email to <code>/api/auth/sign-in</code>, then the emailed code to <code>/api/auth/verify</code>.</p>
<p><a href="/sign-up">Create an account</a></p>
</body>
</html>`

const signUpHTML = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>Sign up - BloomDrive</title></head>
<body>
<h1>Sign up</h1>
<p>POST your full name and email to <code>/api/auth/sign-up</code>, then the emailed code to <code>/api/auth/verify</code>.</p>
<p><a href="/sign-in">Already have an account?</a></p>
</body>
</html>`

func (s *Server) dashboardPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(dashboardHTML))
}

func (s *Server) signInPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(signInHTML))
}

func (s *Server) signUpPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(signUpHTML))
}

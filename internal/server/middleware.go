package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/campaignboard/campaignboard/internal/accounts"
	"github.com/campaignboard/campaignboard/internal/cookies"
	"github.com/campaignboard/campaignboard/internal/session"
)

const (
	visitorKey = "visitor"
	sessionKey = "session"
)

var (
	ErrNoSession = errors.New("no session")
	ErrNotAdmin  = errors.New("not admin")
	ErrNoAccess  = errors.New("no campaign access")
)

func setSession(c *gin.Context, snap session.Snapshot) {
	c.Set(sessionKey, snap)
}

// GetSession returns the snapshot the gate rendered this request with
func GetSession(c *gin.Context) (session.Snapshot, bool) {
	v, exists := c.Get(sessionKey)
	if !exists {
		return session.Snapshot{}, false
	}
	snap, ok := v.(session.Snapshot)
	return snap, ok && snap.User != nil
}

// GetVisitor returns the visitor id set by VisitorMiddleware
func GetVisitor(c *gin.Context) string {
	return c.GetString(visitorKey)
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}

// VisitorMiddleware identifies the browser, minting a visitor cookie on first sight
func VisitorMiddleware(jar *cookies.Jar) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(visitorKey, jar.Visitor(c.Writer, c.Request))
		c.Next()
	}
}

// SessionGateMiddleware checks the visitor's tokens on every navigation and
// either lets the request through, redirects, or shows the loading page
func SessionGateMiddleware(gate *session.Gate, jar *cookies.Jar, svc *accounts.Service, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		visitor := GetVisitor(c)
		path := c.Request.URL.Path

		verifier := svc.Verifier(jar.Tokens(c.Request), func() { jar.Clear(c.Writer) })
		out := gate.Evaluate(c.Request.Context(), visitor, path, verifier)

		if out.CleanupErr != nil {
			log.Warn().Err(out.CleanupErr).Str("visitor", visitor).Msg("Session cleanup failed")
		}

		if out.Redirect != "" {
			c.Redirect(http.StatusSeeOther, out.Redirect)
			c.Abort()
			return
		}

		if !out.Decision.ShowContent() {
			refresh := path
			if c.Request.Method != http.MethodGet {
				refresh = gate.Paths().Dashboard
			}
			c.HTML(http.StatusOK, "loading.html", loadingPage{Target: refresh, Seconds: loadingRefreshSeconds})
			c.Abort()
			return
		}

		setSession(c, out.Snapshot)
		c.Next()
	}
}

// AdminOnlyMiddleware ensures the authenticated user is an admin
func AdminOnlyMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, exists := GetSession(c)
		if !exists {
			respondWithError(c, log, http.StatusUnauthorized, ErrNoSession, "Unauthorized")
			return
		}

		if !snap.User.IsAdmin {
			respondWithError(c, log, http.StatusForbidden, ErrNotAdmin, "Admin access required")
			return
		}

		c.Next()
	}
}

package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campaignboard/campaignboard/internal/accounts"
	"github.com/campaignboard/campaignboard/internal/apiclient"
	"github.com/campaignboard/campaignboard/internal/models"
)

// loginPage renders the login form. The gate has already redirected visitors
// with a valid session.
func (s *Server) loginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", loginPage{})
}

// login handles the login form
func (s *Server) login(c *gin.Context) {
	visitor := GetVisitor(c)

	var creds accounts.Credentials
	if err := c.ShouldBind(&creds); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to parse login form")
		c.HTML(http.StatusBadRequest, "login.html", loginPage{Failed: true})
		return
	}

	if problems := s.accountsService.Validate(creds); problems != nil {
		c.HTML(http.StatusBadRequest, "login.html", loginPage{Username: creds.Username, Errors: problems})
		return
	}

	result, err := s.accountsService.Login(c.Request.Context(), visitor, creds)
	if err != nil {
		s.recorder.Record(c.Request.Context(), models.Activity{
			Visitor:  visitor,
			Username: creds.Username,
			Action:   models.ActionLoginFailed,
			Detail:   err.Error(),
		})
		c.HTML(http.StatusUnauthorized, "login.html", loginPage{Username: creds.Username, Failed: true})
		return
	}

	// Credentials of an earlier login in this browser must not outlive it
	s.jar.Clear(c.Writer)
	if stale := s.jar.Tokens(c.Request).Superseded(result.Tokens); !stale.Empty() {
		if err := s.accountsService.Revoke(c.Request.Context(), stale); err != nil {
			s.logger.Warn().Err(err).Str("visitor", visitor).Msg("Failed to end previous API session")
		}
	}

	if err := s.jar.SetToken(c.Writer, apiclient.Primary, result.Tokens.Primary); err != nil {
		s.logger.Error().Err(err).Str("username", result.User.Username).Msg("Failed to persist token")
		// Undo the session so the visitor is not left half logged in
		if err := s.accountsService.Logout(c.Request.Context(), visitor, result.Tokens); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to end API session after cookie failure")
		}
		c.HTML(http.StatusInternalServerError, "login.html", loginPage{Username: creds.Username, Failed: true})
		return
	}
	if result.Tokens.Secondary != "" {
		if err := s.jar.SetToken(c.Writer, apiclient.Secondary, result.Tokens.Secondary); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to persist secondary token")
		}
	}

	s.recorder.Record(c.Request.Context(), models.Activity{
		Visitor:  visitor,
		Username: result.User.Username,
		Action:   models.ActionLogin,
		Success:  true,
	})

	c.Redirect(http.StatusSeeOther, s.gate.Paths().Dashboard)
}

// logout always ends the local session; API failures are only logged
func (s *Server) logout(c *gin.Context) {
	visitor := GetVisitor(c)
	tokens := s.jar.Tokens(c.Request)

	username := ""
	if user := s.store.Snapshot(visitor).User; user != nil {
		username = user.Username
	}

	err := s.accountsService.Logout(c.Request.Context(), visitor, tokens)
	s.jar.Clear(c.Writer)

	entry := models.Activity{
		Visitor:  visitor,
		Username: username,
		Action:   models.ActionLogout,
		Success:  err == nil,
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("visitor", visitor).Msg("Logout failed on the API, session cleared locally")
		entry.Detail = err.Error()
		if errors.Is(err, apiclient.ErrNetwork) {
			entry.Detail = "network failure"
		}
	}
	s.recorder.Record(c.Request.Context(), entry)

	c.Redirect(http.StatusSeeOther, s.gate.Paths().Login)
}

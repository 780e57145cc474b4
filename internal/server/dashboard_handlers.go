package server

import (
	"context"
	"errors"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campaignboard/campaignboard/internal/exports"
	"github.com/campaignboard/campaignboard/internal/models"
	"github.com/campaignboard/campaignboard/internal/session"
)

const (
	noDataMessage       = "No data found"
	dataLoadingMessage  = "Data loading in progress, please wait..."
	recentActivityLimit = 20
)

// dashboardView carries per-request overrides for the dashboard page
type dashboardView struct {
	status int
	notice string
	// panel replaces the matching campaign's defaults, e.g. to show an export error
	panel *campaignPanel
}

func (s *Server) dashboard(c *gin.Context) {
	snap, _ := GetSession(c)
	s.renderDashboard(c, snap.User, dashboardView{})
}

func (s *Server) renderDashboard(c *gin.Context, user *session.User, view dashboardView) {
	ctx := c.Request.Context()
	page := dashboardPage{User: user, Notice: view.notice}

	available, err := s.catalog.Available(ctx, user)
	if err != nil {
		s.logger.Error().Err(err).Str("username", user.Username).Msg("Failed to list campaigns")
		page.CampaignsError = "Could not load campaigns"
	}
	for _, campaign := range available {
		panel := campaignPanel{Code: campaign.Code, Title: campaign.Title, Kinds: exports.Kinds}
		if view.panel != nil && view.panel.Code == campaign.Code {
			panel.From = view.panel.From
			panel.To = view.panel.To
			panel.Message = view.panel.Message
		}
		page.Campaigns = append(page.Campaigns, panel)
	}

	page.LoadingStatus, page.DataLoading, page.StatusUnknown = s.loadingStatus(ctx)

	if user.IsAdmin {
		recent, err := s.recorder.Recent(ctx, recentActivityLimit)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to read recent activity")
		}
		page.Activity = recent
	}

	status := view.status
	if status == 0 {
		status = http.StatusOK
	}
	c.HTML(status, "dashboard.html", page)
}

// loadingStatus describes the API's data loading state. An unreachable status
// endpoint reports unknown rather than loading.
func (s *Server) loadingStatus(ctx context.Context) (label string, loading, unknown bool) {
	status, err := s.backends.Primary.LoadingStatus(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to get data loading status")
		return "Unknown", false, true
	}
	if status.IsLoading {
		return "Loading data...", true, false
	}
	return "Loading data complete", false, false
}

// dataLoading reports whether the API is known to be loading data
func (s *Server) dataLoading(ctx context.Context) bool {
	status, err := s.backends.Primary.LoadingStatus(ctx)
	return err == nil && status.IsLoading
}

// downloadExport streams one export of a campaign the user may access
func (s *Server) downloadExport(c *gin.Context) {
	snap, _ := GetSession(c)
	user := snap.User
	code := c.Param("code")

	kind, err := exports.ParseKind(c.Param("kind"))
	if err != nil {
		respondWithError(c, s.logger, http.StatusNotFound, err, "Unknown export type")
		return
	}

	if !user.HasAccess(code) {
		respondWithError(c, s.logger, http.StatusForbidden, ErrNoAccess, "Campaign access denied")
		return
	}

	var input exports.FilterInput
	if err := c.ShouldBind(&input); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to parse export form")
	}
	panel := &campaignPanel{Code: code, From: input.From, To: input.To}

	if s.dataLoading(c.Request.Context()) {
		s.renderDashboard(c, user, dashboardView{status: http.StatusConflict, panel: panel})
		return
	}

	filter, err := input.Filter()
	if err != nil {
		panel.Message = "Invalid date range"
		s.renderDashboard(c, user, dashboardView{status: http.StatusBadRequest, panel: panel})
		return
	}

	file, err := s.exportsService.Download(c.Request.Context(), exports.Request{
		Kind:     kind,
		Campaign: code,
		Filter:   filter,
		Tokens:   s.jar.Tokens(c.Request),
	})

	entry := models.Activity{
		Visitor:  GetVisitor(c),
		Username: user.Username,
		Action:   models.ActionExport,
		Campaign: code,
		Detail:   string(kind),
		Success:  err == nil,
	}
	s.recorder.Record(c.Request.Context(), entry)

	if err != nil {
		panel.Message = noDataMessage
		s.renderDashboard(c, user, dashboardView{panel: panel})
		return
	}
	defer file.Body.Close()

	c.DataFromReader(http.StatusOK, -1, file.ContentType, file.Body, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}),
	})
}

// reloadData asks the API to reload its data unless a load is already running
func (s *Server) reloadData(c *gin.Context) {
	snap, _ := GetSession(c)
	user := snap.User
	ctx := c.Request.Context()

	if s.dataLoading(ctx) {
		s.renderDashboard(c, user, dashboardView{status: http.StatusConflict, notice: "Data is already loading"})
		return
	}

	err := s.backends.Primary.Reload(ctx, s.jar.Tokens(c.Request).Primary)

	entry := models.Activity{
		Visitor:  GetVisitor(c),
		Username: user.Username,
		Action:   models.ActionReload,
		Success:  err == nil,
	}
	if err != nil {
		entry.Detail = err.Error()
	}
	s.recorder.Record(ctx, entry)

	if err != nil {
		s.logger.Error().Err(err).Str("username", user.Username).Msg("Failed to reload data")
		s.renderDashboard(c, user, dashboardView{status: http.StatusBadGateway, notice: "Reload failed"})
		return
	}

	s.logger.Info().Str("username", user.Username).Msg("Data reload requested")
	s.renderDashboard(c, user, dashboardView{notice: "Reload started"})
}

// getLoadingStatus passes the API's loading status through as JSON
func (s *Server) getLoadingStatus(c *gin.Context) {
	status, err := s.backends.Primary.LoadingStatus(c.Request.Context())
	if err != nil {
		code := http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) {
			code = http.StatusGatewayTimeout
		}
		respondWithError(c, s.logger, code, err, "Failed to get data loading status")
		return
	}
	c.JSON(http.StatusOK, status)
}

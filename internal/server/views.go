package server

import (
	"embed"
	"html/template"
	"time"

	"github.com/campaignboard/campaignboard/internal/exports"
	"github.com/campaignboard/campaignboard/internal/models"
	"github.com/campaignboard/campaignboard/internal/session"
)

//go:embed views/*.html
var viewsFS embed.FS

const loadingRefreshSeconds = 1

func parseViews() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"formatTime": func(t time.Time) string {
			return t.UTC().Format("2006-01-02 15:04 MST")
		},
		"dataLoadingMessage": func() string { return dataLoadingMessage },
	}).ParseFS(viewsFS, "views/*.html")
}

type loadingPage struct {
	Target  string
	Seconds int
}

type loginPage struct {
	Username string
	Errors   map[string]string
	Failed   bool
}

// campaignPanel is one campaign's export section on the dashboard
type campaignPanel struct {
	Code    string
	Title   string
	Kinds   []exports.Kind
	From    string
	To      string
	Message string
}

type dashboardPage struct {
	User           *session.User
	Campaigns      []campaignPanel
	CampaignsError string
	LoadingStatus  string
	DataLoading    bool
	StatusUnknown  bool
	Notice         string
	Activity       []models.Activity
}

// Package exports downloads generated campaign files from the data API.
package exports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/campaignboard/campaignboard/internal/apiclient"
)

// Kind is an export type
type Kind string

const (
	KindData        Kind = "data"
	KindCountries   Kind = "countries-breakdown"
	KindSourceFiles Kind = "source-files-breakdown"
)

// Kinds lists the export types in display order
var Kinds = []Kind{KindData, KindCountries, KindSourceFiles}

// Title is the label shown for the export type
func (k Kind) Title() string {
	switch k {
	case KindCountries:
		return "Countries breakdown"
	case KindSourceFiles:
		return "Source files breakdown"
	default:
		return "Campaign data"
	}
}

// ParseKind parses an export type
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown export type %q", s)
}

const formDate = "2006-01-02"

var ErrInvalidFilter = errors.New("invalid date range")

// FilterInput is the date range as submitted by a form or flags
type FilterInput struct {
	From string `form:"from_date" validate:"required_with=To"`
	To   string `form:"to_date" validate:"required_with=From"`
}

var validate = validator.New()

// Filter validates the input and converts it to the API's date format. Both
// dates or neither must be given, and from must not be after to.
func (in FilterInput) Filter() (apiclient.DateFilter, error) {
	if err := validate.Struct(in); err != nil {
		return apiclient.DateFilter{}, fmt.Errorf("%w: both dates are required", ErrInvalidFilter)
	}
	if in.From == "" {
		return apiclient.DateFilter{}, nil
	}

	from, err := time.Parse(formDate, in.From)
	if err != nil {
		return apiclient.DateFilter{}, fmt.Errorf("%w: from date: %w", ErrInvalidFilter, err)
	}
	to, err := time.Parse(formDate, in.To)
	if err != nil {
		return apiclient.DateFilter{}, fmt.Errorf("%w: to date: %w", ErrInvalidFilter, err)
	}
	if from.After(to) {
		return apiclient.DateFilter{}, fmt.Errorf("%w: from date is after to date", ErrInvalidFilter)
	}

	return apiclient.DateFilter{FromDate: apiDate(from), ToDate: apiDate(to)}, nil
}

// apiDate formats a date the way the API expects it (no zero padding)
func apiDate(t time.Time) string {
	return fmt.Sprintf("%d-%d-%d", t.Year(), int(t.Month()), t.Day())
}

// Request describes one download
type Request struct {
	Kind     Kind
	Campaign string
	Filter   apiclient.DateFilter
	Tokens   apiclient.Tokens
}

// File is a downloaded export. The caller must close Body.
type File struct {
	Name        string
	ContentType string
	Body        io.ReadCloser
}

// Service downloads exports from the backend serving each campaign
type Service struct {
	backends *apiclient.Backends
	logger   zerolog.Logger
}

// NewService creates a new exports service
func NewService(backends *apiclient.Backends, logger zerolog.Logger) *Service {
	return &Service{
		backends: backends,
		logger:   logger,
	}
}

// Download fetches an export. Failures wrap apiclient.ErrExport or
// apiclient.ErrNetwork.
func (s *Service) Download(ctx context.Context, req Request) (*File, error) {
	client, backend := s.backends.For(req.Campaign)
	token := req.Tokens.For(backend)

	var (
		export *apiclient.Export
		err    error
	)
	switch req.Kind {
	case KindData:
		export, err = client.CampaignData(ctx, token, req.Campaign, req.Filter)
	case KindCountries:
		export, err = client.CountriesBreakdown(ctx, token, req.Campaign)
	case KindSourceFiles:
		export, err = client.SourceFilesBreakdown(ctx, token, req.Campaign)
	default:
		return nil, fmt.Errorf("%w: unknown export type %q", apiclient.ErrExport, req.Kind)
	}
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("campaign", req.Campaign).
			Str("kind", string(req.Kind)).
			Str("backend", backend.String()).
			Msg("Export download failed")
		return nil, err
	}

	contentType := export.ContentType
	if contentType == "" {
		contentType = "text/csv; charset=utf-8"
	}

	return &File{
		Name:        Filename(export.ContentDisposition),
		ContentType: contentType,
		Body:        export.Body,
	}, nil
}

// Filename extracts the file name from a Content-Disposition header. Without
// one, a random name with a .csv extension is generated.
func Filename(contentDisposition string) string {
	name := ""
	if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
		name = params["filename"]
	} else if _, after, found := strings.Cut(contentDisposition, "filename="); found {
		name = strings.Trim(strings.TrimSpace(after), `"`)
	}

	// Only the base name is kept
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		name = strings.ReplaceAll(uuid.NewString(), "-", "") + ".csv"
	}
	return name
}

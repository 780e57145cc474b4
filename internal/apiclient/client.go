// Package apiclient wraps the data API: authentication, campaign configuration,
// data reloads and export downloads.
package apiclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/campaignboard/campaignboard/internal/session"
)

var (
	// ErrNetwork is returned when the API could not be reached
	ErrNetwork = errors.New("network failure")
	// ErrUnauthenticated is returned for a non-2xx reply to login or check
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrExport is returned for a non-2xx or empty reply from a download endpoint
	ErrExport = errors.New("export failed")
)

// StatusError carries an unexpected API status code
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed (status %d): %s", e.Op, e.Code, e.Body)
}

// Client represents an HTTP client for one data API backend
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			// Export generation on the API side can take a while
			Timeout: 5 * time.Minute,
		},
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// BaseURL returns the backend's base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// TokenResponse represents the login response
type TokenResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	User        *session.User `json:"user,omitempty"`
}

// CampaignConfiguration is one campaign the API serves
type CampaignConfiguration struct {
	CampaignCode string `json:"campaign_code"`
}

// LoadingStatus reports whether the API is reloading its data
type LoadingStatus struct {
	IsLoading bool `json:"is_loading"`
}

// DateFilter restricts a campaign data export to a date range
type DateFilter struct {
	FromDate string `json:"from_date,omitempty"`
	ToDate   string `json:"to_date,omitempty"`
}

// Export is a streamed file from a download endpoint
type Export struct {
	ContentDisposition string
	ContentType        string
	Body               io.ReadCloser
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	return resp, nil
}

func statusError(resp *http.Response, op string) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

func ok(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Login authenticates with form-encoded credentials
func (c *Client) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := c.newRequest(ctx, http.MethodPost, "/auth/login", "", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !ok(resp) {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, statusError(resp, "login"))
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("%w: login response has no access token", ErrUnauthenticated)
	}

	return &tokenResp, nil
}

// Check returns the user the token belongs to
func (c *Client) Check(ctx context.Context, token string) (*session.User, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: no token", ErrUnauthenticated)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/auth/check", token, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !ok(resp) {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, statusError(resp, "check"))
	}

	var user session.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &user, nil
}

// Logout ends the token's session on the API
func (c *Client) Logout(ctx context.Context, token string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/logout", token, nil)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !ok(resp) {
		return statusError(resp, "logout")
	}
	return nil
}

// Configurations lists the campaigns the API serves
func (c *Client) Configurations(ctx context.Context) ([]CampaignConfiguration, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/configurations", "", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !ok(resp) {
		return nil, statusError(resp, "fetch configurations")
	}

	var configs []CampaignConfiguration
	if err := json.NewDecoder(resp.Body).Decode(&configs); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return configs, nil
}

// LoadingStatus reports whether a data reload is running
func (c *Client) LoadingStatus(ctx context.Context) (*LoadingStatus, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/data/loading-status", "", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !ok(resp) {
		return nil, statusError(resp, "check data loading status")
	}

	var status LoadingStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &status, nil
}

// Reload asks the API to reload its data
func (c *Client) Reload(ctx context.Context, token string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/data/reload", token, nil)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !ok(resp) {
		return statusError(resp, "reload data")
	}
	return nil
}

// CampaignData downloads the campaign dataset, optionally filtered by date
func (c *Client) CampaignData(ctx context.Context, token, campaignCode string, filter DateFilter) (*Export, error) {
	body, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, campaignPath(campaignCode, "/data"), token, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.download(req, "download campaign data")
}

// CountriesBreakdown downloads the per-country breakdown
func (c *Client) CountriesBreakdown(ctx context.Context, token, campaignCode string) (*Export, error) {
	req, err := c.newRequest(ctx, http.MethodGet, campaignPath(campaignCode, "/data/countries-breakdown"), token, nil)
	if err != nil {
		return nil, err
	}
	return c.download(req, "download countries breakdown")
}

// SourceFilesBreakdown downloads the per-source-file breakdown
func (c *Client) SourceFilesBreakdown(ctx context.Context, token, campaignCode string) (*Export, error) {
	req, err := c.newRequest(ctx, http.MethodGet, campaignPath(campaignCode, "/data/source-files-breakdown"), token, nil)
	if err != nil {
		return nil, err
	}
	return c.download(req, "download source files breakdown")
}

func campaignPath(campaignCode, suffix string) string {
	return "/campaigns/" + url.PathEscape(campaignCode) + suffix
}

// download returns the response body as a stream. The caller must close it.
func (c *Client) download(req *http.Request, op string) (*Export, error) {
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}

	if !ok(resp) {
		defer resp.Body.Close()
		return nil, fmt.Errorf("%w: %w", ErrExport, statusError(resp, op))
	}

	br := bufio.NewReader(resp.Body)
	if _, err := br.Peek(1); err != nil {
		resp.Body.Close()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s returned an empty body", ErrExport, op)
		}
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	return &Export{
		ContentDisposition: resp.Header.Get("Content-Disposition"),
		ContentType:        resp.Header.Get("Content-Type"),
		Body: struct {
			io.Reader
			io.Closer
		}{br, resp.Body},
	}, nil
}

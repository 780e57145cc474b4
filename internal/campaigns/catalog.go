// Package campaigns resolves which campaigns an operator can work with.
package campaigns

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/campaignboard/campaignboard/internal/apiclient"
	"github.com/campaignboard/campaignboard/internal/session"
)

// Campaign is a campaign the dashboard can show
type Campaign struct {
	Code  string `yaml:"code"`
	Title string `yaml:"title"`
}

type catalogFile struct {
	Campaigns []Campaign `yaml:"campaigns"`
}

// ConfigurationSource lists the campaigns the data API serves
type ConfigurationSource interface {
	Configurations(ctx context.Context) ([]apiclient.CampaignConfiguration, error)
}

// Parse decodes a catalog document
func Parse(data []byte) ([]Campaign, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse campaign catalog: %w", err)
	}
	for i, c := range file.Campaigns {
		if c.Code == "" {
			return nil, fmt.Errorf("campaign catalog entry %d has no code", i)
		}
	}
	return file.Campaigns, nil
}

// LoadFile reads a catalog file
func LoadFile(path string) ([]Campaign, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read campaign catalog: %w", err)
	}
	return Parse(data)
}

// Catalog joins the local campaign titles with the API's configurations
type Catalog struct {
	titles map[string]string
	source ConfigurationSource
}

// NewCatalog creates a catalog; local may be empty
func NewCatalog(local []Campaign, source ConfigurationSource) *Catalog {
	titles := make(map[string]string, len(local))
	for _, c := range local {
		titles[c.Code] = c.Title
	}
	return &Catalog{titles: titles, source: source}
}

// Title returns the display title of a campaign, falling back to its code
func (c *Catalog) Title(code string) string {
	if title := c.titles[code]; title != "" {
		return title
	}
	return code
}

// Available returns the campaigns in the user's access list that the API
// serves, in the order of the user's access list
func (c *Catalog) Available(ctx context.Context, user *session.User) ([]Campaign, error) {
	if user == nil || len(user.CampaignAccess) == 0 {
		return nil, nil
	}

	configs, err := c.source.Configurations(ctx)
	if err != nil {
		return nil, err
	}

	served := make(map[string]bool, len(configs))
	for _, cfg := range configs {
		served[cfg.CampaignCode] = true
	}

	var out []Campaign
	seen := make(map[string]bool)
	for _, code := range user.CampaignAccess {
		if !served[code] || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, Campaign{Code: code, Title: c.Title(code)})
	}
	return out, nil
}

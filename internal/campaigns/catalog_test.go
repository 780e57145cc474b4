package campaigns

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campaignboard/campaignboard/internal/apiclient"
	"github.com/campaignboard/campaignboard/internal/session"
)

type staticSource struct {
	codes []string
	err   error
}

func (s staticSource) Configurations(ctx context.Context) ([]apiclient.CampaignConfiguration, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]apiclient.CampaignConfiguration, len(s.codes))
	for i, code := range s.codes {
		out[i] = apiclient.CampaignConfiguration{CampaignCode: code}
	}
	return out, nil
}

const catalogYAML = `
campaigns:
  - code: wra03a
    title: What Women Want
  - code: pmn01a
    title: What Young People Want
`

func TestParse(t *testing.T) {
	campaigns, err := Parse([]byte(catalogYAML))
	require.NoError(t, err)
	require.Len(t, campaigns, 2)
	assert.Equal(t, Campaign{Code: "pmn01a", Title: "What Young People Want"}, campaigns[1])

	_, err = Parse([]byte("campaigns:\n  - title: nameless\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("campaigns: [\n"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campaigns.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o644))

	campaigns, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, campaigns, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCatalog_Available(t *testing.T) {
	local, err := Parse([]byte(catalogYAML))
	require.NoError(t, err)
	catalog := NewCatalog(local, staticSource{codes: []string{"wra03a", "pmn01a", "giz"}})

	user := &session.User{Username: "ana", CampaignAccess: []string{"giz", "unknown", "wra03a", "giz"}}
	got, err := catalog.Available(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, []Campaign{
		{Code: "giz", Title: "giz"},
		{Code: "wra03a", Title: "What Women Want"},
	}, got)

	got, err = catalog.Available(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCatalog_AvailableSourceError(t *testing.T) {
	catalog := NewCatalog(nil, staticSource{err: errors.New("api down")})

	_, err := catalog.Available(context.Background(), &session.User{CampaignAccess: []string{"wra03a"}})
	assert.Error(t, err)
}

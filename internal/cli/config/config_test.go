package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	original, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(original) })
}

func TestLoadFromCurrentDir(t *testing.T) {
	t.Run("FindsFileInParent", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, Save(filepath.Join(root, ConfigFileName), &Config{
			APIURL:        "https://api.example.org/",
			CampaignsFile: "campaigns.yaml",
		}))
		nested := filepath.Join(root, "a", "b")
		require.NoError(t, os.MkdirAll(nested, 0o755))
		chdir(t, nested)
		t.Setenv("CAMPAIGNBOARD_API_URL", "")

		cfg, err := LoadFromCurrentDir()
		require.NoError(t, err)
		assert.Equal(t, "https://api.example.org", cfg.APIURL)
		assert.Equal(t, DefaultSecondaryCampaign, cfg.SecondaryCampaign)
		assert.Equal(t, filepath.Join(root, "campaigns.yaml"), cfg.CampaignsFile)
	})

	t.Run("EnvOverridesFile", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, Save(filepath.Join(root, ConfigFileName), &Config{APIURL: "https://file.example.org"}))
		chdir(t, root)
		t.Setenv("CAMPAIGNBOARD_API_URL", "https://env.example.org")
		t.Setenv("CAMPAIGNBOARD_SECONDARY_API_URL", "https://pmn.example.org/")

		cfg, err := LoadFromCurrentDir()
		require.NoError(t, err)
		assert.Equal(t, "https://env.example.org", cfg.APIURL)
		assert.Equal(t, "https://pmn.example.org", cfg.SecondaryAPIURL)
	})

	t.Run("EnvWithoutFile", func(t *testing.T) {
		chdir(t, t.TempDir())
		t.Setenv("CAMPAIGNBOARD_API_URL", "https://env.example.org")

		cfg, err := LoadFromCurrentDir()
		require.NoError(t, err)
		assert.Equal(t, "https://env.example.org", cfg.APIURL)
	})

	t.Run("MissingEverywhere", func(t *testing.T) {
		chdir(t, t.TempDir())
		t.Setenv("CAMPAIGNBOARD_API_URL", "")

		_, err := LoadFromCurrentDir()
		assert.ErrorContains(t, err, "campaignboard.json not found")
	})

	t.Run("EmptyAPIURL", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, Save(filepath.Join(root, ConfigFileName), &Config{}))
		chdir(t, root)
		t.Setenv("CAMPAIGNBOARD_API_URL", "")

		_, err := LoadFromCurrentDir()
		assert.ErrorContains(t, err, "api_url is empty")
	})
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

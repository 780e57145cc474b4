package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const ConfigFileName = "campaignboard.json"

// Config represents the CLI configuration file
type Config struct {
	APIURL            string   `json:"api_url"`
	SecondaryAPIURL   string   `json:"secondary_api_url,omitempty"`
	SecondaryCampaign string   `json:"secondary_campaign,omitempty"`
	SecondaryUsers    []string `json:"secondary_users,omitempty"`
	CampaignsFile     string   `json:"campaigns_file,omitempty"`
}

// DefaultSecondaryCampaign is the campaign served by the secondary API
const DefaultSecondaryCampaign = "pmn01a"

// FindConfigFile searches for campaignboard.json in the current directory and its parents
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	dir := currentDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in %s or any parent directory", ConfigFileName, currentDir)
}

// Load reads the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Relative catalog paths are relative to the config file
	if cfg.CampaignsFile != "" && !filepath.IsAbs(cfg.CampaignsFile) {
		cfg.CampaignsFile = filepath.Join(filepath.Dir(path), cfg.CampaignsFile)
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads the config from the current directory or a parent
// and applies environment overrides. Without a file, the environment alone
// may supply the API URL.
func LoadFromCurrentDir() (*Config, error) {
	cfg := &Config{}

	configPath, findErr := FindConfigFile()
	if findErr == nil {
		loaded, err := Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	cfg.applyEnv()

	if cfg.APIURL == "" {
		if findErr != nil {
			return nil, findErr
		}
		return nil, fmt.Errorf("api_url is empty. Please edit %s or set CAMPAIGNBOARD_API_URL", ConfigFileName)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CAMPAIGNBOARD_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("CAMPAIGNBOARD_SECONDARY_API_URL"); v != "" {
		c.SecondaryAPIURL = v
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	c.SecondaryAPIURL = strings.TrimRight(c.SecondaryAPIURL, "/")
	if c.SecondaryCampaign == "" {
		c.SecondaryCampaign = DefaultSecondaryCampaign
	}
}

// Save writes the configuration to a file
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

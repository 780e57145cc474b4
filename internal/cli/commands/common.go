package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/campaignboard/campaignboard/internal/apiclient"
	"github.com/campaignboard/campaignboard/internal/cli/auth"
	"github.com/campaignboard/campaignboard/internal/cli/config"
	"github.com/campaignboard/campaignboard/internal/logger"
	"github.com/campaignboard/campaignboard/internal/session"
)

// cliVisitor is the session store key the CLI uses for its single user
const cliVisitor = "cli"

// commandTimeout bounds a single command's API calls; exports can be slow
const commandTimeout = 10 * time.Minute

// Env is everything a command needs. Tests build one directly.
type Env struct {
	Config   *config.Config
	Backends *apiclient.Backends
	Tokens   auth.TokenStore
	Out      io.Writer
	Logger   zerolog.Logger
}

// NewEnv wires an Env for cfg
func NewEnv(cfg *config.Config, tokens auth.TokenStore, out io.Writer, log zerolog.Logger) *Env {
	return &Env{
		Config:   cfg,
		Backends: apiclient.NewBackends(cfg.APIURL, cfg.SecondaryAPIURL, cfg.SecondaryCampaign),
		Tokens:   tokens,
		Out:      out,
		Logger:   log,
	}
}

// loadEnv loads the config from the current directory and uses the OS keyring.
// Warnings go to stderr so command output stays clean.
func loadEnv() (*Env, error) {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'campaignboard init' to create a configuration file", err)
	}

	level := "warn"
	if os.Getenv("CAMPAIGNBOARD_DEBUG") != "" {
		level = "debug"
	}
	log := logger.New(os.Stderr, level, "console")

	return NewEnv(cfg, auth.Default, os.Stdout, log), nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}

// tokens loads the stored tokens. The primary token is required; the
// secondary one is optional.
func (e *Env) tokens() (apiclient.Tokens, error) {
	primary, err := e.Tokens.LoadToken(e.Backends.Primary.BaseURL())
	if err != nil {
		return apiclient.Tokens{}, err
	}

	tokens := apiclient.Tokens{Primary: primary}
	if e.Backends.Secondary != nil {
		secondary, err := e.Tokens.LoadToken(e.Backends.Secondary.BaseURL())
		if err != nil && !errors.Is(err, auth.ErrNotAuthenticated) {
			return apiclient.Tokens{}, err
		}
		tokens.Secondary = secondary
	}
	return tokens, nil
}

// currentUser checks the stored primary token with the API
func (e *Env) currentUser(ctx context.Context) (*session.User, apiclient.Tokens, error) {
	tokens, err := e.tokens()
	if err != nil {
		return nil, tokens, err
	}

	user, err := e.Backends.Primary.Check(ctx, tokens.Primary)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthenticated) {
			return nil, tokens, fmt.Errorf("session expired. Please run 'campaignboard login' again: %w", err)
		}
		return nil, tokens, err
	}
	return user, tokens, nil
}

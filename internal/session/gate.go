package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrCleanup marks a failure while invalidating credentials after a failed
// check. It is reported, never fatal.
var ErrCleanup = errors.New("session cleanup failed")

// Verifier checks one visitor's credentials against the Auth Service
type Verifier interface {
	// Check returns the current user or an error if the session is not valid
	Check(ctx context.Context) (*User, error)
	// Invalidate removes the visitor's persisted credentials
	Invalidate(ctx context.Context) error
}

// Outcome is the result of one gate evaluation
type Outcome struct {
	Decision Decision
	// Redirect is the navigation to perform now; empty when none is due or it
	// was already issued for this generation
	Redirect string
	Snapshot Snapshot
	// Stale is set when a newer navigation superseded this check
	Stale bool
	// CleanupErr wraps ErrCleanup when credential invalidation failed
	CleanupErr error
}

// Gate runs the check-then-decide cycle for every navigation
type Gate struct {
	store  *Store
	paths  Paths
	logger zerolog.Logger
}

// NewGate creates a gate over store
func NewGate(store *Store, paths Paths, logger zerolog.Logger) *Gate {
	return &Gate{
		store:  store,
		paths:  paths,
		logger: logger,
	}
}

// Paths returns the gate's route layout
func (g *Gate) Paths() Paths {
	return g.paths
}

// Evaluate handles a navigation of visitor to path. Any check error counts as
// a failure: the session is cleared and credentials are invalidated on a
// best-effort basis.
func (g *Gate) Evaluate(ctx context.Context, visitor, path string, v Verifier) Outcome {
	gen := g.store.Begin(visitor, path)

	user, err := v.Check(ctx)
	result := Success
	if err != nil || user == nil {
		result = Failure
		user = nil
		g.logger.Debug().Err(err).Str("visitor", visitor).Str("path", path).Msg("Session check failed")
	}

	snap, ok := g.store.Commit(visitor, gen, user, result)
	if !ok {
		g.logger.Debug().
			Str("visitor", visitor).
			Str("path", path).
			Uint64("generation", gen).
			Uint64("current", snap.Generation).
			Msg("Discarding superseded session check")
		return Outcome{Decision: Decision{Kind: Loading}, Snapshot: snap, Stale: true}
	}

	var cleanupErr error
	if result == Failure {
		if err := v.Invalidate(ctx); err != nil {
			cleanupErr = fmt.Errorf("%w: %w", ErrCleanup, err)
			g.logger.Debug().Err(err).Str("visitor", visitor).Msg("Failed to invalidate credentials")
		}
	}

	out := g.resolve(visitor, snap)
	out.CleanupErr = cleanupErr
	return out
}

func (g *Gate) resolve(visitor string, snap Snapshot) Outcome {
	d := Decide(snap.User != nil, snap.Result, snap.Path, g.paths)
	out := Outcome{Decision: d, Snapshot: snap}

	if d.Redirect != "" && g.store.ClaimRedirect(visitor, snap.Generation, d.Redirect) {
		out.Redirect = d.Redirect
		g.logger.Debug().
			Str("visitor", visitor).
			Str("from", snap.Path).
			Str("to", d.Redirect).
			Str("state", snap.State().String()).
			Msg("Session gate redirect")
	}
	return out
}

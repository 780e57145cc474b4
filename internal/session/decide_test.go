package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	paths := DefaultPaths()

	tests := []struct {
		name    string
		hasUser bool
		result  CheckResult
		path    string
		want    Decision
	}{
		{
			name:   "pending shows loading",
			result: Pending,
			path:   "/dashboard",
			want:   Decision{Kind: Loading},
		},
		{
			name:    "pending with user still loading",
			hasUser: true,
			result:  Pending,
			path:    "/login",
			want:    Decision{Kind: Loading},
		},
		{
			name:   "failed check on protected path redirects to login",
			result: Failure,
			path:   "/dashboard",
			want:   Decision{Kind: Loading, Redirect: "/login"},
		},
		{
			name:   "failed check on login renders",
			result: Failure,
			path:   "/login",
			want:   Decision{Kind: Render},
		},
		{
			name:    "authenticated on login redirects to dashboard",
			hasUser: true,
			result:  Success,
			path:    "/login",
			want:    Decision{Kind: Loading, Redirect: "/dashboard"},
		},
		{
			name:    "authenticated on dashboard renders",
			hasUser: true,
			result:  Success,
			path:    "/dashboard",
			want:    Decision{Kind: Render},
		},
		{
			name:    "user present but check failed is held",
			hasUser: true,
			result:  Failure,
			path:    "/dashboard",
			want:    Decision{Kind: Loading},
		},
		{
			name:   "success without user is held",
			result: Success,
			path:   "/dashboard",
			want:   Decision{Kind: Loading},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.hasUser, tt.result, tt.path, paths)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecide_NeverShowsProtectedContentUnlessAuthenticated(t *testing.T) {
	paths := DefaultPaths()
	for _, path := range []string{"/", "/dashboard", "/campaigns/x/exports/data", "/login"} {
		for _, hasUser := range []bool{false, true} {
			for _, result := range []CheckResult{Pending, Success, Failure} {
				d := Decide(hasUser, result, path, paths)
				if !d.ShowContent() {
					continue
				}
				if paths.IsPublic(path) {
					assert.False(t, hasUser && result == Success, "login page shown to authenticated user")
					continue
				}
				assert.True(t, hasUser, "protected %s shown without session", path)
				assert.Equal(t, Success, result, "protected %s shown with result %s", path, result)
			}
		}
	}
}

func TestStateOf(t *testing.T) {
	assert.Equal(t, Checking, StateOf(false, Pending))
	assert.Equal(t, Authenticated, StateOf(true, Success))
	assert.Equal(t, Unauthenticated, StateOf(false, Failure))
	assert.Equal(t, Checking, StateOf(true, Failure))
}

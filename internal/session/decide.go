package session

import "slices"

// Paths names the routes the gate redirects between
type Paths struct {
	Login     string
	Dashboard string
	Public    []string
}

// DefaultPaths returns the dashboard's route layout
func DefaultPaths() Paths {
	return Paths{
		Login:     "/login",
		Dashboard: "/dashboard",
		Public:    []string{"/login"},
	}
}

// IsPublic reports whether path is reachable without a session
func (p Paths) IsPublic(path string) bool {
	return slices.Contains(p.Public, path)
}

// RenderKind says what the page body should be
type RenderKind int

const (
	Loading RenderKind = iota
	Render
)

// Decision is what to show for a navigation and where, if anywhere, to go next
type Decision struct {
	Kind     RenderKind
	Redirect string
}

// ShowContent reports whether the requested content may be rendered
func (d Decision) ShowContent() bool {
	return d.Kind == Render
}

// Decide is the pure rendering policy of the gate
func Decide(hasUser bool, result CheckResult, path string, paths Paths) Decision {
	switch StateOf(hasUser, result) {
	case Unauthenticated:
		if !paths.IsPublic(path) {
			return Decision{Kind: Loading, Redirect: paths.Login}
		}
		return Decision{Kind: Render}
	case Authenticated:
		if path == paths.Login {
			return Decision{Kind: Loading, Redirect: paths.Dashboard}
		}
		return Decision{Kind: Render}
	default:
		return Decision{Kind: Loading}
	}
}

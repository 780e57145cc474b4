// Package session holds the per-visitor authentication state and the gate that
// decides, on every navigation, whether a page is rendered, held behind a
// loading placeholder, or redirected.
package session

import "slices"

// User is the authenticated operator as reported by the Auth Service
type User struct {
	Username       string   `json:"username"`
	CampaignAccess []string `json:"campaign_access"`
	IsAdmin        bool     `json:"is_admin"`
}

// HasAccess reports whether the user may see the given campaign
func (u *User) HasAccess(campaignCode string) bool {
	if u == nil {
		return false
	}
	return slices.Contains(u.CampaignAccess, campaignCode)
}

func (u *User) clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.CampaignAccess = slices.Clone(u.CampaignAccess)
	return &c
}

// CheckResult is the outcome of the most recent remote check
type CheckResult int

const (
	Pending CheckResult = iota
	Success
	Failure
)

func (r CheckResult) String() string {
	switch r {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "pending"
	}
}

// State is the gate state derived from session presence and the check result
type State int

const (
	Checking State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "checking"
	}
}

// StateOf maps (session present, check result) onto a gate state. Mixed
// combinations only exist between two writes and resolve to Checking.
func StateOf(hasUser bool, result CheckResult) State {
	switch {
	case result == Success && hasUser:
		return Authenticated
	case result == Failure && !hasUser:
		return Unauthenticated
	default:
		return Checking
	}
}

// Snapshot is a copy of one visitor's state
type Snapshot struct {
	User       *User
	Result     CheckResult
	Path       string
	Generation uint64
}

// State returns the gate state of the snapshot
func (s Snapshot) State() State {
	return StateOf(s.User != nil, s.Result)
}

package apiclient

// Backend identifies which API a token belongs to
type Backend int

const (
	Primary Backend = iota
	Secondary
)

func (b Backend) String() string {
	if b == Secondary {
		return "secondary"
	}
	return "primary"
}

// Tokens are the bearer tokens held for a visitor, one per backend
type Tokens struct {
	Primary   string
	Secondary string
}

// For returns the token for backend b
func (t Tokens) For(b Backend) string {
	if b == Secondary {
		return t.Secondary
	}
	return t.Primary
}

// Empty reports whether no token is held
func (t Tokens) Empty() bool {
	return t.Primary == "" && t.Secondary == ""
}

// Superseded returns the tokens of t that next does not hold
func (t Tokens) Superseded(next Tokens) Tokens {
	var out Tokens
	if t.Primary != next.Primary {
		out.Primary = t.Primary
	}
	if t.Secondary != next.Secondary {
		out.Secondary = t.Secondary
	}
	return out
}

// Backends routes campaigns between the primary API and the optional
// secondary API that serves a single campaign
type Backends struct {
	Primary           *Client
	Secondary         *Client
	SecondaryCampaign string
}

// NewBackends builds the backend set; secondaryURL may be empty
func NewBackends(primaryURL, secondaryURL, secondaryCampaign string) *Backends {
	b := &Backends{
		Primary:           New(primaryURL),
		SecondaryCampaign: secondaryCampaign,
	}
	if secondaryURL != "" {
		b.Secondary = New(secondaryURL)
	}
	return b
}

// For returns the client and backend that serve campaignCode
func (b *Backends) For(campaignCode string) (*Client, Backend) {
	if b.Secondary != nil && campaignCode == b.SecondaryCampaign {
		return b.Secondary, Secondary
	}
	return b.Primary, Primary
}

// Client returns the client for backend kind, or nil if it is not configured
func (b *Backends) Client(kind Backend) *Client {
	if kind == Secondary {
		return b.Secondary
	}
	return b.Primary
}

// Package cookies persists a visitor's API tokens in sealed browser cookies.
package cookies

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/campaignboard/campaignboard/internal/apiclient"
)

const (
	PrimaryTokenCookie   = "cb_token_1"
	SecondaryTokenCookie = "cb_token_2"
	VisitorCookie        = "cb_visitor"

	nonceSize = 24
)

var (
	ErrTokenExpired = errors.New("token already expired")
	errUnseal       = errors.New("cookie value could not be unsealed")
)

// Jar reads and writes the dashboard's cookies
type Jar struct {
	key    [32]byte
	secure bool
	now    func() time.Time
}

// NewJar creates a jar sealing token cookies with secret (32 bytes)
func NewJar(secret []byte, secure bool) (*Jar, error) {
	if len(secret) != 32 {
		return nil, fmt.Errorf("cookie secret must be 32 bytes, got %d", len(secret))
	}
	j := &Jar{secure: secure, now: time.Now}
	copy(j.key[:], secret)
	return j, nil
}

func cookieName(b apiclient.Backend) string {
	if b == apiclient.Secondary {
		return SecondaryTokenCookie
	}
	return PrimaryTokenCookie
}

// Tokens returns the visitor's tokens. Missing or tampered cookies read as
// empty tokens.
func (j *Jar) Tokens(r *http.Request) apiclient.Tokens {
	return apiclient.Tokens{
		Primary:   j.token(r, apiclient.Primary),
		Secondary: j.token(r, apiclient.Secondary),
	}
}

func (j *Jar) token(r *http.Request, b apiclient.Backend) string {
	c, err := r.Cookie(cookieName(b))
	if err != nil || c.Value == "" {
		return ""
	}
	token, err := j.unseal(c.Value)
	if err != nil {
		return ""
	}
	return token
}

// SetToken stores token for backend b. The cookie expires with the token's
// exp claim; a token without one becomes a browser-session cookie.
func (j *Jar) SetToken(w http.ResponseWriter, b apiclient.Backend, token string) error {
	cookie := j.base(cookieName(b))
	cookie.HttpOnly = true

	if exp, ok := Expiry(token); ok {
		ttl := exp.Sub(j.now())
		if ttl <= 0 {
			return ErrTokenExpired
		}
		cookie.Expires = exp
		cookie.MaxAge = int(ttl.Seconds())
	}

	sealed, err := j.seal(token)
	if err != nil {
		return err
	}
	cookie.Value = sealed

	http.SetCookie(w, cookie)
	return nil
}

// Clear expires both token cookies
func (j *Jar) Clear(w http.ResponseWriter) {
	for _, name := range []string{PrimaryTokenCookie, SecondaryTokenCookie} {
		cookie := j.base(name)
		cookie.HttpOnly = true
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
		http.SetCookie(w, cookie)
	}
}

// Visitor returns the visitor id, minting and setting a new one when absent
func (j *Jar) Visitor(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(VisitorCookie); err == nil {
		if id, err := ulid.ParseStrict(c.Value); err == nil {
			return id.String()
		}
	}

	id := ulid.Make().String()
	cookie := j.base(VisitorCookie)
	cookie.Value = id
	cookie.HttpOnly = true
	http.SetCookie(w, cookie)

	// Make the id visible to handlers reading cookies later in this request
	r.AddCookie(&http.Cookie{Name: VisitorCookie, Value: id})
	return id
}

func (j *Jar) base(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Path:     "/",
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (j *Jar) seal(plain string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plain), &nonce, &j.key)
	return base64.RawURLEncoding.EncodeToString(box), nil
}

func (j *Jar) unseal(value string) (string, error) {
	box, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil || len(box) < nonceSize+secretbox.Overhead {
		return "", errUnseal
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &j.key)
	if !ok {
		return "", errUnseal
	}
	return string(plain), nil
}

// Expiry reads the exp claim of a JWT without verifying its signature; the
// API that issued the token is the one that verifies it.
func Expiry(token string) (time.Time, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

package cookies

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campaignboard/campaignboard/internal/apiclient"
)

func testJar(t *testing.T) *Jar {
	t.Helper()
	jar, err := NewJar(make([]byte, 32), true)
	require.NoError(t, err)
	return jar
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "ana"}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("api-secret"))
	require.NoError(t, err)
	return token
}

// replay copies the cookies a response set onto a new request
func replay(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestNewJar_RejectsShortSecret(t *testing.T) {
	_, err := NewJar([]byte("short"), true)
	assert.Error(t, err)
}

func TestJar_TokenRoundTrip(t *testing.T) {
	jar := testJar(t)
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedToken(t, exp)

	rec := httptest.NewRecorder()
	require.NoError(t, jar.SetToken(rec, apiclient.Primary, token))
	require.NoError(t, jar.SetToken(rec, apiclient.Secondary, "opaque-token"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	primary := cookies[0]
	assert.Equal(t, PrimaryTokenCookie, primary.Name)
	assert.NotContains(t, primary.Value, token, "token must be sealed")
	assert.True(t, primary.Secure)
	assert.True(t, primary.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, primary.SameSite)
	assert.Greater(t, primary.MaxAge, 3500)
	assert.Zero(t, cookies[1].MaxAge, "token without exp is a session cookie")

	tokens := jar.Tokens(replay(rec))
	assert.Equal(t, token, tokens.Primary)
	assert.Equal(t, "opaque-token", tokens.Secondary)
}

func TestJar_ExpiredTokenRejected(t *testing.T) {
	jar := testJar(t)
	rec := httptest.NewRecorder()

	err := jar.SetToken(rec, apiclient.Primary, signedToken(t, time.Now().Add(-time.Minute)))
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Empty(t, rec.Result().Cookies())
}

func TestJar_TamperedCookieReadsEmpty(t *testing.T) {
	jar := testJar(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: PrimaryTokenCookie, Value: "bm90LXNlYWxlZA"})

	assert.True(t, jar.Tokens(req).Empty())

	other, err := NewJar(append(make([]byte, 31), 1), true)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	require.NoError(t, other.SetToken(rec, apiclient.Primary, "tok"))
	assert.True(t, jar.Tokens(replay(rec)).Empty(), "cookie sealed with another key")
}

func TestJar_Clear(t *testing.T) {
	jar := testJar(t)
	rec := httptest.NewRecorder()
	jar.Clear(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		assert.Equal(t, -1, c.MaxAge)
		assert.Empty(t, c.Value)
	}
}

func TestJar_Visitor(t *testing.T) {
	jar := testJar(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	id := jar.Visitor(rec, req)
	require.NotEmpty(t, id)
	require.Len(t, rec.Result().Cookies(), 1)

	again := httptest.NewRecorder()
	assert.Equal(t, id, jar.Visitor(again, replay(rec)))
	assert.Empty(t, again.Result().Cookies(), "existing visitor id is reused")

	bad := httptest.NewRequest(http.MethodGet, "/", nil)
	bad.AddCookie(&http.Cookie{Name: VisitorCookie, Value: "not-a-ulid"})
	assert.NotEqual(t, "not-a-ulid", jar.Visitor(httptest.NewRecorder(), bad))
}

func TestExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	got, ok := Expiry(signedToken(t, exp))
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, ok = Expiry(signedToken(t, time.Time{}))
	assert.False(t, ok)

	_, ok = Expiry("opaque")
	assert.False(t, ok)
}

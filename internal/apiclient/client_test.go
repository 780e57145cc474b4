package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())

		if r.PostForm.Get("username") != "ana" || r.PostForm.Get("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"bad credentials"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "token_type": "bearer"})
	}))
	defer srv.Close()

	c := New(srv.URL)

	resp, err := c.Login(context.Background(), "ana", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.AccessToken)
	assert.Nil(t, resp.User)

	_, err = c.Login(context.Background(), "ana", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
	assert.Contains(t, statusErr.Body, "bad credentials")
}

func TestClient_Check(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/check", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"username":"ana","campaign_access":["wra03a"],"is_admin":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL)

	user, err := c.Check(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "ana", user.Username)
	assert.Equal(t, []string{"wra03a"}, user.CampaignAccess)
	assert.True(t, user.IsAdmin)

	_, err = c.Check(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = c.Check(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Check(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestClient_Downloads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/campaigns/wra03a/data":
			assert.Equal(t, http.MethodPost, r.Method)
			var filter DateFilter
			require.NoError(t, json.NewDecoder(r.Body).Decode(&filter))
			assert.Equal(t, "2024-1-5", filter.FromDate)
			w.Header().Set("Content-Disposition", "attachment; filename=wra03a.csv")
			w.Write([]byte("a,b\n1,2\n"))
		case "/campaigns/wra03a/data/countries-breakdown":
			assert.Equal(t, http.MethodGet, r.Method)
			w.WriteHeader(http.StatusOK)
		case "/campaigns/wra03a/data/source-files-breakdown":
			w.WriteHeader(http.StatusNotFound)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	export, err := c.CampaignData(ctx, "tok", "wra03a", DateFilter{FromDate: "2024-1-5", ToDate: "2024-2-1"})
	require.NoError(t, err)
	defer export.Body.Close()
	data, err := io.ReadAll(export.Body)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
	assert.Equal(t, "attachment; filename=wra03a.csv", export.ContentDisposition)

	_, err = c.CountriesBreakdown(ctx, "tok", "wra03a")
	assert.ErrorIs(t, err, ErrExport, "empty body")

	_, err = c.SourceFilesBreakdown(ctx, "tok", "wra03a")
	assert.ErrorIs(t, err, ErrExport, "non-2xx")
}

func TestClient_StatusAndReload(t *testing.T) {
	reloaded := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/loading-status":
			w.Write([]byte(`{"is_loading":true}`))
		case "/data/reload":
			if r.Header.Get("Authorization") != "Bearer admin" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			reloaded = true
		case "/configurations":
			w.Write([]byte(`[{"campaign_code":"wra03a"},{"campaign_code":"pmn01a"}]`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	status, err := c.LoadingStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.IsLoading)

	require.Error(t, c.Reload(ctx, "user"))
	require.NoError(t, c.Reload(ctx, "admin"))
	assert.True(t, reloaded)

	configs, err := c.Configurations(ctx)
	require.NoError(t, err)
	assert.Len(t, configs, 2)
	assert.Equal(t, "pmn01a", configs[1].CampaignCode)
}

func TestBackends_For(t *testing.T) {
	single := NewBackends("http://primary", "", "pmn01a")
	c, kind := single.For("pmn01a")
	assert.Equal(t, Primary, kind)
	assert.Equal(t, "http://primary", c.BaseURL())

	dual := NewBackends("http://primary", "http://secondary/", "pmn01a")
	c, kind = dual.For("pmn01a")
	assert.Equal(t, Secondary, kind)
	assert.Equal(t, "http://secondary", c.BaseURL())

	_, kind = dual.For("wra03a")
	assert.Equal(t, Primary, kind)

	tokens := Tokens{Primary: "p", Secondary: "s"}
	assert.Equal(t, "s", tokens.For(Secondary))
	assert.False(t, tokens.Empty())
	assert.True(t, Tokens{}.Empty())
}

func TestTokens_Superseded(t *testing.T) {
	old := Tokens{Primary: "p1", Secondary: "s1"}

	assert.Equal(t, Tokens{Primary: "p1", Secondary: "s1"}, old.Superseded(Tokens{Primary: "p2"}))
	assert.Equal(t, Tokens{Secondary: "s1"}, old.Superseded(Tokens{Primary: "p1"}))
	assert.True(t, old.Superseded(old).Empty())
	assert.True(t, Tokens{}.Superseded(old).Empty())
}

package exports

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campaignboard/campaignboard/internal/apiclient"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("everything")
	assert.Error(t, err)
}

func TestFilterInput_Filter(t *testing.T) {
	tests := []struct {
		name    string
		in      FilterInput
		want    apiclient.DateFilter
		wantErr bool
	}{
		{name: "no range", in: FilterInput{}, want: apiclient.DateFilter{}},
		{
			name: "full range",
			in:   FilterInput{From: "2024-01-05", To: "2024-12-31"},
			want: apiclient.DateFilter{FromDate: "2024-1-5", ToDate: "2024-12-31"},
		},
		{name: "same day", in: FilterInput{From: "2024-03-03", To: "2024-03-03"}, want: apiclient.DateFilter{FromDate: "2024-3-3", ToDate: "2024-3-3"}},
		{name: "only from", in: FilterInput{From: "2024-01-05"}, wantErr: true},
		{name: "only to", in: FilterInput{To: "2024-01-05"}, wantErr: true},
		{name: "reversed", in: FilterInput{From: "2024-02-01", To: "2024-01-01"}, wantErr: true},
		{name: "malformed", in: FilterInput{From: "01/02/2024", To: "2024-01-05"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Filter()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFilter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "wra03a.csv", Filename("attachment; filename=wra03a.csv"))
	assert.Equal(t, "my data.csv", Filename(`attachment; filename="my data.csv"`))
	assert.Equal(t, "x.csv", Filename("filename=x.csv"))
	assert.Equal(t, "evil.csv", Filename(`attachment; filename="../../evil.csv"`))

	generated := Filename("")
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}\.csv$`), generated)
	assert.NotEqual(t, generated, Filename("attachment"))
}

func TestService_Download(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer primary", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/campaigns/wra03a/data":
			var filter apiclient.DateFilter
			require.NoError(t, json.NewDecoder(r.Body).Decode(&filter))
			assert.Equal(t, "2024-1-1", filter.FromDate)
			w.Header().Set("Content-Disposition", "attachment; filename=wra03a.csv")
			w.Write([]byte("id\n1\n"))
		case "/campaigns/wra03a/data/countries-breakdown":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer primary.Close()

	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secondary", r.Header.Get("Authorization"))
		assert.Equal(t, "/campaigns/pmn01a/data/source-files-breakdown", r.URL.Path)
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("file,count\n"))
	}))
	defer secondary.Close()

	svc := NewService(apiclient.NewBackends(primary.URL, secondary.URL, "pmn01a"), zerolog.Nop())
	tokens := apiclient.Tokens{Primary: "primary", Secondary: "secondary"}
	ctx := context.Background()

	file, err := svc.Download(ctx, Request{
		Kind:     KindData,
		Campaign: "wra03a",
		Filter:   apiclient.DateFilter{FromDate: "2024-1-1", ToDate: "2024-1-31"},
		Tokens:   tokens,
	})
	require.NoError(t, err)
	body, _ := io.ReadAll(file.Body)
	file.Body.Close()
	assert.Equal(t, "wra03a.csv", file.Name)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)
	assert.Equal(t, "id\n1\n", string(body))

	file, err = svc.Download(ctx, Request{Kind: KindSourceFiles, Campaign: "pmn01a", Tokens: tokens})
	require.NoError(t, err)
	file.Body.Close()
	assert.Equal(t, "text/csv", file.ContentType)

	_, err = svc.Download(ctx, Request{Kind: KindCountries, Campaign: "wra03a", Tokens: tokens})
	assert.ErrorIs(t, err, apiclient.ErrExport)

	_, err = svc.Download(ctx, Request{Kind: "bogus", Campaign: "wra03a", Tokens: tokens})
	assert.ErrorIs(t, err, apiclient.ErrExport)
}

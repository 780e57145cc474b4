package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyringTokenStore(t *testing.T) {
	keyring.MockInit()

	_, err := Default.LoadToken("https://api.example.org")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	require.NoError(t, Default.SaveToken("https://api.example.org", "primary"))
	require.NoError(t, Default.SaveToken("https://pmn.example.org", "secondary"))

	token, err := Default.LoadToken("https://api.example.org")
	require.NoError(t, err)
	assert.Equal(t, "primary", token)

	require.NoError(t, Default.DeleteToken("https://api.example.org"))
	require.NoError(t, Default.DeleteToken("https://api.example.org"), "deleting twice is not an error")

	_, err = Default.LoadToken("https://api.example.org")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	token, err = Default.LoadToken("https://pmn.example.org")
	require.NoError(t, err)
	assert.Equal(t, "secondary", token)
}

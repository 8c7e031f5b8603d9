package tokens

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateOpaqueToken(t *testing.T) {
	a, err := GenerateOpaqueToken(SessionTokenBytes)
	require.NoError(t, err)
	b, err := GenerateOpaqueToken(SessionTokenBytes)
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	raw, err := base64.RawURLEncoding.DecodeString(a)
	require.NoError(t, err)
	require.Len(t, raw, SessionTokenBytes)
}

func TestSHA256Base64URL(t *testing.T) {
	// sha256("abc")
	require.Equal(t, "ungWv48Bz-pBQUDeXa4iI7ADYaOWF3qctBD_YfIAFa0", SHA256Base64URL("abc"))
	require.NotEqual(t, SHA256Base64URL("a"), SHA256Base64URL("b"))
}

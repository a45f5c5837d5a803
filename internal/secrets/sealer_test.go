package secrets_test

import (
	"encoding/hex"
	"testing"

	"github.com/nverhoeven/taskpilot/internal/secrets"
	"github.com/stretchr/testify/require"
)

func testKey() string {
	return hex.EncodeToString(make([]byte, 32))
}

func TestSealOpenRoundTrip(t *testing.T) {
	sealer, err := secrets.NewSealer(testKey())
	require.NoError(t, err)

	sealed, err := sealer.Seal("the-access-token")
	require.NoError(t, err)
	require.NotEqual(t, "the-access-token", sealed)

	opened, err := sealer.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, "the-access-token", opened)
}

func TestOpenRejectsGarbage(t *testing.T) {
	sealer, err := secrets.NewSealer(testKey())
	require.NoError(t, err)

	_, err = sealer.Open("not-a-sealed-value")
	require.ErrorIs(t, err, secrets.ErrOpenFailed)

	_, err = sealer.Open("")
	require.ErrorIs(t, err, secrets.ErrOpenFailed)
}

func TestOpenRejectsTampering(t *testing.T) {
	sealer, err := secrets.NewSealer(testKey())
	require.NoError(t, err)

	sealed, err := sealer.Seal("refresh-token")
	require.NoError(t, err)

	tampered := []byte(sealed)
	tampered[len(tampered)-1] ^= 'x'

	_, err = sealer.Open(string(tampered))
	require.ErrorIs(t, err, secrets.ErrOpenFailed)
}

func TestNewSealerRejectsBadKey(t *testing.T) {
	_, err := secrets.NewSealer("zz")
	require.Error(t, err)

	_, err = secrets.NewSealer("abcd")
	require.Error(t, err)
}

package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgeRoundTrip(t *testing.T) {
	pub, priv, err := GenerateAgeKeyPair()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(pub, "age1"))

	derived, err := DerivePublicKey(priv)
	require.NoError(t, err)
	assert.Equal(t, pub, derived)

	sealer, err := NewAgeRecipient(pub)
	require.NoError(t, err)

	report := []byte(" 3  7 12: HELLOWORLD\n")
	sealed, err := sealer.Encrypt(report)
	require.NoError(t, err)
	assert.Contains(t, string(sealed), "-----BEGIN AGE ENCRYPTED FILE-----")
	assert.NotContains(t, string(sealed), "HELLOWORLD")

	_, err = sealer.Decrypt(sealed)
	assert.ErrorIs(t, err, ErrNoIdentity)

	opener, err := NewAge(priv)
	require.NoError(t, err)
	opened, err := opener.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, report, opened)
}

func TestAgeWrongKey(t *testing.T) {
	pub, _, err := GenerateAgeKeyPair()
	require.NoError(t, err)
	_, otherPriv, err := GenerateAgeKeyPair()
	require.NoError(t, err)

	sealer, err := NewAgeRecipient(pub)
	require.NoError(t, err)
	sealed, err := sealer.Encrypt([]byte("secret"))
	require.NoError(t, err)

	opener, err := NewAge(otherPriv)
	require.NoError(t, err)
	_, err = opener.Decrypt(sealed)
	assert.Error(t, err)
}

func TestAgeBadKeys(t *testing.T) {
	_, err := NewAge("not-a-key")
	assert.Error(t, err)
	_, err = NewAgeRecipient("not-a-key")
	assert.Error(t, err)
}

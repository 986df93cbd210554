package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveRSAKeyPair_Deterministic(t *testing.T) {
	// given the same seed
	priv1, pub1, err := DeriveRSAKeyPair("master-secret", "https://notes.example.com")
	require.NoError(t, err)
	priv2, pub2, err := DeriveRSAKeyPair("master-secret", "https://notes.example.com")
	require.NoError(t, err)

	// then both derivations agree
	assert.True(t, priv1.Equal(priv2))
	assert.True(t, pub1.Equal(pub2))
}

func TestDeriveRSAKeyPair_SeedSensitive(t *testing.T) {
	_, pub1, err := DeriveRSAKeyPair("master-secret", "https://notes.example.com")
	require.NoError(t, err)
	_, pub2, err := DeriveRSAKeyPair("other-secret", "https://notes.example.com")
	require.NoError(t, err)

	assert.False(t, pub1.Equal(pub2))
}

func TestDeriveRSAKeyPair_RequiresSeedParts(t *testing.T) {
	_, _, err := DeriveRSAKeyPair("", "https://notes.example.com")
	assert.Error(t, err)

	_, _, err = DeriveRSAKeyPair("master-secret", "")
	assert.Error(t, err)
}

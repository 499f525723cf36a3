package cryptox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

func TestSealOpenRoundTrip(t *testing.T) {
	key, err := GenerateNonce(KeySize)
	require.NoError(t, err)

	in := testPayload{ID: "rec-1", Count: 7}
	ciphertext, nonce, err := Seal(in, key)
	require.NoError(t, err)
	assert.Len(t, nonce, NonceSize)

	var out testPayload
	require.NoError(t, Open(ciphertext, nonce, key, &out))
	assert.Equal(t, in, out)
}

func TestOpenRejectsTamperedCiphertext(t *testing.T) {
	key, err := GenerateNonce(KeySize)
	require.NoError(t, err)

	ciphertext, nonce, err := Seal(testPayload{ID: "x"}, key)
	require.NoError(t, err)

	ciphertext[0] ^= 0xff

	var out testPayload
	assert.Error(t, Open(ciphertext, nonce, key, &out))
}

func TestOpenRejectsWrongKey(t *testing.T) {
	key, err := GenerateNonce(KeySize)
	require.NoError(t, err)
	other, err := GenerateNonce(KeySize)
	require.NoError(t, err)

	ciphertext, nonce, err := Seal(testPayload{ID: "x"}, key)
	require.NoError(t, err)

	var out testPayload
	assert.Error(t, Open(ciphertext, nonce, other, &out))
}

func TestDeriveSessionKeyDeterministic(t *testing.T) {
	secret := []byte("pairing-secret")
	cn, err := GenerateNonce(ChallengeSize)
	require.NoError(t, err)
	sn, err := GenerateNonce(ChallengeSize)
	require.NoError(t, err)

	k1, err := DeriveSessionKey(secret, cn, sn)
	require.NoError(t, err)
	k2, err := DeriveSessionKey(secret, cn, sn)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, KeySize)

	// Different nonce order must give a different key
	k3, err := DeriveSessionKey(secret, sn, cn)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}

func TestProofVerify(t *testing.T) {
	secret := []byte("pairing-secret")
	challenge := []byte("0123456789abcdef")
	response := []byte("fedcba9876543210")

	proof := Proof(secret, challenge, response)
	assert.True(t, VerifyProof(secret, challenge, response, proof))
	assert.False(t, VerifyProof([]byte("other-secret"), challenge, response, proof))
	assert.False(t, VerifyProof(secret, response, challenge, proof))
}

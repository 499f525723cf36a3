// Package cryptox holds the channel cryptography: AES-GCM sealing of JSON
// payloads, HKDF session-key derivation, and HMAC handshake proofs.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the AES-256 session key length.
	KeySize = 32
	// NonceSize is the GCM nonce length.
	NonceSize = 12
	// ChallengeSize is the handshake challenge nonce length.
	ChallengeSize = 16
)

// sessionKeyInfo binds derived keys to this protocol version.
const sessionKeyInfo = "fieldnode-channel-v1"

// GenerateNonce returns n cryptographically random bytes.
func GenerateNonce(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Seal serializes v to JSON and encrypts it with AES-GCM under key.
// A fresh random nonce is generated per call and returned alongside the
// ciphertext.
func Seal(v any, key []byte) (ciphertext, nonce []byte, err error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}

	aead, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	return aead.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// Open decrypts ciphertext with AES-GCM and unmarshals the plaintext JSON
// into v.
func Open(ciphertext, nonce, key []byte, v any) error {
	aead, err := newGCM(key)
	if err != nil {
		return err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return err
	}

	return json.Unmarshal(plaintext, v)
}

// DeriveSessionKey derives a 32-byte session key from the node pair's
// shared secret and both handshake nonces. Both sides compute the same key
// without ever sending it.
func DeriveSessionKey(secret, clientNonce, serverNonce []byte) ([]byte, error) {
	salt := make([]byte, 0, len(clientNonce)+len(serverNonce))
	salt = append(salt, clientNonce...)
	salt = append(salt, serverNonce...)

	key := make([]byte, KeySize)
	r := hkdf.New(sha256.New, secret, salt, []byte(sessionKeyInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Proof computes the handshake proof HMAC-SHA256(secret, challenge||response).
func Proof(secret, challenge, response []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(challenge)
	mac.Write(response)
	return mac.Sum(nil)
}

// VerifyProof checks a handshake proof in constant time.
func VerifyProof(secret, challenge, response, proof []byte) bool {
	return hmac.Equal(Proof(secret, challenge, response), proof)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

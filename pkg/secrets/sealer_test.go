package secrets_test

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/oauthlink/pkg/secrets"
)

func newSealer(t *testing.T, purpose string) (*secrets.Sealer, []byte) {
	t.Helper()
	key, err := secrets.GenerateKey()
	require.NoError(t, err)
	s, err := secrets.NewSealer(key, purpose)
	require.NoError(t, err)
	return s, key
}

func TestSealer_RoundTrip(t *testing.T) {
	t.Parallel()

	s, _ := newSealer(t, "provider-tokens")

	tests := []struct {
		name  string
		plain string
	}{
		{"short token", "ya29.a0Af"},
		{"unicode", "тайна-🔑"},
		{"long token", strings.Repeat("x", 4096)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ct, err := s.Seal(tt.plain, "google:1")
			require.NoError(t, err)
			assert.True(t, secrets.IsSealed(ct))
			assert.NotContains(t, ct, tt.plain)

			got, err := s.Open(ct, "google:1")
			require.NoError(t, err)
			assert.Equal(t, tt.plain, got)
		})
	}
}

func TestSealer_NonceIsRandom(t *testing.T) {
	t.Parallel()

	s, _ := newSealer(t, "provider-tokens")
	a, err := s.Seal("same", "k")
	require.NoError(t, err)
	b, err := s.Seal("same", "k")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSealer_EmptyAndPlainValues(t *testing.T) {
	t.Parallel()

	s, _ := newSealer(t, "provider-tokens")

	ct, err := s.Seal("", "k")
	require.NoError(t, err)
	assert.Empty(t, ct)

	got, err := s.Open("legacy-plaintext", "k")
	require.NoError(t, err)
	assert.Equal(t, "legacy-plaintext", got)
}

func TestSealer_Failures(t *testing.T) {
	t.Parallel()

	s, key := newSealer(t, "provider-tokens")
	ct, err := s.Seal("token", "google:1")
	require.NoError(t, err)

	t.Run("wrong associated data", func(t *testing.T) {
		t.Parallel()
		_, err := s.Open(ct, "google:2")
		assert.ErrorIs(t, err, secrets.ErrDecryptionFailed)
	})

	t.Run("different purpose", func(t *testing.T) {
		t.Parallel()
		other, err := secrets.NewSealer(key, "something-else")
		require.NoError(t, err)
		_, err = other.Open(ct, "google:1")
		assert.ErrorIs(t, err, secrets.ErrDecryptionFailed)
	})

	t.Run("truncated ciphertext", func(t *testing.T) {
		t.Parallel()
		_, err := s.Open("sealed:v1:AAAA", "google:1")
		assert.ErrorIs(t, err, secrets.ErrInvalidCiphertext)
	})

	t.Run("bad encoding", func(t *testing.T) {
		t.Parallel()
		_, err := s.Open("sealed:v1:***", "google:1")
		assert.ErrorIs(t, err, secrets.ErrInvalidCiphertext)
	})

	t.Run("short key", func(t *testing.T) {
		t.Parallel()
		_, err := secrets.NewSealer([]byte("short"), "p")
		assert.ErrorIs(t, err, secrets.ErrInvalidKey)
	})
}

func TestParseKey(t *testing.T) {
	t.Parallel()

	key, err := secrets.GenerateKey()
	require.NoError(t, err)

	for name, encoded := range map[string]string{
		"base64":     base64.StdEncoding.EncodeToString(key),
		"base64url":  base64.RawURLEncoding.EncodeToString(key),
		"hex":        hex.EncodeToString(key),
		"whitespace": "  " + hex.EncodeToString(key) + "\n",
	} {
		got, err := secrets.ParseKey(encoded)
		require.NoError(t, err, name)
		assert.Equal(t, key, got, name)
	}

	_, err = secrets.ParseKey("too-short")
	assert.ErrorIs(t, err, secrets.ErrInvalidKey)
}

package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "6368616e676520746869732070617373776f726420746f206120736563726574"

func TestNew_KeyValidation(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "valid 64 hex chars", key: testKey, wantErr: false},
		{name: "empty key", key: "", wantErr: true},
		{name: "too short", key: "abcd1234", wantErr: true},
		{name: "right length but not hex", key: strings.Repeat("zz", 32), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCipher_RoundTrip(t *testing.T) {
	c, err := New(testKey)
	require.NoError(t, err)

	for _, plaintext := range []string{"P1234567", "X", "passport AB-99", "日本国旅券 TZ1182731"} {
		sealed, err := c.Encrypt(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, sealed)

		opened, err := c.Decrypt(sealed)
		require.NoError(t, err)
		assert.Equal(t, plaintext, opened)
	}
}

func TestCipher_NonceIsFresh(t *testing.T) {
	c, err := New(testKey)
	require.NoError(t, err)

	first, err := c.Encrypt("P1234567")
	require.NoError(t, err)
	second, err := c.Encrypt("P1234567")
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "same plaintext must not produce the same ciphertext")
}

func TestCipher_EmptyPlaintextRejected(t *testing.T) {
	c, err := New(testKey)
	require.NoError(t, err)
	_, err = c.Encrypt("")
	assert.Error(t, err)
}

func TestCipher_DecryptFailures(t *testing.T) {
	c, err := New(testKey)
	require.NoError(t, err)

	t.Run("not base64", func(t *testing.T) {
		_, err := c.Decrypt("%%%not-base64%%%")
		assert.Error(t, err)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := c.Decrypt("AAAA")
		assert.Error(t, err)
	})

	t.Run("tampered", func(t *testing.T) {
		sealed, err := c.Encrypt("P1234567")
		require.NoError(t, err)
		tampered := "A" + sealed[1:]
		if tampered == sealed {
			tampered = "B" + sealed[1:]
		}
		_, err = c.Decrypt(tampered)
		assert.Error(t, err)
	})
}

func TestCipher_DecryptOrMask_DegradesToMask(t *testing.T) {
	c, err := New(testKey)
	require.NoError(t, err)

	t.Run("valid ciphertext decrypts", func(t *testing.T) {
		sealed, err := c.Encrypt("P1234567")
		require.NoError(t, err)
		assert.Equal(t, "P1234567", c.DecryptOrMask(sealed))
	})

	t.Run("legacy garbage masks instead of failing", func(t *testing.T) {
		out := c.DecryptOrMask("legacy-plaintext-row")
		assert.True(t, strings.HasPrefix(out, "********"))
		assert.NotContains(t, out, "legacy-plaintext")
	})
}

func TestMask(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "long value keeps last four", value: "AB1234567", want: "********4567"},
		{name: "exactly four", value: "1234", want: "********1234"},
		{name: "shorter than suffix", value: "12", want: "********12"},
		{name: "empty", value: "", want: "********"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Mask(tt.value))
		})
	}
}

func TestMask_NeverRevealsMoreThanSuffix(t *testing.T) {
	value := "SENSITIVE-DOCUMENT-NUMBER-0001"
	masked := Mask(value)
	assert.NotContains(t, masked, value[:len(value)-visibleSuffix])
	assert.Len(t, masked, maskWidth+visibleSuffix)
}

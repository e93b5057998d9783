package chat

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func testCipher(t *testing.T) *Cipher {
	t.Helper()
	key := bytes.Repeat([]byte{0x42}, 32)
	iv := bytes.Repeat([]byte{0x17}, 16)
	c, err := NewCipher(key, iv)
	require.NoError(t, err)
	return c
}

func TestCipherRoundTrip(t *testing.T) {
	c := testCipher(t)
	for _, plaintext := range []string{
		"hello",
		"",
		"multi\nline\tmessage",
		"emoji \U0001F4A1 and accents éü",
	} {
		ciphertext := c.Encrypt(plaintext)
		if plaintext != "" {
			require.NotEqual(t, []byte(plaintext), ciphertext)
		}
		require.Equal(t, plaintext, c.Decrypt(ciphertext))
	}
}

func TestCipherRejectsBadKey(t *testing.T) {
	_, err := NewCipher([]byte("short"), bytes.Repeat([]byte{0}, 16))
	require.Error(t, err)
}

func TestCipherOutputHidesPlaintext(t *testing.T) {
	c := testCipher(t)
	ciphertext := c.Encrypt("hunter2 hunter2 hunter2")
	require.NotContains(t, string(ciphertext), "hunter2")
}

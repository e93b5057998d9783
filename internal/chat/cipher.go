package chat

import (
	"crypto/aes"
	"crypto/cipher"
)

// Cipher encrypts chat messages at rest with a process-wide AES key and
// a fixed IV. Every deployment shares one key/IV pair; plaintext is never
// persisted.
type Cipher struct {
	block cipher.Block
	iv    []byte
}

// NewCipher builds a cipher from a 32-byte key and 16-byte IV.
func NewCipher(key, iv []byte) (*Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &Cipher{block: block, iv: iv}, nil
}

// Encrypt returns the CFB ciphertext of plaintext.
func (c *Cipher) Encrypt(plaintext string) []byte {
	src := []byte(plaintext)
	dst := make([]byte, len(src))
	cipher.NewCFBEncrypter(c.block, c.iv).XORKeyStream(dst, src)
	return dst
}

// Decrypt reverses Encrypt.
func (c *Cipher) Decrypt(ciphertext []byte) string {
	dst := make([]byte, len(ciphertext))
	cipher.NewCFBDecrypter(c.block, c.iv).XORKeyStream(dst, ciphertext)
	return string(dst)
}

package service

import (
	"crypto/aes"
	"crypto/cipher"

	cryptoDomain "github.com/incomeclarity/vault/internal/crypto/domain"
	apperrors "github.com/incomeclarity/vault/internal/errors"
)

// aesCBC implements the unauthenticated AES-256-CBC variant with PKCS#7
// padding. It exists for callers that need ciphertext compatibility with
// systems that cannot handle GCM; it provides confidentiality only.
type aesCBC struct {
	block cipher.Block
}

func newAESCBC(key []byte) (*aesCBC, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create AES cipher")
	}

	return &aesCBC{block: block}, nil
}

// Encrypt pads plaintext to the block size and encrypts it with the given
// 16-byte IV.
func (c *aesCBC) Encrypt(iv, plaintext []byte) ([]byte, error) {
	if len(iv) != aes.BlockSize {
		return nil, cryptoDomain.ErrInvalidField
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(ciphertext, padded)
	return ciphertext, nil
}

// Decrypt decrypts ciphertext and strips the padding. Malformed input or bad
// padding is reported as ErrDecryptionFailed; without a tag there is no way
// to tell corruption from a wrong key.
func (c *aesCBC) Decrypt(iv, ciphertext []byte) ([]byte, error) {
	if len(iv) != aes.BlockSize || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(plaintext, ciphertext)
	return pkcs7Unpad(plaintext, aes.BlockSize)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padding)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padding)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, cryptoDomain.ErrDecryptionFailed
		}
	}
	return data[:len(data)-padding], nil
}

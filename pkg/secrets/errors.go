package secrets

import "errors"

var (
	// Key errors
	ErrInvalidKey          = errors.New("secrets: key must be 32 bytes")
	ErrKeyDerivationFailed = errors.New("secrets: key derivation failed")

	// Sealing errors
	ErrEncryptionFailed  = errors.New("secrets: encryption failed")
	ErrDecryptionFailed  = errors.New("secrets: decryption failed")
	ErrInvalidCiphertext = errors.New("secrets: invalid ciphertext format")
)

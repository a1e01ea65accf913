// Package secrets seals provider tokens before they are written to a vault.
//
// A single 32-byte master key is expanded with HKDF-SHA-256 into a
// purpose-bound AES-256 key, which is used in GCM mode. Each sealed value
// carries its own random nonce and is bound to caller-supplied associated
// data (the vaults use the provider link key), so a token copied onto another
// row fails to open.
//
// # Usage
//
//	key, err := secrets.ParseKey(cfg.SealKey)
//	if err != nil {
//	    return err
//	}
//	sealer, err := secrets.NewSealer(key, "provider-tokens")
//	if err != nil {
//	    return err
//	}
//
//	ct, err := sealer.Seal(accessToken, "google:1234")
//	plain, err := sealer.Open(ct, "google:1234")
//
// Values that do not carry the sealed prefix pass through Open unchanged,
// which lets a deployment enable sealing on an existing database.
//
// # Error Handling
//
// Errors wrap sentinels such as ErrInvalidKey, ErrDecryptionFailed and
// ErrInvalidCiphertext. Use errors.Is to match them.
package secrets

// Package adaptive provides adaptive encryption for the stream coordinator.
//
// This package implements a cipher abstraction that automatically
// selects the best available encryption algorithm based on hardware
// capabilities and security requirements.
//
// Supported Algorithms:
//
//   - AES-256-GCM: Selected by New on amd64 and arm64
//   - ChaCha20-Poly1305: Selected by New on every other GOARCH
//
// Features:
//
//   - Platform Selection: New chooses by GOARCH; CPU features are not probed
//   - AEAD: Authenticated encryption with associated data
//   - Raw Keys: keys are used as given; there is no key derivation
//   - Thread Safety: All cipher operations are thread-safe
//
// Usage:
//
//	cipher, err := adaptive.New(key)
//	encrypted, err := cipher.Encrypt(plaintext, aad)
//	plaintext, err := cipher.Decrypt(encrypted, aad)
//
package adaptive

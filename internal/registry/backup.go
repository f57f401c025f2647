package registry

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"

	"github.com/yndnr/streamcoord-go/internal/cluster"
	"github.com/yndnr/streamcoord-go/pkg/crypto/adaptive"
)

const saltSize = 32

// backupEnvelope is the on-disk shape of an encrypted registry export. The
// teacher's own snapshot/encrypt.go derived a fresh key from a passphrase
// on every call without storing the salt it used, so its own output could
// never be decrypted again. Salt is carried in the envelope here instead,
// fixing that.
type backupEnvelope struct {
	Salt       []byte `json:"salt"`
	Ciphertext []byte `json:"ciphertext"`
}

// Export produces an encrypted, passphrase-protected snapshot of every
// stream config currently in the registry.
func Export(r *Badger, passphrase string) ([]byte, error) {
	streams, err := r.List(context.Background())
	if err != nil {
		return nil, fmt.Errorf("registry export: list: %w", err)
	}

	plaintext, err := json.Marshal(streams)
	if err != nil {
		return nil, fmt.Errorf("registry export: marshal: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("registry export: generate salt: %w", err)
	}

	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, fmt.Errorf("registry export: derive key: %w", err)
	}

	cipher, err := adaptive.NewChaCha20(key)
	if err != nil {
		return nil, fmt.Errorf("registry export: create cipher: %w", err)
	}

	ciphertext, err := cipher.Encrypt(plaintext, nil)
	if err != nil {
		return nil, fmt.Errorf("registry export: encrypt: %w", err)
	}

	return json.Marshal(backupEnvelope{Salt: salt, Ciphertext: ciphertext})
}

// Import decrypts a snapshot produced by Export and declares every stream
// in it into the registry, overwriting any existing entry with the same
// stream id.
func Import(r *Badger, passphrase string, data []byte) error {
	var env backupEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("registry import: unmarshal envelope: %w", err)
	}

	key, err := deriveKey(passphrase, env.Salt)
	if err != nil {
		return fmt.Errorf("registry import: derive key: %w", err)
	}

	cipher, err := adaptive.NewChaCha20(key)
	if err != nil {
		return fmt.Errorf("registry import: create cipher: %w", err)
	}

	plaintext, err := cipher.Decrypt(env.Ciphertext, nil)
	if err != nil {
		return fmt.Errorf("registry import: decrypt: %w", err)
	}

	var streams []cluster.StreamConfig
	if err := json.Unmarshal(plaintext, &streams); err != nil {
		return fmt.Errorf("registry import: unmarshal streams: %w", err)
	}

	for _, conf := range streams {
		if err := r.put(streamKey(conf.Stream), conf); err != nil {
			return fmt.Errorf("registry import: declare %s: %w", conf.Stream, err)
		}
	}
	return nil
}

func deriveKey(passphrase string, salt []byte) ([]byte, error) {
	key := make([]byte, 32)
	kdf := hkdf.New(sha3.New256, []byte(passphrase), salt, []byte("streamcoord-registry-backup"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, err
	}
	return key, nil
}

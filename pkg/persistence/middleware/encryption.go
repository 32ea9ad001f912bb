package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
	"github.com/edisonylee/turbocommerce-sub001/pkg/ports"
)

// ErrNotSealed is returned when an encrypting store loads a plain recording.
var ErrNotSealed = errors.New("recording is not sealed")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	ports.RecordingStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals the captured bytes
// of a recording (fetch values and stream events) with AES-GCM. Request
// metadata, section outcomes and timings stay readable for listing and
// inspection.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.RecordingStore) ports.RecordingStore {
		return &encryptionMiddleware{RecordingStore: next, config: config}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, rec *domain.Recording) error {
	sealed := *rec
	sealed.Sealed = true
	sealed.Fetches = slices.Clone(rec.Fetches)
	sealed.Events = slices.Clone(rec.Events)

	for i := range sealed.Fetches {
		ct, err := encrypt(sealed.Fetches[i].Value, m.config.ActiveKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt fetch %d: %w", i, err)
		}
		sealed.Fetches[i].Value = ct
	}
	for i := range sealed.Events {
		ct, err := encrypt(sealed.Events[i].Bytes, m.config.ActiveKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt event %d: %w", i, err)
		}
		sealed.Events[i].Bytes = ct
	}
	return m.RecordingStore.Save(ctx, &sealed)
}

func (m *encryptionMiddleware) Load(ctx context.Context, id domain.RequestID) (*domain.Recording, error) {
	rec, err := m.RecordingStore.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rec.Sealed {
		return nil, fmt.Errorf("%w: %s", ErrNotSealed, id)
	}

	for i := range rec.Fetches {
		plain, err := decryptWithRotation(rec.Fetches[i].Value, m.config.ActiveKey, m.config.FallbackKeys)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt fetch %d: %w", i, err)
		}
		rec.Fetches[i].Value = plain
	}
	for i := range rec.Events {
		plain, err := decryptWithRotation(rec.Events[i].Bytes, m.config.ActiveKey, m.config.FallbackKeys)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt event %d: %w", i, err)
		}
		rec.Events[i].Bytes = plain
	}
	rec.Sealed = false
	return rec, nil
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	plain, err := open(ciphertext, key)
	if len(plain) == 0 {
		// Empty payloads decode as nil.
		plain = nil
	}
	return plain, err
}

func open(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}

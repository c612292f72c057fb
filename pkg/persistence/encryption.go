package persistence

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/nullvoyager/voyager/pkg/domain"
)

// ErrInvalidKey is returned when an encryption key is not 32 bytes long.
var ErrInvalidKey = errors.New("encryption key must be 32 bytes (AES-256)")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

// envelope is the stored form of an encrypted record.
type envelope struct {
	Encrypted string `json:"__encrypted__"`
}

type encryptionCodec struct {
	inner  Codec
	config EncryptionConfig
}

// NewEncryptionCodec wraps a codec with AES-GCM encryption.
// The inner codec's output is sealed and stored inside a JSON envelope.
func NewEncryptionCodec(inner Codec, config EncryptionConfig) (Codec, error) {
	if len(config.ActiveKey) != 32 {
		return nil, ErrInvalidKey
	}
	for i, k := range config.FallbackKeys {
		if len(k) != 32 {
			return nil, fmt.Errorf("fallback key %d: %w", i, ErrInvalidKey)
		}
	}
	if inner == nil {
		inner = JSON
	}
	return &encryptionCodec{inner: inner, config: config}, nil
}

// DecodeKey parses a base64 (standard encoding) AES-256 key.
func DecodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode key base64: %w", err)
	}
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}
	return key, nil
}

func (c *encryptionCodec) Encode(state *domain.VoyagerState) ([]byte, error) {
	plainText, err := c.inner.Encode(state)
	if err != nil {
		return nil, err
	}

	ciphertext, err := encrypt(plainText, c.config.ActiveKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt state: %w", err)
	}

	return json.Marshal(envelope{Encrypted: base64.StdEncoding.EncodeToString(ciphertext)})
}

func (c *encryptionCodec) Decode(data []byte) (*domain.VoyagerState, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Encrypted == "" {
		// Fail secure: plain records are not accepted once encryption is on.
		return nil, errors.New("state is missing encrypted data envelope")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(env.Encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, c.config.ActiveKey, c.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt state: %w", err)
	}

	return c.inner.Decode(plainText)
}

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
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
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

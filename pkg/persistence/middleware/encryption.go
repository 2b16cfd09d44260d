package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

// encryptedPrefix marks a prompt field that carries ciphertext instead of text.
const encryptedPrefix = "__enc__:"

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
	next   ports.ThreadStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals the prompt text of
// every record with AES-GCM before it reaches the underlying store. Graph
// name, timestamps and turn counts stay in the clear so listing and
// monitoring keep working.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.ThreadStore) ports.ThreadStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, threadID string, rec *domain.ThreadRecord) error {
	if rec.LastPrompt == "" {
		return m.next.Save(ctx, threadID, rec)
	}

	ciphertext, err := encrypt([]byte(rec.LastPrompt), m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt prompt: %w", err)
	}

	// Clone so the caller's in-memory record keeps its plaintext.
	sealed := *rec
	sealed.LastPrompt = encryptedPrefix + base64.StdEncoding.EncodeToString(ciphertext)

	return m.next.Save(ctx, threadID, &sealed)
}

func (m *encryptionMiddleware) Load(ctx context.Context, threadID string) (*domain.ThreadRecord, error) {
	rec, err := m.next.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}

	if rec.LastPrompt == "" {
		return rec, nil
	}

	// A populated prompt without the marker was written unencrypted.
	// Fail secure instead of serving it.
	if !strings.HasPrefix(rec.LastPrompt, encryptedPrefix) {
		return nil, errors.New("thread record is missing encrypted prompt marker")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(rec.LastPrompt, encryptedPrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt prompt: %w", err)
	}

	opened := *rec
	opened.LastPrompt = string(plainText)
	return &opened, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, threadID string) error {
	return m.next.Delete(ctx, threadID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
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
	// Try active key first
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	// Try fallbacks in order
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
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
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}

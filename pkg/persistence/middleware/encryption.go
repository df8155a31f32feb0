package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/meshed/agentgraph/pkg/ports"
)

// EnvelopeField is the only field of an encrypted record's final state.
const EnvelopeField = "__encrypted__"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey seals new records. Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys open records sealed before a key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.RunStore
	active cipher.AEAD
	// open lists the active key first, then the fallbacks.
	open []cipher.AEAD
}

// NewEncryptionMiddleware creates a middleware that seals run records with AES-GCM.
// The stored envelope keeps ID, workflow, timestamps and step count in clear for
// listing. The run ID is bound as additional data, so an envelope copied under
// another ID fails to open.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	active, err := newGCM(config.ActiveKey)
	if err != nil {
		panic(err)
	}
	open := []cipher.AEAD{active}
	for _, key := range config.FallbackKeys {
		if aead, err := newGCM(key); err == nil {
			open = append(open, aead)
		}
	}

	return func(next ports.RunStore) ports.RunStore {
		return &encryptionMiddleware{next: next, active: active, open: open}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, record *domain.RunRecord) error {
	plain, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	nonce := make([]byte, m.active.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to encrypt run record: %w", err)
	}
	sealed := m.active.Seal(nonce, nonce, plain, []byte(record.ID))

	return m.next.Save(ctx, &domain.RunRecord{
		ID:         record.ID,
		Workflow:   record.Workflow,
		StartedAt:  record.StartedAt,
		FinishedAt: record.FinishedAt,
		Steps:      record.Steps,
		Final: domain.NewState(map[string]any{
			EnvelopeField: base64.StdEncoding.EncodeToString(sealed),
		}),
	})
}

func (m *encryptionMiddleware) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	envelope, err := m.next.Load(ctx, runID)
	if err != nil {
		return nil, err
	}

	// Records saved before encryption was enabled are rejected.
	encoded, ok := envelope.Final.GetString(EnvelopeField)
	if !ok {
		return nil, errors.New("run record is missing encrypted data envelope")
	}
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plain, err := m.unseal(sealed, []byte(runID))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt run %s: %w", runID, err)
	}

	var record domain.RunRecord
	if err := json.Unmarshal(plain, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted run record: %w", err)
	}
	return &record, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, runID string) error {
	return m.next.Delete(ctx, runID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *encryptionMiddleware) unseal(sealed, runID []byte) ([]byte, error) {
	for _, aead := range m.open {
		n := aead.NonceSize()
		if len(sealed) < n {
			return nil, errors.New("ciphertext too short")
		}
		if plain, err := aead.Open(nil, sealed[:n], sealed[n:], runID); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("no key opens the envelope")
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

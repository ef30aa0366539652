package service

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	KeyPolicyRequestID = "request_id"
	KeyPolicyToken     = "token"
)

// KeyGenerator picks the store key for a new pass.
type KeyGenerator interface {
	Key(requestID string, createdAt time.Time) (string, error)
}

// NewKeyGenerator returns the generator for policy. An empty policy means
// KeyPolicyRequestID.
func NewKeyGenerator(policy string) (KeyGenerator, error) {
	switch policy {
	case "", KeyPolicyRequestID:
		return requestIDKeys{}, nil
	case KeyPolicyToken:
		return tokenKeys{random: uuid.NewRandom}, nil
	default:
		return nil, fmt.Errorf("unknown key policy %q", policy)
	}
}

// requestIDKeys uses the caller's request id verbatim, so a repeated id
// overwrites the earlier pass.
type requestIDKeys struct{}

func (requestIDKeys) Key(requestID string, _ time.Time) (string, error) {
	return requestID, nil
}

// tokenKeys derives an unguessable URL-safe key from fresh randomness, the
// request id and the creation time.
type tokenKeys struct {
	random func() (uuid.UUID, error)
}

func (g tokenKeys) Key(requestID string, createdAt time.Time) (string, error) {
	id, err := g.random()
	if err != nil {
		return "", fmt.Errorf("generate token entropy: %w", err)
	}

	h := sha256.New()
	h.Write(id[:])
	h.Write([]byte(requestID))
	h.Write([]byte(createdAt.UTC().Format(time.RFC3339Nano)))

	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)), nil
}

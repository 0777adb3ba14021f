// Package token signs and verifies the stateless report-signup token:
// base64url(json payload) "." base64url(HMAC-SHA256(payload)).
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DevSecret is used when no secret of at least MinSecretLen bytes is configured
// outside production.
const DevSecret = "report-dev-secret-change-in-production"

// MinSecretLen is the shortest secret accepted as configured.
const MinSecretLen = 16

// DefaultTTL is the lifetime attached to every signed token.
const DefaultTTL = 2 * time.Hour

const separator = "."

var (
	// ErrInvalid is returned for malformed, tampered or expired tokens.
	ErrInvalid = errors.New("invalid token")
	// ErrWeakSecret is returned by NewCodec in production when the secret is missing or short.
	ErrWeakSecret = errors.New("token secret not configured")
)

// Payload is the signed content. Exp is unix seconds.
type Payload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Addr  string `json:"address"`
	Phone string `json:"phone,omitempty"`
	Exp   int64  `json:"exp"`
}

// Codec signs and verifies tokens with a server-held secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec returns a Codec. A secret shorter than MinSecretLen is replaced by
// DevSecret unless production is true, in which case ErrWeakSecret is returned.
func NewCodec(secret string, ttl time.Duration, production bool) (*Codec, error) {
	if len(secret) < MinSecretLen {
		if production {
			return nil, ErrWeakSecret
		}
		secret = DevSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Codec{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Sign stamps p with a fresh expiry and returns the encoded token.
func (c *Codec) Sign(p Payload) (string, error) {
	p.Exp = c.now().Add(c.ttl).Unix()
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal token payload: %w", err)
	}
	enc := base64.RawURLEncoding
	return enc.EncodeToString(data) + separator + enc.EncodeToString(c.mac(data)), nil
}

// Verify returns the payload of a well-formed, untampered, unexpired token.
func (c *Codec) Verify(tok string) (*Payload, error) {
	parts := strings.Split(tok, separator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, ErrInvalid
	}
	enc := base64.RawURLEncoding
	data, err := enc.DecodeString(parts[0])
	if err != nil {
		return nil, ErrInvalid
	}
	sig, err := enc.DecodeString(parts[1])
	if err != nil {
		return nil, ErrInvalid
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, ErrInvalid
	}
	if p.Exp <= c.now().Unix() {
		return nil, ErrInvalid
	}
	expected := c.mac(data)
	if len(sig) != len(expected) || !hmac.Equal(sig, expected) {
		return nil, ErrInvalid
	}
	return &p, nil
}

func (c *Codec) mac(data []byte) []byte {
	h := hmac.New(sha256.New, c.secret)
	h.Write(data)
	return h.Sum(nil)
}

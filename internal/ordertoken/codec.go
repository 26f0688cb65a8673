package ordertoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"
)

const (
	DefaultTTL = 10 * time.Minute

	// MinSecretLength is the shortest configuration secret accepted.
	MinSecretLength = 32

	separator = "."
	keyInfo   = "order-token v1"
	keySize   = 32
)

var payloadEncoding = base64.RawURLEncoding

// Codec is safe for concurrent use; it holds no mutable state.
type Codec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

type Option func(*Codec)

func WithTTL(ttl time.Duration) Option {
	return func(c *Codec) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now for Mint and Verify.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec derives the MAC key from secret with HKDF-SHA256. The secret
// itself is not retained.
func NewCodec(secret []byte, opts ...Option) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}

	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("ordertoken: deriving key: %w", err)
	}

	c := &Codec{
		key: key,
		ttl: DefaultTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Codec) TTL() time.Duration {
	return c.ttl
}

func (c *Codec) Mint(cartID int64, sessionID string) (string, error) {
	return c.MintAt(cartID, sessionID, c.now())
}

// MintAt is like Mint but uses an explicit issue time.
func (c *Codec) MintAt(cartID int64, sessionID string, now time.Time) (string, error) {
	if cartID <= 0 || sessionID == "" {
		return "", ErrInvalidBinding
	}

	issuedAt := now.Unix()
	raw, err := json.Marshal(Payload{
		CartID:       cartID,
		SessionToken: sessionID,
		IssuedAt:     issuedAt,
		ExpiresAt:    issuedAt + int64(c.ttl/time.Second),
	})
	if err != nil {
		return "", fmt.Errorf("ordertoken: encoding payload: %w", err)
	}

	encoded := payloadEncoding.EncodeToString(raw)
	return encoded + separator + c.sign(encoded), nil
}

func (c *Codec) Verify(token string, cartID int64, sessionID string) (*Payload, error) {
	return c.VerifyAt(token, cartID, sessionID, c.now())
}

// VerifyAt checks, in order: shape, signature, payload schema, expiry,
// cart binding, session binding. No payload field is read before the
// signature has been confirmed.
func (c *Codec) VerifyAt(token string, cartID int64, sessionID string, now time.Time) (*Payload, error) {
	encoded, signature, err := split(token)
	if err != nil {
		return nil, err
	}

	expected := c.sign(encoded)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return nil, ErrSignatureMismatch
	}

	raw, err := payloadEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: payload encoding", ErrMalformed)
	}
	payload, err := decodePayload(raw)
	if err != nil {
		return nil, err
	}

	if now.Unix() > payload.ExpiresAt {
		return nil, ErrExpired
	}
	if payload.CartID != cartID {
		return nil, ErrCartMismatch
	}
	if payload.SessionToken != sessionID {
		return nil, ErrSessionMismatch
	}

	return payload, nil
}

// Signature returns the signature part of a token. Only meaningful for
// tokens that already passed Verify.
func Signature(token string) string {
	_, signature, err := split(token)
	if err != nil {
		return ""
	}
	return signature
}

func (c *Codec) sign(encoded string) string {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(encoded))
	return hex.EncodeToString(mac.Sum(nil))
}

func split(token string) (string, string, error) {
	if strings.Count(token, separator) != 1 {
		return "", "", ErrMalformed
	}
	encoded, signature, _ := strings.Cut(token, separator)
	if encoded == "" || signature == "" {
		return "", "", ErrMalformed
	}
	return encoded, signature, nil
}

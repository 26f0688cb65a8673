package ordertoken

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Payload is the signed content of an order token.
type Payload struct {
	CartID       int64  `json:"cart_id"`
	SessionToken string `json:"session_token"`
	IssuedAt     int64  `json:"ts"`
	ExpiresAt    int64  `json:"exp"`
}

// wirePayload detects absent fields; a zero value is not the same as a
// missing one.
type wirePayload struct {
	CartID       *int64  `json:"cart_id"`
	SessionToken *string `json:"session_token"`
	IssuedAt     *int64  `json:"ts"`
	ExpiresAt    *int64  `json:"exp"`
}

func decodePayload(raw []byte) (*Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var w wirePayload
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after payload", ErrMalformed)
	}

	if w.CartID == nil || w.SessionToken == nil || w.IssuedAt == nil || w.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing payload field", ErrMalformed)
	}
	if *w.CartID <= 0 || *w.SessionToken == "" {
		return nil, fmt.Errorf("%w: empty binding", ErrMalformed)
	}
	if *w.ExpiresAt <= *w.IssuedAt {
		return nil, fmt.Errorf("%w: expiry not after issue time", ErrMalformed)
	}

	return &Payload{
		CartID:       *w.CartID,
		SessionToken: *w.SessionToken,
		IssuedAt:     *w.IssuedAt,
		ExpiresAt:    *w.ExpiresAt,
	}, nil
}

package ordertoken

import (
	"encoding/hex"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef-test")

func newTestCodec(t *testing.T, opts ...Option) *Codec {
	t.Helper()
	c, err := NewCodec(testSecret, opts...)
	require.NoError(t, err)
	return c
}

func TestNewCodec_WeakSecret(t *testing.T) {
	_, err := NewCodec([]byte("short"))
	assert.ErrorIs(t, err, ErrWeakSecret)

	_, err = NewCodec(nil)
	assert.ErrorIs(t, err, ErrWeakSecret)
}

func TestMint_RoundTrip(t *testing.T) {
	c := newTestCodec(t)

	cases := []struct {
		cartID  int64
		session string
	}{
		{1, "a"},
		{42, "sess-0f3a9c"},
		{9007199254740993, "session with spaces and ünïcode"},
		{7, strings.Repeat("x", 512)},
	}

	for _, tc := range cases {
		token, err := c.Mint(tc.cartID, tc.session)
		require.NoError(t, err)

		payload, err := c.Verify(token, tc.cartID, tc.session)
		require.NoError(t, err)
		assert.Equal(t, tc.cartID, payload.CartID)
		assert.Equal(t, tc.session, payload.SessionToken)
		assert.Equal(t, payload.IssuedAt+600, payload.ExpiresAt)
	}
}

func TestMint_InvalidBinding(t *testing.T) {
	c := newTestCodec(t)

	_, err := c.Mint(0, "session")
	assert.ErrorIs(t, err, ErrInvalidBinding)

	_, err = c.Mint(5, "")
	assert.ErrorIs(t, err, ErrInvalidBinding)
}

func TestMint_WireFormat(t *testing.T) {
	c := newTestCodec(t)
	issued := time.Unix(1_700_000_000, 0)

	token, err := c.MintAt(5, "A", issued)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 2)

	raw, err := payloadEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"cart_id":5,"session_token":"A","ts":1700000000,"exp":1700000600}`, string(raw))

	sig, err := hex.DecodeString(parts[1])
	require.NoError(t, err)
	assert.Len(t, sig, 32)
}

func TestMint_FreshTokenPerCall(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	c := newTestCodec(t, WithClock(func() time.Time { return clock }))

	first, err := c.Mint(5, "A")
	require.NoError(t, err)
	clock = clock.Add(time.Second)
	second, err := c.Mint(5, "A")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerify_PayloadBitFlip(t *testing.T) {
	c := newTestCodec(t)
	token, err := c.Mint(5, "A")
	require.NoError(t, err)

	encoded, signature, err := split(token)
	require.NoError(t, err)
	raw, err := payloadEncoding.DecodeString(encoded)
	require.NoError(t, err)

	for i := 0; i < len(raw)*8; i++ {
		tampered := append([]byte(nil), raw...)
		tampered[i/8] ^= 1 << (i % 8)
		forged := payloadEncoding.EncodeToString(tampered) + "." + signature

		_, err := c.Verify(forged, 5, "A")
		require.ErrorIs(t, err, ErrSignatureMismatch, "bit %d", i)
	}
}

func TestVerify_SignatureBitFlip(t *testing.T) {
	c := newTestCodec(t)
	token, err := c.Mint(5, "A")
	require.NoError(t, err)

	encoded, signature, err := split(token)
	require.NoError(t, err)
	sig, err := hex.DecodeString(signature)
	require.NoError(t, err)

	for i := 0; i < len(sig)*8; i++ {
		tampered := append([]byte(nil), sig...)
		tampered[i/8] ^= 1 << (i % 8)
		forged := encoded + "." + hex.EncodeToString(tampered)

		_, err := c.Verify(forged, 5, "A")
		require.ErrorIs(t, err, ErrSignatureMismatch, "bit %d", i)
	}
}

func TestVerify_SignatureCaseAndLength(t *testing.T) {
	c := newTestCodec(t)
	token, err := c.Mint(5, "A")
	require.NoError(t, err)
	encoded, signature, err := split(token)
	require.NoError(t, err)

	_, err = c.Verify(encoded+"."+strings.ToUpper(signature), 5, "A")
	assert.ErrorIs(t, err, ErrSignatureMismatch)

	_, err = c.Verify(encoded+"."+signature[:len(signature)-2], 5, "A")
	assert.ErrorIs(t, err, ErrSignatureMismatch)

	_, err = c.Verify(encoded+"."+signature+"00", 5, "A")
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestVerify_DifferentSecret(t *testing.T) {
	c := newTestCodec(t)
	other, err := NewCodec([]byte("fedcba9876543210fedcba9876543210-other"))
	require.NoError(t, err)

	token, err := other.Mint(5, "A")
	require.NoError(t, err)

	_, err = c.Verify(token, 5, "A")
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestVerify_Expiry(t *testing.T) {
	c := newTestCodec(t)
	issued := time.Unix(1_700_000_000, 0)

	token, err := c.MintAt(5, "A", issued)
	require.NoError(t, err)

	_, err = c.VerifyAt(token, 5, "A", issued.Add(599*time.Second))
	assert.NoError(t, err)

	// expiry is inclusive
	_, err = c.VerifyAt(token, 5, "A", issued.Add(600*time.Second))
	assert.NoError(t, err)

	_, err = c.VerifyAt(token, 5, "A", issued.Add(601*time.Second))
	assert.ErrorIs(t, err, ErrExpired)

	_, err = c.VerifyAt(token, 5, "A", issued.Add(11*time.Minute))
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerify_CustomTTL(t *testing.T) {
	c := newTestCodec(t, WithTTL(time.Minute))
	issued := time.Unix(1_700_000_000, 0)

	token, err := c.MintAt(5, "A", issued)
	require.NoError(t, err)

	_, err = c.VerifyAt(token, 5, "A", issued.Add(60*time.Second))
	assert.NoError(t, err)
	_, err = c.VerifyAt(token, 5, "A", issued.Add(61*time.Second))
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerify_IdentityBinding(t *testing.T) {
	c := newTestCodec(t)
	token, err := c.Mint(5, "A")
	require.NoError(t, err)

	_, err = c.Verify(token, 6, "A")
	assert.ErrorIs(t, err, ErrCartMismatch)

	_, err = c.Verify(token, 5, "B")
	assert.ErrorIs(t, err, ErrSessionMismatch)
}

func TestVerify_ExpiredBeforeBinding(t *testing.T) {
	c := newTestCodec(t)
	issued := time.Unix(1_700_000_000, 0)
	token, err := c.MintAt(5, "A", issued)
	require.NoError(t, err)

	_, err = c.VerifyAt(token, 6, "B", issued.Add(time.Hour))
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerify_Malformed(t *testing.T) {
	c := newTestCodec(t)
	token, err := c.Mint(5, "A")
	require.NoError(t, err)

	cases := map[string]string{
		"empty":           "",
		"no separator":    strings.Replace(token, ".", "", 1),
		"two separators":  token + ".abc",
		"empty payload":   "." + Signature(token),
		"empty signature": strings.SplitN(token, ".", 2)[0] + ".",
	}

	for name, tc := range cases {
		_, err := c.Verify(tc, 5, "A")
		assert.ErrorIs(t, err, ErrMalformed, name)
	}
}

func TestVerify_SignatureCheckedBeforeDecode(t *testing.T) {
	c := newTestCodec(t)

	// not valid base64 and not valid JSON, but unsigned
	_, err := c.Verify("!!not-base64!!."+strings.Repeat("0", 64), 5, "A")
	assert.ErrorIs(t, err, ErrSignatureMismatch)

	_, err = c.Verify(payloadEncoding.EncodeToString([]byte("{}"))+"."+strings.Repeat("0", 64), 5, "A")
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestVerify_StrictPayloadSchema(t *testing.T) {
	c := newTestCodec(t)
	issued := time.Unix(1_700_000_000, 0)

	cases := map[string]string{
		"missing cart_id": `{"session_token":"A","ts":1700000000,"exp":1700000600}`,
		"missing session": `{"cart_id":5,"ts":1700000000,"exp":1700000600}`,
		"missing ts":      `{"cart_id":5,"session_token":"A","exp":1700000600}`,
		"missing exp":     `{"cart_id":5,"session_token":"A","ts":1700000000}`,
		"null cart_id":    `{"cart_id":null,"session_token":"A","ts":1700000000,"exp":1700000600}`,
		"string cart_id":  `{"cart_id":"5","session_token":"A","ts":1700000000,"exp":1700000600}`,
		"float cart_id":   `{"cart_id":5.5,"session_token":"A","ts":1700000000,"exp":1700000600}`,
		"numeric session": `{"cart_id":5,"session_token":7,"ts":1700000000,"exp":1700000600}`,
		"unknown field":   `{"cart_id":5,"session_token":"A","ts":1700000000,"exp":1700000600,"amount":"0.01"}`,
		"zero cart_id":    `{"cart_id":0,"session_token":"A","ts":1700000000,"exp":1700000600}`,
		"empty session":   `{"cart_id":5,"session_token":"","ts":1700000000,"exp":1700000600}`,
		"exp before ts":   `{"cart_id":5,"session_token":"A","ts":1700000600,"exp":1700000000}`,
		"trailing data":   `{"cart_id":5,"session_token":"A","ts":1700000000,"exp":1700000600} {}`,
		"array":           `[5,"A",1700000000,1700000600]`,
		"not json":        `cart_id=5`,
	}

	for name, raw := range cases {
		encoded := payloadEncoding.EncodeToString([]byte(raw))
		forged := encoded + "." + c.sign(encoded)

		_, err := c.VerifyAt(forged, 5, "A", issued)
		assert.ErrorIs(t, err, ErrMalformed, name)
	}
}

func TestVerify_SignedBadEncoding(t *testing.T) {
	c := newTestCodec(t)
	encoded := "%%%"
	_, err := c.Verify(encoded+"."+c.sign(encoded), 5, "A")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestSignature(t *testing.T) {
	c := newTestCodec(t)
	token, err := c.Mint(5, "A")
	require.NoError(t, err)

	sig := Signature(token)
	assert.Len(t, sig, 64)
	assert.True(t, strings.HasSuffix(token, "."+sig))
	assert.Empty(t, Signature("no-separator"))
}

func TestCodec_Concurrent(t *testing.T) {
	c := newTestCodec(t)

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(cartID int64) {
			defer wg.Done()
			token, err := c.Mint(cartID, "session")
			assert.NoError(t, err)
			_, err = c.Verify(token, cartID, "session")
			assert.NoError(t, err)
		}(int64(i))
	}
	wg.Wait()
}

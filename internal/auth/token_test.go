package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	codec := NewTokenCodec("test-secret-at-least-16b", time.Hour)

	token, err := codec.Encode(Session{UserID: 42, Username: "mario"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, "mario", got.Username)
}

func TestTokenTampered(t *testing.T) {
	codec := NewTokenCodec("test-secret-at-least-16b", time.Hour)

	token, err := codec.Encode(Session{UserID: 42, Username: "mario"})
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = codec.Decode(tampered)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestTokenWrongSecret(t *testing.T) {
	signer := NewTokenCodec("test-secret-at-least-16b", time.Hour)
	verifier := NewTokenCodec("another-secret-entirely!", time.Hour)

	token, err := signer.Encode(Session{UserID: 42, Username: "mario"})
	require.NoError(t, err)

	_, err = verifier.Decode(token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestTokenExpired(t *testing.T) {
	codec := NewTokenCodec("test-secret-at-least-16b", -time.Minute)

	token, err := codec.Encode(Session{UserID: 42, Username: "mario"})
	require.NoError(t, err)

	_, err = codec.Decode(token)
	assert.ErrorIs(t, err, ErrExpiredSession)
}

func TestTokenGarbage(t *testing.T) {
	codec := NewTokenCodec("test-secret-at-least-16b", time.Hour)
	_, err := codec.Decode("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = codec.Decode("")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

func newTestVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(testSecret, "", time.Hour)
	require.NoError(t, err)
	return v
}

func TestNewVerifierRejectsShortSecret(t *testing.T) {
	_, err := NewVerifier("short", "", 0)
	require.Error(t, err)
}

func TestIssueAndVerify(t *testing.T) {
	v := newTestVerifier(t)

	token, err := v.Issue("user-1", "jane@example.com")
	require.NoError(t, err)

	identity, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "user-1", Email: "jane@example.com"}, identity)
}

func TestVerifyExpiredToken(t *testing.T) {
	v := newTestVerifier(t)
	v.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := v.Issue("user-1", "")
	require.NoError(t, err)

	v.now = time.Now
	_, err = v.Verify(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	v := newTestVerifier(t)

	other, err := NewVerifier("another-secret-key-that-is-long-enough", "", time.Hour)
	require.NoError(t, err)
	wrongSecret, err := other.Issue("user-1", "")
	require.NoError(t, err)

	otherIssuer, err := NewVerifier(testSecret, "someone-else", time.Hour)
	require.NoError(t, err)
	wrongIssuer, err := otherIssuer.Issue("user-1", "")
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    DefaultIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "user-1",
		Issuer:  DefaultIssuer,
	}})
	withoutExpiry, err := noExpiry.SignedString([]byte(testSecret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":        "",
		"garbage":      "not.a.token",
		"wrong secret": wrongSecret,
		"wrong issuer": wrongIssuer,
		"alg none":     unsigned,
		"no expiry":    withoutExpiry,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(token)
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func TestIssueRequiresUser(t *testing.T) {
	v := newTestVerifier(t)
	_, err := v.Issue("  ", "")
	require.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{header: "Bearer abc.def", token: "abc.def", ok: true},
		{header: "bearer   abc ", token: "abc", ok: true},
		{header: "Basic abc", ok: false},
		{header: "Bearer ", ok: false},
		{header: "", ok: false},
	}
	for _, tt := range tests {
		token, ok := BearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.token, token, tt.header)
	}
}

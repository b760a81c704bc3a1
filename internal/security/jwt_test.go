package security_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tazhibayda/auth-gateway/internal/domain"
	"github.com/tazhibayda/auth-gateway/internal/security"
)

func writeTempRSA(t *testing.T) string {
	t.Helper()
	k, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "rsa.pem")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := pem.Encode(f, &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(k)}); err != nil {
		t.Fatal(err)
	}
	return path
}

func newHS256(t *testing.T) *security.TokenService {
	t.Helper()
	ts, err := security.NewHMAC("HS256", []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	return ts
}

func TestIssueValidate_RoundTrip(t *testing.T) {
	ts := newHS256(t)

	tok, err := ts.Issue("user-1", "a@example.com", time.Minute)
	require.NoError(t, err)

	c, err := ts.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", c.Subject)
	assert.Equal(t, "a@example.com", c.Email)
}

func TestValidate_Expired(t *testing.T) {
	ts := newHS256(t)
	past := ts.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })

	tok, err := past.Issue("user-1", "a@example.com", time.Hour)
	require.NoError(t, err)

	_, err = ts.Validate(tok)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestValidate_TamperAnyByte(t *testing.T) {
	ts := newHS256(t)
	tok, err := ts.Issue("user-1", "a@example.com", time.Hour)
	require.NoError(t, err)

	for i := 0; i < len(tok); i++ {
		b := []byte(tok)
		if b[i] == 'A' {
			b[i] = 'B'
		} else {
			b[i] = 'A'
		}
		_, err := ts.Validate(string(b))
		if !errors.Is(err, domain.ErrUnauthenticated) {
			t.Fatalf("byte %d: tampered token accepted (err=%v)", i, err)
		}
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	tok, err := newHS256(t).Issue("user-1", "", time.Hour)
	require.NoError(t, err)

	other, err := security.NewHMAC("HS256", []byte("another-secret-another-secret-xx"))
	require.NoError(t, err)

	_, err = other.Validate(tok)
	assert.ErrorIs(t, err, domain.ErrTokenSignature)
}

func TestValidate_Malformed(t *testing.T) {
	ts := newHS256(t)
	for _, tok := range []string{"", "not.a.jwt", "abc", "a.b.c.d"} {
		_, err := ts.Validate(tok)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated, tok)
	}
}

func TestValidate_MissingSubject(t *testing.T) {
	ts := newHS256(t)
	tok, err := ts.Issue("", "a@example.com", time.Hour)
	require.NoError(t, err)

	_, err = ts.Validate(tok)
	assert.ErrorIs(t, err, domain.ErrTokenNoSubject)
}

func TestValidate_RejectsOtherAlgorithm(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	hs512, err := security.NewHMAC("HS512", secret)
	require.NoError(t, err)
	tok, err := hs512.Issue("user-1", "", time.Hour)
	require.NoError(t, err)

	hs256, err := security.NewHMAC("HS256", secret)
	require.NoError(t, err)
	_, err = hs256.Validate(tok)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = hs256.Validate(unsigned)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestNewHMAC_Config(t *testing.T) {
	_, err := security.NewHMAC("RS256", []byte("x"))
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	_, err = security.NewHMAC("HS256", nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestRS256_JWKSRoundTrip(t *testing.T) {
	km, err := security.LoadKeyManager("kidA", writeTempRSA(t))
	require.NoError(t, err)
	ts, err := security.NewRS256(km)
	require.NoError(t, err)

	tok, err := ts.Issue("u1", "u@example.com", time.Minute)
	require.NoError(t, err)

	c, err := ts.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.Subject)

	set := km.JWKS()
	require.Len(t, set.Keys, 1)
	assert.Equal(t, "kidA", set.Keys[0].Kid)
	assert.Equal(t, "RS256", set.Keys[0].Alg)

	parsed, err := jwt.ParseWithClaims(tok, &security.Claims{}, func(tk *jwt.Token) (interface{}, error) {
		if kid, _ := tk.Header["kid"].(string); kid != "kidA" {
			return nil, errors.New("no key by kid")
		}
		return km.Active.Public, nil
	}, jwt.WithValidMethods([]string{"RS256"}))
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
}

func TestLoadKeyManager_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pem")
	require.NoError(t, os.WriteFile(path, []byte("nope"), 0o600))
	_, err := security.LoadKeyManager("k", path)
	assert.Error(t, err)
}

package oauth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tazhibayda/auth-gateway/internal/domain"
)

// DefaultStateTTL bounds the time a user may spend on the provider's consent page.
const DefaultStateTTL = 10 * time.Minute

// StateSigner issues and checks the anti-CSRF state carried through the
// provider round trip. The payload is provider:nonce:unix, signed with HMAC-SHA256.
type StateSigner struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewStateSigner(secret string, ttl time.Duration) *StateSigner {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &StateSigner{key: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock returns a copy that reads time from now.
func (s *StateSigner) WithClock(now func() time.Time) *StateSigner {
	c := *s
	c.now = now
	return &c
}

func (s *StateSigner) New(provider string) (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("state nonce: %w", err)
	}
	raw := provider + ":" + base64.RawURLEncoding.EncodeToString(nonce) + ":" +
		strconv.FormatInt(s.now().Unix(), 10)
	return raw + "." + base64.RawURLEncoding.EncodeToString(s.sign(raw)), nil
}

// Verify accepts got only if it was issued by this signer for provider and
// has not aged past the ttl.
func (s *StateSigner) Verify(got, provider string) error {
	i := strings.LastIndexByte(got, '.')
	if i < 0 {
		return fmt.Errorf("%w: malformed", domain.ErrInvalidState)
	}
	raw := got[:i]
	sig, err := base64.RawURLEncoding.DecodeString(got[i+1:])
	if err != nil || !hmac.Equal(s.sign(raw), sig) {
		return fmt.Errorf("%w: bad signature", domain.ErrInvalidState)
	}

	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return fmt.Errorf("%w: malformed", domain.ErrInvalidState)
	}
	if parts[0] != provider {
		return fmt.Errorf("%w: issued for %q", domain.ErrInvalidState, parts[0])
	}
	ts, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed timestamp", domain.ErrInvalidState)
	}
	if age := s.now().Sub(time.Unix(ts, 0)); age > s.ttl || age < -time.Minute {
		return fmt.Errorf("%w: expired", domain.ErrInvalidState)
	}
	return nil
}

func (s *StateSigner) sign(raw string) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(raw))
	return mac.Sum(nil)
}

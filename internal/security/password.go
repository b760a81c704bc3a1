package security

import "golang.org/x/crypto/bcrypt"

// MinCost is the lowest bcrypt cost the gateway accepts.
const MinCost = 10

type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	if cost < MinCost {
		cost = MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Cost() int { return h.cost }

func (h *Hasher) Hash(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), h.cost)
	return string(b), err
}

// Verify never fails loudly: a malformed stored hash is just a mismatch.
func (h *Hasher) Verify(pw, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

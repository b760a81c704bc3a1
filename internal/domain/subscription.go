package domain

import (
	"fmt"
	"strings"
)

type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
	TierPro     Tier = "pro"
)

func ParseTier(s string) (Tier, error) {
	switch t := Tier(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TierFree, nil
	case TierFree, TierPremium, TierPro:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown subscription tier %q", ErrInvalidInput, s)
	}
}

// Subscription is kept under the "abonnement" key on the wire.
type Subscription struct {
	Tier      Tier    `json:"type_abonnement" bson:"type_abonnement"`
	StartDate string  `json:"date_debut"      bson:"date_debut"`
	EndDate   string  `json:"date_fin"        bson:"date_fin"`
	Active    bool    `json:"status"          bson:"status"`
	Price     float64 `json:"prix"            bson:"prix"`
	CreatedAt string  `json:"created_at"      bson:"created_at"`
	UpdatedAt string  `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// Apply copies the mutable fields of in onto s, stamping updated_at.
// A nil receiver yields a fresh record created at now.
func (s *Subscription) Apply(in Subscription, now string) (*Subscription, error) {
	tier, err := ParseTier(string(in.Tier))
	if err != nil {
		return nil, err
	}
	if in.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	out := &Subscription{CreatedAt: now}
	if s != nil {
		cp := *s
		out = &cp
		out.UpdatedAt = now
	}
	out.Tier = tier
	out.StartDate = in.StartDate
	out.EndDate = in.EndDate
	out.Active = in.Active
	out.Price = in.Price
	if out.StartDate == "" {
		out.StartDate = now
	}
	if out.EndDate == "" {
		out.EndDate = out.StartDate
	}
	return out, nil
}

package domain

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the string format of every persisted timestamp.
const TimeLayout = "2006-01-02 15:04:05"

// Stamp formats t the way records store it.
func Stamp(t time.Time) string { return t.UTC().Format(TimeLayout) }

type User struct {
	ID           string        `json:"id"`
	Provider     string        `json:"provider,omitempty"`    // "" | "google" | "github"
	ProviderID   string        `json:"provider_id,omitempty"` // provider-scoped external id
	Username     string        `json:"username,omitempty"`
	Email        string        `json:"email"`
	Name         string        `json:"name,omitempty"`
	Picture      string        `json:"picture,omitempty"`
	PasswordHash string        `json:"-"`
	Subscription *Subscription `json:"abonnement,omitempty"`
	CreatedAt    string        `json:"created_at,omitempty"`
	UpdatedAt    string        `json:"updated_at,omitempty"`
}

// IsLocal reports whether the record authenticates with a password.
func (u *User) IsLocal() bool { return u.PasswordHash != "" }

// Validate enforces that a record is either local or federated, never both.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	local := u.PasswordHash != ""
	federated := u.Provider != "" && u.ProviderID != ""
	switch {
	case local && (u.Provider != "" || u.ProviderID != ""):
		return fmt.Errorf("%w: record is both local and federated", ErrInvalidInput)
	case !local && !federated:
		return fmt.Errorf("%w: record has neither password nor provider identity", ErrInvalidInput)
	}
	return nil
}

// Public returns a copy safe to hand outside the store boundary.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.PasswordHash = ""
	if u.Subscription != nil {
		s := *u.Subscription
		cp.Subscription = &s
	}
	return &cp
}

// UserCreate is the local registration payload.
type UserCreate struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
}

// ProviderProfile is a provider payload normalized by its adapter.
type ProviderProfile struct {
	Provider   string
	ProviderID string
	Email      string
	Name       string
	Picture    string
}

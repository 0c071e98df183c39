package model

import (
	"slices"
	"time"
)

const (
	RoleUser    = "USER"
	RolePremium = "PREMIUM"
)

// Credential is the stored login identity. Email is the identity key.
type Credential struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsPremium    bool      `json:"is_premium"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Roles derives the role set a newly issued token carries.
func (c Credential) Roles() []string {
	if c.IsPremium {
		return []string{RoleUser, RolePremium}
	}
	return []string{RoleUser}
}

// Principal is the identity established for a single request from a verified token.
type Principal struct {
	Subject string
	Roles   []string
}

func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

type UserProfile struct {
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	Age               int       `json:"age"`
	Height            float64   `json:"height"`
	Weight            float64   `json:"weight"`
	FitnessGoals      string    `json:"fitness_goals"`
	ProfilePictureURL string    `json:"profile_picture_url"`
	UpdatedAt         time.Time `json:"updated_at"`
}

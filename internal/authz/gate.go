// Package authz decides whether an authenticated principal may touch a resource.
// Role checks read only the token's role set; ownership checks read the stored record.
package authz

import (
	"context"
	"fmt"

	"fitness-tracker/internal/model"
	"fitness-tracker/internal/repository"
)

// DefaultRequirements maps each resource type to the role it requires.
func DefaultRequirements() map[model.ResourceType]string {
	return map[model.ResourceType]string{
		model.ResourceDiary:     model.RoleUser,
		model.ResourceWorkout:   model.RoleUser,
		model.ResourceProfile:   model.RoleUser,
		model.ResourceAccount:   model.RoleUser,
		model.ResourceNutrition: model.RolePremium,
		model.ResourceTemplate:  model.RolePremium,
	}
}

type Gate struct {
	requirements map[model.ResourceType]string
}

func NewGate(requirements map[model.ResourceType]string) *Gate {
	copied := make(map[model.ResourceType]string, len(requirements))
	for resource, role := range requirements {
		copied[resource] = role
	}
	return &Gate{requirements: copied}
}

// RequiredRole reports the role a resource type needs and whether it is known.
func (g *Gate) RequiredRole(resource model.ResourceType) (string, bool) {
	role, ok := g.requirements[resource]
	return role, ok
}

// CheckRole fails with model.ErrForbidden when the principal lacks the role for resource.
// Unknown resource types are denied.
func (g *Gate) CheckRole(p model.Principal, resource model.ResourceType) error {
	role, ok := g.requirements[resource]
	if !ok {
		return fmt.Errorf("no role requirement for %q: %w", resource, model.ErrForbidden)
	}
	if !p.HasRole(role) {
		return fmt.Errorf("%s requires role %s: %w", resource, role, model.ErrForbidden)
	}
	return nil
}

// CheckOwner fails with model.ErrForbidden unless the principal owns the record.
func CheckOwner(p model.Principal, owner string) error {
	if p.Subject == "" || owner != p.Subject {
		return fmt.Errorf("record owner mismatch: %w", model.ErrForbidden)
	}
	return nil
}

// LoadOwned fetches a record and returns it only to its owner. A record owned by
// someone else yields model.ErrForbidden and the zero value.
func LoadOwned[T repository.Document](ctx context.Context, store repository.DocumentStore[T], p model.Principal, id string) (T, error) {
	var zero T

	doc, err := store.FindByID(ctx, id)
	if err != nil {
		return zero, err
	}
	if err := CheckOwner(p, doc.RecordOwner()); err != nil {
		return zero, err
	}
	return doc, nil
}

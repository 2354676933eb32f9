package recipes

import (
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/minjipark/recipebox/pkg/errors"
)

// Recipe is the hydrated aggregate: base fields, the requirement mapping, and
// favorite metadata reconstructed from the favorite row (absent row means not
// a favorite, nil rating and note).
type Recipe struct {
	ID           int64
	Name         string
	Instructions string
	Requirements map[string]int
	IsFavorite   bool
	Rating       *int
	Note         *string
	LastCookedAt *time.Time
}

// New builds an unsaved recipe with an empty requirement mapping.
func New(name, instructions string) *Recipe {
	return &Recipe{
		Name:         name,
		Instructions: instructions,
		Requirements: map[string]int{},
	}
}

// AddRequirement records that the recipe needs quantity units of the named
// ingredient. The name is a weak reference resolved at cook time.
func (r *Recipe) AddRequirement(ingredientName string, quantity int) error {
	if strings.TrimSpace(ingredientName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "ingredient name is required")
	}
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("required quantity for %s must be positive", ingredientName))
	}
	if r.Requirements == nil {
		r.Requirements = map[string]int{}
	}
	r.Requirements[ingredientName] = quantity
	return nil
}

// RemoveRequirement drops the named ingredient from the mapping.
func (r *Recipe) RemoveRequirement(ingredientName string) {
	delete(r.Requirements, ingredientName)
}

// SetRating sets the favorite rating. Values outside [1,5] are rejected.
func (r *Recipe) SetRating(rating int) error {
	if rating < 1 || rating > 5 {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	r.Rating = &rating
	return nil
}

// Validate is the pre-save gate: a recipe persists only with a non-empty
// name, non-empty instructions, and at least one requirement.
func (r *Recipe) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipe name is required")
	}
	if strings.TrimSpace(r.Instructions) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipe instructions are required")
	}
	if len(r.Requirements) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipe needs at least one ingredient")
	}
	for name, quantity := range r.Requirements {
		if quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("required quantity for %s must be positive", name))
		}
	}
	return nil
}

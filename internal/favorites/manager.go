package favorites

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/minjipark/recipebox/internal/recipes"
	pkgerrors "github.com/minjipark/recipebox/pkg/errors"
	"github.com/minjipark/recipebox/pkg/validate"
)

// MarkFavoriteInput carries the optional metadata written with a favorite.
// A nil rating keeps whatever rating the favorite row already has.
type MarkFavoriteInput struct {
	Rating *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Note   *string `json:"note"`
}

// Manager drives the favorite flag and its metadata. The flag itself is the
// existence of the favorite row, so marking twice and unmarking a recipe that
// was never favorited are both harmless.
type Manager interface {
	Mark(ctx context.Context, recipeID int64, input MarkFavoriteInput) error
	Unmark(ctx context.Context, recipeID int64) error
	IsFavorite(ctx context.Context, recipeID int64) (bool, error)
	List(ctx context.Context) ([]recipes.Recipe, error)
}

// ManagerParams groups dependencies for the favorite manager.
type ManagerParams struct {
	Recipes *recipes.Repository
}

type manager struct {
	recipes *recipes.Repository
}

// NewManager builds a favorite manager with the required dependencies.
func NewManager(params ManagerParams) (Manager, error) {
	if params.Recipes == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipe repo is required")
	}
	return &manager{recipes: params.Recipes}, nil
}

// Mark favorites the recipe. Without metadata it only ensures the favorite
// row exists; with metadata it validates the rating before any write, so a
// bad rating leaves the current favorite state untouched.
func (m *manager) Mark(ctx context.Context, recipeID int64, input MarkFavoriteInput) error {
	if err := validate.Struct(input); err != nil {
		return err
	}
	if _, err := m.recipes.FindByID(ctx, recipeID); err != nil {
		return translateRecipeErr(err)
	}
	if input.Rating == nil && input.Note == nil {
		return m.recipes.AddToFavorites(ctx, recipeID)
	}
	return m.recipes.UpsertFavorite(ctx, recipeID, input.Rating, input.Note)
}

// Unmark removes the favorite row, dropping its rating and note with it.
func (m *manager) Unmark(ctx context.Context, recipeID int64) error {
	if _, err := m.recipes.FindByID(ctx, recipeID); err != nil {
		return translateRecipeErr(err)
	}
	return m.recipes.RemoveFromFavorites(ctx, recipeID)
}

func (m *manager) IsFavorite(ctx context.Context, recipeID int64) (bool, error) {
	return m.recipes.IsFavorite(ctx, recipeID)
}

func (m *manager) List(ctx context.Context) ([]recipes.Recipe, error) {
	return m.recipes.FindAllFavorites(ctx)
}

func translateRecipeErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "recipe not found")
	}
	return err
}

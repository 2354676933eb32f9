package recipes

import (
	"context"
	"errors"

	"gorm.io/gorm"

	pkgerrors "github.com/minjipark/recipebox/pkg/errors"
	"github.com/minjipark/recipebox/pkg/validate"
)

// CreateRecipeInput holds the payload to register a new recipe. Requirements
// map ingredient names to the quantity one cook consumes.
type CreateRecipeInput struct {
	Name         string         `json:"name" validate:"required"`
	Instructions string         `json:"instructions" validate:"required"`
	Requirements map[string]int `json:"requirements" validate:"required,min=1"`
}

// UpdateRecipeInput overwrites a recipe's editable fields.
type UpdateRecipeInput struct {
	Name         string         `json:"name" validate:"required"`
	Instructions string         `json:"instructions" validate:"required"`
	Requirements map[string]int `json:"requirements" validate:"required,min=1"`
}

// Service exposes recipe book operations.
type Service interface {
	List(ctx context.Context) ([]Recipe, error)
	ListFavorites(ctx context.Context) ([]Recipe, error)
	Get(ctx context.Context, id int64) (*Recipe, error)
	Create(ctx context.Context, input CreateRecipeInput) (*Recipe, error)
	Update(ctx context.Context, id int64, input UpdateRecipeInput) (*Recipe, error)
	Delete(ctx context.Context, id int64) error
	AddRequirement(ctx context.Context, id int64, ingredientName string, quantity int) error
	RemoveRequirement(ctx context.Context, id int64, ingredientName string) error
}

// ServiceParams groups dependencies for the recipe service.
type ServiceParams struct {
	Repo *Repository
}

type service struct {
	repo *Repository
}

// NewService builds a recipe service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipe repo is required")
	}
	return &service{repo: params.Repo}, nil
}

func (s *service) List(ctx context.Context) ([]Recipe, error) {
	return s.repo.FindAll(ctx)
}

func (s *service) ListFavorites(ctx context.Context) ([]Recipe, error) {
	return s.repo.FindAllFavorites(ctx)
}

func (s *service) Get(ctx context.Context, id int64) (*Recipe, error) {
	recipe, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateLookupErr(err)
	}
	return recipe, nil
}

func (s *service) Create(ctx context.Context, input CreateRecipeInput) (*Recipe, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	recipe := New(input.Name, input.Instructions)
	for name, quantity := range input.Requirements {
		if err := recipe.AddRequirement(name, quantity); err != nil {
			return nil, err
		}
	}
	if err := recipe.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

func (s *service) Update(ctx context.Context, id int64, input UpdateRecipeInput) (*Recipe, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	recipe, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateLookupErr(err)
	}
	recipe.Name = input.Name
	recipe.Instructions = input.Instructions
	recipe.Requirements = make(map[string]int, len(input.Requirements))
	for name, quantity := range input.Requirements {
		if err := recipe.AddRequirement(name, quantity); err != nil {
			return nil, err
		}
	}
	if err := recipe.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, recipe); err != nil {
		return nil, translateLookupErr(err)
	}
	return recipe, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return translateLookupErr(err)
	}
	return nil
}

func (s *service) AddRequirement(ctx context.Context, id int64, ingredientName string, quantity int) error {
	recipe, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return translateLookupErr(err)
	}
	if err := recipe.AddRequirement(ingredientName, quantity); err != nil {
		return err
	}
	return s.repo.AddRequirement(ctx, id, ingredientName, quantity)
}

func (s *service) RemoveRequirement(ctx context.Context, id int64, ingredientName string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return translateLookupErr(err)
	}
	return s.repo.RemoveRequirement(ctx, id, ingredientName)
}

func translateLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "recipe not found")
	}
	return err
}

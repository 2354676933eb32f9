package ingredients

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/minjipark/recipebox/pkg/db/models"
	pkgerrors "github.com/minjipark/recipebox/pkg/errors"
	"github.com/minjipark/recipebox/pkg/validate"
)

// CreateIngredientInput holds the payload to register a new ingredient.
type CreateIngredientInput struct {
	Name              string `json:"name" validate:"required"`
	AvailableQuantity int    `json:"available_quantity" validate:"min=0"`
}

// UpdateIngredientInput overwrites an ingredient's name and quantity.
type UpdateIngredientInput struct {
	Name              string `json:"name" validate:"required"`
	AvailableQuantity int    `json:"available_quantity" validate:"min=0"`
}

// Service exposes ingredient inventory operations.
type Service interface {
	List(ctx context.Context) ([]models.Ingredient, error)
	Get(ctx context.Context, id int64) (*models.Ingredient, error)
	GetByName(ctx context.Context, name string) (*models.Ingredient, error)
	Create(ctx context.Context, input CreateIngredientInput) (*models.Ingredient, error)
	Update(ctx context.Context, id int64, input UpdateIngredientInput) (*models.Ingredient, error)
	Delete(ctx context.Context, id int64) error
	Restock(ctx context.Context, id int64, quantity int) (*models.Ingredient, error)
	Consume(ctx context.Context, id int64, quantity int) (*models.Ingredient, error)
}

// ServiceParams groups dependencies for the ingredient service.
type ServiceParams struct {
	Repo *Repository
}

type service struct {
	repo *Repository
}

// NewService builds an ingredient service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ingredient repo is required")
	}
	return &service{repo: params.Repo}, nil
}

func (s *service) List(ctx context.Context) ([]models.Ingredient, error) {
	return s.repo.FindAll(ctx)
}

func (s *service) Get(ctx context.Context, id int64) (*models.Ingredient, error) {
	ingredient, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateLookupErr(err, "ingredient not found")
	}
	return ingredient, nil
}

func (s *service) GetByName(ctx context.Context, name string) (*models.Ingredient, error) {
	if strings.TrimSpace(name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ingredient name is required")
	}
	ingredient, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, translateLookupErr(err, "ingredient not found")
	}
	return ingredient, nil
}

func (s *service) Create(ctx context.Context, input CreateIngredientInput) (*models.Ingredient, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	ingredient := &models.Ingredient{
		Name:              input.Name,
		AvailableQuantity: input.AvailableQuantity,
	}
	if err := s.repo.Create(ctx, ingredient); err != nil {
		return nil, err
	}
	return ingredient, nil
}

func (s *service) Update(ctx context.Context, id int64, input UpdateIngredientInput) (*models.Ingredient, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	ingredient := &models.Ingredient{
		ID:                id,
		Name:              input.Name,
		AvailableQuantity: input.AvailableQuantity,
	}
	if err := s.repo.Update(ctx, ingredient); err != nil {
		return nil, translateLookupErr(err, "ingredient not found")
	}
	return ingredient, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return translateLookupErr(err, "ingredient not found")
	}
	return nil
}

// Restock adds quantity to the ingredient's available stock.
func (s *service) Restock(ctx context.Context, id int64, quantity int) (*models.Ingredient, error) {
	return s.adjust(ctx, id, func(ingredient *models.Ingredient) error {
		return ingredient.Add(quantity)
	})
}

// Consume deducts quantity from the ingredient's available stock. The
// never-negative invariant is enforced before any write happens.
func (s *service) Consume(ctx context.Context, id int64, quantity int) (*models.Ingredient, error) {
	return s.adjust(ctx, id, func(ingredient *models.Ingredient) error {
		return ingredient.Use(quantity)
	})
}

func (s *service) adjust(ctx context.Context, id int64, mutate func(*models.Ingredient) error) (*models.Ingredient, error) {
	ingredient, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateLookupErr(err, "ingredient not found")
	}
	if err := mutate(ingredient); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateQuantity(ctx, id, ingredient.AvailableQuantity); err != nil {
		return nil, translateLookupErr(err, "ingredient not found")
	}
	return ingredient, nil
}

func translateLookupErr(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, message)
	}
	return err
}

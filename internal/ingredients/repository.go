package ingredients

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/minjipark/recipebox/internal/repo"
	"github.com/minjipark/recipebox/pkg/db"
	"github.com/minjipark/recipebox/pkg/db/models"
	pkgerrors "github.com/minjipark/recipebox/pkg/errors"
)

// Repository encapsulates ingredient persistence.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Rebind(tx)}
}

// Create inserts a new ingredient row and assigns its id.
func (r *Repository) Create(ctx context.Context, ingredient *models.Ingredient) error {
	if err := r.DB(ctx).Create(ingredient).Error; err != nil {
		if db.IsUniqueViolation(err, "ingredients_name_key") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err,
				fmt.Sprintf("ingredient %q already exists", ingredient.Name))
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err,
			fmt.Sprintf("insert ingredient %q", ingredient.Name))
	}
	return nil
}

// FindByID loads a single ingredient by id. Absence surfaces as
// gorm.ErrRecordNotFound; any other storage failure wraps the cause.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := r.DB(ctx).First(&ingredient, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err,
			fmt.Sprintf("fetch ingredient %d", id))
	}
	return &ingredient, nil
}

// FindByName loads a single ingredient by exact name. Absence surfaces as
// gorm.ErrRecordNotFound; any other storage failure wraps the cause.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := r.DB(ctx).First(&ingredient, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err,
			fmt.Sprintf("fetch ingredient %q", name))
	}
	return &ingredient, nil
}

// FindAll returns every ingredient. No ordering is guaranteed.
func (r *Repository) FindAll(ctx context.Context) ([]models.Ingredient, error) {
	var rows []models.Ingredient
	if err := r.DB(ctx).Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ingredients")
	}
	return rows, nil
}

// Update overwrites name and quantity for the ingredient id.
func (r *Repository) Update(ctx context.Context, ingredient *models.Ingredient) error {
	result := r.DB(ctx).
		Model(&models.Ingredient{}).
		Where("id = ?", ingredient.ID).
		Updates(map[string]any{
			"name":               ingredient.Name,
			"available_quantity": ingredient.AvailableQuantity,
		})
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error,
			fmt.Sprintf("update ingredient %d", ingredient.ID))
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateQuantity writes only the available quantity for the ingredient id.
func (r *Repository) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	result := r.DB(ctx).
		Model(&models.Ingredient{}).
		Where("id = ?", id).
		Update("available_quantity", quantity)
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error,
			fmt.Sprintf("update quantity for ingredient %d", id))
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes an ingredient by id. Requirement rows referencing the name
// are left alone; reconciling them is the caller's responsibility.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result := r.DB(ctx).Where("id = ?", id).Delete(&models.Ingredient{})
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error,
			fmt.Sprintf("delete ingredient %d", id))
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

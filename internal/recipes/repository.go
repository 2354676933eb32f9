package recipes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/minjipark/recipebox/internal/repo"
	"github.com/minjipark/recipebox/pkg/db/models"
	pkgerrors "github.com/minjipark/recipebox/pkg/errors"
)

// Repository encapsulates recipe persistence, including requirement rows and
// favorite metadata.
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

var recipeSelectColumns = strings.Join([]string{
	"r.id",
	"r.name",
	"r.instructions",
	"r.last_cooked_at",
	"f.rating",
	"f.note",
	"f.recipe_id IS NOT NULL AS is_favorite",
}, ", ")

// Save persists the base row and one association row per requirement inside a
// single transaction, then assigns the generated id to the aggregate.
func (r *Repository) Save(ctx context.Context, recipe *Recipe) error {
	err := r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		row := &models.Recipe{
			Name:         recipe.Name,
			Instructions: recipe.Instructions,
			LastCookedAt: recipe.LastCookedAt,
		}
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		recipe.ID = row.ID
		return createRequirementRows(tx, row.ID, recipe.Requirements)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err,
			fmt.Sprintf("save recipe %q", recipe.Name))
	}
	return nil
}

// FindByID reconstructs one recipe: base fields plus favorite metadata via a
// left join, and the requirement mapping from its association rows.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Recipe, error) {
	var record recipeRecord
	err := r.DB(ctx).
		Table("recipes r").
		Select(recipeSelectColumns).
		Joins("LEFT JOIN favorite_recipes f ON f.recipe_id = r.id").
		Where("r.id = ?", id).
		Take(&record).
		Error
	if err != nil {
		return nil, err
	}

	requirements, err := r.fetchRequirements(ctx, id)
	if err != nil {
		return nil, err
	}

	recipe := record.toRecipe()
	recipe.Requirements = requirements
	return recipe, nil
}

// FindAll returns every recipe, hydrated the same way as FindByID.
func (r *Repository) FindAll(ctx context.Context) ([]Recipe, error) {
	var records []recipeRecord
	err := r.DB(ctx).
		Table("recipes r").
		Select(recipeSelectColumns).
		Joins("LEFT JOIN favorite_recipes f ON f.recipe_id = r.id").
		Order("r.id ASC").
		Scan(&records).
		Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recipes")
	}
	ids := make([]int64, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	requirementsByRecipe, err := r.fetchRequirementsFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	recipes := make([]Recipe, 0, len(records))
	for _, record := range records {
		recipe := record.toRecipe()
		recipe.Requirements = requirementsByRecipe[record.ID]
		if recipe.Requirements == nil {
			recipe.Requirements = map[string]int{}
		}
		recipes = append(recipes, *recipe)
	}
	return recipes, nil
}

// FindAllFavorites returns favorited recipes, most recently favorited first.
func (r *Repository) FindAllFavorites(ctx context.Context) ([]Recipe, error) {
	var records []recipeRecord
	err := r.DB(ctx).
		Table("recipes r").
		Select(recipeSelectColumns).
		Joins("JOIN favorite_recipes f ON f.recipe_id = r.id").
		Order("f.created_at DESC").
		Scan(&records).
		Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list favorite recipes")
	}

	ids := make([]int64, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	requirementsByRecipe, err := r.fetchRequirementsFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	recipes := make([]Recipe, 0, len(records))
	for _, record := range records {
		recipe := record.toRecipe()
		recipe.Requirements = requirementsByRecipe[record.ID]
		if recipe.Requirements == nil {
			recipe.Requirements = map[string]int{}
		}
		recipes = append(recipes, *recipe)
	}
	return recipes, nil
}

// Update overwrites the base fields and last_cooked_at. When the recipe is a
// favorite it additionally upserts the favorite row; a nil rating keeps the
// stored one, and out-of-range ratings are coerced to 1 here as a second line
// of defense behind the domain setter.
func (r *Repository) Update(ctx context.Context, recipe *Recipe) error {
	err := r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Recipe{}).
			Where("id = ?", recipe.ID).
			Updates(map[string]any{
				"name":           recipe.Name,
				"instructions":   recipe.Instructions,
				"last_cooked_at": recipe.LastCookedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := replaceRequirementRows(tx, recipe.ID, recipe.Requirements); err != nil {
			return err
		}

		if recipe.IsFavorite {
			return upsertFavoriteRow(tx, recipe.ID, recipe.Rating, recipe.Note)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err,
			fmt.Sprintf("update recipe %d", recipe.ID))
	}
	return nil
}

// Delete removes the base row together with its requirement and favorite rows.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	err := r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.FavoriteRecipe{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Recipe{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err,
			fmt.Sprintf("delete recipe %d", id))
	}
	return nil
}

// AddRequirement inserts or overwrites one requirement row for the recipe.
func (r *Repository) AddRequirement(ctx context.Context, recipeID int64, ingredientName string, quantity int) error {
	err := r.DB(ctx).
		Exec(`INSERT INTO recipe_ingredients (recipe_id, ingredient_name, required_quantity) VALUES (?, ?, ?)
ON CONFLICT (recipe_id, ingredient_name) DO UPDATE SET required_quantity = excluded.required_quantity`,
			recipeID, ingredientName, quantity).
		Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err,
			fmt.Sprintf("add requirement %s to recipe %d", ingredientName, recipeID))
	}
	return nil
}

// RemoveRequirement deletes one requirement row if it exists.
func (r *Repository) RemoveRequirement(ctx context.Context, recipeID int64, ingredientName string) error {
	err := r.DB(ctx).
		Where("recipe_id = ? AND ingredient_name = ?", recipeID, ingredientName).
		Delete(&models.RecipeIngredient{}).
		Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err,
			fmt.Sprintf("remove requirement %s from recipe %d", ingredientName, recipeID))
	}
	return nil
}

// AddToFavorites creates the favorite row and ignores duplicates.
func (r *Repository) AddToFavorites(ctx context.Context, recipeID int64) error {
	err := r.DB(ctx).
		Exec(`INSERT INTO favorite_recipes (recipe_id, created_at) VALUES (?, CURRENT_TIMESTAMP)
ON CONFLICT (recipe_id) DO NOTHING`, recipeID).
		Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err,
			fmt.Sprintf("favorite recipe %d", recipeID))
	}
	return nil
}

// RemoveFromFavorites deletes the favorite row if it exists.
func (r *Repository) RemoveFromFavorites(ctx context.Context, recipeID int64) error {
	err := r.DB(ctx).
		Where("recipe_id = ?", recipeID).
		Delete(&models.FavoriteRecipe{}).
		Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err,
			fmt.Sprintf("unfavorite recipe %d", recipeID))
	}
	return nil
}

// IsFavorite checks whether the favorite row exists.
func (r *Repository) IsFavorite(ctx context.Context, recipeID int64) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.FavoriteRecipe{}).
		Where("recipe_id = ?", recipeID).
		Count(&count).
		Error
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err,
			fmt.Sprintf("check favorite for recipe %d", recipeID))
	}
	return count > 0, nil
}

// UpsertFavorite writes rating and note on the favorite row, creating it when
// absent. A nil rating keeps the stored rating; out-of-range ratings are
// coerced to 1.
func (r *Repository) UpsertFavorite(ctx context.Context, recipeID int64, rating *int, note *string) error {
	if err := upsertFavoriteRow(r.DB(ctx), recipeID, rating, note); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err,
			fmt.Sprintf("upsert favorite for recipe %d", recipeID))
	}
	return nil
}

// UpdateLastCookedAt writes only the last_cooked_at column, so the cook engine
// does not need a full recipe update after every cook.
func (r *Repository) UpdateLastCookedAt(ctx context.Context, recipeID int64, cookedAt time.Time) error {
	result := r.DB(ctx).
		Model(&models.Recipe{}).
		Where("id = ?", recipeID).
		Update("last_cooked_at", cookedAt)
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error,
			fmt.Sprintf("update last cooked at for recipe %d", recipeID))
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) fetchRequirements(ctx context.Context, recipeID int64) (map[string]int, error) {
	var rows []models.RecipeIngredient
	err := r.DB(ctx).
		Where("recipe_id = ?", recipeID).
		Find(&rows).
		Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err,
			fmt.Sprintf("fetch requirements for recipe %d", recipeID))
	}
	requirements := make(map[string]int, len(rows))
	for _, row := range rows {
		requirements[row.IngredientName] = row.RequiredQuantity
	}
	return requirements, nil
}

func (r *Repository) fetchRequirementsFor(ctx context.Context, recipeIDs []int64) (map[int64]map[string]int, error) {
	grouped := map[int64]map[string]int{}
	if len(recipeIDs) == 0 {
		return grouped, nil
	}
	var rows []models.RecipeIngredient
	err := r.DB(ctx).
		Where("recipe_id IN ?", recipeIDs).
		Find(&rows).
		Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch recipe requirements")
	}
	for _, row := range rows {
		if grouped[row.RecipeID] == nil {
			grouped[row.RecipeID] = map[string]int{}
		}
		grouped[row.RecipeID][row.IngredientName] = row.RequiredQuantity
	}
	return grouped, nil
}

func createRequirementRows(tx *gorm.DB, recipeID int64, requirements map[string]int) error {
	if len(requirements) == 0 {
		return nil
	}
	rows := make([]models.RecipeIngredient, 0, len(requirements))
	for name, quantity := range requirements {
		rows = append(rows, models.RecipeIngredient{
			RecipeID:         recipeID,
			IngredientName:   name,
			RequiredQuantity: quantity,
		})
	}
	return tx.Create(&rows).Error
}

func replaceRequirementRows(tx *gorm.DB, recipeID int64, requirements map[string]int) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return err
	}
	return createRequirementRows(tx, recipeID, requirements)
}

func upsertFavoriteRow(tx *gorm.DB, recipeID int64, rating *int, note *string) error {
	// Rating is nullable. A nil rating leaves whatever the row already holds;
	// only a non-nil out-of-range value gets coerced to 1.
	if rating != nil && (*rating < 1 || *rating > 5) {
		coerced := 1
		rating = &coerced
	}
	return tx.Exec(`INSERT INTO favorite_recipes (recipe_id, rating, note, created_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (recipe_id) DO UPDATE SET rating = COALESCE(excluded.rating, favorite_recipes.rating), note = excluded.note`,
		recipeID, rating, note).Error
}

type recipeRecord struct {
	ID           int64          `gorm:"column:id"`
	Name         string         `gorm:"column:name"`
	Instructions string         `gorm:"column:instructions"`
	LastCookedAt sql.NullTime   `gorm:"column:last_cooked_at"`
	Rating       sql.NullInt64  `gorm:"column:rating"`
	Note         sql.NullString `gorm:"column:note"`
	IsFavorite   bool           `gorm:"column:is_favorite"`
}

func (r recipeRecord) toRecipe() *Recipe {
	recipe := &Recipe{
		ID:           r.ID,
		Name:         r.Name,
		Instructions: r.Instructions,
		IsFavorite:   r.IsFavorite,
		Rating:       nullIntPtr(r.Rating),
		Note:         nullStringPtr(r.Note),
		LastCookedAt: nullTimePtr(r.LastCookedAt),
		Requirements: map[string]int{},
	}
	return recipe
}

func nullStringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func nullIntPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}

func nullTimePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	v := value.Time
	return &v
}

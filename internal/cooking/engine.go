package cooking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minjipark/recipebox/internal/ingredients"
	"github.com/minjipark/recipebox/internal/recipes"
	pkgerrors "github.com/minjipark/recipebox/pkg/errors"
	"github.com/minjipark/recipebox/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Shortfall describes one ingredient that blocks a cook: how much the recipe
// needs, how much stock exists, and the gap between the two. An ingredient
// name that resolves to no inventory row counts as zero available.
type Shortfall struct {
	IngredientName string `json:"ingredient_name"`
	Required       int    `json:"required"`
	Available      int    `json:"available"`
	Missing        int    `json:"missing"`
}

// Evaluation is the dry-run outcome for a recipe: whether it can be cooked
// right now and, if not, every shortfall sorted by ingredient name.
type Evaluation struct {
	RecipeID   int64       `json:"recipe_id"`
	RecipeName string      `json:"recipe_name"`
	CanCook    bool        `json:"can_cook"`
	Shortfalls []Shortfall `json:"shortfalls,omitempty"`
}

// Result records a committed cook.
type Result struct {
	RecipeID  int64          `json:"recipe_id"`
	AttemptID string         `json:"attempt_id"`
	CookedAt  time.Time      `json:"cooked_at"`
	Deducted  map[string]int `json:"deducted"`
}

// Engine evaluates and executes cooks.
type Engine interface {
	Evaluate(ctx context.Context, recipeID int64) (*Evaluation, error)
	Cook(ctx context.Context, recipeID int64) (*Result, error)
}

// EngineParams groups dependencies for the cook engine.
type EngineParams struct {
	Tx          txRunner
	Recipes     *recipes.Repository
	Ingredients *ingredients.Repository
	Logger      *logger.Logger
}

type engine struct {
	tx          txRunner
	recipes     *recipes.Repository
	ingredients *ingredients.Repository
	logger      *logger.Logger
}

// NewEngine builds a cook engine with the required dependencies.
func NewEngine(params EngineParams) (Engine, error) {
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tx runner is required")
	}
	if params.Recipes == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipe repo is required")
	}
	if params.Ingredients == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ingredient repo is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &engine{
		tx:          params.Tx,
		recipes:     params.Recipes,
		ingredients: params.Ingredients,
		logger:      params.Logger,
	}, nil
}

// Evaluate reports whether the recipe can be cooked from current stock. It
// never writes; a cook may still fail later if stock moves in between.
func (e *engine) Evaluate(ctx context.Context, recipeID int64) (*Evaluation, error) {
	recipe, err := e.recipes.FindByID(ctx, recipeID)
	if err != nil {
		return nil, translateRecipeErr(err)
	}
	shortfalls, err := e.shortfalls(ctx, e.ingredients, recipe)
	if err != nil {
		return nil, err
	}
	return &Evaluation{
		RecipeID:   recipe.ID,
		RecipeName: recipe.Name,
		CanCook:    len(shortfalls) == 0,
		Shortfalls: shortfalls,
	}, nil
}

// Cook deducts every required quantity and stamps last_cooked_at in one
// transaction. Stock is re-checked inside the transaction, so a shortfall
// that appears between evaluate and cook rolls everything back.
func (e *engine) Cook(ctx context.Context, recipeID int64) (*Result, error) {
	attemptID := uuid.NewString()
	ctx = e.logger.WithCookAttempt(e.logger.WithRecipeID(ctx, recipeID), attemptID)
	e.logger.Debug(ctx, "cook attempt started")

	var result *Result
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		recipeRepo := e.recipes.WithTx(tx)
		ingredientRepo := e.ingredients.WithTx(tx)

		recipe, err := recipeRepo.FindByID(ctx, recipeID)
		if err != nil {
			return translateRecipeErr(err)
		}

		shortfalls, err := e.shortfalls(ctx, ingredientRepo, recipe)
		if err != nil {
			return err
		}
		if len(shortfalls) > 0 {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock,
				fmt.Sprintf("not enough stock to cook %s", recipe.Name)).
				WithDetails(shortfalls)
		}

		deducted := make(map[string]int, len(recipe.Requirements))
		for _, name := range sortedRequirementNames(recipe.Requirements) {
			required := recipe.Requirements[name]
			ingredient, err := ingredientRepo.FindByName(ctx, name)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err,
					fmt.Sprintf("load ingredient %s", name))
			}
			if err := ingredient.Use(required); err != nil {
				return err
			}
			if err := ingredientRepo.UpdateQuantity(ctx, ingredient.ID, ingredient.AvailableQuantity); err != nil {
				return err
			}
			deducted[name] = required
		}

		cookedAt := time.Now().UTC()
		if err := recipeRepo.UpdateLastCookedAt(ctx, recipeID, cookedAt); err != nil {
			return translateRecipeErr(err)
		}

		result = &Result{
			RecipeID:  recipeID,
			AttemptID: attemptID,
			CookedAt:  cookedAt,
			Deducted:  deducted,
		}
		return nil
	})
	if err != nil {
		e.logger.Warn(ctx, "cook attempt failed")
		return nil, err
	}
	e.logger.Info(ctx, "cook attempt committed")
	return result, nil
}

func (e *engine) shortfalls(ctx context.Context, repo *ingredients.Repository, recipe *recipes.Recipe) ([]Shortfall, error) {
	var shortfalls []Shortfall
	for _, name := range sortedRequirementNames(recipe.Requirements) {
		required := recipe.Requirements[name]
		available := 0
		ingredient, err := repo.FindByName(ctx, name)
		switch {
		case err == nil:
			available = ingredient.AvailableQuantity
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Requirements reference ingredients by name only, so an
			// unknown name behaves like zero stock.
		default:
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err,
				fmt.Sprintf("load ingredient %s", name))
		}
		if available < required {
			shortfalls = append(shortfalls, Shortfall{
				IngredientName: name,
				Required:       required,
				Available:      available,
				Missing:        required - available,
			})
		}
	}
	return shortfalls, nil
}

func sortedRequirementNames(requirements map[string]int) []string {
	names := make([]string, 0, len(requirements))
	for name := range requirements {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func translateRecipeErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "recipe not found")
	}
	return err
}

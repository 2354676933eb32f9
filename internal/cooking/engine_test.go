package cooking

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/minjipark/recipebox/internal/ingredients"
	"github.com/minjipark/recipebox/internal/recipes"
	"github.com/minjipark/recipebox/pkg/db/models"
	pkgerrors "github.com/minjipark/recipebox/pkg/errors"
	"github.com/minjipark/recipebox/pkg/logger"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type testHarness struct {
	db          *gorm.DB
	engine      Engine
	recipes     *recipes.Repository
	ingredients *ingredients.Repository
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	dsn := "file:cooking_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	tables := []any{
		&models.Ingredient{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.FavoriteRecipe{},
	}
	if err := conn.AutoMigrate(tables...); err != nil {
		t.Fatalf("migrate tables: %v", err)
	}

	recipeRepo := recipes.NewRepository(conn)
	ingredientRepo := ingredients.NewRepository(conn)
	engine, err := NewEngine(EngineParams{
		Tx:          gormTxRunner{db: conn},
		Recipes:     recipeRepo,
		Ingredients: ingredientRepo,
		Logger:      logger.New(logger.Options{ServiceName: "cooking-test", Level: zerolog.ErrorLevel}),
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return &testHarness{
		db:          conn,
		engine:      engine,
		recipes:     recipeRepo,
		ingredients: ingredientRepo,
	}
}

func (h *testHarness) seedIngredient(t *testing.T, name string, quantity int) {
	t.Helper()
	ingredient := &models.Ingredient{Name: name, AvailableQuantity: quantity}
	if err := h.db.Create(ingredient).Error; err != nil {
		t.Fatalf("seed ingredient %s: %v", name, err)
	}
}

func (h *testHarness) seedRecipe(t *testing.T, name string, requirements map[string]int) *recipes.Recipe {
	t.Helper()
	recipe := recipes.New(name, "cook "+name)
	for ingredient, quantity := range requirements {
		if err := recipe.AddRequirement(ingredient, quantity); err != nil {
			t.Fatalf("add requirement %s: %v", ingredient, err)
		}
	}
	if err := h.recipes.Save(context.Background(), recipe); err != nil {
		t.Fatalf("save recipe %s: %v", name, err)
	}
	return recipe
}

func (h *testHarness) stockOf(t *testing.T, name string) int {
	t.Helper()
	ingredient, err := h.ingredients.FindByName(context.Background(), name)
	if err != nil {
		t.Fatalf("load ingredient %s: %v", name, err)
	}
	return ingredient.AvailableQuantity
}

func TestEvaluateReportsShortfalls(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	ctx := context.Background()

	h.seedIngredient(t, "Egg", 3)
	h.seedIngredient(t, "Flour", 0)
	omelette := h.seedRecipe(t, "Omelette", map[string]int{"Egg": 2, "Flour": 1})

	evaluation, err := h.engine.Evaluate(ctx, omelette.ID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if evaluation.CanCook {
		t.Fatal("expected recipe to be blocked by flour shortage")
	}
	if len(evaluation.Shortfalls) != 1 {
		t.Fatalf("expected one shortfall, got %+v", evaluation.Shortfalls)
	}
	got := evaluation.Shortfalls[0]
	want := Shortfall{IngredientName: "Flour", Required: 1, Available: 0, Missing: 1}
	if got != want {
		t.Fatalf("unexpected shortfall: got %+v want %+v", got, want)
	}
}

func TestEvaluateTreatsUnknownIngredientAsZeroStock(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	ctx := context.Background()

	h.seedIngredient(t, "Rice", 5)
	curry := h.seedRecipe(t, "Curry", map[string]int{"Rice": 2, "Curry Paste": 1})

	evaluation, err := h.engine.Evaluate(ctx, curry.ID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if evaluation.CanCook {
		t.Fatal("expected unknown ingredient to block the cook")
	}
	got := evaluation.Shortfalls[0]
	want := Shortfall{IngredientName: "Curry Paste", Required: 1, Available: 0, Missing: 1}
	if got != want {
		t.Fatalf("unexpected shortfall: got %+v want %+v", got, want)
	}
}

func TestEvaluateSortsShortfallsByName(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	ctx := context.Background()

	recipe := h.seedRecipe(t, "Feast", map[string]int{"Zucchini": 1, "Apple": 2, "Milk": 1})

	evaluation, err := h.engine.Evaluate(ctx, recipe.ID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(evaluation.Shortfalls) != 3 {
		t.Fatalf("expected three shortfalls, got %+v", evaluation.Shortfalls)
	}
	order := []string{"Apple", "Milk", "Zucchini"}
	for i, name := range order {
		if evaluation.Shortfalls[i].IngredientName != name {
			t.Fatalf("expected shortfall %d to be %s, got %+v", i, name, evaluation.Shortfalls)
		}
	}
}

func TestEvaluateMissingRecipe(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	if _, err := h.engine.Evaluate(context.Background(), 9999); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestCookDeductsStockAndStampsRecipe(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	ctx := context.Background()

	h.seedIngredient(t, "Egg", 3)
	h.seedIngredient(t, "Flour", 2)
	omelette := h.seedRecipe(t, "Omelette", map[string]int{"Egg": 2, "Flour": 1})

	result, err := h.engine.Cook(ctx, omelette.ID)
	if err != nil {
		t.Fatalf("cook: %v", err)
	}
	if result.AttemptID == "" {
		t.Fatal("expected an attempt id")
	}
	if result.Deducted["Egg"] != 2 || result.Deducted["Flour"] != 1 {
		t.Fatalf("unexpected deductions: %v", result.Deducted)
	}
	if h.stockOf(t, "Egg") != 1 {
		t.Fatalf("expected 1 egg left, got %d", h.stockOf(t, "Egg"))
	}
	if h.stockOf(t, "Flour") != 1 {
		t.Fatalf("expected 1 flour left, got %d", h.stockOf(t, "Flour"))
	}

	cooked, err := h.recipes.FindByID(ctx, omelette.ID)
	if err != nil {
		t.Fatalf("reload recipe: %v", err)
	}
	if cooked.LastCookedAt == nil {
		t.Fatal("expected last cooked at to be stamped")
	}
}

func TestCookRollsBackOnShortfall(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	ctx := context.Background()

	h.seedIngredient(t, "Egg", 3)
	h.seedIngredient(t, "Flour", 0)
	omelette := h.seedRecipe(t, "Omelette", map[string]int{"Egg": 2, "Flour": 1})

	_, err := h.engine.Cook(ctx, omelette.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}

	coded := pkgerrors.As(err)
	if coded == nil || coded.Details() == nil {
		t.Fatal("expected shortfall details on the error")
	}
	shortfalls, ok := coded.Details().([]Shortfall)
	if !ok || len(shortfalls) != 1 || shortfalls[0].IngredientName != "Flour" {
		t.Fatalf("unexpected details: %+v", coded.Details())
	}

	if h.stockOf(t, "Egg") != 3 {
		t.Fatalf("egg stock must be untouched after failed cook, got %d", h.stockOf(t, "Egg"))
	}
	untouched, err := h.recipes.FindByID(ctx, omelette.ID)
	if err != nil {
		t.Fatalf("reload recipe: %v", err)
	}
	if untouched.LastCookedAt != nil {
		t.Fatal("failed cook must not stamp last cooked at")
	}
}

func TestShortfallThenRestockThenCook(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	ctx := context.Background()

	h.seedIngredient(t, "Egg", 3)
	h.seedIngredient(t, "Flour", 0)
	omelette := h.seedRecipe(t, "Omelette", map[string]int{"Egg": 2, "Flour": 1})

	evaluation, err := h.engine.Evaluate(ctx, omelette.ID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if evaluation.CanCook || len(evaluation.Shortfalls) != 1 || evaluation.Shortfalls[0].Missing != 1 {
		t.Fatalf("expected a one-flour shortfall, got %+v", evaluation)
	}

	flour, err := h.ingredients.FindByName(ctx, "Flour")
	if err != nil {
		t.Fatalf("load flour: %v", err)
	}
	if err := h.ingredients.UpdateQuantity(ctx, flour.ID, 1); err != nil {
		t.Fatalf("restock flour: %v", err)
	}

	evaluation, err = h.engine.Evaluate(ctx, omelette.ID)
	if err != nil {
		t.Fatalf("re-evaluate: %v", err)
	}
	if !evaluation.CanCook {
		t.Fatalf("expected recipe to be cookable after restock, got %+v", evaluation)
	}

	if _, err := h.engine.Cook(ctx, omelette.ID); err != nil {
		t.Fatalf("cook: %v", err)
	}
	if h.stockOf(t, "Egg") != 1 {
		t.Fatalf("expected 1 egg left, got %d", h.stockOf(t, "Egg"))
	}
	if h.stockOf(t, "Flour") != 0 {
		t.Fatalf("expected no flour left, got %d", h.stockOf(t, "Flour"))
	}
	cooked, err := h.recipes.FindByID(ctx, omelette.ID)
	if err != nil {
		t.Fatalf("reload recipe: %v", err)
	}
	if cooked.LastCookedAt == nil {
		t.Fatal("expected last cooked at to be stamped")
	}
}

func TestCookMissingRecipe(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	if _, err := h.engine.Cook(context.Background(), 9999); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

package favorites

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/minjipark/recipebox/internal/recipes"
	"github.com/minjipark/recipebox/pkg/db/models"
	pkgerrors "github.com/minjipark/recipebox/pkg/errors"
)

func newTestManager(t *testing.T) (Manager, *recipes.Repository) {
	t.Helper()
	dsn := "file:favorites_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	tables := []any{
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.FavoriteRecipe{},
	}
	if err := conn.AutoMigrate(tables...); err != nil {
		t.Fatalf("migrate tables: %v", err)
	}
	repo := recipes.NewRepository(conn)
	mgr, err := NewManager(ManagerParams{Recipes: repo})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return mgr, repo
}

func mustSaveRecipe(t *testing.T, repo *recipes.Repository, name string) *recipes.Recipe {
	t.Helper()
	recipe := recipes.New(name, "cook "+name)
	if err := recipe.AddRequirement("Salt", 1); err != nil {
		t.Fatalf("add requirement: %v", err)
	}
	if err := repo.Save(context.Background(), recipe); err != nil {
		t.Fatalf("save recipe %s: %v", name, err)
	}
	return recipe
}

func TestMarkWithoutMetadata(t *testing.T) {
	t.Parallel()

	mgr, repo := newTestManager(t)
	ctx := context.Background()
	recipe := mustSaveRecipe(t, repo, "Pasta")

	if err := mgr.Mark(ctx, recipe.ID, MarkFavoriteInput{}); err != nil {
		t.Fatalf("mark: %v", err)
	}
	favorite, err := mgr.IsFavorite(ctx, recipe.ID)
	if err != nil {
		t.Fatalf("is favorite: %v", err)
	}
	if !favorite {
		t.Fatal("expected recipe to be favorited")
	}

	found, err := repo.FindByID(ctx, recipe.ID)
	if err != nil {
		t.Fatalf("reload recipe: %v", err)
	}
	if found.Rating != nil || found.Note != nil {
		t.Fatalf("bare mark must not write metadata, got rating=%v note=%v", found.Rating, found.Note)
	}
}

func TestMarkWithMetadata(t *testing.T) {
	t.Parallel()

	mgr, repo := newTestManager(t)
	ctx := context.Background()
	recipe := mustSaveRecipe(t, repo, "Pizza")

	rating := 5
	note := "friday night staple"
	if err := mgr.Mark(ctx, recipe.ID, MarkFavoriteInput{Rating: &rating, Note: &note}); err != nil {
		t.Fatalf("mark: %v", err)
	}

	found, err := repo.FindByID(ctx, recipe.ID)
	if err != nil {
		t.Fatalf("reload recipe: %v", err)
	}
	if !found.IsFavorite {
		t.Fatal("expected recipe to be favorited")
	}
	if found.Rating == nil || *found.Rating != 5 {
		t.Fatalf("expected rating 5, got %v", found.Rating)
	}
	if found.Note == nil || *found.Note != "friday night staple" {
		t.Fatalf("expected note to round-trip, got %v", found.Note)
	}
}

func TestMarkNoteOnlyKeepsStoredRating(t *testing.T) {
	t.Parallel()

	mgr, repo := newTestManager(t)
	ctx := context.Background()
	recipe := mustSaveRecipe(t, repo, "Gumbo")

	rating := 5
	if err := mgr.Mark(ctx, recipe.ID, MarkFavoriteInput{Rating: &rating}); err != nil {
		t.Fatalf("mark with rating: %v", err)
	}

	note := "needs more okra"
	if err := mgr.Mark(ctx, recipe.ID, MarkFavoriteInput{Note: &note}); err != nil {
		t.Fatalf("mark with note: %v", err)
	}

	found, err := repo.FindByID(ctx, recipe.ID)
	if err != nil {
		t.Fatalf("reload recipe: %v", err)
	}
	if found.Rating == nil || *found.Rating != 5 {
		t.Fatalf("note-only mark must keep the stored rating 5, got %v", found.Rating)
	}
	if found.Note == nil || *found.Note != "needs more okra" {
		t.Fatalf("expected note to be written, got %v", found.Note)
	}
}

func TestMarkRejectsOutOfRangeRating(t *testing.T) {
	t.Parallel()

	mgr, repo := newTestManager(t)
	ctx := context.Background()
	recipe := mustSaveRecipe(t, repo, "Ramen")

	for _, rating := range []int{0, 6} {
		input := MarkFavoriteInput{Rating: &rating}
		if err := mgr.Mark(ctx, recipe.ID, input); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error for rating %d, got %v", rating, err)
		}
	}

	favorite, err := mgr.IsFavorite(ctx, recipe.ID)
	if err != nil {
		t.Fatalf("is favorite: %v", err)
	}
	if favorite {
		t.Fatal("rejected rating must leave the recipe unfavorited")
	}
}

func TestMarkMissingRecipe(t *testing.T) {
	t.Parallel()

	mgr, _ := newTestManager(t)
	if err := mgr.Mark(context.Background(), 9999, MarkFavoriteInput{}); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestUnmarkDropsMetadata(t *testing.T) {
	t.Parallel()

	mgr, repo := newTestManager(t)
	ctx := context.Background()
	recipe := mustSaveRecipe(t, repo, "Tacos")

	rating := 4
	if err := mgr.Mark(ctx, recipe.ID, MarkFavoriteInput{Rating: &rating}); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := mgr.Unmark(ctx, recipe.ID); err != nil {
		t.Fatalf("unmark: %v", err)
	}

	found, err := repo.FindByID(ctx, recipe.ID)
	if err != nil {
		t.Fatalf("reload recipe: %v", err)
	}
	if found.IsFavorite || found.Rating != nil || found.Note != nil {
		t.Fatalf("unmark must clear favorite state, got %+v", found)
	}
}

func TestUnmarkNeverFavoritedIsNoOp(t *testing.T) {
	t.Parallel()

	mgr, repo := newTestManager(t)
	ctx := context.Background()
	recipe := mustSaveRecipe(t, repo, "Salad")

	if err := mgr.Unmark(ctx, recipe.ID); err != nil {
		t.Fatalf("unmark of never-favorited recipe must succeed, got %v", err)
	}
}

func TestListReturnsOnlyFavorites(t *testing.T) {
	t.Parallel()

	mgr, repo := newTestManager(t)
	ctx := context.Background()

	mustSaveRecipe(t, repo, "Plain")
	loved := mustSaveRecipe(t, repo, "Curry")
	if err := mgr.Mark(ctx, loved.ID, MarkFavoriteInput{}); err != nil {
		t.Fatalf("mark: %v", err)
	}

	favorites, err := mgr.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(favorites) != 1 || favorites[0].ID != loved.ID {
		t.Fatalf("unexpected favorites: %+v", favorites)
	}
}

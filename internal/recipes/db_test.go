package recipes

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/minjipark/recipebox/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:recipes_" + uuid.NewString() + "?mode=memory&cache=shared"
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
		t.Fatalf("migrate recipe tables: %v", err)
	}
	return conn
}

func mustSaveRecipe(t *testing.T, repo *Repository, name string, requirements map[string]int) *Recipe {
	t.Helper()
	recipe := New(name, "step 1: cook "+name)
	for ingredient, quantity := range requirements {
		if err := recipe.AddRequirement(ingredient, quantity); err != nil {
			t.Fatalf("add requirement %s: %v", ingredient, err)
		}
	}
	if err := repo.Save(context.Background(), recipe); err != nil {
		t.Fatalf("save recipe %s: %v", name, err)
	}
	return recipe
}

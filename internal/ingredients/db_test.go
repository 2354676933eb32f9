package ingredients

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/minjipark/recipebox/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:ingredients_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Ingredient{}); err != nil {
		t.Fatalf("migrate ingredients: %v", err)
	}
	return conn
}

func mustCreateIngredient(t *testing.T, conn *gorm.DB, name string, quantity int) *models.Ingredient {
	t.Helper()
	ingredient := &models.Ingredient{Name: name, AvailableQuantity: quantity}
	if err := conn.Create(ingredient).Error; err != nil {
		t.Fatalf("create ingredient %s: %v", name, err)
	}
	return ingredient
}

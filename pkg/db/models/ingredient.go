package models

import (
	"fmt"

	pkgerrors "github.com/minjipark/recipebox/pkg/errors"
)

// Ingredient is a pantry item with its available stock count.
type Ingredient struct {
	ID                int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Name              string `gorm:"column:name;not null;uniqueIndex:ingredients_name_key"`
	AvailableQuantity int    `gorm:"column:available_quantity;not null;default:0"`
}

// HasEnough reports whether the available stock covers the required quantity.
func (i *Ingredient) HasEnough(required int) bool {
	return i.AvailableQuantity >= required
}

// Use deducts quantity from the available stock. The count never goes negative;
// a deduction that would is rejected without mutating the ingredient.
func (i *Ingredient) Use(quantity int) error {
	if quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity to use must not be negative")
	}
	if i.AvailableQuantity < quantity {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("not enough %s in stock", i.Name))
	}
	i.AvailableQuantity -= quantity
	return nil
}

// Add restocks the ingredient.
func (i *Ingredient) Add(quantity int) error {
	if quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity to add must not be negative")
	}
	i.AvailableQuantity += quantity
	return nil
}

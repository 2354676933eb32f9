package models

import "time"

// FavoriteRecipe marks a recipe as a favorite. Presence of the row is the
// favorite flag; rating and note are optional metadata on it.
type FavoriteRecipe struct {
	RecipeID  int64     `gorm:"column:recipe_id;primaryKey;autoIncrement:false"`
	Rating    *int      `gorm:"column:rating"`
	Note      *string   `gorm:"column:note"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

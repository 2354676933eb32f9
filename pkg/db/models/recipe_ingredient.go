package models

// RecipeIngredient associates a recipe with one required ingredient by name.
// The link is deliberately weak: resolution to a live ingredient happens by
// name lookup at cook time, and a dangling name counts as zero stock.
type RecipeIngredient struct {
	RecipeID         int64  `gorm:"column:recipe_id;primaryKey;autoIncrement:false"`
	IngredientName   string `gorm:"column:ingredient_name;primaryKey"`
	RequiredQuantity int    `gorm:"column:required_quantity;not null"`
}

package entities

import "github.com/google/uuid"

// Ingredient is catalog reference data; recipes reference it through
// RecipeIngredient and never own it.
type Ingredient struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name            string    `gorm:"index:idx_ingredient_name_unit,unique;not null" json:"name"`
	MeasurementUnit string    `gorm:"index:idx_ingredient_name_unit,unique;not null" json:"measurement_unit"`

	Timestamp
}

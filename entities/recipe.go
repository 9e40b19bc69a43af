package entities

import (
	"time"

	"github.com/google/uuid"
)

type Recipe struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	AuthorID    uuid.UUID `gorm:"index;not null" json:"author_id"`
	Name        string    `gorm:"not null" json:"name"`
	ImageURL    string    `json:"image_url"`
	Text        string    `gorm:"type:text" json:"text"`
	CookingTime int       `gorm:"check:cooking_time >= 1" json:"cooking_time"`
	ShortLink   *string   `gorm:"uniqueIndex" json:"short_link,omitempty"`

	Author      *User               `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Tags        []*Tag              `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE"`
	Ingredients []*RecipeIngredient `gorm:"foreignKey:RecipeID"`
	Timestamp
}

// RecipeIngredient is a line item of a recipe. Line items live and die with
// their recipe: authoring rewrites the whole set inside one transaction.
type RecipeIngredient struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	RecipeID     uuid.UUID `gorm:"index:idx_recipe_ingredient_pair,unique;not null" json:"recipe_id"`
	IngredientID uuid.UUID `gorm:"index:idx_recipe_ingredient_pair,unique;not null" json:"ingredient_id"`
	Amount       int       `gorm:"check:amount >= 1" json:"amount"`
	CreatedAt    time.Time `gorm:"type:timestamp" json:"created_at"`

	Recipe     *Recipe     `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Ingredient *Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE"`
}

type Favorite struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"index:idx_favorite_pair,unique;not null" json:"user_id"`
	RecipeID  uuid.UUID `gorm:"index:idx_favorite_pair,unique;not null" json:"recipe_id"`
	CreatedAt time.Time `gorm:"type:timestamp" json:"created_at"`

	User   *User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Recipe *Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

type ShoppingCart struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"index:idx_shopping_cart_pair,unique;not null" json:"user_id"`
	RecipeID  uuid.UUID `gorm:"index:idx_shopping_cart_pair,unique;not null" json:"recipe_id"`
	CreatedAt time.Time `gorm:"type:timestamp" json:"created_at"`

	User   *User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Recipe *Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

package recipe

import (
	"context"
	"time"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	RecipeRepository interface {
		CreateRecipe(ctx context.Context, recipe *entities.Recipe, lines []*entities.RecipeIngredient) error
		UpdateRecipe(ctx context.Context, recipe *entities.Recipe, lines []*entities.RecipeIngredient) error
		DeleteRecipe(ctx context.Context, id uuid.UUID) error
		GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error)
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, viewerID string, page, limit int) ([]*entities.Recipe, int64, error)

		AddFavorite(ctx context.Context, userID, recipeID uuid.UUID) error
		RemoveFavorite(ctx context.Context, userID, recipeID uuid.UUID) (int64, error)
		IsFavorited(ctx context.Context, userID, recipeID string) (bool, error)
		AddToShoppingCart(ctx context.Context, userID, recipeID uuid.UUID) error
		RemoveFromShoppingCart(ctx context.Context, userID, recipeID uuid.UUID) (int64, error)
		IsInShoppingCart(ctx context.Context, userID, recipeID string) (bool, error)

		GetShoppingList(ctx context.Context, userID string) ([]domain.ShoppingListItem, error)
		SetShortLink(ctx context.Context, recipeID uuid.UUID, link string) (bool, error)
		GetRecipeByShortLink(ctx context.Context, link string) (*entities.Recipe, error)
	}

	recipeRepository struct {
		db *gorm.DB
	}
)

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

// CreateRecipe persists the recipe, its tag set and its line items as one
// transactional unit. A failure at any step leaves nothing behind.
func (r *recipeRepository) CreateRecipe(ctx context.Context, recipe *entities.Recipe, lines []*entities.RecipeIngredient) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Tags").Replace(recipe.Tags); err != nil {
			return err
		}
		for _, line := range lines {
			line.RecipeID = recipe.ID
		}
		return tx.Create(&lines).Error
	})
}

// UpdateRecipe rewrites the aggregate: scalar fields are saved, the tag set
// is replaced wholesale and the line items are deleted and reinserted, so
// the persisted sets always equal the input sets exactly.
func (r *recipeRepository) UpdateRecipe(ctx context.Context, recipe *entities.Recipe, lines []*entities.RecipeIngredient) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(recipe).Error; err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Tags").Replace(recipe.Tags); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&entities.RecipeIngredient{}).Error; err != nil {
			return err
		}
		for _, line := range lines {
			line.RecipeID = recipe.ID
		}
		return tx.Create(&lines).Error
	})
}

func (r *recipeRepository) DeleteRecipe(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&entities.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&entities.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&entities.ShoppingCart{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entities.Recipe{}).Error
	})
}

func (r *recipeRepository) GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Tags").
		Preload("Author").
		Preload("Ingredients.Ingredient").
		Where("id = ?", id).
		First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) recipesQuery(ctx context.Context, filter domain.RecipeFilter, viewerID string) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&entities.Recipe{})

	if filter.AuthorID != "" {
		query = query.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		query = query.
			Joins("JOIN recipe_tags ON recipe_tags.recipe_id = recipes.id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
	}
	if filter.IsFavorited {
		query = query.
			Joins("JOIN favorites ON favorites.recipe_id = recipes.id").
			Where("favorites.user_id = ?", viewerID)
	}
	if filter.IsInShoppingCart {
		query = query.
			Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipes.id").
			Where("shopping_carts.user_id = ?", viewerID)
	}

	return query
}

func (r *recipeRepository) GetRecipes(ctx context.Context, filter domain.RecipeFilter, viewerID string, page, limit int) ([]*entities.Recipe, int64, error) {
	var recipes []*entities.Recipe
	var count int64
	offset := (page - 1) * limit

	if err := r.recipesQuery(ctx, filter, viewerID).
		Distinct("recipes.id").
		Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.recipesQuery(ctx, filter, viewerID).
		Distinct("recipes.*").
		Preload("Tags").
		Preload("Author").
		Preload("Ingredients.Ingredient").
		Order("recipes.created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	return recipes, count, nil
}

func (r *recipeRepository) AddFavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	favorite := entities.Favorite{
		ID:        uuid.New(),
		UserID:    userID,
		RecipeID:  recipeID,
		CreatedAt: time.Now(),
	}
	return r.db.WithContext(ctx).Create(&favorite).Error
}

func (r *recipeRepository) RemoveFavorite(ctx context.Context, userID, recipeID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.Favorite{})
	return res.RowsAffected, res.Error
}

func (r *recipeRepository) IsFavorited(ctx context.Context, userID, recipeID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Favorite{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *recipeRepository) AddToShoppingCart(ctx context.Context, userID, recipeID uuid.UUID) error {
	entry := entities.ShoppingCart{
		ID:        uuid.New(),
		UserID:    userID,
		RecipeID:  recipeID,
		CreatedAt: time.Now(),
	}
	return r.db.WithContext(ctx).Create(&entry).Error
}

func (r *recipeRepository) RemoveFromShoppingCart(ctx context.Context, userID, recipeID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.ShoppingCart{})
	return res.RowsAffected, res.Error
}

func (r *recipeRepository) IsInShoppingCart(ctx context.Context, userID, recipeID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.ShoppingCart{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetShoppingList aggregates the line items of every recipe in the user's
// cart, grouped by ingredient name and unit. Two catalog rows sharing a
// name and unit merge into one line.
func (r *recipeRepository) GetShoppingList(ctx context.Context, userID string) ([]domain.ShoppingListItem, error) {
	var items []domain.ShoppingListItem
	if err := r.db.WithContext(ctx).
		Model(&entities.RecipeIngredient{}).
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS total_amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_carts.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name asc").
		Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// SetShortLink assigns the link only when none is set yet; the unique index
// on short_link turns collisions into gorm.ErrDuplicatedKey for the caller
// to re-roll on.
func (r *recipeRepository) SetShortLink(ctx context.Context, recipeID uuid.UUID, link string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&entities.Recipe{}).
		Where("id = ? AND short_link IS NULL", recipeID).
		Update("short_link", link)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *recipeRepository) GetRecipeByShortLink(ctx context.Context, link string) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := r.db.WithContext(ctx).Where("short_link = ?", link).First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

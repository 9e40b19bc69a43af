package domain

import "errors"

const (
	MinCookingTime = 1
	MinAmount      = 1
)

var (
	MessageSuccessGetRecipes       = "success get recipes"
	MessageSuccessGetRecipeDetail  = "success get recipe detail"
	MessageSuccessCreateRecipe     = "recipe created successfully"
	MessageSuccessUpdateRecipe     = "recipe updated successfully"
	MessageSuccessDeleteRecipe     = "recipe deleted successfully"
	MessageSuccessAddFavorite      = "recipe added to favorites"
	MessageSuccessRemoveFavorite   = "recipe removed from favorites"
	MessageSuccessAddToCart        = "recipe added to shopping cart"
	MessageSuccessRemoveFromCart   = "recipe removed from shopping cart"
	MessageSuccessGetShortLink     = "success get short link"
	MessageSuccessDownloadShopping = "success download shopping list"

	MessageFailedGetRecipes       = "failed to get recipes"
	MessageFailedGetRecipeDetail  = "failed to get recipe detail"
	MessageFailedCreateRecipe     = "failed to create recipe"
	MessageFailedUpdateRecipe     = "failed to update recipe"
	MessageFailedDeleteRecipe     = "failed to delete recipe"
	MessageFailedAddFavorite      = "failed to add recipe to favorites"
	MessageFailedRemoveFavorite   = "failed to remove recipe from favorites"
	MessageFailedAddToCart        = "failed to add recipe to shopping cart"
	MessageFailedRemoveFromCart   = "failed to remove recipe from shopping cart"
	MessageFailedGetShortLink     = "failed to get short link"
	MessageFailedDownloadShopping = "failed to download shopping list"

	ErrRecipeNotFound           = errors.New("recipe not found")
	ErrUnauthorizedRecipeAccess = errors.New("unauthorized access to recipe")
	ErrEmptyTags                = errors.New("add at least one tag")
	ErrDuplicateTags            = errors.New("tags must not repeat")
	ErrEmptyIngredients         = errors.New("add at least one ingredient")
	ErrDuplicateIngredients     = errors.New("ingredients must not repeat")
	ErrInvalidAmount            = errors.New("ingredient amount must be at least 1")
	ErrInvalidCookingTime       = errors.New("cooking time must be at least 1")
	ErrAlreadyInFavorites       = errors.New("recipe is already in favorites")
	ErrNotInFavorites           = errors.New("recipe is not in favorites")
	ErrAlreadyInShoppingCart    = errors.New("recipe is already in the shopping cart")
	ErrNotInShoppingCart        = errors.New("recipe is not in the shopping cart")
	ErrEmptyShoppingCart        = errors.New("the shopping cart is empty")
	ErrShortLinkNotFound        = errors.New("short link not found")
)

type (
	RecipeIngredientRequest struct {
		ID     string `json:"id" validate:"required,uuid"`
		Amount int    `json:"amount" validate:"required"`
	}

	CreateRecipeRequest struct {
		Name        string                    `json:"name" validate:"required,max=256"`
		Image       string                    `json:"image" validate:"required"`
		Text        string                    `json:"text" validate:"required"`
		CookingTime int                       `json:"cooking_time" validate:"required"`
		Tags        []string                  `json:"tags" validate:"required"`
		Ingredients []RecipeIngredientRequest `json:"ingredients" validate:"required,dive"`
	}

	// UpdateRecipeRequest carries the same field set as create: the engine
	// replaces association sets wholesale, so both tags and ingredients are
	// mandatory on update.
	UpdateRecipeRequest = CreateRecipeRequest

	RecipeIngredientResponse struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	RecipeResponse struct {
		ID               string                     `json:"id"`
		Tags             []TagResponse              `json:"tags"`
		Author           UserResponse               `json:"author"`
		Ingredients      []RecipeIngredientResponse `json:"ingredients"`
		IsFavorited      bool                       `json:"is_favorited"`
		IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
		Name             string                     `json:"name"`
		Image            string                     `json:"image"`
		Text             string                     `json:"text"`
		CookingTime      int                        `json:"cooking_time"`
	}

	RecipeMinifiedResponse struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Image       string `json:"image"`
		CookingTime int    `json:"cooking_time"`
	}

	RecipeFilter struct {
		AuthorID         string
		TagSlugs         []string
		IsFavorited      bool
		IsInShoppingCart bool
	}

	ShoppingListItem struct {
		Name            string
		MeasurementUnit string
		TotalAmount     int
	}

	ShoppingListResponse struct {
		Filename string
		Content  string
	}

	ShortLinkResponse struct {
		ShortLink string `json:"short-link"`
	}
)

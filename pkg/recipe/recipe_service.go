package recipe

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"
	"Foodgram-Backend/internal/utils/storage"
	"Foodgram-Backend/pkg/ingredient"
	"Foodgram-Backend/pkg/tag"
	"Foodgram-Backend/pkg/user"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	shortLinkAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	shortLinkLength   = 3
)

type (
	RecipeService interface {
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int, viewerID string) ([]domain.RecipeResponse, int64, error)
		GetRecipeDetail(ctx context.Context, recipeID string, viewerID string) (domain.RecipeResponse, error)
		CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID string) (domain.RecipeResponse, error)
		UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID string) (domain.RecipeResponse, error)
		DeleteRecipe(ctx context.Context, recipeID string, userID string) error

		AddFavorite(ctx context.Context, recipeID, userID string) (domain.RecipeMinifiedResponse, error)
		RemoveFavorite(ctx context.Context, recipeID, userID string) error
		AddToShoppingCart(ctx context.Context, recipeID, userID string) (domain.RecipeMinifiedResponse, error)
		RemoveFromShoppingCart(ctx context.Context, recipeID, userID string) error
		DownloadShoppingList(ctx context.Context, userID string) (domain.ShoppingListResponse, error)

		GetOrAssignShortLink(ctx context.Context, recipeID string) (string, error)
		ResolveShortLink(ctx context.Context, link string) (string, error)
	}

	recipeService struct {
		recipeRepository     RecipeRepository
		tagRepository        tag.TagRepository
		ingredientRepository ingredient.IngredientRepository
		userRepository       user.UserRepository
		s3                   storage.AwsS3
	}
)

func NewRecipeService(
	recipeRepository RecipeRepository,
	tagRepository tag.TagRepository,
	ingredientRepository ingredient.IngredientRepository,
	userRepository user.UserRepository,
	s3 storage.AwsS3,
) RecipeService {
	return &recipeService{
		recipeRepository:     recipeRepository,
		tagRepository:        tagRepository,
		ingredientRepository: ingredientRepository,
		userRepository:       userRepository,
		s3:                   s3,
	}
}

func (s *recipeService) GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int, viewerID string) ([]domain.RecipeResponse, int64, error) {
	// Anonymous callers asking for their favorites or cart get an empty
	// page, never someone else's rows.
	if viewerID == "" && (filter.IsFavorited || filter.IsInShoppingCart) {
		return []domain.RecipeResponse{}, 0, nil
	}

	recipes, count, err := s.recipeRepository.GetRecipes(ctx, filter, viewerID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]domain.RecipeResponse, 0, len(recipes))
	for _, recipe := range recipes {
		projected, err := s.toRecipeResponse(ctx, recipe, viewerID)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, projected)
	}
	return res, count, nil
}

func (s *recipeService) GetRecipeDetail(ctx context.Context, recipeID string, viewerID string) (domain.RecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}
	return s.toRecipeResponse(ctx, recipe, viewerID)
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID string) (domain.RecipeResponse, error) {
	if err := validateAuthoring(req); err != nil {
		return domain.RecipeResponse{}, err
	}

	tags, err := s.resolveTags(ctx, req.Tags)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	lines, err := s.resolveLineItems(ctx, req.Ingredients)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	authorID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipeResponse{}, domain.ErrParseUUID
	}

	imageURL, err := s.resolveImage(req.Image)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	recipe := &entities.Recipe{
		ID:          uuid.New(),
		AuthorID:    authorID,
		Name:        req.Name,
		ImageURL:    imageURL,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		Tags:        tags,
	}

	if err := s.recipeRepository.CreateRecipe(ctx, recipe, lines); err != nil {
		return domain.RecipeResponse{}, err
	}

	// Re-read through the read projection so the caller sees canonical
	// server state, not an echo of the input.
	return s.GetRecipeDetail(ctx, recipe.ID.String(), userID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID string) (domain.RecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}

	if recipe.AuthorID.String() != userID {
		return domain.RecipeResponse{}, domain.ErrUnauthorizedRecipeAccess
	}

	if err := validateAuthoring(req); err != nil {
		return domain.RecipeResponse{}, err
	}

	tags, err := s.resolveTags(ctx, req.Tags)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	lines, err := s.resolveLineItems(ctx, req.Ingredients)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	imageURL, err := s.resolveImage(req.Image)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	recipe.Name = req.Name
	recipe.ImageURL = imageURL
	recipe.Text = req.Text
	recipe.CookingTime = req.CookingTime
	recipe.Tags = tags
	recipe.Ingredients = nil

	if err := s.recipeRepository.UpdateRecipe(ctx, recipe, lines); err != nil {
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipeDetail(ctx, recipe.ID.String(), userID)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, recipeID string, userID string) error {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	if recipe.AuthorID.String() != userID {
		return domain.ErrUnauthorizedRecipeAccess
	}

	if err := s.recipeRepository.DeleteRecipe(ctx, recipe.ID); err != nil {
		return err
	}

	if recipe.ImageURL != "" {
		objectKey := s.s3.GetObjectKeyFromLink(recipe.ImageURL)
		_ = s.s3.DeleteFile(objectKey)
	}
	return nil
}

func (s *recipeService) AddFavorite(ctx context.Context, recipeID, userID string) (domain.RecipeMinifiedResponse, error) {
	recipe, userUUID, err := s.relationTargets(ctx, recipeID, userID)
	if err != nil {
		return domain.RecipeMinifiedResponse{}, err
	}

	favorited, err := s.recipeRepository.IsFavorited(ctx, userID, recipeID)
	if err != nil {
		return domain.RecipeMinifiedResponse{}, err
	}
	if favorited {
		return domain.RecipeMinifiedResponse{}, domain.ErrAlreadyInFavorites
	}

	if err := s.recipeRepository.AddFavorite(ctx, userUUID, recipe.ID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.RecipeMinifiedResponse{}, domain.ErrAlreadyInFavorites
		}
		return domain.RecipeMinifiedResponse{}, err
	}

	return toMinifiedResponse(recipe), nil
}

func (s *recipeService) RemoveFavorite(ctx context.Context, recipeID, userID string) error {
	recipe, userUUID, err := s.relationTargets(ctx, recipeID, userID)
	if err != nil {
		return err
	}

	deleted, err := s.recipeRepository.RemoveFavorite(ctx, userUUID, recipe.ID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return domain.ErrNotInFavorites
	}
	return nil
}

func (s *recipeService) AddToShoppingCart(ctx context.Context, recipeID, userID string) (domain.RecipeMinifiedResponse, error) {
	recipe, userUUID, err := s.relationTargets(ctx, recipeID, userID)
	if err != nil {
		return domain.RecipeMinifiedResponse{}, err
	}

	inCart, err := s.recipeRepository.IsInShoppingCart(ctx, userID, recipeID)
	if err != nil {
		return domain.RecipeMinifiedResponse{}, err
	}
	if inCart {
		return domain.RecipeMinifiedResponse{}, domain.ErrAlreadyInShoppingCart
	}

	if err := s.recipeRepository.AddToShoppingCart(ctx, userUUID, recipe.ID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.RecipeMinifiedResponse{}, domain.ErrAlreadyInShoppingCart
		}
		return domain.RecipeMinifiedResponse{}, err
	}

	return toMinifiedResponse(recipe), nil
}

func (s *recipeService) RemoveFromShoppingCart(ctx context.Context, recipeID, userID string) error {
	recipe, userUUID, err := s.relationTargets(ctx, recipeID, userID)
	if err != nil {
		return err
	}

	deleted, err := s.recipeRepository.RemoveFromShoppingCart(ctx, userUUID, recipe.ID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return domain.ErrNotInShoppingCart
	}
	return nil
}

func (s *recipeService) DownloadShoppingList(ctx context.Context, userID string) (domain.ShoppingListResponse, error) {
	items, err := s.recipeRepository.GetShoppingList(ctx, userID)
	if err != nil {
		return domain.ShoppingListResponse{}, err
	}
	if len(items) == 0 {
		return domain.ShoppingListResponse{}, domain.ErrEmptyShoppingCart
	}

	currentUser, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return domain.ShoppingListResponse{}, err
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%s (%s) — %d", item.Name, item.MeasurementUnit, item.TotalAmount))
	}

	return domain.ShoppingListResponse{
		Filename: fmt.Sprintf("foodgram_shopping_list_%s", currentUser.Username),
		Content:  strings.Join(lines, "\n"),
	}, nil
}

// GetOrAssignShortLink returns the recipe's short link, generating one on
// first access. Collisions and concurrent first-access both resolve through
// the unique constraint on short_link.
func (s *recipeService) GetOrAssignShortLink(ctx context.Context, recipeID string) (string, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domain.ErrRecipeNotFound
		}
		return "", err
	}
	if recipe.ShortLink != nil {
		return *recipe.ShortLink, nil
	}

	for {
		link := randomShortLink()
		assigned, err := s.recipeRepository.SetShortLink(ctx, recipe.ID, link)
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			return "", err
		}
		if !assigned {
			// Another request won the race; its link is authoritative.
			recipe, err = s.recipeRepository.GetRecipeByID(ctx, recipeID)
			if err != nil {
				return "", err
			}
			return *recipe.ShortLink, nil
		}
		return link, nil
	}
}

func (s *recipeService) ResolveShortLink(ctx context.Context, link string) (string, error) {
	recipe, err := s.recipeRepository.GetRecipeByShortLink(ctx, link)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domain.ErrShortLinkNotFound
		}
		return "", err
	}
	return recipe.ID.String(), nil
}

func validateAuthoring(req domain.CreateRecipeRequest) error {
	if len(req.Tags) == 0 {
		return domain.ErrEmptyTags
	}
	seenTags := make(map[string]struct{}, len(req.Tags))
	for _, id := range req.Tags {
		if _, ok := seenTags[id]; ok {
			return domain.ErrDuplicateTags
		}
		seenTags[id] = struct{}{}
	}

	if len(req.Ingredients) == 0 {
		return domain.ErrEmptyIngredients
	}
	seenIngredients := make(map[string]struct{}, len(req.Ingredients))
	for _, line := range req.Ingredients {
		if _, ok := seenIngredients[line.ID]; ok {
			return domain.ErrDuplicateIngredients
		}
		seenIngredients[line.ID] = struct{}{}
		if line.Amount < domain.MinAmount {
			return domain.ErrInvalidAmount
		}
	}

	if req.CookingTime < domain.MinCookingTime {
		return domain.ErrInvalidCookingTime
	}
	return nil
}

func (s *recipeService) resolveTags(ctx context.Context, ids []string) ([]*entities.Tag, error) {
	tags, err := s.tagRepository.GetTagsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(tags) != len(ids) {
		return nil, domain.ErrTagNotFound
	}
	return tags, nil
}

func (s *recipeService) resolveLineItems(ctx context.Context, reqLines []domain.RecipeIngredientRequest) ([]*entities.RecipeIngredient, error) {
	ids := make([]string, 0, len(reqLines))
	for _, line := range reqLines {
		ids = append(ids, line.ID)
	}

	ingredients, err := s.ingredientRepository.GetIngredientsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(ingredients) != len(ids) {
		return nil, domain.ErrIngredientNotFound
	}

	byID := make(map[string]*entities.Ingredient, len(ingredients))
	for _, ing := range ingredients {
		byID[ing.ID.String()] = ing
	}

	lines := make([]*entities.RecipeIngredient, 0, len(reqLines))
	for _, reqLine := range reqLines {
		lines = append(lines, &entities.RecipeIngredient{
			ID:           uuid.New(),
			IngredientID: byID[reqLine.ID].ID,
			Amount:       reqLine.Amount,
		})
	}
	return lines, nil
}

func (s *recipeService) resolveImage(image string) (string, error) {
	if !strings.HasPrefix(image, "data:") {
		return image, nil
	}
	objectKey, err := s.s3.UploadBase64Image(uuid.New().String(), image, "recipes", storage.AllowImage...)
	if err != nil {
		return "", err
	}
	return s.s3.GetPublicLinkKey(objectKey), nil
}

func (s *recipeService) relationTargets(ctx context.Context, recipeID, userID string) (*entities.Recipe, uuid.UUID, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, uuid.Nil, domain.ErrRecipeNotFound
		}
		return nil, uuid.Nil, err
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, uuid.Nil, domain.ErrParseUUID
	}
	return recipe, userUUID, nil
}

func (s *recipeService) toRecipeResponse(ctx context.Context, recipe *entities.Recipe, viewerID string) (domain.RecipeResponse, error) {
	tags := make([]domain.TagResponse, 0, len(recipe.Tags))
	for _, t := range recipe.Tags {
		tags = append(tags, tag.ToTagResponse(t))
	}

	ingredients := make([]domain.RecipeIngredientResponse, 0, len(recipe.Ingredients))
	for _, line := range recipe.Ingredients {
		ingredients = append(ingredients, domain.RecipeIngredientResponse{
			ID:              line.IngredientID.String(),
			Name:            line.Ingredient.Name,
			MeasurementUnit: line.Ingredient.MeasurementUnit,
			Amount:          line.Amount,
		})
	}

	var author domain.UserResponse
	if recipe.Author != nil {
		isSubscribed := false
		if viewerID != "" && viewerID != recipe.AuthorID.String() {
			var err error
			isSubscribed, err = s.userRepository.IsSubscribed(ctx, viewerID, recipe.AuthorID.String())
			if err != nil {
				return domain.RecipeResponse{}, err
			}
		}
		author = user.ToUserResponse(recipe.Author, isSubscribed)
	}

	isFavorited := false
	isInShoppingCart := false
	if viewerID != "" {
		var err error
		isFavorited, err = s.recipeRepository.IsFavorited(ctx, viewerID, recipe.ID.String())
		if err != nil {
			return domain.RecipeResponse{}, err
		}
		isInShoppingCart, err = s.recipeRepository.IsInShoppingCart(ctx, viewerID, recipe.ID.String())
		if err != nil {
			return domain.RecipeResponse{}, err
		}
	}

	return domain.RecipeResponse{
		ID:               recipe.ID.String(),
		Tags:             tags,
		Author:           author,
		Ingredients:      ingredients,
		IsFavorited:      isFavorited,
		IsInShoppingCart: isInShoppingCart,
		Name:             recipe.Name,
		Image:            recipe.ImageURL,
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
	}, nil
}

func toMinifiedResponse(recipe *entities.Recipe) domain.RecipeMinifiedResponse {
	return domain.RecipeMinifiedResponse{
		ID:          recipe.ID.String(),
		Name:        recipe.Name,
		Image:       recipe.ImageURL,
		CookingTime: recipe.CookingTime,
	}
}

func randomShortLink() string {
	b := make([]byte, shortLinkLength)
	for i := range b {
		b[i] = shortLinkAlphabet[rand.Intn(len(shortLinkAlphabet))]
	}
	return string(b)
}

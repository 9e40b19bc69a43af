package recipe

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"
	"Foodgram-Backend/pkg/ingredient"
	"Foodgram-Backend/pkg/tag"
	"Foodgram-Backend/pkg/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type stubStorage struct{}

func (stubStorage) UploadBase64Image(fileName string, data string, dir string, allowExt ...string) (string, error) {
	return fmt.Sprintf("%s/%s.png", dir, fileName), nil
}

func (stubStorage) DeleteFile(objectKey string) error { return nil }

func (stubStorage) GetObjectKeyFromLink(link string) string { return link }

func (stubStorage) GetPublicLinkKey(objectKey string) string {
	return "https://cdn.test/" + objectKey
}

type fixtures struct {
	author entities.User
	viewer entities.User

	breakfast entities.Tag
	dinner    entities.Tag

	salt  entities.Ingredient
	sugar entities.Ingredient
	flour entities.Ingredient
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&entities.User{},
		&entities.Follow{},
		&entities.Tag{},
		&entities.Ingredient{},
		&entities.Recipe{},
		&entities.RecipeIngredient{},
		&entities.Favorite{},
		&entities.ShoppingCart{},
	))
	return db
}

func setupRecipeTest(t *testing.T) (RecipeService, *gorm.DB, fixtures) {
	t.Helper()
	db := newTestDB(t)

	f := fixtures{
		author: entities.User{ID: uuid.New(), Email: "author@test.io", Username: "author", FirstName: "Alex", Password: "x"},
		viewer: entities.User{ID: uuid.New(), Email: "viewer@test.io", Username: "viewer", FirstName: "Val", Password: "x"},

		breakfast: entities.Tag{ID: uuid.New(), Name: "Breakfast", Slug: "breakfast"},
		dinner:    entities.Tag{ID: uuid.New(), Name: "Dinner", Slug: "dinner"},

		salt:  entities.Ingredient{ID: uuid.New(), Name: "Salt", MeasurementUnit: "g"},
		sugar: entities.Ingredient{ID: uuid.New(), Name: "Sugar", MeasurementUnit: "g"},
		flour: entities.Ingredient{ID: uuid.New(), Name: "Flour", MeasurementUnit: "kg"},
	}
	require.NoError(t, db.Create(&f.author).Error)
	require.NoError(t, db.Create(&f.viewer).Error)
	require.NoError(t, db.Create(&f.breakfast).Error)
	require.NoError(t, db.Create(&f.dinner).Error)
	require.NoError(t, db.Create(&f.salt).Error)
	require.NoError(t, db.Create(&f.sugar).Error)
	require.NoError(t, db.Create(&f.flour).Error)

	service := NewRecipeService(
		NewRecipeRepository(db),
		tag.NewTagRepository(db),
		ingredient.NewIngredientRepository(db),
		user.NewUserRepository(db),
		stubStorage{},
	)
	return service, db, f
}

func recipeRequest(name string, tagIDs []string, lines ...domain.RecipeIngredientRequest) domain.CreateRecipeRequest {
	return domain.CreateRecipeRequest{
		Name:        name,
		Image:       "https://cdn.test/recipes/static.png",
		Text:        "Mix and serve.",
		CookingTime: 15,
		Tags:        tagIDs,
		Ingredients: lines,
	}
}

func line(id uuid.UUID, amount int) domain.RecipeIngredientRequest {
	return domain.RecipeIngredientRequest{ID: id.String(), Amount: amount}
}

func TestCreateRecipe_RoundTrip(t *testing.T) {
	service, _, f := setupRecipeTest(t)
	ctx := context.Background()

	req := recipeRequest("Pancakes",
		[]string{f.dinner.ID.String(), f.breakfast.ID.String()},
		line(f.flour.ID, 2), line(f.sugar.ID, 5),
	)

	res, err := service.CreateRecipe(ctx, req, f.author.ID.String())
	require.NoError(t, err)

	assert.Equal(t, "Pancakes", res.Name)
	assert.Equal(t, 15, res.CookingTime)
	assert.Equal(t, f.author.ID.String(), res.Author.ID)
	assert.False(t, res.IsFavorited)
	assert.False(t, res.IsInShoppingCart)

	gotTags := make([]string, 0, len(res.Tags))
	for _, tg := range res.Tags {
		gotTags = append(gotTags, tg.Slug)
	}
	assert.ElementsMatch(t, []string{"breakfast", "dinner"}, gotTags)

	amounts := map[string]int{}
	for _, ing := range res.Ingredients {
		amounts[ing.Name] = ing.Amount
	}
	assert.Equal(t, map[string]int{"Flour": 2, "Sugar": 5}, amounts)
}

func TestCreateRecipe_UploadsDataURIImage(t *testing.T) {
	service, _, f := setupRecipeTest(t)

	req := recipeRequest("Toast", []string{f.breakfast.ID.String()}, line(f.salt.ID, 1))
	req.Image = "data:image/png;base64,aGVsbG8="

	res, err := service.CreateRecipe(context.Background(), req, f.author.ID.String())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Image, "https://cdn.test/recipes/"))
}

func TestCreateRecipe_Validation(t *testing.T) {
	service, _, f := setupRecipeTest(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  domain.CreateRecipeRequest
		want error
	}{
		{
			name: "no tags",
			req:  recipeRequest("R", nil, line(f.salt.ID, 1)),
			want: domain.ErrEmptyTags,
		},
		{
			name: "repeated tags",
			req:  recipeRequest("R", []string{f.breakfast.ID.String(), f.breakfast.ID.String()}, line(f.salt.ID, 1)),
			want: domain.ErrDuplicateTags,
		},
		{
			name: "no ingredients",
			req:  recipeRequest("R", []string{f.breakfast.ID.String()}),
			want: domain.ErrEmptyIngredients,
		},
		{
			name: "repeated ingredients",
			req:  recipeRequest("R", []string{f.breakfast.ID.String()}, line(f.salt.ID, 1), line(f.salt.ID, 2)),
			want: domain.ErrDuplicateIngredients,
		},
		{
			name: "amount below minimum",
			req:  recipeRequest("R", []string{f.breakfast.ID.String()}, line(f.salt.ID, 0)),
			want: domain.ErrInvalidAmount,
		},
		{
			name: "unknown tag",
			req:  recipeRequest("R", []string{uuid.NewString()}, line(f.salt.ID, 1)),
			want: domain.ErrTagNotFound,
		},
		{
			name: "unknown ingredient",
			req:  recipeRequest("R", []string{f.breakfast.ID.String()}, line(uuid.New(), 1)),
			want: domain.ErrIngredientNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.CreateRecipe(ctx, tc.req, f.author.ID.String())
			assert.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("cooking time below minimum", func(t *testing.T) {
		req := recipeRequest("R", []string{f.breakfast.ID.String()}, line(f.salt.ID, 1))
		req.CookingTime = 0
		_, err := service.CreateRecipe(ctx, req, f.author.ID.String())
		assert.ErrorIs(t, err, domain.ErrInvalidCookingTime)
	})
}

func TestUpdateRecipe_ReplacesAssociationSets(t *testing.T) {
	service, db, f := setupRecipeTest(t)
	ctx := context.Background()

	created, err := service.CreateRecipe(ctx, recipeRequest("Dough",
		[]string{f.breakfast.ID.String()},
		line(f.salt.ID, 1), line(f.sugar.ID, 2),
	), f.author.ID.String())
	require.NoError(t, err)

	updated, err := service.UpdateRecipe(ctx, created.ID, recipeRequest("Dough v2",
		[]string{f.dinner.ID.String()},
		line(f.sugar.ID, 3), line(f.flour.ID, 1),
	), f.author.ID.String())
	require.NoError(t, err)

	assert.Equal(t, "Dough v2", updated.Name)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "dinner", updated.Tags[0].Slug)

	amounts := map[string]int{}
	for _, ing := range updated.Ingredients {
		amounts[ing.Name] = ing.Amount
	}
	assert.Equal(t, map[string]int{"Sugar": 3, "Flour": 1}, amounts)

	// The old line items must be gone, not merged.
	var lineCount int64
	require.NoError(t, db.Model(&entities.RecipeIngredient{}).
		Where("recipe_id = ?", created.ID).Count(&lineCount).Error)
	assert.EqualValues(t, 2, lineCount)
}

func TestUpdateRecipe_AuthorOnly(t *testing.T) {
	service, _, f := setupRecipeTest(t)
	ctx := context.Background()

	created, err := service.CreateRecipe(ctx, recipeRequest("Soup",
		[]string{f.dinner.ID.String()}, line(f.salt.ID, 2),
	), f.author.ID.String())
	require.NoError(t, err)

	req := recipeRequest("Stolen soup", []string{f.dinner.ID.String()}, line(f.salt.ID, 2))
	_, err = service.UpdateRecipe(ctx, created.ID, req, f.viewer.ID.String())
	assert.ErrorIs(t, err, domain.ErrUnauthorizedRecipeAccess)

	_, err = service.UpdateRecipe(ctx, uuid.NewString(), req, f.author.ID.String())
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestDeleteRecipe(t *testing.T) {
	service, db, f := setupRecipeTest(t)
	ctx := context.Background()

	created, err := service.CreateRecipe(ctx, recipeRequest("Cake",
		[]string{f.breakfast.ID.String()}, line(f.flour.ID, 1),
	), f.author.ID.String())
	require.NoError(t, err)

	_, err = service.AddFavorite(ctx, created.ID, f.viewer.ID.String())
	require.NoError(t, err)

	err = service.DeleteRecipe(ctx, created.ID, f.viewer.ID.String())
	assert.ErrorIs(t, err, domain.ErrUnauthorizedRecipeAccess)

	require.NoError(t, service.DeleteRecipe(ctx, created.ID, f.author.ID.String()))

	err = service.DeleteRecipe(ctx, created.ID, f.author.ID.String())
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)

	var favorites, lines int64
	require.NoError(t, db.Model(&entities.Favorite{}).Where("recipe_id = ?", created.ID).Count(&favorites).Error)
	require.NoError(t, db.Model(&entities.RecipeIngredient{}).Where("recipe_id = ?", created.ID).Count(&lines).Error)
	assert.Zero(t, favorites)
	assert.Zero(t, lines)
}

func TestFavoriteLifecycle(t *testing.T) {
	service, _, f := setupRecipeTest(t)
	ctx := context.Background()

	created, err := service.CreateRecipe(ctx, recipeRequest("Pie",
		[]string{f.dinner.ID.String()}, line(f.flour.ID, 1),
	), f.author.ID.String())
	require.NoError(t, err)

	minified, err := service.AddFavorite(ctx, created.ID, f.viewer.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.ID, minified.ID)
	assert.Equal(t, "Pie", minified.Name)

	_, err = service.AddFavorite(ctx, created.ID, f.viewer.ID.String())
	assert.ErrorIs(t, err, domain.ErrAlreadyInFavorites)

	detail, err := service.GetRecipeDetail(ctx, created.ID, f.viewer.ID.String())
	require.NoError(t, err)
	assert.True(t, detail.IsFavorited)

	detail, err = service.GetRecipeDetail(ctx, created.ID, "")
	require.NoError(t, err)
	assert.False(t, detail.IsFavorited)

	require.NoError(t, service.RemoveFavorite(ctx, created.ID, f.viewer.ID.String()))
	err = service.RemoveFavorite(ctx, created.ID, f.viewer.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotInFavorites)

	_, err = service.AddFavorite(ctx, uuid.NewString(), f.viewer.ID.String())
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestShoppingListAggregation(t *testing.T) {
	service, _, f := setupRecipeTest(t)
	ctx := context.Background()

	first, err := service.CreateRecipe(ctx, recipeRequest("Brine",
		[]string{f.dinner.ID.String()},
		line(f.salt.ID, 10), line(f.sugar.ID, 5),
	), f.author.ID.String())
	require.NoError(t, err)

	second, err := service.CreateRecipe(ctx, recipeRequest("Cure",
		[]string{f.dinner.ID.String()},
		line(f.salt.ID, 20),
	), f.author.ID.String())
	require.NoError(t, err)

	viewerID := f.viewer.ID.String()
	_, err = service.AddToShoppingCart(ctx, first.ID, viewerID)
	require.NoError(t, err)
	_, err = service.AddToShoppingCart(ctx, second.ID, viewerID)
	require.NoError(t, err)

	res, err := service.DownloadShoppingList(ctx, viewerID)
	require.NoError(t, err)

	assert.Equal(t, "foodgram_shopping_list_viewer", res.Filename)
	assert.Equal(t, "Salt (g) — 30\nSugar (g) — 5", res.Content)
}

func TestShoppingCartLifecycle(t *testing.T) {
	service, _, f := setupRecipeTest(t)
	ctx := context.Background()

	created, err := service.CreateRecipe(ctx, recipeRequest("Stew",
		[]string{f.dinner.ID.String()}, line(f.salt.ID, 3),
	), f.author.ID.String())
	require.NoError(t, err)

	viewerID := f.viewer.ID.String()

	_, err = service.DownloadShoppingList(ctx, viewerID)
	assert.ErrorIs(t, err, domain.ErrEmptyShoppingCart)

	_, err = service.AddToShoppingCart(ctx, created.ID, viewerID)
	require.NoError(t, err)
	_, err = service.AddToShoppingCart(ctx, created.ID, viewerID)
	assert.ErrorIs(t, err, domain.ErrAlreadyInShoppingCart)

	require.NoError(t, service.RemoveFromShoppingCart(ctx, created.ID, viewerID))
	err = service.RemoveFromShoppingCart(ctx, created.ID, viewerID)
	assert.ErrorIs(t, err, domain.ErrNotInShoppingCart)
}

func TestShortLink(t *testing.T) {
	service, _, f := setupRecipeTest(t)
	ctx := context.Background()

	created, err := service.CreateRecipe(ctx, recipeRequest("Linked",
		[]string{f.breakfast.ID.String()}, line(f.salt.ID, 1),
	), f.author.ID.String())
	require.NoError(t, err)

	link, err := service.GetOrAssignShortLink(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, link, shortLinkLength)

	again, err := service.GetOrAssignShortLink(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, link, again)

	recipeID, err := service.ResolveShortLink(ctx, link)
	require.NoError(t, err)
	assert.Equal(t, created.ID, recipeID)

	_, err = service.ResolveShortLink(ctx, "0000")
	assert.ErrorIs(t, err, domain.ErrShortLinkNotFound)

	_, err = service.GetOrAssignShortLink(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestGetRecipes_Filters(t *testing.T) {
	service, _, f := setupRecipeTest(t)
	ctx := context.Background()

	breakfastRecipe, err := service.CreateRecipe(ctx, recipeRequest("Omelette",
		[]string{f.breakfast.ID.String()}, line(f.salt.ID, 1),
	), f.author.ID.String())
	require.NoError(t, err)

	_, err = service.CreateRecipe(ctx, recipeRequest("Roast",
		[]string{f.dinner.ID.String()}, line(f.salt.ID, 2),
	), f.viewer.ID.String())
	require.NoError(t, err)

	all, count, err := service.GetRecipes(ctx, domain.RecipeFilter{}, 1, 10, "")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	assert.Len(t, all, 2)

	byAuthor, count, err := service.GetRecipes(ctx, domain.RecipeFilter{AuthorID: f.author.ID.String()}, 1, 10, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, "Omelette", byAuthor[0].Name)

	byTag, _, err := service.GetRecipes(ctx, domain.RecipeFilter{TagSlugs: []string{"breakfast"}}, 1, 10, "")
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, "Omelette", byTag[0].Name)

	bothTags, _, err := service.GetRecipes(ctx, domain.RecipeFilter{TagSlugs: []string{"breakfast", "dinner"}}, 1, 10, "")
	require.NoError(t, err)
	assert.Len(t, bothTags, 2)

	// Anonymous favorites filter yields nothing instead of leaking rows.
	anonFavorites, count, err := service.GetRecipes(ctx, domain.RecipeFilter{IsFavorited: true}, 1, 10, "")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, anonFavorites)

	_, err = service.AddFavorite(ctx, breakfastRecipe.ID, f.viewer.ID.String())
	require.NoError(t, err)

	favorites, count, err := service.GetRecipes(ctx, domain.RecipeFilter{IsFavorited: true}, 1, 10, f.viewer.ID.String())
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	require.Len(t, favorites, 1)
	assert.Equal(t, "Omelette", favorites[0].Name)
	assert.True(t, favorites[0].IsFavorited)
}

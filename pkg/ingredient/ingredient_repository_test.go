package ingredient

import (
	"context"
	"fmt"
	"testing"

	"Foodgram-Backend/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupIngredientTest(t *testing.T) (IngredientRepository, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Ingredient{}))

	return NewIngredientRepository(db), db
}

func TestIngredientPairUniqueness(t *testing.T) {
	_, db := setupIngredientTest(t)

	require.NoError(t, db.Create(&entities.Ingredient{
		ID: uuid.New(), Name: "Salt", MeasurementUnit: "g",
	}).Error)

	// Same name and unit is rejected by the storage layer itself.
	err := db.Create(&entities.Ingredient{
		ID: uuid.New(), Name: "Salt", MeasurementUnit: "g",
	}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// Same name with another unit is a distinct catalog row.
	assert.NoError(t, db.Create(&entities.Ingredient{
		ID: uuid.New(), Name: "Salt", MeasurementUnit: "pinch",
	}).Error)
}

func TestGetIngredients_SubstringSearch(t *testing.T) {
	repository, db := setupIngredientTest(t)
	ctx := context.Background()

	for _, row := range []entities.Ingredient{
		{ID: uuid.New(), Name: "Brown sugar", MeasurementUnit: "g"},
		{ID: uuid.New(), Name: "Sugar", MeasurementUnit: "g"},
		{ID: uuid.New(), Name: "Salt", MeasurementUnit: "g"},
	} {
		require.NoError(t, db.Create(&row).Error)
	}

	found, err := repository.GetIngredients(ctx, "sug")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Brown sugar", found[0].Name)
	assert.Equal(t, "Sugar", found[1].Name)

	all, err := repository.GetIngredients(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGetOrCreateIngredient(t *testing.T) {
	repository, db := setupIngredientTest(t)
	ctx := context.Background()

	first, err := repository.GetOrCreateIngredient(ctx, "Flour", "kg")
	require.NoError(t, err)

	second, err := repository.GetOrCreateIngredient(ctx, "Flour", "kg")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&entities.Ingredient{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

package tag

import (
	"context"
	"fmt"
	"testing"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTagTest(t *testing.T) (TagService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Tag{}))

	return NewTagService(NewTagRepository(db)), db
}

func TestGetTags(t *testing.T) {
	service, db := setupTagTest(t)

	for _, row := range []entities.Tag{
		{ID: uuid.New(), Name: "Dinner", Slug: "dinner"},
		{ID: uuid.New(), Name: "Breakfast", Slug: "breakfast"},
	} {
		require.NoError(t, db.Create(&row).Error)
	}

	tags, err := service.GetTags(context.Background())
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "Breakfast", tags[0].Name)
	assert.Equal(t, "Dinner", tags[1].Name)
}

func TestGetTagDetail(t *testing.T) {
	service, db := setupTagTest(t)

	row := entities.Tag{ID: uuid.New(), Name: "Dinner", Slug: "dinner"}
	require.NoError(t, db.Create(&row).Error)

	res, err := service.GetTagDetail(context.Background(), row.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "dinner", res.Slug)

	_, err = service.GetTagDetail(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrTagNotFound)
}

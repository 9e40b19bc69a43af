package user

import (
	"context"
	"fmt"
	"testing"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"
	"Foodgram-Backend/pkg/jwt"

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

func setupUserTest(t *testing.T) (UserService, jwt.JWTService, *gorm.DB) {
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
	))

	jwtService := jwt.NewJWTService()
	service := NewUserService(NewUserRepository(db), jwtService, stubStorage{})
	return service, jwtService, db
}

func registerRequest(email, username string) domain.RegisterRequest {
	return domain.RegisterRequest{
		Email:     email,
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		Password:  "supersecret",
	}
}

func TestRegister(t *testing.T) {
	service, _, _ := setupUserTest(t)
	ctx := context.Background()

	res, err := service.Register(ctx, registerRequest("a@test.io", "alice"))
	require.NoError(t, err)
	assert.Equal(t, "alice", res.Username)
	assert.False(t, res.IsSubscribed)

	_, err = service.Register(ctx, registerRequest("a@test.io", "other"))
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	_, err = service.Register(ctx, registerRequest("b@test.io", "alice"))
	assert.ErrorIs(t, err, domain.ErrUsernameAlreadyExists)

	_, err = service.Register(ctx, registerRequest("me@test.io", "me"))
	assert.ErrorIs(t, err, domain.ErrInvalidUsername)

	_, err = service.Register(ctx, registerRequest("c@test.io", "has spaces"))
	assert.ErrorIs(t, err, domain.ErrInvalidUsername)

	_, err = service.Register(ctx, registerRequest("d@test.io", "dot.and@plus+ok"))
	assert.NoError(t, err)
}

func TestLogin(t *testing.T) {
	service, jwtService, _ := setupUserTest(t)
	ctx := context.Background()

	registered, err := service.Register(ctx, registerRequest("a@test.io", "alice"))
	require.NoError(t, err)

	res, err := service.Login(ctx, domain.LoginRequest{Email: "a@test.io", Password: "supersecret"})
	require.NoError(t, err)
	require.NotEmpty(t, res.AuthToken)

	userID, err := jwtService.GetUserIDByToken(res.AuthToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, userID)

	_, err = service.Login(ctx, domain.LoginRequest{Email: "a@test.io", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = service.Login(ctx, domain.LoginRequest{Email: "nobody@test.io", Password: "supersecret"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestSubscribeLifecycle(t *testing.T) {
	service, _, db := setupUserTest(t)
	ctx := context.Background()

	follower, err := service.Register(ctx, registerRequest("f@test.io", "follower"))
	require.NoError(t, err)
	author, err := service.Register(ctx, registerRequest("a@test.io", "author"))
	require.NoError(t, err)

	authorID := uuid.MustParse(author.ID)
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&entities.Recipe{
			ID:          uuid.New(),
			AuthorID:    authorID,
			Name:        fmt.Sprintf("Recipe %d", i),
			CookingTime: 5,
		}).Error)
	}

	_, err = service.Subscribe(ctx, follower.ID, follower.ID, 0)
	assert.ErrorIs(t, err, domain.ErrSelfSubscribe)

	_, err = service.Subscribe(ctx, uuid.NewString(), follower.ID, 0)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	follow, err := service.Subscribe(ctx, author.ID, follower.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "author", follow.Username)
	assert.True(t, follow.IsSubscribed)
	assert.Len(t, follow.Recipes, 2)
	assert.EqualValues(t, 3, follow.RecipesCount)

	_, err = service.Subscribe(ctx, author.ID, follower.ID, 0)
	assert.ErrorIs(t, err, domain.ErrAlreadySubscribed)

	subscriptions, count, err := service.GetSubscriptions(ctx, follower.ID, 1, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	require.Len(t, subscriptions, 1)
	assert.Equal(t, "author", subscriptions[0].Username)
	assert.Len(t, subscriptions[0].Recipes, 3)

	require.NoError(t, service.Unsubscribe(ctx, author.ID, follower.ID))
	err = service.Unsubscribe(ctx, author.ID, follower.ID)
	assert.ErrorIs(t, err, domain.ErrNotSubscribed)
}

func TestGetUserDetail_ViewerFlags(t *testing.T) {
	service, _, _ := setupUserTest(t)
	ctx := context.Background()

	follower, err := service.Register(ctx, registerRequest("f@test.io", "follower"))
	require.NoError(t, err)
	author, err := service.Register(ctx, registerRequest("a@test.io", "author"))
	require.NoError(t, err)

	_, err = service.Subscribe(ctx, author.ID, follower.ID, 0)
	require.NoError(t, err)

	detail, err := service.GetUserDetail(ctx, author.ID, follower.ID)
	require.NoError(t, err)
	assert.True(t, detail.IsSubscribed)

	detail, err = service.GetUserDetail(ctx, author.ID, "")
	require.NoError(t, err)
	assert.False(t, detail.IsSubscribed)

	_, err = service.GetUserDetail(ctx, uuid.NewString(), "")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUpdateAvatar(t *testing.T) {
	service, _, _ := setupUserTest(t)
	ctx := context.Background()

	registered, err := service.Register(ctx, registerRequest("a@test.io", "alice"))
	require.NoError(t, err)

	res, err := service.UpdateAvatar(ctx, domain.UpdateAvatarRequest{
		Avatar: "data:image/png;base64,aGVsbG8=",
	}, registered.ID)
	require.NoError(t, err)
	assert.Contains(t, res.Avatar, "users/")

	me, err := service.Me(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Avatar, me.Avatar)

	require.NoError(t, service.DeleteAvatar(ctx, registered.ID))
	me, err = service.Me(ctx, registered.ID)
	require.NoError(t, err)
	assert.Empty(t, me.Avatar)
}

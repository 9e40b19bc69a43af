package user

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"
	"Foodgram-Backend/internal/utils/mailing"
	"Foodgram-Backend/internal/utils/storage"
	"Foodgram-Backend/pkg/jwt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const DefaultRecipesLimit = 6

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

type (
	UserService interface {
		Register(ctx context.Context, req domain.RegisterRequest) (domain.UserResponse, error)
		Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error)
		Me(ctx context.Context, userID string) (domain.UserResponse, error)
		GetUsers(ctx context.Context, page, limit int, viewerID string) ([]domain.UserResponse, int64, error)
		GetUserDetail(ctx context.Context, id string, viewerID string) (domain.UserResponse, error)
		UpdateAvatar(ctx context.Context, req domain.UpdateAvatarRequest, userID string) (domain.AvatarResponse, error)
		DeleteAvatar(ctx context.Context, userID string) error
		ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error
		ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error

		Subscribe(ctx context.Context, authorID, userID string, recipesLimit int) (domain.FollowResponse, error)
		Unsubscribe(ctx context.Context, authorID, userID string) error
		GetSubscriptions(ctx context.Context, userID string, page, limit, recipesLimit int) ([]domain.FollowResponse, int64, error)
	}

	userService struct {
		userRepository UserRepository
		jwtService     jwt.JWTService
		s3             storage.AwsS3
	}
)

func NewUserService(userRepository UserRepository, jwtService jwt.JWTService, s3 storage.AwsS3) UserService {
	return &userService{
		userRepository: userRepository,
		jwtService:     jwtService,
		s3:             s3,
	}
}

func (s *userService) Register(ctx context.Context, req domain.RegisterRequest) (domain.UserResponse, error) {
	if strings.EqualFold(req.Username, "me") || !usernamePattern.MatchString(req.Username) {
		return domain.UserResponse{}, domain.ErrInvalidUsername
	}

	if _, err := s.userRepository.GetUserByEmail(ctx, req.Email); err == nil {
		return domain.UserResponse{}, domain.ErrEmailAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.UserResponse{}, err
	}

	if _, err := s.userRepository.GetUserByUsername(ctx, req.Username); err == nil {
		return domain.UserResponse{}, domain.ErrUsernameAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.UserResponse{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.UserResponse{}, err
	}

	user := &entities.User{
		ID:        uuid.New(),
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  string(hashed),
	}

	if err := s.userRepository.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.UserResponse{}, domain.ErrEmailAlreadyExists
		}
		return domain.UserResponse{}, err
	}

	return ToUserResponse(user, false), nil
}

func (s *userService) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	user, err := s.userRepository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LoginResponse{}, domain.ErrInvalidCredentials
		}
		return domain.LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return domain.LoginResponse{}, domain.ErrInvalidCredentials
	}

	token := s.jwtService.GenerateTokenUser(user.ID.String())
	return domain.LoginResponse{AuthToken: token}, nil
}

func (s *userService) Me(ctx context.Context, userID string) (domain.UserResponse, error) {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserResponse{}, domain.ErrUserNotFound
		}
		return domain.UserResponse{}, err
	}
	return ToUserResponse(user, false), nil
}

func (s *userService) GetUsers(ctx context.Context, page, limit int, viewerID string) ([]domain.UserResponse, int64, error) {
	users, count, err := s.userRepository.GetUsers(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]domain.UserResponse, 0, len(users))
	for _, u := range users {
		isSubscribed := false
		if viewerID != "" {
			isSubscribed, err = s.userRepository.IsSubscribed(ctx, viewerID, u.ID.String())
			if err != nil {
				return nil, 0, err
			}
		}
		res = append(res, ToUserResponse(u, isSubscribed))
	}
	return res, count, nil
}

func (s *userService) GetUserDetail(ctx context.Context, id string, viewerID string) (domain.UserResponse, error) {
	user, err := s.userRepository.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserResponse{}, domain.ErrUserNotFound
		}
		return domain.UserResponse{}, err
	}

	isSubscribed := false
	if viewerID != "" {
		isSubscribed, err = s.userRepository.IsSubscribed(ctx, viewerID, id)
		if err != nil {
			return domain.UserResponse{}, err
		}
	}
	return ToUserResponse(user, isSubscribed), nil
}

func (s *userService) UpdateAvatar(ctx context.Context, req domain.UpdateAvatarRequest, userID string) (domain.AvatarResponse, error) {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return domain.AvatarResponse{}, domain.ErrUserNotFound
	}

	if user.AvatarURL != "" {
		existingKey := s.s3.GetObjectKeyFromLink(user.AvatarURL)
		_ = s.s3.DeleteFile(existingKey)
	}

	objectKey, err := s.s3.UploadBase64Image(uuid.New().String(), req.Avatar, "users", storage.AllowImage...)
	if err != nil {
		return domain.AvatarResponse{}, err
	}

	user.AvatarURL = s.s3.GetPublicLinkKey(objectKey)
	if err := s.userRepository.UpdateUser(ctx, user); err != nil {
		return domain.AvatarResponse{}, err
	}

	return domain.AvatarResponse{Avatar: user.AvatarURL}, nil
}

func (s *userService) DeleteAvatar(ctx context.Context, userID string) error {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	if user.AvatarURL != "" {
		objectKey := s.s3.GetObjectKeyFromLink(user.AvatarURL)
		_ = s.s3.DeleteFile(objectKey)
	}

	user.AvatarURL = ""
	return s.userRepository.UpdateUser(ctx, user)
}

func (s *userService) ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error {
	user, err := s.userRepository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	token, err := s.jwtService.GenerateTokenResetPassword(
		map[string]any{"user_id": user.ID.String()},
		15*time.Minute,
	)
	if err != nil {
		return err
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", mailing.LoadMailConfig().AppURL, token)
	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>Follow the link to reset your password:</p><p><a href=%q>%s</a></p>",
		user.FirstName, resetLink, resetLink,
	)
	return mailing.SendMail(user.Email, "Password reset", body)
}

func (s *userService) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	claims, err := s.jwtService.ValidateTokenResetPassword(req.Token)
	if err != nil {
		return err
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return domain.ErrTokenInvalid
	}

	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.Password = string(hashed)
	return s.userRepository.UpdateUser(ctx, user)
}

func (s *userService) Subscribe(ctx context.Context, authorID, userID string, recipesLimit int) (domain.FollowResponse, error) {
	if authorID == userID {
		return domain.FollowResponse{}, domain.ErrSelfSubscribe
	}

	author, err := s.userRepository.GetUserByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.FollowResponse{}, domain.ErrUserNotFound
		}
		return domain.FollowResponse{}, err
	}

	subscribed, err := s.userRepository.IsSubscribed(ctx, userID, authorID)
	if err != nil {
		return domain.FollowResponse{}, err
	}
	if subscribed {
		return domain.FollowResponse{}, domain.ErrAlreadySubscribed
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.FollowResponse{}, domain.ErrParseUUID
	}

	if err := s.userRepository.Subscribe(ctx, userUUID, author.ID); err != nil {
		// Racing requests fall through to the unique pair constraint.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.FollowResponse{}, domain.ErrAlreadySubscribed
		}
		return domain.FollowResponse{}, err
	}

	return s.toFollowResponse(ctx, author, recipesLimit)
}

func (s *userService) Unsubscribe(ctx context.Context, authorID, userID string) error {
	author, err := s.userRepository.GetUserByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ErrParseUUID
	}

	deleted, err := s.userRepository.Unsubscribe(ctx, userUUID, author.ID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return domain.ErrNotSubscribed
	}
	return nil
}

func (s *userService) GetSubscriptions(ctx context.Context, userID string, page, limit, recipesLimit int) ([]domain.FollowResponse, int64, error) {
	authors, count, err := s.userRepository.GetSubscriptions(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]domain.FollowResponse, 0, len(authors))
	for _, author := range authors {
		follow, err := s.toFollowResponse(ctx, author, recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, follow)
	}
	return res, count, nil
}

func (s *userService) toFollowResponse(ctx context.Context, author *entities.User, recipesLimit int) (domain.FollowResponse, error) {
	if recipesLimit <= 0 {
		recipesLimit = DefaultRecipesLimit
	}

	recipes, err := s.userRepository.GetRecipesByAuthor(ctx, author.ID, recipesLimit)
	if err != nil {
		return domain.FollowResponse{}, err
	}

	count, err := s.userRepository.CountRecipesByAuthor(ctx, author.ID)
	if err != nil {
		return domain.FollowResponse{}, err
	}

	minified := make([]domain.RecipeMinifiedResponse, 0, len(recipes))
	for _, recipe := range recipes {
		minified = append(minified, domain.RecipeMinifiedResponse{
			ID:          recipe.ID.String(),
			Name:        recipe.Name,
			Image:       recipe.ImageURL,
			CookingTime: recipe.CookingTime,
		})
	}

	return domain.FollowResponse{
		UserResponse: ToUserResponse(author, true),
		Recipes:      minified,
		RecipesCount: count,
	}, nil
}

func ToUserResponse(user *entities.User, isSubscribed bool) domain.UserResponse {
	return domain.UserResponse{
		Email:        user.Email,
		ID:           user.ID.String(),
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: isSubscribed,
		Avatar:       user.AvatarURL,
	}
}

package domain

import "errors"

var (
	MessageSuccessRegister         = "user registered successfully"
	MessageSuccessLogin            = "login success"
	MessageSuccessGetMe            = "success get current user"
	MessageSuccessGetUsers         = "success get users"
	MessageSuccessGetUserDetail    = "success get user detail"
	MessageSuccessUpdateAvatar     = "avatar updated successfully"
	MessageSuccessDeleteAvatar     = "avatar deleted successfully"
	MessageSuccessForgotPassword   = "password reset email sent"
	MessageSuccessResetPassword    = "password reset successfully"
	MessageSuccessSubscribe        = "subscribed successfully"
	MessageSuccessUnsubscribe      = "unsubscribed successfully"
	MessageSuccessGetSubscriptions = "success get subscriptions"

	MessageFailedRegister         = "failed to register user"
	MessageFailedLogin            = "failed to login"
	MessageFailedGetMe            = "failed to get current user"
	MessageFailedGetUsers         = "failed to get users"
	MessageFailedGetUserDetail    = "failed to get user detail"
	MessageFailedUpdateAvatar     = "failed to update avatar"
	MessageFailedDeleteAvatar     = "failed to delete avatar"
	MessageFailedForgotPassword   = "failed to send password reset email"
	MessageFailedResetPassword    = "failed to reset password"
	MessageFailedSubscribe        = "failed to subscribe"
	MessageFailedUnsubscribe      = "failed to unsubscribe"
	MessageFailedGetSubscriptions = "failed to get subscriptions"

	ErrUserNotFound          = errors.New("user not found")
	ErrEmailAlreadyExists    = errors.New("email already registered")
	ErrUsernameAlreadyExists = errors.New("username already taken")
	ErrInvalidUsername       = errors.New("invalid username")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrSelfSubscribe         = errors.New("you cannot subscribe to yourself")
	ErrAlreadySubscribed     = errors.New("you are already subscribed to this user")
	ErrNotSubscribed         = errors.New("you are not subscribed to this user")
)

type (
	RegisterRequest struct {
		Email     string `json:"email" validate:"required,email,max=254"`
		Username  string `json:"username" validate:"required,max=150"`
		FirstName string `json:"first_name" validate:"required,max=150"`
		LastName  string `json:"last_name" validate:"required,max=150"`
		Password  string `json:"password" validate:"required,min=8"`
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		AuthToken string `json:"auth_token"`
	}

	UpdateAvatarRequest struct {
		Avatar string `json:"avatar" validate:"required"`
	}

	AvatarResponse struct {
		Avatar string `json:"avatar"`
	}

	ForgotPasswordRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	ResetPasswordRequest struct {
		Token       string `json:"token" validate:"required"`
		NewPassword string `json:"new_password" validate:"required,min=8"`
	}

	UserResponse struct {
		Email        string `json:"email"`
		ID           string `json:"id"`
		Username     string `json:"username"`
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		IsSubscribed bool   `json:"is_subscribed"`
		Avatar       string `json:"avatar,omitempty"`
	}

	// FollowResponse is a followed author together with a preview of their
	// recipes, as rendered by the subscriptions listing.
	FollowResponse struct {
		UserResponse
		Recipes      []RecipeMinifiedResponse `json:"recipes"`
		RecipesCount int64                    `json:"recipes_count"`
	}
)

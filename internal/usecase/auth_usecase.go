package usecase

import (
	"context"
)

// LoginInput carries the operator PIN for admin authentication.
type LoginInput struct {
	Pin string `json:"pin" validate:"required"`
}

// LoginOutput carries the issued token pair.
type LoginOutput struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthUsecase defines operator authentication for the admin panel.
type AuthUsecase interface {
	// Login verifies the operator PIN and issues a token pair with the
	// admin role.
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)
}

package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/L7NNON-loop/incutador-pro/internal/auth"
	"github.com/L7NNON-loop/incutador-pro/internal/model"
	"github.com/L7NNON-loop/incutador-pro/internal/utils"
)

// UserStore is the persistence surface for account profiles
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// UserService handles registration and login
type UserService struct {
	store   UserStore
	tokens  *auth.Manager
	credits *CreditService
}

// NewUserService creates a new user service instance
func NewUserService(store UserStore, tokens *auth.Manager, credits *CreditService) *UserService {
	return &UserService{store: store, tokens: tokens, credits: credits}
}

// Register creates a profile, grants the signup credit bonus and
// returns a session token.
func (s *UserService) Register(ctx context.Context, email, fullName, password string) (*model.User, string, error) {
	id, err := utils.GenerateID()
	if err != nil {
		return nil, "", err
	}
	user := &model.User{
		ID:       id,
		Email:    strings.ToLower(strings.TrimSpace(email)),
		FullName: strings.TrimSpace(fullName),
	}
	if err := user.SetPassword(password); err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.store.Create(ctx, user); err != nil {
		return nil, "", err
	}

	// The bonus is a convenience, not part of the account invariant;
	// a failure here leaves a zero balance that redemptions create
	// on demand.
	if err := s.credits.GrantSignupBonus(ctx, user.ID); err != nil {
		log.Printf("user: failed to grant signup bonus to %d: %v", user.ID, err)
	}

	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, nil
}

// Login verifies credentials and returns a session token
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.store.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", err
	}
	if user == nil || !user.CheckPassword(password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, nil
}

// GetProfile returns the profile for an authenticated user
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("profile %d not found", userID)
	}
	return user, nil
}

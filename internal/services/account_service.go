package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shop-service/internal/domain"
	"shop-service/internal/repository"
)

type TokenIssuer interface {
	Issue(userID uint64, username string) (string, error)
}

type AccountService struct {
	users   repository.UserRepository
	hasher  PasswordHasher
	tokens  TokenIssuer
	timeout time.Duration
}

func NewAccountService(u repository.UserRepository, h PasswordHasher, t TokenIssuer, timeout time.Duration) *AccountService {
	return &AccountService{users: u, hasher: h, tokens: t, timeout: timeout}
}

// Login checks the secret of username and returns a session token.
func (s *AccountService) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", domain.InvalidInputf("username and pw are required")
	}

	ctx, cancel := operationContext(ctx, s.timeout)
	defer cancel()

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("verify password of user %d: %w", user.ID, err)
	}
	if !ok {
		return "", domain.ErrUnauthorized
	}

	return s.tokens.Issue(user.ID, user.Username)
}

func (s *AccountService) Profile(ctx context.Context, username string) (*domain.User, error) {
	ctx, cancel := operationContext(ctx, s.timeout)
	defer cancel()
	return s.users.FindByUsername(ctx, username)
}

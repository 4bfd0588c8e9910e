package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

type Service struct {
	Store  *Store
	Secret string
	TTL    time.Duration
}

func NewService(store *Store, secret string, ttl time.Duration) *Service {
	return &Service{Store: store, Secret: secret, TTL: ttl}
}

type TokenResult struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

func (s *Service) Register(ctx context.Context, reg Registration) (TokenResult, error) {
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	hash, err := HashPassword(reg.Password)
	if err != nil {
		return TokenResult{}, err
	}

	user, err := s.Store.CreateUser(ctx, reg, hash)
	if err != nil {
		return TokenResult{}, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return TokenResult{}, err
	}
	return TokenResult{AccessToken: token, User: user}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (TokenResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, hash, err := s.Store.UserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return TokenResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return TokenResult{}, err
	}
	if err := CheckPassword(hash, password); err != nil {
		return TokenResult{}, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return TokenResult{}, err
	}
	return TokenResult{AccessToken: token, User: user}, nil
}

func (s *Service) Me(ctx context.Context, userID string) (User, error) {
	return s.Store.UserByID(ctx, userID)
}

func (s *Service) issueToken(user User) (string, error) {
	return GenerateToken(s.Secret, Claims{UserID: user.ID, RoleName: user.Role}, s.TTL)
}

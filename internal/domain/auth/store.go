package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateUser(ctx context.Context, reg Registration, passwordHash string) (User, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE email = $1", reg.Email).Scan(&count); err != nil {
		return User{}, err
	}
	if count > 0 {
		return User{}, ErrEmailTaken
	}

	user := User{
		ID:               uuid.NewString(),
		Email:            reg.Email,
		Phone:            reg.Phone,
		PhoneCountryCode: reg.PhoneCountryCode,
		FullName:         reg.FullName,
		Role:             reg.Role,
	}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (id, email, phone, phone_country_code, full_name, role, password_hash)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING created_at
  `, user.ID, user.Email, user.Phone, user.PhoneCountryCode, user.FullName, user.Role, passwordHash).Scan(&user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (User, string, error) {
	var user User
	var hash string
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, phone, phone_country_code, full_name, role, password_hash, is_verified, created_at
    FROM users
    WHERE email = $1
  `, email).Scan(&user.ID, &user.Email, &user.Phone, &user.PhoneCountryCode, &user.FullName, &user.Role, &hash, &user.IsVerified, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, "", ErrUserNotFound
	}
	if err != nil {
		return User{}, "", err
	}
	return user, hash, nil
}

func (s *Store) UserByID(ctx context.Context, id string) (User, error) {
	var user User
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, phone, phone_country_code, full_name, role, is_verified, created_at
    FROM users
    WHERE id = $1
  `, id).Scan(&user.ID, &user.Email, &user.Phone, &user.PhoneCountryCode, &user.FullName, &user.Role, &user.IsVerified, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

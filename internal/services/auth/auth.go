// Package auth содержит логику бизнес-уровня для регистрации и
// аутентификации пользователей библиотеки.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/okunevama/bookvault/internal/lib/jwt"
	"github.com/okunevama/bookvault/internal/lib/password"
	"github.com/okunevama/bookvault/internal/models"
)

// ErrInvalidCredentials возвращается при неверной паре логин/пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает его ID.
	RegisterUser(ctx context.Context, user models.User) (string, error)

	// GetUserByUsername возвращает пользователя по имени или ошибку, если не найден.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Service отвечает за регистрацию, авторизацию и валидацию JWT.
type Service struct {
	users    UserRepository
	jwtMaker jwt.Maker
}

// New создает новый экземпляр Service.
func New(users UserRepository, jwtMaker jwt.Maker) *Service {
	return &Service{
		users:    users,
		jwtMaker: jwtMaker,
	}
}

// Register создает нового пользователя с хэшированием пароля и дефолтной
// ролью user. Подписка у нового пользователя отсутствует до первой выдачи.
func (s *Service) Register(ctx context.Context, email, username, rawPassword string) (string, error) {
	const op = "auth.Register"

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	user := models.User{
		Email:              email,
		Username:           username,
		PasswordHash:       hashed,
		Role:               "user", // дефолтная роль при регистрации
		SubscriptionPlan:   models.PlanNone,
		SubscriptionStatus: models.StatusNone,
	}
	uid, err := s.users.RegisterUser(ctx, user)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// Login проверяет пароль пользователя и генерирует JWT.
func (s *Service) Login(ctx context.Context, username, rawPassword string) (token, role string, err error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	token, err = s.jwtMaker.GenerateToken(user.Username, user.Role)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return token, user.Role, nil
}

// ValidateToken проверяет JWT и возвращает username и роль из claims.
func (s *Service) ValidateToken(_ context.Context, token string) (username, role string, err error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return "", "", err
	}
	return claims.Username, claims.Role, nil
}

// Package auth содержит логику бизнес-уровня для регистрации,
// входа пользователей и валидации JWT.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/forexhub/signals-platform/internal/lib/jwt"
	"github.com/forexhub/signals-platform/internal/lib/password"
	"github.com/forexhub/signals-platform/internal/models"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает его UID.
	RegisterUser(ctx context.Context, user models.User) (string, error)
	// GetUserByUsername возвращает пользователя по имени или ошибку, если не найден.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// TrialGranter выдаёт пробный период новому пользователю.
type TrialGranter interface {
	CreateTrial(ctx context.Context, userUID string, durationDays, defaultPlanID int) (*models.Subscription, error)
}

// Service отвечает за регистрацию, авторизацию и валидацию JWT.
type Service struct {
	users    UserRepository
	trials   TrialGranter
	jwtMaker jwt.Maker

	trialDays     int
	defaultPlanID int
}

// New создает новый Service.
func New(users UserRepository, trials TrialGranter, jwtMaker jwt.Maker, trialDays, defaultPlanID int) *Service {
	return &Service{
		users:         users,
		trials:        trials,
		jwtMaker:      jwtMaker,
		trialDays:     trialDays,
		defaultPlanID: defaultPlanID,
	}
}

// Register создает нового пользователя с хэшированием пароля, дефолтной
// ролью user и пробным периодом. Возвращает UID пользователя.
func (s *Service) Register(ctx context.Context, email, username, rawPassword string) (string, error) {
	const op = "auth.Register"

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	user := models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hashed,
		Role:         models.RoleUser,
	}
	uid, err := s.users.RegisterUser(ctx, user)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if _, err = s.trials.CreateTrial(ctx, uid, s.trialDays, s.defaultPlanID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// Login проверяет пароль пользователя и генерирует JWT.
func (s *Service) Login(ctx context.Context, username, rawPassword string) (token, role string, err error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	if err = password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", "", errors.New("invalid credentials")
	}
	token, err = s.jwtMaker.GenerateToken(user.Username, user.Role, user.UID)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return token, user.Role, nil
}

// ValidateToken проверяет JWT и возвращает данные пользователя из claims.
func (s *Service) ValidateToken(_ context.Context, token string) (*models.User, bool, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, false, err
	}
	user := &models.User{
		Username: claims.Username,
		Role:     claims.Role,
		UID:      claims.UserUID,
	}
	return user, true, nil
}

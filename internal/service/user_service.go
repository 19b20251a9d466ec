package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"marketplace-service/internal/entity"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrFederatedAccount   = errors.New("account has no password; it is managed by an external provider")
)

type UserService struct {
	users     UserRepository
	jwtSecret []byte
}

func NewUserService(users UserRepository, jwtSecret []byte) *UserService {
	return &UserService{users: users, jwtSecret: jwtSecret}
}

type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Admin  bool   `json:"admin"`
	jwt.RegisteredClaims
}

func (s *UserService) Signup(ctx context.Context, email, name, password string) (*entity.User, error) {
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Provider:     "credentials",
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		logger.Error().Err(err).Msg("Error creating user")
		return nil, err
	}
	return user, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if user.PasswordHash == "" {
		return "", ErrFederatedAccount
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	claims := &JwtCustomClaims{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Admin:  user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 24)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *UserService) UpdateName(ctx context.Context, user *entity.User, name string) error {
	return s.users.UpdateName(ctx, user.ID, name)
}

// ChangePassword verifies the current password before storing a new hash.
// Federated accounts have no password to change.
func (s *UserService) ChangePassword(ctx context.Context, user *entity.User, current, newPassword string) error {
	stored, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return err
	}
	if stored.PasswordHash == "" {
		return ErrFederatedAccount
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(current)) != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, string(hash))
}

// DeleteAccount removes the user row along with their cart and
// subscriptions. Purchases stay: they are an audit record.
func (s *UserService) DeleteAccount(ctx context.Context, user *entity.User) error {
	return s.users.Delete(ctx, user.ID)
}

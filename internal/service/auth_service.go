package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Ahmed0rashed/laya-store-backend/internal/domain"
	"github.com/Ahmed0rashed/laya-store-backend/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileInput struct {
	Name  *string `json:"name" validate:"omitempty,min=2,max=50"`
	Email *string `json:"email" validate:"omitempty,email"`
}

type AuthResult struct {
	Token string               `json:"token"`
	User  domain.PublicProfile `json:"user"`
}

type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

type AuthService struct {
	users     repository.UserRepository
	secret    []byte
	expiresIn time.Duration
	log       *zap.Logger
	now       func() time.Time
}

func NewAuthService(users repository.UserRepository, secret string, expiresIn time.Duration, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		users:     users,
		secret:    []byte(secret),
		expiresIn: expiresIn,
		log:       log,
		now:       time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateStruct(in, "Validation Error"); err != nil {
		return nil, err
	}

	_, err := s.users.GetUserByEmail(ctx, in.Email)
	if err == nil {
		return nil, NewValidationError("User already exists with this email")
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, newInternalError("failed to look up user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, newInternalError("failed to hash password", err)
	}

	role := domain.RoleUser
	if in.Role != "" {
		role = domain.Role(in.Role)
	}

	user := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, NewValidationError("User already exists with this email")
		}
		return nil, newInternalError("failed to create user", err)
	}

	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateStruct(in, "Please provide email and password"); err != nil {
		return nil, err
	}

	invalid := NewUnauthorizedError("Invalid email or password")

	user, err := s.users.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, newInternalError("failed to look up user", err)
	}
	if !user.IsActive {
		return nil, NewUnauthorizedError("Account is deactivated")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		return nil, invalid
	}

	now := s.now()
	if err := s.users.SetLastLogin(ctx, user.ID, now); err != nil {
		s.log.Warn("failed to record last login", zap.String("user_id", user.ID.Hex()), zap.Error(err))
	} else {
		user.LastLogin = &now
	}

	return s.issue(user)
}

// Profile returns the active user behind id.
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, NewNotFoundError("User not found")
	}
	user, err := s.users.GetUserByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, NewNotFoundError("User not found")
	}
	if err != nil {
		return nil, newInternalError("failed to load user", err)
	}
	if !user.IsActive {
		return nil, NewUnauthorizedError("Account is deactivated")
	}
	return user, nil
}

// UpdateProfile accepts name and email only.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*domain.User, error) {
	if in.Name == nil && in.Email == nil {
		return nil, NewValidationError("No valid updates provided")
	}
	if err := validateStruct(in, "Validation Error"); err != nil {
		return nil, err
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		existing, err := s.users.GetUserByEmail(ctx, *in.Email)
		if err == nil && existing.ID != user.ID {
			return nil, NewValidationError("Email already in use")
		}
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return nil, newInternalError("failed to look up user", err)
		}
	}

	updated, err := s.users.UpdateUser(ctx, user.ID, repository.UserUpdate{Name: in.Name, Email: in.Email})
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, NewNotFoundError("User not found")
	}
	if errors.Is(err, repository.ErrDuplicateKey) {
		return nil, NewValidationError("Email already in use")
	}
	if err != nil {
		return nil, newInternalError("failed to update user", err)
	}
	return updated, nil
}

// VerifyToken validates an HS256 token and returns its user id.
func (s *AuthService) VerifyToken(token string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return "", NewUnauthorizedError("Invalid or expired token")
	}
	return claims.UserID, nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	now := s.now()
	claims := Claims{
		UserID: user.ID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiresIn)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, newInternalError("failed to sign token", err)
	}
	return &AuthResult{Token: token, User: user.PublicProfile()}, nil
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/schoolhealth-notify/internal/config"
	"github.com/yourorg/schoolhealth-notify/internal/model"
	"github.com/yourorg/schoolhealth-notify/internal/repository"
)

// AuthService handles authentication and token generation
type AuthService struct {
	userRepo *repository.UserRepository
	cfg      *config.Config
	logger   *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		cfg:      cfg,
		logger:   logger,
	}
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, login *model.UserLogin) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, login.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("invalid email or password")
	}

	if !user.IsActive {
		return nil, errors.New("account is disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(login.Password)); err != nil {
		s.logger.Debug("password verification failed", zap.Error(err))
		return nil, errors.New("invalid email or password")
	}

	accessToken, refreshToken, expiresAt, err := s.generateTokens(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	return &model.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		User:         *user,
	}, nil
}

// generateTokens creates a new pair of access and refresh tokens
func (s *AuthService) generateTokens(userID int, role string) (accessToken, refreshToken string, expiresAt time.Time, err error) {
	accessExpiry := time.Now().Add(s.cfg.Auth.AccessTokenDuration)

	accessClaims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  accessExpiry.Unix(),
		"iat":  time.Now().Unix(),
		"type": "access",
	}

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessToken, err = access.SignedString([]byte(s.cfg.Auth.JWTSecret))
	if err != nil {
		s.logger.Error("failed to sign access token", zap.Error(err))
		return "", "", time.Time{}, err
	}

	refreshExpiry := time.Now().Add(s.cfg.Auth.RefreshTokenDuration)
	refreshClaims := jwt.MapClaims{
		"sub":  userID,
		"exp":  refreshExpiry.Unix(),
		"iat":  time.Now().Unix(),
		"type": "refresh",
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims)
	refreshToken, err = refresh.SignedString([]byte(s.cfg.Auth.JWTSecret))
	if err != nil {
		s.logger.Error("failed to sign refresh token", zap.Error(err))
		return "", "", time.Time{}, err
	}

	return accessToken, refreshToken, accessExpiry, nil
}

// ValidateToken validates a JWT access token and returns the user ID and role
func (s *AuthService) ValidateToken(tokenString string) (int, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.Auth.JWTSecret), nil
	})

	if err != nil {
		return 0, "", err
	}

	if !token.Valid {
		return 0, "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", errors.New("invalid claims")
	}

	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != "access" {
		return 0, "", errors.New("invalid token type")
	}

	userIDFloat, ok := claims["sub"].(float64)
	if !ok {
		return 0, "", errors.New("invalid user ID in token")
	}

	role, _ := claims["role"].(string)

	return int(userIDFloat), role, nil
}

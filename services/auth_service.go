// Package services holds the business rules. Services never see HTTP types
// and never run SQL; they work on models and repository interfaces and
// report failures with the pkg sentinel errors.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Fasilurahman/TeamVerse-sub001/models"
	"github.com/Fasilurahman/TeamVerse-sub001/pkg"
	"github.com/Fasilurahman/TeamVerse-sub001/pkg/id"
	"github.com/Fasilurahman/TeamVerse-sub001/pkg/validate"
	"github.com/Fasilurahman/TeamVerse-sub001/repository"
)

const bcryptCost = 12

// AuthService registers and logs in users and verifies access tokens.
type AuthService interface {
	Register(ctx context.Context, req *models.CreateUserRequest) (*models.AuthTokens, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthTokens, error)
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

type authService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
	accessExp time.Duration
	now       func() time.Time
}

// NewAuthService creates the service. Tokens live accessExpMinutes.
func NewAuthService(userRepo repository.UserRepository, jwtSecret string, accessExpMinutes int) AuthService {
	return &authService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		accessExp: time.Duration(accessExpMinutes) * time.Minute,
		now:       time.Now,
	}
}

// Register creates an account and signs the user in.
//
// The username is unique; a duplicate surfaces as pkg.ErrAlreadyExists
// from the repository.
func (s *authService) Register(ctx context.Context, req *models.CreateUserRequest) (*models.AuthTokens, error) {
	req.Normalize()
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	// ─── Hash ───
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var displayName *string
	if req.DisplayName != "" {
		displayName = &req.DisplayName
	}

	// ─── Persist ───
	user := &models.User{
		ID:           id.New(),
		Username:     req.Username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err // may be ErrAlreadyExists
	}

	return s.generateTokens(user)
}

// Login checks the credentials. Unknown user and wrong password give the
// same error.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthTokens, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid username or password", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid username or password", pkg.ErrUnauthorized)
	}

	return s.generateTokens(user)
}

// ValidateAccessToken verifies signature, algorithm and expiry. Only HMAC
// tokens signed with our secret pass.
func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}
	return claims, nil
}

// GetUser loads the user for the auth middleware.
func (s *authService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// generateTokens signs an access token and returns it with the user,
// password hash removed.
func (s *authService) generateTokens(user *models.User) (*models.AuthTokens, error) {
	now := s.now()
	expiresAt := now.Add(s.accessExp)

	claims := &models.TokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "teamverse",
		},
	}
	if user.DisplayName != nil {
		claims.DisplayName = *user.DisplayName
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	out := *user
	out.PasswordHash = ""
	return &models.AuthTokens{
		AccessToken: signed,
		ExpiresAt:   expiresAt.Unix(),
		User:        out,
	}, nil
}

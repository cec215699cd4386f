package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"leadrank/internal/caching"
	"leadrank/internal/common"
	"leadrank/internal/config"
	"leadrank/internal/models"
	"leadrank/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 30 * time.Minute
	refreshTokenTTL = 14 * 24 * time.Hour
)

// ErrInvalidCredentials is returned on any login failure. The cause is
// never distinguished to the caller.
var ErrInvalidCredentials = errors.New("invalid email or password")

// TokenClaims are the JWT claims carried by dashboard access tokens.
type TokenClaims struct {
	TenantID string `json:"tenant_id"`
	jwt.RegisteredClaims
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type AuthService interface {
	// Signup provisions a workspace with its first dashboard user and
	// a fresh API key.
	Signup(ctx context.Context, workspaceName, email, password, plan string) (*models.Tenant, *models.User, string, error)

	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)

	// RotateAPIKey replaces a workspace's API key, invalidating the
	// previous one immediately.
	RotateAPIKey(ctx context.Context, tenantID uuid.UUID) (string, error)
}

type authService struct {
	userRepo   repositories.UserRepository
	tenantRepo repositories.TenantRepository
	cacheSvc   caching.CacheService
	jwtSecret  []byte
}

func NewAuthService(userRepo repositories.UserRepository, tenantRepo repositories.TenantRepository, cacheSvc caching.CacheService, jwtSecret string) AuthService {
	return &authService{
		userRepo:   userRepo,
		tenantRepo: tenantRepo,
		cacheSvc:   cacheSvc,
		jwtSecret:  []byte(jwtSecret),
	}
}

type refreshRecord struct {
	UserID    string    `json:"user_id"`
	TenantID  string    `json:"tenant_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *authService) Signup(ctx context.Context, workspaceName, email, password, plan string) (*models.Tenant, *models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, nil, "", errors.New("a valid email is required")
	}
	if len(password) < 8 {
		return nil, nil, "", errors.New("password must be at least 8 characters")
	}
	if !config.ValidPlan(plan) {
		plan = "trial"
	}

	if existing, err := s.userRepo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, nil, "", errors.New("email already registered")
	}

	apiKey := GenerateAPIKey()
	tenant := &models.Tenant{
		ID:         uuid.New(),
		Name:       common.SanitizeName(workspaceName),
		APIKey:     common.StringPtr(apiKey),
		Plan:       strings.ToLower(strings.TrimSpace(plan)),
		Status:     "active",
		UsageMonth: common.MonthKey(time.Now()),
	}
	if tenant.Name == "" {
		tenant.Name = "workspace"
	}
	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		return nil, nil, "", fmt.Errorf("failed to create workspace: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		TenantID:     tenant.ID,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	return tenant, user, apiKey, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		// Burn comparable time so missing accounts are not
		// distinguishable by latency.
		bcrypt.CompareHashAndPassword([]byte("$2a$10$invalidinvalidinvalidinvalidinvalidinvalid"), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(ctx, user.ID, user.TenantID)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	tokenHash := hashToken(refreshToken)
	cacheKey := caching.RefreshTokenKey(tokenHash)

	var record refreshRecord
	found, err := s.cacheSvc.GetJSON(ctx, cacheKey, &record)
	if err != nil || !found {
		return nil, errors.New("invalid refresh token")
	}
	if time.Now().After(record.ExpiresAt) {
		s.cacheSvc.Delete(ctx, cacheKey)
		return nil, errors.New("refresh token expired")
	}

	userID, err := uuid.Parse(record.UserID)
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}
	tenantID, err := uuid.Parse(record.TenantID)
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}

	// Single use: rotate on every refresh.
	if err := s.cacheSvc.Delete(ctx, cacheKey); err != nil {
		log.Printf("WARN: failed to drop used refresh token: %v", err)
	}
	return s.issueTokens(ctx, userID, tenantID)
}

func (s *authService) ValidateToken(ctx context.Context, token string) (*TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func (s *authService) RotateAPIKey(ctx context.Context, tenantID uuid.UUID) (string, error) {
	apiKey := GenerateAPIKey()
	if err := s.tenantRepo.SetAPIKey(ctx, tenantID, apiKey); err != nil {
		return "", err
	}
	return apiKey, nil
}

func (s *authService) issueTokens(ctx context.Context, userID, tenantID uuid.UUID) (*TokenPair, error) {
	now := time.Now()
	claims := TokenClaims{
		TenantID: tenantID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "leadrank",
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT: %w", err)
	}

	refreshToken := generateSecureToken()
	record := refreshRecord{
		UserID:    userID.String(),
		TenantID:  tenantID.String(),
		ExpiresAt: now.Add(refreshTokenTTL),
	}
	if err := s.cacheSvc.SetJSON(ctx, caching.RefreshTokenKey(hashToken(refreshToken)), record, refreshTokenTTL); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(accessTokenTTL.Seconds()),
	}, nil
}

// GenerateAPIKey builds a workspace API key: a recognizable prefix plus
// 32 hex chars of hashed randomness.
func GenerateAPIKey() string {
	return "sk_live_" + hashToken(generateSecureToken())[:32]
}

func generateSecureToken() string {
	bytes := make([]byte, 32)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

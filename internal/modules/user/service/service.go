package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"linkupserver/internal/entity"
	userDto "linkupserver/internal/modules/user/dto"
	userRepo "linkupserver/internal/modules/user/repository"
	search "linkupserver/internal/modules/search/service"
	"linkupserver/pkg/apperror"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// Tokens outlive the session by two days on the blacklist so a revoked token
// can never come back to life before it expires on its own.
const blacklistMargin = 48 * time.Hour

type AuthService interface {
	Register(ctx context.Context, input userDto.RegisterInput) (*userDto.AuthResponse, error)
	Signin(ctx context.Context, input userDto.SigninInput) (*userDto.AuthResponse, error)
	// Logout revokes the presented token until its natural expiry.
	Logout(ctx context.Context, token string) error
	// Check reports the uid behind a token, rejecting revoked tokens.
	Check(ctx context.Context, token string) (string, error)
}

type authService struct {
	repo        userRepo.UserRepository
	search      search.SearchService
	redisClient *redis.Client
	secret      string
	tokenTTL    time.Duration
	newID       func() string
}

func NewAuthService(repo userRepo.UserRepository, searchService search.SearchService, redisClient *redis.Client, secret string, tokenTTL time.Duration) AuthService {
	return &authService{
		repo:        repo,
		search:      searchService,
		redisClient: redisClient,
		secret:      secret,
		tokenTTL:    tokenTTL,
		newID:       uuid.NewString,
	}
}

func (s *authService) Register(ctx context.Context, input userDto.RegisterInput) (*userDto.AuthResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		UID:          s.newID(),
		Email:        input.Email,
		PasswordHash: string(hash),
		Name:         input.Name,
		Phone:        input.Phone,
		City:         input.City,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	if s.search != nil {
		if err := s.search.IndexMember(user); err != nil {
			log.Printf("failed to index member %s: %v", user.UID, err)
		}
	}

	return s.buildAuthResponse(user.UID)
}

func (s *authService) Signin(ctx context.Context, input userDto.SigninInput) (*userDto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, fmt.Errorf("%w: wrong password", apperror.ErrUnauthorized)
	}

	return s.buildAuthResponse(user.UID)
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: no login", apperror.ErrBadRequest)
	}
	if s.redisClient == nil {
		log.Println("token blacklist unavailable, logout is client-side only")
		return nil
	}
	return s.redisClient.Set(ctx, blacklistKey(token), "1", s.tokenTTL+blacklistMargin).Err()
}

func (s *authService) Check(ctx context.Context, token string) (string, error) {
	uid, err := s.parseToken(token)
	if err != nil {
		return "", err
	}

	if s.redisClient != nil {
		revoked, err := s.redisClient.Exists(ctx, blacklistKey(token)).Result()
		if err != nil {
			return "", err
		}
		if revoked > 0 {
			return "", fmt.Errorf("%w: token revoked", apperror.ErrUnauthorized)
		}
	}

	return uid, nil
}

func (s *authService) parseToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil || !token.Valid {
		return "", errors.Join(apperror.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("%w: invalid token claims", apperror.ErrUnauthorized)
	}

	return claims.Subject, nil
}

func (s *authService) buildAuthResponse(uid string) (*userDto.AuthResponse, error) {
	expiresAt := time.Now().Add(s.tokenTTL)

	claims := jwt.RegisteredClaims{
		Subject:   uid,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return nil, err
	}

	return &userDto.AuthResponse{
		UID:     uid,
		Token:   signed,
		Expired: expiresAt.Unix(),
	}, nil
}

func blacklistKey(token string) string {
	return "token_blacklist:" + token
}

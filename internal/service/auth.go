package service

import (
	"context"
	"time"

	"github.com/gooseworks/goose-copilot/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Auth is the mocked sign-in: a single demo credential checked against a
// bcrypt hash, exchanged for a signed access token. There is no user table;
// the UI only needs a working login flow.
type Auth struct {
	secret       []byte
	accessTTL    time.Duration
	demoEmail    string
	demoPassHash string
	logger       *zap.Logger
}

// NewAuth creates the auth service.
func NewAuth(secret string, accessTTL time.Duration, demoEmail, demoPassHash string, logger *zap.Logger) *Auth {
	return &Auth{
		secret:       []byte(secret),
		accessTTL:    accessTTL,
		demoEmail:    demoEmail,
		demoPassHash: demoPassHash,
		logger:       logger,
	}
}

// Login validates the demo credential and issues an access token.
func (a *Auth) Login(_ context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	if req.Email != a.demoEmail {
		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.demoPassHash), []byte(req.Password)); err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   req.Email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.accessTTL)),
		Issuer:    "goose-copilot",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return nil, err
	}

	a.logger.Info("demo sign-in", zap.String("email", req.Email))
	return &domain.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(a.accessTTL.Seconds()),
	}, nil
}

// ValidateToken parses and verifies an access token, returning its subject.
func (a *Auth) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, &domain.ErrUnauthorized{Message: "unexpected signing method"}
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return "", &domain.ErrUnauthorized{Message: "invalid token"}
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return "", &domain.ErrUnauthorized{Message: "invalid token claims"}
	}
	return claims.Subject, nil
}

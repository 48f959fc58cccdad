package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gooseworks/goose-copilot/internal/domain"
	"github.com/gooseworks/goose-copilot/internal/service"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newAuth(t *testing.T) *service.Auth {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("goose-demo"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return service.NewAuth("test-secret", 15*time.Minute, "alex@goose.works", string(hash), zap.NewNop())
}

func TestLogin_IssuesToken(t *testing.T) {
	auth := newAuth(t)

	resp, err := auth.Login(context.Background(), &domain.LoginRequest{
		Email:    "alex@goose.works",
		Password: "goose-demo",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected an access token")
	}
	if resp.TokenType != "Bearer" {
		t.Errorf("unexpected token type: %s", resp.TokenType)
	}
	if resp.ExpiresIn != int64((15 * time.Minute).Seconds()) {
		t.Errorf("unexpected expiry: %d", resp.ExpiresIn)
	}

	subject, err := auth.ValidateToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if subject != "alex@goose.works" {
		t.Errorf("unexpected subject: %s", subject)
	}
}

func TestLogin_RejectsWrongPassword(t *testing.T) {
	auth := newAuth(t)

	_, err := auth.Login(context.Background(), &domain.LoginRequest{
		Email:    "alex@goose.works",
		Password: "not-the-password",
	})
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLogin_RejectsUnknownEmail(t *testing.T) {
	auth := newAuth(t)

	_, err := auth.Login(context.Background(), &domain.LoginRequest{
		Email:    "someone@else.com",
		Password: "goose-demo",
	})
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestValidateToken_RejectsGarbage(t *testing.T) {
	auth := newAuth(t)

	if _, err := auth.ValidateToken("not.a.token"); err == nil {
		t.Fatal("expected garbage token to be rejected")
	}
}

func TestValidateToken_RejectsForeignSignature(t *testing.T) {
	auth := newAuth(t)

	hash, _ := bcrypt.GenerateFromPassword([]byte("goose-demo"), bcrypt.MinCost)
	other := service.NewAuth("another-secret", 15*time.Minute, "alex@goose.works", string(hash), zap.NewNop())
	resp, err := other.Login(context.Background(), &domain.LoginRequest{
		Email:    "alex@goose.works",
		Password: "goose-demo",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, err := auth.ValidateToken(resp.AccessToken); err == nil {
		t.Fatal("expected a token signed with a different secret to be rejected")
	}
}

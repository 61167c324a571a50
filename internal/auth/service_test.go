package auth

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pashagolub/pgxmock/v3"
	"golang.org/x/crypto/bcrypt"
)

func TestLogin(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	mock.ExpectQuery(`SELECT id, username, role, password_hash FROM users`).
		WithArgs("budi").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "role", "password_hash"}).
			AddRow("user-1", "budi", "driver", string(hash)))

	svc := NewService("test-secret", mock)
	resp, err := svc.Login(context.Background(), LoginRequest{Username: "budi", Password: "password123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" || resp.TokenType != "Bearer" || resp.Role != "driver" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	parsed, err := jwt.ParseWithClaims(resp.AccessToken, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	claims := parsed.Claims.(*Claims)
	if claims.UserID != "user-1" || claims.Role != "driver" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	mock.ExpectQuery(`SELECT id, username, role, password_hash FROM users`).
		WithArgs("budi").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "role", "password_hash"}).
			AddRow("user-1", "budi", "driver", string(hash)))

	svc := NewService("test-secret", mock)
	if _, err := svc.Login(context.Background(), LoginRequest{Username: "budi", Password: "wrong"}); err == nil {
		t.Fatalf("expected error for wrong password")
	}
}

func TestLoginUnknownUser(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, username, role, password_hash FROM users`).
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "role", "password_hash"}))

	svc := NewService("test-secret", mock)
	if _, err := svc.Login(context.Background(), LoginRequest{Username: "ghost", Password: "x"}); err == nil {
		t.Fatalf("expected error for unknown user")
	}
}

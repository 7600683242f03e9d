package httpapi

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"printquote/backend/internal/domain"
	"printquote/backend/internal/store"
)

type userStoreStub struct {
	mu      sync.Mutex
	users   map[string]domain.UserAccount
	updates int
}

func (s *userStoreStub) GetUser(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func (s *userStoreStub) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return store.ErrNotFound
	}
	user.Password = password
	s.users[username] = user
	s.updates++
	return nil
}

func TestAuthManagerUpgradesLegacyPlainPassword(t *testing.T) {
	users := &userStoreStub{
		users: map[string]domain.UserAccount{
			"admin": {Username: "admin", Password: "admin123", Role: domain.RoleAdmin, Active: true, CreatedAt: time.Now().UTC()},
		},
	}

	manager := NewAuthManager("test-secret", time.Hour, users)
	resp, err := manager.Login(context.Background(), domain.LoginRequest{Username: "Admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", resp.Role)
	}

	stored := users.users["admin"].Password
	if stored == "admin123" || !strings.HasPrefix(stored, "$2") {
		t.Fatalf("expected bcrypt password hash, got %s", stored)
	}

	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "admin123"}); err != nil {
		t.Fatalf("login with upgraded hash failed: %v", err)
	}
}

func TestAuthManagerRejectsInactiveAndUnknownUsers(t *testing.T) {
	hash, err := hashPassword("operator-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	users := &userStoreStub{
		users: map[string]domain.UserAccount{
			"retired": {Username: "retired", Password: hash, Role: domain.RoleOperator, Active: false},
		},
	}
	manager := NewAuthManager("test-secret", time.Hour, users)

	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "retired", Password: "operator-pass"}); err != errInactiveAccount {
		t.Fatalf("expected inactive account error, got %v", err)
	}
	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "ghost", Password: "operator-pass"}); err != errInvalidCredentials {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := manager.Login(context.Background(), domain.LoginRequest{Username: "retired", Password: "wrong"}); err != errInvalidCredentials {
		t.Fatalf("expected invalid credentials for wrong password, got %v", err)
	}
}

func TestTokenRoundTripCarriesRole(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, nil)
	token, err := manager.sign("operator", domain.RoleOperator, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	actor, err := manager.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if actor.Username != "operator" || actor.Role != domain.RoleOperator {
		t.Fatalf("unexpected actor %+v", actor)
	}

	other := NewAuthManager("another-secret", time.Hour, nil)
	if _, err := other.ParseToken(token); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}

	expired, err := manager.sign("operator", domain.RoleOperator, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := manager.ParseToken(expired); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestChangePasswordChecksCurrentPassword(t *testing.T) {
	hash, err := hashPassword("old-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	users := &userStoreStub{
		users: map[string]domain.UserAccount{
			"admin": {Username: "admin", Password: hash, Role: domain.RoleAdmin, Active: true},
		},
	}
	manager := NewAuthManager("test-secret", time.Hour, users)
	ctx := context.Background()

	err = manager.ChangePassword(ctx, "admin", domain.ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "new-password"})
	if err != errInvalidCredentials {
		t.Fatalf("expected invalid credentials, got %v", err)
	}

	if err := manager.ChangePassword(ctx, "admin", domain.ChangePasswordRequest{CurrentPassword: "old-password", NewPassword: "new-password"}); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := manager.Login(ctx, domain.LoginRequest{Username: "admin", Password: "new-password"}); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if users.updates != 1 {
		t.Fatalf("expected one password update, got %d", users.updates)
	}
}

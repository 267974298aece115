package auth

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"mediaforge/errors"
	"mediaforge/models"
)

type fakeRepo struct {
	users map[string]*models.User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]*models.User)}
}

func (r *fakeRepo) Create(ctx context.Context, user *models.User) error {
	if _, exists := r.users[user.Username]; exists {
		return errors.InvalidInput("fakeRepo.Create", nil, "Username or email already taken")
	}
	user.ID = int64(len(r.users) + 1)
	r.users[user.Username] = user
	return nil
}

func (r *fakeRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user, ok := r.users[username]
	if !ok {
		return nil, errors.NotFound("fakeRepo.FindByUsername", nil, "User not found")
	}
	return user, nil
}

func (r *fakeRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, errors.NotFound("fakeRepo.FindByID", nil, "User not found")
}

func (r *fakeRepo) IncrementAPICounter(ctx context.Context, id int64) error {
	for _, user := range r.users {
		if user.ID == id {
			user.AIAPICounter++
			return nil
		}
	}
	return errors.NotFound("fakeRepo.IncrementAPICounter", nil, "User not found")
}

func (r *fakeRepo) SetStripeCustomerID(ctx context.Context, id int64, customerID string) error {
	for _, user := range r.users {
		if user.ID == id {
			user.StripeCustomerID = customerID
			return nil
		}
	}
	return errors.NotFound("fakeRepo.SetStripeCustomerID", nil, "User not found")
}

func newTestService(t *testing.T) (*Service, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	tokens, err := NewTokenManager("test-secret", "HS256", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	return NewService(repo, tokens), repo
}

func seedUser(t *testing.T, repo *fakeRepo, username, password string) {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	repo.users[username] = &models.User{
		ID:             int64(len(repo.users) + 1),
		Username:       username,
		HashedPassword: string(hashed),
	}
}

func TestIssueAndValidate(t *testing.T) {
	svc, repo := newTestService(t)
	seedUser(t, repo, "alice", "secret123")

	token, user, err := svc.Issue(context.Background(), "alice", "secret123")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("username = %q, want alice", user.Username)
	}

	principal, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if principal.Username != "alice" {
		t.Errorf("principal.Username = %q, want alice", principal.Username)
	}
	if principal.ID != user.ID {
		t.Errorf("principal.ID = %d, want %d", principal.ID, user.ID)
	}
}

func TestIssueNormalizesUsername(t *testing.T) {
	svc, repo := newTestService(t)
	seedUser(t, repo, "alice", "secret123")

	if _, _, err := svc.Issue(context.Background(), "ALICE", "secret123"); err != nil {
		t.Fatalf("Issue with uppercase username: %v", err)
	}
}

func TestIssueFailuresAreUniform(t *testing.T) {
	svc, repo := newTestService(t)
	seedUser(t, repo, "alice", "secret123")

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"unknown user", "bob", "secret123"},
		{"wrong password", "alice", "wrong"},
	}

	var messages []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Issue(context.Background(), tt.username, tt.password)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			appErr, ok := err.(*errors.AppError)
			if !ok {
				t.Fatalf("error type = %T, want *errors.AppError", err)
			}
			if appErr.Kind != errors.KindUnauthorized {
				t.Errorf("kind = %q, want %q", appErr.Kind, errors.KindUnauthorized)
			}
			messages = append(messages, appErr.Message)
		})
	}

	// Unknown user and wrong password must be indistinguishable.
	if len(messages) == 2 && messages[0] != messages[1] {
		t.Errorf("failure messages differ: %q vs %q", messages[0], messages[1])
	}
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	svc, repo := newTestService(t)
	seedUser(t, repo, "alice", "secret123")

	token, _, err := svc.Issue(context.Background(), "alice", "secret123")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := svc.Validate(token[:len(token)-5]); err == nil {
		t.Error("expected error for truncated token, got nil")
	}
}

func TestRegister(t *testing.T) {
	svc, _ := newTestService(t)

	user, err := svc.Register(context.Background(), RegisterRequest{
		Username: "Bob",
		Password: "hunter22",
		Email:    "Bob@Example.com",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Username != "bob" {
		t.Errorf("username = %q, want lowercased bob", user.Username)
	}
	if user.Email != "bob@example.com" {
		t.Errorf("email = %q, want lowercased", user.Email)
	}
	if user.HashedPassword == "hunter22" {
		t.Error("password stored in plaintext")
	}

	if _, _, err := svc.Issue(context.Background(), "bob", "hunter22"); err != nil {
		t.Errorf("Issue after Register: %v", err)
	}
}

func TestRegisterRequiresCredentials(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []RegisterRequest{
		{Username: "", Password: "x"},
		{Username: "x", Password: ""},
	}
	for _, req := range tests {
		if _, err := svc.Register(context.Background(), req); err == nil {
			t.Errorf("Register(%+v) succeeded, want error", req)
		}
	}
}

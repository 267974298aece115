package auth

import (
	"context"
	"strings"

	"mediaforge/errors"
	"mediaforge/models"
	"mediaforge/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Service is the credential service: it registers users, exchanges
// credentials for tokens, and validates tokens into Principals.
type Service struct {
	repo   repository.UserRepository
	tokens *TokenManager
	logger *logrus.Logger
}

func NewService(repo repository.UserRepository, tokens *TokenManager) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		logger: logrus.StandardLogger(),
	}
}

type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	const op = "AuthService.Register"

	if req.Username == "" || req.Password == "" {
		return nil, errors.InvalidInput(op, nil, "Username and password are required")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal(op, err, "Failed to hash password")
	}

	user := &models.User{
		Username:       strings.ToLower(req.Username),
		Email:          strings.ToLower(req.Email),
		HashedPassword: string(hashed),
		FirstName:      req.FirstName,
		LastName:       req.LastName,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Issue exchanges a username and password for a signed token. Unknown user
// and wrong password produce the same error so callers cannot enumerate
// accounts.
func (s *Service) Issue(ctx context.Context, username, password string) (string, *models.User, error) {
	const op = "AuthService.Issue"

	user, err := s.repo.FindByUsername(ctx, strings.ToLower(username))
	if err != nil {
		return "", nil, errors.Unauthorized(op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return "", nil, errors.Unauthorized(op, err)
	}

	token, err := s.tokens.Sign(user.Username, user.ID)
	if err != nil {
		return "", nil, errors.Internal(op, err, "Failed to sign token")
	}

	return token, user, nil
}

// Validate checks a bearer token and returns the Principal it encodes.
// Malformed, expired, and invalid tokens all fail the same way.
func (s *Service) Validate(token string) (models.Principal, error) {
	const op = "AuthService.Validate"

	principal, err := s.tokens.Parse(token)
	if err != nil {
		return models.Principal{}, errors.Unauthorized(op, err)
	}

	return principal, nil
}

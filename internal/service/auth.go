package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"docvault/internal/apperror"
	"docvault/internal/auth"
	"docvault/internal/model"
	"docvault/internal/repository"
)

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

// AuthService registers identities and exchanges credentials for tokens.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
}

// TokenIssuer signs a token for an identity.
type TokenIssuer interface {
	Issue(id auth.Identity) (string, error)
}

type authService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	log    *zap.Logger
}

func NewAuthService(users repository.UserRepository, tokens TokenIssuer, log *zap.Logger) AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &authService{users: users, tokens: tokens, log: log}
}

func errDuplicateEmail(err error) error {
	return apperror.Duplicate("DUPLICATE_EMAIL", "User already exists").WithErr(err)
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (res *AuthResult, err error) {
	ctx, span := tracer.Start(ctx, "AuthService.Register")
	defer endSpan(span, &err)

	email := strings.ToLower(strings.TrimSpace(in.Email))

	_, err = s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, errDuplicateEmail(nil)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperror.Internal(err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	u, err := s.users.Create(ctx, &model.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, errDuplicateEmail(err)
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}

	s.log.Info("user_registered", zap.Int64("user_id", u.ID))
	return s.result(u)
}

func (s *authService) Login(ctx context.Context, email, password string) (res *AuthResult, err error) {
	ctx, span := tracer.Start(ctx, "AuthService.Login")
	defer endSpan(span, &err)

	invalid := apperror.Unauthenticated("INVALID_CREDENTIALS", "Invalid credentials")

	u, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, invalid
	}
	return s.result(u)
}

func (s *authService) result(u *model.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(auth.Identity{UserID: u.ID, Email: u.Email})
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &AuthResult{Token: token, User: u.Public()}, nil
}

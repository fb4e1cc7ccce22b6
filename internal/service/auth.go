// Package service contains the application services: accounts, the modpack
// catalog, version ledger, uploads and project pages.
package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/and161185/chunkhub/internal/auth"
	pkgcrypto "github.com/and161185/chunkhub/internal/crypto"
	"github.com/and161185/chunkhub/internal/errs"
	"github.com/and161185/chunkhub/internal/limiter"
	"github.com/and161185/chunkhub/internal/model"
	"github.com/and161185/chunkhub/internal/repository"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 8
)

// AuthService defines account registration, login and token authentication.
type AuthService interface {
	// Register creates an active user with a hashed password.
	Register(ctx context.Context, username, email, password string) (*model.User, error)
	// LoginWithIP applies the login lockout and issues an access token.
	LoginWithIP(ctx context.Context, username, password, ip string) (model.Tokens, model.User, error)
	// Authenticate resolves a bearer token to an active user.
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

type AuthServiceImpl struct {
	users  repository.UserRepository
	tokens *auth.Tokens
	lim    limiter.Limiter
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, tokens *auth.Tokens, lim limiter.Limiter) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, tokens: tokens, lim: lim}
}

var errBadCredentials = errs.New(errs.ErrUnauthorized, "Incorrect username or password")

// Register validates input, rejects taken usernames and emails and stores the user.
func (s *AuthServiceImpl) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if err := validateRegistration(username, email, password); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, errs.New(errs.ErrAlreadyExists, "Username already registered")
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, errs.New(errs.ErrAlreadyExists, "Email already registered")
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	cred, err := pkgcrypto.NewCredential(password)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Username: username,
		Email:    email,
		PwdHash:  cred.Hash,
		PwdSalt:  cred.Salt,
		IsActive: true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			// lost a race with a concurrent registration
			return nil, errs.New(errs.ErrAlreadyExists, "Username or email already registered")
		}
		return nil, err
	}
	return u, nil
}

func validateRegistration(username, email, password string) error {
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return errs.New(errs.ErrInvalidInput, "Username must be between 3 and 50 characters")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return errs.New(errs.ErrInvalidInput, "Invalid email address")
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return errs.New(errs.ErrInvalidInput, "Password must be at least 8 characters")
	}
	return nil
}

// LoginWithIP authenticates with rate limiting by (username, ip).
func (s *AuthServiceImpl) LoginWithIP(ctx context.Context, username, password, ip string) (model.Tokens, model.User, error) {
	ipHash := limiter.HashIP(ip)

	allowed, retry, err := s.lim.Allow(ctx, username, ipHash)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	if !allowed {
		return model.Tokens{}, model.User{}, &errs.Limited{RetryAfter: retry}
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.Tokens{}, model.User{}, err
	}
	if err != nil {
		pkgcrypto.BurnVerify(password)
	}
	if err != nil || !pkgcrypto.VerifyPassword([]byte(password), u.PwdSalt, u.PwdHash) {
		if blocked, retry, ferr := s.lim.Failure(ctx, username, ipHash); ferr == nil && blocked {
			return model.Tokens{}, model.User{}, &errs.Limited{RetryAfter: retry}
		}
		// unknown user and wrong password look the same
		return model.Tokens{}, model.User{}, errBadCredentials
	}

	// best-effort reset
	_ = s.lim.Success(ctx, username, ipHash)

	access, exp, err := s.tokens.Issue(u.ID)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	return model.Tokens{AccessToken: access, ExpiresAt: exp}, *u, nil
}

// Authenticate verifies the token and loads its user. Inactive accounts are
// rejected with ErrInvalidInput.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, token string) (*model.User, error) {
	id, err := s.tokens.Verify(token)
	if err != nil {
		return nil, errs.New(errs.ErrUnauthorized, "Could not validate credentials")
	}
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.New(errs.ErrUnauthorized, "Could not validate credentials")
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, errs.New(errs.ErrInvalidInput, "Inactive user")
	}
	return u, nil
}

// Package auth issues and verifies credentials: bcrypt password hashes,
// HS256 access tokens, and the register/login flows built on them.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sujalbistaa/scamwatch/internal/models"
)

const minPasswordLength = 8

// Users is the identity store as seen by Accounts.
type Users interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
}

// Accounts registers users and exchanges credentials for tokens.
type Accounts struct {
	users  Users
	hasher *BcryptHasher
	tokens *TokenIssuer
}

func NewAccounts(users Users, hasher *BcryptHasher, tokens *TokenIssuer) *Accounts {
	return &Accounts{users: users, hasher: hasher, tokens: tokens}
}

// Register creates a non-admin user. A taken email yields models.ErrConflict.
func (a *Accounts) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters long", models.ErrValidation, minPasswordLength)
	}

	_, err := a.users.FindByEmail(ctx, email)
	if err == nil {
		return nil, fmt.Errorf("%w: email already exists", models.ErrConflict)
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	hash, err := a.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := a.users.Create(ctx, u); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "user registered", slog.Uint64("user_id", uint64(u.ID)))
	return u, nil
}

// Login verifies the credentials and returns a signed token.
func (a *Accounts) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	u, err := a.users.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, models.ErrNotFound) {
		return "", nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if err := a.hasher.Compare(u.PasswordHash, password); err != nil {
		return "", nil, models.ErrInvalidCredentials
	}

	token, err := a.tokens.Issue(u.ID)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, u, nil
}

// Resolve maps a bearer token to the user id it was issued for.
func (a *Accounts) Resolve(token string) (uint, error) {
	id, err := a.tokens.Parse(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrUnauthorized, err)
	}
	return id, nil
}

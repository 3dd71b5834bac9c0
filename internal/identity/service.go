package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/wanderplan/wanderplan/internal/user"
)

const minPasswordLength = 6

// Service manages the account lifecycle.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates an account and stores a hashed password.
func (s *Service) Register(ctx context.Context, reg Registration) (Account, error) {
	email := strings.ToLower(strings.TrimSpace(reg.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return Account{}, ErrInvalidEmail
	}
	if len(reg.Password) < minPasswordLength {
		return Account{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, err
	}

	username := strings.TrimSpace(reg.Username)
	if username == "" {
		username = email
	}
	account := Account{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		Name:         strings.TrimSpace(reg.Name),
		Role:         RoleUser,
		Phone:        strings.TrimSpace(reg.Phone),
		Favorites:    []string{},
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, account); err != nil {
		return Account{}, err
	}
	return account, nil
}

// Authenticate verifies a username or email and its password.
func (s *Service) Authenticate(ctx context.Context, login, password string) (Account, error) {
	account, err := s.repo.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, err
	}
	if len(account.PasswordHash) == 0 {
		return Account{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	return account, nil
}

// GoogleAccount finds the account for a verified Google identity, creating
// a password-less one on first sign-in.
func (s *Service) GoogleAccount(ctx context.Context, subject, email, name string) (Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return Account{}, ErrInvalidEmail
	}
	account, err := s.repo.FindByLogin(ctx, email)
	switch {
	case err == nil:
		if account.GoogleSubject == "" {
			account.GoogleSubject = subject
			if err := s.repo.Update(ctx, account); err != nil {
				return Account{}, err
			}
		}
		return account, nil
	case !errors.Is(err, ErrAccountNotFound):
		return Account{}, err
	}

	account = Account{
		ID:            uuid.New().String(),
		Username:      email,
		Email:         email,
		Name:          name,
		Role:          RoleUser,
		Favorites:     []string{},
		GoogleSubject: subject,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, account); err != nil {
		return Account{}, err
	}
	return account, nil
}

// Get fetches an account by id.
func (s *Service) Get(ctx context.Context, id string) (Account, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateProfile applies the non-empty fields of req.
func (s *Service) UpdateProfile(ctx context.Context, id string, req user.UpdateProfileRequest) (Account, error) {
	return s.mutate(ctx, id, func(a *Account) error {
		if req.Name != "" {
			a.Name = req.Name
		}
		if req.Phone != "" {
			a.Phone = req.Phone
		}
		if req.Gender != "" {
			a.Gender = req.Gender
		}
		if req.DateOfBirth != "" {
			a.DateOfBirth = req.DateOfBirth
		}
		if req.Income != 0 {
			a.Income = req.Income
		}
		if req.Avatar != "" {
			a.Avatar = req.Avatar
		}
		return nil
	})
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}
	_, err := s.mutate(ctx, id, func(a *Account) error {
		if bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(oldPassword)) != nil {
			return ErrInvalidCredentials
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		a.PasswordHash = hash
		return nil
	})
	return err
}

// ToggleFavorite adds or removes placeID and reports whether it is now a favorite.
func (s *Service) ToggleFavorite(ctx context.Context, id, placeID string) (bool, error) {
	var favorite bool
	_, err := s.mutate(ctx, id, func(a *Account) error {
		if i := slices.Index(a.Favorites, placeID); i >= 0 {
			a.Favorites = slices.Delete(a.Favorites, i, i+1)
			return nil
		}
		a.Favorites = append(a.Favorites, placeID)
		favorite = true
		return nil
	})
	return favorite, err
}

// SetPremium marks the account as premium.
func (s *Service) SetPremium(ctx context.Context, id string) (Account, error) {
	return s.mutate(ctx, id, func(a *Account) error {
		a.IsPremium = true
		return nil
	})
}

// RevokeTokens bumps the token version so previously issued tokens stop
// validating.
func (s *Service) RevokeTokens(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, id, func(a *Account) error {
		a.TokenVersion++
		return nil
	})
	return err
}

func (s *Service) mutate(ctx context.Context, id string, fn func(*Account) error) (Account, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if err := fn(&account); err != nil {
		return Account{}, err
	}
	if err := s.repo.Update(ctx, account); err != nil {
		return Account{}, fmt.Errorf("update account %s: %w", id, err)
	}
	return account, nil
}

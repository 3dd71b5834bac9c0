package identity

import (
	"errors"
	"time"

	"github.com/wanderplan/wanderplan/internal/user"
)

var (
	ErrAccountExists      = errors.New("account already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidEmail       = errors.New("email is invalid")
)

// Role values.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account is a registered traveller as stored by the backend.
type Account struct {
	ID            string
	Username      string
	Email         string
	Name          string
	Role          string
	Phone         string
	Gender        string
	DateOfBirth   string
	Income        float64
	Avatar        string
	Favorites     []string
	IsPremium     bool
	PasswordHash  []byte
	GoogleSubject string
	TokenVersion  int
	CreatedAt     time.Time
}

// Profile is the public view of the account sent to clients.
func (a Account) Profile() user.User {
	u := user.User{
		ID:          a.ID,
		Email:       a.Email,
		Name:        a.Name,
		Role:        a.Role,
		Phone:       a.Phone,
		Gender:      a.Gender,
		DateOfBirth: a.DateOfBirth,
		Income:      a.Income,
		Avatar:      a.Avatar,
		Favorites:   a.Favorites,
		IsPremium:   a.IsPremium,
	}
	return u.Clone()
}

func (a Account) clone() Account {
	a.Favorites = append([]string(nil), a.Favorites...)
	a.PasswordHash = append([]byte(nil), a.PasswordHash...)
	return a
}

// Registration request structure.
type Registration struct {
	Username string
	Email    string
	Password string
	Name     string
	Phone    string
}

// Package user reads and edits the signed-in account's profile.
package user

import (
	"context"
	"net/http"
	"time"

	"github.com/wanderplan/wanderplan/internal/gateway"
	"github.com/wanderplan/wanderplan/internal/result"
)

const (
	EndpointProfile        = "/users/profile"
	EndpointChangePassword = "/users/change-password"

	minPasswordLength = 6
)

var validGenders = map[string]bool{"male": true, "female": true, "other": true}

// Service exposes the user endpoints.
type Service struct {
	api *gateway.Client
}

// NewService builds a user service on top of the API gateway.
func NewService(api *gateway.Client) *Service {
	return &Service{api: api}
}

// Profile fetches the current account.
func (s *Service) Profile(ctx context.Context) result.Envelope[User] {
	env := s.api.Get(ctx, EndpointProfile, nil)
	return result.Decode[User](env, EndpointProfile, "Failed to fetch profile")
}

// UpdateProfile edits the profile and returns the stored record. Callers
// holding a session should hand the result to the session manager so the
// cached copy is replaced.
func (s *Service) UpdateProfile(ctx context.Context, req UpdateProfileRequest) result.Envelope[User] {
	if req.Gender != "" && !validGenders[req.Gender] {
		return result.Invalid[User]("Gender must be male, female or other", EndpointProfile)
	}
	if req.DateOfBirth != "" {
		if _, err := time.Parse(time.DateOnly, req.DateOfBirth); err != nil {
			return result.Invalid[User]("Date of birth must be YYYY-MM-DD", EndpointProfile)
		}
	}
	if req.Income < 0 {
		return result.Invalid[User]("Income cannot be negative", EndpointProfile)
	}
	env := s.api.Put(ctx, EndpointProfile, req)
	return result.Decode[User](env, EndpointProfile, "Failed to update profile")
}

// ChangePassword rotates the account password.
func (s *Service) ChangePassword(ctx context.Context, req ChangePasswordRequest) result.Envelope[struct{}] {
	if req.OldPassword == "" {
		return result.Invalid[struct{}]("Current password is required", EndpointChangePassword)
	}
	if len(req.NewPassword) < minPasswordLength {
		return result.Invalid[struct{}]("New password must be at least 6 characters", EndpointChangePassword)
	}
	if req.NewPassword == req.OldPassword {
		return result.Invalid[struct{}]("New password must differ from the current one", EndpointChangePassword)
	}
	env := s.api.Request(ctx, EndpointChangePassword, gateway.Options{Method: http.MethodPut, Body: req})
	if !env.Success {
		return result.Forward[struct{}](env)
	}
	return result.OK(struct{}{})
}

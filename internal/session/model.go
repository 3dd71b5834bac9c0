package session

import "github.com/wanderplan/wanderplan/internal/user"

// Credentials are the username/password pair accepted by the login endpoint.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration carries the sign-up form.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
}

type googleLoginRequest struct {
	IDToken string `json:"idToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// authPayload is the union of the token field spellings the backend uses.
type authPayload struct {
	AccessToken       string     `json:"accessToken"`
	AccessTokenSnake  string     `json:"access_token"`
	Token             string     `json:"token"`
	RefreshToken      string     `json:"refreshToken"`
	RefreshTokenSnake string     `json:"refresh_token"`
	User              *user.User `json:"user"`
}

func (p authPayload) accessToken() string {
	for _, v := range []string{p.AccessToken, p.AccessTokenSnake, p.Token} {
		if v != "" {
			return v
		}
	}
	return ""
}

func (p authPayload) refreshToken() string {
	if p.RefreshToken != "" {
		return p.RefreshToken
	}
	return p.RefreshTokenSnake
}

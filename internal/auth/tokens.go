// Package auth issues and verifies the HS256 tokens of the stub backend.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "wanderplan-mockapi"

	typeAccess  = "access"
	typeRefresh = "refresh"
)

// ErrInvalidToken covers malformed, expired, mis-signed and wrong-type tokens.
var ErrInvalidToken = errors.New("invalid token")

// Claims carried by both token types. Version must match the account's
// token version for the token to be accepted.
type Claims struct {
	Email   string `json:"email,omitempty"`
	Type    string `json:"typ"`
	Version int    `json:"ver"`
	jwt.RegisteredClaims
}

// Subject identifies who a token is issued to.
type Subject struct {
	ID      string
	Email   string
	Version int
}

// TokenPair is returned by login, registration and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// TokenManager signs and parses tokens.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenManager creates a manager. refreshSecret defaults to accessSecret.
func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	if refreshSecret == "" {
		refreshSecret = accessSecret
	}
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// Issue signs a fresh access and refresh token for sub.
func (m *TokenManager) Issue(sub Subject) (TokenPair, error) {
	access, err := m.sign(sub, typeAccess, m.accessSecret, m.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.sign(sub, typeRefresh, m.refreshSecret, m.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: int64(m.accessTTL.Seconds())}, nil
}

// ParseAccess verifies an access token.
func (m *TokenManager) ParseAccess(token string) (Claims, error) {
	return m.parse(token, typeAccess, m.accessSecret)
}

// ParseRefresh verifies a refresh token.
func (m *TokenManager) ParseRefresh(token string) (Claims, error) {
	return m.parse(token, typeRefresh, m.refreshSecret)
}

func (m *TokenManager) sign(sub Subject, typ string, secret []byte, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		Email:   sub.Email,
		Type:    typ,
		Version: sub.Version,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sub.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

func (m *TokenManager) parse(token, typ string, secret []byte) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Type != typ || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// GoogleIdentity is what the stub trusts from a Google ID token.
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
}

// ReadGoogleIDToken extracts the identity claims of a Google ID token
// without verifying its signature. The stub backend has no access to
// Google's keys; a production backend must verify instead.
func ReadGoogleIDToken(idToken string) (GoogleIdentity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return GoogleIdentity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	sub, _ := claims.GetSubject()
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	if sub == "" || email == "" {
		return GoogleIdentity{}, ErrInvalidToken
	}
	return GoogleIdentity{Subject: sub, Email: email, Name: name}, nil
}

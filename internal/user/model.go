package user

import "encoding/json"

// User is the cached profile of the signed-in account. It is a value
// object: callers replace it wholesale and never edit a shared copy.
type User struct {
	ID          string   `json:"_id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Phone       string   `json:"phone,omitempty"`
	Gender      string   `json:"gender,omitempty"`
	DateOfBirth string   `json:"dateOfBirth,omitempty"`
	Income      float64  `json:"income,omitempty"`
	Avatar      string   `json:"avatar,omitempty"`
	Favorites   []string `json:"favorites,omitempty"`
	IsPremium   bool     `json:"isPremium"`
}

// UnmarshalJSON accepts both "_id" and "id" as the identifier.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var aux struct {
		plain
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*u = User(aux.plain)
	if u.ID == "" {
		u.ID = aux.AltID
	}
	return nil
}

// Clone returns a copy that shares no memory with u.
func (u User) Clone() User {
	if u.Favorites != nil {
		u.Favorites = append([]string(nil), u.Favorites...)
	}
	return u
}

// IsZero reports whether u carries no identity.
func (u User) IsZero() bool {
	return u.ID == "" && u.Email == ""
}

// UpdateProfileRequest carries the editable profile fields. Empty fields
// are left unchanged by the backend.
type UpdateProfileRequest struct {
	Name        string  `json:"name,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	Gender      string  `json:"gender,omitempty"`
	DateOfBirth string  `json:"dateOfBirth,omitempty"`
	Income      float64 `json:"income,omitempty"`
	Avatar      string  `json:"avatar,omitempty"`
}

// ChangePasswordRequest rotates the account password.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

package models

import "time"

// User represents a FamLoop account holder
type User struct {
	ID              int       `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	PasswordHash    string    `json:"-"`
	Role            string    `json:"role"`
	ProfileImageURL *string   `json:"profile_image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UserOut is the public representation of a user
type UserOut struct {
	ID              int     `json:"id"`
	Email           string  `json:"email"`
	Name            string  `json:"name"`
	Role            string  `json:"role"`
	ProfileImageURL *string `json:"profile_image_url,omitempty"`
}

// PublicUser converts a User to its public representation
func (u *User) PublicUser() UserOut {
	return UserOut{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		Role:            u.Role,
		ProfileImageURL: u.ProfileImageURL,
	}
}

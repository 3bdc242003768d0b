package model

import "time"

// User is an authenticated identity. PasswordHash never leaves the service.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicUser is the subset of a User returned to clients.
type PublicUser struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Public strips credentials and timestamps.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

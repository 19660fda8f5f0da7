package user

import "time"

// User represents an account in the system. Usernames are stored lowercased.
type User struct {
	Username     string    `bson:"username" json:"username"`
	FullName     string    `bson:"full_name" json:"full_name"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	IsAdmin      bool      `bson:"is_admin" json:"is_admin"`
	IsActive     bool      `bson:"is_active" json:"is_active"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// SafeUser represents a user without sensitive information
type SafeUser struct {
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	IsAdmin   bool      `json:"is_admin"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ToSafeUser converts a User to a SafeUser
func (u *User) ToSafeUser() SafeUser {
	return SafeUser{
		Username:  u.Username,
		FullName:  u.FullName,
		IsAdmin:   u.IsAdmin,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// Package model defines the data structures used throughout the application.
package model

import "time"

// Roles a user account can hold. The role is embedded in issued tokens as
// the "role" claim and checked when creating code files.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account.
//
// Accounts come from two places: local email/password registration and
// GitHub OAuth sign-in. A local account has a bcrypt PasswordHash and
// GitHubID 0; an OAuth account has a non-zero GitHubID and an empty hash.
//
// WHY ID int64?
// Code files reference their owner by this integer ID, and the same value
// travels in the JWT subject claim. Letting SQLite assign it (INTEGER
// PRIMARY KEY AUTOINCREMENT) keeps both tables on the same keying scheme.
//
// PasswordHash is json:"-" so it can never leak through an API response,
// no matter how carelessly a handler serializes the struct.
type User struct {
	ID           int64     `json:"id"         db:"id"`
	Email        string    `json:"email"      db:"email"`
	PasswordHash string    `json:"-"          db:"password_hash"`
	GitHubID     int64     `json:"-"          db:"github_id"` // 0 for local accounts
	Login        string    `json:"login"      db:"login"`     // display name; GitHub username for OAuth accounts
	Role         string    `json:"role"       db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

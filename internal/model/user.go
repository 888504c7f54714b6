package model

import "time"

// Roles assignable to a user account. The role travels inside the
// access token and is re-checked on admin-only routes after the
// account has been resolved.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User represents an application account as stored in the `users`
// table. PasswordHash holds the bcrypt digest; the plain password is
// never persisted. Handlers expose users through separate response
// types, so no json tags are defined here.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name supplied at signup.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – "customer" or "admin".
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Name         string    // users.name
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

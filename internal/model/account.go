package model

import "time"

// Role is the authorization role carried by an account and embedded in its
// access token.
type Role string

const (
    RoleUser   Role = "user"
    RoleSeller Role = "seller"
    RoleAdmin  Role = "admin"
)

// Roles lists every role in a stable order.
var Roles = []Role{RoleUser, RoleSeller, RoleAdmin}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
    for _, known := range Roles {
        if r == known {
            return true
        }
    }
    return false
}

// Account represents a user, seller or admin as stored in the `accounts`
// table.  PasswordHash never leaves the server: it is excluded from JSON.
//
// Fields:
//  ID           – opaque identifier (UUID string).
//  Name         – display name.
//  Email        – unique email address, compared case-sensitively.
//  PasswordHash – bcrypt hash of the password.
//  Role         – user, seller or admin.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Account struct {
    ID           string    `json:"id"`
    Name         string    `json:"name"`
    Email        string    `json:"email"`
    PasswordHash string    `json:"-"`
    Role         Role      `json:"role"`
    CreatedAt    time.Time `json:"created_at"`
    UpdatedAt    time.Time `json:"updated_at"`
}

// ProfileUpdate carries the optional fields of a profile edit.  Nil means
// "leave unchanged".
type ProfileUpdate struct {
    Name  *string
    Email *string
}

package models

import (
	"time"

	"github.com/uptrace/bun"
)

// RoleAdmin is the only privileged role in the platform. Everyone else is a
// student; per-course entitlement lives in enrollments, not roles.
const RoleAdmin = "admin"

// User represents a platform account (student or administrator).
// AccessExpiresAt is the platform-wide entitlement date shown on the profile;
// per-course windows live on Enrollment.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID              string     `bun:"id,pk,type:uuid"`
	Email           string     `bun:"email,notnull,unique"`
	FullName        string     `bun:"full_name"`
	PasswordHash    string     `bun:"password_hash,notnull"`
	AccessExpiresAt *time.Time `bun:"access_expires_at"`
	CreatedAt       time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt       time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
	LastLoginAt     *time.Time `bun:"last_login_at"`
	DisabledAt      *time.Time `bun:"disabled_at"`
}

// Disabled reports whether the account has been disabled by an admin.
func (u *User) Disabled() bool { return u != nil && u.DisabledAt != nil }

// UserRole assigns a named role to a user. The original backend exposed this
// as a has_role(user, role) lookup.
type UserRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:ur"`

	ID         string    `bun:"id,pk,type:uuid"`
	UserID     string    `bun:"user_id,notnull,type:uuid"`
	Role       string    `bun:"role,notnull"`
	AssignedAt time.Time `bun:"assigned_at,notnull,default:current_timestamp"`
	AssignedBy string    `bun:"assigned_by,type:uuid"`
}

// Session tracks an issued bearer token. Only the SHA-256 hash of the token
// is stored; the token itself is returned once at login.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:sess"`

	ID         string    `bun:"id,pk,type:uuid"`
	UserID     string    `bun:"user_id,notnull,type:uuid"`
	TokenHash  string    `bun:"token_hash,notnull,unique"`
	ExpiresAt  time.Time `bun:"expires_at,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
	LastUsedAt time.Time `bun:"last_used_at,notnull,default:current_timestamp"`
	UserAgent  *string   `bun:"user_agent"`
	IPAddress  *string   `bun:"ip_address"`
	Revoked    bool      `bun:"revoked,notnull,default:false"`
}

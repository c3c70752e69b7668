package models

import (
	"time"

	"github.com/uptrace/bun"
)

// RequestStatus is the lifecycle state of an access request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestDenied   RequestStatus = "denied"
)

// Enrollment is a time-boxed per-course access grant. One row per
// (user, course); renewals update ExpiresAt in place.
type Enrollment struct {
	bun.BaseModel `bun:"table:enrollments,alias:e"`

	ID        string    `bun:"id,pk,type:uuid"`
	UserID    string    `bun:"user_id,notnull,type:uuid"`
	CourseID  string    `bun:"course_id,notnull,type:uuid"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	GrantedAt time.Time `bun:"granted_at,notnull,default:current_timestamp"`
	GrantedBy string    `bun:"granted_by,type:uuid"`

	User   *User   `bun:"rel:belongs-to,join:user_id=id"`
	Course *Course `bun:"rel:belongs-to,join:course_id=id"`
}

// Active reports whether the grant is unexpired at the given instant.
func (e *Enrollment) Active(now time.Time) bool {
	return e != nil && e.ExpiresAt.After(now)
}

// AccessRequest is a student's petition for access to a course (new access
// or renewal). Admins approve or deny from the roster view.
type AccessRequest struct {
	bun.BaseModel `bun:"table:access_requests,alias:ar"`

	ID        string        `bun:"id,pk,type:uuid"`
	UserID    string        `bun:"user_id,notnull,type:uuid"`
	CourseID  string        `bun:"course_id,notnull,type:uuid"`
	Status    RequestStatus `bun:"status,notnull,default:'pending'"`
	CreatedAt time.Time     `bun:"created_at,notnull,default:current_timestamp"`
	DecidedAt *time.Time    `bun:"decided_at"`
	DecidedBy *string       `bun:"decided_by,type:uuid"`

	User   *User   `bun:"rel:belongs-to,join:user_id=id"`
	Course *Course `bun:"rel:belongs-to,join:course_id=id"`
}

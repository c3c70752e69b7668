package client

import "time"

// User is the account as the API reports it.
type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	FullName        string     `json:"full_name"`
	AccessExpiresAt *time.Time `json:"access_expires_at"`
	IsAdmin         bool       `json:"is_admin"`
	Roles           []string   `json:"roles"`
}

// ProgressSummary is a per-course completion rollup.
type ProgressSummary struct {
	TotalLessons     int `json:"total_lessons"`
	CompletedLessons int `json:"completed_lessons"`
	PercentComplete  int `json:"percent_complete"`
}

// CourseSummary is a catalog entry with the caller's enrollment state.
type CourseSummary struct {
	ID              string           `json:"id"`
	Slug            string           `json:"slug"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	ThumbnailURL    string           `json:"thumbnail_url"`
	Enrolled        bool             `json:"enrolled"`
	AccessExpiresAt *time.Time       `json:"access_expires_at,omitempty"`
	Progress        *ProgressSummary `json:"progress,omitempty"`
}

// Lesson carries playback URLs only when the caller is entitled.
type Lesson struct {
	ID                  string `json:"id"`
	Title               string `json:"title"`
	Description         string `json:"description"`
	DurationSeconds     int    `json:"duration_seconds"`
	VideoURL            string `json:"video_url,omitempty"`
	ResourcesURL        string `json:"resources_url,omitempty"`
	LastWatchedPosition int    `json:"last_watched_position"`
	IsCompleted         bool   `json:"is_completed"`
}

// Module groups lessons in display order.
type Module struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Lessons []Lesson `json:"lessons"`
}

// Course is the full content tree for one course.
type Course struct {
	ID              string     `json:"id"`
	Slug            string     `json:"slug"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	ThumbnailURL    string     `json:"thumbnail_url"`
	Enrolled        bool       `json:"enrolled"`
	AccessExpiresAt *time.Time `json:"access_expires_at,omitempty"`
	Modules         []Module   `json:"modules"`
}

// AccessRequestReceipt acknowledges a filed access request.
type AccessRequestReceipt struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

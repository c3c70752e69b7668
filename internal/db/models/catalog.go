package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Course is a published unit of the catalog, addressed by slug.
type Course struct {
	bun.BaseModel `bun:"table:courses,alias:c"`

	ID           string    `bun:"id,pk,type:uuid"`
	Slug         string    `bun:"slug,notnull,unique"`
	Title        string    `bun:"title,notnull"`
	Description  string    `bun:"description"`
	ThumbnailURL string    `bun:"thumbnail_url"`
	IsPublished  bool      `bun:"is_published,notnull,default:false"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`

	Modules []*CourseModule `bun:"rel:has-many,join:id=course_id"`
}

// CourseModule groups lessons inside a course, ordered by OrderIndex.
type CourseModule struct {
	bun.BaseModel `bun:"table:course_modules,alias:m"`

	ID         string `bun:"id,pk,type:uuid"`
	CourseID   string `bun:"course_id,notnull,type:uuid"`
	Title      string `bun:"title,notnull"`
	OrderIndex int    `bun:"order_index,notnull,default:0"`

	Lessons []*Lesson `bun:"rel:has-many,join:id=module_id"`
}

// Lesson is a single HLS video lesson. VideoURLHLS points at the master
// playlist in object storage; ResourcesURL at optional downloadable material.
type Lesson struct {
	bun.BaseModel `bun:"table:lessons,alias:l"`

	ID              string `bun:"id,pk,type:uuid"`
	ModuleID        string `bun:"module_id,notnull,type:uuid"`
	Title           string `bun:"title,notnull"`
	Description     string `bun:"description"`
	VideoURLHLS     string `bun:"video_url_hls"`
	ResourcesURL    string `bun:"resources_url"`
	DurationSeconds int    `bun:"duration_seconds,notnull,default:0"`
	OrderIndex      int    `bun:"order_index,notnull,default:0"`
}

// LessonProgress records per-user resume position and completion for a
// lesson. One row per (user, lesson); upserted as the player reports time.
type LessonProgress struct {
	bun.BaseModel `bun:"table:lesson_progress,alias:lp"`

	ID                  string    `bun:"id,pk,type:uuid"`
	UserID              string    `bun:"user_id,notnull,type:uuid"`
	LessonID            string    `bun:"lesson_id,notnull,type:uuid"`
	LastWatchedPosition int       `bun:"last_watched_position,notnull,default:0"`
	IsCompleted         bool      `bun:"is_completed,notnull,default:false"`
	UpdatedAt           time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

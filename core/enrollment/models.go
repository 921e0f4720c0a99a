package enrollment

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/Reema362/avocop/core"
)

// Enrollment statuses
const (
	StatusNotStarted = "not-started"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusOverdue    = "overdue"
)

// Enrollment represents a learner's relationship to a course.
// At most one row exists per (course, user) pair; the database enforces it.
type Enrollment struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	UserID      string    `json:"user_id"`
	Status      string    `json:"status"`
	Progress    int       `json:"progress"` // 0-100
	EnrolledAt  time.Time `json:"enrolled_at"`
	StartedAt   null.Time `json:"started_at"`
	CompletedAt null.Time `json:"completed_at"`
	DueAt       null.Time `json:"due_at"`
}

func (e *Enrollment) IsCompleted() bool { return e.Status == StatusCompleted }

// LessonProgress represents a learner's consumption of one lesson. For
// video-only courses the course itself is tracked as a single implicit lesson
// (LessonID == CourseID).
type LessonProgress struct {
	ID          string    `json:"id"`
	LessonID    string    `json:"lesson_id"`
	UserID      string    `json:"user_id"`
	Progress    int       `json:"progress"`   // 0-100, never decreases
	TimeSpent   int       `json:"time_spent"` // cumulative minutes
	CompletedAt null.Time `json:"completed_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type QueryFilter struct {
	CourseID string `query:"course"`
	UserID   string `query:"user"`
	Status   string `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.CourseID == "" && qf.UserID == "" && qf.Status == ""
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

// AssignRequest is an explicit admin assignment of a course to users.
type AssignRequest struct {
	UserIDs []string   `json:"user_ids" validate:"required,min=1"`
	DueAt   *time.Time `json:"due_at"`
}

func (ar *AssignRequest) Validate() error { return core.Validate.Struct(ar) }

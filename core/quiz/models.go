package quiz

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/Reema362/avocop/core"
)

// Quiz statuses
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

type Quiz struct {
	ID        string      `json:"id"`
	CourseID  null.String `json:"course_id"` // optional course link
	Title     string      `json:"title"`
	PassScore int         `json:"pass_score"` // percent required to pass
	TimeLimit int         `json:"time_limit"` // minutes, 0 = none
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"created_at"` // UTC
	UpdatedAt time.Time   `json:"updated_at"` // UTC
}

type Question struct {
	ID         string   `json:"id"`
	QuizID     string   `json:"quiz_id"`
	Text       string   `json:"text"`
	Options    []string `json:"options"`
	CorrectIdx int      `json:"-"` // never serialized to learners
	Points     int      `json:"points"`
	Position   int      `json:"position"`
}

type Submission struct {
	ID          string    `json:"id"`
	QuizID      string    `json:"quiz_id"`
	UserID      string    `json:"user_id"`
	Answers     []int     `json:"answers"` // selected option index per question, -1 = skipped
	Score       int       `json:"score"`   // percent
	Passed      bool      `json:"passed"`
	SubmittedAt time.Time `json:"submitted_at"` // UTC
}

// LeaderboardEntry is one gamification ranking row.
type LeaderboardEntry struct {
	UserID string `json:"user_id"`
	Score  int    `json:"score"`
	Rank   int    `json:"rank"`
}

// NewQuiz contains information needed to create a new Quiz.
type NewQuiz struct {
	CourseID  string `json:"course_id"`
	Title     string `json:"title" validate:"required"`
	PassScore int    `json:"pass_score" validate:"min=0,max=100"`
	TimeLimit int    `json:"time_limit" validate:"min=0"`
}

func (nq *NewQuiz) Validate() error {
	nq.Title = core.CleanString(nq.Title)
	return core.Validate.Struct(nq)
}

// NewQuestion contains information needed to add a Question to a Quiz.
type NewQuestion struct {
	Text       string   `json:"text" validate:"required"`
	Options    []string `json:"options" validate:"required,min=2"`
	CorrectIdx int      `json:"correct_idx" validate:"min=0"`
	Points     int      `json:"points" validate:"min=1"`
	Position   int      `json:"position" validate:"min=0"`
}

func (nq *NewQuestion) Validate() error {
	nq.Text = core.CleanString(nq.Text)
	if err := core.Validate.Struct(nq); err != nil {
		return err
	}
	if nq.CorrectIdx >= len(nq.Options) {
		return core.NewValidationError(nil, core.FieldError{Field: "correct_idx", Error: "correct option out of range"})
	}
	return nil
}

// SubmitRequest carries a learner's answers, in question order.
type SubmitRequest struct {
	Answers []int `json:"answers" validate:"required"`
}

func (sr *SubmitRequest) Validate() error { return core.Validate.Struct(sr) }

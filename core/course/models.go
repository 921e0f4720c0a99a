package course

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/Reema362/avocop/core"
)

// Statuses
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Difficulties
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

var slugRegex = regexp.MustCompile(`[^a-z0-9]+`)

type Course struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Difficulty   string    `json:"difficulty"`
	Duration     int       `json:"duration"` // estimated minutes
	VideoKey     string    `json:"video_key"`
	ThumbnailKey string    `json:"thumbnail_key"`
	Status       string    `json:"status"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func (c *Course) IsPublished() bool { return c.Status == StatusPublished }

type Lesson struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Title     string    `json:"title"`
	Position  int       `json:"position"` // display order within the course
	Duration  int       `json:"duration"` // minutes
	Required  bool      `json:"required"`
	VideoKey  string    `json:"video_key"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Slugify derives a URL slug from a course title.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugRegex.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Difficulty  string `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Duration    int    `json:"duration" validate:"omitempty,min=0"`
}

func (nc *NewCourse) Validate(ctx context.Context, svc *Service) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.Category = core.CleanString(nc.Category)

	if err := core.Validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckSlugUniqueness(ctx, Slugify(nc.Title))
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Difficulty  string `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Duration    *int   `json:"duration" validate:"omitempty,min=0"`
}

func (uc *UpdateCourse) Validate(ctx context.Context, svc *Service, orig Course) error {
	if title := core.CleanString(uc.Title); title != "" {
		uc.Title = title
	} else {
		uc.Title = orig.Title
	}
	uc.Description = core.CleanString(uc.Description)
	if uc.Description == "" {
		uc.Description = orig.Description
	}
	uc.Category = core.CleanString(uc.Category)
	if uc.Category == "" {
		uc.Category = orig.Category
	}
	if uc.Difficulty == "" {
		uc.Difficulty = orig.Difficulty
	}

	if err := core.Validate.Struct(uc); err != nil {
		return err
	}
	if slug := Slugify(uc.Title); slug != orig.Slug {
		return svc.CheckSlugUniqueness(ctx, slug)
	}
	return nil
}

// NewLesson contains information needed to add a Lesson to a Course.
type NewLesson struct {
	Title    string `json:"title" validate:"required"`
	Position int    `json:"position" validate:"omitempty,min=0"`
	Duration int    `json:"duration" validate:"omitempty,min=0"`
	Required bool   `json:"required"`
	Content  string `json:"content"`
}

func (nl *NewLesson) Validate() error {
	nl.Title = core.CleanString(nl.Title)
	return core.Validate.Struct(nl)
}

type QueryFilter struct {
	Search   string `query:"search"`
	Category string `query:"category"`
	Status   string `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Category == "" && qf.Status == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Category = core.CleanString(qf.Category)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

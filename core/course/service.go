package course

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/Reema362/avocop/core"
)

var (
	// errors
	ErrNotFound       = errors.New("course not found")
	ErrLessonNotFound = errors.New("lesson not found")
	ErrSlugExists     = errors.New("a course with this title already exists")
	ErrNotDraft       = errors.New("only draft courses can be published")
)

type (
	Repository interface {
		CheckSlugUniqueness(ctx context.Context, slug string, exec ...core.DBExecutor) error
		CreateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Course, error)
		GetCourseByID(ctx context.Context, id string, exec ...core.DBExecutor) (Course, error)
		GetCourseBySlug(ctx context.Context, slug string, exec ...core.DBExecutor) (Course, error)
		UpdateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		DeleteCoursesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)

		CreateLesson(ctx context.Context, lsn Lesson, exec ...core.DBExecutor) (Lesson, error)
		QueryLessons(ctx context.Context, courseID string, requiredOnly bool, exec ...core.DBExecutor) ([]Lesson, error)
		GetLessonByID(ctx context.Context, id string, exec ...core.DBExecutor) (Lesson, error)
		UpdateLesson(ctx context.Context, lsn Lesson, exec ...core.DBExecutor) (Lesson, error)
		DeleteLesson(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo  Repository
		files core.FileStore
		log   core.Logger
	}
)

func NewService(repo Repository, files core.FileStore, log core.Logger) *Service {
	return &Service{repo: repo, files: files, log: log}
}

func (svc *Service) CheckSlugUniqueness(ctx context.Context, slug string) error {
	if err := svc.repo.CheckSlugUniqueness(ctx, slug); err != nil {
		if errors.Is(err, ErrSlugExists) {
			return core.NewValidationError(err, core.FieldError{Field: "title", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nc NewCourse, createdBy string) (Course, error) {
	now := time.Now().UTC()
	crs := Course{
		Title:       nc.Title,
		Slug:        Slugify(nc.Title),
		Description: nc.Description,
		Category:    nc.Category,
		Difficulty:  nc.Difficulty,
		Duration:    nc.Duration,
		Status:      StatusDraft,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Course, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryCourses(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *Service) GetBySlug(ctx context.Context, slug string) (Course, error) {
	return svc.repo.GetCourseBySlug(ctx, core.CleanString(slug, true /* lower */))
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	crs := Course{
		ID:          id,
		Title:       uc.Title,
		Slug:        Slugify(uc.Title),
		Description: uc.Description,
		Category:    uc.Category,
		Difficulty:  uc.Difficulty,
		UpdatedAt:   time.Now().UTC(),
	}
	if uc.Duration != nil {
		crs.Duration = *uc.Duration
	}
	return svc.repo.UpdateCourse(ctx, crs)
}

// Publish transitions a draft course to published.
func (svc *Service) Publish(ctx context.Context, id string) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if crs.Status != StatusDraft {
		return Course{}, ErrNotDraft
	}
	crs.Status = StatusPublished
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

func (svc *Service) Archive(ctx context.Context, id string) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	crs.Status = StatusArchived
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteCoursesByID(ctx, ids)
	return err
}

// AttachVideo stores the uploaded media and records its key on the course.
func (svc *Service) AttachVideo(ctx context.Context, id, filename string, r io.Reader, contentType string) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}

	key := fmt.Sprintf("courses/%s/%s", crs.ID, filepath.Base(filename))
	if err := svc.files.Save(ctx, key, r, contentType); err != nil {
		return Course{}, errors.Wrap(err, "storing course video")
	}

	crs.VideoKey = key
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

// VideoURL resolves the public URL for a course's video, empty if none.
func (svc *Service) VideoURL(crs Course) string {
	if crs.VideoKey == "" {
		return ""
	}
	return svc.files.PublicURL(crs.VideoKey)
}

func (svc *Service) AddLesson(ctx context.Context, courseID string, nl NewLesson) (Lesson, error) {
	if _, err := svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return Lesson{}, err
	}
	now := time.Now().UTC()
	lsn := Lesson{
		CourseID:  courseID,
		Title:     nl.Title,
		Position:  nl.Position,
		Duration:  nl.Duration,
		Required:  nl.Required,
		Content:   nl.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateLesson(ctx, lsn)
}

func (svc *Service) Lessons(ctx context.Context, courseID string) ([]Lesson, error) {
	return svc.repo.QueryLessons(ctx, courseID, false)
}

func (svc *Service) RequiredLessons(ctx context.Context, courseID string) ([]Lesson, error) {
	return svc.repo.QueryLessons(ctx, courseID, true)
}

func (svc *Service) GetLesson(ctx context.Context, id string) (Lesson, error) {
	return svc.repo.GetLessonByID(ctx, id)
}

func (svc *Service) UpdateLesson(ctx context.Context, lsn Lesson) (Lesson, error) {
	lsn.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateLesson(ctx, lsn)
}

func (svc *Service) DeleteLesson(ctx context.Context, id string) error {
	return svc.repo.DeleteLesson(ctx, id)
}

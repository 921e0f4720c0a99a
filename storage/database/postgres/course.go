package pgrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Reema362/avocop/core"
	"github.com/Reema362/avocop/core/course"
)

type courseRepository struct {
	exec core.DBExecutor
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(exec core.DBExecutor) *courseRepository {
	return &courseRepository{exec: exec}
}

type courseRow struct {
	ID           string    `db:"id"`
	Title        string    `db:"title"`
	Slug         string    `db:"slug"`
	Description  string    `db:"description"`
	Category     string    `db:"category"`
	Difficulty   string    `db:"difficulty"`
	Duration     int       `db:"duration"`
	VideoKey     string    `db:"video_key"`
	ThumbnailKey string    `db:"thumbnail_key"`
	Status       string    `db:"status"`
	CreatedBy    string    `db:"created_by"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r courseRow) domain() course.Course {
	return course.Course(r)
}

type lessonRow struct {
	ID        string    `db:"id"`
	CourseID  string    `db:"course_id"`
	Title     string    `db:"title"`
	Position  int       `db:"position"`
	Duration  int       `db:"duration"`
	Required  bool      `db:"required"`
	VideoKey  string    `db:"video_key"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r lessonRow) domain() course.Lesson {
	return course.Lesson(r)
}

func (repo courseRepository) CheckSlugUniqueness(ctx context.Context, slug string, exec ...core.DBExecutor) error {
	var exists bool
	err := getExec(repo.exec, exec).GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM courses WHERE slug = $1)`, slug)
	if err != nil {
		return errors.Wrap(err, "checking course slug uniqueness")
	}
	if exists {
		return course.ErrSlugExists
	}
	return nil
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	crs.ID = uuid.New().String()
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `
		INSERT INTO courses (id, title, slug, description, category, difficulty, duration, video_key, thumbnail_key, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		crs.ID, crs.Title, crs.Slug, crs.Description, crs.Category, crs.Difficulty, crs.Duration,
		crs.VideoKey, crs.ThumbnailKey, crs.Status, crs.CreatedBy, crs.CreatedAt.UTC(), crs.UpdatedAt.UTC(),
	)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]course.Course, error) {
	q := `SELECT * FROM courses`
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			p := arg("%" + filter.Search + "%")
			conds = append(conds, fmt.Sprintf("(title ILIKE %[1]s OR description ILIKE %[1]s)", p))
		}
		if filter.Category != "" {
			conds = append(conds, fmt.Sprintf("category = %s", arg(filter.Category)))
		}
		if filter.Status != "" {
			conds = append(conds, fmt.Sprintf("status = %s", arg(filter.Status)))
		}
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}

	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		q += " ORDER BY " + strings.Join(orderList, ", ")
	}

	var rows []courseRow
	if err := getExec(repo.exec, exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.domain())
	}
	return courses, nil
}

func (repo courseRepository) GetCourseByID(ctx context.Context, id string, exec ...core.DBExecutor) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrNotFound
	}
	var row courseRow
	if err := getExec(repo.exec, exec).GetContext(ctx, &row, `SELECT * FROM courses WHERE id = $1`, id); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "finding course by ID")
	}
	return row.domain(), nil
}

func (repo courseRepository) GetCourseBySlug(ctx context.Context, slug string, exec ...core.DBExecutor) (course.Course, error) {
	var row courseRow
	if err := getExec(repo.exec, exec).GetContext(ctx, &row, `SELECT * FROM courses WHERE slug = $1`, slug); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "finding course by slug")
	}
	return row.domain(), nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	res, err := getExec(repo.exec, exec).ExecContext(ctx, `
		UPDATE courses SET
			title = COALESCE(NULLIF($2, ''), title),
			slug = COALESCE(NULLIF($3, ''), slug),
			description = COALESCE(NULLIF($4, ''), description),
			category = COALESCE(NULLIF($5, ''), category),
			difficulty = COALESCE(NULLIF($6, ''), difficulty),
			duration = COALESCE(NULLIF($7, 0), duration),
			video_key = COALESCE(NULLIF($8, ''), video_key),
			thumbnail_key = COALESCE(NULLIF($9, ''), thumbnail_key),
			status = COALESCE(NULLIF($10, ''), status),
			updated_at = $11
		WHERE id = $1`,
		crs.ID, crs.Title, crs.Slug, crs.Description, crs.Category, crs.Difficulty, crs.Duration,
		crs.VideoKey, crs.ThumbnailKey, crs.Status, crs.UpdatedAt.UTC(),
	)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return repo.GetCourseByID(ctx, crs.ID, exec...)
}

func (repo courseRepository) DeleteCoursesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	res, err := getExec(repo.exec, exec).ExecContext(ctx, `DELETE FROM courses WHERE id = ANY($1)`, pq.StringArray(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting courses")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo courseRepository) CreateLesson(ctx context.Context, lsn course.Lesson, exec ...core.DBExecutor) (course.Lesson, error) {
	lsn.ID = uuid.New().String()
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `
		INSERT INTO lessons (id, course_id, title, position, duration, required, video_key, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		lsn.ID, lsn.CourseID, lsn.Title, lsn.Position, lsn.Duration, lsn.Required,
		lsn.VideoKey, lsn.Content, lsn.CreatedAt.UTC(), lsn.UpdatedAt.UTC(),
	)
	if err != nil {
		return course.Lesson{}, errors.Wrap(err, "inserting lesson")
	}
	return lsn, nil
}

func (repo courseRepository) QueryLessons(ctx context.Context, courseID string, requiredOnly bool, exec ...core.DBExecutor) ([]course.Lesson, error) {
	q := `SELECT * FROM lessons WHERE course_id = $1`
	if requiredOnly {
		q += ` AND required`
	}
	q += ` ORDER BY position ASC, created_at ASC`

	var rows []lessonRow
	if err := getExec(repo.exec, exec).SelectContext(ctx, &rows, q, courseID); err != nil {
		return nil, errors.Wrap(err, "querying lessons")
	}
	lessons := make([]course.Lesson, 0, len(rows))
	for _, row := range rows {
		lessons = append(lessons, row.domain())
	}
	return lessons, nil
}

func (repo courseRepository) GetLessonByID(ctx context.Context, id string, exec ...core.DBExecutor) (course.Lesson, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Lesson{}, course.ErrLessonNotFound
	}
	var row lessonRow
	if err := getExec(repo.exec, exec).GetContext(ctx, &row, `SELECT * FROM lessons WHERE id = $1`, id); err != nil {
		return course.Lesson{}, trapNoRowsErr(err, course.ErrLessonNotFound, "finding lesson by ID")
	}
	return row.domain(), nil
}

func (repo courseRepository) UpdateLesson(ctx context.Context, lsn course.Lesson, exec ...core.DBExecutor) (course.Lesson, error) {
	res, err := getExec(repo.exec, exec).ExecContext(ctx, `
		UPDATE lessons SET
			title = COALESCE(NULLIF($2, ''), title),
			position = $3,
			duration = COALESCE(NULLIF($4, 0), duration),
			required = $5,
			video_key = COALESCE(NULLIF($6, ''), video_key),
			content = COALESCE(NULLIF($7, ''), content),
			updated_at = $8
		WHERE id = $1`,
		lsn.ID, lsn.Title, lsn.Position, lsn.Duration, lsn.Required, lsn.VideoKey, lsn.Content, lsn.UpdatedAt.UTC(),
	)
	if err != nil {
		return course.Lesson{}, errors.Wrap(err, "updating lesson")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Lesson{}, course.ErrLessonNotFound
	}
	return repo.GetLessonByID(ctx, lsn.ID, exec...)
}

func (repo courseRepository) DeleteLesson(ctx context.Context, id string, exec ...core.DBExecutor) error {
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	return errors.Wrap(err, "deleting lesson")
}

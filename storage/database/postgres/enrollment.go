package pgrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Reema362/avocop/core"
	"github.com/Reema362/avocop/core/enrollment"
)

type enrollmentRepository struct {
	exec core.DBExecutor
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(exec core.DBExecutor) *enrollmentRepository {
	return &enrollmentRepository{exec: exec}
}

type enrollmentRow struct {
	ID          string    `db:"id"`
	CourseID    string    `db:"course_id"`
	UserID      string    `db:"user_id"`
	Status      string    `db:"status"`
	Progress    int       `db:"progress"`
	EnrolledAt  time.Time `db:"enrolled_at"`
	StartedAt   null.Time `db:"started_at"`
	CompletedAt null.Time `db:"completed_at"`
	DueAt       null.Time `db:"due_at"`
}

func (r enrollmentRow) domain() enrollment.Enrollment {
	return enrollment.Enrollment(r)
}

type lessonProgressRow struct {
	ID          string    `db:"id"`
	LessonID    string    `db:"lesson_id"`
	UserID      string    `db:"user_id"`
	Progress    int       `db:"progress"`
	TimeSpent   int       `db:"time_spent"`
	CompletedAt null.Time `db:"completed_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r lessonProgressRow) domain() enrollment.LessonProgress {
	return enrollment.LessonProgress(r)
}

// UpsertEnrollment relies on the (course_id, user_id) unique constraint:
// a conflicting insert is a no-op and the surviving row is returned, so
// concurrent first-access calls converge on a single enrollment.
func (repo enrollmentRepository) UpsertEnrollment(ctx context.Context, enr enrollment.Enrollment, exec ...core.DBExecutor) (enrollment.Enrollment, bool, error) {
	exe := getExec(repo.exec, exec)

	var row enrollmentRow
	err := exe.GetContext(ctx, &row, `
		INSERT INTO enrollments (id, course_id, user_id, status, progress, enrolled_at, started_at, completed_at, due_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (course_id, user_id) DO NOTHING
		RETURNING *`,
		uuid.New().String(), enr.CourseID, enr.UserID, enr.Status, enr.Progress,
		enr.EnrolledAt.UTC(), enr.StartedAt, enr.CompletedAt, enr.DueAt,
	)
	if err == nil {
		return row.domain(), true, nil
	}
	if !isNoRowsErr(err) {
		return enrollment.Enrollment{}, false, errors.Wrap(err, "upserting enrollment")
	}

	// conflict: row already exists, fetch it
	existing, err := repo.GetEnrollment(ctx, enr.CourseID, enr.UserID, exec...)
	if err != nil {
		return enrollment.Enrollment{}, false, err
	}
	return existing, false, nil
}

func (repo enrollmentRepository) GetEnrollment(ctx context.Context, courseID, userID string, exec ...core.DBExecutor) (enrollment.Enrollment, error) {
	var row enrollmentRow
	err := getExec(repo.exec, exec).GetContext(ctx, &row,
		`SELECT * FROM enrollments WHERE course_id = $1 AND user_id = $2`, courseID, userID)
	if err != nil {
		return enrollment.Enrollment{}, trapNoRowsErr(err, enrollment.ErrNotFound, "finding enrollment")
	}
	return row.domain(), nil
}

func (repo enrollmentRepository) QueryEnrollments(ctx context.Context, filter *enrollment.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]enrollment.Enrollment, error) {
	q := `SELECT * FROM enrollments`
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.CourseID != "" {
			conds = append(conds, fmt.Sprintf("course_id = %s", arg(filter.CourseID)))
		}
		if filter.UserID != "" {
			conds = append(conds, fmt.Sprintf("user_id = %s", arg(filter.UserID)))
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

	var rows []enrollmentRow
	if err := getExec(repo.exec, exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrs := make([]enrollment.Enrollment, 0, len(rows))
	for _, row := range rows {
		enrs = append(enrs, row.domain())
	}
	return enrs, nil
}

func (repo enrollmentRepository) UpdateEnrollment(ctx context.Context, enr enrollment.Enrollment, exec ...core.DBExecutor) (enrollment.Enrollment, error) {
	var row enrollmentRow
	err := getExec(repo.exec, exec).GetContext(ctx, &row, `
		UPDATE enrollments SET
			status = $2,
			progress = $3,
			started_at = $4,
			completed_at = $5,
			due_at = $6
		WHERE id = $1
		RETURNING *`,
		enr.ID, enr.Status, enr.Progress, enr.StartedAt, enr.CompletedAt, enr.DueAt,
	)
	if err != nil {
		return enrollment.Enrollment{}, trapNoRowsErr(err, enrollment.ErrNotFound, "updating enrollment")
	}
	return row.domain(), nil
}

func (repo enrollmentRepository) MarkOverdue(ctx context.Context, asOf time.Time, exec ...core.DBExecutor) (int, error) {
	res, err := getExec(repo.exec, exec).ExecContext(ctx, `
		UPDATE enrollments SET status = $1
		WHERE due_at IS NOT NULL AND due_at < $2 AND status NOT IN ($3, $1)`,
		enrollment.StatusOverdue, asOf.UTC(), enrollment.StatusCompleted,
	)
	if err != nil {
		return 0, errors.Wrap(err, "marking overdue enrollments")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

// UpsertLessonProgress applies the progress rules in SQL so concurrent samples
// cannot regress a row: progress keeps the greatest value seen, time_spent
// accumulates, completed_at is set once when progress first hits 100.
func (repo enrollmentRepository) UpsertLessonProgress(ctx context.Context, lp enrollment.LessonProgress, exec ...core.DBExecutor) (enrollment.LessonProgress, error) {
	var row lessonProgressRow
	err := getExec(repo.exec, exec).GetContext(ctx, &row, `
		INSERT INTO lesson_progress (id, lesson_id, user_id, progress, time_spent, completed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, CASE WHEN $4 >= 100 THEN $6::timestamptz ELSE NULL END, $6)
		ON CONFLICT (user_id, lesson_id) DO UPDATE SET
			progress = GREATEST(lesson_progress.progress, EXCLUDED.progress),
			time_spent = lesson_progress.time_spent + EXCLUDED.time_spent,
			completed_at = COALESCE(
				lesson_progress.completed_at,
				CASE WHEN GREATEST(lesson_progress.progress, EXCLUDED.progress) >= 100 THEN EXCLUDED.updated_at END),
			updated_at = EXCLUDED.updated_at
		RETURNING *`,
		uuid.New().String(), lp.LessonID, lp.UserID, lp.Progress, lp.TimeSpent, lp.UpdatedAt.UTC(),
	)
	if err != nil {
		return enrollment.LessonProgress{}, errors.Wrap(err, "upserting lesson progress")
	}
	return row.domain(), nil
}

func (repo enrollmentRepository) GetLessonProgress(ctx context.Context, userID, lessonID string, exec ...core.DBExecutor) (enrollment.LessonProgress, error) {
	var row lessonProgressRow
	err := getExec(repo.exec, exec).GetContext(ctx, &row,
		`SELECT * FROM lesson_progress WHERE user_id = $1 AND lesson_id = $2`, userID, lessonID)
	if err != nil {
		return enrollment.LessonProgress{}, trapNoRowsErr(err, enrollment.ErrNotFound, "finding lesson progress")
	}
	return row.domain(), nil
}

func (repo enrollmentRepository) QueryLessonProgress(ctx context.Context, userID string, lessonIDs []string, exec ...core.DBExecutor) ([]enrollment.LessonProgress, error) {
	var rows []lessonProgressRow
	err := getExec(repo.exec, exec).SelectContext(ctx, &rows,
		`SELECT * FROM lesson_progress WHERE user_id = $1 AND lesson_id = ANY($2)`,
		userID, pq.StringArray(lessonIDs))
	if err != nil {
		return nil, errors.Wrap(err, "querying lesson progress")
	}
	records := make([]enrollment.LessonProgress, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.domain())
	}
	return records, nil
}

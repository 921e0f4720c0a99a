package dummydb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/Reema362/avocop/core"
	"github.com/Reema362/avocop/core/enrollment"
)

type enrollmentRepository struct {
	db *enrollmentTable
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *DB) enrollment.Repository {
	return &enrollmentRepository{db: db.enrollment}
}

func enrollmentKey(courseID, userID string) string { return courseID + "|" + userID }
func progressKey(userID, lessonID string) string   { return userID + "|" + lessonID }

func (repo *enrollmentRepository) UpsertEnrollment(ctx context.Context, enr enrollment.Enrollment, exec ...core.DBExecutor) (enrollment.Enrollment, bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := enrollmentKey(enr.CourseID, enr.UserID)
	if existing, ok := repo.db.enrollments[key]; ok {
		return *existing, false, nil
	}
	enr.ID = uuid.New().String()
	repo.db.enrollments[key] = &enr
	return enr, true, nil
}

func (repo *enrollmentRepository) GetEnrollment(ctx context.Context, courseID, userID string, exec ...core.DBExecutor) (enrollment.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if enr, ok := repo.db.enrollments[enrollmentKey(courseID, userID)]; ok {
		return *enr, nil
	}
	return enrollment.Enrollment{}, enrollment.ErrNotFound
}

func (repo *enrollmentRepository) QueryEnrollments(ctx context.Context, filter *enrollment.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]enrollment.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	enrs := make([]enrollment.Enrollment, 0, len(repo.db.enrollments))
	for _, enr := range repo.db.enrollments {
		if filter != nil {
			if filter.CourseID != "" && enr.CourseID != filter.CourseID {
				continue
			}
			if filter.UserID != "" && enr.UserID != filter.UserID {
				continue
			}
			if filter.Status != "" && enr.Status != filter.Status {
				continue
			}
		}
		enrs = append(enrs, *enr)
	}
	return enrs, nil
}

func (repo *enrollmentRepository) UpdateEnrollment(ctx context.Context, enr enrollment.Enrollment, exec ...core.DBExecutor) (enrollment.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.enrollments[enrollmentKey(enr.CourseID, enr.UserID)]
	if !ok || orig.ID != enr.ID {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	orig.Status = enr.Status
	orig.Progress = enr.Progress
	orig.StartedAt = enr.StartedAt
	orig.CompletedAt = enr.CompletedAt
	orig.DueAt = enr.DueAt

	return *orig, nil
}

func (repo *enrollmentRepository) MarkOverdue(ctx context.Context, asOf time.Time, exec ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	for _, enr := range repo.db.enrollments {
		if !enr.DueAt.Valid || !enr.DueAt.Time.Before(asOf) {
			continue
		}
		if enr.Status == enrollment.StatusCompleted || enr.Status == enrollment.StatusOverdue {
			continue
		}
		enr.Status = enrollment.StatusOverdue
		n++
	}
	return n, nil
}

func (repo *enrollmentRepository) UpsertLessonProgress(ctx context.Context, lp enrollment.LessonProgress, exec ...core.DBExecutor) (enrollment.LessonProgress, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := progressKey(lp.UserID, lp.LessonID)
	orig, ok := repo.db.progress[key]
	if !ok {
		lp.ID = uuid.New().String()
		if lp.Progress >= 100 {
			lp.CompletedAt = null.TimeFrom(lp.UpdatedAt)
		}
		repo.db.progress[key] = &lp
		return lp, nil
	}

	// progress never decreases; time accumulates; completion stamps once
	if lp.Progress > orig.Progress {
		orig.Progress = lp.Progress
	}
	orig.TimeSpent += lp.TimeSpent
	if orig.Progress >= 100 && !orig.CompletedAt.Valid {
		orig.CompletedAt = null.TimeFrom(lp.UpdatedAt)
	}
	orig.UpdatedAt = lp.UpdatedAt

	return *orig, nil
}

func (repo *enrollmentRepository) GetLessonProgress(ctx context.Context, userID, lessonID string, exec ...core.DBExecutor) (enrollment.LessonProgress, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if lp, ok := repo.db.progress[progressKey(userID, lessonID)]; ok {
		return *lp, nil
	}
	return enrollment.LessonProgress{}, enrollment.ErrNotFound
}

func (repo *enrollmentRepository) QueryLessonProgress(ctx context.Context, userID string, lessonIDs []string, exec ...core.DBExecutor) ([]enrollment.LessonProgress, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var records []enrollment.LessonProgress
	for _, id := range lessonIDs {
		if lp, ok := repo.db.progress[progressKey(userID, id)]; ok {
			records = append(records, *lp)
		}
	}
	return records, nil
}

package enrollment

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Reema362/avocop/core"
	"github.com/Reema362/avocop/core/course"
)

var (
	// errors
	ErrNotFound      = errors.New("enrollment not found")
	ErrMissingUserID = errors.New("no user id provided")
)

type (
	Repository interface {
		// UpsertEnrollment inserts the enrollment unless a row for its
		// (course, user) pair already exists, in which case the existing row is
		// returned unchanged. Duplicate prevention lives in the database
		// (unique constraint + on-conflict), not in application reads.
		UpsertEnrollment(ctx context.Context, enr Enrollment, exec ...core.DBExecutor) (Enrollment, bool, error)
		GetEnrollment(ctx context.Context, courseID, userID string, exec ...core.DBExecutor) (Enrollment, error)
		QueryEnrollments(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Enrollment, error)
		UpdateEnrollment(ctx context.Context, enr Enrollment, exec ...core.DBExecutor) (Enrollment, error)
		// MarkOverdue flips incomplete enrollments whose due date passed.
		MarkOverdue(ctx context.Context, asOf time.Time, exec ...core.DBExecutor) (int, error)

		// UpsertLessonProgress stores a sample with the monotonic-max rule on
		// progress and additive accumulation on time-spent; the completion
		// timestamp is set once when progress first reaches 100.
		UpsertLessonProgress(ctx context.Context, lp LessonProgress, exec ...core.DBExecutor) (LessonProgress, error)
		GetLessonProgress(ctx context.Context, userID, lessonID string, exec ...core.DBExecutor) (LessonProgress, error)
		QueryLessonProgress(ctx context.Context, userID string, lessonIDs []string, exec ...core.DBExecutor) ([]LessonProgress, error)
	}

	Service struct {
		repo     Repository
		courses  *course.Service
		log      core.Logger
		trackers *TrackerRegistry
	}
)

func NewService(repo Repository, courseSvc *course.Service, log core.Logger) *Service {
	return &Service{
		repo:     repo,
		courses:  courseSvc,
		log:      log,
		trackers: NewTrackerRegistry(),
	}
}

// EnsureEnrolled creates an enrollment for (course, user) on first content
// access; repeated calls return the existing row unchanged.
func (svc *Service) EnsureEnrolled(ctx context.Context, courseID, userID string) (Enrollment, error) {
	if userID == "" {
		return Enrollment{}, core.NewValidationError(ErrMissingUserID)
	}

	enr := Enrollment{
		CourseID:   courseID,
		UserID:     userID,
		Status:     StatusNotStarted,
		Progress:   0,
		EnrolledAt: time.Now().UTC(),
	}
	enr, _, err := svc.repo.UpsertEnrollment(ctx, enr)
	return enr, err
}

// Assign enrolls users in a course by explicit admin action, optionally with a
// due date. Existing enrollments are left untouched.
func (svc *Service) Assign(ctx context.Context, courseID string, req AssignRequest) ([]Enrollment, error) {
	now := time.Now().UTC()
	enrs := make([]Enrollment, 0, len(req.UserIDs))
	for _, uid := range req.UserIDs {
		enr := Enrollment{
			CourseID:   courseID,
			UserID:     uid,
			Status:     StatusNotStarted,
			EnrolledAt: now,
		}
		if req.DueAt != nil {
			enr.DueAt = null.TimeFrom(req.DueAt.UTC())
		}
		enr, _, err := svc.repo.UpsertEnrollment(ctx, enr)
		if err != nil {
			return nil, err
		}
		enrs = append(enrs, enr)
	}
	return enrs, nil
}

func (svc *Service) Get(ctx context.Context, courseID, userID string) (Enrollment, error) {
	return svc.repo.GetEnrollment(ctx, courseID, userID)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Enrollment, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryEnrollments(ctx, filter, ordering)
}

// RecordLessonProgress persists one progress sample for (user, lesson).
// Stored progress never decreases: a learner rewinding must not lower the
// recorded value. minutes adds onto cumulative time-spent.
func (svc *Service) RecordLessonProgress(ctx context.Context, userID, lessonID string, progress, minutes int) (LessonProgress, error) {
	if userID == "" {
		return LessonProgress{}, core.NewValidationError(ErrMissingUserID)
	}
	if progress < 0 {
		progress = 0
	} else if progress > 100 {
		progress = 100
	}
	if minutes < 0 {
		minutes = 0
	}

	lp := LessonProgress{
		LessonID:  lessonID,
		UserID:    userID,
		Progress:  progress,
		TimeSpent: minutes,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpsertLessonProgress(ctx, lp)
}

// EvaluateCompletion recomputes an enrollment's progress and status from its
// required lessons' recorded progress, in one enrollment write.
//
// A course with no lesson rows at all is a legacy single-video course and is
// treated as trivially complete.
//
// Safe to call repeatedly: with unchanged inputs the stored output is
// identical (timestamps are only stamped when still unset).
func (svc *Service) EvaluateCompletion(ctx context.Context, courseID, userID string) (Enrollment, error) {
	if userID == "" {
		return Enrollment{}, core.NewValidationError(ErrMissingUserID)
	}

	enr, err := svc.repo.GetEnrollment(ctx, courseID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if enr, err = svc.EnsureEnrolled(ctx, courseID, userID); err != nil {
				return Enrollment{}, err
			}
		} else {
			return Enrollment{}, err
		}
	}

	lessons, err := svc.courses.Lessons(ctx, courseID)
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "loading course lessons")
	}

	now := time.Now().UTC()

	if len(lessons) == 0 {
		// legacy single-video course: no lesson rows, flat completion
		enr.Progress = 100
		enr.Status = StatusCompleted
		if !enr.StartedAt.Valid {
			enr.StartedAt = null.TimeFrom(now)
		}
		if !enr.CompletedAt.Valid {
			enr.CompletedAt = null.TimeFrom(now)
		}
		return svc.repo.UpdateEnrollment(ctx, enr)
	}

	required := make([]course.Lesson, 0, len(lessons))
	for _, lsn := range lessons {
		if lsn.Required {
			required = append(required, lsn)
		}
	}

	pct := 100 // zero required lessons counts as fully complete
	if len(required) > 0 {
		ids := make([]string, 0, len(required))
		for _, lsn := range required {
			ids = append(ids, lsn.ID)
		}
		records, err := svc.repo.QueryLessonProgress(ctx, userID, ids)
		if err != nil {
			return Enrollment{}, errors.Wrap(err, "loading lesson progress")
		}
		var done int
		for _, lp := range records {
			if lp.Progress >= 100 {
				done++
			}
		}
		pct = int(math.Round(float64(done) / float64(len(required)) * 100))
	}

	enr.Progress = pct
	switch {
	case pct >= 100:
		enr.Status = StatusCompleted
		if !enr.StartedAt.Valid {
			enr.StartedAt = null.TimeFrom(now)
		}
		if !enr.CompletedAt.Valid {
			enr.CompletedAt = null.TimeFrom(now)
		}
	case pct > 0:
		enr.Status = StatusInProgress
		if !enr.StartedAt.Valid {
			enr.StartedAt = null.TimeFrom(now)
		}
	default:
		enr.Status = StatusNotStarted
	}

	return svc.repo.UpdateEnrollment(ctx, enr)
}

// LessonProgress returns the learner's recorded per-lesson progress for all of
// a course's lessons. Lessons never touched by the learner have no record.
func (svc *Service) LessonProgress(ctx context.Context, courseID, userID string) ([]LessonProgress, error) {
	if userID == "" {
		return nil, core.NewValidationError(ErrMissingUserID)
	}
	lessons, err := svc.courses.Lessons(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "loading course lessons")
	}
	ids := make([]string, 0, len(lessons)+1)
	for _, lsn := range lessons {
		ids = append(ids, lsn.ID)
	}
	ids = append(ids, courseID) // implicit lesson of single-video courses
	return svc.repo.QueryLessonProgress(ctx, userID, ids)
}

// TrackPlayback feeds one playback observation for (user, lesson) through the
// session's sampling policy. lessonID may equal courseID for single-video
// courses tracked as one implicit lesson. The viewer is enrolled when their
// session opens; enrollment failures are logged and swallowed, they must not
// block content viewing.
func (svc *Service) TrackPlayback(ctx context.Context, courseID, lessonID, userID string, position, duration float64) (bool, error) {
	if userID == "" {
		return false, core.NewValidationError(ErrMissingUserID)
	}
	if lessonID == "" {
		lessonID = courseID
	}

	t, opened := svc.trackers.GetOrCreate(userID, lessonID, func() *Tracker {
		return NewTracker(
			func(ctx context.Context, progress int, elapsed time.Duration) error {
				_, err := svc.RecordLessonProgress(ctx, userID, lessonID, progress, int(elapsed/time.Minute))
				return err
			},
			func(ctx context.Context, progress int) error {
				_, err := svc.EvaluateCompletion(ctx, courseID, userID)
				return err
			},
		)
	})
	if opened {
		if _, err := svc.EnsureEnrolled(ctx, courseID, userID); err != nil {
			svc.log.Error("enrollment: ensure-enrolled failed", err)
		}
	}
	return t.Sample(ctx, position, duration)
}

// CloseSession drops the playback tracker for (user, lesson) on viewer teardown.
func (svc *Service) CloseSession(userID, lessonID string) {
	svc.trackers.Close(userID, lessonID)
}

// EvictIdleSessions drops playback trackers that saw no samples for maxIdle,
// covering viewers that never close their session.
func (svc *Service) EvictIdleSessions(maxIdle time.Duration) int {
	return svc.trackers.EvictIdle(maxIdle)
}

// SweepOverdue marks incomplete enrollments past their due date as overdue.
func (svc *Service) SweepOverdue(ctx context.Context) (int, error) {
	return svc.repo.MarkOverdue(ctx, time.Now().UTC())
}

package enrollment_test

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Reema362/avocop/core"
	"github.com/Reema362/avocop/core/course"
	"github.com/Reema362/avocop/core/enrollment"
	logsvc "github.com/Reema362/avocop/services/logger"
	dummydb "github.com/Reema362/avocop/storage/database/dummy"
)

type testEnv struct {
	courseSvc *course.Service
	svc       *enrollment.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)

	logger := logsvc.NewConsoleLogger(log.New(io.Discard, "", 0))
	courseSvc := course.NewService(dummydb.NewCourseRepository(db), nil, logger)
	return &testEnv{
		courseSvc: courseSvc,
		svc:       enrollment.NewService(dummydb.NewEnrollmentRepository(db), courseSvc, logger),
	}
}

func (env *testEnv) createCourse(t *testing.T, title string) course.Course {
	t.Helper()
	crs, err := env.courseSvc.Create(context.Background(), course.NewCourse{Title: title}, "admin-id")
	require.NoError(t, err)
	return crs
}

func (env *testEnv) addLesson(t *testing.T, courseID, title string, pos int, required bool) course.Lesson {
	t.Helper()
	lsn, err := env.courseSvc.AddLesson(context.Background(), courseID, course.NewLesson{
		Title: title, Position: pos, Required: required,
	})
	require.NoError(t, err)
	return lsn
}

func TestEnsureEnrolled_idempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	crs := env.createCourse(t, "Phishing 101")

	enr1, err := env.svc.EnsureEnrolled(ctx, crs.ID, "usr1")
	require.NoError(t, err)
	assert.Equal(t, enrollment.StatusNotStarted, enr1.Status)

	enr2, err := env.svc.EnsureEnrolled(ctx, crs.ID, "usr1")
	require.NoError(t, err)
	assert.Equal(t, enr1.ID, enr2.ID)
	assert.Equal(t, enr1.EnrolledAt, enr2.EnrolledAt)

	enrs, err := env.svc.Query(ctx, &enrollment.QueryFilter{CourseID: crs.ID})
	require.NoError(t, err)
	assert.Len(t, enrs, 1)
}

func TestEnsureEnrolled_missingUser(t *testing.T) {
	env := newTestEnv(t)
	crs := env.createCourse(t, "Phishing 101")

	_, err := env.svc.EnsureEnrolled(context.Background(), crs.ID, "")
	assert.Error(t, err)
}

func TestRecordLessonProgress_neverDecreases(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	crs := env.createCourse(t, "Phishing 101")
	lsn := env.addLesson(t, crs.ID, "Spotting a phish", 0, true)

	lp, err := env.svc.RecordLessonProgress(ctx, "usr1", lsn.ID, 80, 4)
	require.NoError(t, err)
	assert.Equal(t, 80, lp.Progress)
	assert.Equal(t, 4, lp.TimeSpent)

	// rewinding must not lower the stored value; time still accumulates
	lp, err = env.svc.RecordLessonProgress(ctx, "usr1", lsn.ID, 50, 2)
	require.NoError(t, err)
	assert.Equal(t, 80, lp.Progress)
	assert.Equal(t, 6, lp.TimeSpent)
}

func TestRecordLessonProgress_completionStampsOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	crs := env.createCourse(t, "Phishing 101")
	lsn := env.addLesson(t, crs.ID, "Spotting a phish", 0, true)

	lp, err := env.svc.RecordLessonProgress(ctx, "usr1", lsn.ID, 100, 5)
	require.NoError(t, err)
	require.True(t, lp.CompletedAt.Valid)
	first := lp.CompletedAt.Time

	lp, err = env.svc.RecordLessonProgress(ctx, "usr1", lsn.ID, 100, 1)
	require.NoError(t, err)
	assert.Equal(t, first, lp.CompletedAt.Time)
}

func TestRecordLessonProgress_clampsInput(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	crs := env.createCourse(t, "Phishing 101")
	lsn := env.addLesson(t, crs.ID, "Spotting a phish", 0, true)

	lp, err := env.svc.RecordLessonProgress(ctx, "usr1", lsn.ID, 150, -3)
	require.NoError(t, err)
	assert.Equal(t, 100, lp.Progress)
	assert.Equal(t, 0, lp.TimeSpent)
}

func TestEvaluateCompletion_requiredLessonsOnly(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	crs := env.createCourse(t, "Phishing 101")
	l1 := env.addLesson(t, crs.ID, "Lesson 1", 0, true)
	l2 := env.addLesson(t, crs.ID, "Lesson 2", 1, true)
	l3 := env.addLesson(t, crs.ID, "Lesson 3", 2, true)
	env.addLesson(t, crs.ID, "Lesson 4", 3, true)
	env.addLesson(t, crs.ID, "Bonus", 4, false) // optional: never counted

	for _, lsn := range []course.Lesson{l1, l2, l3} {
		_, err := env.svc.RecordLessonProgress(ctx, "usr1", lsn.ID, 100, 5)
		require.NoError(t, err)
	}

	enr, err := env.svc.EvaluateCompletion(ctx, crs.ID, "usr1")
	require.NoError(t, err)
	assert.Equal(t, 75, enr.Progress)
	assert.Equal(t, enrollment.StatusInProgress, enr.Status)
	assert.True(t, enr.StartedAt.Valid)
	assert.False(t, enr.CompletedAt.Valid)
}

func TestEvaluateCompletion_completesCourse(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	crs := env.createCourse(t, "Phishing 101")
	l1 := env.addLesson(t, crs.ID, "Lesson 1", 0, true)
	l2 := env.addLesson(t, crs.ID, "Lesson 2", 1, true)

	for _, lsn := range []course.Lesson{l1, l2} {
		_, err := env.svc.RecordLessonProgress(ctx, "usr1", lsn.ID, 100, 5)
		require.NoError(t, err)
	}

	enr, err := env.svc.EvaluateCompletion(ctx, crs.ID, "usr1")
	require.NoError(t, err)
	assert.Equal(t, 100, enr.Progress)
	assert.Equal(t, enrollment.StatusCompleted, enr.Status)
	require.True(t, enr.CompletedAt.Valid)
	completedAt := enr.CompletedAt.Time

	// re-evaluating with unchanged inputs is a no-op
	enr, err = env.svc.EvaluateCompletion(ctx, crs.ID, "usr1")
	require.NoError(t, err)
	assert.Equal(t, completedAt, enr.CompletedAt.Time)
}

func TestEvaluateCompletion_legacySingleVideoCourse(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	crs := env.createCourse(t, "Phishing 101") // no lessons at all

	enr, err := env.svc.EvaluateCompletion(ctx, crs.ID, "usr1")
	require.NoError(t, err)
	assert.Equal(t, 100, enr.Progress)
	assert.Equal(t, enrollment.StatusCompleted, enr.Status)
}

func TestEvaluateCompletion_enrollsWhenMissing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	crs := env.createCourse(t, "Phishing 101")
	env.addLesson(t, crs.ID, "Lesson 1", 0, true)

	enr, err := env.svc.EvaluateCompletion(ctx, crs.ID, "usr1")
	require.NoError(t, err)
	assert.Equal(t, 0, enr.Progress)
	assert.Equal(t, enrollment.StatusNotStarted, enr.Status)
}

func TestTrackPlayback_persistsAndCompletes(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	crs := env.createCourse(t, "Phishing 101") // single-video course

	// below the delta threshold: absorbed in memory
	persisted, err := env.svc.TrackPlayback(ctx, crs.ID, "", "usr1", 5, 100)
	require.NoError(t, err)
	assert.False(t, persisted)

	// the viewing auto-enrolled the learner regardless
	enr, err := env.svc.Get(ctx, crs.ID, "usr1")
	require.NoError(t, err)
	assert.Equal(t, enrollment.StatusNotStarted, enr.Status)

	// crossing the threshold persists
	persisted, err = env.svc.TrackPlayback(ctx, crs.ID, "", "usr1", 15, 100)
	require.NoError(t, err)
	assert.True(t, persisted)

	lp, err := env.svc.LessonProgress(ctx, crs.ID, "usr1")
	require.NoError(t, err)
	require.Len(t, lp, 1)
	assert.Equal(t, 15, lp[0].Progress)

	// end of stream: completion evaluation runs
	_, err = env.svc.TrackPlayback(ctx, crs.ID, "", "usr1", 97, 100)
	require.NoError(t, err)

	enr, err = env.svc.Get(ctx, crs.ID, "usr1")
	require.NoError(t, err)
	assert.Equal(t, enrollment.StatusCompleted, enr.Status)
	assert.Equal(t, 100, enr.Progress)

	env.svc.CloseSession("usr1", crs.ID)
}

// enrollCountingRepo counts enrollment upserts on top of the in-memory repo.
type enrollCountingRepo struct {
	enrollment.Repository
	upserts int
}

func (r *enrollCountingRepo) UpsertEnrollment(ctx context.Context, enr enrollment.Enrollment, exec ...core.DBExecutor) (enrollment.Enrollment, bool, error) {
	r.upserts++
	return r.Repository.UpsertEnrollment(ctx, enr, exec...)
}

func TestTrackPlayback_enrollsOncePerSession(t *testing.T) {
	ctx := context.Background()
	db, err := dummydb.Open()
	require.NoError(t, err)

	logger := logsvc.NewConsoleLogger(log.New(io.Discard, "", 0))
	courseSvc := course.NewService(dummydb.NewCourseRepository(db), nil, logger)
	repo := &enrollCountingRepo{Repository: dummydb.NewEnrollmentRepository(db)}
	svc := enrollment.NewService(repo, courseSvc, logger)

	crs, err := courseSvc.Create(ctx, course.NewCourse{Title: "Phishing 101"}, "admin-id")
	require.NoError(t, err)

	// heartbeats within one session hit the enrollment upsert only once
	for _, pos := range []float64{10, 20, 30} {
		_, err := svc.TrackPlayback(ctx, crs.ID, "", "usr1", pos, 600)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, repo.upserts)

	// reopening after teardown enrolls again, converging on the same row
	svc.CloseSession("usr1", crs.ID)
	_, err = svc.TrackPlayback(ctx, crs.ID, "", "usr1", 40, 600)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.upserts)

	enrs, err := svc.Query(ctx, &enrollment.QueryFilter{CourseID: crs.ID})
	require.NoError(t, err)
	assert.Len(t, enrs, 1)
}

package course_test

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Reema362/avocop/core/course"
	"github.com/Reema362/avocop/services/filestore"
	logsvc "github.com/Reema362/avocop/services/logger"
	dummydb "github.com/Reema362/avocop/storage/database/dummy"
)

func newTestService(t *testing.T) *course.Service {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)

	files, err := filestore.NewLocalStore(t.TempDir(), "/media")
	require.NoError(t, err)

	logger := logsvc.NewConsoleLogger(log.New(io.Discard, "", 0))
	return course.NewService(dummydb.NewCourseRepository(db), files, logger)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Phishing 101", "phishing-101"},
		{"  Social Engineering: The Basics!  ", "social-engineering-the-basics"},
		{"MFA", "mfa"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, course.Slugify(tt.title))
	}
}

func TestCreate_slugUniqueness(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	crs, err := svc.Create(ctx, course.NewCourse{Title: "Phishing 101"}, "admin-id")
	require.NoError(t, err)
	assert.Equal(t, "phishing-101", crs.Slug)
	assert.Equal(t, course.StatusDraft, crs.Status)

	nc := course.NewCourse{Title: "Phishing 101!"} // same slug
	err = nc.Validate(ctx, svc)
	assert.Error(t, err)
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	crs, err := svc.Create(ctx, course.NewCourse{Title: "Phishing 101"}, "admin-id")
	require.NoError(t, err)

	crs, err = svc.Publish(ctx, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, course.StatusPublished, crs.Status)

	// only drafts can be published
	_, err = svc.Publish(ctx, crs.ID)
	assert.ErrorIs(t, err, course.ErrNotDraft)

	crs, err = svc.Archive(ctx, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, course.StatusArchived, crs.Status)
}

func TestLessons_orderedAndFiltered(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	crs, err := svc.Create(ctx, course.NewCourse{Title: "Phishing 101"}, "admin-id")
	require.NoError(t, err)

	// inserted out of order on purpose
	_, err = svc.AddLesson(ctx, crs.ID, course.NewLesson{Title: "Wrap-up", Position: 2, Required: false})
	require.NoError(t, err)
	_, err = svc.AddLesson(ctx, crs.ID, course.NewLesson{Title: "Intro", Position: 0, Required: true})
	require.NoError(t, err)
	_, err = svc.AddLesson(ctx, crs.ID, course.NewLesson{Title: "Deep dive", Position: 1, Required: true})
	require.NoError(t, err)

	lessons, err := svc.Lessons(ctx, crs.ID)
	require.NoError(t, err)
	require.Len(t, lessons, 3)
	assert.Equal(t, "Intro", lessons[0].Title)
	assert.Equal(t, "Deep dive", lessons[1].Title)
	assert.Equal(t, "Wrap-up", lessons[2].Title)

	required, err := svc.RequiredLessons(ctx, crs.ID)
	require.NoError(t, err)
	assert.Len(t, required, 2)
}

func TestAttachVideo(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	crs, err := svc.Create(ctx, course.NewCourse{Title: "Phishing 101"}, "admin-id")
	require.NoError(t, err)

	crs, err = svc.AttachVideo(ctx, crs.ID, "intro final.mp4", strings.NewReader("fake video bytes"), "video/mp4")
	require.NoError(t, err)
	require.NotEmpty(t, crs.VideoKey)

	url := svc.VideoURL(crs)
	assert.True(t, strings.HasPrefix(url, "/media/"), "got %q", url)
}

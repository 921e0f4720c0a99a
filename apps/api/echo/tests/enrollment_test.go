package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/Reema362/avocop/apps/api/echo"
	"github.com/Reema362/avocop/core/enrollment"
	"github.com/Reema362/avocop/core/user"
)

func Test_enrollmentApi_enroll(t *testing.T) {
	env := setup(t)

	admin := env.createUser(t, "Admin", "theadmin", "admin@corp.test", []string{user.RoleAdmin})
	learner := env.createUser(t, "Hero", "knownhero", "hero@corp.test", user.LearnerRoles)
	crs := env.createPublishedCourse(t, "Phishing Basics", admin.ID)

	token := getToken(t, learner)
	path := fmt.Sprintf("/v1/courses/%s/enroll", crs.ID)

	req, rec := newAuthRequest(http.MethodPost, path, token)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var enr enrollment.Enrollment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enr))
	assert.Equal(t, crs.ID, enr.CourseID)
	assert.Equal(t, learner.ID, enr.UserID)
	assert.Equal(t, enrollment.StatusNotStarted, enr.Status)

	// re-enrolling returns the same enrollment
	req, rec = newAuthRequest(http.MethodPost, path, token)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var again enrollment.Enrollment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
	assert.Equal(t, enr.ID, again.ID)
}

func Test_enrollmentApi_assign(t *testing.T) {
	env := setup(t)

	admin := env.createUser(t, "Admin", "theadmin", "admin@corp.test", []string{user.RoleAdmin})
	usr1 := env.createUser(t, "Hero", "knownhero", "hero@corp.test", user.LearnerRoles)
	usr2 := env.createUser(t, "King", "theking", "king@corp.test", user.LearnerRoles)
	crs := env.createPublishedCourse(t, "Password Hygiene", admin.ID)

	path := fmt.Sprintf("/v1/courses/%s/assign", crs.ID)
	body := marchallObj(t, enrollment.AssignRequest{UserIDs: []string{usr1.ID, usr2.ID}})

	t.Run("Admin required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, usr1), body)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		}, rec)
	})

	t.Run("Assign", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, admin), body)
		env.app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		var enrs []enrollment.Enrollment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enrs))
		assert.Len(t, enrs, 2)
	})

	t.Run("Learners only see their own", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/enrollments", getToken(t, usr1))
		env.app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var enrs []enrollment.Enrollment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enrs))
		require.Len(t, enrs, 1)
		assert.Equal(t, usr1.ID, enrs[0].UserID)
	})
}

// a learner watches a single-video course end to end
func Test_enrollmentApi_playbackFlow(t *testing.T) {
	env := setup(t)

	admin := env.createUser(t, "Admin", "theadmin", "admin@corp.test", []string{user.RoleAdmin})
	learner := env.createUser(t, "Hero", "knownhero", "hero@corp.test", user.LearnerRoles)
	crs := env.createPublishedCourse(t, "Social Engineering", admin.ID)

	token := getToken(t, learner)
	playbackPath := fmt.Sprintf("/v1/courses/%s/playback", crs.ID)

	sample := func(t *testing.T, position float64) PlaybackResponse {
		body := marchallObj(t, PlaybackSample{Position: position, Duration: 600})
		req, rec := newAuthRequest(http.MethodPost, playbackPath, token, body)
		env.app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp PlaybackResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp
	}

	// small first sample is absorbed but enrolls the viewer
	resp := sample(t, 30) // 5%
	assert.False(t, resp.Persisted)

	req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/courses/%s/enrollment", crs.ID), token)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var enr enrollment.Enrollment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enr))
	assert.Equal(t, enrollment.StatusNotStarted, enr.Status)

	// crossing the delta threshold flushes to the database
	resp = sample(t, 90) // 15%
	assert.True(t, resp.Persisted)

	req, rec = newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/courses/%s/progress", crs.ID), token)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var progress []enrollment.LessonProgress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &progress))
	require.Len(t, progress, 1)
	assert.Equal(t, 15, progress[0].Progress)

	// near the end, completion kicks in
	resp = sample(t, 582) // 97%
	assert.True(t, resp.Persisted)

	req, rec = newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/courses/%s/enrollment", crs.ID), token)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enr))
	assert.Equal(t, enrollment.StatusCompleted, enr.Status)
	assert.Equal(t, 100, enr.Progress)
	assert.True(t, enr.CompletedAt.Valid)

	// viewer teardown
	req, rec = newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/courses/%s/playback/close", crs.ID), token, marchallObj(t, CloseSessionRequest{}))
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marchallObj(t, SuccessResponse{Success: "Session closed."}),
	}, rec)
}

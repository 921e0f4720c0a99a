package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Reema362/avocop/core/course"
	"github.com/Reema362/avocop/core/user"
)

func Test_courseApi_visibility(t *testing.T) {
	env := setup(t)

	admin := env.createUser(t, "Admin", "theadmin", "admin@corp.test", []string{user.RoleAdmin})
	learner := env.createUser(t, "Hero", "knownhero", "hero@corp.test", user.LearnerRoles)

	adminToken := getToken(t, admin)
	learnerToken := getToken(t, learner)

	// admin authors a course; it starts out as a draft
	body := marchallObj(t, course.NewCourse{Title: "Phishing Basics", Category: "phishing"})
	req, rec := newAuthRequest(http.MethodPost, "/v1/courses", adminToken, body)
	env.app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var draft course.Course
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &draft))
	assert.Equal(t, course.StatusDraft, draft.Status)
	assert.Equal(t, "phishing-basics", draft.Slug)

	published := env.createPublishedCourse(t, "Password Hygiene", admin.ID)

	t.Run("Learner cannot author", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses", learnerToken, body)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		}, rec)
	})

	t.Run("Learner only lists published", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses", learnerToken)
		env.app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var courses []course.Course
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &courses))
		require.Len(t, courses, 1)
		assert.Equal(t, published.ID, courses[0].ID)
	})

	t.Run("Admin lists all", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses", adminToken)
		env.app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var courses []course.Course
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &courses))
		assert.Len(t, courses, 2)
	})

	t.Run("Draft hidden from learner", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/"+draft.ID, learnerToken)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		}, rec)
	})

	t.Run("Publish", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/courses/%s/publish", draft.ID), adminToken)
		env.app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var crs course.Course
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &crs))
		assert.Equal(t, course.StatusPublished, crs.Status)
	})

	t.Run("Republishing conflicts", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/courses/%s/publish", draft.ID), adminToken)
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func Test_courseApi_viewEnrolls(t *testing.T) {
	env := setup(t)

	admin := env.createUser(t, "Admin", "theadmin", "admin@corp.test", []string{user.RoleAdmin})
	learner := env.createUser(t, "Hero", "knownhero", "hero@corp.test", user.LearnerRoles)
	crs := env.createPublishedCourse(t, "Social Engineering", admin.ID)

	req, rec := newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID, getToken(t, learner))
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// opening a course enrolls the viewer
	req, rec = newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/courses/%s/enrollment", crs.ID), getToken(t, learner))
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

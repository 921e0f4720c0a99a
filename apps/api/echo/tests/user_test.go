package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/Reema362/avocop/apps/api/echo"
	"github.com/Reema362/avocop/core/user"
)

func Test_userApi_login(t *testing.T) {
	env := setup(t)

	usr := env.createUser(t, "Awe Some", "awesome", "awe@corp.test", nil)

	f := false
	deactivated := env.createUser(t, "N Dog", "naughty", "ndog@corp.test", nil)
	if _, err := env.usrSvc.Update(context.Background(), deactivated.ID, user.UpdateUser{IsActive: &f}); err != nil {
		t.Fatalf("deactivating user: %v", err)
	}

	tests := []httpTest{
		{
			name: "Fields required", method: http.MethodPost, path: "/v1/users/login",
			body: marchallObj(t, LoginRequest{}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"username": "this field is required",
				"password": "this field is required",
			}),
		},
		{
			name: "Unknown user", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, LoginRequest{Username: "ghost", Password: "v3ryS3cretPwd!"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "Wrong password", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, LoginRequest{Username: usr.Username, Password: "nope"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "Deactivated account", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, LoginRequest{Username: deactivated.Username, Password: "v3ryS3cretPwd!"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Login by username", func(t *testing.T) {
		body := marchallObj(t, LoginRequest{Username: usr.Username, Password: "v3ryS3cretPwd!"})
		req, rec := newRequest(http.MethodPost, "/v1/users/login", body)
		env.app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("Login by email", func(t *testing.T) {
		body := marchallObj(t, LoginRequest{Username: usr.Email, Password: "v3ryS3cretPwd!"})
		req, rec := newRequest(http.MethodPost, "/v1/users/login", body)
		env.app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("Login stamps lastLogin", func(t *testing.T) {
		refreshed, err := env.usrSvc.GetByID(context.Background(), usr.ID)
		require.NoError(t, err)
		assert.False(t, refreshed.LastLogin.IsZero())
	})
}

func Test_userApi_me(t *testing.T) {
	env := setup(t)

	usr := env.createUser(t, "Awe Some", "awesome", "awe@corp.test", user.LearnerRoles)

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodGet, path: "/v1/users/me",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Get me", method: http.MethodGet, path: "/v1/users/me", token: getToken(t, usr),
			wantCode: http.StatusOK, wantData: marchallObj(t, usr),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_query(t *testing.T) {
	env := setup(t)

	learner := env.createUser(t, "Hero", "knownhero", "hero@corp.test", user.LearnerRoles)
	admin := env.createUser(t, "Admin", "theadmin", "admin@corp.test", []string{user.RoleAdmin})

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodGet, path: "/v1/users",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Admin required", method: http.MethodGet, path: "/v1/users", token: getToken(t, learner),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Get all", method: http.MethodGet, path: "/v1/users", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallList(t, learner, admin),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_register(t *testing.T) {
	env := setup(t)

	learner := env.createUser(t, "Hero", "knownhero", "hero@corp.test", user.LearnerRoles)
	admin := env.createUser(t, "Admin", "theadmin", "admin@corp.test", []string{user.RoleAdmin})

	newUser := user.NewUser{
		Name:            "New Hire",
		Username:        "newhire",
		Email:           "hire@corp.test",
		Password:        "v3ryS3cretPwd!",
		PasswordConfirm: "v3ryS3cretPwd!",
		Roles:           user.LearnerRoles,
	}

	t.Run("Admin required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", getToken(t, learner), marchallObj(t, newUser))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		}, rec)
	})

	t.Run("Admin cannot grant super admin", func(t *testing.T) {
		elevated := newUser
		elevated.Roles = []string{user.RoleAdminSuper}
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", getToken(t, admin), marchallObj(t, elevated))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"roles": "not enough rights to set these roles"}),
		}, rec)
	})

	t.Run("Register", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", getToken(t, admin), marchallObj(t, newUser))
		env.app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		var created user.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "newhire", created.Username)
		assert.True(t, created.IsActive)
	})

	t.Run("Duplicate username", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", getToken(t, admin), marchallObj(t, newUser))
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

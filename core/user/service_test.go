package user_test

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Reema362/avocop/core/user"
	dummymail "github.com/Reema362/avocop/services/email/dummy"
	logsvc "github.com/Reema362/avocop/services/logger"
	dummydb "github.com/Reema362/avocop/storage/database/dummy"
)

func newTestService(t *testing.T) *user.Service {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)

	logger := logsvc.NewConsoleLogger(log.New(io.Discard, "", 0))
	return user.NewService(dummydb.NewUserRepository(db), dummymail.NewService(), logger)
}

func createUser(t *testing.T, svc *user.Service, uname, email string, roles ...string) user.User {
	t.Helper()
	usr, err := svc.Create(context.Background(), user.NewUser{
		Name:     "Test User",
		Username: uname,
		Email:    email,
		Password: "v3ryS3cretPwd!",
		Roles:    roles,
	})
	require.NoError(t, err)
	return usr
}

func TestCreate(t *testing.T) {
	svc := newTestService(t)
	usr := createUser(t, svc, "awareness_lead", "lead@corp.test", user.RoleAdmin)

	assert.NotEmpty(t, usr.ID)
	assert.True(t, usr.IsActive)
	assert.True(t, usr.IsAdmin())
	assert.NoError(t, usr.CheckPassword("v3ryS3cretPwd!"))
	assert.Error(t, usr.CheckPassword("wrong"))
}

func TestCheckUniqueness(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	usr := createUser(t, svc, "awareness_lead", "lead@corp.test")

	assert.Error(t, svc.CheckUniqueness(ctx, "awareness_lead", "other@corp.test"))
	assert.Error(t, svc.CheckUniqueness(ctx, "other", "lead@corp.test"))
	assert.NoError(t, svc.CheckUniqueness(ctx, "other", "other@corp.test"))

	// the user themselves can keep their username on update
	assert.NoError(t, svc.CheckUniqueness(ctx, "awareness_lead", "lead@corp.test", usr))
}

func TestGetByUsernameOrEmail(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	usr := createUser(t, svc, "awareness_lead", "lead@corp.test")

	got, err := svc.GetByUsernameOrEmail(ctx, "awareness_lead")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	got, err = svc.GetByUsernameOrEmail(ctx, "Lead@Corp.Test")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	_, err = svc.GetByUsernameOrEmail(ctx, "nobody")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestConfirmPasswordReset(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	usr := createUser(t, svc, "awareness_lead", "lead@corp.test")

	token, err := user.MakeToken(usr)
	require.NoError(t, err)

	updated, err := svc.ConfirmPasswordReset(ctx, user.ResetUserPassword{
		UID:             user.EncodeUID(usr),
		Token:           token,
		Password:        "an0therS3cret!",
		PasswordConfirm: "an0therS3cret!",
	})
	require.NoError(t, err)
	assert.NoError(t, updated.CheckPassword("an0therS3cret!"))

	// the token is single-use: the password change invalidates it
	_, err = svc.ConfirmPasswordReset(ctx, user.ResetUserPassword{
		UID:             user.EncodeUID(usr),
		Token:           token,
		Password:        "y3tAn0ther!",
		PasswordConfirm: "y3tAn0ther!",
	})
	assert.Error(t, err)
}

func TestRequestPasswordReset_unknownEmail(t *testing.T) {
	svc := newTestService(t)

	// unknown emails are not surfaced, to avoid account enumeration
	assert.NoError(t, svc.RequestPasswordReset(context.Background(), "ghost@corp.test"))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	usr := createUser(t, svc, "awareness_lead", "lead@corp.test")

	require.NoError(t, svc.Delete(ctx, usr.ID))
	_, err := svc.GetByID(ctx, usr.ID)
	assert.ErrorIs(t, err, user.ErrNotFound)
}

package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/Reema362/avocop/core"
	"github.com/Reema362/avocop/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: []string{uname, email}})
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			return err
		}
		usr = user.User{
			Name:     uname,
			Username: uname,
			Email:    email,
		}
	}
	if isAdmin {
		usr.Roles = user.AllRoles
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	active := true
	if usr.ID == "" {
		usr.IsActive = true
		_, err = cli.usrRepo.CreateUser(ctx, usr)
		return err
	}
	_, err = cli.usrRepo.UpdateUser(ctx, usr, &active)
	return err
}

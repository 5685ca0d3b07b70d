package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/shiksha/lms/core"
	"github.com/shiksha/lms/core/user"
)

// addUser creates a user.User; admins get every role.
func (cli *commandLine) addUser(name, uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()

	nu := user.NewUser{
		Name:            core.CleanString(name),
		Username:        core.CleanString(uname, true /* lower */),
		Email:           core.CleanString(email, true /* lower */),
		Password:        pwd,
		PasswordConfirm: pwd,
		Roles:           []string{user.RoleStudent},
	}
	if isAdmin {
		nu.Roles = user.AllRoles
	}
	if err := nu.Validate(cli.usrSvc); err != nil {
		return err
	}

	if _, err := cli.usrSvc.Create(ctx, nu); err != nil {
		return errors.Wrap(err, "creating user")
	}
	return nil
}

package main

import (
	"github.com/trezcool/goose"

	appfs "github.com/Reema362/avocop/fs"
)

var gooseRunFunc = goose.RunFS // mockable

func (cli *commandLine) migrate(args []string) error {
	command := "up"
	arguments := make([]string, 0)
	if len(args) > 0 {
		command = args[0]
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(command, cli.db.DB, appfs.FS, "migrations", arguments...)
}

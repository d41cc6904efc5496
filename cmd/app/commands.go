package main

import (
	"github.com/urfave/cli/v3"
)

func getCommands(version string) []*cli.Command {
	cmds := []*cli.Command{}
	cmds = append(cmds, getSystemCommands(version)...)
	cmds = append(cmds, getRegistryCommands()...)
	cmds = append(cmds, getKeyCommands()...)
	return cmds
}

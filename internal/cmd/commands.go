package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/siteaudit/internal/cmd/base"
	"github.com/hashicorp-forge/siteaudit/internal/cmd/commands/appenddoc"
	"github.com/hashicorp-forge/siteaudit/internal/cmd/commands/audit"
	"github.com/hashicorp-forge/siteaudit/internal/cmd/commands/auth"
	"github.com/hashicorp-forge/siteaudit/internal/cmd/commands/render"
	"github.com/hashicorp-forge/siteaudit/internal/cmd/commands/version"
)

// Commands is the mapping of all available siteaudit commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	Commands = map[string]cli.CommandFactory{
		"audit": func() (cli.Command, error) {
			return &audit.Command{
				Command: base.NewCommand(log, ui, "audit"),
			}, nil
		},
		"append": func() (cli.Command, error) {
			return &appenddoc.Command{
				Command: base.NewCommand(log, ui, "append"),
			}, nil
		},
		"auth": func() (cli.Command, error) {
			return &auth.Command{
				Command: base.NewCommand(log, ui, "auth"),
			}, nil
		},
		"render": func() (cli.Command, error) {
			return &render.Command{
				Command: base.NewCommand(log, ui, "render"),
			}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{
				Command: base.NewCommand(log, ui, "version"),
			}, nil
		},
	}
}

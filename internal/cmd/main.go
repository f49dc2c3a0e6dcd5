package cmd

import (
	"bufio"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/siteaudit/internal/version"
)

// Main runs the CLI with the given arguments and returns the exit code.
func Main(args []string) int {
	cliName := "siteaudit"
	if len(args) > 0 {
		args = args[1:]
	}

	log := hclog.New(&hclog.LoggerOptions{
		Name:   cliName,
		Level:  hclog.Info,
		Output: os.Stderr,
	})

	if len(args) == 1 &&
		(args[0] == "-version" ||
			args[0] == "-v") {
		args = []string{"version"}
	}

	ui := &cli.BasicUi{
		Reader:      bufio.NewReader(os.Stdin),
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	initCommands(log, ui)

	c := &cli.CLI{
		Name:     cliName,
		Args:     args,
		Version:  version.String(),
		Commands: Commands,
		HelpFunc: cli.BasicHelpFunc(cliName),
	}

	exitCode, err := c.Run()
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	return exitCode
}

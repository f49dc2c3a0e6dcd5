package version

import (
	"github.com/hashicorp-forge/siteaudit/internal/cmd/base"
	"github.com/hashicorp-forge/siteaudit/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version of siteaudit"
}

func (c *Command) Help() string {
	return `Usage: siteaudit version

  Print the version of siteaudit.`
}

func (c *Command) Run(args []string) int {
	c.UI.Output("siteaudit " + version.String())
	return 0
}

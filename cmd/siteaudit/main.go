package main

import (
	"os"

	"github.com/hashicorp-forge/siteaudit/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}

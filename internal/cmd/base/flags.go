package base

import (
	"bytes"
	"flag"
	"fmt"
	"strings"
)

// FlagSet is a flag.FlagSet that renders its own help text.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet wraps f. Flag output is discarded so parse errors are only
// reported once, by the command.
func NewFlagSet(f *flag.FlagSet) *FlagSet {
	f.SetOutput(&bytes.Buffer{})
	return &FlagSet{FlagSet: f}
}

// Help returns the options section of a command's help text.
func (f *FlagSet) Help() string {
	var b strings.Builder
	b.WriteString("\n\nOptions:\n")
	f.VisitAll(func(fl *flag.Flag) {
		name, usage := flag.UnquoteUsage(fl)
		if name != "" {
			fmt.Fprintf(&b, "\n  -%s=<%s>\n", fl.Name, name)
		} else {
			fmt.Fprintf(&b, "\n  -%s\n", fl.Name)
		}
		if fl.DefValue != "" && fl.DefValue != "false" {
			usage += fmt.Sprintf(" (default: %s)", fl.DefValue)
		}
		fmt.Fprintf(&b, "    %s\n", usage)
	})
	return strings.TrimRight(b.String(), "\n")
}

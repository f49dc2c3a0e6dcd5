package render

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/siteaudit/internal/cmd/base"
	"github.com/hashicorp-forge/siteaudit/pkg/markdown"
)

type Command struct {
	*base.Command

	// Fs and Stdin default to the OS filesystem and standard input.
	Fs    afero.Fs
	Stdin io.Reader

	flagStyle  string
	flagWidth  int
	flagBlocks bool
	flagPlain  bool
}

func (c *Command) Synopsis() string {
	return "Preview a Markdown report in the terminal"
}

func (c *Command) Help() string {
	return `Usage: siteaudit render [options] <file.md|->

  Render a saved report in the terminal. With -blocks, print the blocks and
  styled ranges a Google Doc export would use instead. With -plain, print
  the plain text an append would insert.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("render", flag.ContinueOnError))

	f.StringVar(
		&c.flagStyle, "style", "auto",
		"Terminal style: auto, dark, light or notty",
	)
	f.IntVar(
		&c.flagWidth, "width", 100,
		"Word wrap width. 0 disables wrapping",
	)
	f.BoolVar(
		&c.flagBlocks, "blocks", false,
		"Print the parsed blocks and styled ranges",
	)
	f.BoolVar(
		&c.flagPlain, "plain", false,
		"Print the plain text used when appending to a document",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		c.UI.Error("expected one Markdown file, or - for standard input")
		return 1
	}

	md, err := c.read(f.Arg(0))
	if err != nil {
		c.UI.Error(fmt.Sprintf("error reading Markdown: %v", err))
		return 1
	}

	switch {
	case c.flagBlocks:
		c.UI.Output(Describe(md))
	case c.flagPlain:
		c.UI.Output(markdown.PlainText(md))
	default:
		out, err := c.renderTerminal(md)
		if err != nil {
			c.UI.Error(fmt.Sprintf("error rendering Markdown: %v", err))
			return 1
		}
		c.UI.Output(out)
	}
	return 0
}

func (c *Command) read(path string) (string, error) {
	if path == "-" {
		in := c.Stdin
		if in == nil {
			in = os.Stdin
		}
		b, err := io.ReadAll(in)
		return string(b), err
	}

	fs := c.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	b, err := afero.ReadFile(fs, path)
	return string(b), err
}

func (c *Command) renderTerminal(md string) (string, error) {
	var opts []glamour.TermRendererOption
	if c.flagStyle == "" || c.flagStyle == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(c.flagStyle))
	}
	if c.flagWidth > 0 {
		opts = append(opts, glamour.WithWordWrap(c.flagWidth))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

// Describe lists the blocks of md and the styled ranges built from them.
func Describe(md string) string {
	blocks := markdown.Parse(md)
	doc := markdown.Build(blocks)

	var b strings.Builder
	fmt.Fprintf(&b, "Blocks (%d):\n", len(blocks))
	for i, bl := range blocks {
		fmt.Fprintf(&b, "  %3d  %-10s  %q\n", i, bl.Kind, bl.Text)
	}

	fmt.Fprintf(&b, "\nText: %d indexes, ends at %d\n", markdown.TextLen(doc.FullText), doc.EndIndex())

	fmt.Fprintf(&b, "\nBold ranges (%d):\n", len(doc.BoldRanges))
	for _, r := range doc.BoldRanges {
		fmt.Fprintf(&b, "  [%d, %d)  %q\n", r.Start, r.End, doc.Slice(r))
	}
	fmt.Fprintf(&b, "\nBullet ranges (%d):\n", len(doc.BulletRanges))
	for _, r := range doc.BulletRanges {
		fmt.Fprintf(&b, "  [%d, %d)  %q\n", r.Start, r.End, doc.Slice(r))
	}
	return strings.TrimRight(b.String(), "\n")
}

package base

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagSet_Help(t *testing.T) {
	var (
		url     string
		verbose bool
		num     int
	)
	f := NewFlagSet(flag.NewFlagSet("test", flag.ContinueOnError))
	f.StringVar(&url, "url", "", "[SCHEDULED_AUDIT_URL] `URL` to audit")
	f.BoolVar(&verbose, "verbose", false, "Print more")
	f.IntVar(&num, "num", 10, "Number of results")

	help := f.Help()
	assert.Contains(t, help, "Options:")
	assert.Contains(t, help, "  -url=<URL>\n    [SCHEDULED_AUDIT_URL] URL to audit")
	assert.Contains(t, help, "  -verbose\n    Print more")
	assert.Contains(t, help, "  -num=<int>\n    Number of results (default: 10)")
}

func TestFlagSet_ParseErrorIsQuiet(t *testing.T) {
	f := NewFlagSet(flag.NewFlagSet("test", flag.ContinueOnError))
	err := f.Parse([]string{"-nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flag provided but not defined")
}

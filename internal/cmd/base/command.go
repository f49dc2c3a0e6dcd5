package base

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Command is embedded by every siteaudit command.
type Command struct {
	Log hclog.Logger
	UI  cli.Ui
}

// NewCommand returns a Command with a logger named after the command.
func NewCommand(log hclog.Logger, ui cli.Ui, name string) *Command {
	return &Command{
		Log: log.Named(name),
		UI:  ui,
	}
}

// SignalContext returns a context cancelled on interrupt or SIGTERM.
func (c *Command) SignalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			c.Log.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

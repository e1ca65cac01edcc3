package serviceutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext returns a context that will live until Ctrl+C is pressed.
// A second Ctrl+C falls through to the default handler and kills the process.
func SignalContext(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigs:
			slog.Warn("interrupted, stopping the run")
			signal.Stop(sigs)
			cancel()
		case <-ctx.Done():
			signal.Stop(sigs)
		}
	}()

	return ctx
}

// exit is swapped out in tests.
var exit = osExit

var osExit = os.Exit

// Fatal shows err to the operator and exits with status 1.
func Fatal(out io.Writer, err error) {
	slog.Debug("fatal error", "err", err)
	fmt.Fprintf(out, "Error: %s\n", err)
	exit(1)
}

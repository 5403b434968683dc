package utils

import (
	"context"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

var onlyOneSignalHandler = make(chan struct{})

// ShutdownSignals are the signals which cancel the context returned by SetupSignalHandler
var ShutdownSignals = []os.Signal{unix.SIGINT, unix.SIGTERM}

// SetupSignalHandler registers for SIGTERM and SIGINT. A context is returned
// which is canceled on one of these signals. If a second signal is caught, the program
// is terminated with exit code 1. It may only be called once.
func SetupSignalHandler() context.Context {
	close(onlyOneSignalHandler) // panics when called twice

	c := make(chan os.Signal, 2)
	signal.Notify(c, ShutdownSignals...)
	return SignalContext(c, func() { os.Exit(1) })
}

// SignalContext returns a context which is canceled on the first signal received from c.
// onSecond is called when a second signal is received.
func SignalContext(c <-chan os.Signal, onSecond func()) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-c
		cancel()
		<-c
		onSecond() // second signal
	}()

	return ctx
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	ROOT_CTX_TEARDOWN_TIMEOUT        = 2 * time.Second
	MAX_UNGRACEFUL_TEARDOWN_DURATION = 100 * time.Millisecond
)

// CancelOnSigintSigterm creates a goroutine that catches SIGINT and SIGTERM signals. On reception of a signal
// the goroutine calls $cancel. If $done is still not closed after $teardownTimeout, os.Exit(128+signal) is called.
func CancelOnSigintSigterm(cancel context.CancelFunc, done <-chan struct{}, teardownTimeout time.Duration) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM /*All listed signals should be in the switch statement further below.*/)

	go func() {
		defer signal.Stop(ch)

		select {
		case <-done:
			return
		case sig := <-ch:
			var s int
			switch sig {
			case syscall.SIGINT:
				s = int(syscall.SIGINT)
			case syscall.SIGTERM:
				s = int(syscall.SIGTERM)
			}

			cancel()

			select {
			case <-done:
			case <-time.After(teardownTimeout + MAX_UNGRACEFUL_TEARDOWN_DURATION):
				os.Exit(128 + s) //https://tldp.org/LDP/abs/html/exitcodes.html
			}
		}
	}()
}

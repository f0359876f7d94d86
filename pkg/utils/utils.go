// Copyright (c) 2025 A Bit of Help, Inc.

// Package utils provides utility functions for the application
package utils

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// DefaultShutdownTimeout bounds how long a canceled run may take to wind down
// before the process is forced to exit
const DefaultShutdownTimeout = 10 * time.Second

// ExitFunc is a function that exits the program with a given status code
type ExitFunc func(int)

// SetupGracefulShutdown configures signal handling for graceful shutdown
// It returns a function that should be deferred to clean up signal handling
func SetupGracefulShutdown(ctx context.Context, cancel context.CancelFunc, logger *zap.Logger) func() {
	return SetupGracefulShutdownWithExit(ctx, cancel, logger, os.Exit, DefaultShutdownTimeout)
}

// SetupGracefulShutdownWithExit is SetupGracefulShutdown with an injectable
// exit function and shutdown timeout. The first SIGINT or SIGTERM cancels the
// run; a second signal, or a run that outlives timeout, calls exit(1).
func SetupGracefulShutdownWithExit(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *zap.Logger,
	exit ExitFunc,
	timeout time.Duration,
) func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Create a channel to signal when the goroutine should exit
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		defer logger.Debug("Signal handling goroutine exited")

		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		var deadline <-chan time.Time
		ctxDone := ctx.Done()
		signaled := false

		for {
			select {
			case sig := <-sigChan:
				if signaled {
					// Second signal received, force immediate exit
					logger.Warn("Received second signal, forcing immediate shutdown",
						zap.String("signal", sig.String()))
					exit(1)
					return
				}

				// First signal, try graceful shutdown
				logger.Info("Received signal, initiating graceful shutdown",
					zap.String("signal", sig.String()))
				signaled = true

				timer = time.NewTimer(timeout)
				deadline = timer.C

				// Trigger graceful shutdown
				cancel()
			case <-deadline:
				logger.Warn("Graceful shutdown timed out, forcing exit",
					zap.Duration("timeout", timeout))
				exit(1)
				return
			case <-ctxDone:
				if !signaled {
					// Context was canceled elsewhere
					return
				}
				// Our own cancel, keep watching for a second signal or the deadline
				ctxDone = nil
			case <-done:
				// Signal to exit
				return
			}
		}
	}()

	// Return a cleanup function
	return func() {
		// Signal the goroutine to exit and wait for it
		close(done)
		<-finished

		// Stop signal notifications
		signal.Stop(sigChan)

		logger.Debug("Signal handling cleaned up")
	}
}

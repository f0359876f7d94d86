// Copyright (c) 2025 A Bit of Help, Inc.

// Package dataprocessor runs processing steps with context awareness.
//
// It is used by the pipeline stages to call into the codec: a panic inside the
// step becomes an error, and a canceled or expired context ends the wait.
package dataprocessor

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"sync"
	"time"

	customErrors "github.com/abitofhelp/zfpfixture/pkg/errors"
)

// ProcessWithContext executes a processing function with context awareness
func ProcessWithContext[In, Out any](ctx context.Context, processFunc func(In) (Out, error), data In) (Out, error) {
	var zero Out

	// Check if context is already canceled
	if err := ctx.Err(); err != nil {
		return zero, contextError("operation", err)
	}

	done := make(chan struct{})
	var result Out
	var processErr error

	// Use a WaitGroup to ensure the goroutine completes even if context is canceled
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				processErr = fmt.Errorf("%w in data processing: %v\nstack: %s", customErrors.ErrPanic, r, stack)
			}
		}()

		result, processErr = processFunc(data)
	}()

	select {
	case <-done:
		if processErr != nil {
			return zero, processErr
		}
		return result, nil
	case <-ctx.Done():
		waitDone := make(chan struct{})
		go func() {
			wg.Wait()
			close(waitDone)
		}()

		// Wait with a timeout to prevent indefinite blocking
		select {
		case <-waitDone:
		case <-time.After(5 * time.Second):
			// We can't use the logger here as it might not be available
			fmt.Fprintf(os.Stderr, "Warning: Timed out waiting for processing goroutine to complete\n")
		}

		return zero, contextError("operation while processing data", ctx.Err())
	}
}

func contextError(what string, err error) error {
	switch err {
	case context.Canceled:
		return fmt.Errorf("%s canceled: %w", what, err)
	case context.DeadlineExceeded:
		return fmt.Errorf("%s timed out: %w", what, err)
	default:
		return fmt.Errorf("context error: %w", err)
	}
}

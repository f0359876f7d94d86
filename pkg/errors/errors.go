// Copyright (c) 2025 A Bit of Help, Inc.

// Package errors provides custom error types and error handling utilities for the application.
package errors

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// Standard errors that can be used for comparison with errors.Is
var (
	// ErrUsage indicates the command line could not be understood
	ErrUsage = errors.New("invalid usage")

	// ErrFilenameFormat indicates a volume filename does not follow the naming scheme
	ErrFilenameFormat = errors.New("unrecognized raw volume naming scheme")

	// ErrUnsupportedVoxelType indicates the voxel type token is not known
	ErrUnsupportedVoxelType = errors.New("unsupported voxel type")

	// ErrUnsupportedRate indicates the codec settled on a non-integer rate
	ErrUnsupportedRate = errors.New("non-integer compression rate")

	// ErrIOFailure indicates an I/O operation failed
	ErrIOFailure = errors.New("I/O operation failed")

	// ErrTimeout indicates an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates an operation was canceled
	ErrCanceled = errors.New("operation canceled")

	// ErrPanic indicates a panic occurred
	ErrPanic = errors.New("panic occurred")
)

// FixtureError represents an error that occurred while generating a fixture
type FixtureError struct {
	// Err is the underlying error
	Err error

	// Stage is the stage where the error occurred
	Stage string

	// Operation is the operation being performed
	Operation string

	// Time is when the error occurred
	Time time.Time

	// DataSize is the size of the data being processed
	DataSize int

	// FilePath is the path of the file being processed
	FilePath string
}

// Error implements the error interface
func (e *FixtureError) Error() string {
	return fmt.Sprintf("[%s] %s (stage=%s, size=%d, file=%s): %v",
		e.Time.Format(time.RFC3339),
		e.Operation,
		e.Stage,
		e.DataSize,
		e.FilePath,
		e.Err)
}

// Unwrap returns the underlying error
func (e *FixtureError) Unwrap() error {
	return e.Err
}

// NewFixtureError creates a new FixtureError
func NewFixtureError(err error, stage string, operation string, dataSize int, filePath string) *FixtureError {
	return &FixtureError{
		Err:       err,
		Stage:     stage,
		Operation: operation,
		Time:      time.Now(),
		DataSize:  dataSize,
		FilePath:  filePath,
	}
}

// WrapIOError marks err as an I/O failure and attaches the stage context
func WrapIOError(err error, stage, operation string, dataSize int, filePath string) *FixtureError {
	return NewFixtureError(fmt.Errorf("%w: %w", ErrIOFailure, err), stage, operation, dataSize, filePath)
}

// IsUsageError checks if the error is a command line usage error
func IsUsageError(err error) bool {
	return errors.Is(err, ErrUsage)
}

// IsFilenameFormatError checks if the error is a volume naming error
func IsFilenameFormatError(err error) bool {
	return errors.Is(err, ErrFilenameFormat)
}

// IsUnsupportedVoxelTypeError checks if the error is an unknown voxel type
func IsUnsupportedVoxelTypeError(err error) bool {
	return errors.Is(err, ErrUnsupportedVoxelType)
}

// IsUnsupportedRateError checks if the error is a non-integer achieved rate
func IsUnsupportedRateError(err error) bool {
	return errors.Is(err, ErrUnsupportedRate)
}

// IsIOError checks if the error is an I/O error
func IsIOError(err error) bool {
	var pathErr *os.PathError
	return errors.Is(err, ErrIOFailure) || errors.As(err, &pathErr)
}

// IsTimeoutError checks if the error is a timeout error
func IsTimeoutError(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// IsCancellationError checks if the error is a cancellation error
func IsCancellationError(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}

// Copyright (c) 2025 A Bit of Help, Inc.

package dataprocessor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	customErrors "github.com/abitofhelp/zfpfixture/pkg/errors"
)

func TestProcessWithContext_Success(t *testing.T) {
	ctx := context.Background()

	// Widen bytes to floats, the shape of work the pipeline hands over
	processFunc := func(data []byte) ([]float32, error) {
		result := make([]float32, len(data))
		for i, b := range data {
			result[i] = float32(b) * 2
		}
		return result, nil
	}

	data := []byte{1, 2, 3, 4, 5}
	expected := []float32{2, 4, 6, 8, 10}

	result, err := ProcessWithContext(ctx, processFunc, data)
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if len(result) != len(expected) {
		t.Fatalf("Expected result length %d, got %d", len(expected), len(result))
	}
	for i := range expected {
		if result[i] != expected[i] {
			t.Errorf("Expected result[%d] = %v, got %v", i, expected[i], result[i])
		}
	}
}

func TestProcessWithContext_ProcessFuncError(t *testing.T) {
	ctx := context.Background()

	expectedErr := errors.New("process error")
	processFunc := func(data []byte) ([]byte, error) {
		return []byte("partial"), expectedErr
	}

	result, err := ProcessWithContext(ctx, processFunc, []byte{1, 2, 3})
	if !errors.Is(err, expectedErr) {
		t.Errorf("Expected error %v, got %v", expectedErr, err)
	}
	if result != nil {
		t.Errorf("Expected nil result on error, got %v", result)
	}
}

func TestProcessWithContext_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	processFunc := func(data int) (int, error) {
		called = true
		return data, nil
	}

	_, err := ProcessWithContext(ctx, processFunc, 1)
	if !customErrors.IsCancellationError(err) {
		t.Errorf("Expected cancellation error, got %v", err)
	}
	if called {
		t.Error("Process function should not run with a canceled context")
	}
}

func TestProcessWithContext_Timeout(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	processFunc := func(data int) (int, error) {
		time.Sleep(200 * time.Millisecond)
		return data, nil
	}

	_, err := ProcessWithContext(ctx, processFunc, 1)
	if !customErrors.IsTimeoutError(err) {
		t.Errorf("Expected timeout error, got %v", err)
	}
}

func TestProcessWithContext_PanicRecovery(t *testing.T) {
	ctx := context.Background()

	panicFunc := func([]float32) ([]byte, error) {
		panic("test panic")
	}

	result, err := ProcessWithContext(ctx, panicFunc, []float32{1})
	if err == nil {
		t.Fatal("Expected an error from panic, got nil")
	}
	if !errors.Is(err, customErrors.ErrPanic) {
		t.Errorf("Expected ErrPanic, got %v", err)
	}
	if !strings.Contains(err.Error(), "test panic") {
		t.Errorf("Expected error to mention the panic value, got %v", err)
	}
	if result != nil {
		t.Errorf("Expected nil result, got %v", result)
	}
}

package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithBackoff_Success(t *testing.T) {
	attempts := 0
	operation := func() error {
		attempts++
		return nil
	}

	err := WithBackoff(context.Background(), operation, 3, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts, "should succeed on first try")
}

func TestWithBackoff_EventualSuccess(t *testing.T) {
	attempts := 0
	operation := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	err := WithBackoff(context.Background(), operation, 5, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts, "should succeed on third attempt")
}

func TestWithBackoff_AllAttemptsFail(t *testing.T) {
	attempts := 0
	expectedErr := errors.New("persistent error")
	operation := func() error {
		attempts++
		return expectedErr
	}

	err := WithBackoff(context.Background(), operation, 3, time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, expectedErr, err, "should return the original error")
	assert.Equal(t, 3, attempts, "should attempt exactly maxAttempts times")
}

func TestWithBackoff_Permanent(t *testing.T) {
	attempts := 0
	cause := errors.New("bad input")
	operation := func() error {
		attempts++
		return Permanent(fmt.Errorf("validate: %w", cause))
	}

	err := WithBackoff(context.Background(), operation, 5, time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "validate: bad input", err.Error())
	assert.Equal(t, 1, attempts, "permanent errors are not retried")

	assert.NoError(t, Permanent(nil))
}

func TestWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	operation := func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	}

	err := WithBackoff(ctx, operation, 10, 10*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled, "should return context.Canceled")
	assert.LessOrEqual(t, attempts, 2, "should stop when context is canceled")
}

func TestWithBackoff_ExponentialBackoff(t *testing.T) {
	attempts := 0
	var delays []time.Duration
	lastTime := time.Now()

	operation := func() error {
		attempts++
		if attempts > 1 {
			delays = append(delays, time.Since(lastTime))
		}
		lastTime = time.Now()
		if attempts < 4 {
			return errors.New("error")
		}
		return nil
	}

	err := WithBackoff(context.Background(), operation, 5, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 4, attempts)

	require.Len(t, delays, 3, "should have 3 delays")
	assert.Greater(t, delays[1], delays[0], "second delay should be greater than first")
	assert.Greater(t, delays[2], delays[1], "third delay should be greater than second")
}

func TestWithBackoff_InvalidMaxAttempts(t *testing.T) {
	for _, n := range []int{0, -1} {
		attempts := 0
		err := WithBackoff(context.Background(), func() error {
			attempts++
			return nil
		}, n, time.Millisecond)
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
		assert.Equal(t, 0, attempts, "should not attempt with maxAttempts=%d", n)
	}
}

func TestPolicy_Once(t *testing.T) {
	attempts := 0
	err := Once.Do(context.Background(), func() error {
		attempts++
		return errors.New("fail")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

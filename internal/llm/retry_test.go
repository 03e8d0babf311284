package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponentialBackoff(t *testing.T) {
	assert.Equal(t, 2*time.Second, ExponentialBackoff(0))
	assert.Equal(t, 3*time.Second, ExponentialBackoff(1))
	assert.Equal(t, 5*time.Second, ExponentialBackoff(2))
	assert.Equal(t, 9*time.Second, ExponentialBackoff(3))
}

func TestDefaultRetryPolicyClampsAttemptBudget(t *testing.T) {
	assert.Equal(t, 1, DefaultRetryPolicy(0).MaxAttempts)
	assert.Equal(t, 1, DefaultRetryPolicy(-3).MaxAttempts)
	assert.Equal(t, 4, DefaultRetryPolicy(4).MaxAttempts)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))

	assert.True(t, IsRetryable(&ErrRateLimit{RetryAfter: time.Second}))
	assert.True(t, IsRetryable(&ErrProviderUnavailable{Err: errors.New("503")}))
	assert.True(t, IsRetryable(&ErrEmptyResponse{Provider: "gemini"}))
	assert.True(t, IsRetryable(errors.New("connection reset")))

	assert.False(t, IsRetryable(&ErrAuth{Err: errors.New("401")}))
	assert.False(t, IsRetryable(&ErrBadRequest{Err: errors.New("bad attachment")}))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(context.DeadlineExceeded))

	// Classification must survive wrapping.
	wrapped := &ErrAuth{Err: errors.New("expired key")}
	assert.False(t, IsRetryable(errors.Join(errors.New("call failed"), wrapped)))
}

func TestSleepContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := SleepContext(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockProviderFIFO(t *testing.T) {
	m := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"first": true}`)},
		MockResponse{Err: &ErrRateLimit{RetryAfter: time.Second}},
	)
	m.AddResponse(MockResponse{Content: json.RawMessage(`{"third": true}`)})

	resp, err := m.Generate(context.Background(), Request{Prompt: "one"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"first": true}`, string(resp.Content))

	_, err = m.Generate(context.Background(), Request{Prompt: "two"})
	var rateLimited *ErrRateLimit
	assert.True(t, errors.As(err, &rateLimited))

	resp, err = m.Generate(context.Background(), Request{Prompt: "three"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"third": true}`, string(resp.Content))

	// The queue is drained; further calls fail as unavailable but are
	// still recorded.
	_, err = m.Generate(context.Background(), Request{Prompt: "four"})
	var unavailable *ErrProviderUnavailable
	assert.True(t, errors.As(err, &unavailable))

	require.Equal(t, 4, m.CallCount())
	assert.Equal(t, "one", m.Calls[0].Prompt)
	assert.Equal(t, "four", m.Calls[3].Prompt)
}

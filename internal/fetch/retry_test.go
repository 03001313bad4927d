package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alescoulie/sitegen/internal/config"
)

func retryingClient(maxRetries int) *Client {
	return NewClient(config.ContentConfig{
		Repository:        "https://example.org/content.git",
		MaxRetries:        maxRetries,
		RetryBackoff:      config.RetryBackoffFixed,
		RetryInitialDelay: time.Millisecond,
		RetryMaxDelay:     2 * time.Millisecond,
	}, "")
}

func TestWithRetryRecoversFromTransientFailure(t *testing.T) {
	client := retryingClient(2)

	calls := 0
	dir, changed, err := client.withRetry(context.Background(), "pull", func() (string, bool, error) {
		calls++
		if calls == 1 {
			return "", false, &net.DNSError{Err: "timeout", IsTimeout: true}
		}
		return "checkout", true, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "checkout", dir)
	assert.True(t, changed)
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	client := retryingClient(3)

	calls := 0
	_, _, err := client.withRetry(context.Background(), "clone", func() (string, bool, error) {
		calls++
		return "", false, fmt.Errorf("clone: %w", transport.ErrAuthenticationRequired)
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, transport.ErrAuthenticationRequired)
	assert.Equal(t, 1, calls, "permanent errors must not be retried")
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	client := retryingClient(2)

	calls := 0
	transient := &net.DNSError{Err: "timeout", IsTimeout: true}
	_, _, err := client.withRetry(context.Background(), "pull", func() (string, bool, error) {
		calls++
		return "", false, transient
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls, "2 retries means 3 attempts")
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.ErrorIs(t, err, transient)
}

func TestWithRetryDisabledRunsOnce(t *testing.T) {
	client := NewClient(config.ContentConfig{Repository: "https://example.org/content.git"}, "")

	calls := 0
	_, _, err := client.withRetry(context.Background(), "pull", func() (string, bool, error) {
		calls++
		return "", false, errors.New("boom")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryHonorsCancellation(t *testing.T) {
	client := retryingClient(2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, _, err := client.withRetry(ctx, "pull", func() (string, bool, error) {
		calls++
		return "", false, &net.DNSError{Err: "timeout", IsTimeout: true}
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "cancellation must stop the retry loop before the next attempt")
}

func TestIsPermanentSyncError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		permanent bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, true},
		{"auth required", fmt.Errorf("wrapped: %w", transport.ErrAuthenticationRequired), true},
		{"authorization failed", transport.ErrAuthorizationFailed, true},
		{"repo not found", transport.ErrRepositoryNotFound, true},
		{"branch missing", plumbing.ErrReferenceNotFound, true},
		{"network timeout", &net.DNSError{Err: "timeout", IsTimeout: true}, false},
		{"network hard failure", &net.DNSError{Err: "no such host", IsNotFound: true}, true},
		{"unsupported protocol", errors.New(`unsupported protocol scheme "ftp"`), true},
		{"generic failure", errors.New("remote hung up unexpectedly"), false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.permanent, isPermanentSyncError(c.err))
		})
	}
}

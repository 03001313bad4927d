package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/alescoulie/sitegen/internal/logfields"
	"github.com/alescoulie/sitegen/internal/retry"
)

// withRetry reruns a sync operation on transient failure, backing off per the
// configured policy. Permanent failures (bad credentials, missing repository,
// cancellation) return immediately.
func (c *Client) withRetry(ctx context.Context, op string, fn func() (string, bool, error)) (string, bool, error) {
	pol := retry.FromContent(c.cfg)
	if pol.MaxRetries <= 0 {
		return fn()
	}

	var lastErr error
	for attempt := 0; attempt <= pol.MaxRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("Retrying content sync",
				slog.String("operation", op),
				slog.Int("attempt", attempt),
				logfields.Error(lastErr))
			select {
			case <-ctx.Done():
				return "", false, ctx.Err()
			case <-time.After(pol.Delay(attempt)):
			}
		}

		dir, changed, err := fn()
		if err == nil {
			return dir, changed, nil
		}
		lastErr = err
		if isPermanentSyncError(err) {
			return "", false, err
		}
	}
	return "", false, fmt.Errorf("content sync %s failed after %d attempts: %w", op, pol.MaxRetries+1, lastErr)
}

// isPermanentSyncError reports whether retrying cannot help: authentication
// and authorization failures, unknown repositories or references, and
// non-timeout network errors. Everything else is treated as transient.
func isPermanentSyncError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		errors.Is(err, transport.ErrInvalidAuthMethod),
		errors.Is(err, transport.ErrRepositoryNotFound),
		errors.Is(err, plumbing.ErrReferenceNotFound):
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return !nerr.Timeout()
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unsupported protocol") || strings.Contains(msg, "permission denied")
}

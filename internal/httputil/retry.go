// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers for commands that fetch
// source material.
package httputil

import (
	"context"
	"io"
	"net/http"
	"time"
)

// RetryBaseDelay is the base duration for exponential backoff on
// retryable responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const defaultMaxRetries = 4

// retryable reports whether a response status warrants another
// attempt: rate limiting or a transient server error.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests ||
		status == http.StatusBadGateway ||
		status == http.StatusServiceUnavailable ||
		status == http.StatusGatewayTimeout
}

// DoWithRetry executes an HTTP request, retrying retryable statuses
// with exponential backoff: RetryBaseDelay doubled each attempt. When
// maxRetries is 0 the default (4) is used. The response body of a
// retried attempt is drained and closed before sleeping. A cancelled
// context during backoff returns ctx.Err(). After exhausting retries
// the last response is returned as-is so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	delay := RetryBaseDelay
	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if !retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

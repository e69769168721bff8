// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the search and fetch
// clients.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// RetryBaseDelay is the first backoff interval after a throttled response.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// MaxRetryAfter caps how long a server-supplied Retry-After is honored.
var MaxRetryAfter = 60 * time.Second

const defaultMaxRetries = 3

// Retryable reports whether a status code indicates a transient
// throttling condition worth retrying.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// DoWithRetry executes req and retries on 429 and 503 responses with
// exponential backoff starting at RetryBaseDelay. A Retry-After header
// given in seconds replaces the computed delay, capped at MaxRetryAfter.
//
// When maxRetries is 0 the default (3) is used. Throttled response bodies
// are drained and closed before sleeping. A cancelled context during a
// wait returns ctx.Err(). After the last retry the throttled response is
// returned so the caller can report its status.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if !Retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := RetryBaseDelay << attempt
		if ra := retryAfter(resp.Header.Get("Retry-After")); ra > 0 {
			backoff = ra
		}
		log.Debug().
			Str("url", req.URL.Redacted()).
			Int("status", resp.StatusCode).
			Dur("backoff", backoff).
			Int("attempt", attempt+1).
			Int("max", maxRetries).
			Msg("throttled, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	d := time.Duration(secs) * time.Second
	if d > MaxRetryAfter {
		d = MaxRetryAfter
	}
	return d
}

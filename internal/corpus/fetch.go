// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/artifact-engine/internal/httputil"
	"github.com/pdiddy/artifact-engine/pkg/types"
)

// maxFetchSize caps a fetched source document at 10 MiB.
const maxFetchSize = 10 << 20

// Fetch downloads source text from a URL, retrying rate-limited and
// transient failures. The body is returned as-is; the caller decides
// how to split and index it.
func Fetch(ctx context.Context, cfg types.HTTPConfig, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	client := &http.Client{Timeout: cfg.Timeout}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: HTTP %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", url, err)
	}
	return string(body), nil
}

// Package netx contains small HTTP helpers that do not depend on the API
// wire contract, such as fetching package bytes from a presigned URL.
package netx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// zipMagic is the leading signature of a deck package archive.
var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// DownloadFromPresignedURL fetches package bytes with a plain GET of the
// given URL (typically a short-lived presigned storage URL).
//
// Storage frontends sometimes answer a failed or expired URL with an HTML or
// JSON error page and status 200. Such bodies are rejected as errors. A body
// that is none of those but does not start with the package archive
// signature is still returned, together with a non-empty warning — the
// importer gets the final say on whether it can use the bytes.
func DownloadFromPresignedURL(ctx context.Context, client *http.Client, url string) (data []byte, warning string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("package download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", fmt.Errorf("package download failed: %s; body: %s", resp.Status, string(b))
	}

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading package body: %w", err)
	}

	if len(data) == 0 {
		return nil, "", fmt.Errorf("package download returned an empty body")
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && (trimmed[0] == '<' || trimmed[0] == '{') {
		return nil, "", fmt.Errorf("package download returned an error document instead of an archive")
	}

	if !bytes.HasPrefix(data, zipMagic) {
		warning = "package body does not start with an archive signature"
	}

	return data, warning, nil
}

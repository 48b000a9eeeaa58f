// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package availability

import (
	"context"
	"net/http"

	"github.com/pdiddy/find-my-books/internal/httputil"
	"github.com/pdiddy/find-my-books/pkg/types"
)

// Response is the part of a search response the classifier needs.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Fetcher performs one search request. It is the only network-facing piece
// of the checker; tests substitute canned responses.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Response, error)
}

// HTTPFetcher fetches search pages over HTTP with a browser-like header set.
type HTTPFetcher struct {
	Client  *http.Client
	Headers map[string]string
}

// NewHTTPFetcher builds a fetcher from cfg. Empty headers fall back to
// types.DefaultHeaders.
func NewHTTPFetcher(cfg types.HTTPConfig) *HTTPFetcher {
	headers := cfg.Headers
	if len(headers) == 0 {
		headers = types.DefaultHeaders()
	}
	return &HTTPFetcher{
		Client:  &http.Client{Timeout: cfg.Timeout},
		Headers: headers,
	}
}

// Fetch issues a single GET. A non-2xx status is returned in the Response,
// not as an error.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (Response, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, body, err := httputil.Get(ctx, client, url, f.Headers)
	if err != nil {
		if resp != nil {
			return Response{StatusCode: resp.StatusCode}, err
		}
		return Response{}, err
	}
	return Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package availability decides, for each (book, library) pair, whether the
// library's search page lists an e-book copy.
package availability

import (
	"context"
	"fmt"
	"io"

	log "github.com/cihub/seelog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/find-my-books/pkg/types"
)

// Summary holds counts from a CheckAll run.
type Summary struct {
	Books  int
	Checks int
	Found  int
	Failed int
}

// Checker runs availability checks one request at a time.
type Checker struct {
	fetcher Fetcher
	logger  log.LoggerInterface
	limiter *rate.Limiter
}

// NewChecker returns a checker using f for requests and logger for
// diagnostics. A positive cfg.RequestDelay spaces consecutive requests by
// at least that much.
func NewChecker(f Fetcher, cfg types.CheckConfig, logger log.LoggerInterface) *Checker {
	if logger == nil {
		logger = log.Disabled
	}
	c := &Checker{fetcher: f, logger: logger}
	if cfg.RequestDelay > 0 {
		c.limiter = rate.NewLimiter(rate.Every(cfg.RequestDelay), 1)
	}
	return c
}

// Check returns the search URL when book is available in lib and the empty
// string otherwise. Request failures and non-2xx responses are logged as
// warnings and count as unavailable.
func (c *Checker) Check(ctx context.Context, book types.BookEntry, lib types.LibraryDefinition) string {
	found, _ := c.check(ctx, book, lib)
	return found
}

func (c *Checker) check(ctx context.Context, book types.BookEntry, lib types.LibraryDefinition) (string, bool) {
	url := BuildURL(lib.URLTemplate, book.Title, book.Author)
	c.logger.Debugf("library: %s (%s)", lib.Name, lib.Rule)
	c.logger.Debugf("url: %s", url)

	resp, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		c.logger.Warnf("request to %s failed: %v", lib.Name, err)
		return "", false
	}
	if !resp.OK() {
		c.logger.Warnf("request to %s not successful. Response status code: %d", lib.Name, resp.StatusCode)
		return "", false
	}

	c.logger.Debugf("content size: %d bytes", len(resp.Body))
	if Classify(lib.Rule, resp.Body) {
		return url, true
	}
	return "", true
}

// CheckAll fills books[i].Results with one entry per library, iterating
// books in the outer loop and libraries in the inner loop. Progress lines go
// to w. It stops early only when ctx is done, returning ctx.Err().
func (c *Checker) CheckAll(ctx context.Context, books []types.BookEntry, libs []types.LibraryDefinition, w io.Writer) (Summary, error) {
	summary := Summary{Books: len(books)}

	for i := range books {
		fmt.Fprintf(w, "Book %d/%d: %s, %q\n", i+1, len(books), books[i].Author, books[i].Title)
		if books[i].Results == nil {
			books[i].Results = make(map[string]string, len(libs))
		}

		for _, lib := range libs {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			if c.limiter != nil {
				if err := c.limiter.Wait(ctx); err != nil {
					return summary, err
				}
			}

			found, ok := c.check(ctx, books[i], lib)
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			books[i].Results[lib.Name] = found
			summary.Checks++
			switch {
			case !ok:
				summary.Failed++
			case found != "":
				summary.Found++
				fmt.Fprintf(w, "  found: %s\n", lib.Name)
			}
		}
	}

	fmt.Fprintf(w, "\nCheck summary: %d books, %d checks, %d found, %d failed\n",
		summary.Books, summary.Checks, summary.Found, summary.Failed)
	c.logger.Flush()
	return summary, nil
}

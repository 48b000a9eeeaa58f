// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package availability

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/find-my-books/internal/logging"
	"github.com/pdiddy/find-my-books/pkg/types"
)

// --- fake fetcher ---

type fakeFetcher struct {
	// responses is keyed by URL; missing URLs get fallback.
	responses map[string]Response
	errs      map[string]error
	fallback  Response
	calls     []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (Response, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return Response{}, err
	}
	if r, ok := f.responses[url]; ok {
		return r, nil
	}
	return f.fallback, nil
}

func body(n int) []byte { return bytes.Repeat([]byte("x"), n) }

func okResponse(b []byte) Response { return Response{StatusCode: http.StatusOK, Body: b} }

// --- title normalization ---

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Dune (Book 1)", "Dune"},
		{"Dune (Dune Chronicles #1)", "Dune"},
		{"Sapiens: A Brief History of Humankind", "Sapiens"},
		{"The Martian - Classroom Edition", "The Martian"},
		{"Project Hail Mary", "Project Hail Mary"},
		{"Foundation (Foundation, #1): The Beginning", "Foundation"},
		{"Spider-Man", "Spider-Man"},
		{"  Emma  ", "Emma"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeTitle_ExcludesClauseAndSubtitle(t *testing.T) {
	titles := []string{
		"A Game of Thrones (A Song of Ice and Fire, #1)",
		"Thinking, Fast and Slow: Anniversary Edition",
		"Educated: A Memoir (Paperback)",
	}
	for _, title := range titles {
		got := NormalizeTitle(title)
		assert.NotContains(t, got, "(")
		assert.NotContains(t, got, ")")
		assert.NotContains(t, got, ":")
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name     string
		template string
		title    string
		author   string
		want     string
	}{
		{"spec example", "https://libx.example/search?t={TITLE}&a={AUTHOR}", "Dune (Book 1)", "Frank Herbert",
			"https://libx.example/search?t=Dune&a=Frank+Herbert"},
		{"subtitle", "https://l.example/?q={TITLE}", "Sapiens: A Brief History", "Yuval Noah Harari",
			"https://l.example/?q=Sapiens"},
		{"author first", "https://l.example/{AUTHOR}/{TITLE}", "War and Peace", "Leo Tolstoy",
			"https://l.example/Leo+Tolstoy/War+and+Peace"},
		{"no placeholders", "https://l.example/", "Emma", "Jane Austen", "https://l.example/"},
		{"placeholder in value not expanded", "{TITLE}|{AUTHOR}", "{AUTHOR}", "Someone",
			"{AUTHOR}|Someone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildURL(tt.template, tt.title, tt.author))
		})
	}
}

// --- classification ---

func TestClassify_SizeThresholdAbove(t *testing.T) {
	rule := types.SizeThreshold(1000, types.ThresholdAbove)
	assert.False(t, Classify(rule, body(999)))
	assert.False(t, Classify(rule, body(1000)), "equal size must be unavailable")
	assert.True(t, Classify(rule, body(1001)))
}

func TestClassify_SizeThresholdBelow(t *testing.T) {
	rule := types.SizeThreshold(1000, types.ThresholdBelow)
	assert.True(t, Classify(rule, body(999)))
	assert.False(t, Classify(rule, body(1000)), "equal size must be unavailable")
	assert.False(t, Classify(rule, body(1001)))
}

func TestClassify_DefaultDirectionIsAbove(t *testing.T) {
	rule := types.DetectionRule{Kind: types.RuleSizeThreshold, Threshold: 10}
	assert.True(t, Classify(rule, body(11)))
	assert.False(t, Classify(rule, body(10)))
}

func TestClassify_Marker(t *testing.T) {
	rule := types.MarkerRule("search-zero-results")

	assert.True(t, Classify(rule, []byte("<div class=\"results\">Dune</div>")))
	assert.False(t, Classify(rule, []byte("<div class=\"search-zero-results\"></div>")))

	// Presence wins regardless of size.
	big := append(body(1<<20), []byte("search-zero-results")...)
	assert.False(t, Classify(rule, big))
	assert.True(t, Classify(rule, nil))
}

func TestClassify_UnknownKind(t *testing.T) {
	assert.False(t, Classify(types.DetectionRule{Kind: "regex"}, body(10)))
}

// --- Check ---

var libX = types.LibraryDefinition{
	Name:        "LibX",
	URLTemplate: "https://libx.example/search?t={TITLE}&a={AUTHOR}",
	Rule:        types.SizeThreshold(500, types.ThresholdAbove),
}

func TestCheck_EndToEndExample(t *testing.T) {
	f := &fakeFetcher{fallback: okResponse(body(600))}
	c := NewChecker(f, types.CheckConfig{}, nil)

	book := types.NewBookEntry("Dune (Book 1)", "Frank Herbert")
	got := c.Check(context.Background(), book, libX)

	assert.Equal(t, "https://libx.example/search?t=Dune&a=Frank+Herbert", got)
	assert.Equal(t, []string{got}, f.calls)
}

func TestCheck_Unavailable(t *testing.T) {
	f := &fakeFetcher{fallback: okResponse(body(500))}
	c := NewChecker(f, types.CheckConfig{}, nil)

	assert.Equal(t, "", c.Check(context.Background(), types.NewBookEntry("Dune", "Frank Herbert"), libX))
}

func TestCheck_FailuresAreUnavailableAndLogged(t *testing.T) {
	tests := []struct {
		name    string
		fetcher *fakeFetcher
		wantLog string
	}{
		{"network error", &fakeFetcher{
			errs: map[string]error{"https://libx.example/search?t=Dune&a=Frank+Herbert": errors.New("connection reset")},
		}, "connection reset"},
		{"server error", &fakeFetcher{fallback: Response{StatusCode: 503, Body: body(5000)}}, "503"},
		{"not found", &fakeFetcher{fallback: Response{StatusCode: 404, Body: body(5000)}}, "404"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger, err := logging.New(&logs, false)
			require.NoError(t, err)

			c := NewChecker(tt.fetcher, types.CheckConfig{}, logger)
			got := c.Check(context.Background(), types.NewBookEntry("Dune", "Frank Herbert"), libX)
			logger.Flush()

			assert.Equal(t, "", got)
			assert.Len(t, tt.fetcher.calls, 1, "no retry")
			assert.Contains(t, logs.String(), tt.wantLog)
		})
	}
}

func TestCheck_DebugLogging(t *testing.T) {
	var logs bytes.Buffer
	logger, err := logging.New(&logs, true)
	require.NoError(t, err)

	c := NewChecker(&fakeFetcher{fallback: okResponse(body(42))}, types.CheckConfig{}, logger)
	c.Check(context.Background(), types.NewBookEntry("Dune", "Frank Herbert"), libX)
	logger.Flush()

	assert.Contains(t, logs.String(), "https://libx.example/search?t=Dune&a=Frank+Herbert")
	assert.Contains(t, logs.String(), "42 bytes")
}

// --- CheckAll ---

func TestCheckAll_FillsEveryCell(t *testing.T) {
	libY := types.LibraryDefinition{
		Name:        "LibY",
		URLTemplate: "https://liby.example/?q={TITLE}",
		Rule:        types.MarkerRule("No results"),
	}
	libs := []types.LibraryDefinition{libX, libY}
	books := []types.BookEntry{
		types.NewBookEntry("Dune (Book 1)", "Frank Herbert"),
		types.NewBookEntry("Emma", "Jane Austen"),
		{Title: "Nil Results", Author: "Nobody"},
	}

	f := &fakeFetcher{
		responses: map[string]Response{
			"https://libx.example/search?t=Dune&a=Frank+Herbert": okResponse(body(600)),
			"https://liby.example/?q=Dune":                       okResponse([]byte("No results for Dune")),
			"https://liby.example/?q=Emma":                       okResponse([]byte("Emma by Jane Austen")),
		},
		errs: map[string]error{
			"https://liby.example/?q=Nil+Results": errors.New("timeout"),
		},
		fallback: okResponse(body(100)),
	}

	var out bytes.Buffer
	c := NewChecker(f, types.CheckConfig{}, nil)
	summary, err := c.CheckAll(context.Background(), books, libs, &out)
	require.NoError(t, err)

	assert.Equal(t, Summary{Books: 3, Checks: 6, Found: 2, Failed: 1}, summary)

	for _, b := range books {
		require.Len(t, b.Results, len(libs), "book %q", b.Title)
		for _, l := range libs {
			v, ok := b.Result(l.Name)
			require.True(t, ok)
			if v != "" {
				assert.True(t, strings.HasPrefix(v, "https://"), "cell %q", v)
			}
		}
	}
	assert.Equal(t, "https://libx.example/search?t=Dune&a=Frank+Herbert", books[0].Results["LibX"])
	assert.Equal(t, "", books[0].Results["LibY"])
	assert.Equal(t, "", books[1].Results["LibX"])
	assert.Equal(t, "https://liby.example/?q=Emma", books[1].Results["LibY"])

	// Outer loop over books, inner over libraries.
	assert.Equal(t, []string{
		"https://libx.example/search?t=Dune&a=Frank+Herbert",
		"https://liby.example/?q=Dune",
		"https://libx.example/search?t=Emma&a=Jane+Austen",
		"https://liby.example/?q=Emma",
		"https://libx.example/search?t=Nil+Results&a=Nobody",
		"https://liby.example/?q=Nil+Results",
	}, f.calls)

	assert.Contains(t, out.String(), `Book 1/3: Frank Herbert, "Dune (Book 1)"`)
	assert.Contains(t, out.String(), "2 found, 1 failed")
}

func TestCheckAll_Idempotent(t *testing.T) {
	run := func() []types.BookEntry {
		books := []types.BookEntry{
			types.NewBookEntry("Dune (Book 1)", "Frank Herbert"),
			types.NewBookEntry("Emma", "Jane Austen"),
		}
		f := &fakeFetcher{responses: map[string]Response{
			"https://libx.example/search?t=Dune&a=Frank+Herbert": okResponse(body(600)),
		}, fallback: okResponse(body(10))}
		_, err := NewChecker(f, types.CheckConfig{}, nil).CheckAll(context.Background(), books, []types.LibraryDefinition{libX}, &bytes.Buffer{})
		require.NoError(t, err)
		return books
	}
	assert.Equal(t, run(), run())
}

func TestCheckAll_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &fakeFetcher{fallback: okResponse(body(600))}
	books := []types.BookEntry{types.NewBookEntry("Dune", "Frank Herbert")}
	_, err := NewChecker(f, types.CheckConfig{}, nil).CheckAll(ctx, books, []types.LibraryDefinition{libX}, &bytes.Buffer{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.calls)
}

// cancellingFetcher cancels the run while its request is in flight.
type cancellingFetcher struct {
	cancel context.CancelFunc
	calls  int
}

func (f *cancellingFetcher) Fetch(ctx context.Context, _ string) (Response, error) {
	f.calls++
	f.cancel()
	return Response{}, ctx.Err()
}

func TestCheckAll_CancelledDuringRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := &cancellingFetcher{cancel: cancel}
	books := []types.BookEntry{types.NewBookEntry("Dune", "Frank Herbert")}
	summary, err := NewChecker(f, types.CheckConfig{}, nil).CheckAll(ctx, books, []types.LibraryDefinition{libX}, &bytes.Buffer{})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, f.calls)
	assert.Zero(t, summary.Checks)
	_, recorded := books[0].Results[libX.Name]
	assert.False(t, recorded, "interrupted check must not be recorded as unavailable")
}

func TestCheckAll_RequestDelay(t *testing.T) {
	f := &fakeFetcher{fallback: okResponse(body(600))}
	books := []types.BookEntry{
		types.NewBookEntry("A", "X"),
		types.NewBookEntry("B", "Y"),
		types.NewBookEntry("C", "Z"),
	}
	c := NewChecker(f, types.CheckConfig{RequestDelay: 20 * time.Millisecond}, nil)

	start := time.Now()
	_, err := c.CheckAll(context.Background(), books, []types.LibraryDefinition{libX}, &bytes.Buffer{})
	require.NoError(t, err)

	// First request is immediate, the next two wait for a token each.
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
	assert.Len(t, f.calls, 3)
}

// --- HTTPFetcher ---

func TestHTTPFetcher_AgainstServer(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		if r.URL.Query().Get("t") == "Missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(body(600))
	}))
	defer ts.Close()

	f := NewHTTPFetcher(types.HTTPConfig{Timeout: 5 * time.Second})
	c := NewChecker(f, types.CheckConfig{}, nil)

	lib := types.LibraryDefinition{
		Name:        "Local",
		URLTemplate: ts.URL + "/search?t={TITLE}&a={AUTHOR}",
		Rule:        types.SizeThreshold(500, types.ThresholdAbove),
	}

	got := c.Check(context.Background(), types.NewBookEntry("Dune (Book 1)", "Frank Herbert"), lib)
	assert.Equal(t, ts.URL+"/search?t=Dune&a=Frank+Herbert", got)
	assert.Contains(t, gotUA, "Mozilla/5.0")

	assert.Equal(t, "", c.Check(context.Background(), types.NewBookEntry("Missing", "Nobody"), lib))
}

func TestHTTPFetcher_CustomHeaders(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer ts.Close()

	f := NewHTTPFetcher(types.HTTPConfig{Headers: map[string]string{"User-Agent": "find-my-books/test"}})
	resp, err := f.Fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, "find-my-books/test", gotUA)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resultstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/find-my-books/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "index", "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun() ([]types.BookEntry, []types.LibraryDefinition) {
	libs := []types.LibraryDefinition{
		{Name: "LibX", URLTemplate: "https://libx.example/search?t={TITLE}&a={AUTHOR}", Rule: types.SizeThreshold(500, "")},
		{Name: "LibY", URLTemplate: "https://liby.example/?q={TITLE}", Rule: types.MarkerRule("No results")},
	}
	b1 := types.NewBookEntry("Dune (Book 1)", "Frank Herbert")
	b1.Results["LibX"] = "https://libx.example/search?t=Dune&a=Frank+Herbert"
	b1.Results["LibY"] = ""
	b2 := types.NewBookEntry("Emma", "Jane Austen")
	b2.Results["LibX"] = "https://libx.example/search?t=Emma&a=Jane+Austen"
	b2.Results["LibY"] = "https://liby.example/?q=Emma"
	return []types.BookEntry{b1, b2}, libs
}

func TestSaveAndLoadRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	books, libs := sampleRun()

	runID, err := s.SaveRun(ctx, "goodreads_library_export.csv", books, libs)
	require.NoError(t, err)
	_, err = uuid.Parse(runID)
	require.NoError(t, err, "run ID should be a UUID")

	run, err := s.LoadRun(ctx, runID)
	require.NoError(t, err)

	assert.Equal(t, runID, run.ID)
	assert.Equal(t, "goodreads_library_export.csv", run.Source)
	assert.False(t, run.CreatedAt.IsZero())
	assert.Equal(t, books, run.Books)
	require.Len(t, run.Libraries, 2)
	assert.Equal(t, "LibX", run.Libraries[0].Name)
	assert.Equal(t, libs[1].URLTemplate, run.Libraries[1].URLTemplate)
}

func TestSaveRun_SeparateRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	books, libs := sampleRun()

	first, err := s.SaveRun(ctx, "a.csv", books, libs)
	require.NoError(t, err)
	second, err := s.SaveRun(ctx, "b.csv", books[:1], libs)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	run, err := s.LoadRun(ctx, second)
	require.NoError(t, err)
	assert.Len(t, run.Books, 1)
}

func TestSaveRun_EmptyTable(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	runID, err := s.SaveRun(ctx, "empty.csv", nil, nil)
	require.NoError(t, err)

	run, err := s.LoadRun(ctx, runID)
	require.NoError(t, err)
	assert.Empty(t, run.Books)
	assert.Empty(t, run.Libraries)
}

func TestLoadRun_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.LoadRun(context.Background(), "no-such-run")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestAvailability(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	books, libs := sampleRun()

	runID, err := s.SaveRun(ctx, "x.csv", books, libs)
	require.NoError(t, err)

	counts, err := s.Availability(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"LibX": 2, "LibY": 1}, counts)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	ctx := context.Background()
	books, libs := sampleRun()

	s, err := Open(path)
	require.NoError(t, err)
	runID, err := s.SaveRun(ctx, "x.csv", books, libs)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	run, err := s.LoadRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, books, run.Books)
}

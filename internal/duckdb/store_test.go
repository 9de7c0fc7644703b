package duckdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
}

func TestInsertAndLookup(t *testing.T) {
	s := openInMemory(t)

	r := CachedResult{
		ContentHash: "abc123",
		RunID:       "run-1",
		RefBundleID: "sars-cov-2-wuhan-hu-1",
		SeqName:     "sample-1",
		ResultJSON:  `{"clade":"20A"}`,
	}
	require.NoError(t, s.Insert(r))

	got, ok, err := s.Lookup("abc123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, r.RunID, got.RunID)
	assert.Equal(t, r.RefBundleID, got.RefBundleID)
	assert.Equal(t, r.ResultJSON, got.ResultJSON)
}

func TestLookupMissing(t *testing.T) {
	s := openInMemory(t)
	_, ok, err := s.Lookup("does-not-exist")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInsertOverwritesSameHash(t *testing.T) {
	s := openInMemory(t)

	require.NoError(t, s.Insert(CachedResult{ContentHash: "h1", RunID: "run-1", ResultJSON: "first"}))
	require.NoError(t, s.Insert(CachedResult{ContentHash: "h1", RunID: "run-2", ResultJSON: "second"}))

	got, ok, err := s.Lookup("h1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "run-2", got.RunID)
	assert.Equal(t, "second", got.ResultJSON)
}

func TestClear(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.Insert(CachedResult{ContentHash: "h1", ResultJSON: "x"}))
	require.NoError(t, s.Clear())

	_, ok, err := s.Lookup("h1")
	require.NoError(t, err)
	assert.False(t, ok)
}

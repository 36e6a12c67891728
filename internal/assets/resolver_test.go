package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeAsset(t *testing.T, dir, name string, content []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), content, 0o644))
}

func TestResolveRejectsBadIDs(t *testing.T) {
	r := NewResolver(t.TempDir())

	for _, id := range []string{
		"../etc/passwd",
		"bad id",
		"a/b",
		"a.b",
		"",
		"..",
		"black_pearl",
	} {
		_, err := r.Resolve(id)
		require.ErrorIs(t, err, ErrInvalidID, "id %q", id)
	}
}

func TestResolveReturnsExactFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("SQLite format 3\x00fake scenario payload")
	writeAsset(t, dir, "black-pearl.db", content)
	r := NewResolver(dir)

	path, err := r.Resolve("black-pearl")
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, content, got)
}

func TestResolveMissingFile(t *testing.T) {
	r := NewResolver(t.TempDir())

	_, err := r.Resolve("black-pearl")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolveMissingDirectory(t *testing.T) {
	r := NewResolver(filepath.Join(t.TempDir(), "nope"))

	// a missing asset dir is a deployment fault, not a 404
	_, err := r.Resolve("black-pearl")
	require.ErrorIs(t, err, ErrMisconfigured)
}

func TestResolveEmptyFile(t *testing.T) {
	dir := t.TempDir()
	writeAsset(t, dir, "black-pearl.db", nil)
	r := NewResolver(dir)

	_, err := r.Resolve("black-pearl")
	require.ErrorIs(t, err, ErrMisconfigured)
}

func TestResolveIDValidatedBeforeStorage(t *testing.T) {
	// invalid ids fail even when the asset dir itself is missing
	r := NewResolver(filepath.Join(t.TempDir(), "nope"))

	_, err := r.Resolve("../secrets")
	require.ErrorIs(t, err, ErrInvalidID)
}

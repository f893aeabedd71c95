package ioutils

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, path string) {
	t.Helper()
	w, err := CreateMaybeCompressed(path)
	require.NoError(t, err)
	_, err = io.WriteString(w, "case_id,Stay\n1,0-10\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := OpenMaybeCompressed(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "case_id,Stay\n1,0-10\n", string(b))
}

func TestPlainAndGzip(t *testing.T) {
	dir := t.TempDir()
	roundTrip(t, filepath.Join(dir, "nested", "a.csv"))
	roundTrip(t, filepath.Join(dir, "a.csv.gz"))

	raw, err := os.ReadFile(filepath.Join(dir, "a.csv.gz"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1f, 0x8b}, raw[:2])
}

func TestOpenMissing(t *testing.T) {
	_, err := OpenMaybeCompressed(filepath.Join(t.TempDir(), "absent.csv"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

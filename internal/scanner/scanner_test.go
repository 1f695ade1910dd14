package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"fjacquet/expense-manager/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte("date,description,amount\n"), 0600))
}

func TestInputScanner_ScanPaths_Directory(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "santander.CSV"))
	touch(t, filepath.Join(dir, "amex.csv"))
	touch(t, filepath.Join(dir, "readme.txt"))
	touch(t, filepath.Join(dir, "nested", "skipped.csv"))

	files, err := NewInputScanner(logging.NewMockLogger()).ScanPaths([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "amex.csv"),
		filepath.Join(dir, "santander.CSV"),
	}, files)
}

func TestInputScanner_ScanPaths_FileAndDuplicates(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "bank.csv")
	touch(t, file)

	files, err := NewInputScanner(logging.NewMockLogger()).ScanPaths([]string{file, dir})
	require.NoError(t, err)
	assert.Equal(t, []string{file}, files)
}

func TestInputScanner_ScanPaths_EmptyDirectoryWarns(t *testing.T) {
	logger := logging.NewMockLogger()
	files, err := NewInputScanner(logger).ScanPaths([]string{t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.True(t, logger.HasEntry("WARN", "No input files found"))
}

func TestInputScanner_ScanPaths_Missing(t *testing.T) {
	_, err := NewInputScanner(logging.NewMockLogger()).ScanPaths([]string{filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}

func TestInputScanner_IsInputFile(t *testing.T) {
	s := NewInputScanner(nil)
	assert.True(t, s.IsInputFile("a.Csv"))
	assert.False(t, s.IsInputFile("a.xlsx"))
}

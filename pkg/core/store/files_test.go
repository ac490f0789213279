package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWriteFileCreatesParents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data", "general_journal.json")

	require.NoError(t, AtomicWriteFile(path, []byte("[]"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestAtomicWriteFileReplacesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "accounts.json")

	require.NoError(t, AtomicWriteFile(path, []byte("old"), 0o644))
	require.NoError(t, AtomicWriteFile(path, []byte("new"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	// No temp droppings left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSnapshotFileNamesAreTimestamped(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "general_journal.json")
	backups := filepath.Join(dir, "backups")
	require.NoError(t, os.WriteFile(path, []byte(`[{"date":"2025-01-10"}]`), 0o644))

	now := time.Date(2025, 1, 31, 9, 30, 12, 0, time.UTC)
	dest, err := SnapshotFile(path, backups, now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(backups, "general_journal_20250131T093012Z.json"), dest)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2025-01-10")
}

func TestSnapshotFileMissingSourceIsNoop(t *testing.T) {
	dir := t.TempDir()
	dest, err := SnapshotFile(filepath.Join(dir, "absent.json"), filepath.Join(dir, "backups"), time.Now())
	require.NoError(t, err)
	assert.Empty(t, dest)
}

func TestWriteWithBackupKeepsPreviousState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "supplier_list.json")
	backups := filepath.Join(dir, "backups")

	_, err := WriteWithBackup(path, []byte(`[{"name":"GitHub"}]`), backups)
	require.NoError(t, err)

	backupPath, err := WriteWithBackup(path, []byte(`[{"name":"GitHub"},{"name":"Linkt Brisbane"}]`), backups)
	require.NoError(t, err)
	require.NotEmpty(t, backupPath)
	assert.True(t, strings.HasPrefix(filepath.Base(backupPath), "supplier_list_"))

	old, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"GitHub"}]`, string(old))

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(current), "Linkt Brisbane")
}

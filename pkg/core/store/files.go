// Package store is the persistence floor under every domain store: atomic
// file replacement and timestamped backups. All journal, chart, supplier
// and rule writes land here so the on-disk layout can never be observed
// half-written.
package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"agentic_accounting/pkg/core/errs"
)

// TimestampLayout names backup artifacts to UTC second precision.
const TimestampLayout = "20060102T150405Z"

// Timestamp renders now (UTC) in the backup filename layout.
func Timestamp(now time.Time) string {
	return now.UTC().Format(TimestampLayout)
}

// AtomicWriteFile replaces path by writing a temp file in the same
// directory and renaming it over the target. The parent directory is
// created when missing.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.IOf("create directory %s: %v", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return errs.IOf("create temp file in %s: %v", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errs.IOf("write temp file %s: %v", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errs.IOf("sync temp file %s: %v", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return errs.IOf("close temp file %s: %v", tmpName, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return errs.IOf("chmod temp file %s: %v", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errs.IOf("rename %s over %s: %v", tmpName, path, err)
	}
	return nil
}

// SnapshotFile copies path into backupsDir under a timestamped name
// (general_journal.json → general_journal_20250110T093012Z.json) and
// returns the destination. A missing source is not an error: there is
// nothing to protect yet.
func SnapshotFile(path, backupsDir string, now time.Time) (string, error) {
	src, err := os.Open(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errs.IOf("open %s for backup: %v", path, err)
	}
	defer src.Close()

	if err := os.MkdirAll(backupsDir, 0o755); err != nil {
		return "", errs.IOf("create backups directory %s: %v", backupsDir, err)
	}

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := fmt.Sprintf("%s_%s%s", strings.TrimSuffix(base, ext), Timestamp(now), ext)
	dest := filepath.Join(backupsDir, name)

	out, err := os.Create(dest)
	if err != nil {
		return "", errs.IOf("create backup %s: %v", dest, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, src); err != nil {
		return "", errs.IOf("copy %s to backup: %v", path, err)
	}
	if err := out.Sync(); err != nil {
		return "", errs.IOf("sync backup %s: %v", dest, err)
	}
	return dest, nil
}

// WriteWithBackup snapshots the current file contents into backupsDir,
// then atomically replaces path with data. When the write fails after a
// backup was taken, the backup is verified readable before the error is
// surfaced — callers may assume the previous state survives somewhere.
func WriteWithBackup(path string, data []byte, backupsDir string) (string, error) {
	backupPath, err := SnapshotFile(path, backupsDir, time.Now())
	if err != nil {
		return "", err
	}

	if err := AtomicWriteFile(path, data, 0o644); err != nil {
		if backupPath != "" {
			if _, verr := os.Stat(backupPath); verr != nil {
				logrus.WithField("backup", backupPath).Errorf("backup unverifiable after failed write: %v", verr)
				return backupPath, errs.IOf("write %s failed (%v) and backup %s is unverifiable", path, err, backupPath)
			}
			logrus.WithField("backup", backupPath).Warn("write failed, previous state preserved in backup")
		}
		return backupPath, err
	}
	return backupPath, nil
}

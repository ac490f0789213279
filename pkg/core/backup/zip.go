// Package backup produces the timestamped ZIP bundles regenerate_reports
// drops into backups/. Bundles are plain archives of whole directories so
// a restore is an unzip, nothing cleverer.
package backup

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"agentic_accounting/pkg/core/errs"
	"agentic_accounting/pkg/core/store"
)

// DirCount reports how many files one bundled directory contributed.
type DirCount struct {
	Directory string `json:"directory"`
	Files     int    `json:"files"`
}

// ZipDirectories bundles every regular file under each directory into
// backups/backup_<UTC>.zip, preserving paths relative to the directory
// under its base name. Missing directories contribute zero files rather
// than failing the bundle.
func ZipDirectories(backupsDir string, dirs []string, now time.Time) (string, []DirCount, error) {
	if len(dirs) == 0 {
		return "", nil, errs.Validationf("backupDirectories must name at least one directory")
	}
	if err := os.MkdirAll(backupsDir, 0o755); err != nil {
		return "", nil, errs.IOf("create backups directory %s: %v", backupsDir, err)
	}

	dest := filepath.Join(backupsDir, fmt.Sprintf("backup_%s.zip", store.Timestamp(now)))
	out, err := os.Create(dest)
	if err != nil {
		return "", nil, errs.IOf("create zip %s: %v", dest, err)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	counts := make([]DirCount, 0, len(dirs))
	log := logrus.WithField("component", "backup")

	for _, dir := range dirs {
		count := 0
		walkErr := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			name := filepath.ToSlash(filepath.Join(filepath.Base(dir), rel))
			entry, err := w.Create(name)
			if err != nil {
				return err
			}
			src, err := os.Open(path)
			if err != nil {
				return err
			}
			defer src.Close()
			if _, err := io.Copy(entry, src); err != nil {
				return err
			}
			count++
			return nil
		})
		if os.IsNotExist(walkErr) {
			log.Warnf("backup directory %s does not exist, bundling nothing from it", dir)
		} else if walkErr != nil {
			w.Close()
			os.Remove(dest)
			return "", nil, errs.IOf("bundle %s: %v", dir, walkErr)
		}
		counts = append(counts, DirCount{Directory: dir, Files: count})
	}

	if err := w.Close(); err != nil {
		os.Remove(dest)
		return "", nil, errs.IOf("finalize zip %s: %v", dest, err)
	}
	log.Infof("wrote %s", dest)
	return dest, counts, nil
}

package transform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yildizm/FlowTrack/internal/record"
)

// DefaultBackupSuffix is appended to the file stem of the untouched copy
const DefaultBackupSuffix = "_original"

// FileResult describes a finished TransformFile
type FileResult struct {
	Path          string
	Backup        string
	BackupCreated bool
	Rows          int
}

// BackupPath returns the backup name for path, e.g. data.csv -> data_original.csv
func BackupPath(path, suffix string) string {
	if suffix == "" {
		suffix = DefaultBackupSuffix
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}

// TransformFile transforms a combined file in place. The first call saves a
// read-only backup of the untouched file; every call reads from the backup,
// so repeated runs never compound.
func TransformFile(path string, opts Options) (*FileResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	result := &FileResult{Path: path, Backup: BackupPath(path, opts.BackupSuffix)}

	created, err := ensureBackup(path, result.Backup)
	if err != nil {
		return nil, err
	}
	result.BackupCreated = created

	rows, err := record.ReadFile(result.Backup)
	if err != nil {
		return nil, err
	}

	transformed, err := Apply(rows, opts)
	if err != nil {
		return nil, err
	}

	if err := record.WriteFileLayout(path, transformed, record.FloatLayout); err != nil {
		return nil, err
	}
	result.Rows = len(transformed)
	return result, nil
}

// ensureBackup copies path to backup unless backup exists. It reports
// whether a copy was made.
func ensureBackup(path, backup string) (bool, error) {
	if _, err := os.Stat(backup); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("cannot access backup %s: %w", backup, err)
	}

	// #nosec G304 - path is the file the user asked to transform
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	// #nosec G304 - backup is derived from path
	f, err := os.OpenFile(backup, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o444)
	if err != nil {
		return false, fmt.Errorf("failed to create backup %s: %w", backup, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(backup)
		return false, fmt.Errorf("failed to write backup %s: %w", backup, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(backup)
		return false, fmt.Errorf("failed to close backup %s: %w", backup, err)
	}
	return true, nil
}

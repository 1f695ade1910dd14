// Package fileutils provides the file operations shared by the pipeline:
// existence checks, directory creation, atomic replacement and archiving.
package fileutils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fjacquet/expense-manager/internal/models"
)

// FileExists checks if a file exists and is not a directory
func FileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirectoryExists checks if a directory exists
func DirectoryExists(dirPath string) bool {
	info, err := os.Stat(dirPath)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// EnsureDirectoryExists creates a directory if it doesn't exist
func EnsureDirectoryExists(dirPath string) error {
	if dirPath == "" || dirPath == "." {
		return nil
	}
	if !DirectoryExists(dirPath) {
		if err := os.MkdirAll(dirPath, models.PermissionDirectory); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	return nil
}

// AtomicWriteFile replaces filePath with data. The content goes to a
// temporary file in the same directory first and is renamed over the target,
// so readers see either the old file or the complete new one.
func AtomicWriteFile(filePath string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(filePath)
	if err := EnsureDirectoryExists(dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err = os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err = os.Rename(tmpName, filePath); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filePath, err)
	}
	return nil
}

// ArchiveFile moves filePath into archiveDir and returns the new path. When a
// file of the same name is already archived, a timestamp is inserted before
// the extension.
func ArchiveFile(filePath, archiveDir string, now time.Time) (string, error) {
	if err := EnsureDirectoryExists(archiveDir); err != nil {
		return "", err
	}

	base := filepath.Base(filePath)
	target := filepath.Join(archiveDir, base)
	if FileExists(target) {
		ext := filepath.Ext(base)
		stem := strings.TrimSuffix(base, ext)
		target = filepath.Join(archiveDir, fmt.Sprintf("%s_%s%s", stem, now.Format("20060102T150405.000000000"), ext))
	}

	if err := os.Rename(filePath, target); err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", filePath, err)
	}
	return target, nil
}

// ListFilesWithExtension returns the regular files directly inside dirPath
// whose extension matches, case-insensitively. Results are sorted by name.
func ListFilesWithExtension(dirPath, extension string) ([]string, error) {
	if !DirectoryExists(dirPath) {
		return nil, fmt.Errorf("directory does not exist: %s", dirPath)
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), extension) {
			files = append(files, filepath.Join(dirPath, entry.Name()))
		}
	}
	return files, nil
}

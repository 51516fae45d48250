// Package ioutils provides file system utilities for the downloader.
//
// This package contains functions for:
//   - Hard-linking cached files into output directories
//   - File copying
//   - Directory creation
//   - Playlist shuffling via numbered renames
//   - Zip archiving of output directories
package ioutils

import (
	"archive/zip"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ymusic-dl/internal/errs"
)

// LinkOrCopy makes dst refer to the same content as src, preferring a hard
// link and falling back to a byte copy when linking is impossible (cross-
// device destinations, filesystems without hard links).
//
// An existing dst is removed first: os.Link refuses to overwrite, and a
// previous run may have left a stale file behind.
func LinkOrCopy(src, dst string) error {
	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return &errs.FileSystemError{Path: filepath.Dir(dst), Err: err}
	}

	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return &errs.FileSystemError{Path: dst, Err: err}
	}

	if err := os.Link(src, dst); err == nil {
		return nil
	}

	if err := CopyFile(src, dst); err != nil {
		return &errs.FileSystemError{Path: dst, Err: err}
	}
	return nil
}

// CopyFile copies a file from source to destination.
//
// The destination file is created with mode 0644 if it doesn't exist,
// or truncated if it does.
func CopyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// EnsureDir creates a directory and all parent directories if they don't
// exist. Directories are created with mode 0755.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// ShuffleRenumber flattens the mp3 files under dir into dir itself and
// renames them with a shuffled numeric prefix:
//
//	003_Artist - Title.mp3
//
// Players that sort by name then play the collection in the shuffled order.
// Files that already carry a numeric prefix are re-shuffled rather than
// double-prefixed. Emptied subdirectories are removed.
func ShuffleRenumber(dir string) error {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), ".mp3") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return &errs.FileSystemError{Path: dir, Err: err}
	}
	if len(files) == 0 {
		return nil
	}

	sort.Strings(files)
	rand.Shuffle(len(files), func(i, j int) {
		files[i], files[j] = files[j], files[i]
	})

	width := len(fmt.Sprint(len(files)))
	if width < 3 {
		width = 3
	}
	for i, path := range files {
		name := stripNumericPrefix(filepath.Base(path))
		newName := fmt.Sprintf("%0*d_%s", width, i+1, name)
		newPath := filepath.Join(dir, newName)
		if err := os.Rename(path, newPath); err != nil {
			return &errs.FileSystemError{Path: path, Err: err}
		}
	}

	return removeEmptyDirs(dir)
}

// stripNumericPrefix removes a "NNN_" prefix left by a previous shuffle.
func stripNumericPrefix(name string) string {
	idx := strings.Index(name, "_")
	if idx <= 0 {
		return name
	}
	for _, r := range name[:idx] {
		if r < '0' || r > '9' {
			return name
		}
	}
	return name[idx+1:]
}

func removeEmptyDirs(root string) error {
	var dirs []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Deepest first, so nested empties collapse bottom-up.
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err == nil && len(entries) == 0 {
			_ = os.Remove(dir)
		}
	}
	return nil
}

// ZipArchive packs the contents of dir into a zip file at archivePath,
// storing entries with paths relative to dir. MP3 payloads are already
// compressed, so entries are stored rather than deflated.
func ZipArchive(dir, archivePath string) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return &errs.FileSystemError{Path: archivePath, Err: err}
	}
	defer out.Close()

	writer := zip.NewWriter(out)
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || path == archivePath {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		header := &zip.FileHeader{
			Name:     filepath.ToSlash(rel),
			Method:   zip.Store,
			Modified: info.ModTime(),
		}
		entry, err := writer.CreateHeader(header)
		if err != nil {
			return err
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		_, err = io.Copy(entry, file)
		return err
	})
	if err != nil {
		writer.Close()
		return &errs.FileSystemError{Path: dir, Err: err}
	}

	if err := writer.Close(); err != nil {
		return &errs.FileSystemError{Path: archivePath, Err: err}
	}
	return out.Sync()
}

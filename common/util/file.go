package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"vincit.fi/photo-gallery/api/apitype"
	"vincit.fi/photo-gallery/common/logger"
)

const (
	DirPermission  = 0o755
	FilePermission = 0o644
)

func DoesFileExist(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func IsDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// MakeDirectoriesIfNotExist creates dir with the permissions of parentDir
// if possible.
func MakeDirectoriesIfNotExist(parentDir string, dir string) error {
	if DoesFileExist(dir) {
		return nil
	}
	mode := os.FileMode(DirPermission)
	if info, err := os.Stat(parentDir); err == nil {
		mode = info.Mode().Perm()
	}
	logger.Debug.Printf("Creating directory '%s'", dir)
	return os.MkdirAll(dir, mode)
}

func CopyAndClose(destination io.WriteCloser, source io.Reader) (int64, error) {
	written, err := io.Copy(destination, source)
	closeErr := destination.Close()
	if err != nil {
		return written, err
	}
	return written, closeErr
}

func RemoveFile(src string) error {
	logger.Debug.Printf("Deleting '%s'", src)
	return os.Remove(src)
}

// UniqueFileName returns name or the first "base (n).ext" variant
// for which exists returns false.
func UniqueFileName(name string, exists func(string) bool) string {
	if !exists(name) {
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, i, ext)
		if !exists(candidate) {
			return candidate
		}
	}
}

// IsValidName tells if name can be used as a single directory name.
func IsValidName(name string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed == "." || trimmed == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}

// IsValidFolderName tells if name can be a gallery folder. Hidden and
// thumbnail directories are never listed, so they are not accepted.
func IsValidFolderName(name string) bool {
	return IsValidName(name) && !apitype.IsIgnoredDirectory(name)
}

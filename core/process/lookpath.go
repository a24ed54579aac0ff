package process

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

func findExecutable(file string) error {
	d, err := os.Stat(file)
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return ErrNotFound
	case err != nil:
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0111 != 0 {
		return nil
	}
	return ErrPermission
}

// LookPath searches for an executable named file in the directories of
// path, a PATH-style list. If file contains a slash, it is tried directly
// and path is not consulted. When nothing executable is found but a
// matching non-executable file was, ErrPermission is returned instead of
// ErrNotFound.
func LookPath(file, path string) (string, error) {
	if strings.Contains(file, "/") {
		if err := findExecutable(file); err != nil {
			return "", err
		}
		return file, nil
	}

	var sawPermission bool
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		switch err := findExecutable(candidate); {
		case err == nil:
			return candidate, nil
		case errors.Is(err, ErrPermission):
			sawPermission = true
		}
	}

	if sawPermission {
		return "", ErrPermission
	}
	return "", ErrNotFound
}

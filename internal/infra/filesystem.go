package infra

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
)

// EnsureDir expands a leading ~ in the joined path and creates the directory.
func EnsureDir(parts ...string) (string, error) {
	dir, err := homedir.Expand(filepath.Join(parts...))
	if err != nil {
		return "", errors.Wrap(err, "expand path")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", errors.Wrapf(err, "create %s", dir)
	}
	return dir, nil
}

package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindRoot looks upwards from startDir for a world root: a directory holding
// level.dat and a db directory. It returns the absolute path of the root.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if isWorldRoot(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("no world found above %s", abs)
}

func isWorldRoot(dir string) bool {
	if info, err := os.Stat(filepath.Join(dir, "level.dat")); err != nil || info.IsDir() {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, "db"))
	return err == nil && info.IsDir()
}

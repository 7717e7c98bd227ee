package preflight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"
)

// CheckDirectoryAccess verifies that path is, or can become, a writable
// directory. Output directories are created lazily, so a missing path is
// judged by its nearest existing ancestor.
func CheckDirectoryAccess(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}

	existing, created, err := nearestExisting(abs)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	info, err := os.Stat(existing)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s is not a directory)", path, existing)}
	}
	if err := unix.Access(existing, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}

	detail := fmt.Sprintf("%s (read/write ok", path)
	if created {
		detail = fmt.Sprintf("%s (will be created", path)
	}
	if free, ok := freeSpace(existing); ok {
		detail += ", " + humanize.IBytes(free) + " free"
	}
	return Result{Name: name, Passed: true, Detail: detail + ")"}
}

// nearestExisting walks up from path until it finds an entry that exists.
// created reports whether path itself is missing.
func nearestExisting(path string) (string, bool, error) {
	current := path
	for {
		_, err := os.Stat(current)
		if err == nil {
			return current, current != path, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", false, err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", false, err
		}
		current = parent
	}
}

func freeSpace(path string) (uint64, bool) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, false
	}
	return stat.Bavail * uint64(stat.Bsize), true
}

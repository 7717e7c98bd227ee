package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"bilidl/internal/services"
)

// acquireLock takes the single-instance lock. The returned func releases it.
func acquireLock(path string) (func(), error) {
	if path == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "lock", "create lock directory", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "lock", path, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "lock",
			fmt.Sprintf("another bilidl run holds %s", path), nil)
	}
	return func() { _ = lock.Unlock() }, nil
}

package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	lockDirSuffix = ".lock"
	lockOwnerFile = "owner.json"
)

// Lock is a cross-process guard for one archive file. The log itself assumes
// a single writer; the lock turns a second concurrent process into a clear
// error instead of interleaved appends.
type Lock struct {
	lockDir string
}

type lockOwner struct {
	PID       int    `json:"pid"`
	CreatedAt string `json:"created_at"`
	Hostname  string `json:"hostname,omitempty"`
}

// AcquireLock takes the single-writer lock for the archive at archivePath.
// The lock is a sibling directory; mkdir is the atomic primitive.
func AcquireLock(archivePath string) (Lock, error) {
	target := strings.TrimSpace(archivePath)
	if target == "" {
		return Lock{}, fmt.Errorf("archive path is required")
	}

	lockDir := target + lockDirSuffix
	if err := os.Mkdir(lockDir, 0o755); err != nil {
		if os.IsExist(err) {
			ownerPath := filepath.Join(lockDir, lockOwnerFile)
			var owner lockOwner
			if data, readErr := os.ReadFile(ownerPath); readErr == nil {
				if json.Unmarshal(data, &owner) == nil && owner.PID > 0 && owner.CreatedAt != "" {
					return Lock{}, fmt.Errorf(
						"archive is locked by another run: %s (pid=%d created_at=%s host=%s)",
						target, owner.PID, owner.CreatedAt, owner.Hostname,
					)
				}
			}
			return Lock{}, fmt.Errorf("archive is locked by another run: %s", target)
		}
		return Lock{}, fmt.Errorf("acquire archive lock for %s: %w", target, err)
	}

	owner := lockOwner{
		PID:       os.Getpid(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Hostname:  hostnameOrUnknown(),
	}
	data, err := json.MarshalIndent(owner, "", "  ")
	if err != nil {
		_ = os.Remove(lockDir)
		return Lock{}, fmt.Errorf("marshal archive lock owner for %s: %w", target, err)
	}
	if err := os.WriteFile(filepath.Join(lockDir, lockOwnerFile), append(data, '\n'), 0o644); err != nil {
		_ = os.Remove(lockDir)
		return Lock{}, fmt.Errorf("write archive lock owner for %s: %w", target, err)
	}
	return Lock{lockDir: lockDir}, nil
}

// Release removes the lock. Safe to call on a zero-value Lock.
func (l Lock) Release() error {
	if strings.TrimSpace(l.lockDir) == "" {
		return nil
	}
	if err := os.RemoveAll(l.lockDir); err != nil {
		return fmt.Errorf("release archive lock %s: %w", l.lockDir, err)
	}
	return nil
}

func hostnameOrUnknown() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}

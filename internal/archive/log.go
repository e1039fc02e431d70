package archive

import (
	"fmt"
	"os"
	"strings"
)

// Log is the processed-item dedup log: one identifier per line, UTF-8,
// LF-terminated, append-only. The whole file is loaded into memory once per
// run; membership checks are map lookups after that.
type Log struct {
	path string
	ids  map[string]struct{}
}

// Load reads the archive at path. A missing file is an empty log, not an
// error. Blank and whitespace-only lines are ignored.
func Load(path string) (*Log, error) {
	log := &Log{path: path, ids: make(map[string]struct{})}
	if strings.TrimSpace(path) == "" {
		return log, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return log, nil
		}
		return nil, fmt.Errorf("read archive %s: %w", path, err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		id := strings.TrimSpace(line)
		if id == "" {
			continue
		}
		log.ids[id] = struct{}{}
	}
	return log, nil
}

// Contains reports whether id was already recorded.
func (l *Log) Contains(id string) bool {
	_, ok := l.ids[strings.TrimSpace(id)]
	return ok
}

// Len returns the number of distinct recorded identifiers.
func (l *Log) Len() int {
	return len(l.ids)
}

// Append records id in memory and flushes exactly one line to the backing
// file so a crash after this call cannot lose the entry. Duplicate appends
// are skipped. An empty id or a log without a backing path is a no-op.
func (l *Log) Append(id string) error {
	id = strings.TrimSpace(id)
	if id == "" || l.path == "" {
		return nil
	}
	if _, ok := l.ids[id]; ok {
		return nil
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", l.path, err)
	}
	if _, err := f.WriteString(id + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("append to archive %s: %w", l.path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush archive %s: %w", l.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close archive %s: %w", l.path, err)
	}
	l.ids[id] = struct{}{}
	return nil
}

package ffmpeg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrNotFound means no usable ffmpeg binary could be located or provisioned.
var ErrNotFound = errors.New("ffmpeg not found")

// Handle is the resolved location of the ffmpeg executable.
type Handle struct {
	Path   string
	Source string // "explicit", "path", "cache", "bootstrap"
}

// ResolveOptions controls binary resolution.
type ResolveOptions struct {
	// ExplicitPath is a user-supplied executable path or a directory
	// containing it. Checked first.
	ExplicitPath string
	// AutoFetch enables the one-time bootstrap download when nothing is
	// found locally.
	AutoFetch bool
	// CacheDir overrides the bootstrap cache directory. Defaults to an
	// "ffmpeg" directory next to the running executable.
	CacheDir string
	// DownloadURL overrides the per-platform bootstrap archive URL.
	DownloadURL string
	// Logf receives progress lines during bootstrap. Optional.
	Logf func(format string, args ...any)
}

// Resolve locates ffmpeg, first match wins: explicit path, then PATH, then
// the local bootstrap cache, then (when enabled) a fresh bootstrap.
func Resolve(opts ResolveOptions) (Handle, error) {
	if explicit := strings.TrimSpace(opts.ExplicitPath); explicit != "" {
		if h, ok := resolveExplicit(explicit); ok {
			return h, nil
		}
	}

	if path, err := exec.LookPath(toolName()); err == nil {
		return Handle{Path: path, Source: "path"}, nil
	}

	cacheDir := opts.CacheDir
	if cacheDir == "" {
		cacheDir = defaultCacheDir()
	}
	if path, ok := cachedExecutable(cacheDir); ok {
		return Handle{Path: path, Source: "cache"}, nil
	}

	if opts.AutoFetch {
		path, err := bootstrap(cacheDir, opts.DownloadURL, opts.Logf)
		if err != nil {
			if opts.Logf != nil {
				opts.Logf("ffmpeg bootstrap failed: %v", err)
			}
			return Handle{}, fmt.Errorf("%w (bootstrap failed: %v)", ErrNotFound, err)
		}
		return Handle{Path: path, Source: "bootstrap"}, nil
	}

	return Handle{}, ErrNotFound
}

// InstallHints lists the manual installation alternatives shown when
// resolution terminates in not-found.
func InstallHints() []string {
	return []string{
		"rerun without --no-auto-fetch-tool to download ffmpeg automatically",
		"download ffmpeg from https://ffmpeg.org/download.html",
		"pass --tool-path pointing at an ffmpeg executable or its directory",
	}
}

func resolveExplicit(explicit string) (Handle, bool) {
	info, err := os.Stat(explicit)
	if err != nil {
		return Handle{}, false
	}
	if info.IsDir() {
		for _, candidate := range []string{
			filepath.Join(explicit, toolName()),
			filepath.Join(explicit, "bin", toolName()),
		} {
			if isExecutableFile(candidate) {
				return Handle{Path: candidate, Source: "explicit"}, true
			}
		}
		return Handle{}, false
	}
	if isExecutableFile(explicit) {
		return Handle{Path: explicit, Source: "explicit"}, true
	}
	return Handle{}, false
}

func toolName() string {
	if runtime.GOOS == "windows" {
		return "ffmpeg.exe"
	}
	return "ffmpeg"
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return strings.EqualFold(filepath.Ext(path), ".exe")
	}
	return info.Mode()&0o111 != 0
}

func defaultCacheDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "ffmpeg"
	}
	return filepath.Join(filepath.Dir(exe), "ffmpeg")
}

// cachedExecutable looks for a previously bootstrapped binary inside the
// cache directory. Known spots are checked before falling back to a walk of
// the extracted tree.
func cachedExecutable(cacheDir string) (string, bool) {
	for _, candidate := range []string{
		filepath.Join(cacheDir, "bin", toolName()),
		filepath.Join(cacheDir, toolName()),
	} {
		if isExecutableFile(candidate) {
			return candidate, true
		}
	}

	var found string
	err := filepath.WalkDir(cacheDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return nil
		}
		if d.Name() == toolName() && isExecutableFile(path) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil || found == "" {
		return "", false
	}
	return found, true
}

package ffmpeg

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ulikunitz/xz"
)

// Static build archives per platform. One-time download of roughly 100 MB.
const (
	windowsBuildURL = "https://www.gyan.dev/ffmpeg/builds/ffmpeg-release-essentials.zip"
	darwinBuildURL  = "https://evermeet.cx/ffmpeg/getrelease/zip"
	linuxBuildURL   = "https://johnvansickle.com/ffmpeg/releases/ffmpeg-release-amd64-static.tar.xz"
)

func defaultDownloadURL() string {
	switch runtime.GOOS {
	case "windows":
		return windowsBuildURL
	case "darwin":
		return darwinBuildURL
	default:
		return linuxBuildURL
	}
}

// bootstrap downloads and extracts a known-good ffmpeg build into cacheDir
// and returns the extracted executable path. Idempotent: an already-extracted
// binary short-circuits the download. A partially downloaded archive is
// removed before returning an error.
func bootstrap(cacheDir, url string, logf func(string, ...any)) (string, error) {
	if path, ok := cachedExecutable(cacheDir); ok {
		return path, nil
	}
	if url == "" {
		url = defaultDownloadURL()
	}
	if logf != nil {
		logf("ffmpeg not found, downloading one-time build from %s", url)
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache directory %s: %w", cacheDir, err)
	}
	archivePath := filepath.Join(cacheDir, "download"+archiveExt(url))

	if err := downloadFile(url, archivePath); err != nil {
		_ = os.Remove(archivePath)
		return "", err
	}
	if err := extractArchive(archivePath, cacheDir); err != nil {
		_ = os.Remove(archivePath)
		return "", err
	}
	_ = os.Remove(archivePath)

	path, ok := cachedExecutable(cacheDir)
	if !ok {
		return "", fmt.Errorf("extracted tree in %s does not contain %s", cacheDir, toolName())
	}
	if runtime.GOOS != "windows" {
		if err := os.Chmod(path, 0o755); err != nil {
			return "", fmt.Errorf("mark %s executable: %w", path, err)
		}
	}
	if logf != nil {
		logf("ffmpeg installed to %s", path)
	}
	return path, nil
}

func archiveExt(url string) string {
	if strings.HasSuffix(url, ".tar.xz") {
		return ".tar.xz"
	}
	return ".zip"
}

func downloadFile(url, dest string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create download file %s: %w", dest, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		return fmt.Errorf("write download file %s: %w", dest, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close download file %s: %w", dest, err)
	}
	return nil
}

func extractArchive(archivePath, destDir string) error {
	if strings.HasSuffix(archivePath, ".tar.xz") {
		return extractTarXz(archivePath, destDir)
	}
	return extractZip(archivePath, destDir)
}

func extractZip(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	defer r.Close()

	for _, f := range r.File {
		target, err := sanitizedTarget(destDir, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("create parent for %s: %w", target, err)
		}
		src, err := f.Open()
		if err != nil {
			return fmt.Errorf("open archive entry %s: %w", f.Name, err)
		}
		if err := writeExtracted(target, src, f.Mode()); err != nil {
			_ = src.Close()
			return err
		}
		_ = src.Close()
	}
	return nil
}

func extractTarXz(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	defer f.Close()

	xzr, err := xz.NewReader(f)
	if err != nil {
		return fmt.Errorf("open xz stream %s: %w", archivePath, err)
	}
	tr := tar.NewReader(xzr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read archive %s: %w", archivePath, err)
		}
		target, err := sanitizedTarget(destDir, hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create parent for %s: %w", target, err)
			}
			if err := writeExtracted(target, tr, hdr.FileInfo().Mode()); err != nil {
				return err
			}
		}
	}
}

func writeExtracted(target string, src io.Reader, mode os.FileMode) error {
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode.Perm()|0o600)
	if err != nil {
		return fmt.Errorf("create extracted file %s: %w", target, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return fmt.Errorf("write extracted file %s: %w", target, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close extracted file %s: %w", target, err)
	}
	return nil
}

func sanitizedTarget(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes extraction directory", name)
	}
	return target, nil
}

package ffmpeg

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ConvertLocal transcodes a local media file into the target audio format
// next to outputDir and returns the written file path. Targets:
//   - "wav": PCM s16le, 48 kHz, stereo (lossless)
//   - "mp3": libmp3lame at 320 kbps
func ConvertLocal(handle Handle, inputPath, outputDir, target string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory %s: %w", outputDir, err)
	}
	outputPath := filepath.Join(outputDir, stem+"."+target)

	args := []string{"-i", inputPath, "-vn"}
	switch target {
	case "wav":
		args = append(args, "-acodec", "pcm_s16le", "-ar", "48000", "-ac", "2")
	case "mp3":
		args = append(args, "-codec:a", "libmp3lame", "-b:a", "320k")
	default:
		return "", fmt.Errorf("unsupported conversion target %q", target)
	}
	args = append(args, "-y", outputPath)

	cmd := exec.Command(handle.Path, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffmpeg conversion failed: %w: %s", err, truncateOutput(out))
	}
	return outputPath, nil
}

func truncateOutput(out []byte) string {
	const maxKeep = 1200
	s := strings.TrimSpace(string(out))
	if len(s) <= maxKeep {
		return s
	}
	return s[len(s)-maxKeep:]
}

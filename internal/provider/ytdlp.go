package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"ytaudio/internal/model"
)

const defaultOutputTemplate = "%(title)s.%(ext)s"

// YTDLP shells out to the yt-dlp binary. The single fetch invocation
// downloads, transcodes (when the policy asks for it) and emits the item's
// info JSON on stdout.
type YTDLP struct {
	Binary string
}

func NewYTDLP() *YTDLP {
	return &YTDLP{Binary: "yt-dlp"}
}

func (c *YTDLP) Fetch(opts FetchOptions) (model.MediaDescriptor, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return model.MediaDescriptor{}, fmt.Errorf("source URL is required")
	}
	if strings.TrimSpace(opts.OutputDir) == "" {
		return model.MediaDescriptor{}, fmt.Errorf("output directory is required")
	}

	args := buildFetchArgs(opts)
	cmd := exec.Command(c.Binary, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	// stderr is always captured: failure classification matches against
	// its text. Non-quiet runs additionally stream it through.
	cmd.Stderr = &stderr
	if !opts.Quiet {
		cmd.Stderr = io.MultiWriter(os.Stderr, &stderr)
	}

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		return model.MediaDescriptor{}, fmt.Errorf("yt-dlp failed: %w: %s", err, detail)
	}
	if stdout.Len() == 0 {
		return model.MediaDescriptor{}, fmt.Errorf("yt-dlp returned empty output")
	}
	return parseDescriptor(stdout.Bytes(), opts)
}

func (c *YTDLP) ListFormats(url string) error {
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("source URL is required")
	}
	cmd := exec.Command(c.Binary, "-F", url)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("yt-dlp format listing failed: %w", err)
	}
	return nil
}

func buildFetchArgs(opts FetchOptions) []string {
	template := strings.TrimSpace(opts.OutputTemplate)
	if template == "" {
		template = defaultOutputTemplate
	}

	args := []string{
		"--newline",
		"-J",
		"--no-simulate",
		"-P", opts.OutputDir,
		"-o", template,
		"-f", opts.Policy.Selector,
		// Alternative player clients sidestep the provider's server-side
		// experiments that break the default web client.
		"--extractor-args", "youtube:player_client=android,web",
	}
	if opts.Policy.ExtractAudio {
		args = append(args, "--extract-audio", "--audio-format", opts.Policy.AudioFormat)
		if opts.Policy.AudioQuality != "" {
			args = append(args, "--audio-quality", opts.Policy.AudioQuality)
		}
		if opts.Policy.PostArgs != "" {
			args = append(args, "--postprocessor-args", opts.Policy.PostArgs)
		}
	}
	if strings.TrimSpace(opts.ToolLocation) != "" {
		args = append(args, "--ffmpeg-location", opts.ToolLocation)
	}
	if opts.Quiet || opts.NoWarnings {
		args = append(args, "--no-warnings")
	}
	return append(args, opts.URL)
}

type infoJSON struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	Artist             string `json:"artist"`
	Uploader           string `json:"uploader"`
	Album              string `json:"album"`
	PlaylistTitle      string `json:"playlist_title"`
	Thumbnail          string `json:"thumbnail"`
	Ext                string `json:"ext"`
	RequestedDownloads []struct {
		Filepath string `json:"filepath"`
	} `json:"requested_downloads"`
}

// parseDescriptor maps the provider's info JSON onto the typed descriptor.
// Every descriptive field is optional; only the file path is derived with
// fallbacks so the caller can locate the finished file.
func parseDescriptor(data []byte, opts FetchOptions) (model.MediaDescriptor, error) {
	var info infoJSON
	if err := json.Unmarshal(data, &info); err != nil {
		return model.MediaDescriptor{}, fmt.Errorf("parse yt-dlp info JSON: %w", err)
	}

	desc := model.MediaDescriptor{
		ID:            info.ID,
		Title:         info.Title,
		Artist:        info.Artist,
		Uploader:      info.Uploader,
		Album:         info.Album,
		PlaylistTitle: info.PlaylistTitle,
		Thumbnail:     info.Thumbnail,
	}

	if len(info.RequestedDownloads) > 0 {
		desc.FilePath = info.RequestedDownloads[0].Filepath
	}
	if desc.FilePath == "" && info.Title != "" {
		ext := info.Ext
		if ext == "" {
			ext = "mp4"
		}
		desc.FilePath = filepath.Join(opts.OutputDir, info.Title+"."+ext)
	}
	if opts.Policy.ExtractAudio && desc.FilePath != "" {
		// The download path reflects the pre-extraction stream; the
		// finished file carries the target audio extension.
		want := "." + opts.Policy.AudioFormat
		if !strings.HasSuffix(desc.FilePath, want) {
			desc.FilePath = strings.TrimSuffix(desc.FilePath, filepath.Ext(desc.FilePath)) + want
		}
	}
	return desc, nil
}

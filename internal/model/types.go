package model

import "strings"

// FormatKind selects the output format policy for a request.
type FormatKind string

const (
	// FormatVideo downloads the best 1080p60 video+audio pair, falling back
	// to the best available pair, then the best single stream.
	FormatVideo FormatKind = "video"
	// FormatNativeAudio downloads the best native audio stream without
	// transcoding (webm/opus preferred, then m4a, then anything).
	FormatNativeAudio FormatKind = "native"
	// FormatMP3 extracts audio and transcodes to MP3 at 320 kbps.
	FormatMP3 FormatKind = "mp3"
	// FormatWAV extracts audio and transcodes to PCM WAV (s16le, 48 kHz, stereo).
	FormatWAV FormatKind = "wav"
	// FormatListOnly enumerates available formats without downloading.
	FormatListOnly FormatKind = "list"
)

// RequiresTranscoder reports whether the format needs the external ffmpeg
// binary resolved before the provider is invoked.
func (f FormatKind) RequiresTranscoder() bool {
	return f == FormatMP3 || f == FormatWAV
}

// ParseFormatKind maps a user-supplied format selector to a FormatKind.
// An empty selector means video mode for remote sources.
func ParseFormatKind(raw string) (FormatKind, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return FormatVideo, true
	case "native":
		return FormatNativeAudio, true
	case "mp3":
		return FormatMP3, true
	case "wav":
		return FormatWAV, true
	default:
		return "", false
	}
}

// Request is one unit of work. Immutable once constructed; built by the CLI
// per item with defaults already folded in.
type Request struct {
	SourceURL      string
	LocalPath      string
	OutputDir      string
	OutputTemplate string
	Format         FormatKind
	ToolPath       string
	AutoFetchTool  bool
	ArchivePath    string
	DelaySeconds   int
	MaxDelaySecs   int
	IgnoreErrors   bool
	Quiet          bool
}

// IsLocal reports whether the request is a local-file conversion rather than
// a remote fetch.
func (r Request) IsLocal() bool {
	return strings.TrimSpace(r.LocalPath) != ""
}

// MediaDescriptor is the result of a successful provider fetch. Every field
// except FilePath is best effort; absent fields are empty strings and must
// never fail the pipeline.
type MediaDescriptor struct {
	FilePath      string
	ID            string
	Title         string
	Artist        string
	Uploader      string
	Album         string
	PlaylistTitle string
	Thumbnail     string
}

// DisplayArtist prefers the explicit artist field, then the uploader.
func (d MediaDescriptor) DisplayArtist() string {
	if d.Artist != "" {
		return d.Artist
	}
	return d.Uploader
}

// DisplayAlbum prefers the explicit album field, then the playlist title.
func (d MediaDescriptor) DisplayAlbum() string {
	if d.Album != "" {
		return d.Album
	}
	return d.PlaylistTitle
}

// Outcome is the per-request result folded into the batch summary.
type Outcome struct {
	Source   string   `json:"source"`
	Success  bool     `json:"success"`
	Skipped  bool     `json:"skipped,omitempty"`
	FilePath string   `json:"file_path,omitempty"`
	Reason   string   `json:"reason,omitempty"`
	Kind     ErrKind  `json:"kind,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Summary aggregates outcomes across one batch run.
type Summary struct {
	Success  int       `json:"success"`
	Failure  int       `json:"failure"`
	Skipped  int       `json:"skipped"`
	Outcomes []Outcome `json:"outcomes"`
}

// Add folds one outcome into the summary counts.
func (s *Summary) Add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	if o.Success {
		s.Success++
		if o.Skipped {
			s.Skipped++
		}
		return
	}
	s.Failure++
}

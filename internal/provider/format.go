package provider

import (
	"strings"

	"ytaudio/internal/model"
)

// Policy is the resolved format policy for one fetch: a selector expression
// built from an ordered ladder of format preferences plus optional audio
// extraction parameters.
type Policy struct {
	Name         string
	Selector     string
	ExtractAudio bool
	AudioFormat  string
	AudioQuality string
	// PostArgs are extra arguments for the extraction step (codec
	// parameters the selector cannot express).
	PostArgs string
	ListOnly bool
}

// Format ladders, tried in order; the first viable rung wins. Kept as tables
// rather than conditionals so the degradation order is visible in one place.
var (
	nativeAudioLadder = []string{
		"bestaudio[ext=webm]",
		"bestaudio[ext=m4a]",
		"bestaudio",
	}
	extractAudioLadder = []string{
		"bestaudio",
		"best",
	}
	videoLadder = []string{
		"bestvideo[height=1080][fps=60]+bestaudio",
		"best[height=1080][fps=60]",
		"best",
	}
)

func ladderSelector(rungs []string) string {
	return strings.Join(rungs, "/")
}

// PolicyFor maps a format kind to its fetch policy.
func PolicyFor(kind model.FormatKind) Policy {
	switch kind {
	case model.FormatListOnly:
		return Policy{Name: "list-formats", ListOnly: true}
	case model.FormatNativeAudio:
		return Policy{
			Name:     "best-native-audio",
			Selector: ladderSelector(nativeAudioLadder),
		}
	case model.FormatMP3:
		return Policy{
			Name:         "mp3-320k",
			Selector:     ladderSelector(extractAudioLadder),
			ExtractAudio: true,
			AudioFormat:  "mp3",
			AudioQuality: "320K",
		}
	case model.FormatWAV:
		return Policy{
			Name:         "wav-pcm",
			Selector:     ladderSelector(extractAudioLadder),
			ExtractAudio: true,
			AudioFormat:  "wav",
			PostArgs:     "ExtractAudio:-acodec pcm_s16le -ar 48000 -ac 2",
		}
	default:
		return Policy{
			Name:     "video-1080p60",
			Selector: ladderSelector(videoLadder),
		}
	}
}

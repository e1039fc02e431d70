package provider

import (
	"strings"
	"testing"

	"ytaudio/internal/model"
)

func TestPolicyForNativeAudioLadder(t *testing.T) {
	p := PolicyFor(model.FormatNativeAudio)
	want := "bestaudio[ext=webm]/bestaudio[ext=m4a]/bestaudio"
	if p.Selector != want {
		t.Fatalf("unexpected selector: got %q want %q", p.Selector, want)
	}
	if p.ExtractAudio {
		t.Fatal("native audio must not request extraction")
	}
}

func TestPolicyForMP3(t *testing.T) {
	p := PolicyFor(model.FormatMP3)
	if !p.ExtractAudio || p.AudioFormat != "mp3" || p.AudioQuality != "320K" {
		t.Fatalf("unexpected mp3 policy: %+v", p)
	}
	if p.Selector != "bestaudio/best" {
		t.Fatalf("unexpected selector: got %q want %q", p.Selector, "bestaudio/best")
	}
}

func TestPolicyForWAVCarriesCodecParameters(t *testing.T) {
	p := PolicyFor(model.FormatWAV)
	if !p.ExtractAudio || p.AudioFormat != "wav" {
		t.Fatalf("unexpected wav policy: %+v", p)
	}
	for _, param := range []string{"pcm_s16le", "-ar 48000", "-ac 2"} {
		if !strings.Contains(p.PostArgs, param) {
			t.Fatalf("wav post args missing %q: %q", param, p.PostArgs)
		}
	}
}

func TestPolicyForVideoDegradesGracefully(t *testing.T) {
	p := PolicyFor(model.FormatVideo)
	rungs := strings.Split(p.Selector, "/")
	if len(rungs) != 3 {
		t.Fatalf("unexpected rung count: got %d want 3", len(rungs))
	}
	if rungs[0] != "bestvideo[height=1080][fps=60]+bestaudio" {
		t.Fatalf("unexpected first rung: %q", rungs[0])
	}
	if rungs[len(rungs)-1] != "best" {
		t.Fatalf("ladder must end at best-available: %q", rungs[len(rungs)-1])
	}
}

func TestPolicyForListOnly(t *testing.T) {
	if p := PolicyFor(model.FormatListOnly); !p.ListOnly {
		t.Fatalf("expected list-only policy, got %+v", p)
	}
}

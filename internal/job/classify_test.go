package job

import (
	"errors"
	"fmt"
	"testing"

	"ytaudio/internal/model"
)

func TestDefaultClassifierMarkers(t *testing.T) {
	cases := []struct {
		text string
		want model.ErrKind
	}{
		{"ERROR: Some formats may be missing due to SSAP experiment rollout", model.KindProviderTransient},
		{"WARNING: Signature extraction failed: some obfuscation", model.KindProviderTransient},
		{"ERROR: nsig extraction failed", model.KindProviderTransient},
		{"fragment not found; unable to continue", model.KindProviderTransient},
		{"The downloaded file is empty", model.KindProviderTransient},
		{"Some formats have been skipped as they are missing a url", model.KindProviderTransient},
		{"ERROR: Video unavailable", model.KindProviderPermanent},
		{"ERROR: Private video", model.KindProviderPermanent},
	}
	for _, tc := range cases {
		got := DefaultClassifier(errors.New(tc.text))
		if got != tc.want {
			t.Errorf("classify %q: got %q want %q", tc.text, got, tc.want)
		}
	}
}

func TestDefaultClassifierKeepsExplicitKind(t *testing.T) {
	err := model.Errorf(model.KindDependencyMissing, "transcoder not found")
	if got := DefaultClassifier(err); got != model.KindDependencyMissing {
		t.Fatalf("got %q, want explicit kind kept", got)
	}

	wrapped := fmt.Errorf("running item: %w", model.Errorf(model.KindArchiveIO, "disk full"))
	if got := DefaultClassifier(wrapped); got != model.KindArchiveIO {
		t.Fatalf("got %q, want wrapped kind kept", got)
	}
}

func TestDefaultClassifierNilError(t *testing.T) {
	if got := DefaultClassifier(nil); got != "" {
		t.Fatalf("got %q for nil error, want empty", got)
	}
}

package job

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ytaudio/internal/archive"
	"ytaudio/internal/ffmpeg"
	"ytaudio/internal/model"
	"ytaudio/internal/provider"
)

type fakeProvider struct {
	fetches   int
	lists     int
	fetchErrs []error
	desc      model.MediaDescriptor
	lastOpts  provider.FetchOptions
}

func (p *fakeProvider) Fetch(opts provider.FetchOptions) (model.MediaDescriptor, error) {
	p.lastOpts = opts
	p.fetches++
	if len(p.fetchErrs) > 0 {
		err := p.fetchErrs[0]
		p.fetchErrs = p.fetchErrs[1:]
		if err != nil {
			return model.MediaDescriptor{}, err
		}
	}
	return p.desc, nil
}

func (p *fakeProvider) ListFormats(url string) error {
	p.lists++
	return nil
}

type fakeResolver struct {
	calls int
	err   error
}

func (r *fakeResolver) Resolve(string, bool) (ffmpeg.Handle, error) {
	r.calls++
	if r.err != nil {
		return ffmpeg.Handle{}, r.err
	}
	return ffmpeg.Handle{Path: "/opt/ffmpeg/ffmpeg", Source: "explicit"}, nil
}

type fakeTagger struct {
	calls    int
	warnings []string
}

func (t *fakeTagger) Apply(string, model.MediaDescriptor, model.FormatKind) []string {
	t.calls++
	return t.warnings
}

func newTestRunner(t *testing.T, p provider.Provider) (*Runner, *[]time.Duration) {
	t.Helper()
	waits := &[]time.Duration{}
	r := NewRunner(p, &fakeResolver{}, &fakeTagger{}, nil)
	r.Sleep = func(d time.Duration) { *waits = append(*waits, d) }
	r.Logf = t.Logf
	return r, waits
}

func writeArchive(t *testing.T, ids ...string) *archive.Log {
	t.Helper()
	path := filepath.Join(t.TempDir(), "downloaded.txt")
	log, err := archive.Load(path)
	if err != nil {
		t.Fatalf("load archive: %v", err)
	}
	for _, id := range ids {
		if err := log.Append(id); err != nil {
			t.Fatalf("seed archive: %v", err)
		}
	}
	return log
}

func TestRunSkipsArchivedIDWithoutFetching(t *testing.T) {
	p := &fakeProvider{}
	r, _ := newTestRunner(t, p)
	r.Archive = writeArchive(t, "dQw4w9WgXcQ")

	out := r.Run(model.Request{
		SourceURL:   "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Format:      model.FormatNativeAudio,
		ArchivePath: "downloaded.txt",
	})

	if !out.Success || !out.Skipped {
		t.Fatalf("got success=%v skipped=%v, want skipped success", out.Success, out.Skipped)
	}
	if p.fetches != 0 {
		t.Fatalf("provider fetched %d times for archived ID, want 0", p.fetches)
	}
}

func TestRunRetriesTransientWithDeterministicWaits(t *testing.T) {
	transient := errors.New("ERROR: nsig extraction failed")
	p := &fakeProvider{fetchErrs: []error{transient, transient, transient}}
	r, waits := newTestRunner(t, p)

	out := r.Run(model.Request{
		SourceURL: "https://www.youtube.com/watch?v=abcdefghijk",
		Format:    model.FormatNativeAudio,
	})

	if out.Success {
		t.Fatal("got success after exhausting transient retries")
	}
	if out.Kind != model.KindProviderExhausted {
		t.Fatalf("got kind %q, want %q", out.Kind, model.KindProviderExhausted)
	}
	if p.fetches != 3 {
		t.Fatalf("got %d fetch attempts, want 3", p.fetches)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(*waits) != len(want) {
		t.Fatalf("got %d waits %v, want %v", len(*waits), *waits, want)
	}
	for i, d := range want {
		if (*waits)[i] != d {
			t.Fatalf("wait %d: got %s want %s", i, (*waits)[i], d)
		}
	}
}

func TestRunTransientThenSuccessRecovers(t *testing.T) {
	p := &fakeProvider{
		fetchErrs: []error{errors.New("fragment not found"), nil},
		desc:      model.MediaDescriptor{ID: "abcdefghijk", FilePath: "ignored"},
	}
	r, waits := newTestRunner(t, p)

	out := r.Run(model.Request{
		SourceURL: "https://youtu.be/abcdefghijk",
		Format:    model.FormatNativeAudio,
	})

	if !out.Success {
		t.Fatalf("got failure %q after recovery", out.Reason)
	}
	if p.fetches != 2 {
		t.Fatalf("got %d fetch attempts, want 2", p.fetches)
	}
	if len(*waits) != 1 || (*waits)[0] != 2*time.Second {
		t.Fatalf("got waits %v, want [2s]", *waits)
	}
}

func TestRunPermanentFailureDoesNotRetry(t *testing.T) {
	p := &fakeProvider{fetchErrs: []error{errors.New("ERROR: video unavailable")}}
	r, waits := newTestRunner(t, p)

	out := r.Run(model.Request{
		SourceURL: "https://www.youtube.com/watch?v=abcdefghijk",
		Format:    model.FormatNativeAudio,
	})

	if out.Success {
		t.Fatal("got success on permanent failure")
	}
	if out.Kind != model.KindProviderPermanent {
		t.Fatalf("got kind %q, want %q", out.Kind, model.KindProviderPermanent)
	}
	if p.fetches != 1 {
		t.Fatalf("got %d fetch attempts, want 1", p.fetches)
	}
	if len(*waits) != 0 {
		t.Fatalf("got waits %v on permanent failure, want none", *waits)
	}
}

func TestRunMissingTranscoderFailsBeforeFetch(t *testing.T) {
	p := &fakeProvider{}
	r, _ := newTestRunner(t, p)
	r.Resolver = &fakeResolver{err: ffmpeg.ErrNotFound}

	out := r.Run(model.Request{
		SourceURL: "https://www.youtube.com/watch?v=abcdefghijk",
		Format:    model.FormatMP3,
	})

	if out.Success {
		t.Fatal("got success without a transcoder")
	}
	if out.Kind != model.KindDependencyMissing {
		t.Fatalf("got kind %q, want %q", out.Kind, model.KindDependencyMissing)
	}
	if p.fetches != 0 {
		t.Fatalf("provider fetched %d times without a transcoder, want 0", p.fetches)
	}
}

func TestRunNativeFormatSkipsTranscoderResolution(t *testing.T) {
	p := &fakeProvider{desc: model.MediaDescriptor{ID: "abcdefghijk"}}
	resolver := &fakeResolver{err: ffmpeg.ErrNotFound}
	r, _ := newTestRunner(t, p)
	r.Resolver = resolver

	out := r.Run(model.Request{
		SourceURL: "https://www.youtube.com/watch?v=abcdefghijk",
		Format:    model.FormatNativeAudio,
	})

	if !out.Success {
		t.Fatalf("got failure %q, native download needs no transcoder", out.Reason)
	}
	if resolver.calls != 0 {
		t.Fatalf("resolver called %d times for native format, want 0", resolver.calls)
	}
}

func TestRunTaggingWarningsDoNotFailItem(t *testing.T) {
	media := filepath.Join(t.TempDir(), "song.mp3")
	if err := os.WriteFile(media, []byte("not really mp3"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := &fakeProvider{desc: model.MediaDescriptor{ID: "abcdefghijk", FilePath: media}}
	tagger := &fakeTagger{warnings: []string{"tagging failed: bad frame"}}
	r, _ := newTestRunner(t, p)
	r.Tagger = tagger

	out := r.Run(model.Request{
		SourceURL: "https://www.youtube.com/watch?v=abcdefghijk",
		Format:    model.FormatMP3,
	})

	if !out.Success {
		t.Fatalf("got failure %q, tagging problems must stay warnings", out.Reason)
	}
	if tagger.calls != 1 {
		t.Fatalf("tagger called %d times, want 1", tagger.calls)
	}
	if len(out.Warnings) != 1 {
		t.Fatalf("got warnings %v, want exactly the tagging warning", out.Warnings)
	}
	if out.FilePath != media {
		t.Fatalf("got file path %q, want %q", out.FilePath, media)
	}
}

func TestRunIgnoreErrorsSuppressesProviderWarnings(t *testing.T) {
	p := &fakeProvider{desc: model.MediaDescriptor{ID: "abcdefghijk"}}
	r, _ := newTestRunner(t, p)

	r.Run(model.Request{
		SourceURL:    "https://www.youtube.com/watch?v=abcdefghijk",
		Format:       model.FormatNativeAudio,
		IgnoreErrors: true,
	})

	if !p.lastOpts.NoWarnings {
		t.Fatal("ignore-errors request must ask the provider to suppress warnings")
	}
	if p.lastOpts.Quiet {
		t.Fatal("ignore-errors alone must not silence the provider's passthrough")
	}
}

func TestRunAppendsArchiveAfterSuccess(t *testing.T) {
	log := writeArchive(t)
	p := &fakeProvider{desc: model.MediaDescriptor{ID: "abcdefghijk"}}
	r, _ := newTestRunner(t, p)
	r.Archive = log

	out := r.Run(model.Request{
		SourceURL:   "https://www.youtube.com/watch?v=abcdefghijk",
		Format:      model.FormatNativeAudio,
		ArchivePath: "downloaded.txt",
	})

	if !out.Success {
		t.Fatalf("got failure %q", out.Reason)
	}
	if !log.Contains("abcdefghijk") {
		t.Fatal("archive missing the downloaded ID")
	}
}

func TestRunUnrecognizedURLShapeStillFetches(t *testing.T) {
	log := writeArchive(t, "abcdefghijk")
	p := &fakeProvider{desc: model.MediaDescriptor{ID: "abcdefghijk"}}
	r, _ := newTestRunner(t, p)
	r.Archive = log

	out := r.Run(model.Request{
		SourceURL:   "https://example.com/somewhere/else",
		Format:      model.FormatNativeAudio,
		ArchivePath: "downloaded.txt",
	})

	if !out.Success || out.Skipped {
		t.Fatalf("got success=%v skipped=%v, want fetched success", out.Success, out.Skipped)
	}
	if p.fetches != 1 {
		t.Fatalf("got %d fetch attempts, want 1", p.fetches)
	}
}

func TestRunListFormatsShortCircuits(t *testing.T) {
	p := &fakeProvider{}
	r, _ := newTestRunner(t, p)

	out := r.Run(model.Request{
		SourceURL: "https://www.youtube.com/watch?v=abcdefghijk",
		Format:    model.FormatListOnly,
	})

	if !out.Success {
		t.Fatalf("got failure %q", out.Reason)
	}
	if p.lists != 1 || p.fetches != 0 {
		t.Fatalf("got lists=%d fetches=%d, want 1 and 0", p.lists, p.fetches)
	}
}

func TestRunLocalConversionRejectsMissingInput(t *testing.T) {
	r, _ := newTestRunner(t, &fakeProvider{})

	out := r.Run(model.Request{
		LocalPath: filepath.Join(t.TempDir(), "missing.flac"),
		Format:    model.FormatWAV,
	})

	if out.Success {
		t.Fatal("got success for a missing input file")
	}
	if out.Kind != model.KindInputInvalid {
		t.Fatalf("got kind %q, want %q", out.Kind, model.KindInputInvalid)
	}
}

func TestRunLocalConversionRejectsNonAudioTarget(t *testing.T) {
	input := filepath.Join(t.TempDir(), "clip.mkv")
	if err := os.WriteFile(input, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	r, _ := newTestRunner(t, &fakeProvider{})

	out := r.Run(model.Request{LocalPath: input, Format: model.FormatVideo})

	if out.Success {
		t.Fatal("got success converting to a non-audio target")
	}
	if out.Kind != model.KindInputInvalid {
		t.Fatalf("got kind %q, want %q", out.Kind, model.KindInputInvalid)
	}
}

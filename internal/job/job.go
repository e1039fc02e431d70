package job

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ytaudio/internal/archive"
	"ytaudio/internal/ffmpeg"
	"ytaudio/internal/model"
	"ytaudio/internal/provider"
)

const defaultMaxAttempts = 3

// Tagger finalizes a downloaded audio file with descriptive metadata.
// Implementations report problems as warnings, never as errors.
type Tagger interface {
	Apply(path string, desc model.MediaDescriptor, kind model.FormatKind) []string
}

// Runner executes one acquisition per request: archive pre-check, transcoder
// resolution, provider fetch with bounded retry, tagging and archive update.
type Runner struct {
	Provider provider.Provider
	Resolver ToolResolver
	Tagger   Tagger
	Archive  *archive.Log

	// Classify decides transient vs permanent for provider failures.
	// Defaults to DefaultClassifier.
	Classify Classifier
	// Sleep is the backoff wait; replaceable for tests. Defaults to
	// time.Sleep.
	Sleep func(d time.Duration)
	// MaxAttempts caps provider invocations per item. Defaults to 3.
	MaxAttempts int
	// Logf receives progress and warning lines. Defaults to stdout.
	Logf func(format string, args ...any)
}

func NewRunner(p provider.Provider, resolver ToolResolver, tagger Tagger, log *archive.Log) *Runner {
	return &Runner{
		Provider: p,
		Resolver: resolver,
		Tagger:   tagger,
		Archive:  log,
	}
}

// Run drives the request to a definitive outcome. It never returns an error:
// every failure is folded into the outcome.
func (r *Runner) Run(req model.Request) model.Outcome {
	if req.IsLocal() {
		return r.runLocal(req)
	}
	return r.runRemote(req)
}

func (r *Runner) runRemote(req model.Request) model.Outcome {
	out := model.Outcome{Source: req.SourceURL}
	state := StateStart
	attempt := 0
	var desc model.MediaDescriptor
	var toolLocation string

	advance := func(to State) {
		if !canTransition(state, to) {
			// Transition table violation is a programming error; surface
			// it as a failed item instead of corrupting the run.
			out.Success = false
			out.Reason = fmt.Sprintf("illegal state transition %s -> %s", state, to)
			state = StateFailed
			return
		}
		state = to
	}
	fail := func(kind model.ErrKind, err error) {
		out.Success = false
		out.Kind = kind
		out.Reason = err.Error()
		state = StateFailed
	}

	for {
		switch state {
		case StateStart:
			if req.Format == model.FormatListOnly {
				if err := r.Provider.ListFormats(req.SourceURL); err != nil {
					fail(model.KindProviderPermanent, err)
					continue
				}
				out.Success = true
				advance(StateDone)
				continue
			}
			advance(StateArchiveCheck)

		case StateArchiveCheck:
			if r.Archive != nil && req.ArchivePath != "" {
				if id := ExtractVideoID(req.SourceURL); id != "" && r.Archive.Contains(id) {
					r.logf("[SKIP] %s already in archive %s", id, req.ArchivePath)
					advance(StateSkipped)
					continue
				}
			}
			advance(StateProviderFetch)

		case StateSkipped:
			out.Success = true
			out.Skipped = true
			advance(StateDone)

		case StateProviderFetch:
			if attempt == 0 && req.Format.RequiresTranscoder() {
				handle, err := r.Resolver.Resolve(req.ToolPath, req.AutoFetchTool)
				if err != nil {
					fail(model.KindDependencyMissing, fmt.Errorf("transcoder required for %s output: %w", req.Format, err))
					continue
				}
				toolLocation = handle.Path
			}

			attempt++
			fetched, err := r.Provider.Fetch(provider.FetchOptions{
				URL:            req.SourceURL,
				OutputDir:      req.OutputDir,
				OutputTemplate: req.OutputTemplate,
				Policy:         provider.PolicyFor(req.Format),
				ToolLocation:   toolLocation,
				Quiet:          req.Quiet,
				NoWarnings:     req.IgnoreErrors,
			})
			if err == nil {
				desc = fetched
				advance(StateTag)
				continue
			}

			kind := r.classify(err)
			switch {
			case kind == model.KindProviderTransient && attempt < r.maxAttempts():
				advance(StateRetryWait)
			case kind == model.KindProviderTransient:
				fail(model.KindProviderExhausted,
					fmt.Errorf("provider is blocking downloads after %d attempts: %w", attempt, err))
			default:
				if !isPreclassified(err) && kind == model.KindProviderPermanent {
					r.logf("unclassified provider error (no retry): %v", err)
				}
				fail(model.KindProviderPermanent, err)
			}

		case StateRetryWait:
			wait := time.Duration(attempt) * 2 * time.Second
			r.logf("attempt %d/%d blocked by provider, retrying in %s", attempt, r.maxAttempts(), wait)
			r.sleep(wait)
			advance(StateProviderFetch)

		case StateTag:
			if req.Format.RequiresTranscoder() && fileExists(desc.FilePath) {
				for _, warning := range r.tagger().Apply(desc.FilePath, desc, req.Format) {
					out.Warnings = append(out.Warnings, warning)
					r.logf("warn %s", warning)
				}
			}
			advance(StateArchiveUpdate)

		case StateArchiveUpdate:
			if r.Archive != nil && desc.ID != "" {
				if err := r.Archive.Append(desc.ID); err != nil {
					warning := fmt.Sprintf("archive update failed: %v", err)
					out.Warnings = append(out.Warnings, warning)
					r.logf("warn %s", warning)
				}
			}
			advance(StateDone)

		case StateDone:
			if !out.Skipped {
				out.Success = true
				out.FilePath = desc.FilePath
			}
			return out

		case StateFailed:
			return out
		}
	}
}

func (r *Runner) runLocal(req model.Request) model.Outcome {
	out := model.Outcome{Source: req.LocalPath}

	info, err := os.Stat(req.LocalPath)
	if err != nil {
		out.Kind = model.KindInputInvalid
		out.Reason = fmt.Sprintf("input file not found: %s", req.LocalPath)
		return out
	}
	if info.IsDir() {
		out.Kind = model.KindInputInvalid
		out.Reason = fmt.Sprintf("not a file: %s", req.LocalPath)
		return out
	}
	if !req.Format.RequiresTranscoder() {
		out.Kind = model.KindInputInvalid
		out.Reason = fmt.Sprintf("local conversion supports wav or mp3, not %q", req.Format)
		return out
	}

	handle, err := r.Resolver.Resolve(req.ToolPath, req.AutoFetchTool)
	if err != nil {
		out.Kind = model.KindDependencyMissing
		out.Reason = fmt.Sprintf("transcoder required for local conversion: %v", err)
		return out
	}

	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = filepath.Dir(req.LocalPath)
	}
	path, err := ffmpeg.ConvertLocal(handle, req.LocalPath, outputDir, string(req.Format))
	if err != nil {
		out.Kind = model.KindInputInvalid
		out.Reason = err.Error()
		return out
	}

	out.Success = true
	out.FilePath = path
	return out
}

func (r *Runner) classify(err error) model.ErrKind {
	if r.Classify != nil {
		return r.Classify(err)
	}
	return DefaultClassifier(err)
}

func (r *Runner) sleep(d time.Duration) {
	if r.Sleep != nil {
		r.Sleep(d)
		return
	}
	time.Sleep(d)
}

func (r *Runner) maxAttempts() int {
	if r.MaxAttempts > 0 {
		return r.MaxAttempts
	}
	return defaultMaxAttempts
}

func (r *Runner) tagger() Tagger {
	if r.Tagger != nil {
		return r.Tagger
	}
	return noopTagger{}
}

func (r *Runner) logf(format string, args ...any) {
	if r.Logf != nil {
		r.Logf(format, args...)
		return
	}
	fmt.Printf(format+"\n", args...)
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

type noopTagger struct{}

func (noopTagger) Apply(string, model.MediaDescriptor, model.FormatKind) []string { return nil }

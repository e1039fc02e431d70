// Package cli wires flag parsing, configuration defaults and the acquisition
// pipeline into the single-shot command surface.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"

	"ytaudio/internal/archive"
	"ytaudio/internal/batch"
	"ytaudio/internal/config"
	"ytaudio/internal/job"
	"ytaudio/internal/model"
	"ytaudio/internal/provider"
	"ytaudio/internal/tag"
)

// ErrFailures marks a completed run in which at least one item failed. main
// maps it to a non-zero exit; --ignore-errors suppresses it.
var ErrFailures = errors.New("one or more items failed")

// options is the parsed flag surface plus positional sources.
type options struct {
	urls           []string
	localPath      string
	outputDir      string
	format         string
	toolPath       string
	archivePath    string
	outputTemplate string
	configPath     string
	delaySeconds   int
	maxDelaySecs   int
	listFormats    bool
	noAutoFetch    bool
	ignoreErrors   bool
	stopOnFailure  bool
	jsonOut        bool
	quiet          bool
}

func Run(args []string) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}
	if opts == nil { // help requested
		return nil
	}

	reqs, err := buildRequests(*opts)
	if err != nil {
		return err
	}

	logf := func(format string, a ...any) {
		if opts.quiet || opts.jsonOut {
			return
		}
		fmt.Printf(format+"\n", a...)
	}

	var log *archive.Log
	if first := reqs[0]; !first.IsLocal() && first.ArchivePath != "" && first.Format != model.FormatListOnly {
		var lock archive.Lock
		log, lock, err = openArchive(first.ArchivePath, logf)
		if err != nil {
			return err
		}
		defer lock.Release()
	}

	runner := job.NewRunner(
		provider.NewYTDLP(),
		job.NewCachedResolver(logf),
		tag.New(),
		log,
	)
	runner.Logf = logf

	br := &batch.Runner{
		Job:           runner,
		StopOnFailure: opts.stopOnFailure,
		Rand:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	summary := br.Run(reqs)

	if opts.jsonOut {
		if err := printJSON(os.Stdout, summary); err != nil {
			return err
		}
	} else if !opts.quiet || summary.Failure > 0 {
		renderSummary(os.Stdout, summary)
	}

	if summary.Failure > 0 && !opts.ignoreErrors {
		return ErrFailures
	}
	return nil
}

// openArchive loads the dedup log and takes the single-writer lock. An
// unreadable archive degrades to "no dedup available" with a warning; a lock
// already held by another run stays fatal because a second writer could
// corrupt the log.
func openArchive(path string, logf func(format string, args ...any)) (*archive.Log, archive.Lock, error) {
	log, err := archive.Load(path)
	if err != nil {
		logf("warn archive unavailable, continuing without dedup: %v", err)
		return nil, archive.Lock{}, nil
	}
	lock, err := archive.AcquireLock(path)
	if err != nil {
		return nil, archive.Lock{}, model.WrapErr(model.KindArchiveIO, err)
	}
	return log, lock, nil
}

func parseArgs(args []string) (*options, error) {
	fs := flag.NewFlagSet("ytaudio", flag.ContinueOnError)
	fs.Usage = func() { printUsage(fs) }

	var opts options
	fs.StringVar(&opts.localPath, "local", "", "convert a local media file instead of downloading")
	fs.StringVar(&opts.outputDir, "output", "", "output directory (default: current directory; for --local: input's directory)")
	fs.StringVar(&opts.format, "format", "", "output format: native|wav|mp3 (default: full video download)")
	fs.StringVar(&opts.toolPath, "tool-path", "", "explicit ffmpeg binary or directory")
	fs.StringVar(&opts.archivePath, "archive", "", "processed-ID archive file; listed IDs are skipped")
	fs.StringVar(&opts.outputTemplate, "output-template", "", "provider output filename template")
	fs.StringVar(&opts.configPath, "config", config.DefaultPath(), "defaults file (YAML)")
	fs.IntVar(&opts.delaySeconds, "delay", 0, "minimum seconds to wait between items")
	fs.IntVar(&opts.maxDelaySecs, "max-delay", 0, "maximum seconds to wait between items (random in [delay, max-delay])")
	fs.BoolVar(&opts.listFormats, "list-formats", false, "list available formats for a single URL and exit")
	fs.BoolVar(&opts.noAutoFetch, "no-auto-fetch-tool", false, "never download ffmpeg automatically")
	fs.BoolVar(&opts.ignoreErrors, "ignore-errors", false, "exit zero even when items fail")
	fs.BoolVar(&opts.stopOnFailure, "stop-on-failure", false, "abort the batch after the first failed item")
	fs.BoolVar(&opts.jsonOut, "json", false, "print the run summary as JSON")
	fs.BoolVar(&opts.quiet, "quiet", false, "suppress progress output")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, nil
		}
		return nil, err
	}
	opts.urls = fs.Args()

	if err := validate(&opts); err != nil {
		return nil, err
	}
	return &opts, nil
}

func validate(opts *options) error {
	hasLocal := strings.TrimSpace(opts.localPath) != ""
	hasURLs := len(opts.urls) > 0
	switch {
	case hasLocal && hasURLs:
		return model.Errorf(model.KindInputInvalid, "--local and URL arguments are mutually exclusive")
	case !hasLocal && !hasURLs:
		return model.Errorf(model.KindInputInvalid, "nothing to do: pass one or more URLs, or --local <file>")
	}
	if opts.listFormats {
		if hasLocal {
			return model.Errorf(model.KindInputInvalid, "--list-formats does not apply to --local")
		}
		if len(opts.urls) != 1 {
			return model.Errorf(model.KindInputInvalid, "--list-formats takes exactly one URL, got %d", len(opts.urls))
		}
	}
	if opts.maxDelaySecs > 0 && opts.maxDelaySecs < opts.delaySeconds {
		return model.Errorf(model.KindInputInvalid, "--max-delay (%d) must be at least --delay (%d)", opts.maxDelaySecs, opts.delaySeconds)
	}
	return nil
}

// buildRequests folds config-file defaults and flags into one request per
// source. Explicit flags always win over config defaults.
func buildRequests(opts options) ([]model.Request, error) {
	defaults, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	pick := func(flagValue, configValue string) string {
		if strings.TrimSpace(flagValue) != "" {
			return flagValue
		}
		return configValue
	}

	outputDir, err := homedir.Expand(pick(opts.outputDir, defaults.OutputDir))
	if err != nil {
		return nil, model.Errorf(model.KindInputInvalid, "bad output path: %v", err)
	}
	toolPath, err := homedir.Expand(pick(opts.toolPath, defaults.ToolPath))
	if err != nil {
		return nil, model.Errorf(model.KindInputInvalid, "bad tool path: %v", err)
	}
	archivePath, err := homedir.Expand(pick(opts.archivePath, defaults.ArchivePath))
	if err != nil {
		return nil, model.Errorf(model.KindInputInvalid, "bad archive path: %v", err)
	}
	template := pick(opts.outputTemplate, defaults.OutputTemplate)
	autoFetch := defaults.AutoFetchTool && !opts.noAutoFetch

	if strings.TrimSpace(opts.localPath) != "" {
		localPath, err := homedir.Expand(opts.localPath)
		if err != nil {
			return nil, model.Errorf(model.KindInputInvalid, "bad input path: %v", err)
		}
		format := model.FormatWAV
		if opts.format != "" {
			kind, ok := model.ParseFormatKind(opts.format)
			if !ok || !kind.RequiresTranscoder() {
				return nil, model.Errorf(model.KindInputInvalid, "--local supports --format wav or mp3, got %q", opts.format)
			}
			format = kind
		}
		return []model.Request{{
			LocalPath:     localPath,
			OutputDir:     outputDir,
			Format:        format,
			ToolPath:      toolPath,
			AutoFetchTool: autoFetch,
			IgnoreErrors:  opts.ignoreErrors,
			Quiet:         opts.quiet,
		}}, nil
	}

	// Remote downloads land in the working directory unless told otherwise.
	// Local conversions keep an empty dir here: they default to the input's
	// own directory instead.
	if strings.TrimSpace(outputDir) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, model.Errorf(model.KindInputInvalid, "resolve working directory: %v", err)
		}
		outputDir = wd
	}

	format := model.FormatVideo
	if opts.listFormats {
		format = model.FormatListOnly
	} else if opts.format != "" {
		kind, ok := model.ParseFormatKind(opts.format)
		if !ok {
			return nil, model.Errorf(model.KindInputInvalid, "unknown format %q (want native, wav or mp3)", opts.format)
		}
		format = kind
	}

	reqs := make([]model.Request, 0, len(opts.urls))
	for _, raw := range opts.urls {
		url := strings.TrimSpace(raw)
		if url == "" {
			continue
		}
		reqs = append(reqs, model.Request{
			SourceURL:      url,
			OutputDir:      outputDir,
			OutputTemplate: template,
			Format:         format,
			ToolPath:       toolPath,
			AutoFetchTool:  autoFetch,
			ArchivePath:    archivePath,
			DelaySeconds:   opts.delaySeconds,
			MaxDelaySecs:   opts.maxDelaySecs,
			IgnoreErrors:   opts.ignoreErrors,
			Quiet:          opts.quiet,
		})
	}
	if len(reqs) == 0 {
		return nil, model.Errorf(model.KindInputInvalid, "no usable URLs after trimming")
	}
	return reqs, nil
}

func printUsage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintln(out, "ytaudio: fetch remote media or convert local files to tagged audio")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  ytaudio [flags] <url> [url ...]")
	fmt.Fprintln(out, "  ytaudio --local <file> [--format wav|mp3]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Examples:")
	fmt.Fprintln(out, "  ytaudio --format mp3 --archive done.txt https://www.youtube.com/watch?v=...")
	fmt.Fprintln(out, "  ytaudio --format native --delay 3 --max-delay 9 <url1> <url2>")
	fmt.Fprintln(out, "  ytaudio --local recording.mkv --format wav")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Flags:")
	fs.PrintDefaults()
}

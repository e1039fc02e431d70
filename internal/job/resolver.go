package job

import (
	"ytaudio/internal/ffmpeg"
)

// ToolResolver locates the external transcoder binary.
type ToolResolver interface {
	Resolve(explicitPath string, autoFetch bool) (ffmpeg.Handle, error)
}

// CachedResolver memoizes a successful resolution for the process lifetime so
// a batch resolves the transcoder at most once. Single-threaded by design,
// like the rest of the pipeline.
type CachedResolver struct {
	resolve func(explicitPath string, autoFetch bool) (ffmpeg.Handle, error)
	handle  *ffmpeg.Handle
}

// NewCachedResolver wraps the real binary resolution. logf receives bootstrap
// progress lines and may be nil.
func NewCachedResolver(logf func(format string, args ...any)) *CachedResolver {
	return &CachedResolver{
		resolve: func(explicitPath string, autoFetch bool) (ffmpeg.Handle, error) {
			return ffmpeg.Resolve(ffmpeg.ResolveOptions{
				ExplicitPath: explicitPath,
				AutoFetch:    autoFetch,
				Logf:         logf,
			})
		},
	}
}

func (r *CachedResolver) Resolve(explicitPath string, autoFetch bool) (ffmpeg.Handle, error) {
	if r.handle != nil {
		return *r.handle, nil
	}
	h, err := r.resolve(explicitPath, autoFetch)
	if err != nil {
		return ffmpeg.Handle{}, err
	}
	r.handle = &h
	return h, nil
}

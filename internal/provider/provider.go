package provider

import "ytaudio/internal/model"

// FetchOptions describes one provider invocation. The provider downloads the
// selected streams and, for transcoder-backed policies, performs the
// conversion itself using the ffmpeg binary at ToolLocation.
type FetchOptions struct {
	URL            string
	OutputDir      string
	OutputTemplate string
	Policy         Policy
	ToolLocation   string
	// Quiet stops the provider's stderr passthrough and suppresses its
	// warnings. NoWarnings suppresses only the warnings while keeping the
	// passthrough, for callers that ignore item failures.
	Quiet      bool
	NoWarnings bool
}

// Provider resolves a source URL to downloaded media and descriptive fields.
type Provider interface {
	Fetch(opts FetchOptions) (model.MediaDescriptor, error)
	ListFormats(url string) error
}

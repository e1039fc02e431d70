package job

import (
	"errors"
	"strings"

	"ytaudio/internal/model"
)

// Classifier decides whether a provider failure is worth retrying. The
// provider signals blocking through error text only, so classification is a
// substring match against known markers; the marker list is the single place
// to extend when the provider's wording drifts.
type Classifier func(err error) model.ErrKind

// Known transient-blocking phrases emitted by the provider when it is
// gating downloads (server-side experiments, signature breakage, starved
// fragments).
var transientMarkers = []string{
	"ssap",
	"signature extraction",
	"nsig extraction",
	"fragment not found",
	"downloaded file is empty",
	"formats have been skipped",
	"missing a url",
}

// DefaultClassifier treats marker matches as transient and everything else
// as permanent. Errors already carrying a kind keep it.
func DefaultClassifier(err error) model.ErrKind {
	if err == nil {
		return ""
	}
	var me *model.Error
	if errors.As(err, &me) {
		return me.Kind
	}
	text := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(text, marker) {
			return model.KindProviderTransient
		}
	}
	return model.KindProviderPermanent
}

// isPreclassified reports whether err carried an explicit kind rather than
// falling through the marker list. Fall-through failures are logged
// distinctly so new markers can be collected from the field.
func isPreclassified(err error) bool {
	var me *model.Error
	return errors.As(err, &me)
}

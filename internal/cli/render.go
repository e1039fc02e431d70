package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ytaudio/internal/ffmpeg"
	"ytaudio/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func renderSummary(w io.Writer, summary model.Summary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("Run summary"))
	for _, out := range summary.Outcomes {
		fmt.Fprintln(w, renderOutcome(out))
	}
	counts := fmt.Sprintf("%d succeeded, %d failed, %d skipped",
		summary.Success, summary.Failure, summary.Skipped)
	if summary.Failure > 0 {
		fmt.Fprintln(w, failStyle.Render(counts))
	} else {
		fmt.Fprintln(w, okStyle.Render(counts))
	}
	for _, out := range summary.Outcomes {
		if out.Kind == model.KindProviderExhausted {
			fmt.Fprintln(w)
			fmt.Fprintln(w, renderRemediation())
			break
		}
	}
	for _, out := range summary.Outcomes {
		if out.Kind == model.KindDependencyMissing {
			fmt.Fprintln(w)
			fmt.Fprintln(w, headerStyle.Render("ffmpeg is required for this format. Options:"))
			for _, hint := range ffmpeg.InstallHints() {
				fmt.Fprintln(w, "  - "+hint)
			}
			break
		}
	}
}

func renderOutcome(out model.Outcome) string {
	var b strings.Builder
	switch {
	case out.Skipped:
		b.WriteString(mutedStyle.Render("SKIP"))
	case out.Success:
		b.WriteString(okStyle.Render("  OK"))
	default:
		b.WriteString(failStyle.Render("FAIL"))
	}
	b.WriteString("  ")
	b.WriteString(out.Source)
	if out.FilePath != "" {
		b.WriteString(mutedStyle.Render(" -> " + out.FilePath))
	}
	if out.Reason != "" {
		b.WriteString("\n      ")
		b.WriteString(mutedStyle.Render(out.Reason))
	}
	for _, warning := range out.Warnings {
		b.WriteString("\n      ")
		b.WriteString(mutedStyle.Render("warning: " + warning))
	}
	return b.String()
}

// renderRemediation explains what a user can do when the provider keeps
// blocking after all retries.
func renderRemediation() string {
	lines := []string{
		headerStyle.Render("The provider is currently blocking downloads. Things to try:"),
		"  - wait a while and re-run; blocking experiments are often temporary",
		"  - update yt-dlp to the latest release",
		"  - try a different source URL for the same content",
		"  - try from a different network (VPN or another connection)",
	}
	return strings.Join(lines, "\n")
}

func printJSON(w io.Writer, summary model.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/mailarc/mailarc/pkg/models"
)

// FormatRun renders a run summary as Telegram HTML.
func FormatRun(run *models.RunSummary) string {
	var sb strings.Builder

	title := runTitle(run.Kind, run.Folder)
	if run.DryRun {
		title += " (dry run)"
	}
	sb.WriteString(fmt.Sprintf("<b>%s</b>\n\n", escapeHTML(title)))

	sb.WriteString(fmt.Sprintf("<b>Total:</b> %d\n", run.Total))
	sb.WriteString(fmt.Sprintf("<b>%s:</b> %d\n", processedLabel(run.Kind), run.Processed))
	sb.WriteString(fmt.Sprintf("<b>Skipped:</b> %d\n", run.Skipped))
	if run.Kind == models.RunKindArchive {
		sb.WriteString(fmt.Sprintf("<b>Attachments:</b> %d\n", run.Attachments))
	}
	if run.Kind == models.RunKindUpload {
		sb.WriteString(fmt.Sprintf("<b>Size:</b> %s\n", formatSize(run.Bytes)))
	}
	sb.WriteString(fmt.Sprintf("<b>Errors:</b> %d\n", run.Errors))
	sb.WriteString(fmt.Sprintf("<b>Duration:</b> %s\n", run.Duration().Round(time.Second)))

	return sb.String()
}

func runTitle(kind, folder string) string {
	switch kind {
	case models.RunKindUpload:
		return "Uploaded " + folder
	case models.RunKindClean:
		return "Cleaned " + folder
	default:
		return "Archived " + folder
	}
}

func processedLabel(kind string) string {
	switch kind {
	case models.RunKindUpload:
		return "Uploaded"
	case models.RunKindClean:
		return "Deleted"
	default:
		return "Downloaded"
	}
}

// escapeHTML escapes HTML special characters for Telegram
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// formatSize formats a byte size into a human-readable string.
func formatSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// SectionFile describes one index section file on disk.
type SectionFile struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// StatusInfo contains cache health information.
type StatusInfo struct {
	Locale         string `json:"locale"`
	State          string `json:"state"` // "ready", "empty", "error"
	ComponentCount int    `json:"component_count"`
	SectionCount   int    `json:"section_count"`

	SystemRoot     string        `json:"system_root"`
	SystemSections []SectionFile `json:"system_sections,omitempty"`
	UserRoot       string        `json:"user_root"`
	UserSections   []SectionFile `json:"user_sections,omitempty"`

	TotalSize int64 `json:"total_size"`
}

// StatusRenderer displays cache status.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{
		out:    out,
		styles: GetStyles(noColor),
	}
}

// Render displays status info to terminal.
func (r *StatusRenderer) Render(info StatusInfo) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Cache Status"))

	_, _ = fmt.Fprintf(r.out, "  Locale:     %s\n", info.Locale)
	_, _ = fmt.Fprintf(r.out, "  State:      %s\n", r.renderState(info.State))
	_, _ = fmt.Fprintf(r.out, "  Components: %d\n", info.ComponentCount)
	_, _ = fmt.Fprintf(r.out, "  Sections:   %d\n", info.SectionCount)
	_, _ = fmt.Fprintln(r.out)

	r.renderLocation("System cache", info.SystemRoot, info.SystemSections)
	r.renderLocation("User cache", info.UserRoot, info.UserSections)

	_, _ = fmt.Fprintf(r.out, "  Total size: %s\n", FormatBytes(info.TotalSize))

	return nil
}

func (r *StatusRenderer) renderLocation(label, root string, files []SectionFile) {
	if root == "" {
		return
	}
	_, _ = fmt.Fprintf(r.out, "  %s: %s\n", label, root)
	if len(files) == 0 {
		_, _ = fmt.Fprintf(r.out, "    %s\n", r.styles.Dim.Render("(no section files)"))
	}
	for _, f := range files {
		_, _ = fmt.Fprintf(r.out, "    %-40s %10s   %s\n",
			f.Name, FormatBytes(f.Size), r.styles.Dim.Render(formatTime(f.Modified)))
	}
	_, _ = fmt.Fprintln(r.out)
}

// RenderJSON outputs status as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

// renderState formats a cache state string with color.
func (r *StatusRenderer) renderState(state string) string {
	switch state {
	case "ready":
		return r.styles.Success.Render(state)
	case "empty":
		return r.styles.Warning.Render(state)
	case "error":
		return r.styles.Error.Render(state)
	default:
		return state
	}
}

// formatTime formats a time for display.
func formatTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// FormatBytes formats bytes to human-readable format.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

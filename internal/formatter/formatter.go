// package formatter renders a grouping as plain text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/shared"
)

// Format names an output format.
type Format string

const (
	Text     Format = "text"
	Markdown Format = "markdown"
	CSV      Format = "csv"
	JSON     Format = "json"
)

// Formats lists the supported formats in help-text order.
var Formats = []Format{Text, Markdown, CSV, JSON}

// ParseFormat accepts a format name or a common alias ("md", "txt").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return Text, nil
	case "markdown", "md":
		return Markdown, nil
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
}

// Export renders g in the given format.
func Export(g *models.Grouping, format Format) ([]byte, error) {
	switch format {
	case Text:
		return ExportToText(g)
	case Markdown:
		return ExportToMarkdown(g)
	case CSV:
		return ExportToCSV(g)
	case JSON:
		return ExportToJSON(g, true)
	}
	return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
}

// ExportToText lists each playlist with its mood, then the excluded tracks.
func ExportToText(g *models.Grouping) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Grouped %d tracks into %d playlists\n", g.TrackCount(), len(g.Playlists))

	for _, p := range g.Playlists {
		buf.WriteString("\n")
		if p.Mood != "" {
			fmt.Fprintf(&buf, "%s: %s (%d)\n", p.Label, p.Mood, len(p.Tracks))
		} else {
			fmt.Fprintf(&buf, "%s (%d)\n", p.Label, len(p.Tracks))
		}
		for _, name := range p.Tracks {
			fmt.Fprintf(&buf, "  %s\n", name)
		}
	}

	if len(g.NotIncluded) > 0 {
		fmt.Fprintf(&buf, "\n%s (%d)\n", models.NotIncludedKey, len(g.NotIncluded))
		for _, name := range g.NotIncluded {
			fmt.Fprintf(&buf, "  %s\n", name)
		}
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders one section per playlist.
func ExportToMarkdown(g *models.Grouping) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Playlists\n\n")
	fmt.Fprintf(&buf, "**Tracks**: %d\n", g.TrackCount())
	fmt.Fprintf(&buf, "**Playlists**: %d\n", len(g.Playlists))
	if len(g.NotIncluded) > 0 {
		fmt.Fprintf(&buf, "**Not included**: %d\n", len(g.NotIncluded))
	}

	for _, p := range g.Playlists {
		fmt.Fprintf(&buf, "\n## %s\n\n", p.Label)
		if p.Mood != "" {
			fmt.Fprintf(&buf, "**Mood**: %s\n\n", p.Mood)
		}
		if len(p.Tracks) == 0 {
			buf.WriteString("_No tracks_\n")
			continue
		}
		for i, name := range p.Tracks {
			fmt.Fprintf(&buf, "%d. %s\n", i+1, name)
		}
	}

	if len(g.NotIncluded) > 0 {
		buf.WriteString("\n## Not included\n\n")
		for _, name := range g.NotIncluded {
			fmt.Fprintf(&buf, "- %s\n", name)
		}
	}

	return buf.Bytes(), nil
}

// ExportToCSV writes one row per track with columns: Playlist, Mood, Position, Track.
//
// Excluded tracks use the [models.NotIncludedKey] label.
func ExportToCSV(g *models.Grouping) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Playlist", "Mood", "Position", "Track"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, p := range g.Playlists {
		for i, name := range p.Tracks {
			if err := writer.Write([]string{p.Label, p.Mood, fmt.Sprint(i + 1), name}); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}
	for i, name := range g.NotIncluded {
		if err := writer.Write([]string{models.NotIncludedKey, "", fmt.Sprint(i + 1), name}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToJSON encodes the label to names map served by the web app.
func ExportToJSON(g *models.Grouping, pretty bool) ([]byte, error) {
	return shared.MarshalJSON(g.Map(), pretty)
}

// WriteExport renders g and writes it to path.
func WriteExport(g *models.Grouping, format Format, path string) error {
	if path == "" {
		return fmt.Errorf("%w: output path", shared.ErrMissingArgument)
	}

	data, err := Export(g, format)
	if err != nil {
		return fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s file: %w", format, err)
	}

	return nil
}

// package formatter renders playlist snapshots as CSV, Markdown, plain text or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/earworm/internal/models"
	"github.com/desertthunder/earworm/internal/shared"
)

// Format names accepted by [Export] and [WriteExport].
const (
	FormatCSV      = "csv"
	FormatMarkdown = "md"
	FormatText     = "txt"
	FormatJSON     = "json"
)

// Formats lists the supported export formats.
var Formats = []string{FormatCSV, FormatMarkdown, FormatText, FormatJSON}

// ExportToCSV converts a PlaylistExport to CSV format with columns: ID, Name, Artist, Preview
func ExportToCSV(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Name", "Artist", "Preview"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range export.Tracks {
		if err := writer.Write([]string{track.ID, track.Name, track.Artist, track.PreviewURL}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a PlaylistExport to Markdown, linking the cover image when there is one.
func ExportToMarkdown(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer
	p := export.Playlist

	fmt.Fprintf(&buf, "# %s\n\n", p.Name)

	if p.Image != nil {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", *p.Image)
	}

	fmt.Fprintf(&buf, "**Owner**: %s\n", p.Owner)
	fmt.Fprintf(&buf, "**Tracks**: %d (%d with a listed preview)\n", len(export.Tracks), export.Playable())
	if p.SpotifyURL != "" {
		fmt.Fprintf(&buf, "**Link**: %s\n", p.SpotifyURL)
	}

	buf.WriteString("\n## Tracks\n\n")
	for i, track := range export.Tracks {
		marker := ""
		if track.PreviewURL != "" {
			marker = " 🔊"
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s\n", i+1, track.Artist, track.Name, marker)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a PlaylistExport to plain text format
func ExportToText(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", export.Playlist.Name)
	fmt.Fprintf(&buf, "Owner: %s\n", export.Playlist.Owner)
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(export.Tracks))

	for i, track := range export.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.Artist, track.Name)
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders the whole export as indented JSON.
func ExportToJSON(export *models.PlaylistExport) ([]byte, error) {
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}
	return append(data, '\n'), nil
}

// Export renders export in the named format.
func Export(export *models.PlaylistExport, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown, "markdown":
		return ExportToMarkdown(export)
	case FormatText, "text":
		return ExportToText(export)
	case FormatJSON:
		return ExportToJSON(export)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidInput, format, strings.Join(Formats, ", "))
	}
}

// WriteExport renders export and writes it to path.
//
// Defaults to {playlist.ID}_tracks.{format} as the filename.
func WriteExport(export *models.PlaylistExport, format, path string) (string, error) {
	data, err := Export(export, format)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = fmt.Sprintf("%s_tracks.%s", export.Playlist.ID, strings.ToLower(format))
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}

	return path, nil
}

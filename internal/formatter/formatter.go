// package formatter renders row-sets, queues and playlists as tables, CSV, JSON, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/mcb/internal/models"
	"github.com/desertthunder/mcb/internal/shared"
)

// Format is an output format accepted by the CLI.
type Format string

const (
	Table    Format = "table"
	CSV      Format = "csv"
	JSON     Format = "json"
	Text     Format = "text"
	Markdown Format = "markdown"
)

// Formats lists every supported format.
var Formats = []Format{Table, CSV, JSON, Text, Markdown}

// ParseFormat resolves a format name, ignoring case. "md" is accepted for Markdown.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case Table, CSV, JSON, Text, Markdown:
		return f, nil
	case "md":
		return Markdown, nil
	case "":
		return Table, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, name)
	}
}

var trackHeader = []string{"#", "ID", "Catalog", "Title", "Artists", "Genre", "Duration"}

// FormatDuration renders seconds as m:ss, or h:mm:ss from an hour up.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ExportRowsCSV writes rows, header included, as CSV.
func ExportRowsCSV(rows models.RowSet) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// TrackRows converts tracks to a row-set whose header is the track column set.
func TrackRows(tracks []models.Track) models.RowSet {
	rows := make(models.RowSet, 0, len(tracks)+1)
	rows = append(rows, append([]string(nil), trackHeader...))
	for i, t := range tracks {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			t.ID,
			t.CatalogID,
			t.Title,
			t.Artists,
			t.Genre,
			FormatDuration(t.Duration),
		})
	}
	return rows
}

// ToJSON renders v as indented JSON followed by a newline.
func ToJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// RowsToJSON renders body rows as objects keyed by the header.
func RowsToJSON(rows models.RowSet) ([]byte, error) {
	header := rows.Header()
	records := make([]map[string]string, 0, len(rows.Body()))
	for _, row := range rows.Body() {
		record := make(map[string]string, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(row) {
				record[name] = row[i]
			} else {
				record[name] = ""
			}
		}
		records = append(records, record)
	}
	return ToJSON(records)
}

// RenderTable draws rows as a bordered table, row 0 as its header. current, when in range, marks a body row.
func RenderTable(rows models.RowSet, current int) string {
	if len(rows) == 0 {
		return ""
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	pad := func(row []string) []string {
		out := make([]string, width)
		copy(out, row)
		return out
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	currentStyle := cellStyle.Reverse(true)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(pad(rows.Header())...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == current:
				return currentStyle
			default:
				return cellStyle
			}
		})
	for _, row := range rows.Body() {
		t.Row(pad(row)...)
	}
	return t.Render()
}

// ExportToText renders a titled, numbered track list.
func ExportToText(name string, tracks []models.Track) []byte {
	var buf bytes.Buffer

	if name != "" {
		buf.WriteString(fmt.Sprintf("Playlist: %s\n", name))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(tracks)))

	for i, track := range tracks {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, track))
	}

	return buf.Bytes()
}

// ExportToMarkdown renders a track list as a Markdown document with the total running time.
func ExportToMarkdown(name string, tracks []models.Track) []byte {
	var buf bytes.Buffer

	if name == "" {
		name = "Queue"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", name))

	total := 0
	for _, t := range tracks {
		total += t.Duration
	}
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", len(tracks)))
	buf.WriteString(fmt.Sprintf("**Length**: %s\n\n", FormatDuration(total)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range tracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s%s [%s]\n", i+1, track, albumPart, FormatDuration(track.Duration)))
	}

	return buf.Bytes()
}

// WriteRows writes a row-set to w in the given format. Text and Markdown fall back to CSV for raw rows.
func WriteRows(w io.Writer, rows models.RowSet, format Format) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case JSON:
		data, err = RowsToJSON(rows)
	case CSV, Text, Markdown:
		data, err = ExportRowsCSV(rows)
	default:
		data = []byte(RenderTable(rows, -1) + "\n")
	}
	if err != nil {
		return err
	}
	return write(w, data)
}

// WriteTracks writes tracks to w in the given format. name titles Text and Markdown output; current marks the
// playing track in a table (-1 for none).
func WriteTracks(w io.Writer, name string, tracks []models.Track, current int, format Format) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case JSON:
		data, err = ToJSON(tracks)
	case CSV:
		data, err = ExportRowsCSV(TrackRows(tracks))
	case Text:
		data = ExportToText(name, tracks)
	case Markdown:
		data = ExportToMarkdown(name, tracks)
	default:
		data = []byte(RenderTable(TrackRows(tracks), current) + "\n")
	}
	if err != nil {
		return err
	}
	return write(w, data)
}

// WriteFile writes tracks to path in the format implied by its extension, defaulting to text.
func WriteFile(path, name string, tracks []models.Track) (Format, error) {
	format := Text
	switch {
	case strings.HasSuffix(path, ".csv"):
		format = CSV
	case strings.HasSuffix(path, ".json"):
		format = JSON
	case strings.HasSuffix(path, ".md"):
		format = Markdown
	}

	var buf bytes.Buffer
	if err := WriteTracks(&buf, name, tracks, -1, format); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return format, nil
}

func write(w io.Writer, data []byte) error {
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

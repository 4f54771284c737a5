// package formatter provides functions to export practice session history to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/practicelog/internal/models"
	"github.com/desertthunder/practicelog/internal/shared"
)

// Format names an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// ParseFormat accepts a format name as given on the command line.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
	}
}

// Extension returns the file extension used for the format.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// SessionExport is one user's practice history.
type SessionExport struct {
	User     *models.User
	Sessions []*models.PracticeSessionWithPieces
}

// TotalMinutes sums the duration of every exported session.
func (e *SessionExport) TotalMinutes() int {
	total := 0
	for _, s := range e.Sessions {
		total += s.DurationMins
	}
	return total
}

// FormatMinutes renders a minute count as "1h 05m", or "45m" under an hour.
func FormatMinutes(mins int) string {
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh %02dm", mins/60, mins%60)
}

func pieceNames(pieces []*models.Piece) []string {
	names := make([]string, 0, len(pieces))
	for _, p := range pieces {
		names = append(names, fmt.Sprintf("%s - %s", p.Composer, p.Title))
	}
	return names
}

// ExportToCSV converts a SessionExport to CSV format with columns: ID, Start, Duration, Instrument, Pieces
//
// Pieces are joined with "; " in a single column.
func ExportToCSV(export *SessionExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Start", "Duration", "Instrument", "Pieces"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, session := range export.Sessions {
		record := []string{
			strconv.FormatInt(session.PracticeSessionID, 10),
			shared.FormatTimestamp(session.StartDatetime),
			strconv.Itoa(session.DurationMins),
			session.Instrument,
			strings.Join(pieceNames(session.PiecesPracticed), "; "),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a SessionExport to Markdown, one section per day.
func ExportToMarkdown(export *SessionExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Practice log: %s\n\n", export.User.UserName))
	buf.WriteString(fmt.Sprintf("**Sessions**: %d\n", len(export.Sessions)))
	buf.WriteString(fmt.Sprintf("**Total time**: %s\n", FormatMinutes(export.TotalMinutes())))

	day := ""
	for _, session := range export.Sessions {
		start := session.StartDatetime.UTC()
		if d := start.Format(time.DateOnly); d != day {
			day = d
			buf.WriteString(fmt.Sprintf("\n## %s\n\n", day))
		}

		buf.WriteString(fmt.Sprintf("- %s %s, %s\n", start.Format("15:04"), session.Instrument, FormatMinutes(session.DurationMins)))
		for _, name := range pieceNames(session.PiecesPracticed) {
			buf.WriteString(fmt.Sprintf("  - %s\n", name))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a SessionExport to plain text format
func ExportToText(export *SessionExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("User: %s\n", export.User.UserName))
	buf.WriteString(fmt.Sprintf("Sessions: %d (%s)\n\n", len(export.Sessions), FormatMinutes(export.TotalMinutes())))

	for i, session := range export.Sessions {
		buf.WriteString(fmt.Sprintf("%d. %s %s [%s]\n", i+1,
			shared.FormatTimestamp(session.StartDatetime), session.Instrument, FormatMinutes(session.DurationMins)))
		if names := pieceNames(session.PiecesPracticed); len(names) > 0 {
			buf.WriteString(fmt.Sprintf("   %s\n", strings.Join(names, ", ")))
		}
	}

	return buf.Bytes(), nil
}

// Export renders export in format.
func Export(export *SessionExport, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export)
	case FormatText:
		return ExportToText(export)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
}

// Write renders export in format and writes it to w.
func Write(w io.Writer, export *SessionExport, format Format) error {
	data, err := Export(export, format)
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// WriteExport writes export to path and returns the path written.
//
// Defaults to {user_name}_sessions.{ext} as the filename.
func WriteExport(export *SessionExport, format Format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_sessions.%s", export.User.UserName, format.Extension())
	}

	data, err := Export(export, format)
	if err != nil {
		return "", fmt.Errorf("failed to generate export: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

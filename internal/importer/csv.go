package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode turns an uploaded payload into text: UTF-8 with the BOM stripped,
// falling back to Latin-1 when the bytes are not valid UTF-8. Latin-1 maps
// every byte, so decoding never fails outright.
func Decode(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode payload as latin-1: %w", err)
	}
	return string(decoded), nil
}

// columnAliases maps accepted header names to their canonical column.
var columnAliases = map[string]string{
	"lat":       "lat",
	"latitude":  "lat",
	"lon":       "lon",
	"longitude": "lon",
	"subtotal":  "subtotal",
	"amount":    "subtotal",
	"timestamp": "timestamp",
	"date":      "timestamp",
}

// Row is one data row of an import document, indexed 1-based from the first
// line after the header. A row that could not be read carries Err and empty
// values.
type Row struct {
	Index     int
	Lat       string
	Lon       string
	Subtotal  string
	Timestamp string
	Err       error
}

// Document is a parsed import payload. TotalRows counts every data line,
// including rows that failed to parse.
type Document struct {
	TotalRows int
	Rows      []Row
}

// CountDataRows returns the number of data lines in the payload: the line
// count minus the header, floored at zero. It is well defined even for text
// that later fails to parse.
func CountDataRows(text string) int {
	lines := splitLines(text)
	if len(lines) <= 1 {
		return 0
	}
	return len(lines) - 1
}

// Parse reads the payload as comma-delimited text with a header row.
// A missing or unusable header is a fatal error; individual bad rows are not,
// they surface as Row.Err so the pipeline can keep going.
func Parse(text string) (*Document, error) {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil, errors.New("empty import payload")
	}

	columns, err := parseHeader(lines[0])
	if err != nil {
		return nil, err
	}

	doc := &Document{TotalRows: len(lines) - 1}
	for i, line := range lines[1:] {
		doc.Rows = append(doc.Rows, parseRow(i+1, line, columns))
	}
	return doc, nil
}

// parseHeader resolves aliases to column positions. Unrecognized columns are
// ignored; lat, lon and subtotal are required, timestamp is optional.
func parseHeader(line string) (map[string]int, error) {
	fields, err := parseLine(line)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header row: %w", err)
	}

	columns := make(map[string]int)
	for i, field := range fields {
		name := strings.ToLower(strings.TrimSpace(field))
		if canonical, ok := columnAliases[name]; ok {
			if _, seen := columns[canonical]; !seen {
				columns[canonical] = i
			}
		}
	}

	for _, required := range []string{"lat", "lon", "subtotal"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column %q (or an alias) in header", required)
		}
	}
	return columns, nil
}

func parseRow(index int, line string, columns map[string]int) Row {
	row := Row{Index: index}

	if strings.TrimSpace(line) == "" {
		row.Err = errors.New("blank row")
		return row
	}

	fields, err := parseLine(line)
	if err != nil {
		row.Err = fmt.Errorf("malformed row: %v", err)
		return row
	}

	value := func(column string) string {
		i, ok := columns[column]
		if !ok || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	row.Lat = value("lat")
	row.Lon = value("lon")
	row.Subtotal = value("subtotal")
	row.Timestamp = value("timestamp")

	if row.Lat == "" || row.Lon == "" || row.Subtotal == "" {
		row.Err = errors.New("row is missing lat, lon or subtotal")
	}
	return row
}

// parseLine reads a single CSV line. Lines are split beforehand so blank rows
// stay visible; quoted fields therefore cannot span lines, which matches the
// row-per-line shape of the import format.
func parseLine(line string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(line))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader.Read()
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// timestampLayouts are the accepted order timestamp shapes, tried in order.
// Layouts without a zone are interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO 8601 timestamp; a naive value is taken as UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
}

package importer

import (
	"testing"
	"time"
)

func TestDecode_UTF8WithBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("lat,lon,subtotal\n1,2,3")...)

	text, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if text != "lat,lon,subtotal\n1,2,3" {
		t.Errorf("Expected BOM to be stripped, got %q", text)
	}
}

func TestDecode_Latin1Fallback(t *testing.T) {
	// 0xE9 is é in Latin-1 but an invalid UTF-8 sequence on its own.
	data := []byte("lat,lon,subtotal\n1,2,caf\xe9")

	text, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if text != "lat,lon,subtotal\n1,2,café" {
		t.Errorf("Expected latin-1 decode, got %q", text)
	}
}

func TestParse_HeaderAliases(t *testing.T) {
	doc, err := Parse("Latitude,Longitude,Amount,Date\n40.7,-74.0,10.00,2024-06-01")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if doc.TotalRows != 1 || len(doc.Rows) != 1 {
		t.Fatalf("Expected one data row, got %+v", doc)
	}

	row := doc.Rows[0]
	if row.Err != nil {
		t.Fatalf("Unexpected row error: %v", row.Err)
	}
	if row.Lat != "40.7" || row.Lon != "-74.0" || row.Subtotal != "10.00" || row.Timestamp != "2024-06-01" {
		t.Errorf("Unexpected row values: %+v", row)
	}
}

func TestParse_IgnoresUnknownColumns(t *testing.T) {
	doc, err := Parse("id,lat,lon,subtotal,notes\n7,40.7,-74.0,10.00,hello")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	row := doc.Rows[0]
	if row.Lat != "40.7" || row.Subtotal != "10.00" {
		t.Errorf("Unexpected row values: %+v", row)
	}
}

func TestParse_MissingRequiredColumn(t *testing.T) {
	if _, err := Parse("lat,lon\n40.7,-74.0"); err == nil {
		t.Error("Expected error for missing subtotal column")
	}
	if _, err := Parse(""); err == nil {
		t.Error("Expected error for empty payload")
	}
}

func TestParse_BlankRowIsARowError(t *testing.T) {
	doc, err := Parse("lat,lon,subtotal\n40.7,-74.0,10.00\n\n40.9,-74.2,30.00")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if doc.TotalRows != 3 {
		t.Errorf("Expected 3 data rows, got %d", doc.TotalRows)
	}
	if doc.Rows[0].Err != nil || doc.Rows[2].Err != nil {
		t.Errorf("Expected surrounding rows to parse: %v, %v", doc.Rows[0].Err, doc.Rows[2].Err)
	}
	if doc.Rows[1].Err == nil {
		t.Error("Expected blank row to carry an error")
	}
	if doc.Rows[1].Index != 2 {
		t.Errorf("Expected blank row index 2, got %d", doc.Rows[1].Index)
	}
}

func TestParse_MissingValuesAreARowError(t *testing.T) {
	doc, err := Parse("lat,lon,subtotal\n40.7,,10.00")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if doc.Rows[0].Err == nil {
		t.Error("Expected row with empty lon to carry an error")
	}
}

func TestParse_CRLFAndTrailingNewline(t *testing.T) {
	doc, err := Parse("lat,lon,subtotal\r\n40.7,-74.0,10.00\r\n")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if doc.TotalRows != 1 {
		t.Errorf("Expected trailing newline not to count as a row, got %d", doc.TotalRows)
	}
}

func TestCountDataRows(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"header only", "lat,lon,subtotal", 0},
		{"empty", "", 0},
		{"three rows", "h\na\nb\nc", 3},
		{"trailing newline", "h\na\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountDataRows(tt.text); got != tt.want {
				t.Errorf("CountDataRows(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    time.Time
		wantErr bool
	}{
		{"rfc3339 with zone", "2024-06-01T12:00:00-04:00", time.Date(2024, 6, 1, 16, 0, 0, 0, time.UTC), false},
		{"naive datetime is utc", "2024-06-01T12:00:00", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), false},
		{"space separator", "2024-06-01 12:00:00", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), false},
		{"date only", "2024-06-01", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), false},
		{"garbage", "not-a-date", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) returned error: %v", tt.raw, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

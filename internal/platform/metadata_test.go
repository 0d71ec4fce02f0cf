package platform

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

const singleVideoJSON = `{
  "id": "PPRjukghBYE",
  "title": "Single Video",
  "webpage_url": "https://www.youtube.com/watch?v=PPRjukghBYE",
  "ext": "mp4",
  "fps": 29.97,
  "filesize_approx": 1048576,
  "formats": [
    {"format_id": "140", "ext": "m4a", "resolution": "audio only", "fps": null},
    {"format_id": "18", "ext": "mp4", "resolution": "640x360", "fps": 30},
    {"format_id": "135", "ext": "mp4", "resolution": "854x480", "fps": 30},
    {"format_id": "135", "ext": "mp4", "resolution": "854x480", "fps": 30},
    {"ext": "mp4", "resolution": "1280x720"}
  ]
}`

func TestParseMetadata_SingleVideo(t *testing.T) {
	playlist, err := ParseMetadata([]byte(singleVideoJSON))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if playlist.ID != "" || playlist.Title != "" {
		t.Errorf("single payload should produce an untagged playlist, got id=%q title=%q", playlist.ID, playlist.Title)
	}
	if len(playlist.Records) != 1 || playlist.EntryCount != 1 {
		t.Fatalf("expected one record, got %d", len(playlist.Records))
	}

	record := playlist.Records[0]
	if record.ID != "PPRjukghBYE" || record.Title != "Single Video" {
		t.Errorf("unexpected identity: %+v", record)
	}
	if record.SourceURL != "https://www.youtube.com/watch?v=PPRjukghBYE" {
		t.Errorf("unexpected source url %q", record.SourceURL)
	}
	if record.FrameRate != "29.97" {
		t.Errorf("expected raw numeric text for fps, got %q", record.FrameRate)
	}
	if record.SizeBytes != 1048576 {
		t.Errorf("expected approximate size fallback, got %d", record.SizeBytes)
	}

	expectedIDs := []string{"140", "18", "135"}
	if len(record.Formats) != len(expectedIDs) {
		t.Fatalf("expected %d formats, got %d: %+v", len(expectedIDs), len(record.Formats), record.Formats)
	}
	for i, id := range expectedIDs {
		if record.Formats[i].FormatID != id {
			t.Errorf("format %d: expected %s, got %s", i, id, record.Formats[i].FormatID)
		}
	}
	if record.Formats[0].FrameRate != "" {
		t.Errorf("null fps should resolve to empty, got %q", record.Formats[0].FrameRate)
	}
	if record.Formats[2].Resolution != "854x480" {
		t.Errorf("unexpected resolution %q", record.Formats[2].Resolution)
	}
}

func TestParseMetadata_Playlist(t *testing.T) {
	var entries []string
	for i := 1; i <= 3; i++ {
		entries = append(entries, fmt.Sprintf(`{"id":"v%d","title":"Video %d","_type":"url","entries":"ignored","formats":[{"format_id":"18","ext":"mp4","resolution":"640x360"}]}`, i, i))
	}
	payload := `{"id":"PL123","title":"My Mix","_type":"playlist","entries":[` + strings.Join(entries, ",") + `]}`

	playlist, err := ParseMetadata([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if playlist.ID != "PL123" || playlist.Title != "My Mix" {
		t.Errorf("unexpected playlist identity id=%q title=%q", playlist.ID, playlist.Title)
	}
	if len(playlist.Records) != 3 || playlist.EntryCount != 3 {
		t.Fatalf("expected 3 records, got %d", len(playlist.Records))
	}
	for i, record := range playlist.Records {
		expected := fmt.Sprintf("v%d", i+1)
		if record.ID != expected {
			t.Errorf("record %d: expected %s, got %s", i, expected, record.ID)
		}
		if len(record.Formats) != 1 {
			t.Errorf("record %d: expected 1 format, got %d", i, len(record.Formats))
		}
	}
}

func TestParseMetadata_NullEntriesSkipped(t *testing.T) {
	playlist, err := ParseMetadata([]byte(`{"id":"PL","title":"T","entries":[null,{"id":"a"},42]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(playlist.Records) != 1 || playlist.Records[0].ID != "a" {
		t.Errorf("expected only the object entry, got %+v", playlist.Records)
	}
}

func TestParseMetadata_PartialData(t *testing.T) {
	playlist, err := ParseMetadata([]byte(`{"id": 12345, "title": ["not", "a", "string"], "formats": "oops"}`))
	if err != nil {
		t.Fatalf("partial data must not fail the parse: %v", err)
	}
	record := playlist.Records[0]
	if record.ID != "12345" {
		t.Errorf("expected numeric id as text, got %q", record.ID)
	}
	if record.Title != "" {
		t.Errorf("expected empty title for wrong type, got %q", record.Title)
	}
	if len(record.Formats) != 0 {
		t.Errorf("expected no formats, got %d", len(record.Formats))
	}
}

func TestParseMetadata_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"truncated", `{"id": "abc"`},
		{"not json", `ERROR: something`},
		{"array", `[{"id":"a"}]`},
		{"empty", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMetadata([]byte(tt.payload))
			if !errors.Is(err, ErrMetadataParse) {
				t.Errorf("expected ErrMetadataParse, got %v", err)
			}
		})
	}
}

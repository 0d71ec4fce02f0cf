package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ytget/ytin/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "nested", DefaultFileName), zerolog.Nop())
}

func record(id, title string) *model.MediaRecord {
	return &model.MediaRecord{
		ID:              id,
		Title:           title,
		FileName:        title + " [" + id + "].mp4",
		Extension:       "mp4",
		ProgressPercent: 100,
		SaveTimestamp:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Formats:         []model.MediaFormat{{FormatID: "18", Extension: "mp4", Resolution: "640x360"}},
	}
}

func playlist(id, title string, records ...*model.MediaRecord) *model.MediaPlaylist {
	p := model.NewPlaylist(id, title)
	for _, r := range records {
		p.AddRecord(r)
	}
	return p
}

func TestLoad_MissingFile(t *testing.T) {
	store := newTestStore(t)

	doc, err := store.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Entries == nil || len(doc.Entries) != 0 {
		t.Errorf("expected empty entries, got %v", doc.Entries)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{{{"},
		{"wrong shape", `{"entries": {"type": "video"}}`},
		{"entry not object", `{"entries": [42]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			writeFile(t, store.Path(), tt.content)

			_, err := store.Load()
			if !errors.Is(err, ErrHistoryCorrupt) {
				t.Errorf("expected ErrHistoryCorrupt, got %v", err)
			}
			if doc := store.LoadOrEmpty(); len(doc.Entries) != 0 {
				t.Errorf("expected empty fallback document, got %d entries", len(doc.Entries))
			}
		})
	}
}

func TestLoad_NullEntries(t *testing.T) {
	store := newTestStore(t)
	writeFile(t, store.Path(), `{"entries": null}`)

	doc, err := store.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Entries == nil {
		t.Error("expected entries to be normalized to an empty slice")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	writeFile(t, store.Path(), `{
  "entries": [
    {"type": "video", "media": {"id": "a", "title": "A", "formats": []}},
    {"type": "podcast", "feed": {"url": "https://example.com/rss"}},
    {"type": "playlist", "playlist": {"id": "PL", "title": "P", "entryCount": 1, "media": [{"id": "b", "title": "B"}]}}
  ]
}`)

	doc, err := store.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Videos()) != 1 || len(doc.Playlists()) != 1 {
		t.Fatalf("unexpected document %+v", doc)
	}
	if err := store.Save(doc); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	first := readJSON(t, store.Path())

	again, err := store.Load()
	if err != nil {
		t.Fatalf("unexpected reload error: %v", err)
	}
	if err := store.Save(again); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}
	second := readJSON(t, store.Path())

	if !reflect.DeepEqual(first, second) {
		t.Errorf("round trip changed the document:\n%v\n%v", first, second)
	}

	entries := first["entries"].([]any)
	unknown := entries[1].(map[string]any)
	if unknown["type"] != "podcast" || unknown["feed"] == nil {
		t.Errorf("unknown entry was not preserved: %v", unknown)
	}
}

func TestAppendVideo(t *testing.T) {
	store := newTestStore(t)

	if err := store.AppendVideo(record("a", "First")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.AppendVideo(record("b", "Second")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// same id again overwrites
	if err := store.AppendVideo(record("a", "First again")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc, err := store.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	videos := doc.Videos()
	if len(videos) != 2 {
		t.Fatalf("expected 2 videos, got %d", len(videos))
	}
	if videos[0].ID != "b" || videos[1].Title != "First again" {
		t.Errorf("unexpected order or content: %s, %s", videos[0].ID, videos[1].Title)
	}
	if !videos[1].SaveTimestamp.Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("timestamp not preserved: %v", videos[1].SaveTimestamp)
	}
}

func TestAppendPlaylist(t *testing.T) {
	store := newTestStore(t)

	if err := store.AppendVideo(record("b", "Loose")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.AppendPlaylist(playlist("PL", "Mix", record("a", "A"), record("b", "B"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc, err := store.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Videos()) != 0 {
		t.Errorf("member id should replace the loose video, got %d videos", len(doc.Videos()))
	}
	playlists := doc.Playlists()
	if len(playlists) != 1 || playlists[0].EntryCount != 2 || len(playlists[0].Records) != 2 {
		t.Fatalf("unexpected playlists %+v", playlists)
	}
}

func TestRemoveByID_PlaylistMember(t *testing.T) {
	store := newTestStore(t)
	if err := store.AppendPlaylist(playlist("PL", "Mix", record("a", "A"), record("b", "B"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	removed, err := store.RemoveByID("a")
	if err != nil || !removed {
		t.Fatalf("expected removal, got %v, %v", removed, err)
	}

	doc, _ := store.Load()
	playlists := doc.Playlists()
	if len(playlists) != 1 {
		t.Fatalf("playlist entry must remain, got %d", len(playlists))
	}
	if len(playlists[0].Records) != 1 || playlists[0].Records[0].ID != "b" {
		t.Errorf("unexpected members %+v", playlists[0].Records)
	}

	// removing the last member keeps an empty playlist
	if _, err := store.RemoveByID("b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc, _ = store.Load()
	if len(doc.Playlists()) != 1 || len(doc.Playlists()[0].Records) != 0 {
		t.Errorf("expected empty playlist to remain, got %+v", doc.Playlists())
	}
}

func TestRemoveByID_Idempotent(t *testing.T) {
	store := newTestStore(t)
	if err := store.AppendVideo(record("a", "A")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.AppendVideo(record("c", "C")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := store.RemoveByID("a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	once := readFile(t, store.Path())

	removed, err := store.RemoveByID("a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed {
		t.Error("second removal should report nothing removed")
	}
	if twice := readFile(t, store.Path()); !bytes.Equal(once, twice) {
		t.Error("second removal changed the file")
	}
}

func TestRemovePlaylistByTitle(t *testing.T) {
	store := newTestStore(t)
	if err := store.AppendPlaylist(playlist("PL1", "One", record("a", "A"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.AppendPlaylist(playlist("PL2", "Two", record("b", "B"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	removed, err := store.RemovePlaylistByTitle("One")
	if err != nil || !removed {
		t.Fatalf("expected removal, got %v, %v", removed, err)
	}
	doc, _ := store.Load()
	if len(doc.Playlists()) != 1 || doc.Playlists()[0].ID != "PL2" {
		t.Errorf("unexpected playlists %+v", doc.Playlists())
	}

	if removed, _ := store.RemovePlaylistByTitle("Missing"); removed {
		t.Error("expected nothing removed for unknown title")
	}
}

func TestMutationsRefuseCorruptFile(t *testing.T) {
	store := newTestStore(t)
	writeFile(t, store.Path(), "not json")

	if err := store.AppendVideo(record("a", "A")); !errors.Is(err, ErrHistoryCorrupt) {
		t.Errorf("expected ErrHistoryCorrupt, got %v", err)
	}
	if got := string(readFile(t, store.Path())); got != "not json" {
		t.Errorf("corrupt file was overwritten: %q", got)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear must succeed on a corrupt file: %v", err)
	}
	doc, err := store.Load()
	if err != nil || len(doc.Entries) != 0 {
		t.Errorf("expected empty document after clear, got %v, %v", doc, err)
	}
}

func TestSave_PersistFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	writeFile(t, blocker, "x")

	// parent path is a regular file
	store := NewStore(filepath.Join(blocker, DefaultFileName), zerolog.Nop())
	err := store.Save(model.NewHistoryDocument())
	if !errors.Is(err, ErrPersistFailure) {
		t.Fatalf("expected ErrPersistFailure, got %v", err)
	}

	var storeErr *StoreError
	if !errors.As(err, &storeErr) || storeErr.Path != store.Path() {
		t.Errorf("unexpected error details: %v", err)
	}
}

func TestAppendDoesNotAliasCaller(t *testing.T) {
	store := newTestStore(t)
	r := record("a", "A")
	if err := store.AppendVideo(r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.Title = "changed later"

	doc, _ := store.Load()
	if doc.Videos()[0].Title != "A" {
		t.Errorf("expected stored title A, got %q", doc.Videos()[0].Title)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return data
}

func readJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(readFile(t, path), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

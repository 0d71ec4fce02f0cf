package model

import (
	"encoding/json"
)

// EntryKind tags a history entry
type EntryKind string

const (
	EntryKindVideo    EntryKind = "video"
	EntryKindPlaylist EntryKind = "playlist"
)

// IsKnown reports whether this build understands the entry kind
func (k EntryKind) IsKnown() bool {
	return k == EntryKindVideo || k == EntryKindPlaylist
}

// HistoryEntry is one element of the history document: either a single
// video or a playlist. Entries of unknown kinds are carried verbatim so a
// document written by a newer build survives a load/save cycle.
type HistoryEntry struct {
	Kind     EntryKind
	Media    *MediaRecord
	Playlist *MediaPlaylist

	raw json.RawMessage
}

type historyEntryJSON struct {
	Type     EntryKind      `json:"type"`
	Media    *MediaRecord   `json:"media,omitempty"`
	Playlist *MediaPlaylist `json:"playlist,omitempty"`
}

// NewVideoEntry wraps a record as a history entry
func NewVideoEntry(record *MediaRecord) HistoryEntry {
	return HistoryEntry{Kind: EntryKindVideo, Media: record}
}

// NewPlaylistEntry wraps a playlist as a history entry
func NewPlaylistEntry(playlist *MediaPlaylist) HistoryEntry {
	return HistoryEntry{Kind: EntryKindPlaylist, Playlist: playlist}
}

// MarshalJSON implements json.Marshaler
func (e HistoryEntry) MarshalJSON() ([]byte, error) {
	if !e.Kind.IsKnown() && e.raw != nil {
		return e.raw, nil
	}
	return json.Marshal(historyEntryJSON{
		Type:     e.Kind,
		Media:    e.Media,
		Playlist: e.Playlist,
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (e *HistoryEntry) UnmarshalJSON(data []byte) error {
	var head struct {
		Type EntryKind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	if !head.Type.IsKnown() {
		*e = HistoryEntry{Kind: head.Type, raw: append(json.RawMessage(nil), data...)}
		return nil
	}

	var body historyEntryJSON
	if err := json.Unmarshal(data, &body); err != nil {
		return err
	}
	*e = HistoryEntry{Kind: body.Type, Media: body.Media, Playlist: body.Playlist}
	return nil
}

// HistoryDocument is the persisted list of completed downloads
type HistoryDocument struct {
	Entries []HistoryEntry `json:"entries"`
}

// NewHistoryDocument creates an empty document
func NewHistoryDocument() *HistoryDocument {
	return &HistoryDocument{Entries: make([]HistoryEntry, 0)}
}

// Videos returns the top-level video records in document order
func (d *HistoryDocument) Videos() []*MediaRecord {
	var videos []*MediaRecord
	for _, entry := range d.Entries {
		if entry.Kind == EntryKindVideo && entry.Media != nil {
			videos = append(videos, entry.Media)
		}
	}
	return videos
}

// Playlists returns the playlist entries in document order
func (d *HistoryDocument) Playlists() []*MediaPlaylist {
	var playlists []*MediaPlaylist
	for _, entry := range d.Entries {
		if entry.Kind == EntryKindPlaylist && entry.Playlist != nil {
			playlists = append(playlists, entry.Playlist)
		}
	}
	return playlists
}

// Find returns the record with the given ID, searching top-level videos
// first and then playlist members
func (d *HistoryDocument) Find(recordID string) (*MediaRecord, bool) {
	for _, video := range d.Videos() {
		if video.ID == recordID {
			return video, true
		}
	}
	for _, playlist := range d.Playlists() {
		if record, ok := playlist.FindRecord(recordID); ok {
			return record, true
		}
	}
	return nil, false
}

// RemoveByID deletes top-level video entries with the given ID and,
// independently, removes matching members from every playlist. Playlist
// entries stay in place even when left empty.
func (d *HistoryDocument) RemoveByID(recordID string) bool {
	removed := false

	kept := make([]HistoryEntry, 0, len(d.Entries))
	for _, entry := range d.Entries {
		if entry.Kind == EntryKindVideo && entry.Media != nil && entry.Media.ID == recordID {
			removed = true
			continue
		}
		kept = append(kept, entry)
	}
	d.Entries = kept

	for _, playlist := range d.Playlists() {
		if playlist.RemoveRecord(recordID) {
			removed = true
		}
	}
	return removed
}

// RemovePlaylistByTitle deletes the first playlist entry with the given title
func (d *HistoryDocument) RemovePlaylistByTitle(title string) bool {
	for i, entry := range d.Entries {
		if entry.Kind == EntryKindPlaylist && entry.Playlist != nil && entry.Playlist.Title == title {
			d.Entries = append(d.Entries[:i], d.Entries[i+1:]...)
			return true
		}
	}
	return false
}

// AppendVideo adds a video entry, replacing any earlier occurrence of its ID
func (d *HistoryDocument) AppendVideo(record *MediaRecord) {
	d.RemoveByID(record.ID)
	d.Entries = append(d.Entries, NewVideoEntry(record))
}

// AppendPlaylist adds a playlist entry. An earlier entry with the same
// playlist ID is replaced and member IDs are removed from everywhere else.
func (d *HistoryDocument) AppendPlaylist(playlist *MediaPlaylist) {
	if playlist.ID != "" {
		kept := make([]HistoryEntry, 0, len(d.Entries))
		for _, entry := range d.Entries {
			if entry.Kind == EntryKindPlaylist && entry.Playlist != nil && entry.Playlist.ID == playlist.ID {
				continue
			}
			kept = append(kept, entry)
		}
		d.Entries = kept
	}
	for _, record := range playlist.Records {
		if record != nil {
			d.RemoveByID(record.ID)
		}
	}
	d.Entries = append(d.Entries, NewPlaylistEntry(playlist))
}

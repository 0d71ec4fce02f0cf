package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ytget/ytin/internal/model"
	"github.com/ytget/ytin/internal/platform"
)

// DefaultFileName is the history file name inside the application data directory
const DefaultFileName = "history.json"

// Store reads and writes the history document at a fixed path
type Store struct {
	path string
	log  zerolog.Logger
}

// NewStore creates a store backed by path
func NewStore(path string, log zerolog.Logger) *Store {
	return &Store{path: path, log: log}
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// Load reads the document. A missing file yields an empty document; a file
// that cannot be decoded fails with ErrHistoryCorrupt.
func (s *Store) Load() (*model.HistoryDocument, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.NewHistoryDocument(), nil
	}
	if err != nil {
		return nil, &StoreError{Op: "read", Path: s.path, Kind: ErrHistoryCorrupt, Err: err}
	}

	doc := model.NewHistoryDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, &StoreError{Op: "decode", Path: s.path, Kind: ErrHistoryCorrupt, Err: err}
	}
	if doc.Entries == nil {
		doc.Entries = make([]model.HistoryEntry, 0)
	}
	return doc, nil
}

// LoadOrEmpty loads the document, degrading to an empty one when the file is
// unreadable
func (s *Store) LoadOrEmpty() *model.HistoryDocument {
	doc, err := s.Load()
	if err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("history unavailable, using empty document")
		return model.NewHistoryDocument()
	}
	return doc
}

// Save overwrites the backing file with doc. The document is written to a
// temporary file in the same directory and renamed over the target, so the
// previous file survives any failure.
func (s *Store) Save(doc *model.HistoryDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &StoreError{Op: "encode", Path: s.path, Kind: ErrPersistFailure, Err: err}
	}

	dir := filepath.Dir(s.path)
	if err := platform.CreateDirectoryIfNotExists(dir); err != nil {
		return &StoreError{Op: "mkdir", Path: s.path, Kind: ErrPersistFailure, Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return &StoreError{Op: "create", Path: s.path, Kind: ErrPersistFailure, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &StoreError{Op: "write", Path: s.path, Kind: ErrPersistFailure, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &StoreError{Op: "write", Path: s.path, Kind: ErrPersistFailure, Err: err}
	}
	if err := os.Chmod(tmpName, platform.DefaultFilePermissions); err != nil {
		return &StoreError{Op: "chmod", Path: s.path, Kind: ErrPersistFailure, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return &StoreError{Op: "rename", Path: s.path, Kind: ErrPersistFailure, Err: err}
	}
	return nil
}

// AppendVideo stores a completed video, replacing any entry with its ID
func (s *Store) AppendVideo(record *model.MediaRecord) error {
	err := s.update(func(doc *model.HistoryDocument) bool {
		doc.AppendVideo(record.Clone())
		return true
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("id", record.ID).Str("title", record.Title).Msg("saved new media")
	return nil
}

// AppendPlaylist stores a playlist of completed videos
func (s *Store) AppendPlaylist(playlist *model.MediaPlaylist) error {
	err := s.update(func(doc *model.HistoryDocument) bool {
		doc.AppendPlaylist(playlist.Clone())
		return true
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("playlist", playlist.ID).Str("title", playlist.Title).Int("entries", playlist.EntryCount).Msg("saved playlist")
	return nil
}

// RemoveByID deletes the record from top-level videos and from every
// playlist. It reports whether anything was removed; removing an unknown ID
// leaves the file unchanged.
func (s *Store) RemoveByID(recordID string) (bool, error) {
	var title string
	removed := false
	err := s.update(func(doc *model.HistoryDocument) bool {
		if record, ok := doc.Find(recordID); ok {
			title = record.Title
		}
		removed = doc.RemoveByID(recordID)
		return removed
	})
	if err != nil {
		return false, err
	}
	if removed {
		s.log.Info().Str("id", recordID).Str("title", title).Msg("removed media")
	}
	return removed, nil
}

// RemovePlaylistByTitle deletes the first playlist entry with the title
func (s *Store) RemovePlaylistByTitle(title string) (bool, error) {
	removed := false
	err := s.update(func(doc *model.HistoryDocument) bool {
		removed = doc.RemovePlaylistByTitle(title)
		return removed
	})
	if err != nil {
		return false, err
	}
	if removed {
		s.log.Info().Str("title", title).Msg("removed playlist")
	}
	return removed, nil
}

// Clear replaces the document with an empty one, including a corrupt file
func (s *Store) Clear() error {
	if err := s.Save(model.NewHistoryDocument()); err != nil {
		return err
	}
	s.log.Info().Str("path", s.path).Msg("history cleared")
	return nil
}

// update runs one load, modify, save cycle. fn reports whether the document
// changed; unchanged documents are not written back.
func (s *Store) update(fn func(doc *model.HistoryDocument) bool) error {
	doc, err := s.Load()
	if err != nil {
		return fmt.Errorf("refusing to overwrite history: %w", err)
	}
	if !fn(doc) {
		return nil
	}
	return s.Save(doc)
}

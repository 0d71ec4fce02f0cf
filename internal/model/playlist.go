package model

// MediaPlaylist is an ordered collection of media records sharing one
// source playlist identifier. A metadata query for a single item yields a
// playlist of one with an empty ID.
type MediaPlaylist struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	EntryCount int            `json:"entryCount"`
	Records    []*MediaRecord `json:"media"`
}

// NewPlaylist creates an empty playlist
func NewPlaylist(id, title string) *MediaPlaylist {
	return &MediaPlaylist{
		ID:      id,
		Title:   title,
		Records: make([]*MediaRecord, 0),
	}
}

// AddRecord appends a record keeping source order
func (p *MediaPlaylist) AddRecord(record *MediaRecord) {
	p.Records = append(p.Records, record)
	p.EntryCount = len(p.Records)
}

// RemoveRecord removes every record with the given ID and reports whether
// anything was removed
func (p *MediaPlaylist) RemoveRecord(recordID string) bool {
	kept := p.Records[:0]
	removed := false
	for _, record := range p.Records {
		if record != nil && record.ID == recordID {
			removed = true
			continue
		}
		kept = append(kept, record)
	}
	for i := len(kept); i < len(p.Records); i++ {
		p.Records[i] = nil
	}
	p.Records = kept
	p.EntryCount = len(p.Records)
	return removed
}

// FindRecord returns the record with the given ID
func (p *MediaPlaylist) FindRecord(recordID string) (*MediaRecord, bool) {
	for _, record := range p.Records {
		if record != nil && record.ID == recordID {
			return record, true
		}
	}
	return nil, false
}

// IsSingle reports whether the playlist wraps one non-playlist item
func (p *MediaPlaylist) IsSingle() bool {
	return p.ID == "" && len(p.Records) == 1
}

// Clone returns a deep copy of the playlist and its records
func (p *MediaPlaylist) Clone() *MediaPlaylist {
	if p == nil {
		return nil
	}
	c := &MediaPlaylist{
		ID:         p.ID,
		Title:      p.Title,
		EntryCount: p.EntryCount,
		Records:    make([]*MediaRecord, 0, len(p.Records)),
	}
	for _, record := range p.Records {
		c.Records = append(c.Records, record.Clone())
	}
	return c
}

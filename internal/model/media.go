package model

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Progress sentinels written when a run completes
const (
	IdleSpeed = "0 KiB/s"
	ZeroETA   = "00:00"
)

// AudioOnlyResolution is the resolution label the external tool reports for audio streams
const AudioOnlyResolution = "audio only"

// MediaFormat is one selectable encoding of a media item
type MediaFormat struct {
	FormatID   string `json:"formatId"`
	Extension  string `json:"extension"`
	Resolution string `json:"resolution"` // "WxH", "audio only" or empty
	FrameRate  string `json:"frameRate"`
}

// IsAudioOnly reports whether the format carries no video stream
func (f MediaFormat) IsAudioOnly() bool {
	return strings.EqualFold(strings.TrimSpace(f.Resolution), AudioOnlyResolution)
}

// MediaRecord represents a single downloadable media item
type MediaRecord struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	FileName        string        `json:"fileName"`
	Extension       string        `json:"extension"`
	ChosenFormat    string        `json:"chosenFormat"`
	FrameRate       string        `json:"frameRate"`
	SizeBytes       int64         `json:"sizeBytes"`
	CompactSize     string        `json:"compactSize"`
	ProgressPercent float64       `json:"progressPercent"` // 0 to 100
	Speed           string        `json:"speed"`
	ETA             string        `json:"eta"`
	SourceURL       string        `json:"sourceUrl"`
	SavePath        string        `json:"savePath"`
	SaveTimestamp   time.Time     `json:"saveTimestamp"`
	Formats         []MediaFormat `json:"formats"`
}

// Progress is a copy of the mutable progress fields of a record
type Progress struct {
	Percent     float64 `json:"percent"`
	Speed       string  `json:"speed"`
	ETA         string  `json:"eta"`
	CompactSize string  `json:"compactSize,omitempty"`
}

// Progress returns a snapshot of the record's progress fields
func (r *MediaRecord) Progress() Progress {
	return Progress{
		Percent:     r.ProgressPercent,
		Speed:       r.Speed,
		ETA:         r.ETA,
		CompactSize: r.CompactSize,
	}
}

// ResetProgress clears progress fields at the start of a new run
func (r *MediaRecord) ResetProgress() {
	r.ProgressPercent = 0
	r.Speed = ""
	r.ETA = ""
}

// MarkComplete forces the finished progress state. The size label is kept
// only when non-empty.
func (r *MediaRecord) MarkComplete(sizeLabel string) {
	r.ProgressPercent = 100
	r.Speed = IdleSpeed
	r.ETA = ZeroETA
	if sizeLabel != "" {
		r.CompactSize = sizeLabel
	}
}

// PrepareFileName sets the extension and derives the file name the external
// tool writes with its default output template: "<title> [<id>].<ext>".
func (r *MediaRecord) PrepareFileName(extension string) {
	r.Extension = strings.ToLower(strings.TrimSpace(extension))
	r.FileName = fmt.Sprintf("%s [%s].%s", r.Title, r.ID, r.Extension)
}

// FilePath returns the expected location of the downloaded file
func (r *MediaRecord) FilePath() string {
	if r.SavePath == "" || r.FileName == "" {
		return ""
	}
	return filepath.Join(r.SavePath, r.FileName)
}

// GetDisplayTitle returns title, file name, or URL in order of preference
func (r *MediaRecord) GetDisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	if r.FileName != "" {
		return r.FileName
	}
	return r.SourceURL
}

// Clone returns a deep copy of the record
func (r *MediaRecord) Clone() *MediaRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.Formats != nil {
		c.Formats = make([]MediaFormat, len(r.Formats))
		copy(c.Formats, r.Formats)
	}
	return &c
}

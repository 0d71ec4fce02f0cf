package platform

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/ytget/ytin/internal/model"
)

// Metadata payload keys
const (
	KeyEntries        = "entries"
	KeyID             = "id"
	KeyTitle          = "title"
	KeyWebpageURL     = "webpage_url"
	KeyOriginalURL    = "original_url"
	KeyURL            = "url"
	KeyExt            = "ext"
	KeyFPS            = "fps"
	KeyFilesize       = "filesize"
	KeyFilesizeApprox = "filesize_approx"
	KeyFilename       = "filename"
	KeyFormats        = "formats"
	KeyFormatID       = "format_id"
	KeyResolution     = "resolution"
)

var errNotObject = errors.New("top-level value is not a JSON object")

// ParseMetadata converts the tool's metadata payload into a playlist. A
// payload with an "entries" array becomes a playlist of its entries; any
// other object becomes a playlist of one with an empty ID. Missing or
// mistyped fields resolve to zero values; only a malformed top-level
// document fails.
func ParseMetadata(data []byte) (*model.MediaPlaylist, error) {
	root, err := decodeObject(data)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	if entries, ok := root[KeyEntries].([]any); ok {
		playlist := model.NewPlaylist(stringField(root, KeyID), stringField(root, KeyTitle))
		for _, entry := range entries {
			// unavailable playlist items are reported as null
			obj, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			playlist.AddRecord(parseRecord(obj))
		}
		return playlist, nil
	}

	playlist := model.NewPlaylist("", "")
	playlist.AddRecord(parseRecord(root))
	return playlist, nil
}

func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return obj, nil
}

func parseRecord(obj map[string]any) *model.MediaRecord {
	record := &model.MediaRecord{
		ID:        stringField(obj, KeyID),
		Title:     stringField(obj, KeyTitle),
		SourceURL: firstString(obj, KeyWebpageURL, KeyOriginalURL, KeyURL),
		Extension: stringField(obj, KeyExt),
		FrameRate: stringField(obj, KeyFPS),
		FileName:  stringField(obj, KeyFilename),
		SizeBytes: int64Field(obj, KeyFilesize),
		Formats:   make([]model.MediaFormat, 0),
	}
	if record.SizeBytes == 0 {
		record.SizeBytes = int64Field(obj, KeyFilesizeApprox)
	}

	formats, _ := obj[KeyFormats].([]any)
	seen := make(map[string]bool, len(formats))
	for _, item := range formats {
		f, ok := item.(map[string]any)
		if !ok {
			continue
		}
		format := model.MediaFormat{
			FormatID:   stringField(f, KeyFormatID),
			Extension:  stringField(f, KeyExt),
			Resolution: stringField(f, KeyResolution),
			FrameRate:  stringField(f, KeyFPS),
		}
		if format.FormatID == "" || seen[format.FormatID] {
			continue
		}
		seen[format.FormatID] = true
		record.Formats = append(record.Formats, format)
	}
	return record
}

// stringField renders strings, numbers and booleans as text; other JSON
// types resolve to ""
func stringField(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func firstString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := stringField(obj, key); s != "" {
			return s
		}
	}
	return ""
}

func int64Field(obj map[string]any, key string) int64 {
	switch v := obj[key].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if f, err := v.Float64(); err == nil {
			return int64(f)
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n
		}
	}
	return 0
}

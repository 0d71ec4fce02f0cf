package download

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ytget/ytin/internal/model"
)

// Quality labels offered for selection
const (
	QualityMP4144p  = "MP4 (144p)"
	QualityMP4240p  = "MP4 (240p)"
	QualityMP4360p  = "MP4 (360p)"
	QualityMP4480p  = "MP4 (480p)"
	QualityMP4720p  = "MP4 (720p)"
	QualityMP41080p = "MP4 (1080p)"
	QualityMP41440p = "MP4 (1440p)"
	QualityMP3Audio = "MP3 (audio only)"
	QualityWEBM     = "WEBM"

	DefaultQuality = QualityMP4720p
)

// AudioExtractFormat is the target of audio-only quality labels
const AudioExtractFormat = "mp3"

// QualityLabels lists the labels in menu order
var QualityLabels = []string{
	QualityMP4144p,
	QualityMP4240p,
	QualityMP4360p,
	QualityMP4480p,
	QualityMP4720p,
	QualityMP41080p,
	QualityMP41440p,
	QualityMP3Audio,
	QualityWEBM,
}

var (
	labelHeightRe = regexp.MustCompile(`\((\d+)p\)`)
	sizeHeightRe  = regexp.MustCompile(`^\s*\d+\s*[xX×х]\s*(\d+)\s*$`)
	pHeightRe     = regexp.MustCompile(`(?i)^\s*(\d+)p\d*\s*$`)
)

// Quality is a parsed quality label
type Quality struct {
	Label     string
	Extension string
	Height    int
	AudioOnly bool
}

// ParseQuality splits a label like "MP4 (480p)" into extension and height.
// The extension is the lowercase first word of the label.
func ParseQuality(label string) Quality {
	q := Quality{Label: label}
	fields := strings.Fields(label)
	if len(fields) > 0 {
		q.Extension = strings.ToLower(fields[0])
	}
	if m := labelHeightRe.FindStringSubmatch(label); m != nil {
		q.Height, _ = strconv.Atoi(m[1])
	}
	q.AudioOnly = strings.Contains(strings.ToLower(label), model.AudioOnlyResolution)
	return q
}

// FormatHeight returns the pixel height of a "WxH" or "Np" resolution label.
// Audio-only and unparsable labels return 0.
func FormatHeight(resolution string) int {
	if m := sizeHeightRe.FindStringSubmatch(resolution); m != nil {
		h, _ := strconv.Atoi(m[1])
		return h
	}
	if m := pHeightRe.FindStringSubmatch(resolution); m != nil {
		h, _ := strconv.Atoi(m[1])
		return h
	}
	return 0
}

// Selection is the outcome of a successful format selection
type Selection struct {
	Format      model.MediaFormat
	Quality     Quality
	AudioFormat string // non-empty when audio extraction is requested
	Exact       bool
}

// SelectFormat picks the format of the record that satisfies the quality
// label. An exact (extension, height) match wins, the last one when several
// exist; otherwise the highest format of the same extension strictly below
// the target height is chosen.
func SelectFormat(record *model.MediaRecord, label string) (Selection, error) {
	q := ParseQuality(label)
	if len(record.Formats) == 0 {
		return Selection{}, &FormatUnavailableError{RecordID: record.ID, Quality: label, Reason: "no formats"}
	}

	if q.AudioOnly {
		return selectAudio(record, q)
	}

	if q.Height == 0 {
		if f, ok := highestOfExtension(record.Formats, q.Extension, 0); ok {
			return Selection{Format: f, Quality: q}, nil
		}
		return Selection{}, &FormatUnavailableError{RecordID: record.ID, Quality: label}
	}

	exact := -1
	for i, f := range record.Formats {
		if sameExtension(f, q.Extension) && FormatHeight(f.Resolution) == q.Height {
			exact = i
		}
	}
	if exact >= 0 {
		return Selection{Format: record.Formats[exact], Quality: q, Exact: true}, nil
	}

	if f, ok := highestOfExtension(record.Formats, q.Extension, q.Height); ok {
		return Selection{Format: f, Quality: q}, nil
	}
	return Selection{}, &FormatUnavailableError{RecordID: record.ID, Quality: label}
}

func selectAudio(record *model.MediaRecord, q Quality) (Selection, error) {
	chosen := -1
	preferred := false
	for i, f := range record.Formats {
		if !f.IsAudioOnly() {
			continue
		}
		match := sameExtension(f, q.Extension)
		if match || !preferred {
			chosen = i
			preferred = preferred || match
		}
	}
	if chosen < 0 {
		return Selection{}, &FormatUnavailableError{RecordID: record.ID, Quality: q.Label}
	}
	return Selection{
		Format:      record.Formats[chosen],
		Quality:     q,
		AudioFormat: AudioExtractFormat,
		Exact:       preferred,
	}, nil
}

// highestOfExtension returns the tallest format of ext below limit; a zero
// limit means unbounded. Height 0 formats are never chosen.
func highestOfExtension(formats []model.MediaFormat, ext string, limit int) (model.MediaFormat, bool) {
	best := -1
	bestHeight := 0
	for i, f := range formats {
		if !sameExtension(f, ext) {
			continue
		}
		h := FormatHeight(f.Resolution)
		if h == 0 || (limit > 0 && h >= limit) {
			continue
		}
		if h >= bestHeight {
			best = i
			bestHeight = h
		}
	}
	if best < 0 {
		return model.MediaFormat{}, false
	}
	return formats[best], true
}

func sameExtension(f model.MediaFormat, ext string) bool {
	return strings.EqualFold(strings.TrimSpace(f.Extension), ext)
}

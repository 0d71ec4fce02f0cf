package download

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ytget/ytin/internal/model"
	"github.com/ytget/ytin/internal/platform"
)

// LineKind is the classification of one output line
type LineKind int

const (
	LineIgnored LineKind = iota
	LineProgress
	LineCompleted
	LineError
)

func (k LineKind) String() string {
	switch k {
	case LineProgress:
		return "progress"
	case LineCompleted:
		return "completed"
	case LineError:
		return "error"
	default:
		return "ignored"
	}
}

// UnknownErrorMessage is reported for error lines no known pattern matches
const UnknownErrorMessage = "Unknown error."

// KnownError maps an output substring to a human readable message
type KnownError struct {
	Substring string
	Message   string
}

// KnownErrors is checked in order; the first case-insensitive match wins
var KnownErrors = []KnownError{
	{"HTTP Error", "Network issue or invalid URL."},
	{"404", "Video not found (HTTP 404)."},
	{"Unsupported URL", "Unsupported link format."},
	{"Unable to extract", "Video information could not be extracted."},
	{"Geo-restricted", "Video is restricted in your region."},
	{"This video is private", "The video is private."},
	{"Sign in to confirm your age", "Age restriction: login required."},
	{"broken", "Download broken or incomplete."},
}

var (
	progressRe = regexp.MustCompile(`(?i)\[download\]\s+(?P<percent>\d+(?:[.,]\d+)?)%\s+of\s+~?\s*[\d.,]+\s*\w+\s+at\s+(?P<speed>.+?)\s+ETA\s+(?P<eta>\S+)`)

	// trailing elapsed time and rate vary between tool versions
	completionRe = regexp.MustCompile(`(?i)\[download\]\s+100(?:[.,]0+)?%\s+of\s+~?\s*(?P<size>[\d.,]+\s*[a-z]+)(?:\s+in\s+(?P<elapsed>\S+))?(?:\s+at\s+(?P<rate>\S+))?`)

	alreadyDownloadedRe = regexp.MustCompile(`(?i)\[download\]\s+.+\s+has already been downloaded`)

	progressPercent = progressRe.SubexpIndex("percent")
	progressSpeed   = progressRe.SubexpIndex("speed")
	progressETA     = progressRe.SubexpIndex("eta")
	completionSize  = completionRe.SubexpIndex("size")
)

// Classification is the outcome of classifying one line
type Classification struct {
	Kind    LineKind
	Message string
}

// Classifier applies the progress, completion and error patterns to output
// lines. It keeps no state between calls; all effects land on the record.
type Classifier struct {
	known []KnownError
}

// NewClassifier creates a classifier using KnownErrors
func NewClassifier() *Classifier {
	return &Classifier{known: KnownErrors}
}

// Classify inspects one line and updates the record's progress fields.
// Error patterns are applied to standard error lines only.
func (c *Classifier) Classify(line platform.Line, record *model.MediaRecord) Classification {
	text := line.Text

	if m := progressRe.FindStringSubmatch(text); m != nil {
		applyProgress(record, m)
		return Classification{Kind: LineProgress}
	}

	if m := completionRe.FindStringSubmatch(text); m != nil {
		record.MarkComplete(strings.TrimSpace(m[completionSize]))
		return Classification{Kind: LineCompleted}
	}
	if alreadyDownloadedRe.MatchString(text) {
		record.MarkComplete("")
		return Classification{Kind: LineCompleted}
	}

	if line.Stream == platform.Stderr {
		if msg, ok := c.matchError(text); ok {
			return Classification{Kind: LineError, Message: msg}
		}
	}
	return Classification{Kind: LineIgnored}
}

func (c *Classifier) matchError(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, known := range c.known {
		if strings.Contains(lower, strings.ToLower(known.Substring)) {
			return known.Message, true
		}
	}
	if strings.Contains(lower, "error") {
		return UnknownErrorMessage, true
	}
	return "", false
}

func applyProgress(record *model.MediaRecord, m []string) {
	percent, err := parsePercent(m[progressPercent])
	// 100 is left to the completion line
	if err == nil && percent >= record.ProgressPercent && percent != 100 {
		record.ProgressPercent = percent
	}
	record.Speed = strings.TrimSpace(m[progressSpeed])
	record.ETA = strings.TrimSpace(m[progressETA])
}

func parsePercent(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}

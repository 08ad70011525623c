// Package transcript defines the structured transcript shared by engines,
// the chunk merger, the cache and the renderer.
package transcript

import (
	"sort"
	"strings"

	"github.com/otranscribe/otranscribe/internal/errs"
)

// Format is an engine response format.
type Format string

const (
	FormatDiarizedJSON Format = "diarized_json"
	FormatJSON         Format = "json"
	FormatText         Format = "text"
	FormatSRT          Format = "srt"
	FormatVTT          Format = "vtt"
	FormatVerboseJSON  Format = "verbose_json"
)

// Formats lists every supported response format.
var Formats = []Format{FormatDiarizedJSON, FormatJSON, FormatText, FormatSRT, FormatVTT, FormatVerboseJSON}

// ParseFormat validates a response format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", errs.Configf("unknown response format %q", s)
}

// IsJSON reports whether payloads of this format are JSON documents.
func (f Format) IsJSON() bool {
	return f == FormatJSON || f == FormatVerboseJSON || f == FormatDiarizedJSON
}

// Extension is the file extension used for raw output of this format.
func (f Format) Extension() string {
	if f.IsJSON() {
		return "json"
	}
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// Item is one timed span of recognised speech.
type Item struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
}

// Transcript is an ordered sequence of items plus payload-level metadata.
type Transcript struct {
	Items    []Item
	Language string
	Format   Format
	// Text is the engine's full-text field, used when there are no items.
	Text string
}

// SortItems stable-sorts items by start time in place.
func SortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Start < items[j].Start
	})
}

// Ordered reports whether items are non-decreasing in start time.
func Ordered(items []Item) bool {
	for i := 1; i < len(items); i++ {
		if items[i].Start < items[i-1].Start {
			return false
		}
	}
	return true
}

// JoinText concatenates the trimmed text of every item.
func JoinText(items []Item) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		if t := strings.TrimSpace(it.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

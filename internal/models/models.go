// ABOUTME: Core data model for journal entries: text notes and audio clips.
// ABOUTME: Entry bodies form a closed sum type; categories are normalized tag strings.
package models

import (
	"sort"
	"strings"
	"time"
)

// Kind identifies the variant of an entry body. It is fixed at creation.
type Kind string

const (
	KindText  Kind = "text"
	KindAudio Kind = "audio"
)

// DefaultAudioMIMEType is assumed when a recording declares no media type.
const DefaultAudioMIMEType = "audio/webm"

// Body is the kind-specific payload of an entry. The set of implementations
// is closed: TextNote and AudioClip.
type Body interface {
	Kind() Kind
	searchText() string
}

// TextNote is a typed-in note.
type TextNote struct {
	Text string
}

// Kind implements Body.
func (TextNote) Kind() Kind { return KindText }

func (n TextNote) searchText() string { return n.Text }

// AudioClip is a recorded note. Transcript is reserved and currently always empty.
type AudioClip struct {
	Data       []byte
	MIMEType   string
	Transcript string
}

// Kind implements Body.
func (AudioClip) Kind() Kind { return KindAudio }

func (c AudioClip) searchText() string { return c.Transcript }

// Entry is one journal record.
type Entry struct {
	ID         int64
	CreatedAt  time.Time
	Body       Body
	Categories []string
	Embedding  []float32
}

// NewTextEntry creates an unsaved text entry stamped with the current time.
func NewTextEntry(text string, categories []string) *Entry {
	return &Entry{
		CreatedAt:  now(),
		Body:       TextNote{Text: text},
		Categories: categories,
	}
}

// NewAudioEntry creates an unsaved audio entry stamped with the current time.
func NewAudioEntry(data []byte, mimeType string, categories []string) *Entry {
	if mimeType == "" {
		mimeType = DefaultAudioMIMEType
	}
	return &Entry{
		CreatedAt:  now(),
		Body:       AudioClip{Data: data, MIMEType: mimeType},
		Categories: categories,
	}
}

// now is truncated to milliseconds, the resolution entries are persisted with.
func now() time.Time {
	return time.UnixMilli(time.Now().UnixMilli())
}

// Kind returns the kind of the entry body.
func (e *Entry) Kind() Kind {
	if e.Body == nil {
		return ""
	}
	return e.Body.Kind()
}

// SearchText returns the text searches run against: the note text for text
// entries, the transcript for audio entries. Empty means the entry cannot be
// matched or scored.
func (e *Entry) SearchText() string {
	if e.Body == nil {
		return ""
	}
	return e.Body.searchText()
}

// HasAnyCategory reports whether the entry carries at least one of the given tags.
func (e *Entry) HasAnyCategory(selected map[string]struct{}) bool {
	for _, c := range e.Categories {
		if _, ok := selected[c]; ok {
			return true
		}
	}
	return false
}

// ParseCategories splits comma-separated user input into trimmed, lowercased
// tags, dropping empty items. Duplicates are kept.
func ParseCategories(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, strings.ToLower(part))
	}
	return out
}

// UniqueCategories returns the sorted set of categories used across entries.
func UniqueCategories(entries []*Entry) []string {
	seen := make(map[string]struct{})
	for _, e := range entries {
		for _, c := range e.Categories {
			seen[c] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// SortNewestFirst orders entries by creation time descending, newest first.
// Entries created in the same millisecond fall back to id descending.
func SortNewestFirst(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].ID > entries[j].ID
	})
}

// Package session persists one named transcription session: an append-only
// JSONL event log, a plain-text rendering of the transcript, the recorded
// audio, and resumable state. Reopening an existing session name appends to
// its files; nothing is ever truncated or deleted.
package session

import (
	"fmt"
	"time"
)

// Span identifies the audio time range a piece of text was recognized from.
// Two final events with the same span describe the same speech; the later
// one wins.
type Span struct {
	StartMs int `json:"start_ms"`
	EndMs   int `json:"end_ms"`
}

// Key returns the span identity used for last-write-wins deduplication.
func (s Span) Key() string {
	return fmt.Sprintf("%d-%d", s.StartMs, s.EndMs)
}

// Event is one unit of recognized or translated text. Events are ordered by
// arrival and append-only; an event is never mutated after being final.
type Event struct {
	Span               Span      `json:"span"`
	Text               string    `json:"text"`
	Language           string    `json:"language,omitempty"`
	LanguageConfidence float64   `json:"language_confidence,omitempty"`
	Speaker            int       `json:"speaker,omitempty"` // 0 means unattributed
	Final              bool      `json:"final"`
	Translation        bool      `json:"translation,omitempty"`
	SourceLanguage     string    `json:"source_language,omitempty"`
	ReceivedAt         time.Time `json:"received_at"`
}

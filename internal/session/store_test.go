package session

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func openTestStore(t *testing.T, base, name string) *Store {
	t.Helper()
	s, err := OpenOrCreate(base, name, 16000, 1, LanguageConfig{Target: "en"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenOrCreate: %v", err)
	}
	return s
}

func TestStoreCreatesSessionFiles(t *testing.T) {
	base := t.TempDir()
	s := openTestStore(t, base, "first")
	s.Append(finalEvent(0, 500, 1, "en", "Hello."))
	s.AppendAudio(make([]byte, 3200))
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	dir := filepath.Join(base, "first")
	for _, name := range []string{"transcript.jsonl", "transcript.txt", "audio.wav", "state.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	text, err := os.ReadFile(filepath.Join(dir, "transcript.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(text), "Hello.") {
		t.Errorf("transcript.txt = %q, want Hello.", text)
	}
}

func TestStoreReopenAppends(t *testing.T) {
	base := t.TempDir()

	s := openTestStore(t, base, "xmas-dinner")
	if s.Resumed() {
		t.Error("fresh session reported as resumed")
	}
	s.Append(finalEvent(0, 900, 1, "uk", "Вечеря готова."))
	s.AppendAudio(make([]byte, 6400))
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s = openTestStore(t, base, "xmas-dinner")
	if !s.Resumed() {
		t.Error("second open did not resume")
	}
	if s.EventCount() != 1 {
		t.Fatalf("EventCount after resume = %d, want 1", s.EventCount())
	}
	s.Append(finalEvent(1000, 1800, 2, "en", "Smells great."))
	s.AppendAudio(make([]byte, 6400))
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	dir := filepath.Join(base, "xmas-dinner")
	text, err := os.ReadFile(filepath.Join(dir, "transcript.txt"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Вечеря готова.", "Smells great."} {
		if !strings.Contains(string(text), want) {
			t.Errorf("transcript.txt missing %q:\n%s", want, text)
		}
	}

	wav, err := os.ReadFile(filepath.Join(dir, "audio.wav"))
	if err != nil {
		t.Fatal(err)
	}
	dataSize := binary.LittleEndian.Uint32(wav[40:44])
	if dataSize != 12800 {
		t.Errorf("audio data size = %d, want 12800", dataSize)
	}
}

func TestStoreLastWriteWins(t *testing.T) {
	base := t.TempDir()

	s := openTestStore(t, base, "lww")
	s.Append(finalEvent(0, 500, 1, "en", "draft"))
	s.Append(finalEvent(500, 900, 1, "en", " tail"))
	s.Append(finalEvent(0, 500, 1, "en", "revised"))
	if s.EventCount() != 2 {
		t.Fatalf("EventCount = %d, want 2", s.EventCount())
	}
	events := s.Events()
	if events[0].Text != "revised" {
		t.Errorf("events[0].Text = %q, want revised (order of first appearance kept)", events[0].Text)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// The log keeps every append; replay must converge to the same state.
	s = openTestStore(t, base, "lww")
	if s.EventCount() != 2 {
		t.Fatalf("EventCount after replay = %d, want 2", s.EventCount())
	}
	if got := s.Events()[0].Text; got != "revised" {
		t.Errorf("replayed events[0].Text = %q, want revised", got)
	}
	s.Close()
}

func TestStoreIgnoresInterimEvents(t *testing.T) {
	s := openTestStore(t, t.TempDir(), "interim")
	defer s.Close()

	s.Append(Event{Span: Span{StartMs: 0, EndMs: 200}, Text: "maybe", Final: false})
	if s.EventCount() != 0 {
		t.Errorf("interim event was stored, count = %d", s.EventCount())
	}
}

func TestStoreTranslationDoesNotCollideWithOriginal(t *testing.T) {
	s := openTestStore(t, t.TempDir(), "collide")
	defer s.Close()

	s.Append(finalEvent(0, 500, 1, "uk", "Так."))
	s.Append(Event{
		Span: Span{StartMs: 0, EndMs: 500}, Speaker: 1,
		Language: "en", SourceLanguage: "uk",
		Text: "Yes.", Final: true, Translation: true,
	})
	if s.EventCount() != 2 {
		t.Errorf("EventCount = %d, want 2 (translation has its own identity)", s.EventCount())
	}
}

func TestStorePersistsSpeakerProfiles(t *testing.T) {
	base := t.TempDir()

	s := openTestStore(t, base, "speakers")
	s.ResolveLanguage(Event{Speaker: 3, Language: "uk", LanguageConfidence: 0.9})
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s = openTestStore(t, base, "speakers")
	defer s.Close()
	got := s.ResolveLanguage(Event{Speaker: 3, Language: "es", LanguageConfidence: 0.2})
	if got != "uk" {
		t.Errorf("ResolveLanguage after reopen = %q, want uk from persisted profile", got)
	}
}

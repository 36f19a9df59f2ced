package app

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jcllobet/mother-in-law-decoder/internal/session"
	"github.com/jcllobet/mother-in-law-decoder/internal/transcriber"
)

func testModel() Model {
	m := New(nil, "xmas-dinner", "USB Microphone", "en")
	m.width = 80
	m.height = 24
	return m
}

func finalUpdate(evs ...session.Event) transcriber.Update {
	return transcriber.Update{Kind: transcriber.KindTokens, Finals: evs, Total: len(evs)}
}

func finalEvent(start, end, speaker int, lang, text string) session.Event {
	return session.Event{
		Span:     session.Span{StartMs: start, EndMs: end},
		Speaker:  speaker,
		Language: lang,
		Text:     text,
		Final:    true,
	}
}

func TestNewModel(t *testing.T) {
	m := testModel()
	if !m.live {
		t.Error("new model should be in live mode")
	}
	if m.exiting {
		t.Error("new model should not be exiting")
	}
}

func TestTokensUpdateAppendsFinals(t *testing.T) {
	m := testModel()

	m.handleUpdate(finalUpdate(finalEvent(0, 500, 1, "en", "Hello")))
	if len(m.finals) != 1 {
		t.Fatalf("finals = %d, want 1", len(m.finals))
	}

	view := m.View()
	if !strings.Contains(view, "Hello") {
		t.Errorf("view missing final text:\n%s", view)
	}
	if !strings.Contains(view, "Speaker 1:") {
		t.Errorf("view missing speaker heading:\n%s", view)
	}
}

func TestDuplicateSpanReplacesEarlierFinal(t *testing.T) {
	m := testModel()

	m.handleUpdate(finalUpdate(finalEvent(0, 500, 1, "en", "draft")))
	m.handleUpdate(finalUpdate(finalEvent(0, 500, 1, "en", "revised")))

	if len(m.finals) != 1 {
		t.Fatalf("finals = %d, want 1", len(m.finals))
	}
	if m.finals[0].Text != "revised" {
		t.Errorf("finals[0].Text = %q, want revised", m.finals[0].Text)
	}
}

func TestInterimShownButNotKept(t *testing.T) {
	m := testModel()

	m.handleUpdate(transcriber.Update{
		Kind:     transcriber.KindTokens,
		Interims: []session.Event{{Text: " maybe", Language: "en"}},
	})
	if m.interim != "maybe" {
		t.Errorf("interim = %q, want maybe", m.interim)
	}
	if len(m.finals) != 0 {
		t.Errorf("interims must not be kept as finals, got %d", len(m.finals))
	}
}

func TestViewToggleAndScrollKeys(t *testing.T) {
	m := testModel()

	updated, _ := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'v'}})
	m = updated.(Model)
	if m.live {
		t.Fatal("v should enter scrollback")
	}

	updated, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'v'}})
	m = updated.(Model)
	if !m.live {
		t.Fatal("v should return to live")
	}

	updated, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	m = updated.(Model)
	if m.live {
		t.Error("k should leave live mode")
	}

	updated, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'G'}})
	m = updated.(Model)
	if !m.live {
		t.Error("G should snap back to live")
	}
}

func TestNewFinalSnapsScrollbackToLive(t *testing.T) {
	m := testModel()

	updated, _ := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'v'}})
	m = updated.(Model)
	if m.live {
		t.Fatal("not in scrollback")
	}

	m.handleUpdate(finalUpdate(finalEvent(0, 500, 1, "en", "news")))
	if !m.live {
		t.Error("new final should return the view to live")
	}
}

func TestReconnectingStatusShown(t *testing.T) {
	m := testModel()

	m.handleUpdate(transcriber.Update{
		Kind:    transcriber.KindStatus,
		Status:  transcriber.StatusReconnecting,
		Attempt: 2,
		Err:     errors.New("connection reset"),
	})

	view := m.View()
	if !strings.Contains(view, "RECONNECT 2") {
		t.Errorf("view missing reconnect badge:\n%s", view)
	}
	if !strings.Contains(view, "connection reset") {
		t.Errorf("view missing transient error:\n%s", view)
	}
}

func TestDoneQuits(t *testing.T) {
	m := testModel()

	cmd := m.handleUpdate(transcriber.Update{Kind: transcriber.KindDone, Total: 3})
	if cmd == nil {
		t.Fatal("done update should produce a command")
	}
	if msg := cmd(); msg != tea.Quit() {
		t.Errorf("done command = %v, want quit", msg)
	}
	if m.totalEvents != 3 {
		t.Errorf("totalEvents = %d, want 3", m.totalEvents)
	}
}

func TestTranslationRendersIndented(t *testing.T) {
	m := testModel()

	m.handleUpdate(finalUpdate(
		finalEvent(0, 800, 2, "uk", "Де ключі?"),
		session.Event{
			Span:           session.Span{StartMs: 0, EndMs: 800},
			Speaker:        2,
			Language:       "en",
			SourceLanguage: "uk",
			Text:           "Where are the keys?",
			Final:          true,
			Translation:    true,
		},
	))

	view := m.View()
	if !strings.Contains(view, "↳ Where are the keys?") {
		t.Errorf("view missing translation line:\n%s", view)
	}
}

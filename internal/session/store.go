package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/jcllobet/mother-in-law-decoder/internal/audio"
)

const (
	transcriptLogName  = "transcript.jsonl"
	transcriptTextName = "transcript.txt"
	audioName          = "audio.wav"
	stateName          = "state.json"

	// flushEveryEvents forces a flush after this many appends even if the
	// timed flush has not fired yet.
	flushEveryEvents = 50
)

// LanguageConfig records the language setup a session was created with so a
// resumed session keeps translating the same way.
type LanguageConfig struct {
	SourceHints []string `json:"source_hints,omitempty"`
	Target      string   `json:"target_language"`
}

type stateFile struct {
	Name       string                  `json:"name"`
	UpdatedAt  time.Time               `json:"updated_at"`
	Languages  LanguageConfig          `json:"languages"`
	EventCount int                     `json:"event_count"`
	Speakers   map[int]*SpeakerProfile `json:"speakers,omitempty"`
}

// Store owns all files of one session. It is not safe for concurrent use;
// every write flows through the single goroutine that owns the store.
type Store struct {
	dir      string
	name     string
	langs    LanguageConfig
	log      zerolog.Logger
	resumed  bool
	events   []Event
	bySpan   map[string]int
	speakers map[int]*SpeakerProfile

	jsonl *os.File
	wav   *audio.WAVWriter

	sinceFlush int
}

// OpenOrCreate opens the session directory under baseDir, creating it on
// first use and replaying the event log when it already exists. The audio
// file is opened for append with its header validated against the given
// format.
func OpenOrCreate(baseDir, name string, sampleRate, channels int, langs LanguageConfig, log zerolog.Logger) (*Store, error) {
	dir := filepath.Join(baseDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	s := &Store{
		dir:      dir,
		name:     name,
		langs:    langs,
		log:      log.With().Str("session", name).Logger(),
		bySpan:   make(map[string]int),
		speakers: make(map[int]*SpeakerProfile),
	}

	logPath := filepath.Join(dir, transcriptLogName)
	if _, err := os.Stat(logPath); err == nil {
		s.resumed = true
		if err := s.replay(logPath); err != nil {
			return nil, err
		}
		s.loadState()
	}

	jsonl, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open transcript log: %w", err)
	}
	wav, err := audio.OpenWAV(filepath.Join(dir, audioName), sampleRate, channels)
	if err != nil {
		jsonl.Close()
		return nil, err
	}
	s.jsonl = jsonl
	s.wav = wav

	s.log.Info().
		Bool("resumed", s.resumed).
		Int("events", len(s.events)).
		Msg("session opened")
	return s, nil
}

// replay loads prior final events from the JSONL log. Duplicate spans keep
// the later entry, matching the live last-write-wins rule, so replaying a
// log converges to the same transcript the writer saw.
func (s *Store) replay(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open transcript log: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			s.log.Warn().Err(err).Msg("skipping malformed transcript line")
			continue
		}
		s.insert(ev)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read transcript log: %w", err)
	}
	return nil
}

func (s *Store) loadState() {
	data, err := os.ReadFile(filepath.Join(s.dir, stateName))
	if err != nil {
		return
	}
	var st stateFile
	if err := json.Unmarshal(data, &st); err != nil {
		s.log.Warn().Err(err).Msg("ignoring malformed session state")
		return
	}
	if st.Languages.Target != "" {
		s.langs = st.Languages
	}
	for id, p := range st.Speakers {
		if p != nil {
			p.Speaker = id
			s.speakers[id] = p
		}
	}
}

// insert applies an event to the in-memory transcript. Spans already seen
// are replaced in place so the event order of first appearance is kept.
func (s *Store) insert(ev Event) {
	key := ev.spanIdentity()
	if i, ok := s.bySpan[key]; ok {
		s.events[i] = ev
		return
	}
	s.bySpan[key] = len(s.events)
	s.events = append(s.events, ev)
}

// Translations share the audio span of the text they translate, so their
// identity carries the translation marker and language to keep them from
// colliding with the original tokens.
func (ev Event) spanIdentity() string {
	if ev.Translation {
		return ev.Span.Key() + "/t/" + ev.Language
	}
	return ev.Span.Key()
}

// Append records a final event. Write failures are logged and do not stop
// the session; the in-memory transcript stays authoritative and the next
// flush retries the text rendering.
func (s *Store) Append(ev Event) {
	if !ev.Final {
		return
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now().UTC()
	}
	s.insert(ev)
	line, err := json.Marshal(ev)
	if err != nil {
		s.log.Error().Err(err).Msg("encode transcript event")
		return
	}
	line = append(line, '\n')
	if _, err := s.jsonl.Write(line); err != nil {
		s.log.Error().Err(err).Msg("append transcript event")
	}
	s.sinceFlush++
	if s.sinceFlush >= flushEveryEvents {
		if err := s.Flush(); err != nil {
			s.log.Error().Err(err).Msg("flush session")
		}
	}
}

// AppendAudio writes one captured PCM frame to the session audio file.
func (s *Store) AppendAudio(data []byte) {
	if _, err := s.wav.Write(data); err != nil {
		s.log.Error().Err(err).Msg("append audio frame")
	}
}

// ResolveLanguage decides the effective language of an event from its
// speaker's history, updating the speaker profile for confident detections.
func (s *Store) ResolveLanguage(ev Event) string {
	return resolveLanguage(s.speakers, ev)
}

// Name returns the session name.
func (s *Store) Name() string { return s.name }

// Dir returns the session directory path.
func (s *Store) Dir() string { return s.dir }

// Resumed reports whether the session existed before this open.
func (s *Store) Resumed() bool { return s.resumed }

// EventCount returns the number of distinct final events held.
func (s *Store) EventCount() int { return len(s.events) }

// Events returns the in-memory transcript in first-appearance order.
func (s *Store) Events() []Event {
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// AudioDuration reports the length of the recorded audio so far, in seconds.
func (s *Store) AudioDuration() float64 { return s.wav.Duration() }

// Flush rewrites the plain-text transcript, patches the audio header, and
// persists session state. Safe to call at any time.
func (s *Store) Flush() error {
	s.sinceFlush = 0
	if err := s.jsonl.Sync(); err != nil {
		return fmt.Errorf("sync transcript log: %w", err)
	}
	if err := s.wav.Flush(); err != nil {
		return err
	}
	if err := s.writeText(); err != nil {
		return err
	}
	return s.writeState()
}

// writeText renders transcript.txt from memory. The file is rewritten in
// full on every flush; a rename keeps readers from seeing a partial file.
func (s *Store) writeText() error {
	path := filepath.Join(s.dir, transcriptTextName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(RenderText(s.events)), 0o644); err != nil {
		return fmt.Errorf("write transcript text: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace transcript text: %w", err)
	}
	return nil
}

func (s *Store) writeState() error {
	st := stateFile{
		Name:       s.name,
		UpdatedAt:  time.Now().UTC(),
		Languages:  s.langs,
		EventCount: len(s.events),
		Speakers:   s.speakers,
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	path := filepath.Join(s.dir, stateName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write session state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace session state: %w", err)
	}
	return nil
}

// Close flushes and releases all session files.
func (s *Store) Close() error {
	flushErr := s.Flush()
	if err := s.jsonl.Close(); err != nil && flushErr == nil {
		flushErr = err
	}
	if err := s.wav.Close(); err != nil && flushErr == nil {
		flushErr = err
	}
	if flushErr != nil {
		return flushErr
	}
	s.log.Info().Int("events", len(s.events)).Msg("session closed")
	return nil
}

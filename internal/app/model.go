package app

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jcllobet/mother-in-law-decoder/internal/session"
	"github.com/jcllobet/mother-in-law-decoder/internal/transcriber"
	"github.com/jcllobet/mother-in-law-decoder/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

// Model is the root bubbletea model for the live transcription view.
type Model struct {
	engine *transcriber.Engine

	// Run identity
	sessionName string
	deviceName  string
	targetLang  string

	// Transcript
	finals  []session.Event
	bySpan  map[string]int
	interim string

	// Pipeline state
	status      string
	attempt     int
	totalEvents int
	dropped     uint64
	languages   map[string]struct{}

	// UI state
	width          int
	height         int
	live           bool
	scroll         int
	exiting        bool
	errorMessage   string
	errorTransient bool
}

// New creates a model over a started engine.
func New(engine *transcriber.Engine, sessionName, deviceName, targetLang string) Model {
	return Model{
		engine:      engine,
		sessionName: sessionName,
		deviceName:  deviceName,
		targetLang:  targetLang,
		bySpan:      make(map[string]int),
		languages:   make(map[string]struct{}),
		status:      transcriber.StatusLive,
		live:        true,
	}
}

// Init starts reading pipeline updates.
func (m Model) Init() tea.Cmd {
	return readUpdateCmd(m.engine.Updates())
}

// readUpdateCmd reads the next update from the pipeline.
func readUpdateCmd(ch <-chan transcriber.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return EngineClosedMsg{}
		}
		return EngineUpdateMsg{Update: u}
	}
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case EngineUpdateMsg:
		cmd := m.handleUpdate(msg.Update)
		return m, tea.Batch(cmd, readUpdateCmd(m.engine.Updates()))

	case EngineClosedMsg:
		return m, tea.Quit

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	return m, nil
}

// handleUpdate applies one pipeline update and returns any resulting command.
func (m *Model) handleUpdate(u transcriber.Update) tea.Cmd {
	switch u.Kind {
	case transcriber.KindTokens:
		for _, ev := range u.Finals {
			m.insertFinal(ev)
			if ev.Language != "" {
				m.languages[ev.Language] = struct{}{}
			}
		}
		var interim strings.Builder
		for _, ev := range u.Interims {
			interim.WriteString(ev.Text)
		}
		m.interim = strings.TrimLeft(interim.String(), " ")
		m.totalEvents = u.Total
		m.dropped = u.Dropped
		// New final text snaps a scrolled view back to live.
		if len(u.Finals) > 0 {
			m.live = true
		}

	case transcriber.KindStatus:
		m.status = u.Status
		m.attempt = u.Attempt
		if u.Status == transcriber.StatusReconnecting && u.Err != nil {
			m.errorMessage = u.Err.Error()
			m.errorTransient = true
			return clearTransientErrorCmd()
		}

	case transcriber.KindError:
		if u.Err != nil {
			m.errorMessage = u.Err.Error()
			m.errorTransient = true
			return clearTransientErrorCmd()
		}

	case transcriber.KindFatal:
		if u.Err != nil {
			m.errorMessage = u.Err.Error()
			m.errorTransient = false
		}

	case transcriber.KindDone:
		m.totalEvents = u.Total
		return tea.Quit
	}

	return nil
}

// insertFinal applies last-write-wins by span, mirroring the store.
func (m *Model) insertFinal(ev session.Event) {
	key := ev.Span.Key()
	if ev.Translation {
		key += "/t/" + ev.Language
	}
	if i, ok := m.bySpan[key]; ok {
		m.finals[i] = ev
		return
	}
	m.bySpan[key] = len(m.finals)
	m.finals = append(m.finals, ev)
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		if !m.exiting {
			m.exiting = true
			m.engine.Stop()
		}
		// Quit arrives with the engine's Done update, after the drain.
		return m, nil

	case "v", "V":
		if m.live {
			m.live = false
			m.scroll = m.maxScroll()
		} else {
			m.live = true
		}
		return m, nil

	case "up", "k":
		m.live = false
		if m.scroll > 0 {
			m.scroll--
		}
		return m, nil

	case "down", "j":
		if m.live {
			return m, nil
		}
		m.scroll++
		if m.scroll >= m.maxScroll() {
			m.scroll = m.maxScroll()
			m.live = true
		}
		return m, nil

	case "u":
		m.live = false
		m.scroll -= m.visibleLines() / 2
		if m.scroll < 0 {
			m.scroll = 0
		}
		return m, nil

	case "d":
		if m.live {
			return m, nil
		}
		m.scroll += m.visibleLines() / 2
		if m.scroll >= m.maxScroll() {
			m.scroll = m.maxScroll()
			m.live = true
		}
		return m, nil

	case "g":
		m.live = false
		m.scroll = 0
		return m, nil

	case "G":
		m.live = true
		return m, nil
	}

	return m, nil
}

func (m Model) maxScroll() int {
	total := len(m.displayLines())
	visible := m.visibleLines()
	if total <= visible {
		return 0
	}
	return total - visible
}

func (m Model) visibleLines() int {
	if m.height == 0 {
		return 20
	}
	// Reserve: header(1) + status(1) + divider(2) + error(1) + footer(1)
	reserved := 7
	if n := m.height - reserved; n > 5 {
		return n
	}
	return 5
}

func (m Model) textWidth() int {
	if m.width == 0 {
		return 78
	}
	if m.width < 20 {
		return 20
	}
	return m.width - 2
}

// displayLine is one rendered transcript row.
type displayLine struct {
	text  string
	style lipgloss.Style
}

// displayLines builds the transcript rows from finals plus the interim tail.
func (m Model) displayLines() []displayLine {
	width := m.textWidth()
	var lines []displayLine

	appendWrapped := func(text, indent string, style lipgloss.Style) {
		for i, wl := range wrapText(text, width-len(indent)) {
			prefix := indent
			if i > 0 {
				prefix = strings.Repeat(" ", len(indent))
			}
			lines = append(lines, displayLine{text: prefix + wl, style: style})
		}
	}

	curSpeaker := -1
	curLang := ""
	var para strings.Builder
	paraStyle := ui.LanguageStyle("", m.targetLang)

	flushPara := func() {
		if para.Len() == 0 {
			return
		}
		appendWrapped(para.String(), "  ", paraStyle)
		para.Reset()
	}

	for _, ev := range m.finals {
		if ev.Translation {
			if ev.Language == ev.SourceLanguage {
				continue
			}
			flushPara()
			appendWrapped("↳ "+strings.TrimLeft(ev.Text, " "), "    ", ui.TranslationStyle)
			continue
		}
		if ev.Speaker != curSpeaker {
			flushPara()
			if len(lines) > 0 {
				lines = append(lines, displayLine{})
			}
			lines = append(lines, displayLine{
				text:  speakerHeading(ev.Speaker),
				style: ui.SpeakerStyle(ev.Speaker),
			})
			curSpeaker = ev.Speaker
			curLang = ""
		}
		text := ev.Text
		if ev.Language != curLang {
			flushPara()
			curLang = ev.Language
			paraStyle = ui.LanguageStyle(ev.Language, m.targetLang)
			text = strings.TrimLeft(text, " ")
		}
		para.WriteString(text)
	}
	flushPara()

	if m.interim != "" {
		appendWrapped(m.interim+"▌", "  ", ui.InterimTextStyle)
	}
	return lines
}

func speakerHeading(speaker int) string {
	if speaker == 0 {
		return "Speaker ?:"
	}
	return fmt.Sprintf("Speaker %d:", speaker)
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStatusBar())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderTranscript())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	}
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("MILD")
	name := ui.DimStyle.Render(" — " + m.sessionName)
	var device string
	if m.deviceName != "" {
		device = ui.DimStyle.Render(" [" + m.deviceName + "]")
	}
	return title + name + device
}

func (m Model) renderStatusBar() string {
	var badge string
	switch {
	case m.exiting:
		badge = ui.ScrollBadgeStyle.Render("SAVING")
	case m.status == transcriber.StatusReconnecting:
		badge = ui.ReconnectBadgeStyle.Render(fmt.Sprintf("RECONNECT %d", m.attempt))
	case m.status == transcriber.StatusDraining:
		badge = ui.ScrollBadgeStyle.Render("SAVING")
	case m.live:
		badge = ui.LiveBadgeStyle.Render("LIVE")
	default:
		badge = ui.ScrollBadgeStyle.Render("SCROLL")
	}

	dot := ui.RecordingDotStyle.Render("●")
	if m.exiting || m.status != transcriber.StatusLive {
		dot = ui.DimStyle.Render("○")
	}

	stats := ui.StatusStyle.Render(fmt.Sprintf("  %d segments", m.totalEvents))
	if m.dropped > 0 {
		stats += ui.ErrorTextStyle.Render(fmt.Sprintf("  %d dropped", m.dropped))
	}

	var langs string
	if len(m.languages) > 0 {
		names := make([]string, 0, len(m.languages))
		for l := range m.languages {
			names = append(names, l)
		}
		sort.Strings(names)
		langs = ui.DimStyle.Render("  " + strings.Join(names, " "))
	}

	return dot + " " + badge + stats + langs
}

func (m Model) renderTranscript() string {
	lines := m.displayLines()
	visible := m.visibleLines()

	if len(lines) == 0 {
		empty := make([]string, visible)
		empty[0] = ui.DimStyle.Render("  Listening...")
		return strings.Join(empty, "\n")
	}

	start := m.scroll
	if m.live {
		start = len(lines) - visible
	}
	if start < 0 {
		start = 0
	}
	end := start + visible
	if end > len(lines) {
		end = len(lines)
	}

	out := make([]string, 0, visible)
	for _, dl := range lines[start:end] {
		out = append(out, dl.style.Render(dl.text))
	}
	for len(out) < visible {
		out = append(out, "")
	}
	return strings.Join(out, "\n")
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage)
}

func (m Model) renderFooter() string {
	var parts []string
	if m.live {
		parts = append(parts, ui.FooterKeyStyle.Render("v")+ui.FooterDescStyle.Render(" Scrollback"))
	} else {
		parts = append(parts, ui.FooterKeyStyle.Render("v")+ui.FooterDescStyle.Render(" Live"))
		parts = append(parts, ui.FooterKeyStyle.Render("j/k")+ui.FooterDescStyle.Render(" Scroll"))
		parts = append(parts, ui.FooterKeyStyle.Render("u/d")+ui.FooterDescStyle.Render(" Page"))
		parts = append(parts, ui.FooterKeyStyle.Render("g/G")+ui.FooterDescStyle.Render(" Top/End"))
	}
	parts = append(parts, ui.FooterKeyStyle.Render("q")+ui.FooterDescStyle.Render(" Quit"))
	return strings.Join(parts, "  ")
}

// wrapText breaks text into lines no wider than width, on word boundaries.
func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	var lines []string
	var current string
	for _, word := range strings.Fields(text) {
		switch {
		case current == "":
			current = word
		case len(current)+1+len(word) <= width:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

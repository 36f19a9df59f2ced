// Package ui holds the lipgloss styles and color palette shared by the
// terminal view.
package ui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the TUI.
var (
	ColorRed     = lipgloss.Color("#FF0000")
	ColorGreen   = lipgloss.Color("#00FF00")
	ColorYellow  = lipgloss.Color("#FFFF00")
	ColorCyan    = lipgloss.Color("#00FFFF")
	ColorGray    = lipgloss.Color("#666666")
	ColorDimGray = lipgloss.Color("#444444")
	ColorWhite   = lipgloss.Color("#FFFFFF")
)

// languageColors groups related languages into shared color families so a
// bilingual conversation stays readable. English is neutral grey; unknown
// languages fall back to gold.
var languageColors = map[string]lipgloss.Color{
	"en": lipgloss.Color("#b0b0b0"),

	// Germanic
	"de": lipgloss.Color("#4682b4"),
	"nl": lipgloss.Color("#7ec8e3"),
	"sv": lipgloss.Color("#b8d4e8"),

	// Romance
	"es": lipgloss.Color("#ffd700"),
	"fr": lipgloss.Color("#ff6b6b"),
	"it": lipgloss.Color("#ffaa5e"),
	"pt": lipgloss.Color("#e8b923"),
	"ro": lipgloss.Color("#db7093"),

	// Slavic
	"ru": lipgloss.Color("#9400d3"),
	"pl": lipgloss.Color("#8a2be2"),
	"cs": lipgloss.Color("#7b68ee"),
	"uk": lipgloss.Color("#ba55d3"),
	"bg": lipgloss.Color("#ff1493"),
	"hr": lipgloss.Color("#ff69b4"),

	// Baltic and Finno-Ugric
	"lt": lipgloss.Color("#00ced1"),
	"lv": lipgloss.Color("#20b2aa"),
	"et": lipgloss.Color("#48d1cc"),
	"fi": lipgloss.Color("#66cdaa"),
	"hu": lipgloss.Color("#40e0d0"),

	// Middle Eastern and Turkic
	"ar": lipgloss.Color("#4169e1"),
	"he": lipgloss.Color("#6a5acd"),
	"tr": lipgloss.Color("#1e90ff"),

	// South Asian
	"hi": lipgloss.Color("#ff6347"),
	"ta": lipgloss.Color("#ff7256"),

	// East Asian
	"zh": lipgloss.Color("#dc143c"),
	"ja": lipgloss.Color("#ff4500"),
	"ko": lipgloss.Color("#c71585"),

	// Southeast Asian
	"vi": lipgloss.Color("#32cd32"),
	"th": lipgloss.Color("#98fb98"),
	"id": lipgloss.Color("#3cb371"),
	"tl": lipgloss.Color("#7fff00"),
}

var defaultLanguageColor = lipgloss.Color("#d4af37")

// speakerColors cycle for diarized speakers.
var speakerColors = []lipgloss.Color{
	lipgloss.Color("#98fb98"),
	lipgloss.Color("#ff6b6b"),
	lipgloss.Color("#ffd700"),
	lipgloss.Color("#ff69b4"),
	lipgloss.Color("#ffb347"),
	lipgloss.Color("#dda0dd"),
	lipgloss.Color("#87ceeb"),
	lipgloss.Color("#deb887"),
}

// LanguageStyle returns the style for text recognized in lang. The target
// language always renders white so translations stand out from originals.
func LanguageStyle(lang, target string) lipgloss.Style {
	if lang == target {
		return lipgloss.NewStyle().Foreground(ColorWhite)
	}
	c, ok := languageColors[lang]
	if !ok {
		c = defaultLanguageColor
	}
	return lipgloss.NewStyle().Foreground(c)
}

// SpeakerStyle returns the bold header style for a diarized speaker.
func SpeakerStyle(speaker int) lipgloss.Style {
	if speaker <= 0 {
		return lipgloss.NewStyle().Bold(true).Foreground(ColorGray)
	}
	c := speakerColors[(speaker-1)%len(speakerColors)]
	return lipgloss.NewStyle().Bold(true).Foreground(c)
}

// Base styles reused by UI components.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	RecordingDotStyle = lipgloss.NewStyle().
				Foreground(ColorRed).
				Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	InterimTextStyle = lipgloss.NewStyle().
				Foreground(ColorYellow)

	TranslationStyle = lipgloss.NewStyle().
				Foreground(ColorWhite).
				Italic(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	FooterKeyStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	FooterDescStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	LiveBadgeStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)

	ScrollBadgeStyle = lipgloss.NewStyle().
				Foreground(ColorYellow).
				Bold(true)

	ReconnectBadgeStyle = lipgloss.NewStyle().
				Foreground(ColorYellow).
				Bold(true)
)

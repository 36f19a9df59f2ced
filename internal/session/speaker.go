package session

// LanguageConfidenceThreshold is the minimum per-token language confidence
// required to update a speaker's language tally. Below it we keep using the
// speaker's last known language instead of trusting a shaky detection.
const LanguageConfidenceThreshold = 0.5

// FallbackLanguage is used when nothing at all is known about an utterance.
const FallbackLanguage = "en"

// SpeakerProfile accumulates language observations for one diarized speaker
// so that low-confidence tokens can inherit the speaker's usual language.
type SpeakerProfile struct {
	Speaker        int            `json:"speaker"`
	LanguageCounts map[string]int `json:"language_counts"`
	LastLanguage   string         `json:"last_language,omitempty"`
	TotalSamples   int            `json:"total_samples"`
}

func newSpeakerProfile(speaker int) *SpeakerProfile {
	return &SpeakerProfile{
		Speaker:        speaker,
		LanguageCounts: make(map[string]int),
	}
}

func (p *SpeakerProfile) addSample(lang string) {
	if p.LanguageCounts == nil {
		p.LanguageCounts = make(map[string]int)
	}
	p.LanguageCounts[lang]++
	p.LastLanguage = lang
	p.TotalSamples++
}

// DominantLanguage returns the most frequently observed language for the
// speaker, or empty if no samples have been recorded.
func (p *SpeakerProfile) DominantLanguage() string {
	best := ""
	bestN := 0
	for lang, n := range p.LanguageCounts {
		if n > bestN || (n == bestN && lang < best) {
			best = lang
			bestN = n
		}
	}
	return best
}

// resolveLanguage decides the effective language for an event, updating the
// speaker's profile when the detection is trustworthy. Unattributed events
// fall through to the detected language or the fallback.
func resolveLanguage(profiles map[int]*SpeakerProfile, ev Event) string {
	if ev.Speaker == 0 {
		if ev.Language != "" {
			return ev.Language
		}
		return FallbackLanguage
	}
	p := profiles[ev.Speaker]
	if p == nil {
		p = newSpeakerProfile(ev.Speaker)
		profiles[ev.Speaker] = p
	}
	if ev.Language != "" && ev.LanguageConfidence >= LanguageConfidenceThreshold {
		p.addSample(ev.Language)
		return ev.Language
	}
	if p.LastLanguage != "" {
		return p.LastLanguage
	}
	if ev.Language != "" {
		return ev.Language
	}
	return FallbackLanguage
}

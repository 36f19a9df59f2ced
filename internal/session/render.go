package session

import (
	"fmt"
	"strings"
)

// RenderText formats final events as the plain-text transcript written to
// transcript.txt. Consecutive events from the same speaker form a block
// under a "Speaker N:" header, with [lang] markers at language switches.
// Translations render as indented follow-up lines and are skipped when the
// source already matches the translation language.
func RenderText(events []Event) string {
	var b strings.Builder
	curSpeaker := -1
	curLang := ""
	var line strings.Builder
	var trans strings.Builder
	transLang := ""

	flushTrans := func() {
		if trans.Len() == 0 {
			return
		}
		text := strings.TrimLeft(trans.String(), " ")
		line.WriteString(fmt.Sprintf("\n  ↳ [%s] %s", transLang, text))
		trans.Reset()
		transLang = ""
	}
	flushLine := func() {
		flushTrans()
		if line.Len() == 0 {
			return
		}
		b.WriteString(line.String())
		b.WriteString("\n")
		line.Reset()
	}

	for _, ev := range events {
		if !ev.Final {
			continue
		}
		if ev.Translation {
			if ev.Language != "" && ev.Language == ev.SourceLanguage {
				continue
			}
			if ev.Language != transLang && trans.Len() > 0 {
				flushTrans()
			}
			transLang = ev.Language
			trans.WriteString(ev.Text)
			continue
		}
		if ev.Speaker != curSpeaker {
			flushLine()
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(speakerLabel(ev.Speaker))
			b.WriteString("\n")
			curSpeaker = ev.Speaker
			curLang = ""
		}
		text := ev.Text
		if ev.Language != "" && ev.Language != curLang {
			flushTrans()
			if line.Len() > 0 {
				line.WriteString(" ")
			}
			line.WriteString(fmtLangMarker(ev.Language))
			curLang = ev.Language
			text = strings.TrimLeft(text, " ")
		}
		line.WriteString(text)
	}
	flushLine()
	return b.String()
}

func speakerLabel(speaker int) string {
	if speaker == 0 {
		return "Speaker ?:"
	}
	return fmt.Sprintf("Speaker %d:", speaker)
}

func fmtLangMarker(lang string) string {
	return fmt.Sprintf("[%s] ", lang)
}

// Package soniox implements the client side of the Soniox real-time
// transcription websocket protocol.
//
// The protocol is simple: after the websocket handshake the client sends a
// single JSON configuration message, then streams raw PCM as binary frames.
// An empty text message marks end-of-audio. The server replies with JSON
// result messages carrying transcription tokens; interim tokens are
// superseded by later final tokens for the same time span.
package soniox

import "fmt"

// WebsocketURL is the Soniox real-time transcription endpoint.
const WebsocketURL = "wss://stt-rt.soniox.com/transcribe-websocket"

// audioFormat is the only format this client sends.
const audioFormat = "pcm_s16le"

// Config describes one streaming session.
type Config struct {
	APIKey     string
	Model      string
	SampleRate int
	Channels   int

	// LanguageHints biases recognition toward the listed source languages.
	LanguageHints []string

	// TargetLanguage enables one-way translation when non-empty.
	TargetLanguage string

	// Context is a free-text hint passed to the service for better accuracy.
	Context string

	// URL overrides the production endpoint, for tests.
	URL string
}

// configRequest is the first message on the wire.
type configRequest struct {
	APIKey                       string           `json:"api_key"`
	Model                        string           `json:"model"`
	AudioFormat                  string           `json:"audio_format"`
	SampleRate                   int              `json:"sample_rate"`
	NumChannels                  int              `json:"num_channels"`
	LanguageHints                []string         `json:"language_hints,omitempty"`
	EnableLanguageIdentification bool             `json:"enable_language_identification"`
	EnableSpeakerDiarization     bool             `json:"enable_speaker_diarization"`
	EnableEndpointDetection      bool             `json:"enable_endpoint_detection"`
	Translation                  *translationSpec `json:"translation,omitempty"`
	Context                      *contextSpec     `json:"context,omitempty"`
}

type translationSpec struct {
	Type           string `json:"type"`
	TargetLanguage string `json:"target_language"`
}

type contextSpec struct {
	Text string `json:"text"`
}

// request builds the wire configuration for this session.
func (c Config) request() configRequest {
	req := configRequest{
		APIKey:                       c.APIKey,
		Model:                        c.Model,
		AudioFormat:                  audioFormat,
		SampleRate:                   c.SampleRate,
		NumChannels:                  c.Channels,
		LanguageHints:                c.LanguageHints,
		EnableLanguageIdentification: true,
		EnableSpeakerDiarization:     true,
		EnableEndpointDetection:      true,
	}
	if c.TargetLanguage != "" {
		req.Translation = &translationSpec{Type: "one_way", TargetLanguage: c.TargetLanguage}
	}
	if c.Context != "" {
		req.Context = &contextSpec{Text: c.Context}
	}
	return req
}

// Token is one unit of recognized text.
type Token struct {
	Text               string  `json:"text"`
	StartMs            int     `json:"start_ms"`
	EndMs              int     `json:"end_ms"`
	IsFinal            bool    `json:"is_final"`
	Speaker            int     `json:"speaker"`
	Language           string  `json:"language,omitempty"`
	LanguageConfidence float64 `json:"language_confidence,omitempty"`
	TranslationStatus  string  `json:"translation_status,omitempty"` // "original" or "translation"
	SourceLanguage     string  `json:"source_language,omitempty"`
}

// IsTranslation reports whether the token carries translated text.
func (t Token) IsTranslation() bool {
	return t.TranslationStatus == "translation"
}

// Result is one server message.
type Result struct {
	Tokens           []Token `json:"tokens"`
	ErrorCode        int     `json:"error_code,omitempty"`
	ErrorMessage     string  `json:"error_message,omitempty"`
	Finished         bool    `json:"finished,omitempty"`
	TotalAudioProcMs int     `json:"total_audio_proc_ms,omitempty"`
}

// Error is a failure reported by the service or the transport.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("soniox: %s (code=%d)", e.Message, e.Code)
}

// IsAuth reports whether the failure is an authentication error, which is
// fatal and must not be retried.
func (e *Error) IsAuth() bool {
	return e.Code == 401 || e.Code == 403
}

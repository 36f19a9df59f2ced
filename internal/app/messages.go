package app

import "github.com/jcllobet/mother-in-law-decoder/internal/transcriber"

// EngineUpdateMsg wraps one update from the pipeline.
type EngineUpdateMsg struct {
	Update transcriber.Update
}

// EngineClosedMsg is sent when the update stream ends.
type EngineClosedMsg struct{}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}

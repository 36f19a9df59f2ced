// Package transcriber runs the capture-to-transcript pipeline: it forwards
// microphone frames to the recognition service, applies recognized tokens to
// the session store, and publishes display updates for the UI. All session
// writes happen on the engine goroutine.
package transcriber

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jcllobet/mother-in-law-decoder/internal/audio"
	"github.com/jcllobet/mother-in-law-decoder/internal/config"
	"github.com/jcllobet/mother-in-law-decoder/internal/session"
	"github.com/jcllobet/mother-in-law-decoder/internal/soniox"
)

// ErrRetriesExhausted is returned when the service connection could not be
// re-established within the configured retry budget.
var ErrRetriesExhausted = errors.New("connection retries exhausted")

// drainTimeout bounds how long Stop waits for the service to finalize
// buffered audio before closing the session anyway.
const drainTimeout = 3 * time.Second

// Source supplies captured audio frames. audio.Capture implements it.
type Source interface {
	Frames() <-chan audio.Frame
	Interrupted() <-chan error
	Dropped() uint64
	Close() error
}

// RecognitionStream is one websocket session with the service.
// soniox.Stream implements it.
type RecognitionStream interface {
	Send(frame []byte) error
	CloseSend() error
	Results() <-chan soniox.Result
	Err() <-chan error
	Close() error
}

// Dialer opens a recognition stream. Tests substitute their own.
type Dialer func(ctx context.Context, cfg soniox.Config) (RecognitionStream, error)

// Options configures an Engine beyond the static config.
type Options struct {
	// Dial defaults to the production websocket dialer.
	Dial Dialer

	// ReopenSource is called once per stream interruption to replace a
	// failed capture source. Nil disables reopening.
	ReopenSource func() (Source, error)
}

// Engine coordinates one recording run.
type Engine struct {
	cfg    config.Config
	store  *session.Store
	source Source
	dial   Dialer
	reopen func() (Source, error)
	log    zerolog.Logger

	updates chan Update
	quit    chan struct{}
	done    chan struct{}
	err     error
}

// New creates an engine over an open session store and capture source.
func New(cfg config.Config, store *session.Store, source Source, opts Options, log zerolog.Logger) *Engine {
	dial := opts.Dial
	if dial == nil {
		dial = func(ctx context.Context, sc soniox.Config) (RecognitionStream, error) {
			return soniox.Dial(ctx, sc)
		}
	}
	return &Engine{
		cfg:     cfg,
		store:   store,
		source:  source,
		dial:    dial,
		reopen:  opts.ReopenSource,
		log:     log,
		updates: make(chan Update, 128),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Updates returns the display update stream. The channel is closed after
// the final Done update.
func (e *Engine) Updates() <-chan Update { return e.updates }

// Start launches the engine goroutine.
func (e *Engine) Start() {
	go e.run()
}

// Stop requests a graceful drain-then-stop. Safe to call more than once.
func (e *Engine) Stop() {
	select {
	case <-e.quit:
	default:
		close(e.quit)
	}
}

// Wait blocks until the engine has stopped and returns its terminal error,
// nil on a clean stop.
func (e *Engine) Wait() error {
	<-e.done
	return e.err
}

func (e *Engine) run() {
	defer close(e.done)
	defer close(e.updates)
	defer e.source.Close()

	err := e.loop()
	if err != nil {
		e.err = err
		e.emit(Update{Kind: KindFatal, Err: err})
	}
	if ferr := e.store.Flush(); ferr != nil {
		e.log.Error().Err(ferr).Msg("final flush")
	}
	e.emit(Update{Kind: KindDone, Total: e.store.EventCount()})
}

// loop owns the connect/stream/reconnect cycle. It returns nil on a
// requested stop and an error on fatal failure. The attempt counter is
// cleared whenever a result arrives, so the retry budget applies to each
// outage, not the whole run. Audio sent before a drop is not replayed; a
// new stream picks up from live capture.
func (e *Engine) loop() error {
	attempt := 0
	var lastErr error
	for {
		if attempt > 0 {
			if attempt > e.cfg.MaxRetries {
				return fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, e.cfg.MaxRetries, lastErr)
			}
			delay := e.backoff(attempt)
			e.emit(Update{Kind: KindStatus, Status: StatusReconnecting, Attempt: attempt, Err: lastErr})
			e.log.Info().Int("attempt", attempt).Dur("delay", delay).Msg("reconnect scheduled")
			if !e.sleep(delay) {
				return nil
			}
		}

		stream, err := e.connect()
		if err != nil {
			if soniox.IsAuthError(err) {
				return err
			}
			lastErr = err
			attempt++
			continue
		}
		e.emit(Update{Kind: KindStatus, Status: StatusLive})

		streamErr, stopped := e.pump(stream, &attempt)
		stream.Close()
		if stopped {
			return nil
		}
		if streamErr != nil {
			if soniox.IsAuthError(streamErr) {
				return streamErr
			}
			// A dead capture device is not cured by reconnecting.
			if errors.Is(streamErr, audio.ErrStreamInterrupted) || errors.Is(streamErr, audio.ErrDeviceUnavailable) {
				return streamErr
			}
			e.log.Warn().Err(streamErr).Msg("stream failed, reconnecting")
			lastErr = streamErr
		}
		attempt++
	}
}

func (e *Engine) connect() (RecognitionStream, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	stream, err := e.dial(ctx, soniox.Config{
		APIKey:         e.cfg.APIKey,
		Model:          e.cfg.Model,
		SampleRate:     e.cfg.SampleRate,
		Channels:       e.cfg.Channels,
		LanguageHints:  e.cfg.SourceLanguages,
		TargetLanguage: e.cfg.TargetLanguage,
		Context:        e.cfg.Context,
	})
	if err != nil {
		if soniox.IsAuthError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("connect: %w", err)
	}
	return stream, nil
}

// pump streams frames up and results down until the stream fails or a stop
// is requested. On stop it drains the service before returning.
func (e *Engine) pump(stream RecognitionStream, attempt *int) (streamErr error, stopped bool) {
	flush := time.NewTicker(e.cfg.FlushInterval.Std())
	defer flush.Stop()

	for {
		select {
		case <-e.quit:
			e.drain(stream)
			return nil, true

		case frame, ok := <-e.source.Frames():
			if !ok {
				e.drain(stream)
				return nil, true
			}
			e.store.AppendAudio(frame.Data)
			if err := stream.Send(frame.Data); err != nil {
				return err, false
			}

		case ierr := <-e.source.Interrupted():
			if err := e.reopenSource(ierr); err != nil {
				return err, false
			}

		case res, ok := <-stream.Results():
			if !ok {
				return e.streamError(stream), false
			}
			*attempt = 0
			e.apply(res)

		case <-flush.C:
			if err := e.store.Flush(); err != nil {
				e.log.Error().Err(err).Msg("periodic flush")
				e.emit(Update{Kind: KindError, Err: err})
			}
		}
	}
}

// reopenSource replaces a failed capture source once. Without a reopener
// the interruption is fatal.
func (e *Engine) reopenSource(cause error) error {
	e.log.Warn().Err(cause).Msg("capture interrupted")
	if e.reopen == nil {
		return cause
	}
	e.source.Close()
	src, err := e.reopen()
	if err != nil {
		return fmt.Errorf("%w: reopen failed: %v", audio.ErrDeviceUnavailable, err)
	}
	e.source = src
	e.emit(Update{Kind: KindStatus, Status: StatusLive})
	return nil
}

func (e *Engine) streamError(stream RecognitionStream) error {
	select {
	case err := <-stream.Err():
		return err
	default:
		return errors.New("stream closed")
	}
}

// apply converts a service result into session events and display updates.
func (e *Engine) apply(res soniox.Result) {
	if len(res.Tokens) == 0 {
		return
	}
	now := time.Now().UTC()
	var finals, interims []session.Event
	for _, tok := range res.Tokens {
		ev := session.Event{
			Span:               session.Span{StartMs: tok.StartMs, EndMs: tok.EndMs},
			Text:               tok.Text,
			Language:           tok.Language,
			LanguageConfidence: tok.LanguageConfidence,
			Speaker:            tok.Speaker,
			Final:              tok.IsFinal,
			Translation:        tok.IsTranslation(),
			SourceLanguage:     tok.SourceLanguage,
			ReceivedAt:         now,
		}
		ev.Language = e.store.ResolveLanguage(ev)
		if ev.Final {
			e.store.Append(ev)
			finals = append(finals, ev)
		} else {
			interims = append(interims, ev)
		}
	}
	e.emit(Update{
		Kind:     KindTokens,
		Finals:   finals,
		Interims: interims,
		Total:    e.store.EventCount(),
		Dropped:  e.source.Dropped(),
	})
}

// drain closes the uplink and waits briefly for the service to finalize
// whatever audio it still holds.
func (e *Engine) drain(stream RecognitionStream) {
	e.emit(Update{Kind: KindStatus, Status: StatusDraining})
	if err := stream.CloseSend(); err != nil {
		e.log.Warn().Err(err).Msg("close uplink")
		return
	}
	deadline := time.NewTimer(drainTimeout)
	defer deadline.Stop()
	for {
		select {
		case res, ok := <-stream.Results():
			if !ok {
				return
			}
			e.apply(res)
			if res.Finished {
				return
			}
		case <-deadline.C:
			e.log.Warn().Msg("drain timed out")
			return
		}
	}
}

func (e *Engine) backoff(attempt int) time.Duration {
	d := e.cfg.BackoffBase.Std() << (attempt - 1)
	if limit := e.cfg.BackoffCap.Std(); d > limit {
		d = limit
	}
	return d
}

// sleep waits for the delay unless a stop is requested first.
func (e *Engine) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-e.quit:
		return false
	}
}

// emit never blocks. The buffer only backs up when no reader is left
// (the UI crashed or already quit); the store holds the events, so
// dropping display updates there is safe, and the UI exits on channel
// close rather than on any particular update.
func (e *Engine) emit(u Update) {
	select {
	case e.updates <- u:
	default:
		e.log.Debug().Int("kind", int(u.Kind)).Msg("update dropped, no reader")
	}
}

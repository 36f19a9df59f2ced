package soniox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// sendCloseWait bounds how long Close waits for the peer to acknowledge the
// websocket close frame.
const sendCloseWait = time.Second

// Stream is one live bidirectional transcription session. Audio frames go
// in via Send, strictly in order; results arrive asynchronously on Results.
type Stream struct {
	conn *websocket.Conn

	results chan Result
	errc    chan error

	writeMu sync.Mutex

	closeChan chan struct{}
	closeOnce sync.Once
}

// Dial connects to the transcription service and performs the configuration
// handshake. An HTTP 401/403 during the handshake yields an *Error that
// reports IsAuth; any other failure is transient.
func Dial(ctx context.Context, cfg Config) (*Stream, error) {
	url := cfg.URL
	if url == "" {
		url = WebsocketURL
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, &Error{Code: resp.StatusCode, Message: "authentication rejected"}
		}
		return nil, fmt.Errorf("connect websocket: %w", err)
	}

	if err := conn.WriteJSON(cfg.request()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send config: %w", err)
	}

	s := &Stream{
		conn:      conn,
		results:   make(chan Result, 64),
		errc:      make(chan error, 1),
		closeChan: make(chan struct{}),
	}
	go s.receiveLoop()
	return s, nil
}

// Send uploads one audio frame as a binary message.
func (s *Stream) Send(frame []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return fmt.Errorf("send audio: %w", err)
	}
	return nil
}

// CloseSend signals end-of-audio. The server finishes processing buffered
// audio and replies with a final result carrying Finished.
func (s *Stream) CloseSend() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, []byte("")); err != nil {
		return fmt.Errorf("send end-of-audio: %w", err)
	}
	return nil
}

// Results returns the stream of server messages. The channel is closed after
// a Finished result, a transport failure, or Close.
func (s *Stream) Results() <-chan Result {
	return s.results
}

// Err yields the terminal error of the stream, if any. Receivable at most
// once, after Results is closed.
func (s *Stream) Err() <-chan error {
	return s.errc
}

// Close tears down the connection. Safe to call more than once.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		close(s.closeChan)
		deadline := time.Now().Add(sendCloseWait)
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		s.writeMu.Unlock()
		s.conn.Close()
	})
	return nil
}

func (s *Stream) receiveLoop() {
	defer close(s.results)

	for {
		select {
		case <-s.closeChan:
			return
		default:
		}

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || s.isClosed() {
				return
			}
			s.fail(fmt.Errorf("read result: %w", err))
			return
		}

		var res Result
		if err := json.Unmarshal(data, &res); err != nil {
			s.fail(fmt.Errorf("decode result: %w", err))
			return
		}

		if res.ErrorCode != 0 {
			s.fail(&Error{Code: res.ErrorCode, Message: res.ErrorMessage})
			return
		}

		select {
		case s.results <- res:
		case <-s.closeChan:
			return
		}

		if res.Finished {
			return
		}
	}
}

func (s *Stream) isClosed() bool {
	select {
	case <-s.closeChan:
		return true
	default:
		return false
	}
}

func (s *Stream) fail(err error) {
	select {
	case s.errc <- err:
	default:
	}
}

// IsAuthError reports whether err is a non-retryable authentication failure.
func IsAuthError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.IsAuth()
}

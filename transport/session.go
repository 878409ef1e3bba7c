// Copyright 2026 The Linkup Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport maintains the single duplex websocket connection
// to the chat server. A Session is one connection's lifetime: open,
// hydration burst, inbound events on a channel, outbound commands via
// Send, close. There is no reconnect logic here; when the connection
// drops the event channel closes and the caller decides what happens
// next.
package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/linkup-chat/linkup/wire"
)

// ErrClosed is returned by Send when the peer ended the connection.
// Distinct from the panic on sending after a local Close: the peer
// dropping is a runtime condition, not a programming error.
var ErrClosed = errors.New("connection closed by peer")

// eventBufferSize is the inbound channel capacity. Events are applied
// quickly (map and slice mutations), so a small buffer only needs to
// absorb scheduling jitter, not sustained backlog.
const eventBufferSize = 64

// Config holds configuration for opening a Session.
type Config struct {
	// URL is the websocket base URL, e.g. "ws://localhost:8000".
	// The chat path and token query parameter are appended by Open.
	URL string
	// Dialer is used for the websocket handshake. If nil,
	// websocket.DefaultDialer is used.
	Dialer *websocket.Dialer
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Session is one open websocket connection. Inbound frames are
// decoded and delivered in arrival order on Events. Outbound commands
// go through Send. Sessions are not reusable: once closed (locally or
// by the server), open a new one.
type Session struct {
	conn   *websocket.Conn
	logger *slog.Logger
	events chan wire.Event

	// closed is set by Close. Send consults it to fail fast instead
	// of writing to a dead connection.
	closed    atomic.Bool
	closeOnce sync.Once

	// lost is set by the read loop when the peer ends the connection.
	lost atomic.Bool

	writeMu sync.Mutex
}

// Open dials the chat websocket, authenticating with the access token
// as a query parameter, and sends the hydration burst: request.list,
// friend.list, team.list, in that order, so the server streams the
// full working set before any incremental event arrives.
//
// The returned Session owns the connection; the caller must drain
// Events until it closes and call Close when done.
func Open(ctx context.Context, config Config, accessToken string) (*Session, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("transport: URL is required")
	}
	if accessToken == "" {
		return nil, fmt.Errorf("transport: access token is required")
	}

	base, err := url.Parse(config.URL)
	if err != nil {
		return nil, fmt.Errorf("transport: invalid URL %q: %w", config.URL, err)
	}
	// The server routes on the trailing slash; JoinPath keeps it when
	// the last element ends with one.
	endpoint := base.JoinPath("chat/")
	endpoint.RawQuery = url.Values{"token": {accessToken}}.Encode()

	dialer := config.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	// One id per connection so a log stream with several sessions in
	// it (open, drop, manual reopen) stays attributable.
	logger = logger.With("session", ulid.Make().String())

	conn, _, err := dialer.DialContext(ctx, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("transport: dialing %s: %w", base.Host, err)
	}

	session := &Session{
		conn:   conn,
		logger: logger,
		events: make(chan wire.Event, eventBufferSize),
	}

	for _, command := range []wire.Command{
		wire.NewRequestList(),
		wire.NewFriendList(),
		wire.NewTeamList(),
	} {
		if err := session.Send(command); err != nil {
			session.Close()
			return nil, fmt.Errorf("transport: hydration burst: %w", err)
		}
	}

	go session.readLoop()

	session.logger.Info("session open", "host", base.Host)
	return session, nil
}

// Events returns the inbound event channel. Events arrive in the
// order the server sent them. The channel closes when the connection
// ends, for any reason.
func (s *Session) Events() <-chan wire.Event {
	return s.events
}

// Send writes a command to the server. Calling Send on a closed
// Session is a programming error and panics: commands must not be
// silently dropped, and there is no queue to park them in.
func (s *Session) Send(command wire.Command) error {
	if s.closed.Load() {
		panic("transport: send on closed session")
	}
	if s.lost.Load() {
		return fmt.Errorf("transport: sending %s: %w", command.CommandTag(), ErrClosed)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.WriteJSON(command); err != nil {
		return fmt.Errorf("transport: sending %s: %w", command.CommandTag(), err)
	}
	s.logger.Debug("command sent", "tag", command.CommandTag())
	return nil
}

// Close tears down the connection. Idempotent. The event channel
// closes once the read loop observes the closed connection.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		err = s.conn.Close()
		s.logger.Info("session closed")
	})
	return err
}

// readLoop reads frames until the connection ends, decoding each and
// delivering it on the event channel. Frames that fail to decode are
// logged and dropped; one malformed payload must not end the
// connection.
func (s *Session) readLoop() {
	defer close(s.events)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.lost.Store(true)
			if !s.closed.Load() {
				s.logger.Warn("connection lost", "error", err)
			}
			return
		}

		event, err := wire.DecodeFrame(data)
		if err != nil {
			s.logger.Warn("dropping malformed frame", "error", err)
			continue
		}
		s.events <- event
	}
}

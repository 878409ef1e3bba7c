// Copyright 2026 The Linkup Authors
// SPDX-License-Identifier: Apache-2.0

// Package reconcile turns inbound events into state mutations. One
// handler per event tag, each a small pure rule over the store:
// list-replacement snapshots, friend-list reordering, conversation
// scoping, request dedup, and monotonic search status advancement.
//
// The Reconciler is driven by a single consumer loop, one event at a
// time in arrival order. It never blocks and never errors: malformed
// or unrecognized events are logged and dropped.
package reconcile

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/linkup-chat/linkup/state"
	"github.com/linkup-chat/linkup/wire"
)

// Config holds dependencies for a Reconciler.
type Config struct {
	// Store is the state container to mutate. Required.
	Store *state.Store
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
	// Now supplies the current time for typing observations. If nil,
	// time.Now is used. Tests inject a fixed clock.
	Now func() time.Time
}

// Reconciler applies inbound events to the store.
type Reconciler struct {
	store  *state.Store
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Reconciler.
func New(config Config) (*Reconciler, error) {
	if config.Store == nil {
		return nil, fmt.Errorf("reconcile: Store is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &Reconciler{store: config.Store, logger: logger, now: now}, nil
}

// Apply merges one event into the store. The switch is exhaustive
// over the wire event set; UnknownEvent is the forward-compatibility
// escape hatch and is dropped with a log line.
func (r *Reconciler) Apply(event wire.Event) {
	switch e := event.(type) {
	case wire.FriendListEvent:
		r.store.SetFriends(e.Friends)
	case wire.TeamListEvent:
		r.store.SetTeam(e.Members)
	case wire.FriendNewEvent:
		r.store.PrependFriend(e.Friend)
	case wire.MessageListEvent:
		r.store.AppendMessages(e.Messages, e.Next, e.Friend.Username)
	case wire.MessageSendEvent:
		r.applyMessageSend(e)
	case wire.MessageTypeEvent:
		r.applyMessageType(e)
	case wire.RequestAcceptEvent:
		r.applyRequestAccept(e)
	case wire.RequestConnectEvent:
		r.applyRequestConnect(e)
	case wire.RequestListEvent:
		r.store.SetRequests(e.Requests)
	case wire.SearchEvent:
		r.store.SetSearchResults(e.Results)
	case wire.ThumbnailEvent:
		r.store.SetUser(e.User)
	case wire.UnknownEvent:
		r.logger.Warn("dropping unrecognized event", "source", e.RawSource)
	default:
		// Unreachable while the wire event set stays closed.
		r.logger.Error("event with no handler", "source", event.Source())
	}
}

// applyMessageSend updates the friend-list summary for the touched
// conversation (moving it to the front), then — only if that
// conversation is the open one — prepends the message and clears the
// typing indicator. A message for a closed conversation leaves the
// message list alone: a fresh page is loaded when that chat opens.
func (r *Reconciler) applyMessageSend(event wire.MessageSendEvent) {
	username := event.Friend.Username

	if !r.store.TouchFriend(username, event.Message.Text, event.Message.Created) {
		r.logger.Debug("message for unlisted friend", "username", username)
	}

	if username != r.store.ConversationUser() {
		return
	}
	r.store.PrependMessage(event.Message)
}

// applyMessageType stamps the typing indicator with the observation
// time — the instant the event arrived, not a time carried in the
// payload. Typing in any conversation other than the open one is
// ignored.
func (r *Reconciler) applyMessageType(event wire.MessageTypeEvent) {
	if event.Username != r.store.ConversationUser() {
		return
	}
	r.store.SetTyping(r.now())
}

// applyRequestAccept handles an accepted connection. Two independent
// effects: the receiver removes the resolved request from the pending
// list, and — whichever party this client is — a loaded search list
// advances the counterpart's status to connected.
func (r *Reconciler) applyRequestAccept(event wire.RequestAcceptEvent) {
	connection := event.Connection
	local := r.store.Session().User.Username

	if local == connection.Receiver.Username {
		if !r.store.RemoveRequest(connection.ID) {
			r.logger.Debug("accepted request not in pending list", "connection_id", connection.ID)
		}
	}

	counterpart := connection.Receiver.Username
	if local == connection.Receiver.Username {
		counterpart = connection.Sender.Username
	}
	r.store.UpgradeSearchStatus(counterpart, state.StatusConnected)
}

// applyRequestConnect handles a new connection request. When the
// local user sent it, the receiver's search row advances to
// pending-them. Otherwise the request joins the pending list, unless
// one from the same sender is already there.
func (r *Reconciler) applyRequestConnect(event wire.RequestConnectEvent) {
	connection := event.Connection
	local := r.store.Session().User.Username

	if local == connection.Sender.Username {
		r.store.UpgradeSearchStatus(connection.Receiver.Username, state.StatusPendingThem)
		return
	}

	if !r.store.AddRequest(connection) {
		r.logger.Debug("duplicate connection request suppressed",
			"sender", connection.Sender.Username)
	}
}

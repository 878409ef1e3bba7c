// Copyright 2026 The Linkup Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/linkup-chat/linkup/transport"
	"github.com/linkup-chat/linkup/wire"
)

// currentSession returns the open session. Sending a command without
// a connection is a programming error in the caller: the UI must not
// offer those actions while disconnected.
func (c *Core) currentSession() *transport.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		panic("client: not connected")
	}
	return c.session
}

// SearchUsers asks the server for users matching query. A blank query
// clears the search results locally; nothing is sent, matching the
// empty search box meaning "no search", not "search for everything".
func (c *Core) SearchUsers(query string) error {
	if strings.TrimSpace(query) == "" {
		c.store.ClearSearch()
		return nil
	}
	return c.currentSession().Send(wire.NewSearch(query))
}

// MessageList requests a page of the conversation over connectionID.
// Page 0 opens the conversation: local message state is reset first,
// so entering the same conversation twice always starts from the same
// blank slate. Pages above 0 extend it: only the pagination cursor is
// cleared, which also makes a second scroll-triggered request for the
// same page a no-op upstream.
func (c *Core) MessageList(connectionID int64, page int) error {
	if page <= 0 {
		c.store.ResetConversation()
	} else {
		c.store.ClearNextPage()
	}
	return c.currentSession().Send(wire.NewMessageList(connectionID, page))
}

// SendMessage sends text over the connection. The echo comes back as
// a message.send event; nothing is added to the store here.
func (c *Core) SendMessage(connectionID int64, text string) error {
	return c.currentSession().Send(wire.NewMessageSend(connectionID, text))
}

// NotifyTyping tells username's client that the local user is typing.
func (c *Core) NotifyTyping(username string) error {
	return c.currentSession().Send(wire.NewMessageType(username))
}

// SendFriendRequest asks to connect with username.
func (c *Core) SendFriendRequest(username string) error {
	return c.currentSession().Send(wire.NewRequestConnect(username))
}

// AcceptRequest accepts the pending friend request from username.
func (c *Core) AcceptRequest(username string) error {
	return c.currentSession().Send(wire.NewRequestAccept(username))
}

// UploadThumbnail sends a new profile thumbnail as base64-encoded
// image data. The updated profile comes back as a thumbnail event.
func (c *Core) UploadThumbnail(encoded, filename string) error {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("client: thumbnail is not valid base64: %w", err)
	}
	digest := blake3.Sum256(decoded)
	c.logger.Debug("uploading thumbnail",
		"filename", filename,
		"bytes", len(decoded),
		"digest", fmt.Sprintf("%x", digest[:8]))
	return c.currentSession().Send(wire.NewThumbnail(encoded, filename))
}

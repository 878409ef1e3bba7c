// Copyright 2026 The Linkup Authors
// SPDX-License-Identifier: Apache-2.0

package wire

// Command is an outbound frame. Implementations marshal to the flat
// {"source": tag, ...fields} shape the server expects; constructors
// set the tag, so callers never write one by hand.
type Command interface {
	// CommandTag returns the command's tag.
	CommandTag() Tag

	command()
}

// RequestListCommand asks for the pending request list. No payload.
type RequestListCommand struct {
	Source Tag `json:"source"`
}

// FriendListCommand asks for the friend list. No payload.
type FriendListCommand struct {
	Source Tag `json:"source"`
}

// TeamListCommand asks for the team roster. No payload.
type TeamListCommand struct {
	Source Tag `json:"source"`
}

// SearchCommand runs a user search.
type SearchCommand struct {
	Source Tag    `json:"source"`
	Query  string `json:"query"`
}

// MessageListCommand requests one page of a conversation.
type MessageListCommand struct {
	Source       Tag   `json:"source"`
	ConnectionID int64 `json:"connectionId"`
	Page         int   `json:"page"`
}

// MessageSendCommand sends a message on a conversation.
type MessageSendCommand struct {
	Source       Tag    `json:"source"`
	ConnectionID int64  `json:"connectionId"`
	Message      string `json:"message"`
}

// MessageTypeCommand tells the named user the local user is typing.
type MessageTypeCommand struct {
	Source   Tag    `json:"source"`
	Username string `json:"username"`
}

// RequestAcceptCommand accepts the pending request from the named
// sender.
type RequestAcceptCommand struct {
	Source   Tag    `json:"source"`
	Username string `json:"username"`
}

// RequestConnectCommand sends a connection request to the named user.
type RequestConnectCommand struct {
	Source   Tag    `json:"source"`
	Username string `json:"username"`
}

// ThumbnailCommand uploads a new avatar as base64 file content.
type ThumbnailCommand struct {
	Source   Tag    `json:"source"`
	Base64   string `json:"base64"`
	Filename string `json:"filename"`
}

func (c RequestListCommand) CommandTag() Tag    { return c.Source }
func (c FriendListCommand) CommandTag() Tag     { return c.Source }
func (c TeamListCommand) CommandTag() Tag       { return c.Source }
func (c SearchCommand) CommandTag() Tag         { return c.Source }
func (c MessageListCommand) CommandTag() Tag    { return c.Source }
func (c MessageSendCommand) CommandTag() Tag    { return c.Source }
func (c MessageTypeCommand) CommandTag() Tag    { return c.Source }
func (c RequestAcceptCommand) CommandTag() Tag  { return c.Source }
func (c RequestConnectCommand) CommandTag() Tag { return c.Source }
func (c ThumbnailCommand) CommandTag() Tag      { return c.Source }

func (RequestListCommand) command()    {}
func (FriendListCommand) command()     {}
func (TeamListCommand) command()       {}
func (SearchCommand) command()         {}
func (MessageListCommand) command()    {}
func (MessageSendCommand) command()    {}
func (MessageTypeCommand) command()    {}
func (RequestAcceptCommand) command()  {}
func (RequestConnectCommand) command() {}
func (ThumbnailCommand) command()      {}

// NewRequestList builds the request-list hydration command.
func NewRequestList() RequestListCommand {
	return RequestListCommand{Source: TagRequestList}
}

// NewFriendList builds the friend-list hydration command.
func NewFriendList() FriendListCommand {
	return FriendListCommand{Source: TagFriendList}
}

// NewTeamList builds the team-roster hydration command.
func NewTeamList() TeamListCommand {
	return TeamListCommand{Source: TagTeamList}
}

// NewSearch builds a search command for a non-empty query.
func NewSearch(query string) SearchCommand {
	return SearchCommand{Source: TagSearch, Query: query}
}

// NewMessageList builds a page request for the conversation behind
// the given connection id. Page zero is the newest page.
func NewMessageList(connectionID int64, page int) MessageListCommand {
	return MessageListCommand{Source: TagMessageList, ConnectionID: connectionID, Page: page}
}

// NewMessageSend builds a message-send command.
func NewMessageSend(connectionID int64, message string) MessageSendCommand {
	return MessageSendCommand{Source: TagMessageSend, ConnectionID: connectionID, Message: message}
}

// NewMessageType builds a typing notification to the named user.
func NewMessageType(username string) MessageTypeCommand {
	return MessageTypeCommand{Source: TagMessageType, Username: username}
}

// NewRequestAccept builds an accept for the request from the named
// sender.
func NewRequestAccept(username string) RequestAcceptCommand {
	return RequestAcceptCommand{Source: TagRequestAccept, Username: username}
}

// NewRequestConnect builds a connection request to the named user.
func NewRequestConnect(username string) RequestConnectCommand {
	return RequestConnectCommand{Source: TagRequestConnect, Username: username}
}

// NewThumbnail builds an avatar upload from base64 content and the
// original filename.
func NewThumbnail(base64, filename string) ThumbnailCommand {
	return ThumbnailCommand{Source: TagThumbnail, Base64: base64, Filename: filename}
}

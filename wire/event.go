// Copyright 2026 The Linkup Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/json"
	"fmt"

	"github.com/linkup-chat/linkup/state"
)

// Tag identifies an event or command kind on the wire.
type Tag string

// The full set of tags the server and client exchange.
const (
	TagFriendList     Tag = "friend.list"
	TagFriendNew      Tag = "friend.new"
	TagTeamList       Tag = "team.list"
	TagMessageList    Tag = "message.list"
	TagMessageSend    Tag = "message.send"
	TagMessageType    Tag = "message.type"
	TagRequestAccept  Tag = "request.accept"
	TagRequestConnect Tag = "request.connect"
	TagRequestList    Tag = "request.list"
	TagSearch         Tag = "search"
	TagThumbnail      Tag = "thumbnail"
)

// Event is an inbound frame decoded to its payload type. The set of
// implementations is closed: a type switch over events plus
// [UnknownEvent] is exhaustive.
type Event interface {
	// Source returns the frame's tag.
	Source() Tag

	event()
}

// FriendListEvent replaces the friend list wholesale.
type FriendListEvent struct {
	Friends []state.FriendEntry
}

// FriendNewEvent prepends a new conversation thread started by a
// peer.
type FriendNewEvent struct {
	Friend state.FriendEntry
}

// TeamListEvent replaces the team roster wholesale.
type TeamListEvent struct {
	Members []state.TeamMember
}

// MessageListEvent delivers one page of the conversation with Friend:
// the messages, the next-page cursor (nil when no further pages), and
// the conversation owner.
type MessageListEvent struct {
	Messages []state.Message `json:"messages"`
	Next     *int            `json:"next"`
	Friend   state.User      `json:"friend"`
}

// MessageSendEvent reports a message delivered on the conversation
// with Friend — sent by either side; Message.IsMe says which.
type MessageSendEvent struct {
	Message state.Message `json:"message"`
	Friend  state.User    `json:"friend"`
}

// MessageTypeEvent reports that Username is typing.
type MessageTypeEvent struct {
	Username string `json:"username"`
}

// RequestAcceptEvent reports that a connection request was accepted.
// Delivered to both parties.
type RequestAcceptEvent struct {
	Connection state.Connection
}

// RequestConnectEvent reports a new connection request. Delivered to
// both parties.
type RequestConnectEvent struct {
	Connection state.Connection
}

// RequestListEvent replaces the pending request list wholesale.
type RequestListEvent struct {
	Requests []state.Connection
}

// SearchEvent replaces the search results wholesale.
type SearchEvent struct {
	Results []state.SearchResult
}

// ThumbnailEvent carries the full updated profile echoed by the
// server after an avatar upload.
type ThumbnailEvent struct {
	User state.User
}

// UnknownEvent is a frame whose tag this client does not recognize.
// Forward compatibility: it is logged and dropped, never an error.
type UnknownEvent struct {
	RawSource string
	Data      json.RawMessage
}

func (FriendListEvent) Source() Tag     { return TagFriendList }
func (FriendNewEvent) Source() Tag      { return TagFriendNew }
func (TeamListEvent) Source() Tag       { return TagTeamList }
func (MessageListEvent) Source() Tag    { return TagMessageList }
func (MessageSendEvent) Source() Tag    { return TagMessageSend }
func (MessageTypeEvent) Source() Tag    { return TagMessageType }
func (RequestAcceptEvent) Source() Tag  { return TagRequestAccept }
func (RequestConnectEvent) Source() Tag { return TagRequestConnect }
func (RequestListEvent) Source() Tag    { return TagRequestList }
func (SearchEvent) Source() Tag         { return TagSearch }
func (ThumbnailEvent) Source() Tag      { return TagThumbnail }
func (e UnknownEvent) Source() Tag      { return Tag(e.RawSource) }

func (FriendListEvent) event()     {}
func (FriendNewEvent) event()      {}
func (TeamListEvent) event()       {}
func (MessageListEvent) event()    {}
func (MessageSendEvent) event()    {}
func (MessageTypeEvent) event()    {}
func (RequestAcceptEvent) event()  {}
func (RequestConnectEvent) event() {}
func (RequestListEvent) event()    {}
func (SearchEvent) event()         {}
func (ThumbnailEvent) event()      {}
func (UnknownEvent) event()        {}

// DecodeError reports a frame whose envelope or payload could not be
// decoded. It travels the same log-and-drop path as an unknown tag —
// a malformed server frame must never crash the client mid-handler.
type DecodeError struct {
	// Source is the frame's tag, empty when the envelope itself was
	// unreadable.
	Source Tag
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("wire: malformed frame: %v", e.Err)
	}
	return fmt.Sprintf("wire: malformed %s payload: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// frame is the inbound envelope.
type frame struct {
	Source string          `json:"source"`
	Data   json.RawMessage `json:"data"`
}

// DecodeFrame parses one inbound frame into its typed event. Unknown
// tags return an UnknownEvent and a nil error; payloads that fail to
// decode for a known tag return a *DecodeError.
func DecodeFrame(data []byte) (Event, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &DecodeError{Err: err}
	}

	decode := func(v any) error {
		if err := json.Unmarshal(f.Data, v); err != nil {
			return &DecodeError{Source: Tag(f.Source), Err: err}
		}
		return nil
	}

	switch Tag(f.Source) {
	case TagFriendList:
		var event FriendListEvent
		if err := decode(&event.Friends); err != nil {
			return nil, err
		}
		return event, nil
	case TagFriendNew:
		var event FriendNewEvent
		if err := decode(&event.Friend); err != nil {
			return nil, err
		}
		return event, nil
	case TagTeamList:
		var event TeamListEvent
		if err := decode(&event.Members); err != nil {
			return nil, err
		}
		return event, nil
	case TagMessageList:
		var event MessageListEvent
		if err := decode(&event); err != nil {
			return nil, err
		}
		return event, nil
	case TagMessageSend:
		var event MessageSendEvent
		if err := decode(&event); err != nil {
			return nil, err
		}
		return event, nil
	case TagMessageType:
		var event MessageTypeEvent
		if err := decode(&event); err != nil {
			return nil, err
		}
		return event, nil
	case TagRequestAccept:
		var event RequestAcceptEvent
		if err := decode(&event.Connection); err != nil {
			return nil, err
		}
		return event, nil
	case TagRequestConnect:
		var event RequestConnectEvent
		if err := decode(&event.Connection); err != nil {
			return nil, err
		}
		return event, nil
	case TagRequestList:
		var event RequestListEvent
		if err := decode(&event.Requests); err != nil {
			return nil, err
		}
		return event, nil
	case TagSearch:
		var event SearchEvent
		if err := decode(&event.Results); err != nil {
			return nil, err
		}
		return event, nil
	case TagThumbnail:
		var event ThumbnailEvent
		if err := decode(&event.User); err != nil {
			return nil, err
		}
		return event, nil
	default:
		return UnknownEvent{RawSource: f.Source, Data: f.Data}, nil
	}
}

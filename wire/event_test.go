// Copyright 2026 The Linkup Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeFrame(t *testing.T) {
	t.Run("friend list", func(t *testing.T) {
		data := []byte(`{"source": "friend.list", "data": [
			{"id": 1, "friend": {"username": "bob", "name": "Bob B"}, "preview": "hi", "updated": "2026-01-02T10:00:00Z"}
		]}`)
		event, err := DecodeFrame(data)
		if err != nil {
			t.Fatalf("DecodeFrame failed: %v", err)
		}
		list, ok := event.(FriendListEvent)
		if !ok {
			t.Fatalf("event type = %T, want FriendListEvent", event)
		}
		if len(list.Friends) != 1 || list.Friends[0].Friend.Username != "bob" {
			t.Errorf("unexpected payload: %+v", list)
		}
	})

	t.Run("message list with further pages", func(t *testing.T) {
		data := []byte(`{"source": "message.list", "data": {
			"messages": [{"id": 9, "is_me": false, "text": "yo", "created": "2026-01-02T10:00:00Z"}],
			"next": 1,
			"friend": {"username": "amy", "name": "Amy A"}
		}}`)
		event, err := DecodeFrame(data)
		if err != nil {
			t.Fatalf("DecodeFrame failed: %v", err)
		}
		page, ok := event.(MessageListEvent)
		if !ok {
			t.Fatalf("event type = %T, want MessageListEvent", event)
		}
		if page.Next == nil || *page.Next != 1 {
			t.Errorf("next = %v, want 1", page.Next)
		}
		if page.Friend.Username != "amy" {
			t.Errorf("friend = %q, want amy", page.Friend.Username)
		}
	})

	t.Run("message list final page", func(t *testing.T) {
		data := []byte(`{"source": "message.list", "data": {
			"messages": [], "next": null, "friend": {"username": "amy", "name": "Amy A"}
		}}`)
		event, err := DecodeFrame(data)
		if err != nil {
			t.Fatalf("DecodeFrame failed: %v", err)
		}
		if page := event.(MessageListEvent); page.Next != nil {
			t.Errorf("next = %v, want nil", page.Next)
		}
	})

	t.Run("typing", func(t *testing.T) {
		event, err := DecodeFrame([]byte(`{"source": "message.type", "data": {"username": "bob"}}`))
		if err != nil {
			t.Fatalf("DecodeFrame failed: %v", err)
		}
		if typing := event.(MessageTypeEvent); typing.Username != "bob" {
			t.Errorf("username = %q, want bob", typing.Username)
		}
	})

	t.Run("unknown tag is not an error", func(t *testing.T) {
		event, err := DecodeFrame([]byte(`{"source": "presence.update", "data": {"who": "bob"}}`))
		if err != nil {
			t.Fatalf("DecodeFrame failed: %v", err)
		}
		unknown, ok := event.(UnknownEvent)
		if !ok {
			t.Fatalf("event type = %T, want UnknownEvent", event)
		}
		if unknown.RawSource != "presence.update" {
			t.Errorf("raw source = %q", unknown.RawSource)
		}
		if unknown.Source() != Tag("presence.update") {
			t.Errorf("Source() = %q", unknown.Source())
		}
	})

	t.Run("malformed payload of known tag", func(t *testing.T) {
		_, err := DecodeFrame([]byte(`{"source": "message.type", "data": [1, 2, 3]}`))
		var decodeErr *DecodeError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("error = %v, want *DecodeError", err)
		}
		if decodeErr.Source != TagMessageType {
			t.Errorf("error source = %q, want message.type", decodeErr.Source)
		}
	})

	t.Run("malformed envelope", func(t *testing.T) {
		_, err := DecodeFrame([]byte(`{nope`))
		var decodeErr *DecodeError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("error = %v, want *DecodeError", err)
		}
		if decodeErr.Source != "" {
			t.Errorf("error source = %q, want empty", decodeErr.Source)
		}
	})
}

func TestCommandShape(t *testing.T) {
	t.Run("hydration command has only a source", func(t *testing.T) {
		data, err := json.Marshal(NewRequestList())
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if string(data) != `{"source":"request.list"}` {
			t.Errorf("wire shape = %s", data)
		}
	})

	t.Run("message list is flat", func(t *testing.T) {
		data, err := json.Marshal(NewMessageList(7, 2))
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if decoded["source"] != "message.list" {
			t.Errorf("source = %v", decoded["source"])
		}
		if decoded["connectionId"] != float64(7) || decoded["page"] != float64(2) {
			t.Errorf("fields = %v", decoded)
		}
	})

	t.Run("constructors bake the tag", func(t *testing.T) {
		commands := []Command{
			NewRequestList(), NewFriendList(), NewTeamList(),
			NewSearch("q"), NewMessageList(1, 0), NewMessageSend(1, "hi"),
			NewMessageType("bob"), NewRequestAccept("bob"),
			NewRequestConnect("bob"), NewThumbnail("aGk=", "me.png"),
		}
		want := []Tag{
			TagRequestList, TagFriendList, TagTeamList,
			TagSearch, TagMessageList, TagMessageSend,
			TagMessageType, TagRequestAccept,
			TagRequestConnect, TagThumbnail,
		}
		for i, command := range commands {
			if command.CommandTag() != want[i] {
				t.Errorf("command %d tag = %q, want %q", i, command.CommandTag(), want[i])
			}
		}
	})
}

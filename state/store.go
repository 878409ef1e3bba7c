// Copyright 2026 The Linkup Authors
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"sync"
	"time"
)

// Store is the single source of truth for synchronized client state.
// Construct one with NewStore and inject it wherever state is read or
// reconciled. All methods are safe for concurrent use; internally one
// mutex serializes every mutation, which is what preserves the
// one-frame-at-a-time reconciliation guarantee when the transport's
// reader goroutine and user actions race.
type Store struct {
	mu sync.Mutex

	session Session

	friends  []FriendEntry
	requests []Connection
	team     []TeamMember

	// searchLoaded distinguishes "no query issued" from "query with
	// zero results" — the UI renders those differently.
	searchLoaded bool
	search       []SearchResult

	// Conversation state. messages, messagesNext, and typing are only
	// meaningful for the conversation identified by conversationUser;
	// events addressed elsewhere must not touch them.
	messages         []Message
	messagesNext     *int
	conversationUser string
	typing           *time.Time
}

// NewStore returns an empty store: unauthenticated session, no lists
// loaded.
func NewStore() *Store {
	return &Store{}
}

//  Session

// Session returns a copy of the current session.
func (s *Store) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// SetSession marks the session authenticated with the given user and
// tokens.
func (s *Store) SetSession(user User, tokens Tokens) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{Authenticated: true, User: user, Tokens: tokens}
}

// ClearSession resets the session to the unauthenticated default. The
// synchronized lists are cleared with it: they belong to the user who
// just logged out.
func (s *Store) ClearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{}
	s.friends = nil
	s.requests = nil
	s.team = nil
	s.searchLoaded = false
	s.search = nil
	s.resetConversationLocked()
}

// SetUser replaces the session's user record (thumbnail event: the
// server echoes the full updated profile).
func (s *Store) SetUser(user User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.User = user
}

// MergeUser applies a profile patch to the session's user record.
func (s *Store) MergeUser(patch UserPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.User = patch.Apply(s.session.User)
}

//  Friend list

// Friends returns a copy of the friend list, most recently active
// first.
func (s *Store) Friends() []FriendEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]FriendEntry(nil), s.friends...)
}

// SetFriends replaces the friend list wholesale.
func (s *Store) SetFriends(friends []FriendEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.friends = append([]FriendEntry(nil), friends...)
}

// PrependFriend adds a new conversation thread at the front of the
// list.
func (s *Store) PrependFriend(entry FriendEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.friends = append([]FriendEntry{entry}, s.friends...)
}

// TouchFriend updates the preview and timestamp of the entry whose
// friend has the given username and moves it to the front of the
// list. Returns false if no entry matches.
func (s *Store) TouchFriend(username, preview string, updated time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, entry := range s.friends {
		if entry.Friend.Username != username {
			continue
		}
		entry.Preview = preview
		entry.Updated = updated
		s.friends = append(s.friends[:i], s.friends[i+1:]...)
		s.friends = append([]FriendEntry{entry}, s.friends...)
		return true
	}
	return false
}

//  Request list

// Requests returns a copy of the pending request list.
func (s *Store) Requests() []Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Connection(nil), s.requests...)
}

// SetRequests replaces the request list wholesale.
func (s *Store) SetRequests(requests []Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append([]Connection(nil), requests...)
}

// AddRequest prepends a connection request unless one from the same
// sender is already listed. Returns whether the request was added.
func (s *Store) AddRequest(connection Connection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.requests {
		if existing.Sender.Username == connection.Sender.Username {
			return false
		}
	}
	s.requests = append([]Connection{connection}, s.requests...)
	return true
}

// RemoveRequest deletes the request with the given connection id.
// Returns whether a request was removed.
func (s *Store) RemoveRequest(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.requests {
		if existing.ID == id {
			s.requests = append(s.requests[:i], s.requests[i+1:]...)
			return true
		}
	}
	return false
}

//  Search results

// SearchResults returns a copy of the current search results and
// whether a query is loaded at all.
func (s *Store) SearchResults() ([]SearchResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.searchLoaded {
		return nil, false
	}
	return append([]SearchResult(nil), s.search...), true
}

// SetSearchResults replaces the search results wholesale.
func (s *Store) SetSearchResults(results []SearchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchLoaded = true
	s.search = append([]SearchResult(nil), results...)
}

// ClearSearch drops the search results entirely (empty query).
func (s *Store) ClearSearch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchLoaded = false
	s.search = nil
}

// UpgradeSearchStatus advances the status of the result with the
// given username. The advance is monotonic: a status never moves
// backward (connected is never demoted to pending by a late event).
// Returns false when no results are loaded, the user is not listed,
// or the new status does not rank above the current one.
func (s *Store) UpgradeSearchStatus(username string, status ConnectStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.searchLoaded {
		return false
	}
	for i, result := range s.search {
		if result.Username != username {
			continue
		}
		if status.rank() <= result.Status.rank() {
			return false
		}
		s.search[i].Status = status
		return true
	}
	return false
}

//  Conversation

// Conversation returns a copy of the open conversation: messages
// (newest first), the pagination cursor (nil when no further pages),
// and the username identifying whose conversation is loaded (empty
// when none).
func (s *Store) Conversation() ([]Message, *int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := append([]Message(nil), s.messages...)
	var next *int
	if s.messagesNext != nil {
		n := *s.messagesNext
		next = &n
	}
	return messages, next, s.conversationUser
}

// ResetConversation clears all conversation state: messages, cursor,
// typing indicator, and conversation owner. Called before requesting
// the first page of a newly opened conversation so stale content from
// the previous one can never show.
func (s *Store) ResetConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetConversationLocked()
}

func (s *Store) resetConversationLocked() {
	s.messages = nil
	s.messagesNext = nil
	s.conversationUser = ""
	s.typing = nil
}

// ClearNextPage drops only the pagination cursor, ahead of requesting
// a subsequent page.
func (s *Store) ClearNextPage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messagesNext = nil
}

// AppendMessages appends a page of messages, records the new cursor,
// and marks which conversation the loaded list belongs to.
func (s *Store) AppendMessages(messages []Message, next *int, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, messages...)
	s.messagesNext = next
	s.conversationUser = username
}

// PrependMessage inserts a just-received message at the front of the
// open conversation and clears the typing indicator — a delivered
// message implicitly ends the typing state.
func (s *Store) PrependMessage(message Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append([]Message{message}, s.messages...)
	s.typing = nil
}

// ConversationUser returns the username the loaded conversation
// belongs to, or empty when none is open.
func (s *Store) ConversationUser() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationUser
}

// SetTyping records that the conversation partner was observed typing
// at the given instant.
func (s *Store) SetTyping(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.typing = &at
}

// Typing returns the last observed typing instant for the open
// conversation, or nil.
func (s *Store) Typing() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.typing == nil {
		return nil
	}
	at := *s.typing
	return &at
}

//  Team roster

// Team returns a copy of the team roster.
func (s *Store) Team() []TeamMember {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TeamMember(nil), s.team...)
}

// SetTeam replaces the team roster wholesale.
func (s *Store) SetTeam(members []TeamMember) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.team = append([]TeamMember(nil), members...)
}

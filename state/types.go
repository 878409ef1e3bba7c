// Copyright 2026 The Linkup Authors
// SPDX-License-Identifier: Apache-2.0

package state

import "time"

// User is an identity record as the server serializes it. Username is
// the unique key; every cross-reference between lists (friend
// matching, request dedup, search status updates) goes through it.
type User struct {
	Username    string `json:"username"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phone_no,omitempty"`
	Address     string `json:"address,omitempty"`
	Pincode     string `json:"pincode,omitempty"`
	Location    string `json:"location,omitempty"`
	Profession  string `json:"profession,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
}

// UserPatch is a partial profile edit. Nil fields are left unchanged.
// The same shape is sent to the profile update endpoint and merged
// into the local session's user on success.
type UserPatch struct {
	Name        *string `json:"name,omitempty"`
	Email       *string `json:"email,omitempty"`
	PhoneNumber *string `json:"phone_no,omitempty"`
	Address     *string `json:"address,omitempty"`
	Pincode     *string `json:"pincode,omitempty"`
	Location    *string `json:"location,omitempty"`
	Profession  *string `json:"profession,omitempty"`
}

// Apply returns a copy of u with the patch's non-nil fields merged in.
func (p UserPatch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = *p.PhoneNumber
	}
	if p.Address != nil {
		u.Address = *p.Address
	}
	if p.Pincode != nil {
		u.Pincode = *p.Pincode
	}
	if p.Location != nil {
		u.Location = *p.Location
	}
	if p.Profession != nil {
		u.Profession = *p.Profession
	}
	return u
}

// Tokens is the bearer token pair returned by sign-in. Access is
// embedded in the websocket URL; Refresh is stored for completeness
// (the core re-authenticates with credentials, not refresh tokens).
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Session is the authentication state. The zero value is the
// unauthenticated default the process starts with and returns to on
// logout.
type Session struct {
	Authenticated bool
	User          User
	Tokens        Tokens
}

// FriendEntry is one open conversation thread summary. The collection
// is ordered most-recently-active first and the order is actively
// maintained: a message.send event moves the touched entry to the
// front.
type FriendEntry struct {
	ID      int64     `json:"id"`
	Friend  User      `json:"friend"`
	Preview string    `json:"preview"`
	Updated time.Time `json:"updated"`
}

// Connection is a sender/receiver pairing representing a proposed or
// established relationship between two users.
type Connection struct {
	ID       int64     `json:"id"`
	Sender   User      `json:"sender"`
	Receiver User      `json:"receiver"`
	Created  time.Time `json:"created,omitempty"`
}

// ConnectStatus is the relationship between the local user and a
// search result, as computed by the server at query time and advanced
// locally by request.* events.
type ConnectStatus string

const (
	// StatusNone: no connection in either direction.
	StatusNone ConnectStatus = "no-connection"
	// StatusPendingMe: the result's user has an unresolved request TO
	// the local user.
	StatusPendingMe ConnectStatus = "pending-me"
	// StatusPendingThem: the local user has an unresolved request to
	// the result's user.
	StatusPendingThem ConnectStatus = "pending-them"
	// StatusConnected: an accepted connection exists.
	StatusConnected ConnectStatus = "connected"
)

// rank orders statuses for monotonic advancement. Within a displayed
// search list a status only ever moves forward: none, then pending
// (either direction), then connected. Events never regress it.
func (s ConnectStatus) rank() int {
	switch s {
	case StatusPendingMe, StatusPendingThem:
		return 1
	case StatusConnected:
		return 2
	default:
		return 0
	}
}

// SearchResult is one row of a user search. The server flattens the
// user fields alongside the computed status.
type SearchResult struct {
	User
	Status ConnectStatus `json:"status"`
}

// Message is one message of the currently open conversation. IsMe
// reports which side sent it, relative to the local user — the server
// serializes each message per recipient, so no user record is carried.
type Message struct {
	ID      int64     `json:"id"`
	IsMe    bool      `json:"is_me"`
	Text    string    `json:"text"`
	Created time.Time `json:"created"`
}

// TeamMember is one row of the team roster. The roster is replaced
// wholesale on team.list and otherwise opaque to the core.
type TeamMember struct {
	Username     string  `json:"username"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	DisasterType string  `json:"disaster_type"`
}

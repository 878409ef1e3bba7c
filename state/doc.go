// Copyright 2026 The Linkup Authors
// SPDX-License-Identifier: Apache-2.0

// Package state holds the synchronized entity types and the Store,
// the single source of truth for everything the client knows: the
// authenticated session, the friend list, pending connection
// requests, search results, the open conversation, and the team
// roster.
//
// The Store is an explicitly constructed value injected into the
// components that need it — there is no package-level instance. All
// mutation goes through its methods, serialized by one mutex: inbound
// event reconciliation and user-initiated actions never interleave
// mid-update. Read accessors return copies, so callers can render or
// inspect a snapshot without holding the store's lock.
package state

// Copyright 2026 The Linkup Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds sensitive material (passwords, session tokens,
// the vault identity key) in memory that the Go runtime never manages.
//
// A [Buffer] is backed by an anonymous mmap region locked into physical
// RAM (mlock, so it cannot be swapped to disk) and excluded from core
// dumps (MADV_DONTDUMP). Because the region lives outside the Go heap,
// the garbage collector cannot copy or relocate it, and Close can
// guarantee the bytes are zeroed exactly once, in place.
//
// Buffers are handed around by pointer and closed by whoever owns them
// last. Reading a closed buffer panics: secret lifetime bugs should
// surface during development, not silently return stale bytes.
package secret

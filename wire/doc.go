// Copyright 2026 The Linkup Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire defines the frame contract of the duplex connection.
//
// Inbound frames are {"source": tag, "data": payload} and decode to a
// closed set of event types — one struct per tag — via [DecodeFrame].
// Tags the client does not know decode to [UnknownEvent] rather than
// an error, so new server event kinds never crash old clients. A
// malformed payload of a known tag yields a [*DecodeError]; both
// cases travel the same drop-and-log path in the reconciler.
//
// Outbound commands are flat {"source": tag, ...fields} objects. Each
// command type's constructor bakes in its tag, so an ill-tagged
// command cannot be built.
package wire

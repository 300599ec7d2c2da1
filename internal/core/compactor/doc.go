// Package compactor minimizes serialized auth sessions before they are persisted.
//
// Compaction is a pure transform. A payload that looks like a session (it
// carries string access_token and refresh_token fields) is reduced to the
// fields needed to keep the session alive; everything else passes through
// byte-for-byte. Compacted output carries a version marker and is a fixed
// point: compacting it again returns the same string.
package compactor

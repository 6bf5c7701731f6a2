// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire turns replica state into bytes that two replicas can
// compare and agree on. A causal tree only converges if every replica
// that applies the same set of operations ends up with the same log;
// snapshots carry that log across process restarts. CBOR's Core
// Deterministic Encoding gives every value a single canonical byte
// string: map keys sorted, integers minimally sized, no
// indefinite-length containers.
package wire

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// modes bundles the encode and decode configuration this package
// builds exactly once. Splitting construction into its own type keeps
// the two cbor.EncMode/DecMode values from drifting out of sync with
// each other as options are added.
type modes struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var (
	shared     modes
	sharedOnce sync.Once
)

// get lazily builds and caches the package's codec configuration. A
// lazy build rather than an init() keeps the panic path (hit only if
// fxamacker/cbor rejects one of these options, which would mean this
// package itself has a bug) out of program startup and next to the
// code that actually needs it.
func get() modes {
	sharedOnce.Do(func() {
		shared = mustBuildModes()
	})
	return shared
}

// mustBuildModes derives this package's CBOR options from what the
// crdtree wire format actually needs: deterministic bytes for every
// encoded snapshot, and identifier types (ids.ReplicaID, ids.NodeID,
// logical.Timestamp) that serialize through their MarshalText/
// UnmarshalText methods rather than their unexported struct fields.
func mustBuildModes() modes {
	encOpts := cbor.CoreDetEncOptions()
	encOpts.TextMarshaler = cbor.TextMarshalerTextString
	enc, err := encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: building deterministic encode mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
		// A log entry's Metadata field is any; when the destination of
		// a decode is an interface rather than a concrete struct, cbor
		// has to pick a Go map type for nested CBOR maps on its own.
		// Its default, map[interface{}]interface{}, reflects that CBOR
		// technically allows non-string keys, but nothing in this wire
		// format ever produces one, and every caller that inspects a
		// decoded any value expects map[string]any.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}
	dec, err := decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("wire: building decode mode: %v", err))
	}

	return modes{enc: enc, dec: dec}
}

// EncodeSnapshot serializes v deterministically: calling it twice on
// equal values always yields byte-identical output. replica.Snapshot
// and this package's own recoding helpers both depend on that to hold
// across process boundaries and across Go map iteration order.
func EncodeSnapshot(v any) ([]byte, error) {
	data, err := get().enc.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("wire: encoding %T: %w", v, err)
	}
	return data, nil
}

// DecodeSnapshot parses data produced by EncodeSnapshot into v.
func DecodeSnapshot(data []byte, v any) error {
	if err := get().dec.Unmarshal(data, v); err != nil {
		return fmt.Errorf("wire: decoding into %T: %w", v, err)
	}
	return nil
}

// Recode re-serializes raw and parses the result into target. Its one
// job is restoring concrete Go types after they have passed through a
// decode into any: a generic CBOR decode of a struct-shaped value
// produces a map[string]any, and Recode's second pass against
// target's actual type recovers the original shape because both
// passes share the same `cbor:"..."` field tags.
func Recode(raw any, target any) error {
	data, err := EncodeSnapshot(raw)
	if err != nil {
		return err
	}
	return DecodeSnapshot(data, target)
}

// Diagnose renders data as CBOR diagnostic notation (RFC 8949 §8),
// for inspecting a captured snapshot by hand without writing a
// throwaway decode path.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}

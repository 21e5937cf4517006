package data

import (
	"bytes"
	"encoding/json"
	"errors"
)

var (
	// ErrNodeNotFound is returned when a node id is not registered.
	ErrNodeNotFound = errors.New("node not found")
	// ErrDuplicateNode is returned when a node id is inserted twice without upsert.
	ErrDuplicateNode = errors.New("duplicate node id")
	// ErrInvalidStruct is returned when an index struct violates its invariants.
	ErrInvalidStruct = errors.New("invalid index struct")
	// ErrUnknownType is returned when decoding a type tag with no registered struct.
	ErrUnknownType = errors.New("unknown index struct type")
)

// decodeStrict unmarshals b into v and rejects fields v does not declare.
func decodeStrict(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

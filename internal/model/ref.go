package model

import (
	"encoding/json"
	"fmt"
)

// Ref is a reference to another entity that remote payloads carry either as a
// bare id string or as a full embedded object. The shape is resolved when the
// payload is decoded at the boundary; the core never handles untyped values.
type Ref[T any] struct {
	// ID is always populated, whichever shape the payload used.
	ID string

	// Obj is non-nil only when the payload embedded the full object.
	Obj *T
}

// RefByID builds a by-id reference.
func RefByID[T any](id string) *Ref[T] {
	return &Ref[T]{ID: id}
}

// RefEmbedded builds an embedded reference.
func RefEmbedded[T any](id string, obj *T) *Ref[T] {
	return &Ref[T]{ID: id, Obj: obj}
}

// IsZero reports whether the reference points at nothing.
func (r *Ref[T]) IsZero() bool {
	return r == nil || (r.ID == "" && r.Obj == nil)
}

// idProbe extracts the identifier from an embedded object, accepting both the
// "id" and "_id" key the backend uses interchangeably.
type idProbe struct {
	ID    string `json:"id"`
	AltID string `json:"_id"`
}

func (p idProbe) value() string {
	if p.ID != "" {
		return p.ID
	}
	return p.AltID
}

// UnmarshalJSON decodes either a JSON string (bare id) or a JSON object
// (embedded entity, id pulled from "id" or "_id").
func (r *Ref[T]) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*r = Ref[T]{}
		return nil
	}

	if b[0] == '"' {
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return fmt.Errorf("decoding reference id: %w", err)
		}
		*r = Ref[T]{ID: id}
		return nil
	}

	var obj T
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("decoding embedded reference: %w", err)
	}
	var probe idProbe
	if err := json.Unmarshal(b, &probe); err != nil {
		return fmt.Errorf("probing reference id: %w", err)
	}
	*r = Ref[T]{ID: probe.value(), Obj: &obj}
	return nil
}

// MarshalJSON emits the embedded object when present, else the bare id.
// This round-trips the serialized-institution column of the history table.
func (r *Ref[T]) MarshalJSON() ([]byte, error) {
	if r == nil || r.IsZero() {
		return []byte("null"), nil
	}
	if r.Obj != nil {
		return json.Marshal(r.Obj)
	}
	return json.Marshal(r.ID)
}

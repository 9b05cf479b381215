// Package models defines the records held by the local replica and the
// payloads they carry.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/focussync/internal/common"
	"github.com/dmitrijs2005/focussync/internal/timex"
	"github.com/google/uuid"
)

// Envelope field names in the local (camelCase) representation.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
	FieldDeleted   = "isDeleted"
)

// Record is the unit of synchronization. The reconcile engine only looks at
// the envelope fields; Data holds the domain payload as a JSON object and is
// replaced as a whole.
type Record struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Deleted   bool
	Data      json.RawMessage
}

// NewID returns a collision resistant record identifier.
func NewID() string {
	return uuid.NewString()
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	if r.Data != nil {
		r.Data = append(json.RawMessage(nil), r.Data...)
	}
	return r
}

// Equal reports whether two records carry the same envelope and payload.
func (r Record) Equal(o Record) bool {
	return r.ID == o.ID &&
		r.CreatedAt.Equal(o.CreatedAt) &&
		r.UpdatedAt.Equal(o.UpdatedAt) &&
		r.Deleted == o.Deleted &&
		bytes.Equal(r.Data, o.Data)
}

// MarshalJSON flattens the envelope and the payload into one object:
//
//	{"id":"a","createdAt":"...","updatedAt":"...","isDeleted":false,"title":"x"}
func (r Record) MarshalJSON() ([]byte, error) {
	fields := map[string]json.RawMessage{}
	if len(r.Data) > 0 {
		if err := json.Unmarshal(r.Data, &fields); err != nil {
			return nil, fmt.Errorf("record %s payload: %w", r.ID, err)
		}
	}

	var err error
	if fields[FieldID], err = json.Marshal(r.ID); err != nil {
		return nil, err
	}
	if !r.CreatedAt.IsZero() {
		fields[FieldCreatedAt], _ = json.Marshal(timex.FormatInstant(r.CreatedAt))
	}
	if !r.UpdatedAt.IsZero() {
		fields[FieldUpdatedAt], _ = json.Marshal(timex.FormatInstant(r.UpdatedAt))
	}
	fields[FieldDeleted], _ = json.Marshal(r.Deleted)

	return json.Marshal(fields)
}

// UnmarshalJSON splits a flat object back into envelope and payload.
// Missing timestamps are left zero; callers decide how to repair them.
func (r *Record) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}

	var out Record
	if raw, ok := fields[FieldID]; ok {
		if err := json.Unmarshal(raw, &out.ID); err != nil {
			return fmt.Errorf("%s: %w", FieldID, err)
		}
	}
	if raw, ok := fields[FieldCreatedAt]; ok {
		t, err := decodeInstant(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", FieldCreatedAt, err)
		}
		out.CreatedAt = t
	}
	if raw, ok := fields[FieldUpdatedAt]; ok {
		t, err := decodeInstant(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", FieldUpdatedAt, err)
		}
		out.UpdatedAt = t
	}
	if raw, ok := fields[FieldDeleted]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &out.Deleted); err != nil {
			return fmt.Errorf("%s: %w", FieldDeleted, err)
		}
	}

	delete(fields, FieldID)
	delete(fields, FieldCreatedAt)
	delete(fields, FieldUpdatedAt)
	delete(fields, FieldDeleted)

	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	out.Data = data

	*r = out
	return nil
}

// decodeInstant accepts an RFC 3339 string or a number of milliseconds since
// the Unix epoch, which older snapshots used for createdAt.
func decodeInstant(raw json.RawMessage) (time.Time, error) {
	if isNull(raw) {
		return time.Time{}, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return timex.ParseInstant(s)
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Encode marshals a payload for Record.Data.
func Encode[T any](v T) (json.RawMessage, error) {
	return json.Marshal(v)
}

// Decode reads the payload of r into a T.
func Decode[T any](r Record) (T, error) {
	var v T
	if len(r.Data) == 0 {
		return v, nil
	}
	err := json.Unmarshal(r.Data, &v)
	return v, err
}

// CheckPayload reports whether the payload of r decodes as the type stored
// in collection.
func CheckPayload(collection string, r Record) error {
	var err error
	switch collection {
	case common.CollectionTasks:
		_, err = Decode[Task](r)
	case common.CollectionHabits:
		_, err = Decode[Habit](r)
	default:
		return fmt.Errorf("%w: %q", common.ErrUnknownCollection, collection)
	}
	if err != nil {
		return fmt.Errorf("%s payload of %q: %w", collection, r.ID, err)
	}
	return nil
}

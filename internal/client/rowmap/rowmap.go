// Package rowmap converts records between the local camelCase shape and the
// snake_case row shape of the remote store. The key rename is reversible for
// every field name the replica uses.
package rowmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/focussync/internal/client/models"
)

// ErrMalformedRecord is returned when a remote row cannot be mapped to a
// local record.
var ErrMalformedRecord = errors.New("malformed remote record")

// UserIDColumn is the identity column added to every pushed row.
const UserIDColumn = "user_id"

// Row is one remote row keyed by snake_case column names.
type Row map[string]any

// SnakeKey converts a camelCase key to snake_case: "plannedDate" -> "planned_date".
func SnakeKey(k string) string {
	var b strings.Builder
	b.Grow(len(k) + 4)
	for _, r := range k {
		if unicode.IsUpper(r) {
			b.WriteByte('_')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CamelKey converts a snake_case key to camelCase: "is_deleted" -> "isDeleted".
func CamelKey(k string) string {
	var b strings.Builder
	b.Grow(len(k))
	upper := false
	for _, r := range k {
		if r == '_' {
			upper = true
			continue
		}
		if upper && unicode.IsLower(r) {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			if upper {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		}
		upper = false
	}
	if upper {
		b.WriteByte('_')
	}
	return b.String()
}

func renameKeys(in map[string]any, fn func(string) string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[fn(k)] = v
	}
	return out
}

// Encode renders r as a remote row owned by userID.
func Encode(r models.Record, userID string) (Row, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", r.ID, err)
	}
	var local map[string]any
	if err := json.Unmarshal(b, &local); err != nil {
		return nil, fmt.Errorf("encode %s: %w", r.ID, err)
	}

	row := Row(renameKeys(local, SnakeKey))
	row[UserIDColumn] = userID
	return row, nil
}

// EncodeAll encodes every record; the result is never nil.
func EncodeAll(recs []models.Record, userID string) ([]Row, error) {
	rows := make([]Row, 0, len(recs))
	for _, r := range recs {
		row, err := Encode(r, userID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Decode maps a remote row back to a record. Rows without an id or an
// updated_at instant, or with fields of the wrong type, are malformed.
func Decode(row Row) (models.Record, error) {
	local := renameKeys(row, CamelKey)
	delete(local, CamelKey(UserIDColumn))

	b, err := json.Marshal(local)
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	var r models.Record
	if err := json.Unmarshal(b, &r); err != nil {
		return models.Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if r.ID == "" {
		return models.Record{}, fmt.Errorf("%w: missing id", ErrMalformedRecord)
	}
	if r.UpdatedAt.IsZero() {
		return models.Record{}, fmt.Errorf("%w: %s: missing updated_at", ErrMalformedRecord, r.ID)
	}
	if r.CreatedAt.IsZero() || r.CreatedAt.After(r.UpdatedAt) {
		r.CreatedAt = r.UpdatedAt
	}
	return r, nil
}

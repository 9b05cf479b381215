package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/focussync/internal/timex"
)

// ErrMalformedRow is returned for rows that lack the columns every record
// carries.
var ErrMalformedRow = errors.New("malformed row")

// Record is one stored row of a user's collection. Data holds the complete
// snake_case row as sent by the client; the remaining fields are extracted
// from it for indexing and the last-writer-wins guard.
type Record struct {
	UserID     string
	Collection string
	ID         string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	IsDeleted  bool
	Data       json.RawMessage
}

// RecordFromRow validates a client row and binds it to userID. Whatever
// user_id the row carried is replaced.
func RecordFromRow(userID, collection string, row map[string]any) (Record, error) {
	id, _ := row["id"].(string)
	if id == "" {
		return Record{}, fmt.Errorf("%w: missing id", ErrMalformedRow)
	}

	updatedAt, err := rowInstant(row, "updated_at")
	if err != nil {
		return Record{}, fmt.Errorf("%w: %s: %v", ErrMalformedRow, id, err)
	}
	createdAt, err := rowInstant(row, "created_at")
	if err != nil {
		createdAt = updatedAt
	}

	isDeleted := false
	if v, ok := row["is_deleted"]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return Record{}, fmt.Errorf("%w: %s: is_deleted is not a boolean", ErrMalformedRow, id)
		}
		isDeleted = b
	}

	bound := make(map[string]any, len(row)+1)
	for k, v := range row {
		bound[k] = v
	}
	bound["user_id"] = userID

	data, err := json.Marshal(bound)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %s: %v", ErrMalformedRow, id, err)
	}

	return Record{
		UserID:     userID,
		Collection: collection,
		ID:         id,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
		IsDeleted:  isDeleted,
		Data:       data,
	}, nil
}

func rowInstant(row map[string]any, key string) (time.Time, error) {
	s, _ := row[key].(string)
	if s == "" {
		return time.Time{}, fmt.Errorf("missing %s", key)
	}
	return timex.ParseInstant(s)
}

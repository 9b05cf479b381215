package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dmitrijs2005/focussync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_MarshalFlattensPayload(t *testing.T) {
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	data, err := Encode(Task{Title: "x", Category: CategoryQ1})
	require.NoError(t, err)

	r := Record{ID: "a", CreatedAt: ts, UpdatedAt: ts.Add(time.Second), Data: data}
	b, err := json.Marshal(r)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(b, &flat))
	require.Equal(t, "a", flat["id"])
	require.Equal(t, "2025-03-01T10:00:00Z", flat["createdAt"])
	require.Equal(t, "2025-03-01T10:00:01Z", flat["updatedAt"])
	require.Equal(t, false, flat["isDeleted"])
	require.Equal(t, "x", flat["title"])
	require.Equal(t, "q1", flat["category"])

	var back Record
	require.NoError(t, json.Unmarshal(b, &back))
	require.True(t, r.UpdatedAt.Equal(back.UpdatedAt))
	task, err := Decode[Task](back)
	require.NoError(t, err)
	require.Equal(t, "x", task.Title)
}

func TestRecord_UnmarshalLegacyMillisAndMissingUpdatedAt(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","createdAt":1700000000000,"title":"old"}`), &r))
	require.Equal(t, "1", r.ID)
	require.Equal(t, time.UnixMilli(1700000000000).UTC(), r.CreatedAt)
	require.True(t, r.UpdatedAt.IsZero())
	require.False(t, r.Deleted)
}

func TestRecord_UnmarshalRejectsBadTypes(t *testing.T) {
	var r Record
	require.Error(t, json.Unmarshal([]byte(`{"id":42}`), &r))
	require.Error(t, json.Unmarshal([]byte(`{"id":"a","updatedAt":"yesterday"}`), &r))
	require.Error(t, json.Unmarshal([]byte(`{"id":"a","isDeleted":"yes"}`), &r))
}

func TestRecord_CloneIsDeep(t *testing.T) {
	r := Record{ID: "a", Data: json.RawMessage(`{"title":"x"}`)}
	c := r.Clone()
	c.Data[2] = 'X'
	require.Equal(t, `{"title":"x"}`, string(r.Data))
	require.True(t, r.Equal(r.Clone()))
}

func TestNewID_Unique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 1000; i++ {
		id := NewID()
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestSeedSnapshot(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	snap, err := DefaultSeed(now).Snapshot(now)
	require.NoError(t, err)
	require.Len(t, snap.Tasks, 5)
	require.Len(t, snap.Habits, 2)
	require.Equal(t, "h1", snap.Habits[0].ID)

	first, err := Decode[Task](snap.Tasks[0])
	require.NoError(t, err)
	require.Equal(t, "2025-03-01", first.PlannedDate)
}

func TestTask_CompletedAtFormats(t *testing.T) {
	want := time.UnixMilli(1700000000000).UTC()

	for name, raw := range map[string]string{
		"epoch millis": `{"title":"a","completedAt":1700000000000}`,
		"rfc3339":      `{"title":"a","completedAt":"` + want.Format(time.RFC3339Nano) + `"}`,
	} {
		t.Run(name, func(t *testing.T) {
			task, err := Decode[Task](Record{Data: json.RawMessage(raw)})
			require.NoError(t, err)
			require.NotNil(t, task.CompletedAt)
			assert.Equal(t, want, *task.CompletedAt)
			assert.Equal(t, "a", task.Title)
		})
	}

	task, err := Decode[Task](Record{Data: json.RawMessage(`{"title":"a","completedAt":null}`)})
	require.NoError(t, err)
	assert.Nil(t, task.CompletedAt)

	_, err = Decode[Task](Record{Data: json.RawMessage(`{"title":"a","completedAt":true}`)})
	require.Error(t, err)
}

func TestCheckPayload(t *testing.T) {
	ok := Record{ID: "a", Data: json.RawMessage(`{"title":"x","completedDates":["2025-01-01"],"streak":1}`)}
	require.NoError(t, CheckPayload(common.CollectionTasks, ok))
	require.NoError(t, CheckPayload(common.CollectionHabits, ok))

	require.Error(t, CheckPayload(common.CollectionTasks, Record{ID: "b", Data: json.RawMessage(`{"title":123}`)}))
	require.Error(t, CheckPayload(common.CollectionHabits, Record{ID: "c", Data: json.RawMessage(`{"completedDates":"2025-01-01"}`)}))
	require.ErrorIs(t, CheckPayload("notes", ok), common.ErrUnknownCollection)
}

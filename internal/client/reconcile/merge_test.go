package reconcile

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/focussync/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_RemoteNewerReplacesLocal(t *testing.T) {
	local := []models.Record{{ID: "a", CreatedAt: t0, UpdatedAt: t0, Data: title("x")}}
	remote := []models.Record{{ID: "a", CreatedAt: t0, UpdatedAt: t0.Add(time.Minute), Data: title("y")}}

	out, n := Merge(local, remote)
	require.Len(t, out, 1)
	assert.Equal(t, 1, n)
	assert.Equal(t, "y", taskTitle(t, out[0]))
	assert.Equal(t, t0.Add(time.Minute), out[0].UpdatedAt)
	assert.Equal(t, "x", taskTitle(t, local[0]), "input is not modified")
}

func TestMerge_NewRemoteRecordIsInserted(t *testing.T) {
	local := []models.Record{{ID: "a", UpdatedAt: t0}}
	remote := []models.Record{{ID: "b", UpdatedAt: t0.Add(-time.Hour)}}

	out, n := Merge(local, remote)
	assert.Equal(t, []string{"a", "b"}, ids(out))
	assert.Equal(t, 1, n)
}

func TestMerge_LastWriteWinsEitherSide(t *testing.T) {
	older := models.Record{ID: "a", UpdatedAt: t0, Data: title("old")}
	newer := models.Record{ID: "a", UpdatedAt: t0.Add(time.Second), Data: title("new")}

	out, _ := Merge([]models.Record{older}, []models.Record{newer})
	assert.Equal(t, "new", taskTitle(t, out[0]))

	out, n := Merge([]models.Record{newer}, []models.Record{older})
	assert.Equal(t, "new", taskTitle(t, out[0]))
	assert.Zero(t, n)
}

func TestMerge_TieKeepsLocal(t *testing.T) {
	local := []models.Record{{ID: "a", UpdatedAt: t0, Data: title("local")}}
	remote := []models.Record{{ID: "a", UpdatedAt: t0, Data: title("remote")}}

	out, n := Merge(local, remote)
	assert.Zero(t, n)
	assert.Equal(t, "local", taskTitle(t, out[0]))
}

func TestMerge_Idempotent(t *testing.T) {
	local := []models.Record{
		{ID: "a", UpdatedAt: t0, Data: title("a")},
		{ID: "b", UpdatedAt: t0, Deleted: true},
	}
	remote := []models.Record{
		{ID: "a", UpdatedAt: t0.Add(time.Second), Data: title("a2")},
		{ID: "c", UpdatedAt: t0, Data: title("c")},
	}

	once, n1 := Merge(local, remote)
	twice, n2 := Merge(once, remote)
	assert.Equal(t, 2, n1)
	assert.Zero(t, n2)
	require.Len(t, twice, len(once))
	for i := range once {
		assert.True(t, once[i].Equal(twice[i]))
	}
}

func TestMerge_DuplicateRemoteIdsKeepNewest(t *testing.T) {
	remote := []models.Record{
		{ID: "a", UpdatedAt: t0.Add(2 * time.Second), Data: title("newest")},
		{ID: "a", UpdatedAt: t0.Add(time.Second), Data: title("older")},
	}
	out, _ := Merge(nil, remote)
	require.Len(t, out, 1)
	assert.Equal(t, "newest", taskTitle(t, out[0]))
}

func TestMerge_NeverRegressesUpdatedAt(t *testing.T) {
	local := []models.Record{{ID: "a", UpdatedAt: t0.Add(time.Hour)}, {ID: "b", UpdatedAt: t0}}
	remote := []models.Record{{ID: "a", UpdatedAt: t0}, {ID: "b", UpdatedAt: t0.Add(time.Hour)}}

	out, _ := Merge(local, remote)
	for _, r := range out {
		assert.Equal(t, t0.Add(time.Hour), r.UpdatedAt, r.ID)
	}
}

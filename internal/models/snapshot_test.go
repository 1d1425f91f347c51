package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeSnapshot_RoundTrip(t *testing.T) {
	s := &Snapshot{
		Version:   SnapshotVersion,
		Timestamp: 1700000000000,
		Notes: []Note{
			{ID: "n1", OwnerID: "u1", Title: "t", Content: "c", CreatedAt: 1, ModifiedAt: 2},
		},
		Categories: []Category{
			{ID: "c1", OwnerID: "u1", Name: "work", ModifiedAt: 3},
		},
		Links: []NoteCategoryLink{
			{ID: "l1", OwnerID: "u1", NoteID: "n1", CategoryID: "c1", ModifiedAt: 4},
		},
		Deletions: []Tombstone{
			{ID: "t1", TableName: TableNotes, RecordID: "n0", OwnerID: "u1", DeletedAt: 5, SyncStatus: TombstonePending},
		},
	}

	data, err := EncodeSnapshot(s)
	require.NoError(t, err)

	decoded, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, s, decoded)
}

func TestDecodeSnapshot_MissingDeletions_ReturnsEmptySlice(t *testing.T) {
	// Older writers did not emit the deletions array.
	data := []byte(`{"version":1,"timestamp":10,"notes":[],"categories":[],"noteCategories":[]}`)

	s, err := DecodeSnapshot(data)
	require.NoError(t, err)
	require.NotNil(t, s.Deletions)
	assert.Empty(t, s.Deletions)
}

func TestDecodeSnapshot_UnknownFields_Ignored(t *testing.T) {
	data := []byte(`{"version":1,"timestamp":10,"futureField":{"x":1},"notes":[{"id":"n1","ownerId":"u1","content":"c","createdAt":1,"modifiedAt":2,"deleted":false}]}`)

	s, err := DecodeSnapshot(data)
	require.NoError(t, err)
	require.Len(t, s.Notes, 1)
	assert.Equal(t, "n1", s.Notes[0].ID)
}

func TestDecodeSnapshot_InvalidJSON_ReturnsError(t *testing.T) {
	_, err := DecodeSnapshot([]byte(`{not json`))
	require.Error(t, err)
}

func TestNote_WireFieldNames(t *testing.T) {
	data, err := EncodeSnapshot(&Snapshot{
		Version:   SnapshotVersion,
		Timestamp: 1,
		Notes:     []Note{{ID: "n1", OwnerID: "u1", Content: "c", ModifiedAt: 2}},
	})
	require.NoError(t, err)

	assert.Contains(t, string(data), `"ownerId":"u1"`)
	assert.Contains(t, string(data), `"modifiedAt":2`)
	assert.Contains(t, string(data), `"noteCategories"`)
}

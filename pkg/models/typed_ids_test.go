package models

import (
	"encoding/json"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItemID(t *testing.T) {
	id := NewItemID()
	require.False(t, id.IsZero())

	parsed, err := ParseItemID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseItemID("not-a-uuid")
	assert.Error(t, err)

	var zero ItemID
	assert.True(t, zero.IsZero())
}

func TestItemIDRecordID(t *testing.T) {
	id := NewItemID()
	rid := id.RecordID()
	assert.Equal(t, "items", rid.Table)
	assert.Equal(t, id.String(), rid.ID)

	fid := NewFolderID()
	assert.Equal(t, "folders", fid.RecordID().Table)
}

func TestItemIDJSON(t *testing.T) {
	id := NewItemID()
	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"`+id.String()+`"`, string(data))

	var decoded ItemID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)
}

func TestItemIDCBORTable(t *testing.T) {
	id := NewItemID()
	data, err := cbor.Marshal(id)
	require.NoError(t, err)

	var decoded ItemID
	require.NoError(t, cbor.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)

	// A folder RecordID does not unmarshal into an ItemID.
	folderData, err := cbor.Marshal(NewFolderID())
	require.NoError(t, err)
	assert.Error(t, cbor.Unmarshal(folderData, &decoded))
}

func TestItemIDScan(t *testing.T) {
	id := NewItemID()

	var scanned ItemID
	require.NoError(t, scanned.Scan(id.String()))
	assert.Equal(t, id, scanned)

	require.NoError(t, scanned.Scan([]byte(id.String())))
	assert.Equal(t, id, scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.True(t, scanned.IsZero())

	assert.Error(t, scanned.Scan(42))
}

func TestItemTopLevel(t *testing.T) {
	folderID := NewFolderID()
	cases := []struct {
		name string
		item Item
		want bool
	}{
		{"active top-level", Item{Status: StatusActive}, true},
		{"active in folder", Item{Status: StatusActive, FolderID: &folderID}, false},
		{"inbox", Item{Status: StatusInbox}, false},
		{"archived", Item{Status: StatusArchived}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.item.TopLevel())
		})
	}
}

func TestItemKindPredicates(t *testing.T) {
	assert.True(t, (&Item{Kind: ItemKindProject}).IsRegion())
	assert.True(t, (&Item{Kind: ItemKindRoom}).IsRoom())
	assert.False(t, (&Item{Kind: ItemKindText}).IsRegion())
	assert.False(t, (&Item{Kind: ItemKindText}).IsRoom())
}

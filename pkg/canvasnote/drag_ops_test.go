package canvasnote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasnote/canvasnote/pkg/drag"
	"github.com/canvasnote/canvasnote/pkg/models"
)

func TestDragMoveAndDrop(t *testing.T) {
	c, _ := newTestCanvas(t)
	item, err := c.AddItem(models.Item{Kind: models.ItemKindText, Position: models.Position{X: 100, Y: 100}})
	require.NoError(t, err)

	require.NoError(t, c.BeginDrag(item.ID.String(), drag.Config{SnapDisabled: true}, 1))
	res, err := c.MoveDrag(500, 300)
	require.NoError(t, err)
	assert.Contains(t, res.Offsets, item.ID.String())

	require.NoError(t, c.EndDrag())
	assert.Equal(t, models.Position{X: 600, Y: 400}, c.Item(item.ID).Position)

	// The drop is one undoable action.
	require.True(t, c.Undo())
	assert.Equal(t, models.Position{X: 100, Y: 100}, c.Item(item.ID).Position)
}

func TestDragUnknownEntity(t *testing.T) {
	c, _ := newTestCanvas(t)
	assert.Error(t, c.BeginDrag("nope", drag.Config{}, 1))

	_, err := c.MoveDrag(10, 10)
	assert.Error(t, err)
	assert.Error(t, c.EndDrag())
}

func TestDragLockedItemRefused(t *testing.T) {
	c, _ := newTestCanvas(t)
	item, err := c.AddItem(models.Item{
		Kind:     models.ItemKindText,
		Metadata: models.Metadata{Locked: true},
	})
	require.NoError(t, err)
	assert.Error(t, c.BeginDrag(item.ID.String(), drag.Config{}, 1))
}

func TestDragSelectionDropsTogether(t *testing.T) {
	c, _ := newTestCanvas(t)
	a, err := c.AddItem(models.Item{Kind: models.ItemKindText, Position: models.Position{X: 100, Y: 100}})
	require.NoError(t, err)
	b, err := c.AddItem(models.Item{Kind: models.ItemKindText, Position: models.Position{X: 1000, Y: 100}})
	require.NoError(t, err)

	c.Select(a.ID.String(), b.ID.String())
	require.NoError(t, c.BeginDrag(a.ID.String(), drag.Config{SnapDisabled: true}, 1))
	_, err = c.MoveDrag(0, 500)
	require.NoError(t, err)
	require.NoError(t, c.EndDrag())

	assert.Equal(t, models.Position{X: 100, Y: 600}, c.Item(a.ID).Position)
	assert.Equal(t, models.Position{X: 1000, Y: 600}, c.Item(b.ID).Position)
}

func TestEndDragToFolder(t *testing.T) {
	c, _ := newTestCanvas(t)
	folder, err := c.AddFolder(models.Folder{Name: "inbox zero", Position: models.Position{X: 3000, Y: 3000}})
	require.NoError(t, err)
	item, err := c.AddItem(models.Item{Kind: models.ItemKindText, Position: models.Position{X: 100, Y: 100}})
	require.NoError(t, err)

	require.NoError(t, c.BeginDrag(item.ID.String(), drag.Config{SnapDisabled: true}, 1))
	_, err = c.MoveDrag(100, 100)
	require.NoError(t, err)
	require.NoError(t, c.EndDragToFolder(folder.ID))

	foldered := c.Item(item.ID)
	require.NotNil(t, foldered.FolderID)
	assert.Equal(t, folder.ID, *foldered.FolderID)
}

func TestEndDragToFolderRefusesCycle(t *testing.T) {
	c, _ := newTestCanvas(t)
	outer, err := c.AddFolder(models.Folder{Name: "outer", Position: models.Position{X: 100, Y: 100}})
	require.NoError(t, err)
	inner, err := c.AddFolder(models.Folder{Name: "inner", Position: models.Position{X: 3000, Y: 3000}})
	require.NoError(t, err)

	require.NoError(t, c.BeginDrag(inner.ID.String(), drag.Config{SnapDisabled: true}, 1))
	require.NoError(t, c.EndDragToFolder(outer.ID))
	require.NotNil(t, c.Folder(inner.ID).ParentID)

	// inner now sits under outer; dropping outer onto inner must not close
	// the loop.
	require.NoError(t, c.BeginDrag(outer.ID.String(), drag.Config{SnapDisabled: true}, 1))
	require.NoError(t, c.EndDragToFolder(inner.ID))
	assert.Nil(t, c.Folder(outer.ID).ParentID)
}

func TestEndDragToInbox(t *testing.T) {
	c, _ := newTestCanvas(t)
	item, err := c.AddItem(models.Item{Kind: models.ItemKindText, Position: models.Position{X: 100, Y: 100}})
	require.NoError(t, err)

	require.NoError(t, c.BeginDrag(item.ID.String(), drag.Config{SnapDisabled: true}, 1))
	require.NoError(t, c.EndDragToInbox())
	assert.Equal(t, models.StatusInbox, c.Item(item.ID).Status)
}

func TestEndDragToInboxExemptsProject(t *testing.T) {
	c, _ := newTestCanvas(t)
	project, err := c.AddItem(models.Item{Kind: models.ItemKindProject, Position: models.Position{X: 1000, Y: 1000}})
	require.NoError(t, err)

	require.NoError(t, c.BeginDrag(project.ID.String(), drag.Config{SnapDisabled: true}, 1))
	require.NoError(t, c.EndDragToInbox())

	// Project regions never leave the canvas through an inbox drop.
	assert.Equal(t, models.StatusActive, c.Item(project.ID).Status)
}

func TestEndDragToArchive(t *testing.T) {
	c, _ := newTestCanvas(t)
	item, err := c.AddItem(models.Item{Kind: models.ItemKindText, Position: models.Position{X: 100, Y: 100}})
	require.NoError(t, err)

	require.NoError(t, c.BeginDrag(item.ID.String(), drag.Config{SnapDisabled: true}, 1))
	require.NoError(t, c.EndDragToArchive())
	assert.Equal(t, models.StatusArchived, c.Item(item.ID).Status)
}

func TestDragRegionCarriesContentsThroughEngine(t *testing.T) {
	c, _ := newTestCanvas(t)
	project, err := c.AddItem(models.Item{Kind: models.ItemKindProject, Position: models.Position{X: 1000, Y: 1000}})
	require.NoError(t, err)

	// Creation placement keeps new items clear of the region, so move one
	// inside deliberately.
	inside, err := c.AddItem(models.Item{Kind: models.ItemKindText, Position: models.Position{X: 100, Y: 100}})
	require.NoError(t, err)
	c.UpdatePositions([]PositionUpdate{
		{ID: inside.ID.String(), Entity: "item", Position: models.Position{X: 1100, Y: 1100}},
	})

	require.NoError(t, c.BeginDrag(project.ID.String(), drag.Config{SnapDisabled: true}, 1))
	_, err = c.MoveDrag(200, 0)
	require.NoError(t, err)
	require.NoError(t, c.EndDrag())

	assert.Equal(t, models.Position{X: 1200, Y: 1000}, c.Item(project.ID).Position)
	assert.Equal(t, models.Position{X: 1300, Y: 1100}, c.Item(inside.ID).Position)
}

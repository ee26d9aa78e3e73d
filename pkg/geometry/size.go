package geometry

import "github.com/canvasnote/canvasnote/pkg/models"

// Default dimensions per item kind, in canvas units. Declared metadata
// dimensions always take precedence over this table.
const (
	TextWidth  = 280
	TextHeight = 120

	LinkWidth         = 280
	LinkHeight        = 40
	LinkPreviewHeight = 240

	ImageWidth  = 280
	ImageHeight = 210

	VideoWidth  = 280
	VideoHeight = 158

	RoomWidth  = 160
	RoomHeight = 160

	ProjectWidth  = 600
	ProjectHeight = 400

	FolderWidth  = 240
	FolderHeight = 48
)

// Canvas extents. Every drop is clamped into the padded interior of this
// rectangle as the final constraint.
const (
	CanvasWidth   = 6000
	CanvasHeight  = 6000
	CanvasPadding = 24
)

// CanvasBounds returns the padded rectangle entities may occupy.
func CanvasBounds() Rect {
	return Rect{
		X: CanvasPadding,
		Y: CanvasPadding,
		W: CanvasWidth - 2*CanvasPadding,
		H: CanvasHeight - 2*CanvasPadding,
	}
}

// ItemSize resolves the dimensions of an item. Metadata overrides win;
// otherwise the kind lookup table applies, with one special case: a link
// that carries a preview image renders taller than a bare link.
func ItemSize(kind models.ItemKind, meta models.Metadata) Size {
	s := defaultSize(kind, meta)
	if meta.Width != nil && *meta.Width > 0 {
		s.W = *meta.Width
	}
	if meta.Height != nil && *meta.Height > 0 {
		s.H = *meta.Height
	}
	return s
}

func defaultSize(kind models.ItemKind, meta models.Metadata) Size {
	switch kind {
	case models.ItemKindText:
		return Size{W: TextWidth, H: TextHeight}
	case models.ItemKindLink:
		if meta.PreviewImage != "" {
			return Size{W: LinkWidth, H: LinkPreviewHeight}
		}
		return Size{W: LinkWidth, H: LinkHeight}
	case models.ItemKindImage:
		return Size{W: ImageWidth, H: ImageHeight}
	case models.ItemKindVideo:
		return Size{W: VideoWidth, H: VideoHeight}
	case models.ItemKindRoom:
		return Size{W: RoomWidth, H: RoomHeight}
	case models.ItemKindProject:
		return Size{W: ProjectWidth, H: ProjectHeight}
	default:
		return Size{W: TextWidth, H: TextHeight}
	}
}

// FolderSize returns the canvas dimensions of a folder card.
func FolderSize() Size {
	return Size{W: FolderWidth, H: FolderHeight}
}

// ItemRect builds the bounding box of an item from its position and
// resolved size.
func ItemRect(it *models.Item) Rect {
	return RectAt(Point{X: it.Position.X, Y: it.Position.Y}, ItemSize(it.Kind, it.Metadata))
}

// FolderRect builds the bounding box of a folder card.
func FolderRect(f *models.Folder) Rect {
	return RectAt(Point{X: f.Position.X, Y: f.Position.Y}, FolderSize())
}

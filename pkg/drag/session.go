// Package drag implements the interactive drag session: live snap offsets,
// multi-select and rigid-carry group movement, and the drop-time constraint
// chain (region containment or exclusion, room back-navigation zone, canvas
// boundary clamp).
//
// A session works on an immutable snapshot of the visible rectangles taken
// at drag start. Per-move ticks do in-memory geometry only and return visual
// deltas for the rendering layer; the authoritative model is written once,
// at drop time, by the engine that owns the session.
package drag

import (
	"fmt"

	"github.com/canvasnote/canvasnote/pkg/geometry"
)

// Drop-time constraint parameters, in canvas units unless noted.
const (
	// SnapThreshold is in screen pixels; the live threshold is divided by
	// the session zoom so snapping feels constant at every zoom level.
	SnapThreshold = 8
	// AdjacencyGap is the preferred spacing offered as an extra snap stop
	// beside a neighbor's edge.
	AdjacencyGap = 16
	// RegionPadding insets the usable interior of a project region.
	RegionPadding = 20
	// ContainmentRatio is the fraction of an entity's own area that must
	// overlap a region for the entity to be captured by it.
	ContainmentRatio = 0.5
	// BackZoneWidth and BackZoneHeight reserve the area around a room's
	// origin for the back-navigation control.
	BackZoneWidth  = 140
	BackZoneHeight = 90
)

// State is the drag session lifecycle. A session is created in Dragging and
// reaches Dropped exactly once; there is no cancel path other than Undo
// after the drop.
type State int

const (
	Idle State = iota
	Dragging
	Dropped
)

// Entity is one visible rectangle in the drag snapshot.
type Entity struct {
	ID     string
	Rect   geometry.Rect
	Region bool // project-kind region
	Room   bool // room-kind item
}

// Config controls session behavior.
type Config struct {
	// SnapDisabled passes raw offsets through unchanged and clears guides.
	SnapDisabled bool
}

// Guides carries the matched alignment line coordinates for visual
// feedback, one per axis, nil when no snap matched.
type Guides struct {
	X *float64
	Y *float64
}

// MoveResult is the outcome of one drag-move tick.
type MoveResult struct {
	// Offsets is the visual delta to apply per moved entity, in canvas
	// units. All members of the drag set and the carried set receive the
	// same delta.
	Offsets map[string]geometry.Point
	Guides  Guides
}

// FinalPosition is one entity's constrained position at drop time.
type FinalPosition struct {
	ID       string
	Position geometry.Point
}

// Session is a single drag interaction from grab to drop.
type Session struct {
	cfg     Config
	zoom    float64
	inRoom  bool
	grabbed string
	state   State

	entities map[string]Entity
	dragSet  map[string]bool
	// carried maps a rigidly carried entity to the dragged region that
	// captured it at drag start.
	carried map[string]string
	offset  geometry.Point
}

// NewSession starts a drag of the grabbed entity.
//
// If the grabbed entity is part of the selection, the whole selection moves
// together; otherwise only the grabbed entity moves. Any dragged project
// region additionally carries the entities geometrically contained in it,
// and a selected entity that is also carried by a selected region is demoted
// out of the explicit drag set so it is not moved twice.
func NewSession(cfg Config, grabbedID string, entities []Entity, selection []string, inRoom bool, zoom float64) (*Session, error) {
	if zoom <= 0 {
		zoom = 1
	}
	byID := make(map[string]Entity, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}
	if _, ok := byID[grabbedID]; !ok {
		return nil, fmt.Errorf("drag: unknown entity %s", grabbedID)
	}

	s := &Session{
		cfg:      cfg,
		zoom:     zoom,
		inRoom:   inRoom,
		grabbed:  grabbedID,
		state:    Dragging,
		entities: byID,
		dragSet:  make(map[string]bool),
		carried:  make(map[string]string),
	}

	selected := make(map[string]bool, len(selection))
	for _, id := range selection {
		selected[id] = true
	}
	if selected[grabbedID] {
		for id := range selected {
			if _, ok := byID[id]; ok {
				s.dragSet[id] = true
			}
		}
	} else {
		s.dragSet[grabbedID] = true
	}

	for id := range s.dragSet {
		e := byID[id]
		if !e.Region {
			continue
		}
		for _, other := range entities {
			if other.ID == id || (other.Region && s.dragSet[other.ID]) {
				continue
			}
			if containedBy(other.Rect, e.Rect) {
				s.carried[other.ID] = id
			}
		}
	}
	// Demote explicitly selected entities that a selected region already
	// carries; the carry translation covers them.
	for id := range s.carried {
		delete(s.dragSet, id)
	}

	return s, nil
}

// State returns the session lifecycle state.
func (s *Session) State() State { return s.state }

// Grabbed returns the id of the entity under the pointer.
func (s *Session) Grabbed() string { return s.grabbed }

// MovedIDs returns every entity the session moves: the drag set plus the
// carried set.
func (s *Session) MovedIDs() []string {
	ids := make([]string, 0, len(s.dragSet)+len(s.carried))
	for id := range s.dragSet {
		ids = append(ids, id)
	}
	for id := range s.carried {
		ids = append(ids, id)
	}
	return ids
}

// CarriedBy returns the id of the dragged region carrying the entity, if
// any.
func (s *Session) CarriedBy(id string) (string, bool) {
	region, ok := s.carried[id]
	return region, ok
}

// Move processes one drag tick. dx and dy are the screen-space pointer
// deltas since drag start; the session converts them to canvas units with
// the zoom factor, applies snapping against the visible non-dragged
// rectangles, and returns the corrected visual delta for every moved
// entity.
func (s *Session) Move(dx, dy float64) MoveResult {
	delta := geometry.Point{X: dx / s.zoom, Y: dy / s.zoom}
	guides := Guides{}

	if !s.cfg.SnapDisabled {
		grabbed := s.entities[s.grabbed]
		moved := grabbed.Rect.Translate(delta.X, delta.Y)
		threshold := SnapThreshold / s.zoom

		if sn, ok := s.snapAxis(moved, threshold, true); ok {
			delta.X += sn.correction
			guides.X = &sn.guide
		}
		if sn, ok := s.snapAxis(moved, threshold, false); ok {
			delta.Y += sn.correction
			guides.Y = &sn.guide
		}
	}

	s.offset = delta
	offsets := make(map[string]geometry.Point, len(s.dragSet)+len(s.carried))
	for id := range s.dragSet {
		offsets[id] = delta
	}
	for id := range s.carried {
		offsets[id] = delta
	}
	return MoveResult{Offsets: offsets, Guides: guides}
}

// Drop resolves the final constrained position of every moved entity and
// transitions the session to Dropped.
//
// Regular entities run the full constraint chain: containment against
// project regions, the room back-navigation exclusion zone, then the canvas
// boundary clamp. A dragged project region is only boundary clamped, and
// its carried contents receive exactly the translation the region received.
func (s *Session) Drop() []FinalPosition {
	s.state = Dropped
	bounds := geometry.CanvasBounds()

	finals := make([]FinalPosition, 0, len(s.dragSet)+len(s.carried))
	regionDelta := make(map[string]geometry.Point)

	for id := range s.dragSet {
		e := s.entities[id]
		moved := e.Rect.Translate(s.offset.X, s.offset.Y)

		if e.Region {
			pos := moved.ClampInto(bounds)
			finals = append(finals, FinalPosition{ID: id, Position: pos})
			regionDelta[id] = geometry.Point{X: pos.X - e.Rect.X, Y: pos.Y - e.Rect.Y}
			continue
		}

		pos := s.constrain(id, moved)
		finals = append(finals, FinalPosition{ID: id, Position: pos})
	}

	for id, regionID := range s.carried {
		e := s.entities[id]
		d, ok := regionDelta[regionID]
		if !ok {
			d = s.offset
		}
		finals = append(finals, FinalPosition{ID: id, Position: geometry.Point{
			X: e.Rect.X + d.X,
			Y: e.Rect.Y + d.Y,
		}})
	}

	return finals
}

// constrain runs the per-entity drop constraint chain for a non-region
// entity.
func (s *Session) constrain(id string, moved geometry.Rect) geometry.Point {
	moved = s.resolveRegions(id, moved)

	if s.inRoom {
		zone := geometry.Rect{W: BackZoneWidth, H: BackZoneHeight}
		if moved.Intersects(zone) {
			moved = pushOutside(moved, zone)
		}
	}

	return moved.ClampInto(geometry.CanvasBounds())
}

// resolveRegions applies containment or exclusion against the project
// region the moved rectangle overlaps most. Overlap of at least half the
// entity's own area captures it into the region's padded interior; a
// lesser overlap with the padded footprint pushes it out to the nearest
// free edge.
func (s *Session) resolveRegions(id string, moved geometry.Rect) geometry.Rect {
	var best *Entity
	bestArea := 0.0
	for _, e := range s.entities {
		if !e.Region || e.ID == id || s.dragSet[e.ID] {
			continue
		}
		area := moved.IntersectionArea(e.Rect)
		if area > bestArea {
			bestArea = area
			captured := e
			best = &captured
		}
	}
	if best == nil {
		return moved
	}

	if bestArea >= moved.Area()*ContainmentRatio {
		inner := best.Rect.Inflate(-RegionPadding)
		p := moved.ClampInto(inner)
		return geometry.RectAt(p, geometry.Size{W: moved.W, H: moved.H})
	}

	padded := best.Rect.Inflate(RegionPadding)
	if moved.Intersects(padded) {
		return pushOutside(moved, padded)
	}
	return moved
}

// pushOutside translates r the minimal distance that clears the zone,
// choosing among the four edge directions.
func pushOutside(r geometry.Rect, zone geometry.Rect) geometry.Rect {
	left := r.X + r.W - zone.X
	right := zone.X + zone.W - r.X
	up := r.Y + r.H - zone.Y
	down := zone.Y + zone.H - r.Y

	m := left
	dx, dy := -left, 0.0
	if right < m {
		m = right
		dx, dy = right, 0
	}
	if up < m {
		m = up
		dx, dy = 0, -up
	}
	if down < m {
		dx, dy = 0, down
	}
	return r.Translate(dx, dy)
}

func containedBy(r, region geometry.Rect) bool {
	return r.IntersectionArea(region) >= r.Area()*ContainmentRatio
}

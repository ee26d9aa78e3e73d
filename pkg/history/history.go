// Package history implements the undo/redo log for structural and
// positional canvas mutations. Field-only edits (titles, descriptions,
// lock or vault flags) are deliberately not recorded; only changes to
// position or existence are reversible.
package history

import "github.com/canvasnote/canvasnote/pkg/models"

// DefaultLimit caps the retained undo depth. Recording past the limit
// evicts the oldest entry, so very old moves stop being reversible.
const DefaultLimit = 100

// EntityKind distinguishes item updates from folder updates inside a Move.
type EntityKind string

const (
	EntityItem   EntityKind = "item"
	EntityFolder EntityKind = "folder"
)

// MoveUpdate records one entity's position change, with both endpoints so
// the inverse is exact.
type MoveUpdate struct {
	ID     string
	Entity EntityKind
	From   models.Position
	To     models.Position
}

// Action is a recorded, immutable canvas mutation. Implementations form a
// closed set.
type Action interface {
	isAction()
}

// Move is a batch of position changes committed atomically, e.g. one drag
// drop of a multi-selection or one auto-layout pass.
type Move struct {
	Updates []MoveUpdate
}

// AddItem records an item insertion. Its inverse is a deletion.
type AddItem struct {
	Item models.Item
}

// DeleteItem records an item deletion, retaining the full record so the
// inverse can re-insert it with the original identity.
type DeleteItem struct {
	Item models.Item
}

// AddFolder records a folder insertion. Its inverse is a deletion.
type AddFolder struct {
	Folder models.Folder
}

// DeleteFolder records a folder deletion, retaining the full record so the
// inverse can re-insert it with the original identity.
type DeleteFolder struct {
	Folder models.Folder
}

func (Move) isAction()         {}
func (AddItem) isAction()      {}
func (DeleteItem) isAction()   {}
func (AddFolder) isAction()    {}
func (DeleteFolder) isAction() {}

// Log holds the two stacks of the undo model. Recording a new action
// invalidates the redo stack. The zero value is usable and retains up to
// DefaultLimit actions.
type Log struct {
	past   []Action
	future []Action
	limit  int
}

// NewLog returns a log retaining up to limit actions; limit <= 0 means
// DefaultLimit.
func NewLog(limit int) *Log {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Log{limit: limit}
}

// Record appends an action to the past stack and clears the future stack.
func (l *Log) Record(a Action) {
	limit := l.limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	l.past = append(l.past, a)
	if len(l.past) > limit {
		l.past = l.past[len(l.past)-limit:]
	}
	l.future = nil
}

// Undo pops the most recent action off the past stack and pushes it onto
// the future stack. The caller applies the inverse. Returns false when
// there is nothing to undo.
func (l *Log) Undo() (Action, bool) {
	if len(l.past) == 0 {
		return nil, false
	}
	a := l.past[len(l.past)-1]
	l.past = l.past[:len(l.past)-1]
	l.future = append(l.future, a)
	return a, true
}

// Redo mirrors Undo: it pops the future stack and pushes onto the past
// stack. The caller re-applies the action. Returns false when there is
// nothing to redo.
func (l *Log) Redo() (Action, bool) {
	if len(l.future) == 0 {
		return nil, false
	}
	a := l.future[len(l.future)-1]
	l.future = l.future[:len(l.future)-1]
	l.past = append(l.past, a)
	return a, true
}

// Discard removes every action matching the predicate from both stacks.
// Used when a recorded action's backend write is rejected outright, so the
// dead action can never be replayed by undo or redo.
func (l *Log) Discard(match func(Action) bool) {
	l.past = discard(l.past, match)
	l.future = discard(l.future, match)
}

func discard(stack []Action, match func(Action) bool) []Action {
	kept := stack[:0]
	for _, a := range stack {
		if !match(a) {
			kept = append(kept, a)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

// PastLen returns the undo depth.
func (l *Log) PastLen() int { return len(l.past) }

// FutureLen returns the redo depth.
func (l *Log) FutureLen() int { return len(l.future) }

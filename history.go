package frustal

import (
	"slices"
)

const MaxUndo = 64

type UndoFunc = func()
type UndoableFunction = func() UndoFunc

// History is a bounded stack of undo closures. Actions returning a nil
// UndoFunc are not recorded.
type History struct {
	actions []UndoFunc
}

func (h *History) Dispatch(f UndoableFunction) {
	undo := f()
	if undo == nil {
		return
	}
	h.actions = append(h.actions, undo)
	if len(h.actions) > MaxUndo {
		h.actions = slices.Delete(h.actions, 0, len(h.actions)-MaxUndo)
	}
}

// Undo runs the most recent undo closure and reports whether there was one.
func (h *History) Undo() bool {
	if len(h.actions) == 0 {
		return false
	}
	last := h.actions[len(h.actions)-1]
	h.actions = h.actions[:len(h.actions)-1]
	last()
	return true
}

func (h *History) Len() int {
	return len(h.actions)
}

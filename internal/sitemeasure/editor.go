package sitemeasure

// MinVerticesForRemoval is the smallest polygon a vertex can be removed
// from; removal never leaves fewer than MinPolygonVertices.
const MinVerticesForRemoval = 4

// Editor removes vertices from a captured polygon during review.
type Editor struct {
	seq      *VertexSequence
	selected int
}

func NewEditor(seq *VertexSequence) *Editor {
	return &Editor{seq: seq, selected: -1}
}

// Toggle selects vertex i, or clears the selection if i is already selected.
// Out-of-range indexes are ignored.
func (e *Editor) Toggle(i int) {
	if i < 0 || i >= len(*e.seq) {
		return
	}
	if e.selected == i {
		e.selected = -1
		return
	}
	e.selected = i
}

func (e *Editor) Selected() (int, bool) {
	return e.selected, e.selected >= 0
}

func (e *Editor) RemoveSelected() bool {
	if e.selected < 0 {
		return false
	}
	return e.Remove(e.selected)
}

// Remove deletes vertex i. It is a no-op returning false when the polygon
// is already at MinVerticesForRemoval or i is out of range.
func (e *Editor) Remove(i int) bool {
	s := *e.seq
	if len(s) <= MinVerticesForRemoval || i < 0 || i >= len(s) {
		return false
	}
	next := make(VertexSequence, 0, len(s)-1)
	next = append(next, s[:i]...)
	next = append(next, s[i+1:]...)
	*e.seq = next
	e.selected = -1
	return true
}

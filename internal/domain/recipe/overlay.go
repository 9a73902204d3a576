package recipe

import "sort"

// CheckedOverlay marks ingredients of the displayed recipe as done. It is
// bound to a recipe revision so marks never carry over to a different recipe.
type CheckedOverlay struct {
	Revision uint64       `json:"revision"`
	Checked  map[int]bool `json:"checked,omitempty"`
}

// Sync drops every mark when the displayed recipe revision changes.
func (o *CheckedOverlay) Sync(revision uint64) {
	if o.Revision == revision {
		return
	}
	o.Revision = revision
	o.Checked = nil
}

// Toggle flips the mark on index. It is ignored unless revision is the one the
// overlay is bound to; count is the number of ingredients in that recipe.
func (o *CheckedOverlay) Toggle(revision uint64, index, count int) error {
	if revision != o.Revision {
		return nil
	}
	if index < 0 || index >= count {
		return ErrIndexOutOfRange
	}
	if o.Checked == nil {
		o.Checked = make(map[int]bool)
	}
	if o.Checked[index] {
		delete(o.Checked, index)
	} else {
		o.Checked[index] = true
	}
	return nil
}

func (o *CheckedOverlay) IsChecked(index int) bool {
	return o.Checked[index]
}

// CheckedIndices returns the marked indices in ascending order.
func (o *CheckedOverlay) CheckedIndices() []int {
	indices := make([]int, 0, len(o.Checked))
	for i := range o.Checked {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices
}

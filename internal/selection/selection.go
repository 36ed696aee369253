// Package selection tracks which entry is chosen in each of the three columns.
//
// A selection at level i is only meaningful while every shallower level is
// also selected, so every operation that changes or clears a slot also clears
// the slots below it.
package selection

import (
	"fmt"
	"strings"
)

// Levels matches the depth of the task hierarchy.
const Levels = 3

// None marks an unset slot.
const None = -1

// Path is the selected index per column, None when unset.
type Path [Levels]int

// Empty returns a path with nothing selected.
func Empty() Path {
	return Path{None, None, None}
}

// At returns the selected index at level.
func (p Path) At(level int) (int, bool) {
	if level < 0 || level >= Levels || p[level] == None {
		return None, false
	}
	return p[level], true
}

// Select chooses index at level. Choosing the index that is already selected
// deselects it. Either way every deeper level is cleared.
func (p *Path) Select(level, index int) {
	if level < 0 || level >= Levels {
		return
	}
	if p[level] == index {
		p.ClearFrom(level)
		return
	}
	p[level] = index
	p.ClearFrom(level + 1)
}

// Clear unsets every slot.
func (p *Path) Clear() {
	p.ClearFrom(0)
}

// ClearFrom unsets level and every deeper slot.
func (p *Path) ClearFrom(level int) {
	if level < 0 {
		level = 0
	}
	for i := level; i < Levels; i++ {
		p[i] = None
	}
}

// Deleted reconciles the path after the entry at index was removed from the
// column at level. Deleting the selected entry clears the slot and everything
// below it; deleting an earlier sibling shifts the selection down by one.
func (p *Path) Deleted(level, index int) {
	if level < 0 || level >= Levels || p[level] == None {
		return
	}
	switch {
	case p[level] == index:
		p.ClearFrom(level)
	case index < p[level]:
		p[level]--
	}
}

// FinalLevel is the deepest selected level, or 0 when nothing is selected.
func (p Path) FinalLevel() int {
	for i := Levels - 1; i >= 0; i-- {
		if p[i] != None {
			return i
		}
	}
	return 0
}

// Prefix returns the selected indices above level, which address the parent
// of column level. ok is false when any of them is unset.
func (p Path) Prefix(level int) ([]int, bool) {
	if level < 0 || level >= Levels {
		return nil, false
	}
	prefix := make([]int, 0, level)
	for i := 0; i < level; i++ {
		if p[i] == None {
			return nil, false
		}
		prefix = append(prefix, p[i])
	}
	return prefix, true
}

// Valid reports whether no slot is set below an unset one.
func (p Path) Valid() bool {
	for i := 1; i < Levels; i++ {
		if p[i] != None && p[i-1] == None {
			return false
		}
	}
	return true
}

func (p Path) String() string {
	parts := make([]string, Levels)
	for i, v := range p {
		if v == None {
			parts[i] = "-"
		} else {
			parts[i] = fmt.Sprint(v)
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}

package graph

import (
	"fmt"
	"slices"
)

// AddChild makes child a child of parent. The child's parent edge is set and
// child is appended to parent's children unless already listed, so repeated
// calls are idempotent.
//
// Re-parenting does not remove child from the previous parent's list; that
// stale listing is reported by [Arena.Verify].
func (a *Arena) AddChild(parent, child *Elephant) error {
	if parent == nil || child == nil {
		return ErrNilEntity
	}
	if parent == child || parent.ID == child.ID {
		return fmt.Errorf("%w: %q", ErrSelfReference, parent.Name)
	}
	if !a.ownsElephant(parent) || !a.ownsElephant(child) {
		return ErrForeignEntity
	}
	child.parent = parent.ID
	if !slices.Contains(parent.children, child.ID) {
		parent.children = append(parent.children, child.ID)
	}
	return nil
}

// AddMember adds e to h. If e already belongs to another herd it is removed
// from that herd first. Adding an existing member is a no-op.
func (a *Arena) AddMember(h *Herd, e *Elephant) error {
	if h == nil || e == nil {
		return ErrNilEntity
	}
	if !a.ownsHerd(h) || !a.ownsElephant(e) {
		return ErrForeignEntity
	}
	if e.herd != None && e.herd != h.ID {
		if prev, ok := a.herds[e.herd]; ok {
			prev.members = slices.DeleteFunc(prev.members, func(id ID) bool { return id == e.ID })
		}
	}
	e.herd = h.ID
	if !slices.Contains(h.members, e.ID) {
		h.members = append(h.members, e.ID)
	}
	return nil
}

// RemoveMember removes e from h and clears its herd edge. It is a no-op when
// e is not a member of h.
func (a *Arena) RemoveMember(h *Herd, e *Elephant) error {
	if h == nil || e == nil {
		return ErrNilEntity
	}
	if !slices.Contains(h.members, e.ID) {
		return nil
	}
	h.members = slices.DeleteFunc(h.members, func(id ID) bool { return id == e.ID })
	if e.herd == h.ID {
		e.herd = None
	}
	return nil
}

// Sever clears the parent, children and herd edges of e. The counterpart
// edges held by other entities are left alone; callers severing a whole
// graph sever every elephant and disband every herd.
func (a *Arena) Sever(e *Elephant) {
	if e == nil {
		return
	}
	e.parent = None
	e.children = nil
	e.herd = None
}

// Disband empties the member list of h without touching the members.
func (a *Arena) Disband(h *Herd) {
	if h == nil {
		return
	}
	h.members = nil
}

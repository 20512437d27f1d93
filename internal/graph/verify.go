package graph

import (
	"fmt"
	"slices"
)

// ViolationKind names an integrity problem found by [Arena.Verify].
type ViolationKind string

const (
	ViolationSelfParent          ViolationKind = "self_parent"
	ViolationStaleChild          ViolationKind = "stale_child"
	ViolationMissingChild        ViolationKind = "missing_child"
	ViolationMissingParent       ViolationKind = "missing_parent"
	ViolationHerdAsymmetry       ViolationKind = "herd_asymmetry"
	ViolationDanglingEdge        ViolationKind = "dangling_edge"
	ViolationDanglingParticipant ViolationKind = "dangling_participant"
)

// Violation describes one integrity problem.
type Violation struct {
	Kind   ViolationKind `json:"kind"`
	Entity ID            `json:"entity"`
	Detail string        `json:"detail"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s (entity %d): %s", v.Kind, v.Entity, v.Detail)
}

// Verify checks the edge invariants over every live entry and returns the
// violations in ascending entity order. An empty result means every
// parent/child and herd/member edge is symmetric and every reference
// resolves.
func (a *Arena) Verify() []Violation {
	var out []Violation
	add := func(k ViolationKind, id ID, format string, args ...any) {
		out = append(out, Violation{Kind: k, Entity: id, Detail: fmt.Sprintf(format, args...)})
	}

	for _, id := range a.ids() {
		switch a.Kind(id) {
		case KindElephant:
			e := a.elephants[id]
			if e.parent == e.ID {
				add(ViolationSelfParent, id, "%q is its own parent", e.Name)
			} else if e.parent != None {
				p, ok := a.elephants[e.parent]
				switch {
				case !ok:
					add(ViolationDanglingEdge, id, "parent %d of %q does not resolve", e.parent, e.Name)
				case !slices.Contains(p.children, e.ID):
					add(ViolationMissingChild, id, "%q not listed among children of %q", e.Name, p.Name)
				}
			}
			for _, cid := range e.children {
				c, ok := a.elephants[cid]
				switch {
				case !ok:
					add(ViolationDanglingEdge, id, "child %d of %q does not resolve", cid, e.Name)
				case c.parent == None:
					add(ViolationMissingParent, id, "child %q of %q has no parent", c.Name, e.Name)
				case c.parent != e.ID:
					add(ViolationStaleChild, id, "child %q of %q now has parent %d", c.Name, e.Name, c.parent)
				}
			}
			if e.herd != None {
				h, ok := a.herds[e.herd]
				switch {
				case !ok:
					add(ViolationDanglingEdge, id, "herd %d of %q does not resolve", e.herd, e.Name)
				case !slices.Contains(h.members, e.ID):
					add(ViolationHerdAsymmetry, id, "%q points at herd %q but is not a member", e.Name, h.Name)
				}
			}
		case KindHerd:
			h := a.herds[id]
			for _, mid := range h.members {
				m, ok := a.elephants[mid]
				switch {
				case !ok:
					add(ViolationDanglingEdge, id, "member %d of herd %q does not resolve", mid, h.Name)
				case m.herd != h.ID:
					add(ViolationHerdAsymmetry, id, "member %q of herd %q points at herd %d", m.Name, h.Name, m.herd)
				}
			}
		case KindEvent:
			ev := a.events[id]
			for _, pid := range ev.elephants {
				if _, ok := a.elephants[pid]; !ok {
					add(ViolationDanglingParticipant, id, "elephant %d of %s does not resolve", pid, ev)
				}
			}
			for _, hid := range ev.herds {
				if _, ok := a.herds[hid]; !ok {
					add(ViolationDanglingParticipant, id, "herd %d of %s does not resolve", hid, ev)
				}
			}
		}
	}
	return out
}

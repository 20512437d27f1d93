package graph

import "iter"

// DefaultMaxDepth bounds [Arena.Descendants] when callers have no better limit.
const DefaultMaxDepth = 10

// Descendants yields the descendants of e in pre-order. Children are at
// depth 1 and nothing deeper than maxDepth is visited. The start elephant is
// never yielded and each elephant is yielded at most once, so the sequence
// terminates even when the children lists contain cycles.
func (a *Arena) Descendants(e *Elephant, maxDepth int) iter.Seq[*Elephant] {
	return func(yield func(*Elephant) bool) {
		if e == nil || maxDepth <= 0 {
			return
		}
		visited := map[ID]struct{}{e.ID: {}}

		var walk func(n *Elephant, depth int) bool
		walk = func(n *Elephant, depth int) bool {
			if depth > maxDepth {
				return true
			}
			for _, id := range n.children {
				if _, seen := visited[id]; seen {
					continue
				}
				visited[id] = struct{}{}
				c, ok := a.elephants[id]
				if !ok {
					continue
				}
				if !yield(c) || !walk(c, depth+1) {
					return false
				}
			}
			return true
		}
		walk(e, 1)
	}
}

// Siblings returns the other children of e's parent. It is empty when e has
// no resolvable parent.
func (a *Arena) Siblings(e *Elephant) []*Elephant {
	if e == nil {
		return nil
	}
	p, ok := a.elephants[e.parent]
	if !ok {
		return []*Elephant{}
	}
	out := make([]*Elephant, 0, len(p.children))
	for _, id := range p.children {
		if id == e.ID {
			continue
		}
		if c, ok := a.elephants[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Root follows parent edges up from e and returns the oldest resolvable
// ancestor, or e itself when it has no parent. A parent loop stops the walk
// at the last elephant not yet visited.
func (a *Arena) Root(e *Elephant) *Elephant {
	if e == nil {
		return nil
	}
	visited := map[ID]struct{}{e.ID: {}}
	cur := e
	for {
		p, ok := a.elephants[cur.parent]
		if !ok {
			return cur
		}
		if _, seen := visited[p.ID]; seen {
			return cur
		}
		visited[p.ID] = struct{}{}
		cur = p
	}
}

// Matriarch returns the oldest female member of h. Ties go to the member
// that joined first.
func (a *Arena) Matriarch(h *Herd) (*Elephant, bool) {
	if h == nil {
		return nil, false
	}
	var best *Elephant
	for _, id := range h.members {
		e, ok := a.elephants[id]
		if !ok || e.Gender != Female {
			continue
		}
		if best == nil || e.BirthYear < best.BirthYear {
			best = e
		}
	}
	return best, best != nil
}

// FamilyCount returns the number of distinct family roots among h's members.
func (a *Arena) FamilyCount(h *Herd) int {
	if h == nil {
		return 0
	}
	roots := make(map[ID]struct{})
	for _, id := range h.members {
		if e, ok := a.elephants[id]; ok {
			roots[a.Root(e).ID] = struct{}{}
		}
	}
	return len(roots)
}

package graph

// edges returns the IDs id points at: parent, children and herd for an
// elephant, members for a herd, participants for an event and visitors for
// a water source. Targets that no longer resolve are included; callers
// filter them.
func (a *Arena) edges(id ID) []ID {
	if e, ok := a.elephants[id]; ok {
		out := make([]ID, 0, len(e.children)+2)
		if e.parent != None {
			out = append(out, e.parent)
		}
		out = append(out, e.children...)
		if e.herd != None {
			out = append(out, e.herd)
		}
		return out
	}
	if h, ok := a.herds[id]; ok {
		return h.members
	}
	if ev, ok := a.events[id]; ok {
		out := make([]ID, 0, len(ev.elephants)+len(ev.herds))
		out = append(out, ev.elephants...)
		return append(out, ev.herds...)
	}
	if ws, ok := a.sources[id]; ok {
		var out []ID
		for _, visitors := range ws.visits {
			out = append(out, visitors...)
		}
		return out
	}
	return nil
}

// roots returns the entries that are referenced from outside the graph:
// pinned entries plus registry members.
func (a *Arena) roots() []ID {
	out := make([]ID, 0, len(a.pinned)+len(a.eventRegistry)+len(a.sourceRegistry))
	for id := range a.pinned {
		out = append(out, id)
	}
	out = append(out, a.eventRegistry...)
	return append(out, a.sourceRegistry...)
}

// refCounts computes the reference count of every live entry.
func (a *Arena) refCounts() map[ID]int {
	counts := make(map[ID]int, a.Live().Total())
	for _, id := range a.ids() {
		for _, to := range a.edges(id) {
			if a.Kind(to) != 0 {
				counts[to]++
			}
		}
	}
	for _, id := range a.roots() {
		if a.Kind(id) != 0 {
			counts[id]++
		}
	}
	return counts
}

// RefCount returns the number of references to id: one per edge pointing
// at it, one if pinned and one per registry listing. It returns 0 for IDs
// that do not resolve.
func (a *Arena) RefCount(id ID) int {
	if a.Kind(id) == 0 {
		return 0
	}
	return a.refCounts()[id]
}

// Reclaim frees every entry whose reference count is zero and cascades to
// entries that drop to zero as a result. Entries that reference each other
// keep each other alive, so parent/child pairs and herds with members
// survive even when nothing outside the graph points at them.
func (a *Arena) Reclaim() LiveCounts {
	counts := a.refCounts()
	var queue []ID
	for _, id := range a.ids() {
		if counts[id] == 0 {
			queue = append(queue, id)
		}
	}

	var freed LiveCounts
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		targets := a.edges(id)
		k := a.free(id)
		if k == 0 {
			continue
		}
		freed.add(k, 1)
		for _, to := range targets {
			if a.Kind(to) == 0 {
				continue
			}
			counts[to]--
			if counts[to] == 0 {
				queue = append(queue, to)
			}
		}
	}
	return freed
}

// CollectCycles marks every entry reachable from a pinned or registered
// entry and frees the rest, including unreachable cycles.
func (a *Arena) CollectCycles() LiveCounts {
	marked := make(map[ID]struct{})
	stack := a.roots()
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := marked[id]; seen || a.Kind(id) == 0 {
			continue
		}
		marked[id] = struct{}{}
		stack = append(stack, a.edges(id)...)
	}

	var freed LiveCounts
	for _, id := range a.ids() {
		if _, ok := marked[id]; ok {
			continue
		}
		freed.add(a.free(id), 1)
	}
	return freed
}

// free removes a live entry and returns its kind, or 0 if it was not live.
func (a *Arena) free(id ID) Kind {
	k := a.Kind(id)
	switch k {
	case KindElephant:
		delete(a.elephants, id)
	case KindHerd:
		delete(a.herds, id)
	case KindEvent:
		delete(a.events, id)
	case KindWaterSource:
		delete(a.sources, id)
	}
	delete(a.pinned, id)
	return k
}

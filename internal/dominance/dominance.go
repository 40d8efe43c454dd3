// Package dominance computes dominator trees and dominance frontiers
// over an ir.Function's control flow graph, using the Cooper-Harvey-
// Kennedy iterative algorithm (fast dominator computation via reverse
// postorder and a semi-lattice intersect) rather than the classical
// Lengauer-Tarjan algorithm: it is a fraction of the code for the block
// counts a single function ever has, and converges in a handful of
// iterations on the near-reducible graphs structured control flow
// produces.
package dominance

import (
	"sort"

	"keic/internal/ir"
)

// Info holds the dominance facts for one function: each block's
// immediate dominator, its children in the dominator tree, and its
// dominance frontier.
type Info struct {
	fn       *ir.Function
	rpo      []ir.BlockId
	rpoIndex map[ir.BlockId]int
	idom     map[ir.BlockId]ir.BlockId
	children map[ir.BlockId][]ir.BlockId
	frontier map[ir.BlockId][]ir.BlockId
}

// Compute builds dominance Info for fn. fn's CFG must already be
// complete (every block reachable from fn.Entry has its terminator
// set); Compute does not mutate fn.
func Compute(fn *ir.Function) *Info {
	rpo := fn.RPO()
	idx := make(map[ir.BlockId]int, len(rpo))
	for i, b := range rpo {
		idx[b] = i
	}
	preds := fn.Preds()

	idom := make(map[ir.BlockId]ir.BlockId, len(rpo))
	idom[fn.Entry] = fn.Entry

	changed := true
	for changed {
		changed = false
		for _, b := range rpo[1:] {
			var newIdom ir.BlockId
			first := true
			for _, p := range preds[b] {
				if _, ok := idom[p]; !ok {
					continue
				}
				if first {
					newIdom = p
					first = false
					continue
				}
				newIdom = intersect(idom, idx, newIdom, p)
			}
			if !first && idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}
	idom[fn.Entry] = fn.Entry

	children := make(map[ir.BlockId][]ir.BlockId, len(rpo))
	for _, b := range rpo {
		if b == fn.Entry {
			continue
		}
		d := idom[b]
		children[d] = append(children[d], b)
	}
	for d := range children {
		sort.Slice(children[d], func(i, j int) bool { return children[d][i] < children[d][j] })
	}

	info := &Info{fn: fn, rpo: rpo, rpoIndex: idx, idom: idom, children: children}
	info.computeFrontiers(preds)
	return info
}

// intersect walks two blocks' idom chains up to their common ancestor,
// the standard "finger" algorithm from Cooper, Harvey & Kennedy 2001.
func intersect(idom map[ir.BlockId]ir.BlockId, idx map[ir.BlockId]int, a, b ir.BlockId) ir.BlockId {
	for a != b {
		for idx[a] > idx[b] {
			a = idom[a]
		}
		for idx[b] > idx[a] {
			b = idom[b]
		}
	}
	return a
}

// computeFrontiers implements the Cytron et al. dominance-frontier
// construction: for every join block b (a block with 2+ predecessors),
// walk each predecessor up its idom chain stopping at (but including)
// the block just below b's immediate dominator, adding b to each
// visited block's frontier. Unreachable predecessors (no idom) are
// skipped, and a walk that reaches the entry's self-idom stops there.
func (info *Info) computeFrontiers(preds map[ir.BlockId][]ir.BlockId) {
	info.frontier = make(map[ir.BlockId][]ir.BlockId)
	for _, b := range info.rpo {
		ps := preds[b]
		if len(ps) < 2 {
			continue
		}
		idomB := info.idom[b]
		for _, p := range ps {
			if _, ok := info.idom[p]; !ok {
				continue
			}
			runner := p
			for runner != idomB {
				info.frontier[runner] = appendUnique(info.frontier[runner], b)
				next := info.idom[runner]
				if next == runner {
					break
				}
				runner = next
			}
		}
	}
}

func appendUnique(s []ir.BlockId, b ir.BlockId) []ir.BlockId {
	for _, x := range s {
		if x == b {
			return s
		}
	}
	return append(s, b)
}

// IDom returns b's immediate dominator. The entry block dominates
// itself.
func (info *Info) IDom(b ir.BlockId) ir.BlockId { return info.idom[b] }

// Children returns b's children in the dominator tree, in a stable
// order, used by mem2reg's preorder renaming walk.
func (info *Info) Children(b ir.BlockId) []ir.BlockId { return info.children[b] }

// Frontier returns b's dominance frontier.
func (info *Info) Frontier(b ir.BlockId) []ir.BlockId { return info.frontier[b] }

// Dominates reports whether a dominates b (including a == b).
func (info *Info) Dominates(a, b ir.BlockId) bool {
	for b != info.fn.Entry {
		if b == a {
			return true
		}
		if b == info.idom[b] {
			break
		}
		b = info.idom[b]
	}
	return a == b
}

// PreorderWalk calls visit for every block reachable in the dominator
// tree, parent before children, starting from fn's entry.
func (info *Info) PreorderWalk(visit func(ir.BlockId)) {
	var walk func(ir.BlockId)
	walk = func(b ir.BlockId) {
		visit(b)
		for _, c := range info.children[b] {
			walk(c)
		}
	}
	walk(info.fn.Entry)
}

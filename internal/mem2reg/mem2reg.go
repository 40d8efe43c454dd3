// Package mem2reg promotes stack_alloc slots to plain SSA values,
// inserting phi nodes at the points control-flow merges demand them.
// The construction follows Cytron, Ferrante, Rosen, Wegman & Zadeck's
// iterated dominance frontier placement and a dominator-tree preorder
// renaming pass, the same shape as the historical golang.org/x/tools
// SSA builder's lifting pass: compute which allocas are even eligible
// (never address-taken beyond direct load/store), place phis at each
// eligible alloca's iterated dominance frontier, then walk the
// dominator tree once renaming loads to whatever value currently
// reaches them and deleting the loads and stores that made the alloca
// unnecessary in the first place.
package mem2reg

import (
	"sort"

	"keic/internal/dominance"
	"keic/internal/ir"
)

// Promote rewrites fn in place, replacing every promotable stack_alloc
// with SSA values and phi nodes. It is idempotent: running it twice is
// a no-op the second time, since every stack_alloc that survives the
// first pass is one findPromotable rejects.
func Promote(fn *ir.Function) {
	dom := dominance.Compute(fn)
	candidates := findPromotable(fn)
	if len(candidates) == 0 {
		return
	}

	phisByBlockAndAlloc := placePhis(fn, dom, candidates)
	renamer := &renamer{
		fn:       fn,
		dom:      dom,
		allocTyp: candidates,
		phis:     phisByBlockAndAlloc,
		replace:  map[ir.VarId]ir.VarId{},
	}
	renamer.run()
	applyReplacements(fn, renamer.replace)
	removeAllocas(fn, candidates)
	removeTrivialPhis(fn)
}

// findPromotable returns, for every stack_alloc in fn, its element type
// if it is eligible for promotion: never used as anything but the Addr
// operand of a Load or Store. A struct/array/enum-typed alloca is
// promotable too, as long as it is never addressed field- or
// element-wise: any appearance as the base of field_ptr/index_ptr, or
// as an out/err pointer of call_throws, disqualifies it below
// regardless of static type.
func findPromotable(fn *ir.Function) map[ir.VarId]ir.Type {
	allocType := map[ir.VarId]ir.Type{}
	for _, id := range fn.BlockOrder {
		for _, inst := range fn.Block(id).Insts {
			if a, ok := inst.(*ir.StackAlloc); ok {
				allocType[a.D] = a.Type
			}
		}
	}
	if len(allocType) == 0 {
		return nil
	}

	escaped := map[ir.VarId]bool{}
	for _, id := range fn.BlockOrder {
		b := fn.Block(id)
		for _, inst := range b.Insts {
			switch v := inst.(type) {
			case *ir.Store:
				if _, ok := allocType[v.Value]; ok {
					escaped[v.Value] = true
				}
			case *ir.Load:
				// Addr use is fine; nothing else to check.
			default:
				for _, op := range inst.Operands() {
					if _, ok := allocType[*op]; ok {
						escaped[*op] = true
					}
				}
			}
		}
		if b.Term != nil {
			for _, op := range b.Term.Operands() {
				if _, ok := allocType[*op]; ok {
					escaped[*op] = true
				}
			}
		}
	}
	for v := range escaped {
		delete(allocType, v)
	}
	return allocType
}

// placePhis computes the iterated dominance frontier for each
// promotable alloca's store set and inserts a Phi at every block in it.
func placePhis(fn *ir.Function, dom *dominance.Info, candidates map[ir.VarId]ir.Type) map[ir.BlockId]map[ir.VarId]*ir.Phi {
	result := map[ir.BlockId]map[ir.VarId]*ir.Phi{}

	allocs := make([]ir.VarId, 0, len(candidates))
	for a := range candidates {
		allocs = append(allocs, a)
	}
	sort.Slice(allocs, func(i, j int) bool { return allocs[i] < allocs[j] })

	for _, alloc := range allocs {
		typ := candidates[alloc]
		defBlocks := storeBlocks(fn, alloc)
		hasPhi := map[ir.BlockId]bool{}
		worklist := append([]ir.BlockId{}, defBlocks...)
		for len(worklist) > 0 {
			b := worklist[0]
			worklist = worklist[1:]
			for _, f := range dom.Frontier(b) {
				if hasPhi[f] {
					continue
				}
				hasPhi[f] = true
				phi := ir.NewPhi(fn.FreshValue(), typ)
				if result[f] == nil {
					result[f] = map[ir.VarId]*ir.Phi{}
				}
				result[f][alloc] = phi
				fn.Block(f).Phis = append(fn.Block(f).Phis, phi)
				worklist = append(worklist, f)
			}
		}
	}
	return result
}

func storeBlocks(fn *ir.Function, alloc ir.VarId) []ir.BlockId {
	var blocks []ir.BlockId
	for _, id := range fn.BlockOrder {
		for _, inst := range fn.Block(id).Insts {
			if s, ok := inst.(*ir.Store); ok && s.Addr == alloc {
				blocks = append(blocks, id)
				break
			}
		}
	}
	return blocks
}

type renamer struct {
	fn       *ir.Function
	dom      *dominance.Info
	allocTyp map[ir.VarId]ir.Type
	phis     map[ir.BlockId]map[ir.VarId]*ir.Phi
	replace  map[ir.VarId]ir.VarId
	visited  map[ir.BlockId]bool
}

func (r *renamer) run() {
	r.visited = map[ir.BlockId]bool{}
	current := map[ir.VarId]ir.VarId{}
	r.walk(r.fn.Entry, current)
}

func (r *renamer) walk(id ir.BlockId, inherited map[ir.VarId]ir.VarId) {
	if r.visited[id] {
		return
	}
	r.visited[id] = true

	current := make(map[ir.VarId]ir.VarId, len(inherited))
	for k, v := range inherited {
		current[k] = v
	}

	b := r.fn.Block(id)
	for alloc, phi := range r.phis[id] {
		current[alloc] = phi.D
	}

	kept := b.Insts[:0:0]
	for _, inst := range b.Insts {
		switch v := inst.(type) {
		case *ir.Store:
			if typ, ok := r.allocTyp[v.Addr]; ok {
				_ = typ
				current[v.Addr] = v.Value
				continue
			}
		case *ir.Load:
			if _, ok := r.allocTyp[v.Addr]; ok {
				r.replace[v.D] = current[v.Addr]
				continue
			}
		}
		kept = append(kept, inst)
	}
	b.Insts = kept

	for _, succ := range r.fn.Succs(id) {
		for alloc, phi := range r.phis[succ] {
			// With no reaching definition on this edge, current[alloc]
			// is the zero VarId, which stands in as the undef value.
			phi.SetIncoming(id, current[alloc])
		}
	}

	for _, c := range r.dom.Children(id) {
		r.walk(c, current)
	}
}

// applyReplacements rewrites every remaining operand in fn that refers
// to a now-deleted load's destination, following chains transitively
// (a replaced value can itself have been replaced again downstream).
func applyReplacements(fn *ir.Function, replace map[ir.VarId]ir.VarId) {
	if len(replace) == 0 {
		return
	}
	resolve := func(v ir.VarId) ir.VarId {
		seen := map[ir.VarId]bool{}
		for {
			next, ok := replace[v]
			if !ok || seen[v] {
				return v
			}
			seen[v] = true
			v = next
		}
	}
	for _, id := range fn.BlockOrder {
		b := fn.Block(id)
		for _, phi := range b.Phis {
			for _, op := range phi.Operands() {
				*op = resolve(*op)
			}
		}
		for _, inst := range b.Insts {
			for _, op := range inst.Operands() {
				*op = resolve(*op)
			}
		}
		if b.Term != nil {
			for _, op := range b.Term.Operands() {
				*op = resolve(*op)
			}
		}
	}
}

// removeAllocas deletes the stack_alloc instructions for every
// successfully promoted variable.
func removeAllocas(fn *ir.Function, candidates map[ir.VarId]ir.Type) {
	for _, id := range fn.BlockOrder {
		b := fn.Block(id)
		kept := b.Insts[:0:0]
		for _, inst := range b.Insts {
			if a, ok := inst.(*ir.StackAlloc); ok {
				if _, promoted := candidates[a.D]; promoted {
					continue
				}
			}
			kept = append(kept, inst)
		}
		b.Insts = kept
	}
}

// removeTrivialPhis repeatedly eliminates phis all of whose incoming
// edges (ignoring self-references and undef) agree on a single value,
// redirecting every use of the trivial phi's destination to that value;
// a phi with no such value at all is replaced by undef. This mirrors
// the classic Braun-style trivial-phi cleanup and keeps the IR free of
// the single-predecessor phis a naive placement otherwise leaves behind
// after blocks with only one live definition merge.
func removeTrivialPhis(fn *ir.Function) {
	for {
		changed := false
		replace := map[ir.VarId]ir.VarId{}
		for _, id := range fn.BlockOrder {
			b := fn.Block(id)
			kept := b.Phis[:0:0]
			for _, phi := range b.Phis {
				same := ir.VarId(0)
				trivial := true
				for _, e := range phi.Incoming {
					if e.Value == phi.D {
						continue
					}
					if same == 0 {
						same = e.Value
						continue
					}
					if same != e.Value {
						trivial = false
						break
					}
				}
				if trivial {
					replace[phi.D] = same
					changed = true
					continue
				}
				kept = append(kept, phi)
			}
			b.Phis = kept
		}
		if !changed {
			return
		}
		applyReplacements(fn, replace)
	}
}

// Package dessa eliminates phi nodes, turning SSA-form IR into the
// plain (non-SSA) IR the C emitter consumes. Each phi is replaced by a
// copy instruction placed on every incoming edge, assigning the phi's
// destination directly; the copies on each predecessor are sequenced as
// a parallel copy (not a naive one-at-a-time assignment) so that a phi
// whose source value happens to be another phi's destination is not
// silently corrupted — the classic "lost copy" / swap problem. Edges
// into a phi-bearing block from a predecessor with more than one
// successor are split with a fresh intermediate block first, since the
// copies can only run along that one specific edge.
package dessa

import (
	"fmt"

	"keic/internal/ir"
)

// Destruct rewrites fn in place, removing every phi and leaving
// ordinary Copy instructions in its place.
func Destruct(fn *ir.Function) {
	preds := fn.Preds()
	targets := append([]ir.BlockId{}, fn.BlockOrder...)

	for _, id := range targets {
		b := fn.Block(id)
		if len(b.Phis) == 0 {
			continue
		}
		for _, p := range preds[id] {
			pairs := make([]pair, 0, len(b.Phis))
			for _, phi := range b.Phis {
				v, ok := phi.ValueFor(p)
				if !ok {
					panic(fmt.Sprintf("dessa: phi %s has no incoming value from predecessor %s", phi.D, p))
				}
				pairs = append(pairs, pair{dest: phi.D, src: v, typ: phi.Type})
			}

			predBlock := fn.Block(p)
			dest := predBlock
			if len(predBlock.Term.Succs()) > 1 {
				dest = splitEdge(fn, predBlock, id)
			}
			for _, c := range sequentialize(pairs, fn.FreshValue) {
				dest.Insts = append(dest.Insts, c)
			}
		}
		b.Phis = nil
	}
}

type pair struct {
	dest ir.VarId
	src  ir.VarId
	typ  ir.Type
}

// sequentialize orders a parallel copy set (every pair's dest and src
// read/written simultaneously, conceptually) into a sequence of Copy
// instructions that is safe to execute one at a time: a pair is only
// emitted once no other pending pair still needs to read its
// destination's old value. When every remaining pair is blocked on
// another (a pure cycle), one value is rescued into a fresh temporary
// first so the cycle can be broken.
func sequentialize(pairs []pair, fresh func() ir.VarId) []*ir.Copy {
	pending := make(map[ir.VarId]pair, len(pairs))
	for _, p := range pairs {
		pending[p.dest] = p
	}
	isPendingDest := func(v ir.VarId) bool {
		_, ok := pending[v]
		return ok
	}

	var out []*ir.Copy
	for len(pending) > 0 {
		progressed := false
		for d, p := range pending {
			if p.src == d {
				delete(pending, d)
				progressed = true
				break
			}
			if !isPendingDest(p.src) {
				out = append(out, &ir.Copy{D: d, Src: p.src, Type: p.typ})
				delete(pending, d)
				progressed = true
				break
			}
		}
		if progressed {
			continue
		}

		// Every remaining pair forms a cycle. Rescue one value into a
		// temporary, then redirect whoever was waiting to read it.
		var victim ir.VarId
		for d := range pending {
			victim = d
			break
		}
		tmp := fresh()
		out = append(out, &ir.Copy{D: tmp, Src: victim, Type: pending[victim].typ})
		for d, p := range pending {
			if p.src == victim {
				p.src = tmp
				pending[d] = p
			}
		}
	}
	return out
}

// splitEdge inserts a fresh block on the control-flow edge from pred to
// succ, redirecting pred's terminator to it, so copies meant only for
// that edge don't run along pred's other successors too.
func splitEdge(fn *ir.Function, pred *ir.Block, succ ir.BlockId) *ir.Block {
	edge := fn.NewBlockNamed(fmt.Sprintf("edge.%s.%s", pred.ID, succ))
	edge.Term = &ir.Jump{Target: succ}
	redirect(pred.Term, succ, edge.ID)
	return edge
}

// redirect rewrites every reference to from in t's successor set to to.
func redirect(t ir.Term, from, to ir.BlockId) {
	switch v := t.(type) {
	case *ir.Jump:
		if v.Target == from {
			v.Target = to
		}
	case *ir.Br:
		if v.Then == from {
			v.Then = to
		}
		if v.Else == from {
			v.Else = to
		}
	case *ir.Switch:
		if v.Default == from {
			v.Default = to
		}
		for i := range v.Cases {
			if v.Cases[i].Target == from {
				v.Cases[i].Target = to
			}
		}
	}
}

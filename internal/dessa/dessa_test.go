package dessa

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"keic/internal/ir"
)

func intType() *ir.IntType { return &ir.IntType{Bits: 32, Signed: true} }

// diamond builds the post-mem2reg SSA shape a promoted if/else leaves
// behind: entry branches to then/else, each defines a distinct value,
// join has a single phi merging them and returns it.
func diamond() (*ir.Function, *ir.Phi) {
	fn := ir.NewFunction("diamond", intType())
	entry := fn.NewBlockNamed("entry")
	then := fn.NewBlockNamed("if.then")
	els := fn.NewBlockNamed("if.else")
	join := fn.NewBlockNamed("if.join")
	fn.Entry = entry.ID

	cond := fn.FreshValue()
	entry.Insts = append(entry.Insts, &ir.ConstBool{D: cond, Value: true})
	entry.Term = &ir.Br{Cond: cond, Then: then.ID, Else: els.ID}

	one := fn.FreshValue()
	then.Insts = append(then.Insts, &ir.ConstInt{D: one, Value: 1, Type: intType()})
	then.Term = &ir.Jump{Target: join.ID}

	two := fn.FreshValue()
	els.Insts = append(els.Insts, &ir.ConstInt{D: two, Value: 2, Type: intType()})
	els.Term = &ir.Jump{Target: join.ID}

	phi := ir.NewPhi(fn.FreshValue(), intType())
	phi.SetIncoming(then.ID, one)
	phi.SetIncoming(els.ID, two)
	join.Phis = append(join.Phis, phi)
	join.Term = &ir.Ret{Value: phi.D}

	return fn, phi
}

func TestDestructRemovesPhisAndInsertsCopies(t *testing.T) {
	fn, phi := diamond()
	Destruct(fn)

	join := fn.Block(ir.BlockId("if.join"))
	assert.Empty(t, join.Phis)

	then := fn.Block(ir.BlockId("if.then"))
	els := fn.Block(ir.BlockId("if.else"))

	assertCopyTo(t, then.Insts, phi.D)
	assertCopyTo(t, els.Insts, phi.D)

	ret, ok := join.Term.(*ir.Ret)
	assert.True(t, ok)
	assert.Equal(t, phi.D, ret.Value)
}

func assertCopyTo(t *testing.T, insts []ir.Inst, dest ir.VarId) {
	t.Helper()
	for _, inst := range insts {
		if c, ok := inst.(*ir.Copy); ok && c.D == dest {
			return
		}
	}
	t.Fatalf("expected a copy to %s among %d instructions", dest, len(insts))
}

// criticalEdge builds a predecessor with two successors, one of which
// carries a phi, forcing Destruct to split the edge rather than append
// the copy to the predecessor directly (which would also run it on the
// other successor).
func criticalEdge() (*ir.Function, *ir.Phi) {
	fn := ir.NewFunction("critical", intType())
	entry := fn.NewBlockNamed("entry")
	branch := fn.NewBlockNamed("branch")
	a := fn.NewBlockNamed("a")
	b := fn.NewBlockNamed("b")
	fn.Entry = entry.ID

	entry.Term = &ir.Jump{Target: branch.ID}

	cond := fn.FreshValue()
	branch.Insts = append(branch.Insts, &ir.ConstBool{D: cond, Value: true})
	branch.Term = &ir.Br{Cond: cond, Then: a.ID, Else: b.ID}

	v := fn.FreshValue()
	a.Insts = append(a.Insts, &ir.ConstInt{D: v, Value: 9, Type: intType()})

	phi := ir.NewPhi(fn.FreshValue(), intType())
	phi.SetIncoming(branch.ID, v)
	a.Phis = append(a.Phis, phi)
	a.Term = &ir.RetVoid{}
	b.Term = &ir.RetVoid{}

	return fn, phi
}

func TestDestructSplitsCriticalEdges(t *testing.T) {
	fn, phi := criticalEdge()
	originalBlockCount := len(fn.BlockOrder)

	Destruct(fn)

	assert.Greater(t, len(fn.BlockOrder), originalBlockCount, "a fresh edge block should have been inserted")

	branch := fn.Block(ir.BlockId("branch"))
	br, ok := branch.Term.(*ir.Br)
	assert.True(t, ok)
	assert.NotEqual(t, ir.BlockId("a"), br.Then, "the edge to the phi-bearing block must be redirected")

	edge := fn.Block(br.Then)
	assertCopyTo(t, edge.Insts, phi.D)
}

// swap builds two phis in the same join block whose incoming values are
// each other's destinations, the classic lost-copy / swap problem a
// naive one-at-a-time copy emission would corrupt.
func swap() (*ir.Function, *ir.Phi, *ir.Phi) {
	fn := ir.NewFunction("swap", &ir.VoidType{})
	entry := fn.NewBlockNamed("entry")
	loop := fn.NewBlockNamed("loop")
	fn.Entry = entry.ID

	x0 := fn.FreshValue()
	y0 := fn.FreshValue()
	entry.Insts = append(entry.Insts,
		&ir.ConstInt{D: x0, Value: 1, Type: intType()},
		&ir.ConstInt{D: y0, Value: 2, Type: intType()},
	)
	entry.Term = &ir.Jump{Target: loop.ID}

	phiX := ir.NewPhi(fn.FreshValue(), intType())
	phiY := ir.NewPhi(fn.FreshValue(), intType())
	phiX.SetIncoming(entry.ID, x0)
	phiY.SetIncoming(entry.ID, y0)
	// Loop back edge swaps: next x is this y, next y is this x.
	phiX.SetIncoming(loop.ID, phiY.D)
	phiY.SetIncoming(loop.ID, phiX.D)
	loop.Phis = append(loop.Phis, phiX, phiY)
	loop.Term = &ir.Jump{Target: loop.ID}

	return fn, phiX, phiY
}

func TestDestructBreaksSwapCycleWithTemporary(t *testing.T) {
	fn, phiX, phiY := swap()
	Destruct(fn)

	loop := fn.Block(ir.BlockId("loop"))
	var copies []*ir.Copy
	for _, inst := range loop.Insts {
		if c, ok := inst.(*ir.Copy); ok {
			copies = append(copies, c)
		}
	}
	assert.Len(t, copies, 3, "breaking a 2-cycle needs one rescue temporary plus the two real copies")

	destToCopy := map[ir.VarId]*ir.Copy{}
	for _, c := range copies {
		destToCopy[c.D] = c
	}
	_, xCopied := destToCopy[phiX.D]
	_, yCopied := destToCopy[phiY.D]
	assert.True(t, xCopied)
	assert.True(t, yCopied)
}

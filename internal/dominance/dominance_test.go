package dominance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"keic/internal/ir"
)

// diamond builds entry -> {then, else} -> join (which returns), the canonical
// shape an if/else compiles down to before mem2reg runs.
func diamond() *ir.Function {
	fn := ir.NewFunction("diamond", &ir.VoidType{})
	entry := fn.NewBlockNamed("entry")
	then := fn.NewBlockNamed("then")
	els := fn.NewBlockNamed("else")
	join := fn.NewBlockNamed("join")
	fn.Entry = entry.ID

	entry.Term = &ir.Br{Cond: 1, Then: then.ID, Else: els.ID}
	then.Term = &ir.Jump{Target: join.ID}
	els.Term = &ir.Jump{Target: join.ID}
	join.Term = &ir.RetVoid{}
	return fn
}

func TestDiamondIdomAndFrontier(t *testing.T) {
	fn := diamond()
	dom := Compute(fn)

	entry, then, els, join := fn.BlockOrder[0], fn.BlockOrder[1], fn.BlockOrder[2], fn.BlockOrder[3]

	assert.Equal(t, entry, dom.IDom(then))
	assert.Equal(t, entry, dom.IDom(els))
	assert.Equal(t, entry, dom.IDom(join))
	assert.Equal(t, entry, dom.IDom(entry))

	assert.ElementsMatch(t, []ir.BlockId{then, els, join}, dom.Children(entry))

	assert.ElementsMatch(t, []ir.BlockId{join}, dom.Frontier(then))
	assert.ElementsMatch(t, []ir.BlockId{join}, dom.Frontier(els))
	assert.Empty(t, dom.Frontier(entry))
	assert.Empty(t, dom.Frontier(join))
}

func TestDominatesIsReflexiveAndExcludesOneArmOfDiamond(t *testing.T) {
	fn := diamond()
	dom := Compute(fn)
	entry, then, _, join := fn.BlockOrder[0], fn.BlockOrder[1], fn.BlockOrder[2], fn.BlockOrder[3]

	assert.True(t, dom.Dominates(entry, join))
	assert.True(t, dom.Dominates(then, then))
	assert.False(t, dom.Dominates(then, join))
}

func TestPreorderWalkVisitsParentBeforeChildren(t *testing.T) {
	fn := diamond()
	dom := Compute(fn)

	var order []ir.BlockId
	dom.PreorderWalk(func(b ir.BlockId) { order = append(order, b) })

	assert.Equal(t, fn.Entry, order[0])
	assert.Len(t, order, 4)
}

// loop builds entry -> header -> body -> header (back edge), header -> exit,
// the shape a while loop compiles down to.
func loop() (*ir.Function, ir.BlockId, ir.BlockId, ir.BlockId, ir.BlockId) {
	fn := ir.NewFunction("loop", &ir.VoidType{})
	entry := fn.NewBlockNamed("entry")
	header := fn.NewBlockNamed("while.cond")
	body := fn.NewBlockNamed("while.body")
	exit := fn.NewBlockNamed("while.exit")
	fn.Entry = entry.ID

	entry.Term = &ir.Jump{Target: header.ID}
	header.Term = &ir.Br{Cond: 1, Then: body.ID, Else: exit.ID}
	body.Term = &ir.Jump{Target: header.ID}
	exit.Term = &ir.RetVoid{}
	return fn, entry.ID, header.ID, body.ID, exit.ID
}

func TestLoopBodyFrontierContainsHeader(t *testing.T) {
	fn, _, header, body, _ := loop()
	dom := Compute(fn)

	assert.Equal(t, header, dom.IDom(body))
	assert.Contains(t, dom.Frontier(body), header)
}

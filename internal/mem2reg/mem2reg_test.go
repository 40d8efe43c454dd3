package mem2reg

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"keic/internal/ir"
)

func intType() *ir.IntType { return &ir.IntType{Bits: 32, Signed: true} }

func constInt(fn *ir.Function, v int64) (ir.VarId, *ir.ConstInt) {
	d := fn.FreshValue()
	return d, &ir.ConstInt{D: d, Value: v, Type: intType()}
}

// straightLine builds: entry { %a = stack_alloc int; store %a, 7; %v = load %a; ret %v }
func straightLine() (*ir.Function, ir.VarId) {
	fn := ir.NewFunction("straight", intType())
	entry := fn.NewBlockNamed("entry")
	fn.Entry = entry.ID

	alloc := fn.FreshValue()
	entry.Insts = append(entry.Insts, &ir.StackAlloc{D: alloc, Type: intType()})

	seven, constInst := constInt(fn, 7)
	entry.Insts = append(entry.Insts, constInst)
	entry.Insts = append(entry.Insts, &ir.Store{Addr: alloc, Value: seven})

	loadD := fn.FreshValue()
	entry.Insts = append(entry.Insts, &ir.Load{D: loadD, Addr: alloc, Type: intType()})
	entry.Term = &ir.Ret{Value: loadD}

	return fn, loadD
}

func TestPromoteEliminatesStraightLineAlloc(t *testing.T) {
	fn, _ := straightLine()
	Promote(fn)

	for _, id := range fn.BlockOrder {
		for _, inst := range fn.Block(id).Insts {
			_, isAlloc := inst.(*ir.StackAlloc)
			assert.False(t, isAlloc, "stack_alloc should have been promoted away")
		}
	}
	ret, ok := fn.Block(fn.Entry).Term.(*ir.Ret)
	assert.True(t, ok)
	assert.True(t, ret.Value.Valid())
}

// diamondAssign builds the IR an if/else assigning to one local lowers
// to: entry allocates x, branches to then/else which each store a
// different constant, both jump to join which loads x and returns it.
func diamondAssign() *ir.Function {
	fn := ir.NewFunction("diamond_assign", intType())
	entry := fn.NewBlockNamed("entry")
	then := fn.NewBlockNamed("if.then")
	els := fn.NewBlockNamed("if.else")
	join := fn.NewBlockNamed("if.join")
	fn.Entry = entry.ID

	alloc := fn.FreshValue()
	entry.Insts = append(entry.Insts, &ir.StackAlloc{D: alloc, Type: intType()})
	cond := fn.FreshValue()
	entry.Insts = append(entry.Insts, &ir.ConstBool{D: cond, Value: true})
	entry.Term = &ir.Br{Cond: cond, Then: then.ID, Else: els.ID}

	one, oneInst := constInt(fn, 1)
	then.Insts = append(then.Insts, oneInst, &ir.Store{Addr: alloc, Value: one})
	then.Term = &ir.Jump{Target: join.ID}

	two, twoInst := constInt(fn, 2)
	els.Insts = append(els.Insts, twoInst, &ir.Store{Addr: alloc, Value: two})
	els.Term = &ir.Jump{Target: join.ID}

	loadD := fn.FreshValue()
	join.Insts = append(join.Insts, &ir.Load{D: loadD, Addr: alloc, Type: intType()})
	join.Term = &ir.Ret{Value: loadD}

	return fn
}

func TestPromoteInsertsPhiAtJoin(t *testing.T) {
	fn := diamondAssign()
	Promote(fn)

	join := fn.Block(ir.BlockId("if.join"))
	assert.Len(t, join.Phis, 1)
	assert.Len(t, join.Phis[0].Incoming, 2)

	ret, ok := join.Term.(*ir.Ret)
	assert.True(t, ok)
	assert.Equal(t, join.Phis[0].D, ret.Value)
}

func TestPromoteIsIdempotent(t *testing.T) {
	fn := diamondAssign()
	Promote(fn)
	first := len(fn.Block(ir.BlockId("if.join")).Phis)
	Promote(fn)
	assert.Equal(t, first, len(fn.Block(ir.BlockId("if.join")).Phis))
}

func TestPromoteLeavesFieldAddressedAllocAlone(t *testing.T) {
	fn := ir.NewFunction("keeps_struct", &ir.VoidType{})
	entry := fn.NewBlockNamed("entry")
	fn.Entry = entry.ID

	structType := &ir.StructType{Name: "Pair", Fields: []ir.Field{{Name: "x", Type: intType()}}}
	alloc := fn.FreshValue()
	entry.Insts = append(entry.Insts, &ir.StackAlloc{D: alloc, Type: structType})
	fieldAddr := fn.FreshValue()
	entry.Insts = append(entry.Insts, &ir.FieldPtr{D: fieldAddr, Base: alloc, Field: "x", Type: intType()})
	entry.Term = &ir.RetVoid{}

	Promote(fn)

	found := false
	for _, inst := range fn.Block(entry.ID).Insts {
		if _, ok := inst.(*ir.StackAlloc); ok {
			found = true
		}
	}
	assert.True(t, found, "an alloca addressed field-wise must survive promotion")
}

// TestPromoteLiftsWholeValueStructAlloc builds a struct-typed alloca that
// is only ever stored and loaded whole, never addressed field-wise, and
// checks it promotes like any scalar would: static type alone must not
// disqualify it.
func TestPromoteLiftsWholeValueStructAlloc(t *testing.T) {
	fn := ir.NewFunction("copies_struct", &ir.VoidType{})
	entry := fn.NewBlockNamed("entry")
	fn.Entry = entry.ID

	structType := &ir.StructType{Name: "Pair", Fields: []ir.Field{{Name: "x", Type: intType()}}}
	srcAlloc := fn.FreshValue()
	entry.Insts = append(entry.Insts, &ir.StackAlloc{D: srcAlloc, Type: structType})
	whole := fn.FreshValue()
	entry.Insts = append(entry.Insts, &ir.Load{D: whole, Addr: srcAlloc, Type: structType})
	entry.Term = &ir.RetVoid{}

	Promote(fn)

	for _, inst := range fn.Block(entry.ID).Insts {
		_, isAlloc := inst.(*ir.StackAlloc)
		assert.False(t, isAlloc, "a struct alloca only ever loaded/stored whole should promote")
	}
}

package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"keic/internal/errors"
	"keic/internal/ir"
)

func intType() *ir.IntType { return &ir.IntType{Bits: 32, Signed: true} }

func TestFunctionFlagsUnterminatedBlock(t *testing.T) {
	fn := ir.NewFunction("broken", &ir.VoidType{})
	entry := fn.NewBlockNamed("entry")
	fn.Entry = entry.ID
	// entry.Term left nil

	diags := Function(fn)
	assert.Len(t, diags, 1)
	assert.Equal(t, errors.ErrorUnterminatedBlock, diags[0].Code)
}

func TestFunctionFlagsUnknownJumpTarget(t *testing.T) {
	fn := ir.NewFunction("ghost_jump", &ir.VoidType{})
	entry := fn.NewBlockNamed("entry")
	fn.Entry = entry.ID
	entry.Term = &ir.Jump{Target: ir.BlockId("nowhere")}

	diags := Function(fn)
	assert.Len(t, diags, 1)
	assert.Equal(t, errors.ErrorUnknownJumpTarget, diags[0].Code)
}

func TestFunctionFlagsEmptyFunction(t *testing.T) {
	fn := ir.NewFunction("nothing", &ir.VoidType{})
	diags := Function(fn)
	assert.Len(t, diags, 1)
	assert.Equal(t, errors.ErrorEmptyFunction, diags[0].Code)
}

func TestFunctionAcceptsWellFormedDiamond(t *testing.T) {
	fn := ir.NewFunction("diamond", intType())
	entry := fn.NewBlockNamed("entry")
	then := fn.NewBlockNamed("then")
	els := fn.NewBlockNamed("else")
	join := fn.NewBlockNamed("join")
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

	assert.Empty(t, Function(fn))
}

func TestFunctionFlagsPhiPredecessorMismatch(t *testing.T) {
	fn := ir.NewFunction("mismatch", intType())
	entry := fn.NewBlockNamed("entry")
	join := fn.NewBlockNamed("join")
	fn.Entry = entry.ID
	entry.Term = &ir.Jump{Target: join.ID}

	phi := ir.NewPhi(fn.FreshValue(), intType())
	phi.SetIncoming(ir.BlockId("some.other.block"), fn.FreshValue())
	join.Phis = append(join.Phis, phi)
	join.Term = &ir.RetVoid{}

	diags := Function(fn)
	assert.Len(t, diags, 1)
	assert.Equal(t, errors.ErrorPhiPredecessorMismatch, diags[0].Code)
}

func TestFunctionFlagsPhiAfterOrdinaryInstruction(t *testing.T) {
	fn := ir.NewFunction("late_phi", intType())
	entry := fn.NewBlockNamed("entry")
	fn.Entry = entry.ID

	entry.Insts = append(entry.Insts, &ir.ConstBool{D: fn.FreshValue(), Value: true})
	entry.Term = &ir.RetVoid{}
	badPhi := ir.NewPhi(fn.FreshValue(), intType())
	entry.Insts = append(entry.Insts, badPhi)

	diags := Function(fn)
	found := false
	for _, d := range diags {
		if d.Code == errors.ErrorPhiNotLeading {
			found = true
		}
	}
	assert.True(t, found)
}

func TestModuleFlagsMissingErrOutParam(t *testing.T) {
	mod := ir.NewModule("m")
	errEnum := &ir.EnumType{Name: "f__Error", Variants: []ir.Variant{{Name: "Ok"}}}
	mod.Enums["f__Error"] = errEnum

	fn := ir.NewFunction("f", &ir.VoidType{})
	entry := fn.NewBlockNamed("entry")
	fn.Entry = entry.ID
	entry.Term = &ir.RetVoid{}
	mod.Functions = append(mod.Functions, fn)

	diags := Module(mod)
	found := false
	for _, d := range diags {
		if d.Code == errors.ErrorMissingErrOutParam {
			found = true
		}
	}
	assert.True(t, found)
}

func TestModuleAcceptsMatchingThrowsContract(t *testing.T) {
	mod := ir.NewModule("m")
	errEnum := &ir.EnumType{Name: "f__Error", Variants: []ir.Variant{{Name: "Ok"}}}
	mod.Enums["f__Error"] = errEnum

	fn := ir.NewFunction("f", &ir.VoidType{})
	errPtr := fn.FreshValue()
	fn.Params = append(fn.Params, ir.Param{Name: "__err", Type: &ir.PtrType{Elem: errEnum}, Val: errPtr})
	entry := fn.NewBlockNamed("entry")
	fn.Entry = entry.ID
	entry.Term = &ir.RetVoid{}
	mod.Functions = append(mod.Functions, fn)

	for _, d := range Module(mod) {
		assert.NotEqual(t, errors.ErrorMissingErrOutParam, d.Code)
		assert.NotEqual(t, errors.ErrorMissingErrorEnum, d.Code)
	}
}

func TestModuleWarnsAboutUnusedAlloca(t *testing.T) {
	mod := ir.NewModule("m")
	fn := ir.NewFunction("dead_local", &ir.VoidType{})
	entry := fn.NewBlockNamed("entry")
	fn.Entry = entry.ID
	entry.Insts = append(entry.Insts, &ir.StackAlloc{D: fn.FreshValue(), Type: intType()})
	entry.Term = &ir.RetVoid{}
	mod.Functions = append(mod.Functions, fn)

	diags := Module(mod)
	found := false
	for _, d := range diags {
		if d.Code == errors.WarningUnusedAlloca {
			found = true
			assert.True(t, errors.IsWarning(d.Code))
		}
	}
	assert.True(t, found)
}

func TestFunctionFlagsDuplicateBlockID(t *testing.T) {
	fn := ir.NewFunction("dup", &ir.VoidType{})
	entry := fn.NewBlockNamed("entry")
	fn.Entry = entry.ID
	entry.Term = &ir.RetVoid{}
	// Hand-craft a second BlockOrder entry for the same id, something a
	// real lowering pass never does but a malformed fixture might.
	fn.BlockOrder = append(fn.BlockOrder, entry.ID)

	diags := Function(fn)
	found := false
	for _, d := range diags {
		if d.Code == errors.ErrorDuplicateBlockID {
			found = true
		}
	}
	assert.True(t, found)
}

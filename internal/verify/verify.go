// Package verify checks structural well-formedness of an ir.Module: every
// block terminates, every jump target exists, and (when run before
// de-SSA) every phi's incoming edges match the block's actual
// predecessors. It catches contract violations between the lowerer,
// mem2reg, and de-SSA that would otherwise surface as a confusing panic
// deep in a later pass.
package verify

import (
	"sort"

	"keic/internal/errors"
	"keic/internal/ir"
)

// Module runs every check against m and returns the diagnostics found,
// errors and warnings together. An empty result means m is well-formed.
func Module(m *ir.Module) []errors.CompilerError {
	var diags []errors.CompilerError
	for _, fn := range m.Functions {
		diags = append(diags, Function(fn)...)
		diags = append(diags, checkThrowsContract(m, fn)...)
		diags = append(diags, checkUnusedAllocas(fn)...)
	}
	return diags
}

// Function runs every check against a single function.
func Function(fn *ir.Function) []errors.CompilerError {
	var diags []errors.CompilerError

	if fn.Entry == "" || len(fn.Blocks) == 0 {
		return append(diags, errors.EmptyFunction(fn.Name))
	}

	ids := make([]string, 0, len(fn.BlockOrder))
	seen := map[ir.BlockId]bool{}
	for _, id := range fn.BlockOrder {
		ids = append(ids, string(id))
		if seen[id] {
			diags = append(diags, errors.DuplicateBlockID(fn.Name, string(id)))
		}
		seen[id] = true
	}

	allTerminated := true
	for _, id := range fn.BlockOrder {
		b := fn.Blocks[id]
		if b.Term == nil {
			allTerminated = false
		}
		diags = append(diags, checkTerminator(fn, b, ids)...)
		diags = append(diags, checkPhiLeading(fn, b)...)
	}

	// Preds() walks every block's terminator; an unterminated block would
	// panic there, so only attempt it once every block has one (already
	// reported above otherwise).
	if allTerminated {
		preds := fn.Preds()
		for _, id := range fn.BlockOrder {
			b := fn.Blocks[id]
			diags = append(diags, checkPhiPredecessors(fn, b, preds[id])...)
		}
	}

	return diags
}

func checkTerminator(fn *ir.Function, b *ir.Block, allIDs []string) []errors.CompilerError {
	var diags []errors.CompilerError
	if b.Term == nil {
		return append(diags, errors.UnterminatedBlock(fn.Name, string(b.ID)))
	}
	for _, succ := range b.Term.Succs() {
		if _, ok := fn.Blocks[succ]; !ok {
			diags = append(diags, errors.UnknownJumpTarget(fn.Name, string(b.ID), string(succ), allIDs))
		}
	}
	return diags
}

func checkPhiLeading(fn *ir.Function, b *ir.Block) []errors.CompilerError {
	// Phis are stored in their own slice ahead of Insts by construction
	// (see ir.Block.AllInsts); this check exists for callers that build
	// a Block by hand, e.g. test fixtures, and accidentally append a phi
	// to Insts instead of Phis.
	for _, inst := range b.Insts {
		if _, ok := inst.(*ir.Phi); ok {
			return []errors.CompilerError{errors.PhiNotLeading(fn.Name, string(b.ID))}
		}
	}
	return nil
}

// checkThrowsContract enforces the lowering-contract invariant that a
// throwing function's synthesized error enum and __err out-parameter
// always travel together: when the module registers "<fn>__Error", fn
// must declare a matching last parameter. A function with an __err
// parameter but no registered enum is not checked.
func checkThrowsContract(m *ir.Module, fn *ir.Function) []errors.CompilerError {
	enumName := fn.Name + "__Error"
	enum, hasEnum := m.Enums[enumName]
	if !hasEnum {
		return nil
	}
	if len(fn.Params) == 0 {
		return []errors.CompilerError{errors.MissingErrOutParam(fn.Name)}
	}
	last := fn.Params[len(fn.Params)-1]
	if last.Name != "__err" {
		return []errors.CompilerError{errors.MissingErrOutParam(fn.Name)}
	}
	ptr, ok := last.Type.(*ir.PtrType)
	if !ok || !ir.TypesEqual(ptr.Elem, enum) {
		return []errors.CompilerError{errors.MissingErrorEnum(fn.Name, enumName)}
	}
	return nil
}

// checkUnusedAllocas warns about stack_alloc destinations that never
// appear as an operand of any other instruction or terminator in fn
// (via Load/Store's Addr, FieldPtr/IndexPtr's Base, or a phi fed
// straight from one), a sign of dead lowering output: a let-binding the
// lowerer emitted a slot for but whose value is never read back.
func checkUnusedAllocas(fn *ir.Function) []errors.CompilerError {
	allocas := map[ir.VarId]bool{}
	for _, id := range fn.BlockOrder {
		for _, inst := range fn.Block(id).Insts {
			if a, ok := inst.(*ir.StackAlloc); ok {
				allocas[a.D] = true
			}
		}
	}
	if len(allocas) == 0 {
		return nil
	}
	used := map[ir.VarId]bool{}
	for _, id := range fn.BlockOrder {
		b := fn.Block(id)
		for _, phi := range b.Phis {
			for _, op := range phi.Operands() {
				used[*op] = true
			}
		}
		for _, inst := range b.Insts {
			if _, ok := inst.(*ir.StackAlloc); ok {
				continue
			}
			for _, op := range inst.Operands() {
				used[*op] = true
			}
		}
		if b.Term != nil {
			for _, op := range b.Term.Operands() {
				used[*op] = true
			}
		}
	}
	var diags []errors.CompilerError
	for _, id := range fn.BlockOrder {
		for _, inst := range fn.Block(id).Insts {
			if a, ok := inst.(*ir.StackAlloc); ok && !used[a.D] {
				diags = append(diags, errors.UnusedAlloca(fn.Name, a.D.String()))
			}
		}
	}
	return diags
}

func checkPhiPredecessors(fn *ir.Function, b *ir.Block, preds []ir.BlockId) []errors.CompilerError {
	if len(b.Phis) == 0 {
		return nil
	}
	predSet := make(map[ir.BlockId]bool, len(preds))
	for _, p := range preds {
		predSet[p] = true
	}
	var diags []errors.CompilerError
	for _, phi := range b.Phis {
		have := make(map[ir.BlockId]bool, len(phi.Incoming))
		for _, e := range phi.Incoming {
			have[e.Pred] = true
		}
		var missing, extra []string
		for p := range predSet {
			if !have[p] {
				missing = append(missing, string(p))
			}
		}
		for e := range have {
			if !predSet[e] {
				extra = append(extra, string(e))
			}
		}
		if len(missing) > 0 || len(extra) > 0 {
			sort.Strings(missing)
			sort.Strings(extra)
			diags = append(diags, errors.PhiPredecessorMismatch(fn.Name, string(b.ID), missing, extra))
		}
	}
	return diags
}

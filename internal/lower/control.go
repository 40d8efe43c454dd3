package lower

import (
	"keic/internal/ast"
	"keic/internal/ir"
)

// addrOf returns a pointer to e's value, spilling it into a fresh
// stack_alloc first when e is not itself addressable (e.g. a call
// result), so callers that need a pointer to read a tag field never
// care whether their operand came from a variable or a temporary.
func (fc *funcCtx) addrOf(e ast.Expr) (ir.VarId, ir.Type) {
	switch e.(type) {
	case *ast.IdentExpr, *ast.FieldAccessExpr, *ast.IndexExpr, *ast.ParenExpr:
		return fc.lowerAddr(e)
	default:
		v := fc.lowerExpr(e)
		t := fc.typeOf(e)
		addr := fc.emit(&ir.StackAlloc{D: fc.fn.FreshValue(), Type: t})
		fc.emit(&ir.Store{Addr: addr, Value: v})
		return addr, t
	}
}

// lowerIfExpr lowers both the if-statement and if-expression forms: a
// result slot is only allocated when the then-arm actually has a tail
// value, in which case the else arm (block or else-if chain) is
// required by the checker to supply one too.
func (fc *funcCtx) lowerIfExpr(ex *ast.IfExpr) ir.VarId {
	hasValue := ex.Then.TailExpr != nil
	var resultType ir.Type
	var resultAddr ir.VarId
	if hasValue {
		resultType = fc.typeOf(ex.Then.TailExpr)
		resultAddr = fc.emit(&ir.StackAlloc{D: fc.fn.FreshValue(), Type: resultType})
	}

	thenBlock := fc.newBlock("if.then")
	elseBlock := fc.newBlock("if.else")
	joinBlock := fc.newBlock("if.join")

	cond := fc.lowerExpr(ex.Cond)
	fc.block.Term = &ir.Br{Cond: cond, Then: thenBlock.ID, Else: elseBlock.ID}

	fc.setBlock(thenBlock)
	thenVal := fc.lowerBlockInto(ex.Then)
	if !fc.terminated() {
		if hasValue {
			fc.emit(&ir.Store{Addr: resultAddr, Value: thenVal})
		}
		fc.block.Term = &ir.Jump{Target: joinBlock.ID}
	}

	fc.setBlock(elseBlock)
	switch e := ex.Else.(type) {
	case *ast.Block:
		elseVal := fc.lowerBlockInto(e)
		if !fc.terminated() {
			if hasValue {
				fc.emit(&ir.Store{Addr: resultAddr, Value: elseVal})
			}
			fc.block.Term = &ir.Jump{Target: joinBlock.ID}
		}
	case *ast.IfExpr:
		elseVal := fc.lowerIfExpr(e)
		if !fc.terminated() {
			if hasValue {
				fc.emit(&ir.Store{Addr: resultAddr, Value: elseVal})
			}
			fc.block.Term = &ir.Jump{Target: joinBlock.ID}
		}
	default:
		fc.block.Term = &ir.Jump{Target: joinBlock.ID}
	}

	fc.setBlock(joinBlock)
	if hasValue {
		return fc.emit(&ir.Load{D: fc.fn.FreshValue(), Addr: resultAddr, Type: resultType})
	}
	return 0
}

// lowerSwitchExpr lowers a switch over an enum subject's discriminant
// (or a plain integer subject) to an ir.Switch terminator plus one
// block per case/default.
func (fc *funcCtx) lowerSwitchExpr(ex *ast.SwitchExpr) ir.VarId {
	subjType := fc.typeOf(ex.Subject)
	et, isEnum := subjType.(*ir.EnumType)

	hasValue := false
	var resultType ir.Type
	for _, c := range ex.Cases {
		if c.Body.TailExpr != nil {
			hasValue = true
			resultType = fc.typeOf(c.Body.TailExpr)
			break
		}
	}
	if !hasValue && ex.Default != nil && ex.Default.TailExpr != nil {
		hasValue = true
		resultType = fc.typeOf(ex.Default.TailExpr)
	}
	var resultAddr ir.VarId
	if hasValue {
		resultAddr = fc.emit(&ir.StackAlloc{D: fc.fn.FreshValue(), Type: resultType})
	}

	var tagVal ir.VarId
	if isEnum && et.IsTaggedUnion() {
		addr, _ := fc.addrOf(ex.Subject)
		tagPtr := fc.emit(&ir.FieldPtr{D: fc.fn.FreshValue(), Base: addr, Field: "tag", Type: ir.TagType()})
		tagVal = fc.emit(&ir.Load{D: fc.fn.FreshValue(), Addr: tagPtr, Type: ir.TagType()})
	} else {
		tagVal = fc.lowerExpr(ex.Subject)
	}

	caseBlocks := make([]*ir.Block, len(ex.Cases))
	for i := range ex.Cases {
		caseBlocks[i] = fc.newBlock("switch.case")
	}
	defaultBlock := fc.newBlock("switch.default")
	joinBlock := fc.newBlock("switch.join")

	var cases []ir.SwitchCase
	for i, c := range ex.Cases {
		for _, label := range c.Labels {
			cases = append(cases, ir.SwitchCase{Tag: labelTag(label, et, isEnum), Target: caseBlocks[i].ID})
		}
	}
	fc.block.Term = &ir.Switch{Subject: tagVal, Cases: cases, Default: defaultBlock.ID}

	for i, c := range ex.Cases {
		fc.setBlock(caseBlocks[i])
		v := fc.lowerBlockInto(c.Body)
		if !fc.terminated() {
			if hasValue {
				fc.emit(&ir.Store{Addr: resultAddr, Value: v})
			}
			fc.block.Term = &ir.Jump{Target: joinBlock.ID}
		}
	}

	fc.setBlock(defaultBlock)
	if ex.Default != nil {
		v := fc.lowerBlockInto(ex.Default)
		if !fc.terminated() {
			if hasValue {
				fc.emit(&ir.Store{Addr: resultAddr, Value: v})
			}
		}
	}
	if !fc.terminated() {
		fc.block.Term = &ir.Jump{Target: joinBlock.ID}
	}

	fc.setBlock(joinBlock)
	if hasValue {
		return fc.emit(&ir.Load{D: fc.fn.FreshValue(), Addr: resultAddr, Type: resultType})
	}
	return 0
}

func labelTag(label string, et *ir.EnumType, isEnum bool) int {
	if isEnum {
		if tag, ok := et.Discriminant(label); ok {
			return tag
		}
	}
	var n int
	for _, c := range label {
		n = n*10 + int(c-'0')
	}
	return n
}

// lowerCatchExpr dispatches to one of the three throws-handling forms a
// catch site can take.
func (fc *funcCtx) lowerCatchExpr(ex *ast.CatchExpr) ir.VarId {
	switch ex.Mode {
	case ast.CatchPanic:
		return fc.lowerCatchPanic(ex)
	case ast.CatchThrow:
		return fc.lowerCatchThrow(ex)
	default:
		return fc.lowerCatchClauses(ex)
	}
}

// lowerCatchClauses lowers `call() catch { clauses }`: the call is
// rewritten to pass synthesized __out/__err slots, then the error
// slot's tag is switched over the clauses.
func (fc *funcCtx) lowerCatchClauses(ex *ast.CatchExpr) ir.VarId {
	mangledName := fc.calleeName(ex.Call)
	info, ok := fc.l.check.ThrowsOf(mangledName)
	if !ok {
		panic("lower: catch around a non-throwing call " + mangledName)
	}

	errEnum := synthesizeErrorEnum(mangledName, info.ErrorTypes, fc.l.mod.Structs)

	var outAddr ir.VarId
	hasResult := info.OriginalReturn != nil
	if _, void := info.OriginalReturn.(*ir.VoidType); void {
		hasResult = false
	}
	if hasResult {
		outAddr = fc.emit(&ir.StackAlloc{D: fc.fn.FreshValue(), Type: info.OriginalReturn})
	}
	errAddr := fc.emit(&ir.StackAlloc{D: fc.fn.FreshValue(), Type: errEnum})

	args := make([]ir.VarId, 0, len(ex.Call.Args)+2)
	for _, a := range ex.Call.Args {
		args = append(args, fc.lowerExpr(a))
	}
	if hasResult {
		args = append(args, outAddr)
	}
	args = append(args, errAddr)
	fc.emit(&ir.Call{D: 0, Callee: mangledName, Args: args, Throws: true, Type: &ir.VoidType{}})

	tagPtr := fc.emit(&ir.FieldPtr{D: fc.fn.FreshValue(), Base: errAddr, Field: "tag", Type: ir.TagType()})
	tag := fc.emit(&ir.Load{D: fc.fn.FreshValue(), Addr: tagPtr, Type: ir.TagType()})

	okBlock := fc.newBlock("catch.ok")
	clauseBlocks := make([]*ir.Block, len(ex.Clauses))
	for i := range ex.Clauses {
		clauseBlocks[i] = fc.newBlock("catch.clause")
	}
	defaultBlock := fc.newBlock("catch.default")
	joinBlock := fc.newBlock("catch.join")

	var resultAddr ir.VarId
	if hasResult {
		resultAddr = fc.emit(&ir.StackAlloc{D: fc.fn.FreshValue(), Type: info.OriginalReturn})
	}

	cases := []ir.SwitchCase{{Tag: 0, Target: okBlock.ID}}
	for i, cl := range ex.Clauses {
		if tag, ok := errEnum.Discriminant(cl.ErrorType); ok {
			cases = append(cases, ir.SwitchCase{Tag: tag, Target: clauseBlocks[i].ID})
		}
	}
	fc.block.Term = &ir.Switch{Subject: tag, Cases: cases, Default: defaultBlock.ID}

	fc.setBlock(okBlock)
	if hasResult {
		v := fc.emit(&ir.Load{D: fc.fn.FreshValue(), Addr: outAddr, Type: info.OriginalReturn})
		fc.emit(&ir.Store{Addr: resultAddr, Value: v})
	}
	if !fc.terminated() {
		fc.block.Term = &ir.Jump{Target: joinBlock.ID}
	}

	for i, cl := range ex.Clauses {
		fc.setBlock(clauseBlocks[i])
		if cl.Binding != "" {
			fc.locals[cl.Binding] = errAddr
			fc.localTypes[cl.Binding] = errEnum
		}
		fc.lowerBlockInto(cl.Body)
		if !fc.terminated() {
			fc.block.Term = &ir.Jump{Target: joinBlock.ID}
		}
	}

	fc.setBlock(defaultBlock)
	if ex.Default != nil {
		fc.lowerBlockInto(ex.Default)
	}
	if !fc.terminated() {
		fc.block.Term = &ir.Jump{Target: joinBlock.ID}
	}

	fc.setBlock(joinBlock)
	if hasResult {
		return fc.emit(&ir.Load{D: fc.fn.FreshValue(), Addr: resultAddr, Type: info.OriginalReturn})
	}
	return 0
}

// lowerCatchPanic lowers `call() catch panic`: any non-zero tag aborts
// the program with a fixed message instead of being handled.
func (fc *funcCtx) lowerCatchPanic(ex *ast.CatchExpr) ir.VarId {
	mangledName := fc.calleeName(ex.Call)
	info, ok := fc.l.check.ThrowsOf(mangledName)
	if !ok {
		panic("lower: catch around a non-throwing call " + mangledName)
	}
	errEnum := synthesizeErrorEnum(mangledName, info.ErrorTypes, fc.l.mod.Structs)

	var outAddr ir.VarId
	hasResult := info.OriginalReturn != nil
	if _, void := info.OriginalReturn.(*ir.VoidType); void {
		hasResult = false
	}
	if hasResult {
		outAddr = fc.emit(&ir.StackAlloc{D: fc.fn.FreshValue(), Type: info.OriginalReturn})
	}
	errAddr := fc.emit(&ir.StackAlloc{D: fc.fn.FreshValue(), Type: errEnum})

	args := make([]ir.VarId, 0, len(ex.Call.Args)+2)
	for _, a := range ex.Call.Args {
		args = append(args, fc.lowerExpr(a))
	}
	if hasResult {
		args = append(args, outAddr)
	}
	args = append(args, errAddr)
	fc.emit(&ir.Call{D: 0, Callee: mangledName, Args: args, Throws: true, Type: &ir.VoidType{}})

	tagPtr := fc.emit(&ir.FieldPtr{D: fc.fn.FreshValue(), Base: errAddr, Field: "tag", Type: ir.TagType()})
	tag := fc.emit(&ir.Load{D: fc.fn.FreshValue(), Addr: tagPtr, Type: ir.TagType()})
	zero := fc.emit(&ir.ConstInt{D: fc.fn.FreshValue(), Value: 0, Type: ir.TagType()})
	isOk := fc.emit(&ir.BinOp{D: fc.fn.FreshValue(), Op: "==", Left: tag, Right: zero, Type: &ir.BoolType{}})

	okBlock := fc.newBlock("catch.panic.ok")
	panicBlock := fc.newBlock("catch.panic.fail")
	fc.block.Term = &ir.Br{Cond: isOk, Then: okBlock.ID, Else: panicBlock.ID}

	fc.setBlock(panicBlock)
	msg := fc.emit(&ir.ConstString{D: fc.fn.FreshValue(), Value: "unhandled error from " + mangledName})
	fc.emit(&ir.CallExternVoid{Callee: "kei_panic", Args: []ir.VarId{msg}})
	fc.block.Term = &ir.Unreachable{}

	fc.setBlock(okBlock)
	if hasResult {
		return fc.emit(&ir.Load{D: fc.fn.FreshValue(), Addr: outAddr, Type: info.OriginalReturn})
	}
	return 0
}

// lowerCatchThrow lowers `call() catch throw`: the callee writes
// directly into the caller's own __err buffer, so on failure the error
// value is already where it needs to be. On failure, if the callee's
// throws list is ordered identically to the caller's, the tag written
// by the callee is already the right one and the function can return
// immediately; otherwise the tag is remapped to the caller's own
// numbering for each declared error type before returning.
func (fc *funcCtx) lowerCatchThrow(ex *ast.CatchExpr) ir.VarId {
	if !fc.throws {
		panic("lower: catch throw used outside a throwing function")
	}
	mangledName := fc.calleeName(ex.Call)
	info, ok := fc.l.check.ThrowsOf(mangledName)
	if !ok {
		panic("lower: catch around a non-throwing call " + mangledName)
	}

	var outAddr ir.VarId
	hasResult := info.OriginalReturn != nil
	if _, void := info.OriginalReturn.(*ir.VoidType); void {
		hasResult = false
	}
	if hasResult {
		outAddr = fc.emit(&ir.StackAlloc{D: fc.fn.FreshValue(), Type: info.OriginalReturn})
	}

	args := make([]ir.VarId, 0, len(ex.Call.Args)+2)
	for _, a := range ex.Call.Args {
		args = append(args, fc.lowerExpr(a))
	}
	if hasResult {
		args = append(args, outAddr)
	}
	args = append(args, fc.errPtr)
	fc.emit(&ir.Call{D: 0, Callee: mangledName, Args: args, Throws: true, Type: &ir.VoidType{}})

	tagPtr := fc.emit(&ir.FieldPtr{D: fc.fn.FreshValue(), Base: fc.errPtr, Field: "tag", Type: ir.TagType()})
	tag := fc.emit(&ir.Load{D: fc.fn.FreshValue(), Addr: tagPtr, Type: ir.TagType()})
	zero := fc.emit(&ir.ConstInt{D: fc.fn.FreshValue(), Value: 0, Type: ir.TagType()})
	isOk := fc.emit(&ir.BinOp{D: fc.fn.FreshValue(), Op: "==", Left: tag, Right: zero, Type: &ir.BoolType{}})

	okBlock := fc.newBlock("catch.throw.ok")
	propagateBlock := fc.newBlock("catch.throw.propagate")
	fc.block.Term = &ir.Br{Cond: isOk, Then: okBlock.ID, Else: propagateBlock.ID}

	fc.setBlock(propagateBlock)
	if sameThrowsOrder(info.ErrorTypes, fc.errorEnum) {
		fc.block.Term = &ir.RetVoid{}
	} else {
		remapBlocks := make([]*ir.Block, len(info.ErrorTypes))
		for i := range info.ErrorTypes {
			remapBlocks[i] = fc.newBlock("catch.throw.remap")
		}
		unreachableBlock := fc.newBlock("catch.throw.unreachable")

		cases := make([]ir.SwitchCase, len(info.ErrorTypes))
		for i := range info.ErrorTypes {
			cases[i] = ir.SwitchCase{Tag: i + 1, Target: remapBlocks[i].ID}
		}
		fc.block.Term = &ir.Switch{Subject: tag, Cases: cases, Default: unreachableBlock.ID}

		for i, errType := range info.ErrorTypes {
			fc.setBlock(remapBlocks[i])
			callerTag, _ := fc.errorEnum.Discriminant(errType)
			remapped := fc.emit(&ir.ConstInt{D: fc.fn.FreshValue(), Value: int64(callerTag), Type: ir.TagType()})
			remapTagPtr := fc.emit(&ir.FieldPtr{D: fc.fn.FreshValue(), Base: fc.errPtr, Field: "tag", Type: ir.TagType()})
			fc.emit(&ir.Store{Addr: remapTagPtr, Value: remapped})
			fc.block.Term = &ir.RetVoid{}
		}

		fc.setBlock(unreachableBlock)
		fc.block.Term = &ir.Unreachable{}
	}

	fc.setBlock(okBlock)
	if hasResult {
		return fc.emit(&ir.Load{D: fc.fn.FreshValue(), Addr: outAddr, Type: info.OriginalReturn})
	}
	return 0
}

// sameThrowsOrder reports whether a callee's declared throws list lines
// up, variant for variant, with the caller's own synthesized error
// enum (whose variant 0 is always the synthetic "Ok" case).
func sameThrowsOrder(calleeOrder []string, callerEnum *ir.EnumType) bool {
	if len(calleeOrder) != len(callerEnum.Variants)-1 {
		return false
	}
	for i, name := range calleeOrder {
		if callerEnum.Variants[i+1].Name != name {
			return false
		}
	}
	return true
}

package lower

import (
	"keic/internal/ast"
	"keic/internal/ir"
)

func (fc *funcCtx) lowerStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.LetStmt:
		fc.lowerLet(st)
	case *ast.AssignStmt:
		fc.lowerAssign(st)
	case *ast.ReturnStmt:
		fc.lowerReturn(st)
	case *ast.ExprStmt:
		fc.lowerExpr(st.Expr)
	case *ast.WhileStmt:
		fc.lowerWhile(st)
	case *ast.ForRangeStmt:
		fc.lowerForRange(st)
	case *ast.BreakStmt:
		fc.lowerBreak()
	case *ast.ContinueStmt:
		fc.lowerContinue()
	case *ast.AssertStmt:
		fc.lowerAssert(st)
	case *ast.RequireStmt:
		fc.lowerRequire(st)
	case *ast.ThrowStmt:
		fc.lowerThrow(st)
	case *ast.NestedBlockStmt:
		fc.lowerBlockInto(st.Body)
	default:
		panic("lower: unhandled statement node")
	}
}

func (fc *funcCtx) lowerLet(st *ast.LetStmt) {
	value := fc.lowerExpr(st.Expr)
	typ := fc.typeOf(st.Expr)
	addr := fc.emit(&ir.StackAlloc{D: fc.fn.FreshValue(), Type: typ})
	fc.emit(&ir.Store{Addr: addr, Value: value})
	fc.emitOnCopyIfNeeded(addr, typ, st.Expr)
	fc.locals[st.Name] = addr
	fc.localTypes[st.Name] = typ
	fc.letOrder = append(fc.letOrder, st.Name)
}

// emitPreStoreDestroy runs a lifecycle hook on whatever already lives at
// addr before it gets overwritten by an assignment: destroy for a
// hook-bearing struct, the runtime string-destroy extern for a string.
func (fc *funcCtx) emitPreStoreDestroy(addr ir.VarId, typ ir.Type) {
	if fc.l.check == nil {
		return
	}
	switch t := typ.(type) {
	case *ir.StructType:
		if fc.l.check.LifecycleOf(t.Name).HasDestroy {
			fc.emit(&ir.Destroy{Value: addr, StructName: t.Name})
		}
	case *ir.StringType:
		fc.emit(&ir.CallExternVoid{Callee: "kei_string_destroy", Args: []ir.VarId{addr}})
	}
}

// emitOnCopyIfNeeded runs S::__oncopy on the slot just stored into,
// skipping it when src is a move (ownership transferred, not copied).
func (fc *funcCtx) emitOnCopyIfNeeded(addr ir.VarId, typ ir.Type, src ast.Expr) {
	if fc.l.check == nil {
		return
	}
	st, ok := typ.(*ir.StructType)
	if !ok {
		return
	}
	if _, isMove := src.(*ast.MoveExpr); isMove {
		return
	}
	if fc.l.check.LifecycleOf(st.Name).HasOncopy {
		fc.emit(&ir.OnCopy{Value: addr, StructName: st.Name})
	}
}

// runDestructors calls __destroy on every live, unmoved, struct-typed
// local with a destructor hook, in reverse declaration order, matching
// a scope-stack unwind. It is invoked at every function exit point
// (plain return, throws-protocol return, and fallthrough); it does not
// model per-block scope exit (a local declared inside an inner block
// is still destroyed only once, at function exit) — a simplification
// against the full nested-scope-stack design.
func (fc *funcCtx) runDestructors() {
	if fc.l.check == nil {
		return
	}
	for i := len(fc.letOrder) - 1; i >= 0; i-- {
		name := fc.letOrder[i]
		if fc.moved[name] {
			continue
		}
		st, ok := fc.localTypes[name].(*ir.StructType)
		if !ok {
			continue
		}
		life := fc.l.check.LifecycleOf(st.Name)
		if !life.HasDestroy {
			continue
		}
		fc.emit(&ir.Destroy{Value: fc.locals[name], StructName: st.Name})
	}
}

func (fc *funcCtx) lowerAssign(st *ast.AssignStmt) {
	addr, typ := fc.lowerAddr(st.Target)
	value := fc.lowerExpr(st.Value)
	if st.Operator != ast.ASSIGN {
		cur := fc.emit(&ir.Load{D: fc.fn.FreshValue(), Addr: addr, Type: typ})
		value = fc.emit(&ir.BinOp{D: fc.fn.FreshValue(), Op: compoundOp(st.Operator), Left: cur, Right: value, Type: typ})
		fc.emit(&ir.Store{Addr: addr, Value: value})
		return
	}
	fc.emitPreStoreDestroy(addr, typ)
	fc.emit(&ir.Store{Addr: addr, Value: value})
	fc.emitOnCopyIfNeeded(addr, typ, st.Value)
}

func compoundOp(op ast.AssignOp) string {
	switch op {
	case ast.PLUS_ASSIGN:
		return "+"
	case ast.MINUS_ASSIGN:
		return "-"
	case ast.STAR_ASSIGN:
		return "*"
	case ast.SLASH_ASSIGN:
		return "/"
	case ast.PERCENT_ASSIGN:
		return "%"
	default:
		panic("lower: not a compound assignment operator")
	}
}

func (fc *funcCtx) lowerReturn(st *ast.ReturnStmt) {
	if fc.throws {
		if st.Value != nil {
			if id, ok := st.Value.(*ast.IdentExpr); ok {
				fc.moved[id.Name] = true
			}
			v := fc.lowerExpr(st.Value)
			fc.emit(&ir.Store{Addr: fc.outPtr, Value: v})
		}
		fc.runDestructors()
		fc.storeOkAndReturn()
		return
	}
	if st.Value == nil {
		fc.runDestructors()
		fc.block.Term = &ir.RetVoid{}
		return
	}
	if id, ok := st.Value.(*ast.IdentExpr); ok {
		fc.moved[id.Name] = true
	}
	v := fc.lowerExpr(st.Value)
	fc.runDestructors()
	fc.block.Term = &ir.Ret{Value: v}
}

func (fc *funcCtx) lowerWhile(st *ast.WhileStmt) {
	head := fc.newBlock("while.cond")
	body := fc.newBlock("while.body")
	exit := fc.newBlock("while.exit")

	fc.block.Term = &ir.Jump{Target: head.ID}

	fc.setBlock(head)
	cond := fc.lowerExpr(st.Cond)
	fc.block.Term = &ir.Br{Cond: cond, Then: body.ID, Else: exit.ID}

	fc.breakTargets = append(fc.breakTargets, exit.ID)
	fc.continueTargets = append(fc.continueTargets, head.ID)
	fc.setBlock(body)
	fc.lowerBlockInto(st.Body)
	if !fc.terminated() {
		fc.block.Term = &ir.Jump{Target: head.ID}
	}
	fc.breakTargets = fc.breakTargets[:len(fc.breakTargets)-1]
	fc.continueTargets = fc.continueTargets[:len(fc.continueTargets)-1]

	fc.setBlock(exit)
}

func (fc *funcCtx) lowerForRange(st *ast.ForRangeStmt) {
	start := fc.lowerExpr(st.Start)
	end := fc.lowerExpr(st.End)
	idxType := &ir.IntType{Bits: 64, Signed: true}

	ivAddr := fc.emit(&ir.StackAlloc{D: fc.fn.FreshValue(), Type: idxType})
	fc.emit(&ir.Store{Addr: ivAddr, Value: start})
	fc.locals[st.Var] = ivAddr
	fc.localTypes[st.Var] = idxType
	var idxAddr ir.VarId
	if st.IndexVar != "" {
		idxAddr = fc.emit(&ir.StackAlloc{D: fc.fn.FreshValue(), Type: idxType})
		zero := fc.emit(&ir.ConstInt{D: fc.fn.FreshValue(), Value: 0, Type: idxType})
		fc.emit(&ir.Store{Addr: idxAddr, Value: zero})
		fc.locals[st.IndexVar] = idxAddr
		fc.localTypes[st.IndexVar] = idxType
	}

	head := fc.newBlock("for.cond")
	body := fc.newBlock("for.body")
	latch := fc.newBlock("for.latch")
	exit := fc.newBlock("for.exit")

	fc.block.Term = &ir.Jump{Target: head.ID}

	fc.setBlock(head)
	cur := fc.emit(&ir.Load{D: fc.fn.FreshValue(), Addr: ivAddr, Type: idxType})
	cond := fc.emit(&ir.BinOp{D: fc.fn.FreshValue(), Op: "<", Left: cur, Right: end, Type: &ir.BoolType{}})
	fc.block.Term = &ir.Br{Cond: cond, Then: body.ID, Else: exit.ID}

	fc.breakTargets = append(fc.breakTargets, exit.ID)
	fc.continueTargets = append(fc.continueTargets, latch.ID)
	fc.setBlock(body)
	fc.lowerBlockInto(st.Body)
	if !fc.terminated() {
		fc.block.Term = &ir.Jump{Target: latch.ID}
	}
	fc.breakTargets = fc.breakTargets[:len(fc.breakTargets)-1]
	fc.continueTargets = fc.continueTargets[:len(fc.continueTargets)-1]

	fc.setBlock(latch)
	curLatch := fc.emit(&ir.Load{D: fc.fn.FreshValue(), Addr: ivAddr, Type: idxType})
	one := fc.emit(&ir.ConstInt{D: fc.fn.FreshValue(), Value: 1, Type: idxType})
	next := fc.emit(&ir.BinOp{D: fc.fn.FreshValue(), Op: "+", Left: curLatch, Right: one, Type: idxType})
	fc.emit(&ir.Store{Addr: ivAddr, Value: next})
	if st.IndexVar != "" {
		curIdx := fc.emit(&ir.Load{D: fc.fn.FreshValue(), Addr: idxAddr, Type: idxType})
		nextIdx := fc.emit(&ir.BinOp{D: fc.fn.FreshValue(), Op: "+", Left: curIdx, Right: one, Type: idxType})
		fc.emit(&ir.Store{Addr: idxAddr, Value: nextIdx})
	}
	fc.block.Term = &ir.Jump{Target: head.ID}

	fc.setBlock(exit)
}

func (fc *funcCtx) lowerBreak() {
	if len(fc.breakTargets) == 0 {
		panic("lower: break outside of a loop")
	}
	fc.block.Term = &ir.Jump{Target: fc.breakTargets[len(fc.breakTargets)-1]}
}

func (fc *funcCtx) lowerContinue() {
	if len(fc.continueTargets) == 0 {
		panic("lower: continue outside of a loop")
	}
	fc.block.Term = &ir.Jump{Target: fc.continueTargets[len(fc.continueTargets)-1]}
}

// lowerAssert emits a single assert_check instruction; whether a failed
// check panics, traps, or becomes a branch is the emitter's decision,
// not the mid-end's.
func (fc *funcCtx) lowerAssert(st *ast.AssertStmt) {
	cond := fc.lowerExpr(st.Cond)
	var msg ir.VarId
	if st.Message != nil {
		msg = fc.lowerExpr(st.Message)
	} else {
		msg = fc.emit(&ir.ConstString{D: fc.fn.FreshValue(), Value: "assertion failed"})
	}
	fc.emit(&ir.AssertCheck{Cond: cond, Message: msg})
}

// lowerRequire is identical to lowerAssert except for the instruction
// kind and default message, so the emitter can still tell the two
// surface keywords apart.
func (fc *funcCtx) lowerRequire(st *ast.RequireStmt) {
	cond := fc.lowerExpr(st.Cond)
	var msg ir.VarId
	if st.Message != nil {
		msg = fc.lowerExpr(st.Message)
	} else {
		msg = fc.emit(&ir.ConstString{D: fc.fn.FreshValue(), Value: "requirement failed"})
	}
	fc.emit(&ir.RequireCheck{Cond: cond, Message: msg})
}

func (fc *funcCtx) lowerThrow(st *ast.ThrowStmt) {
	tag, ok := fc.errorEnum.Discriminant(st.ErrorType)
	if !ok {
		panic("lower: throw of undeclared error type " + st.ErrorType)
	}
	variant, _ := fc.errorEnum.Variant(st.ErrorType)

	addr := fc.emit(&ir.StackAlloc{D: fc.fn.FreshValue(), Type: fc.errorEnum})
	tagField := fc.emit(&ir.FieldPtr{D: fc.fn.FreshValue(), Base: addr, Field: "tag", Type: ir.TagType()})
	tagVal := fc.emit(&ir.ConstInt{D: fc.fn.FreshValue(), Value: int64(tag), Type: ir.TagType()})
	fc.emit(&ir.Store{Addr: tagField, Value: tagVal})
	for _, f := range st.Fields {
		var fieldType ir.Type
		for _, vf := range variant.Fields {
			if vf.Name == f.Name {
				fieldType = vf.Type
			}
		}
		fieldAddr := fc.emit(&ir.FieldPtr{
			D: fc.fn.FreshValue(), Base: addr,
			Field: ir.TaggedUnionFieldPath(st.ErrorType, f.Name), Type: fieldType,
		})
		fc.emit(&ir.Store{Addr: fieldAddr, Value: fc.lowerExpr(f.Value)})
	}
	errVal := fc.emit(&ir.Load{D: fc.fn.FreshValue(), Addr: addr, Type: fc.errorEnum})
	fc.emit(&ir.Store{Addr: fc.errPtr, Value: errVal})
	fc.runDestructors()
	fc.block.Term = &ir.RetVoid{}
}

// typeOf resolves an expression's type, preferring the checker's
// resolution and falling back to a best-effort structural inference so
// the lowerer still works against hand-built fixtures in tests.
func (fc *funcCtx) typeOf(e ast.Expr) ir.Type {
	if fc.l.check != nil {
		if t, ok := fc.l.check.ExprTypes[e]; ok {
			return t
		}
	}
	return fc.inferType(e)
}

// Package lower translates a checked ast.Module into an ir.Module: the
// AST-to-IR half of the mid-end. Every local variable is given a
// stack_alloc and addressed through load/store, deliberately leaving
// SSA construction to the mem2reg package downstream rather than
// building direct SSA here — keeping the two concerns, "what does this
// program mean" and "how do we make it SSA", in separate passes with
// separate tests.
package lower

import (
	"fmt"

	"keic/internal/ast"
	"keic/internal/checkresult"
	"keic/internal/ir"
)

// Lowerer turns one checked module into its IR form.
type Lowerer struct {
	check  *checkresult.Result
	mod    *ir.Module
	module *ast.Module
}

func New(check *checkresult.Result) *Lowerer {
	return &Lowerer{check: check}
}

// Lower translates m into an ir.Module. Struct and enum declarations are
// registered first so function bodies can reference them regardless of
// declaration order.
func (l *Lowerer) Lower(m *ast.Module) *ir.Module {
	l.module = m
	l.mod = ir.NewModule(m.Name)

	for _, item := range m.Items {
		switch d := item.(type) {
		case *ast.StructDecl:
			l.mod.Structs[d.Name] = l.lowerStructDecl(d)
		case *ast.EnumDecl:
			l.mod.Enums[d.Name] = l.lowerEnumDecl(d)
		}
	}

	for _, item := range m.Items {
		switch d := item.(type) {
		case *ast.FunctionDecl:
			l.mod.Functions = append(l.mod.Functions, l.lowerFunction(d))
		case *ast.StructDecl:
			for _, meth := range d.Methods {
				l.mod.Functions = append(l.mod.Functions, l.lowerFunction(meth))
			}
		}
	}
	return l.mod
}

func (l *Lowerer) lowerStructDecl(d *ast.StructDecl) *ir.StructType {
	if l.check != nil {
		if st, ok := l.check.StructTypes[d.Name]; ok {
			return st
		}
	}
	fields := make([]ir.Field, len(d.Fields))
	for i, f := range d.Fields {
		fields[i] = ir.Field{Name: f.Name, Type: l.resolveType(f.Type)}
	}
	return &ir.StructType{Name: d.Name, Fields: fields}
}

func (l *Lowerer) lowerEnumDecl(d *ast.EnumDecl) *ir.EnumType {
	if l.check != nil {
		if et, ok := l.check.EnumTypes[d.Name]; ok {
			return et
		}
	}
	variants := make([]ir.Variant, len(d.Variants))
	for i, v := range d.Variants {
		fields := make([]ir.Field, len(v.Fields))
		for j, f := range v.Fields {
			fields[j] = ir.Field{Name: f.Name, Type: l.resolveType(f.Type)}
		}
		variants[i] = ir.Variant{Name: v.Name, Fields: fields, ExplicitTag: v.ExplicitTag}
	}
	return &ir.EnumType{Name: d.Name, Variants: variants}
}

// resolveType resolves a surface TypeExpr to its IR representation,
// preferring whatever the checker already resolved and falling back to
// a purely structural resolution (primitive name table, nominal lookup,
// recursive generics/array/tuple handling) so the lowerer can also run
// against hand-built fixtures that never populated a full CheckResult.
func (l *Lowerer) resolveType(t *ast.TypeExpr) ir.Type {
	if t == nil {
		return &ir.VoidType{}
	}
	if l.check != nil {
		if resolved, ok := l.check.DeclaredTypes[t]; ok {
			return resolved
		}
	}
	if t.ArrayElem != nil {
		return &ir.ArrayType{Elem: l.resolveType(t.ArrayElem), Length: t.ArrayLength}
	}
	if len(t.TupleElements) > 0 {
		fields := make([]ir.Field, len(t.TupleElements))
		for i, e := range t.TupleElements {
			fields[i] = ir.Field{Name: fmt.Sprintf("_%d", i), Type: l.resolveType(e)}
		}
		return &ir.StructType{Name: "tuple", Fields: fields}
	}
	switch t.Name {
	case "i8":
		return &ir.IntType{Bits: 8, Signed: true}
	case "i16":
		return &ir.IntType{Bits: 16, Signed: true}
	case "i32", "int":
		return &ir.IntType{Bits: 32, Signed: true}
	case "i64":
		return &ir.IntType{Bits: 64, Signed: true}
	case "u8":
		return &ir.IntType{Bits: 8, Signed: false}
	case "u16":
		return &ir.IntType{Bits: 16, Signed: false}
	case "u32":
		return &ir.IntType{Bits: 32, Signed: false}
	case "u64":
		return &ir.IntType{Bits: 64, Signed: false}
	case "f32":
		return &ir.FloatType{Bits: 32}
	case "f64":
		return &ir.FloatType{Bits: 64}
	case "bool":
		return &ir.BoolType{}
	case "string":
		return &ir.StringType{}
	case "void":
		return &ir.VoidType{}
	}
	if l.check != nil {
		if st, ok := l.check.StructTypes[t.Name]; ok {
			return st
		}
		if et, ok := l.check.EnumTypes[t.Name]; ok {
			return et
		}
	}
	if st, ok := l.mod.Structs[t.Name]; ok {
		return st
	}
	if et, ok := l.mod.Enums[t.Name]; ok {
		return et
	}
	// Unresolved nominal type: represent it as a struct stub named after
	// itself so later passes have something printable instead of a nil
	// type panicking the printer.
	return &ir.StructType{Name: t.Name}
}

// funcCtx is the mutable per-function lowering state: the block
// currently being appended to, the local-variable table, and the
// throws-protocol out-pointers when the function propagates errors.
type funcCtx struct {
	l          *Lowerer
	fn         *ir.Function
	block      *ir.Block
	locals     map[string]ir.VarId
	localTypes map[string]ir.Type
	letOrder   []string
	moved      map[string]bool

	breakTargets    []ir.BlockId
	continueTargets []ir.BlockId

	throws    bool
	outPtr    ir.VarId
	retType   ir.Type // the function's *declared* success type, even when throws rewrites ReturnType to void
	errPtr    ir.VarId
	errorEnum *ir.EnumType
}

func (l *Lowerer) lowerFunction(d *ast.FunctionDecl) *ir.Function {
	overloaded := l.check != nil && l.check.Overloaded[d.Name]
	name := mangle(d, l.module.Name, overloaded)

	retType := l.resolveType(d.Return)
	throws := d.CanThrow()

	irRet := retType
	if throws {
		irRet = &ir.VoidType{}
	}

	fn := ir.NewFunction(name, irRet)
	fc := &funcCtx{
		l: l, fn: fn,
		locals:     map[string]ir.VarId{},
		localTypes: map[string]ir.Type{},
		moved:      map[string]bool{},
		throws:     throws,
		retType:    retType,
	}

	if d.IsMethod() {
		selfType := &ir.PtrType{Elem: l.resolveType(d.Receiver)}
		v := fn.FreshValue()
		fn.Params = append(fn.Params, ir.Param{Name: "self", Type: selfType, Val: v})
		fc.locals["self"] = v
		fc.localTypes["self"] = selfType
	}
	for _, p := range d.Params {
		pt := l.resolveType(p.Type)
		v := fn.FreshValue()
		fn.Params = append(fn.Params, ir.Param{Name: p.Name, Type: pt, Val: v})
		fc.locals[p.Name] = v
		fc.localTypes[p.Name] = pt
	}
	if throws {
		if _, isVoid := retType.(*ir.VoidType); !isVoid {
			v := fn.FreshValue()
			fn.Params = append(fn.Params, ir.Param{Name: "__out", Type: &ir.PtrType{Elem: retType}, Val: v})
			fc.outPtr = v
		}
		throwsNames := make([]string, len(d.Throws))
		for i, t := range d.Throws {
			throwsNames[i] = t.Name
		}
		fc.errorEnum = synthesizeErrorEnum(name, throwsNames, l.mod.Structs)
		l.mod.Enums[fc.errorEnum.Name] = fc.errorEnum
		v := fn.FreshValue()
		fn.Params = append(fn.Params, ir.Param{Name: "__err", Type: &ir.PtrType{Elem: fc.errorEnum}, Val: v})
		fc.errPtr = v
	}

	entry := fn.NewBlockNamed("entry")
	fn.Entry = entry.ID
	fc.block = entry

	if d.Body != nil {
		fc.lowerBlockInto(d.Body)
	}
	fc.ensureTerminated()
	return fn
}

// emit appends inst to the current block and returns its destination,
// for the common case of a single-result instruction.
func (fc *funcCtx) emit(inst ir.Inst) ir.VarId {
	fc.block.Insts = append(fc.block.Insts, inst)
	if d := inst.Dest(); d != nil {
		return *d
	}
	return 0
}

func (fc *funcCtx) newBlock(role string) *ir.Block {
	return fc.fn.NewBlockNamed(role)
}

func (fc *funcCtx) setBlock(b *ir.Block) { fc.block = b }

// terminated reports whether the current block already has a
// terminator (set by an earlier return/throw/break/continue), meaning
// any further statements in this syntactic block are unreachable;
// lowerBlockInto skips them.
func (fc *funcCtx) terminated() bool { return fc.block.Term != nil }

func (fc *funcCtx) ensureTerminated() {
	if fc.block.Term != nil {
		return
	}
	if fc.throws {
		fc.runDestructors()
		fc.storeOkAndReturn()
		return
	}
	if _, void := fc.fn.ReturnType.(*ir.VoidType); void {
		fc.runDestructors()
		fc.block.Term = &ir.RetVoid{}
	} else {
		// Falling off the end of a non-void function without a return is
		// a checker-level error; at this point it is an internal
		// invariant violation, not something the lowerer can recover.
		panic("lower: function " + fc.fn.Name + " falls through without returning a value")
	}
}

func (fc *funcCtx) storeOkAndReturn() {
	fc.emit(&ir.Store{Addr: fc.errPtr, Value: fc.constOkTag()})
	fc.block.Term = &ir.RetVoid{}
}

func (fc *funcCtx) constOkTag() ir.VarId {
	return fc.emit(&ir.ConstInt{D: fc.fn.FreshValue(), Value: 0, Type: ir.TagType()})
}

// lowerBlockInto lowers every statement of b into fc's current block,
// then, if present, the tail expression's value is left for the caller
// to consume via the returned VarId (0/invalid when b has none or the
// block already terminated).
func (fc *funcCtx) lowerBlockInto(b *ast.Block) ir.VarId {
	for _, stmt := range b.Items {
		if fc.terminated() {
			break
		}
		fc.lowerStmt(stmt)
	}
	if fc.terminated() || b.TailExpr == nil {
		return 0
	}
	return fc.lowerExpr(b.TailExpr)
}

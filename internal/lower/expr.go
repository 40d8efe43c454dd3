package lower

import (
	"strconv"

	"keic/internal/ast"
	"keic/internal/ir"
)

var comparisonOps = map[string]bool{
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
}

// lowerExpr lowers e and returns the SSA value it produces.
func (fc *funcCtx) lowerExpr(e ast.Expr) ir.VarId {
	switch ex := e.(type) {
	case *ast.ParenExpr:
		return fc.lowerExpr(ex.Value)
	case *ast.LiteralExpr:
		return fc.lowerLiteral(ex)
	case *ast.IdentExpr:
		addr, typ := fc.lowerAddr(ex)
		for _, p := range fc.fn.Params {
			if p.Val == addr {
				return addr
			}
		}
		return fc.emit(&ir.Load{D: fc.fn.FreshValue(), Addr: addr, Type: typ})
	case *ast.BinaryExpr:
		return fc.lowerBinary(ex)
	case *ast.UnaryExpr:
		v := fc.lowerExpr(ex.Value)
		t := fc.typeOf(ex.Value)
		return fc.emit(&ir.UnOp{D: fc.fn.FreshValue(), Op: ex.Op, Value: v, Type: t})
	case *ast.CallExpr:
		return fc.lowerCall(ex, 0)
	case *ast.FieldAccessExpr, *ast.IndexExpr:
		addr, typ := fc.lowerAddr(ex)
		return fc.emit(&ir.Load{D: fc.fn.FreshValue(), Addr: addr, Type: typ})
	case *ast.StructLiteralExpr:
		return fc.lowerStructLiteral(ex)
	case *ast.ArrayLiteralExpr:
		return fc.lowerArrayLiteral(ex)
	case *ast.TupleExpr:
		return fc.lowerTuple(ex)
	case *ast.EnumVariantExpr:
		return fc.lowerEnumVariant(ex)
	case *ast.MoveExpr:
		if id, ok := ex.Value.(*ast.IdentExpr); ok {
			fc.moved[id.Name] = true
		}
		v := fc.lowerExpr(ex.Value)
		t := fc.typeOf(ex.Value)
		return fc.emit(&ir.Move{D: fc.fn.FreshValue(), Source: v, Type: t})
	case *ast.CastExpr:
		v := fc.lowerExpr(ex.Value)
		t := fc.l.resolveType(ex.Target)
		return fc.emit(&ir.Cast{D: fc.fn.FreshValue(), Value: v, Type: t})
	case *ast.SizeofExpr:
		return fc.emit(&ir.Sizeof{D: fc.fn.FreshValue(), Of: fc.l.resolveType(ex.Type)})
	case *ast.IfExpr:
		return fc.lowerIfExpr(ex)
	case *ast.SwitchExpr:
		return fc.lowerSwitchExpr(ex)
	case *ast.CatchExpr:
		return fc.lowerCatchExpr(ex)
	case *ast.CalleePath:
		// A bare qualified path used as a value names an imported static
		// or error-namespace constant; the checker resolves it to a
		// callable or constant elsewhere, so here it only ever appears
		// as a CallExpr.Callee, handled in lowerCall.
		panic("lower: CalleePath used outside of a call")
	default:
		panic("lower: unhandled expression node")
	}
}

func (fc *funcCtx) lowerLiteral(ex *ast.LiteralExpr) ir.VarId {
	switch ex.Kind {
	case ast.INT_LITERAL:
		n, _ := strconv.ParseInt(ex.Value, 0, 64)
		return fc.emit(&ir.ConstInt{D: fc.fn.FreshValue(), Value: n, Type: fc.typeOf(ex)})
	case ast.FLOAT_LITERAL:
		f, _ := strconv.ParseFloat(ex.Value, 64)
		return fc.emit(&ir.ConstFloat{D: fc.fn.FreshValue(), Value: f, Type: fc.typeOf(ex)})
	case ast.BOOL_LITERAL:
		return fc.emit(&ir.ConstBool{D: fc.fn.FreshValue(), Value: ex.Value == "true"})
	case ast.STRING_LITERAL:
		return fc.emit(&ir.ConstString{D: fc.fn.FreshValue(), Value: ex.Value})
	case ast.NULL_LITERAL:
		return fc.emit(&ir.ConstNull{D: fc.fn.FreshValue(), Type: fc.typeOf(ex)})
	default:
		panic("lower: unknown literal kind")
	}
}

// lowerBinary lowers && and || with short-circuit control flow (their
// right operand must not execute when the left already decides the
// result) and everything else as a plain binop.
func (fc *funcCtx) lowerBinary(ex *ast.BinaryExpr) ir.VarId {
	if ex.Op == "&&" || ex.Op == "||" {
		return fc.lowerShortCircuit(ex)
	}
	l := fc.lowerExpr(ex.Left)
	r := fc.lowerExpr(ex.Right)
	resultType := fc.typeOf(ex)
	if comparisonOps[ex.Op] {
		resultType = &ir.BoolType{}
	}
	return fc.emit(&ir.BinOp{D: fc.fn.FreshValue(), Op: ex.Op, Left: l, Right: r, Type: resultType})
}

func (fc *funcCtx) lowerShortCircuit(ex *ast.BinaryExpr) ir.VarId {
	lhs := fc.lowerExpr(ex.Left)
	rhsBlock := fc.newBlock("sc.rhs")
	joinBlock := fc.newBlock("sc.join")
	shortCircuitBlock := fc.newBlock("sc.short")

	resultAddr := fc.emit(&ir.StackAlloc{D: fc.fn.FreshValue(), Type: &ir.BoolType{}})

	if ex.Op == "&&" {
		fc.block.Term = &ir.Br{Cond: lhs, Then: rhsBlock.ID, Else: shortCircuitBlock.ID}
	} else {
		fc.block.Term = &ir.Br{Cond: lhs, Then: shortCircuitBlock.ID, Else: rhsBlock.ID}
	}

	fc.setBlock(shortCircuitBlock)
	fc.emit(&ir.Store{Addr: resultAddr, Value: lhs})
	fc.block.Term = &ir.Jump{Target: joinBlock.ID}

	fc.setBlock(rhsBlock)
	rhs := fc.lowerExpr(ex.Right)
	fc.emit(&ir.Store{Addr: resultAddr, Value: rhs})
	if !fc.terminated() {
		fc.block.Term = &ir.Jump{Target: joinBlock.ID}
	}

	fc.setBlock(joinBlock)
	return fc.emit(&ir.Load{D: fc.fn.FreshValue(), Addr: resultAddr, Type: &ir.BoolType{}})
}

// lowerCall lowers a call expression as a plain call. Its second
// parameter is unused: a throwing call wrapped in a CatchExpr is lowered
// by the lowerCatch* functions, which build their own call_throws.
func (fc *funcCtx) lowerCall(ex *ast.CallExpr, _ ir.VarId) ir.VarId {
	name := fc.calleeName(ex)
	args := make([]ir.VarId, len(ex.Args))
	for i, a := range ex.Args {
		args[i] = fc.lowerExpr(a)
	}
	resultType := fc.typeOf(ex)
	return fc.emit(&ir.Call{D: fc.fn.FreshValue(), Callee: name, Args: args, Type: resultType})
}

func (fc *funcCtx) calleeName(ex *ast.CallExpr) string {
	if fc.l.check != nil {
		if target, ok := fc.l.check.CallTargets[ex]; ok {
			return target
		}
	}
	switch c := ex.Callee.(type) {
	case *ast.IdentExpr:
		return c.Name
	case *ast.CalleePath:
		return c.Parts[len(c.Parts)-1]
	default:
		panic("lower: unsupported call target")
	}
}

// lowerAddr lowers an lvalue expression to a pointer plus the type it
// points to, for use as a Store/Load/field_ptr/index_ptr base.
func (fc *funcCtx) lowerAddr(e ast.Expr) (ir.VarId, ir.Type) {
	switch ex := e.(type) {
	case *ast.ParenExpr:
		return fc.lowerAddr(ex.Value)
	case *ast.IdentExpr:
		addr, ok := fc.locals[ex.Name]
		if !ok {
			panic("lower: reference to undeclared local " + ex.Name)
		}
		return addr, fc.localTypes[ex.Name]
	case *ast.FieldAccessExpr:
		base, baseType := fc.lowerAddr(ex.Target)
		if pt, ok := baseType.(*ir.PtrType); ok {
			fc.emit(&ir.NullCheck{Ptr: base})
			baseType = pt.Elem
		}
		fieldType := fieldTypeOf(baseType, ex.Field)
		addr := fc.emit(&ir.FieldPtr{D: fc.fn.FreshValue(), Base: base, Field: ex.Field, Type: fieldType})
		return addr, fieldType
	case *ast.IndexExpr:
		base, baseType := fc.lowerAddr(ex.Target)
		if pt, ok := baseType.(*ir.PtrType); ok {
			fc.emit(&ir.NullCheck{Ptr: base})
			baseType = pt.Elem
		}
		if fc.l.check != nil {
			if method, ok := fc.l.check.OperatorMethods[ex]; ok {
				idx := fc.lowerExpr(ex.Index)
				elemType := fc.typeOf(ex)
				v := fc.emit(&ir.Call{D: fc.fn.FreshValue(), Callee: method, Args: []ir.VarId{base, idx}, Type: &ir.PtrType{Elem: elemType}})
				return v, elemType
			}
		}
		elemType := elementTypeOf(baseType)
		idx := fc.lowerExpr(ex.Index)
		if at, ok := baseType.(*ir.ArrayType); ok {
			length := fc.emit(&ir.ConstInt{D: fc.fn.FreshValue(), Value: int64(at.Length), Type: &ir.IntType{Bits: 64, Signed: false}})
			fc.emit(&ir.BoundsCheck{Index: idx, Length: length})
		}
		addr := fc.emit(&ir.IndexPtr{D: fc.fn.FreshValue(), Base: base, Index: idx, Type: elemType})
		return addr, elemType
	default:
		panic("lower: expression is not assignable")
	}
}

func fieldTypeOf(baseType ir.Type, field string) ir.Type {
	if st, ok := baseType.(*ir.StructType); ok {
		for _, f := range st.Fields {
			if f.Name == field {
				return f.Type
			}
		}
	}
	return &ir.IntType{Bits: 32, Signed: true}
}

func elementTypeOf(baseType ir.Type) ir.Type {
	if at, ok := baseType.(*ir.ArrayType); ok {
		return at.Elem
	}
	return &ir.IntType{Bits: 32, Signed: true}
}

func (fc *funcCtx) lowerStructLiteral(ex *ast.StructLiteralExpr) ir.VarId {
	st := fc.structType(ex.TypeName)
	addr := fc.emit(&ir.StackAlloc{D: fc.fn.FreshValue(), Type: st})
	for _, f := range ex.Fields {
		ft := fieldTypeOf(st, f.Name)
		fieldAddr := fc.emit(&ir.FieldPtr{D: fc.fn.FreshValue(), Base: addr, Field: f.Name, Type: ft})
		fc.emit(&ir.Store{Addr: fieldAddr, Value: fc.lowerExpr(f.Value)})
	}
	return fc.emit(&ir.Load{D: fc.fn.FreshValue(), Addr: addr, Type: st})
}

func (fc *funcCtx) structType(name string) *ir.StructType {
	if fc.l.check != nil {
		if st, ok := fc.l.check.StructTypes[name]; ok {
			return st
		}
	}
	if st, ok := fc.l.mod.Structs[name]; ok {
		return st
	}
	return &ir.StructType{Name: name}
}

func (fc *funcCtx) lowerArrayLiteral(ex *ast.ArrayLiteralExpr) ir.VarId {
	var elemType ir.Type = &ir.IntType{Bits: 32, Signed: true}
	if len(ex.Elements) > 0 {
		elemType = fc.typeOf(ex.Elements[0])
	}
	at := &ir.ArrayType{Elem: elemType, Length: uint64(len(ex.Elements))}
	addr := fc.emit(&ir.StackAlloc{D: fc.fn.FreshValue(), Type: at})
	for i, el := range ex.Elements {
		idx := fc.emit(&ir.ConstInt{D: fc.fn.FreshValue(), Value: int64(i), Type: &ir.IntType{Bits: 64, Signed: false}})
		elAddr := fc.emit(&ir.IndexPtr{D: fc.fn.FreshValue(), Base: addr, Index: idx, Type: elemType})
		fc.emit(&ir.Store{Addr: elAddr, Value: fc.lowerExpr(el)})
	}
	return fc.emit(&ir.Load{D: fc.fn.FreshValue(), Addr: addr, Type: at})
}

func (fc *funcCtx) lowerTuple(ex *ast.TupleExpr) ir.VarId {
	fields := make([]ir.Field, len(ex.Elements))
	values := make([]ir.VarId, len(ex.Elements))
	for i, el := range ex.Elements {
		values[i] = fc.lowerExpr(el)
		fields[i] = ir.Field{Name: tupleFieldName(i), Type: fc.typeOf(el)}
	}
	st := &ir.StructType{Name: "tuple", Fields: fields}
	addr := fc.emit(&ir.StackAlloc{D: fc.fn.FreshValue(), Type: st})
	for i, v := range values {
		fieldAddr := fc.emit(&ir.FieldPtr{D: fc.fn.FreshValue(), Base: addr, Field: tupleFieldName(i), Type: fields[i].Type})
		fc.emit(&ir.Store{Addr: fieldAddr, Value: v})
	}
	return fc.emit(&ir.Load{D: fc.fn.FreshValue(), Addr: addr, Type: st})
}

func tupleFieldName(i int) string { return "_" + strconv.Itoa(i) }

func (fc *funcCtx) lowerEnumVariant(ex *ast.EnumVariantExpr) ir.VarId {
	et := fc.enumType(ex.EnumName)
	tag, ok := et.Discriminant(ex.VariantName)
	if !ok {
		panic("lower: unknown variant " + ex.VariantName + " of enum " + ex.EnumName)
	}
	if !et.IsTaggedUnion() {
		return fc.emit(&ir.ConstInt{D: fc.fn.FreshValue(), Value: int64(tag), Type: ir.ScalarDiscriminantType()})
	}
	addr := fc.emit(&ir.StackAlloc{D: fc.fn.FreshValue(), Type: et})
	tagField := fc.emit(&ir.FieldPtr{D: fc.fn.FreshValue(), Base: addr, Field: "tag", Type: ir.TagType()})
	fc.emit(&ir.Store{Addr: tagField, Value: fc.emit(&ir.ConstInt{D: fc.fn.FreshValue(), Value: int64(tag), Type: ir.TagType()})})
	variant, _ := et.Variant(ex.VariantName)
	for _, f := range ex.Fields {
		var ft ir.Type
		for _, vf := range variant.Fields {
			if vf.Name == f.Name {
				ft = vf.Type
			}
		}
		fieldAddr := fc.emit(&ir.FieldPtr{D: fc.fn.FreshValue(), Base: addr, Field: ir.TaggedUnionFieldPath(ex.VariantName, f.Name), Type: ft})
		fc.emit(&ir.Store{Addr: fieldAddr, Value: fc.lowerExpr(f.Value)})
	}
	return fc.emit(&ir.Load{D: fc.fn.FreshValue(), Addr: addr, Type: et})
}

func (fc *funcCtx) enumType(name string) *ir.EnumType {
	if fc.l.check != nil {
		if et, ok := fc.l.check.EnumTypes[name]; ok {
			return et
		}
	}
	if et, ok := fc.l.mod.Enums[name]; ok {
		return et
	}
	return &ir.EnumType{Name: name}
}

// inferType is the lowerer's fallback type inference for expressions the
// checker never annotated (hand-built fixtures in tests). It is
// deliberately approximate: real type resolution belongs to the
// checker, not the lowerer.
func (fc *funcCtx) inferType(e ast.Expr) ir.Type {
	switch ex := e.(type) {
	case *ast.LiteralExpr:
		switch ex.Kind {
		case ast.INT_LITERAL:
			return &ir.IntType{Bits: 32, Signed: true}
		case ast.FLOAT_LITERAL:
			return &ir.FloatType{Bits: 64}
		case ast.BOOL_LITERAL:
			return &ir.BoolType{}
		case ast.STRING_LITERAL:
			return &ir.StringType{}
		}
	case *ast.IdentExpr:
		if t, ok := fc.localTypes[ex.Name]; ok {
			return t
		}
	case *ast.BinaryExpr:
		if comparisonOps[ex.Op] || ex.Op == "&&" || ex.Op == "||" {
			return &ir.BoolType{}
		}
		return fc.typeOf(ex.Left)
	case *ast.ParenExpr:
		return fc.typeOf(ex.Value)
	case *ast.UnaryExpr:
		if ex.Op == "!" {
			return &ir.BoolType{}
		}
		return fc.typeOf(ex.Value)
	case *ast.EnumVariantExpr:
		return fc.enumType(ex.EnumName)
	case *ast.StructLiteralExpr:
		return fc.structType(ex.TypeName)
	}
	return &ir.IntType{Bits: 32, Signed: true}
}

// Package fixtures hand-builds typed ast.Module values for the
// end-to-end scenarios this mid-end is expected to handle correctly.
// There is no parser in scope, so these trees stand in for source text:
// each fixture is what a real front end would have produced after
// parsing and type-checking the commented source snippet above it.
package fixtures

import (
	"keic/internal/ast"
	"keic/internal/checkresult"
	"keic/internal/ir"
)

// Scenario bundles one hand-built program with a human label so
// cmd/keic can list and select them, and so tests can name them the
// same way the CLI does. Check is nil for every scenario that the
// lowerer's structural fallbacks (no real checker attached) already
// handle correctly; it is populated only where a scenario specifically
// depends on information a checker would supply (lifecycle hooks,
// resolved expression types) that has no structural substitute.
type Scenario struct {
	Name        string
	Description string
	Module      *ast.Module
	Check       *checkresult.Result
}

func ident(name string) *ast.IdentExpr { return &ast.IdentExpr{Name: name} }

func intLit(v string) *ast.LiteralExpr {
	return &ast.LiteralExpr{Kind: ast.INT_LITERAL, Value: v}
}

func boolType() *ast.TypeExpr { return &ast.TypeExpr{Name: "bool"} }
func intType() *ast.TypeExpr  { return &ast.TypeExpr{Name: "int"} }

func block(items []ast.Stmt, tail ast.Expr) *ast.Block {
	return &ast.Block{Items: items, TailExpr: tail}
}

func ret(e ast.Expr) *ast.ReturnStmt { return &ast.ReturnStmt{Value: e} }

// All returns every scenario in a stable order, matching the order they
// are described in the surrounding design documents.
func All() []Scenario {
	return []Scenario{
		returnConstant(),
		ifElseAssignment(),
		whileLoopAccumulator(),
		throwingFunction(),
		destructorOnScopeExit(),
		taggedUnionSwitch(),
		assertAndRequireChecks(),
		boundsCheckedArrayIndex(),
		nullCheckOnMethodSelf(),
		structLifecycleOnReassignment(),
		catchPanicOnThrowingCall(),
		catchThrowWithRemap(),
		moveAndSizeof(),
		nullLiteralComparison(),
	}
}

// returnConstant: fn main() -> int { return 42; }
func returnConstant() Scenario {
	fn := &ast.FunctionDecl{
		Name:   "main",
		Return: intType(),
		Body:   block(nil, nil),
	}
	fn.Body.Items = []ast.Stmt{ret(intLit("42"))}
	mod := &ast.Module{Name: "scenario1", Items: []ast.Decl{fn}}
	return Scenario{
		Name:        "return-constant",
		Description: "fn main() -> int { return 42; }",
		Module:      mod,
	}
}

// ifElseAssignment: fn test(cond: bool) -> int { let x = 0; if cond { x = 1; } else { x = 2; } return x; }
func ifElseAssignment() Scenario {
	fn := &ast.FunctionDecl{
		Name:   "test",
		Return: intType(),
		Params: []*ast.FunctionParam{{Name: "cond", Type: boolType()}},
	}
	letX := &ast.LetStmt{Name: "x", Mut: true, Expr: intLit("0")}
	assignThen := &ast.AssignStmt{Target: ident("x"), Operator: ast.ASSIGN, Value: intLit("1")}
	assignElse := &ast.AssignStmt{Target: ident("x"), Operator: ast.ASSIGN, Value: intLit("2")}
	ifExpr := &ast.IfExpr{
		Cond: ident("cond"),
		Then: block([]ast.Stmt{assignThen}, nil),
		Else: block([]ast.Stmt{assignElse}, nil),
	}
	fn.Body = block([]ast.Stmt{letX, &ast.ExprStmt{Expr: ifExpr}}, nil)
	fn.Body.Items = append(fn.Body.Items, ret(ident("x")))
	mod := &ast.Module{Name: "scenario2", Items: []ast.Decl{fn}}
	return Scenario{
		Name:        "if-else-assignment",
		Description: "fn test(cond: bool) -> int { let x = 0; if cond { x = 1; } else { x = 2; } return x; }",
		Module:      mod,
	}
}

// whileLoopAccumulator: fn sum(n: int) -> int { let s = 0; let i = 0; while i < n { s = s + i; i = i + 1; } return s; }
func whileLoopAccumulator() Scenario {
	fn := &ast.FunctionDecl{
		Name:   "sum",
		Return: intType(),
		Params: []*ast.FunctionParam{{Name: "n", Type: intType()}},
	}
	letS := &ast.LetStmt{Name: "s", Mut: true, Expr: intLit("0")}
	letI := &ast.LetStmt{Name: "i", Mut: true, Expr: intLit("0")}
	cond := &ast.BinaryExpr{Op: "<", Left: ident("i"), Right: ident("n")}
	bumpS := &ast.AssignStmt{
		Target: ident("s"), Operator: ast.ASSIGN,
		Value: &ast.BinaryExpr{Op: "+", Left: ident("s"), Right: ident("i")},
	}
	bumpI := &ast.AssignStmt{
		Target: ident("i"), Operator: ast.ASSIGN,
		Value: &ast.BinaryExpr{Op: "+", Left: ident("i"), Right: intLit("1")},
	}
	loop := &ast.WhileStmt{Cond: cond, Body: block([]ast.Stmt{bumpS, bumpI}, nil)}
	fn.Body = block([]ast.Stmt{letS, letI, loop, ret(ident("s"))}, nil)
	mod := &ast.Module{Name: "scenario3", Items: []ast.Decl{fn}}
	return Scenario{
		Name:        "while-loop-accumulator",
		Description: "fn sum(n: int) -> int { let s = 0; let i = 0; while i < n { s = s + i; i = i + 1; } return s; }",
		Module:      mod,
	}
}

// throwingFunction: struct E {} ; fn f() -> int throws E { throw E{}; }
func throwingFunction() Scenario {
	errStruct := &ast.StructDecl{Name: "E"}
	fn := &ast.FunctionDecl{
		Name:   "f",
		Return: intType(),
		Throws: []*ast.TypeExpr{{Name: "E"}},
	}
	fn.Body = block([]ast.Stmt{&ast.ThrowStmt{ErrorType: "E"}}, nil)
	mod := &ast.Module{Name: "scenario4", Items: []ast.Decl{errStruct, fn}}
	return Scenario{
		Name:        "throwing-function",
		Description: "struct E {} fn f() -> int throws E { throw E{}; }",
		Module:      mod,
	}
}

// destructorOnScopeExit: struct Buf { /* __destroy */ } fn main() -> int { let d = Buf{}; return 0; }
//
// Lifecycle insertion (runDestructors) and the let-statement's slot type
// both read from checkresult.Result when one is attached; a nil checker
// has no structural substitute for "this struct has a destructor", so
// this scenario ships its own Check alongside the module, as several
// later fixtures also do for the facts they need.
func destructorOnScopeExit() Scenario {
	bufType := &ir.StructType{Name: "Buf"}
	bufStruct := &ast.StructDecl{Name: "Buf"}
	fn := &ast.FunctionDecl{
		Name:   "main",
		Return: intType(),
	}
	litExpr := &ast.StructLiteralExpr{TypeName: "Buf"}
	letD := &ast.LetStmt{Name: "d", Expr: litExpr}
	fn.Body = block([]ast.Stmt{letD, ret(intLit("0"))}, nil)
	mod := &ast.Module{Name: "scenario5", Items: []ast.Decl{bufStruct, fn}}

	check := checkresult.New()
	check.ExprTypes[litExpr] = bufType
	check.StructTypes["Buf"] = bufType
	check.Lifecycle["Buf"] = &checkresult.LifecycleInfo{HasDestroy: true}

	return Scenario{
		Name:        "destructor-on-scope-exit",
		Description: "struct Buf { __destroy } fn main() -> int { let d = Buf{}; return 0; }",
		Module:      mod,
		Check:       check,
	}
}

// taggedUnionSwitch: enum Shape { Circle(r: f64), Point }
// fn main() -> int { let s = Shape.Point; switch s { case Circle: return 1; case Point: return 2; } return 0; }
func taggedUnionSwitch() Scenario {
	shapeEnum := &ast.EnumDecl{
		Name: "Shape",
		Variants: []*ast.EnumVariant{
			{Name: "Circle", Fields: []*ast.StructField{{Name: "r", Type: &ast.TypeExpr{Name: "f64"}}}},
			{Name: "Point"},
		},
	}
	fn := &ast.FunctionDecl{Name: "main", Return: intType()}
	letS := &ast.LetStmt{Name: "s", Expr: &ast.EnumVariantExpr{EnumName: "Shape", VariantName: "Point"}}
	sw := &ast.SwitchExpr{
		Subject: ident("s"),
		Cases: []*ast.SwitchCase{
			{Labels: []string{"Circle"}, Body: block([]ast.Stmt{ret(intLit("1"))}, nil)},
			{Labels: []string{"Point"}, Body: block([]ast.Stmt{ret(intLit("2"))}, nil)},
		},
	}
	fn.Body = block([]ast.Stmt{letS, &ast.ExprStmt{Expr: sw}, ret(intLit("0"))}, nil)
	mod := &ast.Module{Name: "scenario6", Items: []ast.Decl{shapeEnum, fn}}
	return Scenario{
		Name:        "tagged-union-switch",
		Description: "enum Shape { Circle(r: f64), Point } fn main() -> int { let s = Shape.Point; switch s { ... } }",
		Module:      mod,
	}
}

// assertAndRequireChecks: fn validate(n: int) -> int { assert n > 0; require n < 100; return n; }
func assertAndRequireChecks() Scenario {
	fn := &ast.FunctionDecl{
		Name:   "validate",
		Return: intType(),
		Params: []*ast.FunctionParam{{Name: "n", Type: intType()}},
	}
	assertStmt := &ast.AssertStmt{Cond: &ast.BinaryExpr{Op: ">", Left: ident("n"), Right: intLit("0")}}
	requireStmt := &ast.RequireStmt{Cond: &ast.BinaryExpr{Op: "<", Left: ident("n"), Right: intLit("100")}}
	fn.Body = block([]ast.Stmt{assertStmt, requireStmt, ret(ident("n"))}, nil)
	mod := &ast.Module{Name: "scenario7", Items: []ast.Decl{fn}}
	return Scenario{
		Name:        "assert-and-require-checks",
		Description: "fn validate(n: int) -> int { assert n > 0; require n < 100; return n; }",
		Module:      mod,
	}
}

// boundsCheckedArrayIndex: fn first() -> int { let arr = [1, 2, 3]; return arr[0]; }
//
// A fixed-length array literal's resolved type has no structural fallback
// (inferType has no ArrayLiteralExpr case), so this fixture ships a
// Check purely to supply it.
func boundsCheckedArrayIndex() Scenario {
	fn := &ast.FunctionDecl{Name: "first", Return: intType()}
	arrLit := &ast.ArrayLiteralExpr{Elements: []ast.Expr{intLit("1"), intLit("2"), intLit("3")}}
	letArr := &ast.LetStmt{Name: "arr", Expr: arrLit}
	idx := &ast.IndexExpr{Target: ident("arr"), Index: intLit("0")}
	fn.Body = block([]ast.Stmt{letArr, ret(idx)}, nil)
	mod := &ast.Module{Name: "scenario8", Items: []ast.Decl{fn}}

	check := checkresult.New()
	arrType := &ir.ArrayType{Elem: &ir.IntType{Bits: 32, Signed: true}, Length: 3}
	check.ExprTypes[arrLit] = arrType

	return Scenario{
		Name:        "bounds-checked-array-index",
		Description: "fn first() -> int { let arr = [1, 2, 3]; return arr[0]; }",
		Module:      mod,
		Check:       check,
	}
}

// nullCheckOnMethodSelf: struct Counter { count: int } fn (Counter) get() -> int { return self.count; }
//
// self is resolved to a pointer receiver structurally (no Check needed):
// dereferencing it to read a field is exactly where a null_check belongs.
func nullCheckOnMethodSelf() Scenario {
	counter := &ast.StructDecl{
		Name:   "Counter",
		Fields: []*ast.StructField{{Name: "count", Type: intType()}},
	}
	getMethod := &ast.FunctionDecl{
		Name:     "get",
		Receiver: &ast.TypeExpr{Name: "Counter"},
		Return:   intType(),
	}
	getMethod.Body = block(nil, nil)
	getMethod.Body.Items = []ast.Stmt{ret(&ast.FieldAccessExpr{Target: ident("self"), Field: "count"})}
	counter.Methods = []*ast.FunctionDecl{getMethod}
	mod := &ast.Module{Name: "scenario9", Items: []ast.Decl{counter}}
	return Scenario{
		Name:        "null-check-on-method-self",
		Description: "struct Counter { count: int } fn (Counter) get() -> int { return self.count; }",
		Module:      mod,
	}
}

// structLifecycleOnReassignment: struct Buf { /* __destroy, __oncopy */ }
// fn main() -> int { let mut d = Buf{}; d = Buf{}; return 0; }
//
// Exercises both lifecycle paths in one scenario: the initial let binds
// through emitOnCopyIfNeeded, and the reassignment runs
// emitPreStoreDestroy on the old value before emitOnCopyIfNeeded runs
// again on the new one.
func structLifecycleOnReassignment() Scenario {
	bufType := &ir.StructType{Name: "Buf"}
	bufStruct := &ast.StructDecl{Name: "Buf"}
	fn := &ast.FunctionDecl{Name: "main", Return: intType()}
	initLit := &ast.StructLiteralExpr{TypeName: "Buf"}
	reassignLit := &ast.StructLiteralExpr{TypeName: "Buf"}
	letD := &ast.LetStmt{Name: "d", Mut: true, Expr: initLit}
	reassign := &ast.AssignStmt{Target: ident("d"), Operator: ast.ASSIGN, Value: reassignLit}
	fn.Body = block([]ast.Stmt{letD, reassign, ret(intLit("0"))}, nil)
	mod := &ast.Module{Name: "scenario10", Items: []ast.Decl{bufStruct, fn}}

	check := checkresult.New()
	check.ExprTypes[initLit] = bufType
	check.ExprTypes[reassignLit] = bufType
	check.StructTypes["Buf"] = bufType
	check.Lifecycle["Buf"] = &checkresult.LifecycleInfo{HasDestroy: true, HasOncopy: true}

	return Scenario{
		Name:        "struct-lifecycle-on-reassignment",
		Description: "struct Buf { __destroy, __oncopy } fn main() -> int { let mut d = Buf{}; d = Buf{}; return 0; }",
		Module:      mod,
		Check:       check,
	}
}

// catchPanicOnThrowingCall: struct E1 {}
// fn might_fail(bad: bool) -> int throws E1 { if bad { throw E1{}; } return 7; }
// fn use_panic(bad: bool) -> int { return might_fail(bad) catch panic; }
func catchPanicOnThrowingCall() Scenario {
	errStruct := &ast.StructDecl{Name: "E1"}
	mightFail := &ast.FunctionDecl{
		Name:   "might_fail",
		Return: intType(),
		Params: []*ast.FunctionParam{{Name: "bad", Type: boolType()}},
		Throws: []*ast.TypeExpr{{Name: "E1"}},
	}
	throwIf := &ast.IfExpr{
		Cond: ident("bad"),
		Then: block([]ast.Stmt{&ast.ThrowStmt{ErrorType: "E1"}}, nil),
	}
	mightFail.Body = block([]ast.Stmt{&ast.ExprStmt{Expr: throwIf}, ret(intLit("7"))}, nil)

	usePanic := &ast.FunctionDecl{
		Name:   "use_panic",
		Return: intType(),
		Params: []*ast.FunctionParam{{Name: "bad", Type: boolType()}},
	}
	callExpr := &ast.CallExpr{Callee: ident("might_fail"), Args: []ast.Expr{ident("bad")}}
	catchExpr := &ast.CatchExpr{Call: callExpr, Mode: ast.CatchPanic}
	usePanic.Body = block([]ast.Stmt{ret(catchExpr)}, nil)

	mod := &ast.Module{Name: "scenario11", Items: []ast.Decl{errStruct, mightFail, usePanic}}

	check := checkresult.New()
	check.Throws["might_fail"] = &checkresult.ThrowsInfo{
		ErrorTypes:     []string{"E1"},
		OriginalReturn: &ir.IntType{Bits: 32, Signed: true},
	}

	return Scenario{
		Name:        "catch-panic-on-throwing-call",
		Description: "fn might_fail(bad: bool) -> int throws E1 { ... } fn use_panic(bad: bool) -> int { return might_fail(bad) catch panic; }",
		Module:      mod,
		Check:       check,
	}
}

// catchThrowWithRemap: struct A {}; struct B {}
// fn risky() -> int throws A, B { throw B{}; }
// fn wrapper() -> int throws B, A { return risky() catch throw; }
//
// wrapper declares its throws clause in the opposite order from risky's,
// so sameThrowsOrder is false here and lowerCatchThrow must take the
// remap-switch path rather than re-emitting risky's tag directly.
func catchThrowWithRemap() Scenario {
	structA := &ast.StructDecl{Name: "A"}
	structB := &ast.StructDecl{Name: "B"}
	risky := &ast.FunctionDecl{
		Name:   "risky",
		Return: intType(),
		Throws: []*ast.TypeExpr{{Name: "A"}, {Name: "B"}},
	}
	risky.Body = block([]ast.Stmt{&ast.ThrowStmt{ErrorType: "B"}}, nil)

	wrapper := &ast.FunctionDecl{
		Name:   "wrapper",
		Return: intType(),
		Throws: []*ast.TypeExpr{{Name: "B"}, {Name: "A"}},
	}
	catchExpr := &ast.CatchExpr{Call: &ast.CallExpr{Callee: ident("risky")}, Mode: ast.CatchThrow}
	wrapper.Body = block([]ast.Stmt{ret(catchExpr)}, nil)

	mod := &ast.Module{Name: "scenario12", Items: []ast.Decl{structA, structB, risky, wrapper}}

	check := checkresult.New()
	check.Throws["risky"] = &checkresult.ThrowsInfo{
		ErrorTypes:     []string{"A", "B"},
		OriginalReturn: &ir.IntType{Bits: 32, Signed: true},
	}

	return Scenario{
		Name:        "catch-throw-with-remap",
		Description: "fn risky() -> int throws A, B { throw B{}; } fn wrapper() -> int throws B, A { return risky() catch throw; }",
		Module:      mod,
		Check:       check,
	}
}

// moveAndSizeof: fn transfer() -> int { let n = 10; let moved = move n; let width = sizeof(int); return moved + width; }
func moveAndSizeof() Scenario {
	fn := &ast.FunctionDecl{Name: "transfer", Return: intType()}
	letN := &ast.LetStmt{Name: "n", Expr: intLit("10")}
	letMoved := &ast.LetStmt{Name: "moved", Expr: &ast.MoveExpr{Value: ident("n")}}
	letWidth := &ast.LetStmt{Name: "width", Expr: &ast.SizeofExpr{Type: intType()}}
	result := &ast.BinaryExpr{Op: "+", Left: ident("moved"), Right: ident("width")}
	fn.Body = block([]ast.Stmt{letN, letMoved, letWidth, ret(result)}, nil)
	mod := &ast.Module{Name: "scenario13", Items: []ast.Decl{fn}}
	return Scenario{
		Name:        "move-and-sizeof",
		Description: "fn transfer() -> int { let n = 10; let moved = move n; let width = sizeof(int); return moved + width; }",
		Module:      mod,
	}
}

// nullLiteralComparison: fn check_null() -> int { let p = null; let q = null; if p == q { return 1; } return 0; }
func nullLiteralComparison() Scenario {
	fn := &ast.FunctionDecl{Name: "check_null", Return: intType()}
	pLit := &ast.LiteralExpr{Kind: ast.NULL_LITERAL}
	qLit := &ast.LiteralExpr{Kind: ast.NULL_LITERAL}
	letP := &ast.LetStmt{Name: "p", Expr: pLit}
	letQ := &ast.LetStmt{Name: "q", Expr: qLit}
	ifExpr := &ast.IfExpr{
		Cond: &ast.BinaryExpr{Op: "==", Left: ident("p"), Right: ident("q")},
		Then: block([]ast.Stmt{ret(intLit("1"))}, nil),
	}
	fn.Body = block([]ast.Stmt{letP, letQ, &ast.ExprStmt{Expr: ifExpr}, ret(intLit("0"))}, nil)
	mod := &ast.Module{Name: "scenario14", Items: []ast.Decl{fn}}

	check := checkresult.New()
	ptrType := &ir.PtrType{Elem: &ir.IntType{Bits: 32, Signed: true}}
	check.ExprTypes[pLit] = ptrType
	check.ExprTypes[qLit] = ptrType

	return Scenario{
		Name:        "null-literal-comparison",
		Description: "fn check_null() -> int { let p = null; let q = null; if p == q { return 1; } return 0; }",
		Module:      mod,
		Check:       check,
	}
}

// Package checkresult defines the boundary contract between the checker
// (out of scope here) and the lowerer. The checker type-checks a Module
// tree and hands back a Result alongside it; the lowerer treats the AST
// as read-only and looks up every piece of semantic information it
// needs — resolved types, call targets, throws sets, lifecycle hooks,
// name mangling decisions — through this Result instead of
// re-deriving it.
package checkresult

import (
	"keic/internal/ast"
	"keic/internal/ir"
)

// ThrowsInfo records a throwing function's declared error surface.
type ThrowsInfo struct {
	// ErrorTypes is the ordered set of struct names the function may
	// propagate, matching the order of its throws clause.
	ErrorTypes []string
	// OriginalReturn is the function's declared success type, before the
	// lowerer rewrites its signature to the out-param calling convention.
	OriginalReturn ir.Type
}

// LifecycleInfo records which lifecycle hooks a struct defines.
type LifecycleInfo struct {
	HasDestroy bool
	HasOncopy  bool
}

// ModuleInfo is the per-module slice of the checker's import/overload
// resolution used by name mangling.
type ModuleInfo struct {
	Prefix             string
	Imports            map[string]string // local name -> fully qualified name
	OverloadedFunctions map[string]bool
}

// Result is every piece of semantic information the checker computed
// that the lowerer needs but cannot recompute from syntax alone.
type Result struct {
	// ExprTypes maps every expression node to its resolved static type.
	ExprTypes map[ast.Expr]ir.Type

	// DeclaredTypes maps every TypeExpr to the ir.Type it resolves to.
	DeclaredTypes map[*ast.TypeExpr]ir.Type

	// CallTargets maps a CallExpr to the concrete (possibly mangled,
	// possibly monomorphized) function name to invoke.
	CallTargets map[*ast.CallExpr]string

	// OperatorMethods maps an IndexExpr (or other operator-sugar
	// expression) to the user-defined method name the checker selected
	// to implement it, when the target type overloads that operator.
	OperatorMethods map[ast.Expr]string

	// Throws maps a mangled function name to its throws info.
	Throws map[string]*ThrowsInfo

	// Lifecycle maps a struct name to its lifecycle hooks.
	Lifecycle map[string]*LifecycleInfo

	// Overloaded is the set of base function names with more than one
	// resolved overload (name mangling must disambiguate these).
	Overloaded map[string]bool

	// Modules maps a module name to its import/overload registry.
	Modules map[string]*ModuleInfo

	// StructTypes and EnumTypes hold the resolved nominal type
	// declarations by name, for lowering struct/enum layouts.
	StructTypes map[string]*ir.StructType
	EnumTypes   map[string]*ir.EnumType
}

// New returns an empty Result with every map initialized, ready for a
// checker (or, in tests, a hand-built fixture) to populate.
func New() *Result {
	return &Result{
		ExprTypes:       map[ast.Expr]ir.Type{},
		DeclaredTypes:   map[*ast.TypeExpr]ir.Type{},
		CallTargets:     map[*ast.CallExpr]string{},
		OperatorMethods: map[ast.Expr]string{},
		Throws:          map[string]*ThrowsInfo{},
		Lifecycle:       map[string]*LifecycleInfo{},
		Overloaded:      map[string]bool{},
		Modules:         map[string]*ModuleInfo{},
		StructTypes:     map[string]*ir.StructType{},
		EnumTypes:       map[string]*ir.EnumType{},
	}
}

// TypeOf looks up an expression's resolved type, panicking if the
// checker never recorded one: a missing entry means the checker/lowerer
// contract was violated upstream, not a condition the lowerer can
// recover from.
func (r *Result) TypeOf(e ast.Expr) ir.Type {
	t, ok := r.ExprTypes[e]
	if !ok {
		panic("checkresult: no resolved type for expression")
	}
	return t
}

// ThrowsOf reports the throws info for a mangled function name, if any.
func (r *Result) ThrowsOf(mangledName string) (*ThrowsInfo, bool) {
	info, ok := r.Throws[mangledName]
	return info, ok
}

// LifecycleOf reports the lifecycle hooks for a struct name.
func (r *Result) LifecycleOf(structName string) LifecycleInfo {
	if info, ok := r.Lifecycle[structName]; ok {
		return *info
	}
	return LifecycleInfo{}
}

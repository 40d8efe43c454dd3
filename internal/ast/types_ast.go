package ast

// TypeExpr is the surface spelling of a type as written by the
// programmer: a name plus optional generics, tuple elements, or an array
// suffix. The checker resolves each TypeExpr to an ir.Type and records
// that resolution in a CheckResult; the lowerer never guesses a type's
// representation from a TypeExpr alone.
type TypeExpr struct {
	NodeBase
	Name          string
	Generics      []*TypeExpr
	TupleElements []*TypeExpr
	ArrayElem     *TypeExpr
	ArrayLength   uint64 // valid only when ArrayElem != nil
}

func (*TypeExpr) NodeType() NodeType { return TYPE_EXPR }

// Module is one source module: a named group of declarations sharing an
// import prefix, mirroring the checker's per-module registry.
type Module struct {
	NodeBase
	Name  string
	Items []Decl
}

func (*Module) NodeType() NodeType { return MODULE_DECL }

// Decl is any module-level declaration.
type Decl interface {
	Node
	isDecl()
}

func (*UseDecl) isDecl()      {}
func (*StructDecl) isDecl()   {}
func (*EnumDecl) isDecl()     {}
func (*FunctionDecl) isDecl() {}
func (*StaticDecl) isDecl()   {}

// UseDecl imports names from another module.
type UseDecl struct {
	NodeBase
	Path  []string
	Names []string
}

func (*UseDecl) NodeType() NodeType { return USE_DECL }

// StaticDecl declares a module-level constant, lowered to a global
// initializer rather than a stack slot.
type StaticDecl struct {
	NodeBase
	Name  string
	Type  *TypeExpr
	Value Expr
}

func (*StaticDecl) NodeType() NodeType { return STATIC_DECL }

// StructField is one ordered field of a struct declaration.
type StructField struct {
	NodeBase
	Name string
	Type *TypeExpr
}

func (*StructField) NodeType() NodeType { return STRUCT_FIELD }

// StructDecl declares a nominal struct and, inline, its methods. Methods
// are ordinary FunctionDecls with Receiver set; the lowerer rewrites them
// to top-level functions named <struct>_<method> taking an explicit self
// pointer.
type StructDecl struct {
	NodeBase
	Name    string
	Fields  []*StructField
	Methods []*FunctionDecl
}

func (*StructDecl) NodeType() NodeType { return STRUCT_DECL }

// EnumVariant is one ordered variant of an enum declaration.
type EnumVariant struct {
	NodeBase
	Name        string
	Fields      []*StructField
	ExplicitTag *int
}

func (*EnumVariant) NodeType() NodeType { return ENUM_VARIANT }

// EnumDecl declares a nominal enum, scalar or tagged-union depending on
// whether any variant carries fields.
type EnumDecl struct {
	NodeBase
	Name     string
	Variants []*EnumVariant
}

func (*EnumDecl) NodeType() NodeType { return ENUM_DECL }

// FunctionParam is one ordered formal parameter.
type FunctionParam struct {
	NodeBase
	Name string
	Type *TypeExpr
}

func (*FunctionParam) NodeType() NodeType { return FUNCTION_PARAM }

// FunctionDecl declares a function or, when Receiver is non-nil, a
// method. Throws names the ordered set of error struct types the body
// may propagate via a throw statement or a propagating call.
type FunctionDecl struct {
	NodeBase
	Name       string
	Receiver   *TypeExpr // non-nil for methods; receiver is always a struct type
	Params     []*FunctionParam
	Return     *TypeExpr // nil means void
	Throws     []*TypeExpr
	External   bool
	Body       *Block
}

func (*FunctionDecl) NodeType() NodeType { return FUNCTION_DECL }

// IsMethod reports whether f was declared with a receiver.
func (f *FunctionDecl) IsMethod() bool { return f.Receiver != nil }

// CanThrow reports whether calling f may propagate one of Throws.
func (f *FunctionDecl) CanThrow() bool { return len(f.Throws) > 0 }

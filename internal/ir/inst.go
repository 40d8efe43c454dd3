package ir

import (
	"fmt"
	"strings"
)

// Inst is the closed sum of non-terminating IR instructions. Every
// concrete instruction exposes its destination (if any) and its operand
// list as addressable slots: mem2reg and de-SSA rewrite variable names
// in place by writing through the pointers Operands() returns, rather
// than each pass re-deriving its own copy-and-splice logic per
// instruction kind.
type Inst interface {
	fmt.Stringer
	isInst()
	// Dest returns a pointer to this instruction's destination VarId, or
	// nil if it has none (e.g. Store).
	Dest() *VarId
	// Operands returns pointers to every VarId this instruction reads.
	Operands() []*VarId
}

// StackAlloc reserves a stack slot large enough to hold a value of Type
// and yields a pointer to it. Every local variable and temporary whose
// address is taken starts life as a StackAlloc; mem2reg replaces the
// ones it can prove non-escaping with plain SSA values.
type StackAlloc struct {
	D    VarId
	Type Type
}

// Load reads the value stored at Addr.
type Load struct {
	D    VarId
	Addr VarId
	Type Type
}

// Store writes Value to the location Addr points to. It has no
// destination: it is a pure side effect.
type Store struct {
	Addr  VarId
	Value VarId
}

// FieldPtr computes a pointer to a named field of the struct (or, for a
// tagged-union enum, the "data.<Variant>.<field>" path) that Base points
// to, without dereferencing it.
type FieldPtr struct {
	D     VarId
	Base  VarId
	Field string
	Type  Type
}

// IndexPtr computes a pointer to element Index of the array Base
// points to.
type IndexPtr struct {
	D     VarId
	Base  VarId
	Index VarId
	Type  Type
}

// BinOp applies a binary operator to two values of the same type.
type BinOp struct {
	D     VarId
	Op    string
	Left  VarId
	Right VarId
	Type  Type
}

// UnOp applies a unary operator.
type UnOp struct {
	D     VarId
	Op    string
	Value VarId
	Type  Type
}

// ConstInt materializes a literal integer.
type ConstInt struct {
	D     VarId
	Value int64
	Type  Type
}

// ConstFloat materializes a literal float.
type ConstFloat struct {
	D     VarId
	Value float64
	Type  Type
}

// ConstBool materializes a literal bool.
type ConstBool struct {
	D     VarId
	Value bool
}

// ConstString materializes a literal string constant.
type ConstString struct {
	D     VarId
	Value string
}

// Call invokes Callee by name with Args, in source order. When Throws
// is set, the trailing entries of Args are the synthesized __out pointer
// (omitted when the callee's success type is void) and the __err pointer
// mandated by the throws calling convention; D
// is invalid (void) for calls whose only result is through __out.
type Call struct {
	D      VarId
	Callee string
	Args   []VarId
	Throws bool
	Type   Type // result type, VoidType if none
}

// CallExternVoid invokes a runtime-provided extern function (declared
// outside this module, e.g. the string/lifecycle helpers in the
// runtime interface) for its side effect only.
type CallExternVoid struct {
	Callee string
	Args   []VarId
}

// Cast converts Value to Type (numeric widen/narrow, or scalar-enum to
// integer); the source type is whatever Value was produced with.
type Cast struct {
	D     VarId
	Value VarId
	Type  Type
}

// Copy assigns Src to D without any computation. It is
// produced by de-SSA to implement parallel-copy sequencing (breaking
// cycles with a temporary) and by phi elimination (materializing an
// incoming value at the end of a predecessor block).
type Copy struct {
	D    VarId
	Src  VarId
	Type Type
}

// ConstNull materializes a null pointer value of Type (always a
// PtrType). Produced for the `null` literal.
type ConstNull struct {
	D    VarId
	Type Type
}

// Sizeof yields the byte size of Of. The mid-end never picks a
// concrete number for this: target layout (struct padding, pointer
// width) is the emitter's decision, so this instruction carries the
// queried type through unresolved.
type Sizeof struct {
	D  VarId
	Of Type
}

// BoundsCheck aborts at runtime if Index is outside [0, Length). It
// carries no destination: it is a pure side-effecting diagnostic,
// emitted immediately before the index_ptr it guards.
type BoundsCheck struct {
	Index  VarId
	Length VarId
}

// NullCheck aborts at runtime if Ptr is null. Emitted before a pointer
// value is dereferenced as the base of a field_ptr/index_ptr.
type NullCheck struct {
	Ptr VarId
}

// AssertCheck aborts at runtime with Message if Cond is false.
type AssertCheck struct {
	Cond    VarId
	Message VarId
}

// RequireCheck aborts at runtime with Message if Cond is false. It is
// identical in shape to AssertCheck; the two are kept distinct so the
// printer and the emitter can tell which surface-language keyword
// produced the check.
type RequireCheck struct {
	Cond    VarId
	Message VarId
}

// OverflowCheck aborts at runtime if evaluating Op on Left and Right
// would overflow Type. It accompanies (but never replaces) the BinOp
// that actually computes the result.
type OverflowCheck struct {
	Op    string
	Left  VarId
	Right VarId
	Type  Type
}

// Destroy invokes Value's __destroy lifecycle hook for StructName.
// Value is the address of the destroyed slot, matching how the
// lowerer already addresses every struct-typed local.
type Destroy struct {
	Value      VarId
	StructName string
}

// OnCopy invokes Value's __oncopy lifecycle hook for StructName,
// emitted immediately after a copy of a hook-bearing struct is stored
// into a new binding.
type OnCopy struct {
	Value      VarId
	StructName string
}

// Move transfers ownership of Source into D without invoking any
// lifecycle hook; the lowerer additionally suppresses destroy/oncopy
// on the identifier Source came from.
type Move struct {
	D      VarId
	Source VarId
	Type   Type
}

func (*StackAlloc) isInst()  {}
func (*Load) isInst()        {}
func (*Store) isInst()       {}
func (*FieldPtr) isInst()    {}
func (*IndexPtr) isInst()    {}
func (*BinOp) isInst()       {}
func (*UnOp) isInst()        {}
func (*ConstInt) isInst()    {}
func (*ConstFloat) isInst()  {}
func (*ConstBool) isInst()   {}
func (*ConstString) isInst() {}
func (*Call) isInst()           {}
func (*CallExternVoid) isInst() {}
func (*Cast) isInst()           {}
func (*Copy) isInst()           {}
func (*ConstNull) isInst()      {}
func (*Sizeof) isInst()         {}
func (*BoundsCheck) isInst()    {}
func (*NullCheck) isInst()      {}
func (*AssertCheck) isInst()    {}
func (*RequireCheck) isInst()   {}
func (*OverflowCheck) isInst()  {}
func (*Destroy) isInst()        {}
func (*OnCopy) isInst()         {}
func (*Move) isInst()           {}

func (i *StackAlloc) Dest() *VarId  { return &i.D }
func (i *Load) Dest() *VarId        { return &i.D }
func (i *Store) Dest() *VarId       { return nil }
func (i *FieldPtr) Dest() *VarId    { return &i.D }
func (i *IndexPtr) Dest() *VarId    { return &i.D }
func (i *BinOp) Dest() *VarId       { return &i.D }
func (i *UnOp) Dest() *VarId        { return &i.D }
func (i *ConstInt) Dest() *VarId    { return &i.D }
func (i *ConstFloat) Dest() *VarId  { return &i.D }
func (i *ConstBool) Dest() *VarId   { return &i.D }
func (i *ConstString) Dest() *VarId { return &i.D }
func (i *Call) Dest() *VarId {
	if !i.D.Valid() {
		return nil
	}
	return &i.D
}
func (i *CallExternVoid) Dest() *VarId { return nil }
func (i *Cast) Dest() *VarId           { return &i.D }
func (i *Copy) Dest() *VarId           { return &i.D }
func (i *ConstNull) Dest() *VarId      { return &i.D }
func (i *Sizeof) Dest() *VarId         { return &i.D }
func (i *BoundsCheck) Dest() *VarId    { return nil }
func (i *NullCheck) Dest() *VarId      { return nil }
func (i *AssertCheck) Dest() *VarId    { return nil }
func (i *RequireCheck) Dest() *VarId   { return nil }
func (i *OverflowCheck) Dest() *VarId  { return nil }
func (i *Destroy) Dest() *VarId        { return nil }
func (i *OnCopy) Dest() *VarId         { return nil }
func (i *Move) Dest() *VarId           { return &i.D }

func (i *StackAlloc) Operands() []*VarId { return nil }
func (i *Load) Operands() []*VarId       { return []*VarId{&i.Addr} }
func (i *Store) Operands() []*VarId      { return []*VarId{&i.Addr, &i.Value} }
func (i *FieldPtr) Operands() []*VarId   { return []*VarId{&i.Base} }
func (i *IndexPtr) Operands() []*VarId   { return []*VarId{&i.Base, &i.Index} }
func (i *BinOp) Operands() []*VarId      { return []*VarId{&i.Left, &i.Right} }
func (i *UnOp) Operands() []*VarId       { return []*VarId{&i.Value} }
func (i *ConstInt) Operands() []*VarId    { return nil }
func (i *ConstFloat) Operands() []*VarId  { return nil }
func (i *ConstBool) Operands() []*VarId   { return nil }
func (i *ConstString) Operands() []*VarId { return nil }
func (i *Call) Operands() []*VarId {
	ops := make([]*VarId, len(i.Args))
	for j := range i.Args {
		ops[j] = &i.Args[j]
	}
	return ops
}
func (i *CallExternVoid) Operands() []*VarId {
	ops := make([]*VarId, len(i.Args))
	for j := range i.Args {
		ops[j] = &i.Args[j]
	}
	return ops
}
func (i *Cast) Operands() []*VarId        { return []*VarId{&i.Value} }
func (i *Copy) Operands() []*VarId        { return []*VarId{&i.Src} }
func (i *ConstNull) Operands() []*VarId   { return nil }
func (i *Sizeof) Operands() []*VarId      { return nil }
func (i *BoundsCheck) Operands() []*VarId { return []*VarId{&i.Index, &i.Length} }
func (i *NullCheck) Operands() []*VarId   { return []*VarId{&i.Ptr} }
func (i *AssertCheck) Operands() []*VarId { return []*VarId{&i.Cond, &i.Message} }
func (i *RequireCheck) Operands() []*VarId {
	return []*VarId{&i.Cond, &i.Message}
}
func (i *OverflowCheck) Operands() []*VarId { return []*VarId{&i.Left, &i.Right} }
func (i *Destroy) Operands() []*VarId       { return []*VarId{&i.Value} }
func (i *OnCopy) Operands() []*VarId        { return []*VarId{&i.Value} }
func (i *Move) Operands() []*VarId          { return []*VarId{&i.Source} }

func (i *StackAlloc) String() string {
	return fmt.Sprintf("%s = stack_alloc %s", i.D, i.Type)
}
func (i *Load) String() string { return fmt.Sprintf("%s = load %s, %s", i.D, i.Type, i.Addr) }
func (i *Store) String() string { return fmt.Sprintf("store %s, %s", i.Addr, i.Value) }
func (i *FieldPtr) String() string {
	return fmt.Sprintf("%s = field_ptr %s, %q, %s", i.D, i.Base, i.Field, i.Type)
}
func (i *IndexPtr) String() string {
	return fmt.Sprintf("%s = index_ptr %s, %s, %s", i.D, i.Base, i.Index, i.Type)
}
func (i *BinOp) String() string {
	return fmt.Sprintf("%s = %s %s, %s, %s", i.D, i.Op, i.Type, i.Left, i.Right)
}
func (i *UnOp) String() string { return fmt.Sprintf("%s = %s %s, %s", i.D, i.Op, i.Type, i.Value) }
func (i *ConstInt) String() string {
	return fmt.Sprintf("%s = const_int %s, %d", i.D, i.Type, i.Value)
}
func (i *ConstFloat) String() string {
	return fmt.Sprintf("%s = const_float %s, %g", i.D, i.Type, i.Value)
}
func (i *ConstBool) String() string   { return fmt.Sprintf("%s = const_bool %t", i.D, i.Value) }
func (i *ConstString) String() string { return fmt.Sprintf("%s = const_string %q", i.D, i.Value) }
func (i *Call) String() string {
	args := make([]string, len(i.Args))
	for j, a := range i.Args {
		args[j] = a.String()
	}
	prefix := ""
	if i.D.Valid() {
		prefix = i.D.String() + " = "
	}
	tag := "call"
	if i.Throws {
		tag = "call_throws"
	}
	return fmt.Sprintf("%s%s %s(%s)", prefix, tag, i.Callee, strings.Join(args, ", "))
}
func (i *CallExternVoid) String() string {
	args := make([]string, len(i.Args))
	for j, a := range i.Args {
		args[j] = a.String()
	}
	return fmt.Sprintf("call_extern_void %s(%s)", i.Callee, strings.Join(args, ", "))
}
func (i *Cast) String() string { return fmt.Sprintf("%s = cast %s, %s", i.D, i.Type, i.Value) }
func (i *Copy) String() string { return fmt.Sprintf("%s = copy %s, %s", i.D, i.Type, i.Src) }
func (i *ConstNull) String() string {
	return fmt.Sprintf("%s = const_null %s", i.D, i.Type)
}
func (i *Sizeof) String() string { return fmt.Sprintf("%s = sizeof %s", i.D, i.Of) }
func (i *BoundsCheck) String() string {
	return fmt.Sprintf("bounds_check %s, %s", i.Index, i.Length)
}
func (i *NullCheck) String() string { return fmt.Sprintf("null_check %s", i.Ptr) }
func (i *AssertCheck) String() string {
	return fmt.Sprintf("assert_check %s, %s", i.Cond, i.Message)
}
func (i *RequireCheck) String() string {
	return fmt.Sprintf("require_check %s, %s", i.Cond, i.Message)
}
func (i *OverflowCheck) String() string {
	return fmt.Sprintf("overflow_check %s %s, %s, %s", i.Op, i.Type, i.Left, i.Right)
}
func (i *Destroy) String() string {
	return fmt.Sprintf("destroy value=%s struct_name=%q", i.Value, i.StructName)
}
func (i *OnCopy) String() string {
	return fmt.Sprintf("oncopy value=%s struct_name=%q", i.Value, i.StructName)
}
func (i *Move) String() string { return fmt.Sprintf("%s = move %s, %s", i.D, i.Type, i.Source) }

// Package ir defines the typed, SSA-form intermediate representation that
// sits between the checked AST and the final emitter. Everything in this
// package is a closed sum: adding a new IrType, IrInst, or Terminator kind
// means touching every switch in this package plus giving the new kind
// the Dest()/Operands() methods through which mem2reg and dessa rewrite
// operands.
package ir

import "fmt"

// Type is the closed sum of IR types. Every concrete type below implements
// it; a type switch over Type is expected to be exhaustive everywhere the
// IR is interpreted.
type Type interface {
	fmt.Stringer
	isIrType()
}

// IntType is a fixed-width integer. Bits is restricted to 8/16/32/64.
type IntType struct {
	Bits   int
	Signed bool
}

// FloatType is an IEEE-754 float, Bits restricted to 32/64.
type FloatType struct {
	Bits int
}

type BoolType struct{}
type VoidType struct{}

// StringType is opaque to the IR; the runtime owns its representation.
type StringType struct{}

// PtrType is a typed pointer.
type PtrType struct {
	Elem Type
}

// Field is one ordered (name, type) pair; declaration order is load-bearing
// since addresses (field_ptr offsets) depend on it.
type Field struct {
	Name string
	Type Type
}

// StructType is a nominal struct with ordered fields.
type StructType struct {
	Name   string
	Fields []Field
}

// Variant is one ordered enum variant; ExplicitTag is nil when the
// variant's discriminant is its declaration index.
type Variant struct {
	Name        string
	Fields      []Field
	ExplicitTag *int
}

// EnumType is a nominal enum. When any variant carries fields it is a
// tagged union (see TaggedUnionLayout); otherwise it is a scalar enum
// represented directly as its discriminant type.
type EnumType struct {
	Name     string
	Variants []Variant
}

// IsTaggedUnion reports whether any variant of e carries fields.
func (e *EnumType) IsTaggedUnion() bool {
	for _, v := range e.Variants {
		if len(v.Fields) > 0 {
			return true
		}
	}
	return false
}

// Discriminant returns the tag value for the named variant: its explicit
// discriminant if given, else its declaration index.
func (e *EnumType) Discriminant(variant string) (int, bool) {
	for i, v := range e.Variants {
		if v.Name == variant {
			if v.ExplicitTag != nil {
				return *v.ExplicitTag, true
			}
			return i, true
		}
	}
	return 0, false
}

// Variant looks up a variant by name.
func (e *EnumType) Variant(name string) (Variant, bool) {
	for _, v := range e.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}

// ScalarDiscriminantType is the representation of a scalar (fieldless)
// enum: a plain tag.
func ScalarDiscriminantType() Type { return &IntType{Bits: 32, Signed: true} }

// TagType is the type of a tagged union's tag field.
func TagType() Type { return &IntType{Bits: 32, Signed: true} }

// ArrayType is a fixed-length array.
type ArrayType struct {
	Elem   Type
	Length uint64
}

// FuncType describes a function's signature as a value type (used for
// function-typed parameters/fields; the IR otherwise calls functions by
// name, not by value).
type FuncType struct {
	Params []Type
	Return Type
}

func (*IntType) isIrType()    {}
func (*FloatType) isIrType()  {}
func (*BoolType) isIrType()   {}
func (*VoidType) isIrType()   {}
func (*StringType) isIrType() {}
func (*PtrType) isIrType()    {}
func (*StructType) isIrType() {}
func (*EnumType) isIrType()   {}
func (*ArrayType) isIrType()  {}
func (*FuncType) isIrType()   {}

func (t *IntType) String() string {
	if t.Signed {
		return fmt.Sprintf("i%d", t.Bits)
	}
	return fmt.Sprintf("u%d", t.Bits)
}
func (t *FloatType) String() string  { return fmt.Sprintf("f%d", t.Bits) }
func (*BoolType) String() string     { return "bool" }
func (*VoidType) String() string     { return "void" }
func (*StringType) String() string   { return "string" }
func (t *PtrType) String() string    { return fmt.Sprintf("ptr<%s>", t.Elem.String()) }
func (t *StructType) String() string { return t.Name }
func (t *EnumType) String() string   { return t.Name }
func (t *ArrayType) String() string  { return fmt.Sprintf("array<%s,%d>", t.Elem.String(), t.Length) }
func (t *FuncType) String() string {
	s := "fn("
	for i, p := range t.Params {
		if i > 0 {
			s += ","
		}
		s += p.String()
	}
	s += "):"
	if t.Return != nil {
		s += t.Return.String()
	} else {
		s += "void"
	}
	return s
}

// TypesEqual performs a structural comparison of two IR types. Nominal
// types (struct/enum) compare by name only: the lowerer never produces two
// distinct declarations sharing a name.
func TypesEqual(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch x := a.(type) {
	case *IntType:
		y, ok := b.(*IntType)
		return ok && x.Bits == y.Bits && x.Signed == y.Signed
	case *FloatType:
		y, ok := b.(*FloatType)
		return ok && x.Bits == y.Bits
	case *BoolType:
		_, ok := b.(*BoolType)
		return ok
	case *VoidType:
		_, ok := b.(*VoidType)
		return ok
	case *StringType:
		_, ok := b.(*StringType)
		return ok
	case *PtrType:
		y, ok := b.(*PtrType)
		return ok && TypesEqual(x.Elem, y.Elem)
	case *StructType:
		y, ok := b.(*StructType)
		return ok && x.Name == y.Name
	case *EnumType:
		y, ok := b.(*EnumType)
		return ok && x.Name == y.Name
	case *ArrayType:
		y, ok := b.(*ArrayType)
		return ok && x.Length == y.Length && TypesEqual(x.Elem, y.Elem)
	case *FuncType:
		y, ok := b.(*FuncType)
		if !ok || len(x.Params) != len(y.Params) || !TypesEqual(x.Return, y.Return) {
			return false
		}
		for i := range x.Params {
			if !TypesEqual(x.Params[i], y.Params[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// TaggedUnionFieldPath returns the literal field_ptr path for field
// fieldName of variant in a tagged-union enum, e.g. "data.Circle.r".
func TaggedUnionFieldPath(variant, fieldName string) string {
	return fmt.Sprintf("data.%s.%s", variant, fieldName)
}

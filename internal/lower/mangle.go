package lower

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"

	"keic/internal/ast"
	"keic/internal/ir"
)

// mangle computes a function's emitted symbol name. Methods become
// "<Struct>_<method>"; overloaded free functions (per the checker's
// Overloaded set) get their parameter types appended so two overloads
// never collide; everything else keeps its source name, snake_cased to
// match the runtime's own naming (kei_panic, kei_string_destroy, ...).
func mangle(fn *ast.FunctionDecl, moduleName string, overloaded bool) string {
	name := strcase.ToSnake(fn.Name)
	if fn.IsMethod() {
		name = strcase.ToSnake(fn.Receiver.Name) + "_" + name
	}
	if overloaded {
		parts := make([]string, len(fn.Params))
		for i, p := range fn.Params {
			parts[i] = mangleType(p.Type)
		}
		name = fmt.Sprintf("%s__%s", name, strings.Join(parts, "_"))
	}
	return name
}

func mangleType(t *ast.TypeExpr) string {
	if t == nil {
		return "void"
	}
	if t.ArrayElem != nil {
		return fmt.Sprintf("array%d%s", t.ArrayLength, mangleType(t.ArrayElem))
	}
	if len(t.TupleElements) > 0 {
		parts := make([]string, len(t.TupleElements))
		for i, e := range t.TupleElements {
			parts[i] = mangleType(e)
		}
		return "tuple_" + strings.Join(parts, "_")
	}
	base := strings.ToLower(t.Name)
	if len(t.Generics) == 0 {
		return base
	}
	parts := make([]string, len(t.Generics))
	for i, g := range t.Generics {
		parts[i] = mangleType(g)
	}
	return base + "_" + strings.Join(parts, "_")
}

// errorEnumName is the synthesized tagged-union enum that unions a
// throwing function's declared error types, used as the pointee of its
// __err out parameter.
func errorEnumName(mangledFunc string) string {
	return mangledFunc + "__Error"
}

// synthesizeErrorEnum builds the tagged-union type backing a throwing
// function's error channel: variant 0 is always "Ok" (carries nothing;
// tag 0 means the call succeeded), and variant i+1 is the i'th declared
// throws type, carrying that struct's fields.
func synthesizeErrorEnum(mangledFunc string, throwsTypes []string, structs map[string]*ir.StructType) *ir.EnumType {
	variants := make([]ir.Variant, 0, len(throwsTypes)+1)
	variants = append(variants, ir.Variant{Name: "Ok"})
	for _, name := range throwsTypes {
		fields := []ir.Field(nil)
		if st, ok := structs[name]; ok {
			fields = st.Fields
		}
		variants = append(variants, ir.Variant{Name: name, Fields: fields})
	}
	return &ir.EnumType{Name: errorEnumName(mangledFunc), Variants: variants}
}

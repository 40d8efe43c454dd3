package ir

import "fmt"

// VarId is an opaque SSA value name, unique within a function. The zero
// value is reserved as "no value" (used by instructions with no
// destination, such as store and the terminators).
type VarId int

func (v VarId) String() string { return fmt.Sprintf("%%%d", int(v)) }

// Valid reports whether v names an actual value rather than the
// "no destination" sentinel.
func (v VarId) Valid() bool { return v != 0 }

// BlockId names a basic block, unique within a function. Blocks are
// named by role, with a per-function counter appended when that name is
// already taken, e.g. "entry", "if.then", "if.then.7", so a reader can
// tell a block's origin from its name alone.
type BlockId string

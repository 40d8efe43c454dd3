package ir

// Block is a basic block: a maximal straight-line instruction sequence
// ending in exactly one terminator. Phis are kept separate from Insts
// (rather than as ordinary entries at the front of it) so every pass
// can rely on "phis, then instructions, then one terminator" without
// re-deriving that order from a type switch each time.
type Block struct {
	ID     BlockId
	Phis   []*Phi
	Insts  []Inst
	Term   Term
	Sealed bool // all predecessors known; set once control flow is fully built
}

func NewBlock(id BlockId) *Block {
	return &Block{ID: id}
}

// AllInsts returns phis and ordinary instructions together, phis first,
// for callers that want to walk every value-producing instruction in a
// block without caring which list it came from.
func (b *Block) AllInsts() []Inst {
	out := make([]Inst, 0, len(b.Phis)+len(b.Insts))
	for _, p := range b.Phis {
		out = append(out, p)
	}
	out = append(out, b.Insts...)
	return out
}

// Function is one lowered function: an ordered list of blocks with a
// distinguished entry, plus the signature the checker resolved after
// name mangling and throws-protocol rewriting.
type Function struct {
	Name       string
	Params     []Param
	ReturnType Type // VoidType if none
	Entry      BlockId
	Blocks     map[BlockId]*Block
	// BlockOrder preserves the order blocks were created in, which the
	// printer and every pass that wants deterministic output iterate in
	// preference to ranging over the Blocks map.
	BlockOrder []BlockId

	nextValue VarId
	nextBlock int
}

// Param is one formal parameter of a lowered function, already through
// the throws-protocol and self-receiver rewrites.
type Param struct {
	Name string
	Type Type
	Val  VarId
}

func NewFunction(name string, ret Type) *Function {
	return &Function{
		Name:       name,
		ReturnType: ret,
		Blocks:     map[BlockId]*Block{},
	}
}

// FreshValue allocates a new, function-unique VarId.
func (f *Function) FreshValue() VarId {
	f.nextValue++
	return f.nextValue
}

// NewBlockNamed creates and registers a new block. The first block of a
// role is named by the bare role (e.g. "if.then"); a later one whose name
// is already taken, or any later "entry", is named "<role>.<n>" where n
// is a per-function counter, guaranteeing uniqueness even when the same
// role string is requested repeatedly (e.g. two "if.then" blocks from two
// different if-expressions).
func (f *Function) NewBlockNamed(role string) *Block {
	f.nextBlock++
	id := BlockId(role)
	if _, exists := f.Blocks[id]; exists || role == "entry" && f.nextBlock > 1 {
		id = BlockId(role + "." + itoa(f.nextBlock))
	}
	b := NewBlock(id)
	f.Blocks[id] = b
	f.BlockOrder = append(f.BlockOrder, id)
	return b
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Block looks up a block by ID, panicking if it does not exist: every
// BlockId the lowerer or a pass hands out is expected to resolve.
func (f *Function) Block(id BlockId) *Block {
	b, ok := f.Blocks[id]
	if !ok {
		panic("ir: unknown block " + string(id))
	}
	return b
}

// Module is a whole compilation unit's worth of lowered functions plus
// the nominal struct/enum declarations they reference.
type Module struct {
	Name      string
	Functions []*Function
	Structs   map[string]*StructType
	Enums     map[string]*EnumType
}

func NewModule(name string) *Module {
	return &Module{
		Name:    name,
		Structs: map[string]*StructType{},
		Enums:   map[string]*EnumType{},
	}
}

package errors

// Error codes for the mid-end verifier.
//
// The checker that produces the typed AST this package's lowerer
// consumes is out of scope here and is assumed to have already
// rejected anything a source-level diagnostic would name (undefined
// variables, type mismatches, and so on). What's left to diagnose is
// IR well-formedness: the internal contract between lowering, mem2reg,
// and de-SSA. These codes classify violations of that contract.
//
// Error code ranges:
// V0001-V0099: IR structural well-formedness (blocks, terminators, jumps)
// V0100-V0199: SSA well-formedness (phi predecessors, dominance)
// V0200-V0299: Lowering-contract violations (throws protocol, lifecycle)

const (
	// V0001: a block has no terminator
	ErrorUnterminatedBlock = "V0001"

	// V0002: a terminator names a block that does not exist in the function
	ErrorUnknownJumpTarget = "V0002"

	// V0003: a function has no blocks, or its entry block is unset
	ErrorEmptyFunction = "V0003"

	// V0004: two blocks in the same function share an id
	ErrorDuplicateBlockID = "V0004"

	// V0101: a phi's incoming edges don't match its block's actual predecessors
	ErrorPhiPredecessorMismatch = "V0101"

	// V0102: a phi appears after a non-phi instruction in a block
	ErrorPhiNotLeading = "V0102"

	// V0201: a throwing function's synthesized error enum is missing
	ErrorMissingErrorEnum = "V0201"

	// V0202: a throwing function's __err parameter is absent
	ErrorMissingErrOutParam = "V0202"

	// Warning codes

	// W0001: a stack_alloc is never loaded or stored through (dead local)
	WarningUnusedAlloca = "W0001"
)

// GetErrorDescription returns a human-readable description of the error code.
func GetErrorDescription(code string) string {
	switch code {
	case ErrorUnterminatedBlock:
		return "basic block falls off the end without a terminator"
	case ErrorUnknownJumpTarget:
		return "terminator references a block id with no definition"
	case ErrorEmptyFunction:
		return "function has no reachable entry block"
	case ErrorDuplicateBlockID:
		return "two blocks in the same function share an id"
	case ErrorPhiPredecessorMismatch:
		return "phi incoming edges do not match the block's predecessor set"
	case ErrorPhiNotLeading:
		return "phi instruction does not appear before ordinary instructions"
	case ErrorMissingErrorEnum:
		return "throwing function has no synthesized error enum registered"
	case ErrorMissingErrOutParam:
		return "throwing function is missing its __err out-parameter"
	case WarningUnusedAlloca:
		return "stack slot is allocated but never loaded or stored"
	default:
		return "unknown diagnostic code"
	}
}

// IsWarning reports whether code represents a warning rather than an error.
func IsWarning(code string) bool {
	return len(code) > 0 && code[0] == 'W'
}

// GetErrorCategory returns the category of the error based on its code.
func GetErrorCategory(code string) string {
	switch {
	case code >= "V0001" && code < "V0100":
		return "IR structure"
	case code >= "V0100" && code < "V0200":
		return "SSA form"
	case code >= "V0200" && code < "V0300":
		return "Lowering contract"
	case len(code) > 0 && code[0] == 'W':
		return "Warning"
	default:
		return "Unknown"
	}
}

package errors

import (
	"fmt"

	"keic/internal/ast"
)

// VerifyErrorBuilder provides a fluent interface for attaching notes and
// help text to a structural diagnostic.
type VerifyErrorBuilder struct {
	err CompilerError
}

// NewVerifyError starts a new error-level diagnostic.
func NewVerifyError(code, message string, pos ast.Position) *VerifyErrorBuilder {
	return &VerifyErrorBuilder{
		err: CompilerError{Level: Error, Code: code, Message: message, Position: pos, Length: 1},
	}
}

// NewVerifyWarning starts a new warning-level diagnostic.
func NewVerifyWarning(code, message string, pos ast.Position) *VerifyErrorBuilder {
	return &VerifyErrorBuilder{
		err: CompilerError{Level: Warning, Code: code, Message: message, Position: pos, Length: 1},
	}
}

func (b *VerifyErrorBuilder) WithNote(note string) *VerifyErrorBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

func (b *VerifyErrorBuilder) WithHelp(help string) *VerifyErrorBuilder {
	b.err.HelpText = help
	return b
}

func (b *VerifyErrorBuilder) Build() CompilerError {
	return b.err
}

// Common structural diagnostics raised by internal/verify.

// UnterminatedBlock reports a block that falls off its instruction list
// without a terminator.
func UnterminatedBlock(funcName string, blockID string) CompilerError {
	return NewVerifyError(ErrorUnterminatedBlock,
		fmt.Sprintf("block %q in function %q has no terminator", blockID, funcName), ast.Position{}).
		WithNote("every basic block must end in exactly one of ret/ret_void/jump/br/switch/unreachable").
		Build()
}

// UnknownJumpTarget reports a terminator naming a block the function
// never defined. candidates is the function's full block-id set, used to
// suggest a likely typo'd target.
func UnknownJumpTarget(funcName, from, target string, candidates []string) CompilerError {
	b := NewVerifyError(ErrorUnknownJumpTarget,
		fmt.Sprintf("block %q in function %q jumps to undefined block %q", from, funcName, target), ast.Position{})
	if similar := findSimilarNames(target, candidates); len(similar) > 0 {
		b = b.WithNote(fmt.Sprintf("did you mean one of: %s?", joinQuoted(similar)))
	}
	return b.Build()
}

func joinQuoted(names []string) string {
	s := ""
	for i, n := range names {
		if i > 0 {
			s += ", "
		}
		s += "'" + n + "'"
	}
	return s
}

// findSimilarNames returns every candidate within Levenshtein distance 2
// of target, excluding trivially short matches that would fire on almost
// anything.
func findSimilarNames(target string, candidates []string) []string {
	var similar []string
	for _, c := range candidates {
		if levenshteinDistance(target, c) <= 2 && len(c) > 2 {
			similar = append(similar, c)
		}
	}
	return similar
}

// levenshteinDistance computes the classic edit distance between a and b.
func levenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			min := del
			if ins < min {
				min = ins
			}
			if sub < min {
				min = sub
			}
			cur[j] = min
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

// EmptyFunction reports a function with no entry block.
func EmptyFunction(funcName string) CompilerError {
	return NewVerifyError(ErrorEmptyFunction,
		fmt.Sprintf("function %q has no entry block", funcName), ast.Position{}).
		Build()
}

// DuplicateBlockID reports two blocks sharing an id within one function.
func DuplicateBlockID(funcName, blockID string) CompilerError {
	return NewVerifyError(ErrorDuplicateBlockID,
		fmt.Sprintf("function %q declares block %q more than once", funcName, blockID), ast.Position{}).
		Build()
}

// PhiPredecessorMismatch reports a phi whose incoming edge set doesn't
// match the block's actual CFG predecessors.
func PhiPredecessorMismatch(funcName, blockID string, missing, extra []string) CompilerError {
	b := NewVerifyError(ErrorPhiPredecessorMismatch,
		fmt.Sprintf("phi in block %q of function %q does not match its predecessor set", blockID, funcName), ast.Position{})
	for _, m := range missing {
		b = b.WithNote(fmt.Sprintf("missing incoming edge from predecessor %q", m))
	}
	for _, e := range extra {
		b = b.WithNote(fmt.Sprintf("incoming edge names %q, which is not a predecessor", e))
	}
	return b.Build()
}

// PhiNotLeading reports a phi instruction found after a non-phi
// instruction in the same block.
func PhiNotLeading(funcName, blockID string) CompilerError {
	return NewVerifyError(ErrorPhiNotLeading,
		fmt.Sprintf("block %q in function %q has a phi after a non-phi instruction", blockID, funcName), ast.Position{}).
		WithHelp("phis must be hoisted to the head of the block").
		Build()
}

// MissingErrorEnum reports a throwing function whose synthesized error
// enum was never registered in the module.
func MissingErrorEnum(funcName, enumName string) CompilerError {
	return NewVerifyError(ErrorMissingErrorEnum,
		fmt.Sprintf("function %q throws but its error enum %q is not registered", funcName, enumName), ast.Position{}).
		Build()
}

// MissingErrOutParam reports a throwing function missing its __err
// out-parameter.
func MissingErrOutParam(funcName string) CompilerError {
	return NewVerifyError(ErrorMissingErrOutParam,
		fmt.Sprintf("function %q throws but declares no __err parameter", funcName), ast.Position{}).
		Build()
}

// UnusedAlloca warns about a stack slot that is allocated but never read
// or written, usually a sign of dead lowering output.
func UnusedAlloca(funcName, varID string) CompilerError {
	return NewVerifyWarning(WarningUnusedAlloca,
		fmt.Sprintf("%s in function %q is allocated but never loaded or stored", varID, funcName), ast.Position{}).
		Build()
}

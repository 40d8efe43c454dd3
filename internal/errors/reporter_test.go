package errors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"keic/internal/ast"
)

func TestErrorReporterFormatsUnterminatedBlock(t *testing.T) {
	reporter := NewErrorReporter("<ir>", "")

	err := UnterminatedBlock("counter_increment", "if.then.1")
	formatted := reporter.FormatError(err)

	assert.Contains(t, formatted, "error["+ErrorUnterminatedBlock+"]")
	assert.Contains(t, formatted, "if.then.1")
	assert.Contains(t, formatted, "counter_increment")
	assert.Contains(t, formatted, "note: every basic block must end in exactly one of")
}

func TestUnknownJumpTargetSuggestsSimilarBlock(t *testing.T) {
	err := UnknownJumpTarget("counter_increment", "while.cond.0", "while.exit.1",
		[]string{"while.exit.0", "while.body.0", "entry"})

	assert.Equal(t, ErrorUnknownJumpTarget, err.Code)
	assert.Contains(t, err.Message, "while.exit.1")
	assert.Len(t, err.Notes, 1)
	assert.Contains(t, err.Notes[0], "while.exit.0")
}

func TestPhiPredecessorMismatchListsBothSides(t *testing.T) {
	err := PhiPredecessorMismatch("max", "if.join.0",
		[]string{"if.else.0"}, []string{"if.then.1"})

	assert.Equal(t, ErrorPhiPredecessorMismatch, err.Code)
	assert.Len(t, err.Notes, 2)
	assert.Contains(t, err.Notes[0], "missing incoming edge from predecessor \"if.else.0\"")
	assert.Contains(t, err.Notes[1], "\"if.then.1\", which is not a predecessor")
}

func TestMissingErrOutParamIsAnError(t *testing.T) {
	err := MissingErrOutParam("account_withdraw")
	assert.Equal(t, Error, err.Level)
	assert.False(t, IsWarning(err.Code))
}

func TestUnusedAllocaIsAWarning(t *testing.T) {
	err := UnusedAlloca("account_withdraw", "%7")
	assert.Equal(t, Warning, err.Level)
	assert.True(t, IsWarning(err.Code))

	reporter := NewErrorReporter("<ir>", "")
	formatted := reporter.FormatError(err)
	assert.Contains(t, formatted, "warning["+WarningUnusedAlloca+"]")
}

func TestErrorCategoryRanges(t *testing.T) {
	assert.Equal(t, "IR structure", GetErrorCategory(ErrorUnterminatedBlock))
	assert.Equal(t, "SSA form", GetErrorCategory(ErrorPhiPredecessorMismatch))
	assert.Equal(t, "Lowering contract", GetErrorCategory(ErrorMissingErrorEnum))
	assert.Equal(t, "Warning", GetErrorCategory(WarningUnusedAlloca))
}

func TestErrorMarkerCreation(t *testing.T) {
	source := `let variable = value;`
	reporter := NewErrorReporter("test.ka", source)

	marker := reporter.createMarker(5, 8, Error) // "variable" is 8 chars at column 5

	spaces := strings.Count(marker, " ")
	assert.Equal(t, 4, spaces) // column 5 means 4 spaces before
	carets := strings.Count(marker, "^")
	assert.Equal(t, 8, carets) // 8 character length
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("hello", "hello"))
	assert.Equal(t, 1, levenshteinDistance("hello", "hallo"))
	assert.Equal(t, 1, levenshteinDistance("hello", "helo"))
	assert.Equal(t, 5, levenshteinDistance("hello", ""))
	assert.Equal(t, 3, levenshteinDistance("kitten", "sitting"))
}

func TestSimilarNameFinding(t *testing.T) {
	candidates := []string{"while.exit.0", "while.body.0", "while.cond.0", "xyz"}

	similar := findSimilarNames("while.exit.1", candidates)
	assert.Contains(t, similar, "while.exit.0")
	assert.NotContains(t, similar, "xyz")

	similar = findSimilarNames("completely.different.block", candidates)
	assert.Empty(t, similar)
}

func TestErrorLevels(t *testing.T) {
	reporter := NewErrorReporter("test.ka", "test")
	pos := ast.Position{Line: 1, Column: 1}

	errorErr := CompilerError{Level: Error, Message: "test error", Position: pos}
	warningErr := CompilerError{Level: Warning, Message: "test warning", Position: pos}

	errorFormatted := reporter.FormatError(errorErr)
	warningFormatted := reporter.FormatError(warningErr)

	assert.Contains(t, errorFormatted, "error:")
	assert.Contains(t, warningFormatted, "warning:")
}

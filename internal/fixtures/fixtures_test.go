package fixtures

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"keic/internal/dessa"
	"keic/internal/lower"
	"keic/internal/mem2reg"
	"keic/internal/verify"
)

// TestScenariosSurviveTheFullPipeline drives every scenario through
// lowering, mem2reg, and de-SSA, verifying structural well-formedness
// after each stage. This is the same sequence cmd/keic runs; keeping it
// here as a test means the CLI and the test suite can never silently
// drift apart on what "a correct scenario" looks like.
func TestScenariosSurviveTheFullPipeline(t *testing.T) {
	for _, s := range All() {
		s := s
		t.Run(s.Name, func(t *testing.T) {
			l := lower.New(s.Check)
			mod := l.Lower(s.Module)
			assert.Empty(t, verify.Module(mod), "lowering output must already be well-formed")

			for _, fn := range mod.Functions {
				mem2reg.Promote(fn)
			}
			assert.Empty(t, verify.Module(mod), "mem2reg must preserve well-formedness")

			for _, fn := range mod.Functions {
				dessa.Destruct(fn)
			}
			assert.Empty(t, verify.Module(mod), "de-SSA must preserve well-formedness")

			for _, fn := range mod.Functions {
				for _, id := range fn.BlockOrder {
					assert.Empty(t, fn.Block(id).Phis, "no phi should survive de-SSA")
				}
			}
		})
	}
}

func TestAllReturnsDistinctlyNamedScenarios(t *testing.T) {
	all := All()
	names := map[string]bool{}
	for _, s := range all {
		assert.False(t, names[s.Name], "duplicate scenario name %q", s.Name)
		names[s.Name] = true
		assert.NotEmpty(t, s.Description)
		assert.NotNil(t, s.Module)
	}
	assert.Len(t, names, len(all))
}

func TestWhileLoopAccumulatorPromotesBothLocals(t *testing.T) {
	var scenario Scenario
	for _, s := range All() {
		if s.Name == "while-loop-accumulator" {
			scenario = s
		}
	}
	l := lower.New(scenario.Check)
	mod := l.Lower(scenario.Module)
	for _, fn := range mod.Functions {
		mem2reg.Promote(fn)
	}

	fn := mod.Functions[0]
	hasPhiSomewhere := false
	for _, id := range fn.BlockOrder {
		if len(fn.Block(id).Phis) > 0 {
			hasPhiSomewhere = true
		}
	}
	assert.True(t, hasPhiSomewhere, "the loop header should gain phis for s and i")
}

package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"

	"keic/internal/dessa"
	"keic/internal/errors"
	"keic/internal/fixtures"
	"keic/internal/ir"
	"keic/internal/lower"
	"keic/internal/mem2reg"
	"keic/internal/verify"
)

// keic has no front end attached (parsing and type checking are out of
// scope): it drives one of the hand-built fixtures in internal/fixtures
// through lowering, mem2reg, and de-SSA, printing the module after each
// stage and stopping at the first stage whose verify pass reports an
// error.
func main() {
	if len(os.Args) >= 2 && (os.Args[1] == "-l" || os.Args[1] == "--list") {
		listScenarios()
		return
	}

	scenarios := fixtures.All()
	if len(os.Args) >= 2 {
		name := os.Args[1]
		found := false
		for _, s := range scenarios {
			if s.Name == name {
				scenarios, found = []fixtures.Scenario{s}, true
				break
			}
		}
		if !found {
			color.Red("❌ no such scenario %q (run with --list to see available scenarios)", name)
			os.Exit(1)
		}
	}

	for _, s := range scenarios {
		runScenario(s)
	}
}

func listScenarios() {
	for _, s := range fixtures.All() {
		fmt.Printf("%-28s %s\n", s.Name, s.Description)
	}
}

func runScenario(s fixtures.Scenario) {
	color.Cyan("== %s ==", s.Name)
	fmt.Println(s.Description)

	l := lower.New(s.Check)
	mod := l.Lower(s.Module)

	if !reportStage(mod, "lowering") {
		return
	}
	fmt.Println(ir.PrintModule(mod))

	for _, fn := range mod.Functions {
		mem2reg.Promote(fn)
	}
	if !reportStage(mod, "mem2reg") {
		return
	}
	fmt.Println(ir.PrintModule(mod))

	for _, fn := range mod.Functions {
		dessa.Destruct(fn)
	}
	if !reportStage(mod, "de-SSA") {
		return
	}
	fmt.Println(ir.PrintModule(mod))

	color.Green("✅ %s: all stages verified clean", s.Name)
}

// reportStage runs verify.Module and prints any diagnostics found. It
// returns false (meaning "stop") only when at least one diagnostic is
// an error; warnings are printed but do not halt the pipeline.
func reportStage(mod *ir.Module, stage string) bool {
	diags := verify.Module(mod)
	if len(diags) == 0 {
		return true
	}

	sort.Slice(diags, func(i, j int) bool { return diags[i].Code < diags[j].Code })
	reporter := errors.NewErrorReporter("<ir:"+stage+">", "")
	hasError := false
	for _, d := range diags {
		fmt.Print(reporter.FormatError(d))
		if d.Level == errors.Error {
			hasError = true
		}
	}
	if hasError {
		color.Red("❌ stage %q reported structural errors, stopping", stage)
		return false
	}
	return true
}

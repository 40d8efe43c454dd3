package ir

import (
	"fmt"
	"strings"
)

// Printer renders a Module to the IR's deterministic textual form, used
// by cmd/keic to show every pipeline stage and by tests to assert on
// exact output rather than walking structures by hand.
type Printer struct {
	sb     strings.Builder
	indent int
}

func NewPrinter() *Printer {
	return &Printer{}
}

func (p *Printer) writeIndent() {
	p.sb.WriteString(strings.Repeat("  ", p.indent))
}

func (p *Printer) line(format string, args ...interface{}) {
	p.writeIndent()
	p.sb.WriteString(fmt.Sprintf(format, args...))
	p.sb.WriteString("\n")
}

// PrintModule renders m and returns the accumulated text.
func (p *Printer) PrintModule(m *Module) string {
	p.line("module %s {", m.Name)
	p.indent++
	for _, fn := range m.Functions {
		p.printFunction(fn)
	}
	p.indent--
	p.line("}")
	return p.sb.String()
}

func (p *Printer) printFunction(fn *Function) {
	params := make([]string, len(fn.Params))
	for i, pm := range fn.Params {
		params[i] = fmt.Sprintf("%s: %s", pm.Val, pm.Type)
	}
	ret := "void"
	if fn.ReturnType != nil {
		ret = fn.ReturnType.String()
	}
	p.line("fn %s(%s) -> %s {", fn.Name, strings.Join(params, ", "), ret)
	p.indent++
	for _, id := range fn.BlockOrder {
		p.printBlock(fn.Block(id))
	}
	p.indent--
	p.line("}")
}

func (p *Printer) printBlock(b *Block) {
	p.line("%s:", b.ID)
	p.indent++
	for _, phi := range b.Phis {
		p.line("%s", phi.String())
	}
	for _, inst := range b.Insts {
		p.line("%s", inst.String())
	}
	if b.Term != nil {
		p.line("%s", b.Term.String())
	}
	p.indent--
}

// PrintModule is a package-level convenience wrapper around Printer for
// the common case of printing once.
func PrintModule(m *Module) string {
	return NewPrinter().PrintModule(m)
}

// PrintFunction renders a single function in isolation, used by tests
// and by the CLI when showing intermediate pipeline stages for one
// function at a time.
func PrintFunction(fn *Function) string {
	p := NewPrinter()
	p.printFunction(fn)
	return p.sb.String()
}

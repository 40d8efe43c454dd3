// Package ast defines the typed AST consumed by the lowerer. It is the
// output contract of the (external, out of scope) parser and checker: by
// the time a tree reaches this package every name has been resolved and
// every node's static type is available from a CheckResult, not from the
// node itself.
package ast

import "fmt"

// Position tracks a source location for diagnostics. The lowerer never
// interprets Offset/Line/Column itself; it only carries them through to
// error reports.
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// NodeID names an AST node uniquely within a compilation, used as a map
// key by CheckResult (expr types, call targets, ...).
type NodeID uint32

// Node is implemented by every AST node. Metadata is a small mutable bag
// used to stamp a node with its NodeID after construction; the checker
// populates it once during resolution and the lowerer only reads it.
type Node interface {
	NodePos() Position
	NodeEndPos() Position
	NodeType() NodeType
	GetMetadata() *Metadata
	SetMetadata(*Metadata)
}

// NodeBase is embedded by every concrete node to supply the position and
// metadata plumbing; concrete types only need to provide NodeType().
type NodeBase struct {
	Pos      Position
	EndPos   Position
	metadata *Metadata
}

func (n *NodeBase) NodePos() Position       { return n.Pos }
func (n *NodeBase) NodeEndPos() Position    { return n.EndPos }
func (n *NodeBase) GetMetadata() *Metadata  { return n.metadata }
func (n *NodeBase) SetMetadata(m *Metadata) { n.metadata = m }

// Ident is a bare name occurrence: a parameter name, field name, variant
// name, or reference to one.
type Ident struct {
	NodeBase
	Value string
}

func (*Ident) NodeType() NodeType { return IDENT }

func (i *Ident) String() string { return i.Value }

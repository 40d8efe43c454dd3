package ast

// Metadata is the mutable per-node bag the checker stamps on during
// resolution. The lowerer reads NodeID to look itself up in a
// checkresult.Result's maps; it never writes metadata.
type Metadata struct {
	NodeID   NodeID
	ParentID NodeID
}

// NodeTracker hands out fresh NodeIDs during a single checker pass.
type NodeTracker struct {
	next NodeID
}

func NewNodeTracker() *NodeTracker { return &NodeTracker{next: 1} }

func (t *NodeTracker) GenerateID() NodeID {
	id := t.next
	t.next++
	return id
}

package ir

// Succs returns the block IDs f.Block(id)'s terminator transfers control
// to, in the terminator's own deterministic order.
func (f *Function) Succs(id BlockId) []BlockId {
	return f.Block(id).Term.Succs()
}

// Preds computes, for every block, the set of blocks whose terminator
// names it as a successor. It is recomputed on demand rather than kept
// incrementally consistent, since every pass that restructures control
// flow (mem2reg's phi insertion, de-SSA's copy insertion) only adds or
// rewrites instructions inside existing blocks, never edges, except at
// well-defined points where callers explicitly rebuild this map.
func (f *Function) Preds() map[BlockId][]BlockId {
	preds := make(map[BlockId][]BlockId, len(f.BlockOrder))
	for _, id := range f.BlockOrder {
		preds[id] = nil
	}
	for _, id := range f.BlockOrder {
		for _, s := range f.Succs(id) {
			preds[s] = append(preds[s], id)
		}
	}
	return preds
}

// RPO returns the function's blocks in reverse postorder from Entry,
// the traversal order the dominance and mem2reg passes both require.
// Unreachable blocks (for example the join block of an if whose arms
// both end in a return) are omitted.
func (f *Function) RPO() []BlockId {
	var post []BlockId
	visited := map[BlockId]bool{}
	var visit func(BlockId)
	visit = func(id BlockId) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, s := range f.Succs(id) {
			visit(s)
		}
		post = append(post, id)
	}
	visit(f.Entry)
	// reverse post in place
	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

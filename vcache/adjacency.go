package vcache

// adjacency lists, for every vertex, the triangles that reference it.
// data[offsets[v] : offsets[v]+triangleCounts[v]] is the live span of vertex v;
// the optimizers shrink it as triangles get emitted.
type adjacency struct {
	triangleCounts []uint32
	offsets        []uint32
	data           []uint32
}

func buildAdjacency(indices []uint32, vertexCount int) *adjacency {
	adj := &adjacency{
		triangleCounts: make([]uint32, vertexCount),
		offsets:        make([]uint32, vertexCount),
		data:           make([]uint32, len(indices)),
	}

	for _, v := range indices {
		adj.triangleCounts[v]++
	}

	var offset uint32
	for v := range adj.offsets {
		adj.offsets[v] = offset
		offset += adj.triangleCounts[v]
	}

	// offsets double as write cursors here
	faceCount := len(indices) / 3
	for i := 0; i < faceCount; i++ {
		a, b, c := indices[i*3+0], indices[i*3+1], indices[i*3+2]

		adj.data[adj.offsets[a]] = uint32(i)
		adj.offsets[a]++
		adj.data[adj.offsets[b]] = uint32(i)
		adj.offsets[b]++
		adj.data[adj.offsets[c]] = uint32(i)
		adj.offsets[c]++
	}

	// rewind cursors back to span starts
	for v := range adj.offsets {
		adj.offsets[v] -= adj.triangleCounts[v]
	}
	return adj
}

func (a *adjacency) neighbours(v uint32) []uint32 {
	off := a.offsets[v]
	return a.data[off : off+a.triangleCounts[v]]
}

// remove drops one occurrence of tri from the span of v by swapping in the last entry.
func (a *adjacency) remove(v, tri uint32) {
	n := a.neighbours(v)
	for i, t := range n {
		if t == tri {
			n[i] = n[len(n)-1]
			a.triangleCounts[v]--
			return
		}
	}
}

// liveCounts tracks, per vertex, how many incident triangles are still waiting to be emitted.
type liveCounts []uint32

func newLiveCounts(adj *adjacency) liveCounts {
	live := make(liveCounts, len(adj.triangleCounts))
	copy(live, adj.triangleCounts)
	return live
}

// release accounts for one emitted triangle; a corner repeated in a degenerate triangle is released once per occurrence.
func (l liveCounts) release(a, b, c uint32) {
	l[a]--
	l[b]--
	l[c]--
}

// Package vcache reorders triangle index buffers for better post-transform vertex cache reuse.
//
// Two strategies are provided. OptimizeVertexCache follows Tom Forsyth's
// "Linear-Speed Vertex Cache Optimisation" (2006): it simulates a 16 entry LRU-like
// cache and greedily emits the triangle with the highest score.
// OptimizeVertexCacheFifo follows Sander, Nehab and Barczak, "Fast Triangle Reordering
// for Vertex Locality and Reduced Overdraw" (2007): it fans around vertices while
// simulating a strict FIFO cache of the given size.
//
// Both keep every triangle's corner order and only permute triangles.
package vcache

// cacheSize is the cache window simulated by OptimizeVertexCache.
const cacheSize = 16

// OptimizeVertexCache writes to destination a reordering of the triangles in indices
// that reduces vertex cache misses. destination may be indices itself.
//
// An empty index buffer or a zero vertex count leaves destination untouched.
func OptimizeVertexCache(destination, indices []uint32, vertexCount int) error {
	return optimizeVertexCache(destination, indices, vertexCount, cacheSize)
}

func optimizeVertexCache(destination, indices []uint32, vertexCount int, size int) error {
	if size > maxCacheSize || size < 1 {
		return ErrCacheSize
	}
	indices, err := prepare(destination, indices, vertexCount)
	if err != nil || indices == nil {
		return err
	}

	faceCount := len(indices) / 3

	adj := buildAdjacency(indices, vertexCount)
	live := newLiveCounts(adj)
	emitted := make([]bool, faceCount)

	vertexScores := make([]float32, vertexCount)
	for v := range vertexScores {
		vertexScores[v] = vertexScore(-1, live[v])
	}

	triangleScores := make([]float32, faceCount)
	for i := range triangleScores {
		a, b, c := indices[i*3+0], indices[i*3+1], indices[i*3+2]
		triangleScores[i] = vertexScores[a] + vertexScores[b] + vertexScores[c]
	}

	// cache windows, swapped every step; the emitted triangle may push up to 3 extra entries
	var windows [2][maxCacheSize + 3]uint32
	current := 0
	cacheCount := 0

	tri, ok := uint32(0), true
	inputCursor := uint32(1)
	outputTriangle := 0

	for ok {
		a, b, c := indices[tri*3+0], indices[tri*3+1], indices[tri*3+2]

		destination[outputTriangle*3+0] = a
		destination[outputTriangle*3+1] = b
		destination[outputTriangle*3+2] = c
		outputTriangle++

		emitted[tri] = true
		triangleScores[tri] = 0

		cache := windows[current][:cacheCount]
		next := &windows[current^1]

		cacheWrite := 0
		next[cacheWrite] = a
		cacheWrite++
		next[cacheWrite] = b
		cacheWrite++
		next[cacheWrite] = c
		cacheWrite++

		for _, v := range cache {
			if v != a && v != b && v != c {
				next[cacheWrite] = v
				cacheWrite++
			}
		}

		current ^= 1
		cacheCount = min(cacheWrite, size)

		live.release(a, b, c)

		adj.remove(a, tri)
		adj.remove(b, tri)
		adj.remove(c, tri)

		// rescore every vertex written this step; entries past size just fell out
		best, found := uint32(0), false
		var bestScore float32

		for i, v := range windows[current][:cacheWrite] {
			position := -1
			if i < size {
				position = i
			}

			score := vertexScore(position, live[v])
			diff := score - vertexScores[v]
			vertexScores[v] = score

			for _, t := range adj.neighbours(v) {
				ts := triangleScores[t] + diff
				if bestScore < ts {
					best, found = t, true
					bestScore = ts
				}
				triangleScores[t] = ts
			}
		}

		tri, ok = best, found
		if !ok {
			tri, ok = nextTriangleDeadEnd(&inputCursor, emitted)
		}
	}
	return nil
}

// nextTriangleDeadEnd returns the first unemitted triangle at or after the cursor.
// The cursor only moves forward.
func nextTriangleDeadEnd(inputCursor *uint32, emitted []bool) (uint32, bool) {
	for int(*inputCursor) < len(emitted) {
		if !emitted[*inputCursor] {
			return *inputCursor, true
		}
		*inputCursor++
	}
	return 0, false
}

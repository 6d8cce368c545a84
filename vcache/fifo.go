package vcache

import "math"

// OptimizeVertexCacheFifo reorders triangles for a strict FIFO vertex cache holding
// cacheSize entries (at least 3). It is faster than OptimizeVertexCache and usually
// slightly worse. destination may be indices itself.
func OptimizeVertexCacheFifo(destination, indices []uint32, vertexCount int, cacheSize uint32) error {
	if cacheSize < 3 || cacheSize == math.MaxUint32 {
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

	// a vertex is cached while timestamp - cacheTimestamps[v] <= cacheSize
	cacheTimestamps := make([]uint32, vertexCount)
	timestamp := cacheSize + 1

	deadEnd := make([]uint32, 0, len(indices))

	vertex, ok := uint32(0), true
	inputCursor := uint32(1)
	outputTriangle := 0

	for ok {
		candidatesBegin := len(deadEnd)

		for _, tri := range adj.neighbours(vertex) {
			if emitted[tri] {
				continue
			}
			a, b, c := indices[tri*3+0], indices[tri*3+1], indices[tri*3+2]

			destination[outputTriangle*3+0] = a
			destination[outputTriangle*3+1] = b
			destination[outputTriangle*3+2] = c
			outputTriangle++

			deadEnd = append(deadEnd, a, b, c)

			live.release(a, b, c)

			// only misses enter the cache
			if timestamp-cacheTimestamps[a] > cacheSize {
				cacheTimestamps[a] = timestamp
				timestamp++
			}
			if timestamp-cacheTimestamps[b] > cacheSize {
				cacheTimestamps[b] = timestamp
				timestamp++
			}
			if timestamp-cacheTimestamps[c] > cacheSize {
				cacheTimestamps[c] = timestamp
				timestamp++
			}

			emitted[tri] = true
		}

		vertex, ok = nextVertexNeighbour(deadEnd[candidatesBegin:], live, cacheTimestamps, timestamp, cacheSize)
		if !ok {
			vertex, ok = nextVertexDeadEnd(&deadEnd, &inputCursor, live)
		}
	}
	return nil
}

// nextVertexNeighbour picks among the freshly emitted corners the live vertex that will
// still be cached after fanning around it, preferring the one closest to eviction.
// Live vertices that fail the test remain eligible with the lowest priority.
func nextVertexNeighbour(candidates []uint32, live liveCounts, cacheTimestamps []uint32, timestamp, cacheSize uint32) (uint32, bool) {
	best, found := uint32(0), false
	bestPriority := -1

	for _, v := range candidates {
		if live[v] == 0 {
			continue
		}

		priority := 0
		if 2*live[v]+timestamp-cacheTimestamps[v] <= cacheSize {
			priority = int(timestamp - cacheTimestamps[v])
		}

		if priority > bestPriority {
			best, found = v, true
			bestPriority = priority
		}
	}
	return best, found
}

// nextVertexDeadEnd pops the dead-end stack for a live vertex and falls back to input order.
func nextVertexDeadEnd(deadEnd *[]uint32, inputCursor *uint32, live liveCounts) (uint32, bool) {
	for len(*deadEnd) > 0 {
		top := len(*deadEnd) - 1
		v := (*deadEnd)[top]
		*deadEnd = (*deadEnd)[:top]

		if live[v] > 0 {
			return v, true
		}
	}

	for int(*inputCursor) < len(live) {
		if live[*inputCursor] > 0 {
			return *inputCursor, true
		}
		*inputCursor++
	}
	return 0, false
}

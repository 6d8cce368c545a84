package vcache

import "math"

// VertexCacheStatistics summarizes how an index buffer behaves in a simulated FIFO vertex cache.
type VertexCacheStatistics struct {
	VerticesTransformed uint32
	WarpsExecuted       uint32
	ACMR                float32 // transformed vertices / triangle count; 3 is the worst case, 0.5 the ideal on regular grids
	ATVR                float32 // transformed vertices / referenced vertices; 1 is optimal
}

// AnalyzeVertexCache simulates a FIFO cache of cacheSize entries over indices.
// warpSize and primGroupSize model GPUs that flush the cache when a shader warp fills up
// or after a fixed number of primitives; pass 0 to disable either.
func AnalyzeVertexCache(indices []uint32, vertexCount int, cacheSize, warpSize, primGroupSize uint32) (VertexCacheStatistics, error) {
	var result VertexCacheStatistics

	if len(indices)%3 != 0 {
		return result, ErrIndexCount
	}
	// timestamps are compared modulo 2^32, so cacheSize+1 must not wrap
	if cacheSize == 0 || cacheSize == math.MaxUint32 {
		return result, ErrCacheSize
	}
	if warpSize != 0 && warpSize < 3 {
		return result, ErrCacheSize
	}
	if err := checkIndices(indices, vertexCount); err != nil {
		return result, err
	}
	if len(indices) == 0 {
		return result, nil
	}

	var warpOffset, primGroupOffset uint32

	cacheTimestamps := make([]uint32, vertexCount)
	timestamp := cacheSize + 1

	for i := 0; i < len(indices); i += 3 {
		a, b, c := indices[i+0], indices[i+1], indices[i+2]

		misses := boolToUint32(timestamp-cacheTimestamps[a] > cacheSize) +
			boolToUint32(timestamp-cacheTimestamps[b] > cacheSize) +
			boolToUint32(timestamp-cacheTimestamps[c] > cacheSize)

		// flush when the triangle does not fit the warp or the primitive group
		if (primGroupSize != 0 && primGroupOffset == primGroupSize) || (warpSize != 0 && warpOffset+misses > warpSize) {
			result.WarpsExecuted += boolToUint32(warpOffset > 0)

			warpOffset = 0
			primGroupOffset = 0

			timestamp += cacheSize + 1
		}

		for _, v := range indices[i : i+3] {
			if timestamp-cacheTimestamps[v] > cacheSize {
				cacheTimestamps[v] = timestamp
				timestamp++
				result.VerticesTransformed++
				warpOffset++
			}
		}

		primGroupOffset++
	}

	uniqueVertexCount := 0
	for _, ts := range cacheTimestamps {
		if ts != 0 {
			uniqueVertexCount++
		}
	}

	result.WarpsExecuted += boolToUint32(warpOffset > 0)

	result.ACMR = float32(result.VerticesTransformed) / float32(len(indices)/3)
	if uniqueVertexCount > 0 {
		result.ATVR = float32(result.VerticesTransformed) / float32(uniqueVertexCount)
	}
	return result, nil
}

func boolToUint32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

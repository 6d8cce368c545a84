package vcache

const (
	maxCacheSize = 16
	maxValence   = 8
)

// Empirically tuned; reproduce bit for bit.
var vertexScoreTableCache = [1 + maxCacheSize]float32{
	0,
	0.792, 0.767, 0.764, 0.956, 0.827, 0.751, 0.820, 0.864, 0.738, 0.788, 0.642, 0.646, 0.165, 0.654, 0.545, 0.284,
}

var vertexScoreTableLive = [1 + maxValence]float32{
	0,
	0.994, 0.721, 0.479, 0.423, 0.174, 0.080, 0.249, 0.056,
}

// vertexScore rates a vertex by its position in the simulated cache (-1 when absent)
// and by the number of its triangles that are still to be emitted.
func vertexScore(cachePosition int, liveTriangles uint32) float32 {
	if cachePosition < -1 || cachePosition >= maxCacheSize {
		panic("vcache: cache position out of table range")
	}

	live := liveTriangles
	if live > maxValence {
		live = maxValence
	}
	return vertexScoreTableCache[1+cachePosition] + vertexScoreTableLive[live]
}

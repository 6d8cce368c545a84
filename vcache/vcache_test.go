package vcache

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type optimizeFunc func(destination, indices []uint32, vertexCount int) error

var optimizers = map[string]optimizeFunc{
	"greedy": OptimizeVertexCache,
	"fifo16": func(dst, src []uint32, vc int) error { return OptimizeVertexCacheFifo(dst, src, vc, 16) },
	"fifo3":  func(dst, src []uint32, vc int) error { return OptimizeVertexCacheFifo(dst, src, vc, 3) },
}

// gridMesh builds an n x n quad grid with shared vertices.
func gridMesh(n int) ([]uint32, int) {
	indices := make([]uint32, 0, n*n*6)
	row := uint32(n + 1)
	for y := uint32(0); y < uint32(n); y++ {
		for x := uint32(0); x < uint32(n); x++ {
			i0 := y*row + x
			i1 := i0 + 1
			i2 := i0 + row
			i3 := i2 + 1
			indices = append(indices, i0, i1, i2, i2, i1, i3)
		}
	}
	return indices, (n + 1) * (n + 1)
}

func shuffleTriangles(indices []uint32, rng *rand.Rand) []uint32 {
	out := make([]uint32, len(indices))
	for i, t := range rng.Perm(len(indices) / 3) {
		copy(out[i*3:i*3+3], indices[t*3:t*3+3])
	}
	return out
}

func randomMesh(rng *rand.Rand, faces, vertexCount int) []uint32 {
	indices := make([]uint32, faces*3)
	for i := range indices {
		indices[i] = uint32(rng.Intn(vertexCount))
	}
	return indices
}

func triangles(indices []uint32) [][3]uint32 {
	tris := make([][3]uint32, len(indices)/3)
	for i := range tris {
		tris[i] = [3]uint32{indices[i*3], indices[i*3+1], indices[i*3+2]}
	}
	sort.Slice(tris, func(i, j int) bool {
		a, b := tris[i], tris[j]
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return a[2] < b[2]
	})
	return tris
}

func TestBuildAdjacency(t *testing.T) {
	indices := []uint32{0, 1, 2, 0, 2, 3}
	adj := buildAdjacency(indices, 4)

	assert.Equal(t, []uint32{2, 1, 2, 1}, adj.triangleCounts)
	assert.Equal(t, []uint32{0, 2, 3, 5}, adj.offsets)
	assert.Equal(t, []uint32{0, 1}, adj.neighbours(0))
	assert.Equal(t, []uint32{0}, adj.neighbours(1))
	assert.Equal(t, []uint32{0, 1}, adj.neighbours(2))
	assert.Equal(t, []uint32{1}, adj.neighbours(3))
	assert.Len(t, adj.data, len(indices))
}

func TestBuildAdjacencyDegenerate(t *testing.T) {
	adj := buildAdjacency([]uint32{0, 0, 0}, 1)
	require.Equal(t, uint32(3), adj.triangleCounts[0])
	assert.Equal(t, []uint32{0, 0, 0}, adj.neighbours(0))

	live := newLiveCounts(adj)
	live.release(0, 0, 0)
	assert.Equal(t, uint32(0), live[0])

	adj.remove(0, 0)
	adj.remove(0, 0)
	adj.remove(0, 0)
	assert.Empty(t, adj.neighbours(0))
}

func TestBuildAdjacencyEachTriangleThreeTimes(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	indices := randomMesh(rng, 200, 50)
	adj := buildAdjacency(indices, 50)

	seen := make(map[uint32]int)
	for v := uint32(0); v < 50; v++ {
		for _, tri := range adj.neighbours(v) {
			seen[tri]++
			tv := indices[tri*3 : tri*3+3]
			assert.Contains(t, tv, v, "triangle %d listed under vertex %d", tri, v)
		}
	}
	require.Len(t, seen, 200)
	for tri, n := range seen {
		assert.Equal(t, 3, n, "triangle %d", tri)
	}
}

func TestAdjacencyRemove(t *testing.T) {
	adj := buildAdjacency([]uint32{0, 1, 2, 0, 2, 3, 0, 3, 4}, 5)
	require.Equal(t, []uint32{0, 1, 2}, adj.neighbours(0))

	adj.remove(0, 0)
	assert.Equal(t, []uint32{2, 1}, adj.neighbours(0))

	adj.remove(0, 7) // absent
	assert.Equal(t, []uint32{2, 1}, adj.neighbours(0))
}

func TestVertexScore(t *testing.T) {
	assert.Greater(t, vertexScore(0, 1), vertexScore(-1, 1))
	assert.Equal(t, float32(0), vertexScore(-1, 0))
	assert.Equal(t, float32(0.792)+float32(0.994), vertexScore(0, 1))
	assert.Equal(t, vertexScore(-1, maxValence), vertexScore(-1, 1000))
	assert.Equal(t, float32(0.284), vertexScore(15, 0))

	for pos := 0; pos < maxCacheSize; pos++ {
		for live := uint32(0); live <= maxValence; live++ {
			assert.GreaterOrEqual(t, vertexScore(pos, live), vertexScore(-1, live))
		}
	}

	assert.Panics(t, func() { vertexScore(-2, 0) })
	assert.Panics(t, func() { vertexScore(maxCacheSize, 0) })
}

func TestOptimizeQuad(t *testing.T) {
	quad := []uint32{0, 1, 2, 0, 2, 3}
	for name, opt := range optimizers {
		t.Run(name, func(t *testing.T) {
			dst := make([]uint32, len(quad))
			require.NoError(t, opt(dst, quad, 4))
			assert.Equal(t, quad, dst)
		})
	}
}

// reversedGrid is the 3x3 grid with its triangles emitted last to first.
func reversedGrid() ([]uint32, int) {
	grid, vertexCount := gridMesh(3)
	out := make([]uint32, 0, len(grid))
	for i := len(grid) - 3; i >= 0; i -= 3 {
		out = append(out, grid[i:i+3]...)
	}
	return out, vertexCount
}

func TestOptimizeExactOrder(t *testing.T) {
	src, vertexCount := reversedGrid()
	require.Equal(t, []uint32{14, 11, 15, 10, 11, 14, 13, 10, 14}, src[:9])

	tests := []struct {
		name string
		opt  optimizeFunc
		want []uint32
	}{
		{"greedy", optimizers["greedy"], []uint32{
			14, 11, 15, 10, 11, 14, 10, 7, 11, 13, 10, 14, 6, 7, 10, 6, 3, 7,
			2, 3, 6, 9, 10, 13, 9, 6, 10, 12, 9, 13, 8, 9, 12, 5, 6, 9,
			8, 5, 9, 5, 2, 6, 4, 5, 8, 1, 2, 5, 4, 1, 5, 0, 1, 4,
		}},
		{"fifo3", optimizers["fifo3"], []uint32{
			0, 1, 4, 1, 2, 5, 4, 1, 5, 2, 3, 6, 5, 2, 6, 6, 3, 7,
			6, 7, 10, 9, 6, 10, 5, 6, 9, 10, 7, 11, 10, 11, 14, 13, 10, 14,
			9, 10, 13, 14, 11, 15, 12, 9, 13, 8, 9, 12, 8, 5, 9, 4, 5, 8,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]uint32, len(src))
			require.NoError(t, tt.opt(dst, src, vertexCount))
			assert.Equal(t, tt.want, dst)
		})
	}
}

func TestOptimizeDegenerateTriangle(t *testing.T) {
	for name, opt := range optimizers {
		t.Run(name, func(t *testing.T) {
			dst := make([]uint32, 3)
			require.NoError(t, opt(dst, []uint32{0, 0, 0}, 1))
			assert.Equal(t, []uint32{0, 0, 0}, dst)
		})
	}
}

func TestOptimizeEmptyIsNoop(t *testing.T) {
	for name, opt := range optimizers {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, opt(nil, nil, 10))

			dst := []uint32{9, 9, 9}
			require.NoError(t, opt(dst, []uint32{0, 1, 2}, 0))
			assert.Equal(t, []uint32{9, 9, 9}, dst)
		})
	}
}

func TestOptimizeErrors(t *testing.T) {
	for name, opt := range optimizers {
		t.Run(name, func(t *testing.T) {
			dst := []uint32{9, 9, 9, 9}
			assert.ErrorIs(t, opt(dst, []uint32{0, 1, 2, 3}, 4), ErrIndexCount)
			assert.ErrorIs(t, opt(dst, []uint32{0, 1}, 0), ErrIndexCount)

			dst = []uint32{9, 9, 9, 9, 9, 9}
			assert.ErrorIs(t, opt(dst, []uint32{0, 1, 2, 0, 2, 4}, 4), ErrIndexOutOfRange)
			assert.Equal(t, []uint32{9, 9, 9, 9, 9, 9}, dst, "destination must not change on error")

			assert.ErrorIs(t, opt(dst[:3], []uint32{0, 1, 2, 0, 2, 3}, 4), ErrDestinationSize)
		})
	}

	assert.ErrorIs(t, OptimizeVertexCacheFifo(make([]uint32, 3), []uint32{0, 1, 2}, 3, 2), ErrCacheSize)
	assert.ErrorIs(t, OptimizeVertexCacheFifo(make([]uint32, 3), []uint32{0, 1, 2}, 3, math.MaxUint32), ErrCacheSize)
	assert.ErrorIs(t, optimizeVertexCache(make([]uint32, 3), []uint32{0, 1, 2}, 3, maxCacheSize+1), ErrCacheSize)
}

func TestOptimizePermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	grid, gridVertices := gridMesh(12)

	cases := []struct {
		name        string
		indices     []uint32
		vertexCount int
	}{
		{"grid", grid, gridVertices},
		{"shuffled grid", shuffleTriangles(grid, rng), gridVertices},
		{"random dense", randomMesh(rng, 300, 20), 20},
		{"random sparse", randomMesh(rng, 300, 2000), 2000},
		{"unused vertices", []uint32{5, 6, 7, 7, 6, 8}, 12},
	}

	for name, opt := range optimizers {
		for _, tc := range cases {
			t.Run(name+"/"+tc.name, func(t *testing.T) {
				src := append([]uint32(nil), tc.indices...)
				dst := make([]uint32, len(src))
				require.NoError(t, opt(dst, src, tc.vertexCount))

				assert.Equal(t, tc.indices, src, "source must not change")
				assert.Equal(t, triangles(tc.indices), triangles(dst))
			})
		}
	}
}

func TestOptimizeInPlace(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	grid, vertexCount := gridMesh(10)
	src := shuffleTriangles(grid, rng)

	for name, opt := range optimizers {
		t.Run(name, func(t *testing.T) {
			separate := make([]uint32, len(src))
			require.NoError(t, opt(separate, src, vertexCount))

			inPlace := append([]uint32(nil), src...)
			require.NoError(t, opt(inPlace, inPlace, vertexCount))

			assert.Equal(t, separate, inPlace)
		})
	}
}

func TestOptimizeDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	src := randomMesh(rng, 500, 120)

	for name, opt := range optimizers {
		t.Run(name, func(t *testing.T) {
			a := make([]uint32, len(src))
			b := make([]uint32, len(src))
			require.NoError(t, opt(a, src, 120))
			require.NoError(t, opt(b, src, 120))
			assert.Equal(t, a, b)
		})
	}
}

func TestOptimizeImprovesACMR(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	grid, vertexCount := gridMesh(32)
	src := shuffleTriangles(grid, rng)

	before, err := AnalyzeVertexCache(src, vertexCount, 16, 0, 0)
	require.NoError(t, err)

	for name, opt := range optimizers {
		t.Run(name, func(t *testing.T) {
			dst := make([]uint32, len(src))
			require.NoError(t, opt(dst, src, vertexCount))

			after, err := AnalyzeVertexCache(dst, vertexCount, 16, 0, 0)
			require.NoError(t, err)

			assert.Less(t, after.ACMR, before.ACMR)
			if name != "fifo3" {
				assert.Less(t, after.ACMR, float32(1.5))
			}
		})
	}
}

func TestAnalyzeVertexCache(t *testing.T) {
	quad := []uint32{0, 1, 2, 0, 2, 3}

	stats, err := AnalyzeVertexCache(quad, 4, 16, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), stats.VerticesTransformed)
	assert.Equal(t, uint32(1), stats.WarpsExecuted)
	assert.Equal(t, float32(2), stats.ACMR)
	assert.Equal(t, float32(1), stats.ATVR)

	// a primitive group of one triangle flushes the cache between the two triangles
	stats, err = AnalyzeVertexCache(quad, 4, 16, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(6), stats.VerticesTransformed)
	assert.Equal(t, uint32(2), stats.WarpsExecuted)
	assert.Equal(t, float32(1.5), stats.ATVR)

	// a 3 vertex warp cannot take the second triangle's miss
	stats, err = AnalyzeVertexCache(quad, 4, 16, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(6), stats.VerticesTransformed)
	assert.Equal(t, uint32(2), stats.WarpsExecuted)

	stats, err = AnalyzeVertexCache(nil, 0, 16, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, stats)

	_, err = AnalyzeVertexCache([]uint32{0, 1}, 2, 16, 0, 0)
	assert.ErrorIs(t, err, ErrIndexCount)
	_, err = AnalyzeVertexCache([]uint32{0, 1, 5}, 2, 16, 0, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	// cacheSize+1 would wrap and report every vertex as cached
	_, err = AnalyzeVertexCache(quad, 4, math.MaxUint32, 0, 0)
	assert.ErrorIs(t, err, ErrCacheSize)
	_, err = AnalyzeVertexCache(quad, 4, 0, 0, 0)
	assert.ErrorIs(t, err, ErrCacheSize)
}

func TestParseAlgorithm(t *testing.T) {
	a, err := ParseAlgorithm(" FIFO ")
	require.NoError(t, err)
	assert.Equal(t, AlgorithmFifo, a)

	a, err = ParseAlgorithm("greedy")
	require.NoError(t, err)
	assert.Equal(t, AlgorithmGreedy, a)

	_, err = ParseAlgorithm("tipsy")
	assert.Error(t, err)
}

func TestOptionsOptimize(t *testing.T) {
	grid, vertexCount := gridMesh(6)

	greedy := make([]uint32, len(grid))
	require.NoError(t, DefaultOptions().Optimize(greedy, grid, vertexCount))
	want := make([]uint32, len(grid))
	require.NoError(t, OptimizeVertexCache(want, grid, vertexCount))
	assert.Equal(t, want, greedy)

	fifo := make([]uint32, len(grid))
	require.NoError(t, Options{Algorithm: AlgorithmFifo, CacheSize: 8}.Optimize(fifo, grid, vertexCount))
	require.NoError(t, OptimizeVertexCacheFifo(want, grid, vertexCount, 8))
	assert.Equal(t, want, fifo)

	assert.Error(t, Options{Algorithm: "bogus"}.Optimize(fifo, grid, vertexCount))
}

func BenchmarkOptimizeVertexCache(b *testing.B) {
	grid, vertexCount := gridMesh(128)
	src := shuffleTriangles(grid, rand.New(rand.NewSource(5)))
	dst := make([]uint32, len(src))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := OptimizeVertexCache(dst, src, vertexCount); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkOptimizeVertexCacheFifo(b *testing.B) {
	grid, vertexCount := gridMesh(128)
	src := shuffleTriangles(grid, rand.New(rand.NewSource(5)))
	dst := make([]uint32, len(src))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := OptimizeVertexCacheFifo(dst, src, vertexCount, 16); err != nil {
			b.Fatal(err)
		}
	}
}

package voxel

import "math/rand"

// NoiseGrid fills percentage (0..100) of the grid with random palette indices in [1..63].
func NoiseGrid(percentage float64, r *rand.Rand) *Grid {
	percentage = max(0, min(100, percentage))
	total := Width * Height * Depth
	want := int(float64(total)*(percentage/100.0) + 0.5)

	idx := make([]int, total)
	for i := range idx {
		idx[i] = i
	}
	// partial Fisher-Yates, only the first want slots matter
	for i := 0; i < want; i++ {
		j := i + r.Intn(total-i)
		idx[i], idx[j] = idx[j], idx[i]
	}

	var g Grid
	for _, i := range idx[:want] {
		y := i / (Width * Depth)
		rem := i % (Width * Depth)
		x := rem / Depth
		z := rem % Depth
		g[y][x][z] = uint8(1 + r.Intn(PaletteSize-1))
	}
	return &g
}

// SeedFor derives the per-chunk seed used by batch generation.
func SeedFor(base uint64, i int) int64 {
	const weyl = uint64(0x9e3779b97f4a7c15)
	seed := base ^ (uint64(i)+1)*weyl
	return int64(seed & 0x7fffffffffffffff)
}

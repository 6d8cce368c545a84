// Package voxel turns 16^3 voxel chunks into indexed surface meshes.
package voxel

const (
	Height = 16
	Width  = 16
	Depth  = 16
)

// Grid[y][x][z] holds palette indices; 0 is empty.
type Grid [Height][Width][Depth]uint8

func (g *Grid) at(x, y, z int) uint8 {
	if x < 0 || x >= Width || y < 0 || y >= Height || z < 0 || z >= Depth {
		return 0
	}
	return g[y][x][z]
}

// Filled counts the non-empty voxels.
func (g *Grid) Filled() int {
	n := 0
	for y := range g {
		for x := range g[y] {
			for _, c := range g[y][x] {
				if c != 0 {
					n++
				}
			}
		}
	}
	return n
}

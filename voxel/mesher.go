package voxel

import (
	"github.com/voxelsplace/vcache/mesh"
)

type dirSpec struct {
	normal [3]float32
	u, v   int
	du, dv [3]int
}

var directions = []dirSpec{
	{[3]float32{1, 0, 0}, 1, 2, [3]int{0, 1, 0}, [3]int{0, 0, 1}},
	{[3]float32{-1, 0, 0}, 1, 2, [3]int{0, 1, 0}, [3]int{0, 0, 1}},
	{[3]float32{0, 1, 0}, 0, 2, [3]int{1, 0, 0}, [3]int{0, 0, 1}},
	{[3]float32{0, -1, 0}, 0, 2, [3]int{1, 0, 0}, [3]int{0, 0, 1}},
	{[3]float32{0, 0, 1}, 0, 1, [3]int{1, 0, 0}, [3]int{0, 1, 0}},
	{[3]float32{0, 0, -1}, 0, 1, [3]int{1, 0, 0}, [3]int{0, 1, 0}},
}

type weldKey struct {
	pos   [3]float32
	color uint8
}

// builder welds quad corners that share a position and a color into one vertex.
type builder struct {
	mesh  *mesh.Mesh
	index map[weldKey]uint32
}

func (b *builder) vertex(pos [3]float32, color uint8) uint32 {
	k := weldKey{pos, color}
	if i, ok := b.index[k]; ok {
		return i
	}
	i := uint32(len(b.mesh.Vertices))
	b.mesh.Vertices = append(b.mesh.Vertices, mesh.Vertex{Position: pos, Color: color})
	b.index[k] = i
	return i
}

func (b *builder) addQuad(dir dirSpec, start [3]int, w, h int, color uint8, perp int) {
	base := [3]float32{}
	base[perp] = float32(start[0])
	if dir.normal[perp] > 0 {
		base[perp] += 1
	}
	base[dir.u] = float32(start[1])
	base[dir.v] = float32(start[2])

	corner := func(su, sv int) [3]float32 {
		return [3]float32{
			base[0] + float32(dir.du[0]*su+dir.dv[0]*sv),
			base[1] + float32(dir.du[1]*su+dir.dv[1]*sv),
			base[2] + float32(dir.du[2]*su+dir.dv[2]*sv),
		}
	}
	corners := [4][3]float32{corner(0, 0), corner(h, 0), corner(h, w), corner(0, w)}

	// keep the winding counter-clockwise when seen from outside
	if (dir.normal[perp] < 0) != (perp == 1) {
		corners[1], corners[3] = corners[3], corners[1]
	}

	var q [4]uint32
	for i, c := range corners {
		q[i] = b.vertex(c, color)
	}
	b.mesh.Indices = append(b.mesh.Indices, q[0], q[1], q[2], q[0], q[2], q[3])
}

// plane is the exposed-face mask of one slice, row-major in (u, v).
type plane struct {
	rows, cols int
	color      []uint8
	taken      []bool
}

func newPlane(rows, cols int) *plane {
	return &plane{rows: rows, cols: cols, color: make([]uint8, rows*cols), taken: make([]bool, rows*cols)}
}

func (pl *plane) reset() {
	clear(pl.color)
	clear(pl.taken)
}

func (pl *plane) free(u, v int, c uint8) bool {
	i := u*pl.cols + v
	return pl.color[i] == c && !pl.taken[i]
}

// mergeRect grows the face at (u, v) along v, then along u while whole rows match,
// and claims the covered cells.
func (pl *plane) mergeRect(u, v int) (w, h int) {
	c := pl.color[u*pl.cols+v]
	w = 1
	for v+w < pl.cols && pl.free(u, v+w, c) {
		w++
	}
	h = 1
rows:
	for u+h < pl.rows {
		for k := v; k < v+w; k++ {
			if !pl.free(u+h, k, c) {
				break rows
			}
		}
		h++
	}
	for r := u; r < u+h; r++ {
		for k := v; k < v+w; k++ {
			pl.taken[r*pl.cols+k] = true
		}
	}
	return w, h
}

// Mesh extracts the visible faces of g, merging coplanar same-colored faces into
// rectangles. Triangles come out in sweep order, which is a poor fit for a vertex cache.
func Mesh(g *Grid) *mesh.Mesh {
	b := &builder{mesh: &mesh.Mesh{}, index: make(map[weldKey]uint32)}
	dims := [3]int{Width, Height, Depth}

	for _, dir := range directions {
		perp := 3 - dir.u - dir.v
		step := 1
		if dir.normal[perp] < 0 {
			step = -1
		}
		pl := newPlane(dims[dir.u], dims[dir.v])

		for p := 0; p < dims[perp]; p++ {
			pl.reset()
			for u := 0; u < pl.rows; u++ {
				for v := 0; v < pl.cols; v++ {
					var pos [3]int
					pos[dir.u], pos[dir.v], pos[perp] = u, v, p
					c := g.at(pos[0], pos[1], pos[2])
					if c == 0 {
						continue
					}
					pos[perp] += step
					if g.at(pos[0], pos[1], pos[2]) == 0 {
						pl.color[u*pl.cols+v] = c
					}
				}
			}

			for u := 0; u < pl.rows; u++ {
				for v := 0; v < pl.cols; {
					c := pl.color[u*pl.cols+v]
					if c == 0 || pl.taken[u*pl.cols+v] {
						v++
						continue
					}
					w, h := pl.mergeRect(u, v)
					b.addQuad(dir, [3]int{p, u, v}, w, h, c, perp)
					v += w
				}
			}
		}
	}
	return b.mesh
}

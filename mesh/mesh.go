// Package mesh holds indexed triangle meshes and their compact .vcm container.
package mesh

import (
	"github.com/voxelsplace/vcache/vcache"
)

// Vertex is a position with a palette color.
type Vertex struct {
	Position [3]float32
	Color    uint8 // palette index
}

// Mesh is an indexed triangle list; every three entries of Indices form one triangle.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// TriangleCount returns len(Indices) / 3.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// Optimize reorders the triangles of m in place for vertex cache locality.
func (m *Mesh) Optimize(opts vcache.Options) error {
	return opts.Optimize(m.Indices, m.Indices, len(m.Vertices))
}

// Analyze reports the FIFO cache behavior of the current triangle order.
func (m *Mesh) Analyze(cacheSize uint32) (vcache.VertexCacheStatistics, error) {
	return vcache.AnalyzeVertexCache(m.Indices, len(m.Vertices), cacheSize, 0, 0)
}

// Positions returns the vertex positions as a flat attribute array.
func (m *Mesh) Positions() [][3]float32 {
	out := make([][3]float32, len(m.Vertices))
	for i, v := range m.Vertices {
		out[i] = v.Position
	}
	return out
}

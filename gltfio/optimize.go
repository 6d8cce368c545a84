package gltfio

import (
	"encoding/binary"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/voxelsplace/vcache/vcache"
)

// PrimitiveStats describes the cache behavior of one indexed triangle primitive.
type PrimitiveStats struct {
	Mesh      int
	Primitive int
	Name      string
	Triangles int
	Vertices  int
	Stats     vcache.VertexCacheStatistics
}

// PrimitiveReport pairs the statistics of a primitive before and after optimization.
type PrimitiveReport struct {
	PrimitiveStats
	After vcache.VertexCacheStatistics
}

// Report summarizes an OptimizeDocument run.
type Report struct {
	Primitives []PrimitiveReport
	Skipped    int // non-triangle, unindexed or already visited primitives
}

// primitive is an indexed triangle list found in a document.
type primitive struct {
	mesh, index int
	name        string
	prim        *gltf.Primitive
	accessor    int
	indices     []uint32
	vertexCount int
}

// triangleLists collects the indexed triangle primitives of doc, visiting each index accessor once.
func triangleLists(doc *gltf.Document) ([]primitive, int, error) {
	var (
		out     []primitive
		skipped int
		seen    = make(map[int]bool)
	)
	for mi, m := range doc.Meshes {
		for pi, prim := range m.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles || prim.Indices == nil {
				skipped++
				continue
			}
			acc := *prim.Indices
			if seen[acc] {
				skipped++
				continue
			}
			seen[acc] = true

			indices, err := modeler.ReadIndices(doc, doc.Accessors[acc], nil)
			if err != nil {
				return nil, 0, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}

			out = append(out, primitive{
				mesh:        mi,
				index:       pi,
				name:        m.Name,
				prim:        prim,
				accessor:    acc,
				indices:     indices,
				vertexCount: vertexCount(doc, prim, indices),
			})
		}
	}
	return out, skipped, nil
}

// vertexCount prefers the POSITION accessor and falls back to the largest referenced index.
func vertexCount(doc *gltf.Document, prim *gltf.Primitive, indices []uint32) int {
	if pos, ok := prim.Attributes[gltf.POSITION]; ok && pos < len(doc.Accessors) {
		return doc.Accessors[pos].Count
	}
	n := 0
	for _, i := range indices {
		n = max(n, int(i)+1)
	}
	return n
}

func (p *primitive) stats(s vcache.VertexCacheStatistics) PrimitiveStats {
	return PrimitiveStats{
		Mesh:      p.mesh,
		Primitive: p.index,
		Name:      p.name,
		Triangles: len(p.indices) / 3,
		Vertices:  p.vertexCount,
		Stats:     s,
	}
}

// AnalyzeDocument simulates a FIFO cache of cacheSize entries over every indexed triangle primitive.
func AnalyzeDocument(doc *gltf.Document, cacheSize uint32) ([]PrimitiveStats, error) {
	return AnalyzeDocumentWarps(doc, cacheSize, 0, 0)
}

// AnalyzeDocumentWarps is AnalyzeDocument with warp and primitive group flushes,
// see vcache.AnalyzeVertexCache.
func AnalyzeDocumentWarps(doc *gltf.Document, cacheSize, warpSize, primGroupSize uint32) ([]PrimitiveStats, error) {
	prims, _, err := triangleLists(doc)
	if err != nil {
		return nil, err
	}
	out := make([]PrimitiveStats, 0, len(prims))
	for _, p := range prims {
		s, err := vcache.AnalyzeVertexCache(p.indices, p.vertexCount, cacheSize, warpSize, primGroupSize)
		if err != nil {
			return nil, fmt.Errorf("mesh %d primitive %d: %w", p.mesh, p.index, err)
		}
		out = append(out, p.stats(s))
	}
	return out, nil
}

// OptimizeDocument reorders the triangles of every indexed triangle primitive of doc.
// Index data is rewritten inside its existing buffer view when possible, keeping the
// component type; otherwise a new index accessor is appended.
// analyzeCacheSize is the FIFO size used for the before/after statistics.
func OptimizeDocument(doc *gltf.Document, opts vcache.Options, analyzeCacheSize uint32) (Report, error) {
	var report Report

	prims, skipped, err := triangleLists(doc)
	if err != nil {
		return report, err
	}
	report.Skipped = skipped

	for _, p := range prims {
		before, err := vcache.AnalyzeVertexCache(p.indices, p.vertexCount, analyzeCacheSize, 0, 0)
		if err != nil {
			return report, fmt.Errorf("mesh %d primitive %d: %w", p.mesh, p.index, err)
		}

		optimized := make([]uint32, len(p.indices))
		if err := opts.Optimize(optimized, p.indices, p.vertexCount); err != nil {
			return report, fmt.Errorf("mesh %d primitive %d: %w", p.mesh, p.index, err)
		}
		if len(p.indices) == 0 || p.vertexCount == 0 {
			copy(optimized, p.indices)
		}

		if err := writeIndices(doc, doc.Accessors[p.accessor], optimized); err != nil {
			acc := modeler.WriteIndices(doc, optimized)
			rewireIndices(doc, p.accessor, acc)
		}

		after, err := vcache.AnalyzeVertexCache(optimized, p.vertexCount, analyzeCacheSize, 0, 0)
		if err != nil {
			return report, err
		}
		report.Primitives = append(report.Primitives, PrimitiveReport{PrimitiveStats: p.stats(before), After: after})
	}
	return report, nil
}

// rewireIndices points every primitive using accessor from at accessor to.
func rewireIndices(doc *gltf.Document, from, to int) {
	for _, m := range doc.Meshes {
		for _, prim := range m.Primitives {
			if prim.Indices != nil && *prim.Indices == from {
				prim.Indices = gltf.Index(to)
			}
		}
	}
}

func componentSize(ct gltf.ComponentType) int {
	switch ct {
	case gltf.ComponentUbyte:
		return 1
	case gltf.ComponentUshort:
		return 2
	case gltf.ComponentUint:
		return 4
	default:
		return 0
	}
}

// writeIndices overwrites the bytes behind acc with indices, which must have acc's element count.
func writeIndices(doc *gltf.Document, acc *gltf.Accessor, indices []uint32) error {
	if acc.BufferView == nil || acc.Sparse != nil || acc.Count != len(indices) {
		return errNotWritable
	}
	size := componentSize(acc.ComponentType)
	if size == 0 {
		return errNotWritable
	}
	bv := doc.BufferViews[*acc.BufferView]
	if bv.Buffer >= len(doc.Buffers) {
		return errNotWritable
	}
	data := doc.Buffers[bv.Buffer].Data

	stride := bv.ByteStride
	if stride == 0 {
		stride = size
	}
	start := bv.ByteOffset + acc.ByteOffset
	if len(indices) > 0 {
		end := start + (len(indices)-1)*stride + size
		if end > len(data) || end > bv.ByteOffset+bv.ByteLength {
			return errNotWritable
		}
	}

	for i, v := range indices {
		off := start + i*stride
		switch size {
		case 1:
			data[off] = uint8(v)
		case 2:
			binary.LittleEndian.PutUint16(data[off:], uint16(v))
		case 4:
			binary.LittleEndian.PutUint32(data[off:], v)
		}
	}
	return nil
}

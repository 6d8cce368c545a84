package gltfio

import (
	"github.com/chewxy/math32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/voxelsplace/vcache/mesh"
	"github.com/voxelsplace/vcache/voxel"
)

// Named is a mesh with the node name it is exported under.
type Named struct {
	Name string
	Mesh *mesh.Mesh
}

// FromMesh builds a single-node document for m with palette vertex colors.
// Triangle order is kept as is, so an optimized mesh exports optimized.
func FromMesh(m *mesh.Mesh, name string) *gltf.Document {
	return FromMeshes([]Named{{Name: name, Mesh: m}}, 0)
}

// FromMeshes builds one node per mesh, laid out on a square grid in the XZ plane
// with spacing units between node origins. All meshes share one material.
func FromMeshes(items []Named, spacing float32) *gltf.Document {
	doc := gltf.NewDocument()
	doc.Asset.Generator = "vcachetool"

	pbr := &gltf.PBRMetallicRoughness{
		BaseColorFactor: &[4]float64{1, 1, 1, 1},
		MetallicFactor:  gltf.Float(0),
		RoughnessFactor: gltf.Float(1),
	}
	material := &gltf.Material{PBRMetallicRoughness: pbr, AlphaMode: gltf.AlphaOpaque}
	doc.Materials = []*gltf.Material{material}

	cols := int(math32.Ceil(math32.Sqrt(float32(len(items)))))
	for i, it := range items {
		prim, hasAlpha := writePrimitive(doc, it.Mesh)
		if hasAlpha {
			material.AlphaMode = gltf.AlphaBlend
		}
		prim.Material = gltf.Index(0)

		doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: it.Name, Primitives: []*gltf.Primitive{prim}})
		node := &gltf.Node{Name: it.Name, Mesh: gltf.Index(len(doc.Meshes) - 1)}
		if spacing != 0 {
			s := float64(spacing)
			node.Translation = [3]float64{float64(i%cols) * s, 0, float64(i/cols) * s}
		}
		doc.Nodes = append(doc.Nodes, node)
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	}
	return doc
}

func writePrimitive(doc *gltf.Document, m *mesh.Mesh) (*gltf.Primitive, bool) {
	positions := m.Positions()
	colors := make([][4]float32, len(m.Vertices))
	hasAlpha := false
	for i, v := range m.Vertices {
		colors[i] = voxel.RGBA(v.Color)
		if colors[i][3] < 1.0 {
			hasAlpha = true
		}
	}

	indices := make([]uint32, len(m.Indices))
	copy(indices, m.Indices)

	prim := &gltf.Primitive{
		Attributes: gltf.PrimitiveAttributes{
			gltf.POSITION: modeler.WritePosition(doc, positions),
			gltf.NORMAL:   modeler.WriteNormal(doc, vertexNormals(positions, indices)),
			gltf.COLOR_0:  modeler.WriteColor(doc, colors),
		},
		Indices: gltf.Index(modeler.WriteIndices(doc, indices)),
	}
	return prim, hasAlpha
}

// vertexNormals accumulates area weighted face normals per welded vertex.
func vertexNormals(positions [][3]float32, indices []uint32) [][3]float32 {
	normals := make([][3]float32, len(positions))
	for i := 0; i+2 < len(indices); i += 3 {
		v0, v1, v2 := indices[i], indices[i+1], indices[i+2]
		p0, p1, p2 := positions[v0], positions[v1], positions[v2]
		e1 := [3]float32{p1[0] - p0[0], p1[1] - p0[1], p1[2] - p0[2]}
		e2 := [3]float32{p2[0] - p0[0], p2[1] - p0[1], p2[2] - p0[2]}
		n := [3]float32{
			e1[1]*e2[2] - e1[2]*e2[1],
			e1[2]*e2[0] - e1[0]*e2[2],
			e1[0]*e2[1] - e1[1]*e2[0],
		}
		for _, v := range [3]uint32{v0, v1, v2} {
			normals[v][0] += n[0]
			normals[v][1] += n[1]
			normals[v][2] += n[2]
		}
	}
	for i, n := range normals {
		length := math32.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
		if length > 0 {
			normals[i] = [3]float32{n[0] / length, n[1] / length, n[2] / length}
		}
	}
	return normals
}

// Package api exposes the optimizer over in-memory blobs for the wasm bridge and other embedders.
package api

import (
	"fmt"
	"math/rand"

	"github.com/voxelsplace/vcache/gltfio"
	"github.com/voxelsplace/vcache/mesh"
	"github.com/voxelsplace/vcache/vcache"
	"github.com/voxelsplace/vcache/voxel"
)

// ReportCacheSize is the FIFO size used for before/after statistics.
const ReportCacheSize = 16

// OptimizeGLB reorders every indexed triangle primitive of a .glb blob and returns the new blob.
func OptimizeGLB(glb []byte, opts vcache.Options) ([]byte, gltfio.Report, error) {
	doc, err := gltfio.DecodeGLB(glb)
	if err != nil {
		return nil, gltfio.Report{}, fmt.Errorf("failed to decode glb: %w", err)
	}
	report, err := gltfio.OptimizeDocument(doc, opts, ReportCacheSize)
	if err != nil {
		return nil, report, err
	}
	out, err := gltfio.EncodeGLB(doc)
	if err != nil {
		return nil, report, fmt.Errorf("failed to encode glb: %w", err)
	}
	return out, report, nil
}

// AnalyzeGLB reports the cache behavior of every indexed triangle primitive of a .glb blob.
func AnalyzeGLB(glb []byte, cacheSize uint32) ([]gltfio.PrimitiveStats, error) {
	doc, err := gltfio.DecodeGLB(glb)
	if err != nil {
		return nil, fmt.Errorf("failed to decode glb: %w", err)
	}
	return gltfio.AnalyzeDocument(doc, cacheSize)
}

// VCMToGLB converts a .vcm blob to a .glb blob, keeping its triangle order.
func VCMToGLB(vcm []byte) ([]byte, error) {
	m, _, err := mesh.Unmarshal(vcm)
	if err != nil {
		return nil, err
	}
	return gltfio.EncodeGLB(gltfio.FromMesh(m, "ChunkMesh"))
}

// NoiseVCM meshes a random voxel chunk, optimizes it with opts and returns it as a .vcm blob.
func NoiseVCM(percentage float64, seed int64, opts vcache.Options, comp mesh.Compression) ([]byte, error) {
	m := voxel.Mesh(voxel.NoiseGrid(percentage, rand.New(rand.NewSource(seed))))
	if err := m.Optimize(opts); err != nil {
		return nil, err
	}
	return mesh.Marshal(m, comp, mesh.OrderingOf(opts.Algorithm))
}

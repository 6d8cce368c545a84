//go:build js && wasm

package main

import (
	"fmt"
	"math"
	"syscall/js"

	"github.com/voxelsplace/vcache/api"
	"github.com/voxelsplace/vcache/gltfio"
	"github.com/voxelsplace/vcache/vcache"
)

func bytesFromJS(v js.Value) []byte {
	buf := make([]byte, v.Get("length").Int())
	js.CopyBytesToGo(buf, v)
	return buf
}

func bytesToJS(b []byte) js.Value {
	uint8arr := js.Global().Get("Uint8Array").New(len(b))
	js.CopyBytesToJS(uint8arr, b)
	return uint8arr
}

func statsToJS(s gltfio.PrimitiveStats, after *vcache.VertexCacheStatistics) js.Value {
	obj := js.Global().Get("Object").New()
	obj.Set("mesh", s.Mesh)
	obj.Set("primitive", s.Primitive)
	obj.Set("name", s.Name)
	obj.Set("triangles", s.Triangles)
	obj.Set("vertices", s.Vertices)
	obj.Set("acmr", s.Stats.ACMR)
	obj.Set("atvr", s.Stats.ATVR)
	if after != nil {
		obj.Set("acmrAfter", after.ACMR)
		obj.Set("atvrAfter", after.ATVR)
	}
	return obj
}

// cacheSizeFromJS reads an optional positive cache size argument.
func cacheSizeFromJS(v js.Value, def uint32) (uint32, error) {
	if v.Type() != js.TypeNumber {
		return def, nil
	}
	n := v.Int()
	if n <= 0 || n >= math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d", vcache.ErrCacheSize, n)
	}
	return uint32(n), nil
}

// optimizeGLB(bytes, algorithm?, cacheSize?) -> {glb, primitives, skipped}
func optimizeGLB(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing glb bytes")
	}
	opts := vcache.DefaultOptions()
	if len(args) > 1 && args[1].Type() == js.TypeString {
		alg, err := vcache.ParseAlgorithm(args[1].String())
		if err != nil {
			return js.ValueOf(err.Error())
		}
		opts.Algorithm = alg
	}
	if len(args) > 2 {
		n, err := cacheSizeFromJS(args[2], opts.CacheSize)
		if err != nil {
			return js.ValueOf(err.Error())
		}
		opts.CacheSize = n
	}

	out, report, err := api.OptimizeGLB(bytesFromJS(args[0]), opts)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	prims := js.Global().Get("Array").New(len(report.Primitives))
	for i, p := range report.Primitives {
		prims.SetIndex(i, statsToJS(p.PrimitiveStats, &p.After))
	}
	result := js.Global().Get("Object").New()
	result.Set("glb", bytesToJS(out))
	result.Set("primitives", prims)
	result.Set("skipped", report.Skipped)
	return result
}

// analyzeGLB(bytes, cacheSize?) -> [stats]
func analyzeGLB(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing glb bytes")
	}
	cacheSize := uint32(api.ReportCacheSize)
	if len(args) > 1 {
		n, err := cacheSizeFromJS(args[1], cacheSize)
		if err != nil {
			return js.ValueOf(err.Error())
		}
		cacheSize = n
	}
	stats, err := api.AnalyzeGLB(bytesFromJS(args[0]), cacheSize)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	out := js.Global().Get("Array").New(len(stats))
	for i, s := range stats {
		out.SetIndex(i, statsToJS(s, nil))
	}
	return out
}

func vcm2glb(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing vcm bytes")
	}
	out, err := api.VCMToGLB(bytesFromJS(args[0]))
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return bytesToJS(out)
}

func main() {
	js.Global().Set("optimizeGLB", js.FuncOf(optimizeGLB))
	js.Global().Set("analyzeGLB", js.FuncOf(analyzeGLB))
	js.Global().Set("vcm2glb", js.FuncOf(vcm2glb))
	select {}
}

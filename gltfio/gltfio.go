// Package gltfio applies vertex cache optimization to glTF documents.
package gltfio

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
)

var errNotWritable = errors.New("gltfio: index accessor cannot be rewritten in place")

// Open reads a .gltf or .glb file, including external buffers.
func Open(path string) (*gltf.Document, error) {
	return gltf.Open(path)
}

// Save writes doc as binary glTF when path ends in .glb and as JSON glTF otherwise.
func Save(doc *gltf.Document, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".glb") {
		return gltf.SaveBinary(doc, path)
	}
	// buffers built in memory have no URI; embed them so the JSON stays self-contained
	for _, b := range doc.Buffers {
		if b.URI == "" {
			b.EmbeddedResource()
		}
	}
	return gltf.Save(doc, path)
}

// EncodeGLB serializes doc as a binary glTF blob.
func EncodeGLB(doc *gltf.Document) ([]byte, error) {
	var out bytes.Buffer
	enc := gltf.NewEncoder(&out)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// DecodeGLB parses a self-contained glTF blob (binary, or JSON with embedded buffers).
func DecodeGLB(data []byte) (*gltf.Document, error) {
	doc := gltf.NewDocument()
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

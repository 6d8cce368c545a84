package vcache

import (
	"errors"
	"fmt"
)

var (
	ErrIndexCount      = errors.New("vcache: index count is not a multiple of 3")
	ErrIndexOutOfRange = errors.New("vcache: index out of vertex range")
	ErrDestinationSize = errors.New("vcache: destination shorter than index buffer")
	ErrCacheSize       = errors.New("vcache: unsupported cache size")
)

// checkIndices validates the index buffer against vertexCount before any output is written.
func checkIndices(indices []uint32, vertexCount int) error {
	for i, v := range indices {
		if uint64(v) >= uint64(vertexCount) {
			return fmt.Errorf("%w: indices[%d] = %d, vertex count %d", ErrIndexOutOfRange, i, v, vertexCount)
		}
	}
	return nil
}

// prepare runs the shared precondition checks and returns the source to read from,
// which is a private copy when destination and indices share storage.
// A nil source with a nil error means there is nothing to do.
func prepare(destination, indices []uint32, vertexCount int) ([]uint32, error) {
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w (got %d)", ErrIndexCount, len(indices))
	}
	if len(indices) == 0 || vertexCount <= 0 {
		return nil, nil
	}
	if len(destination) < len(indices) {
		return nil, fmt.Errorf("%w: %d < %d", ErrDestinationSize, len(destination), len(indices))
	}
	if err := checkIndices(indices, vertexCount); err != nil {
		return nil, err
	}

	if &destination[0] == &indices[0] {
		src := make([]uint32, len(indices))
		copy(src, indices)
		return src, nil
	}
	return indices, nil
}

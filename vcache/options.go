package vcache

import (
	"fmt"
	"strings"
)

// Algorithm names a reordering strategy.
type Algorithm string

const (
	AlgorithmGreedy Algorithm = "greedy"
	AlgorithmFifo   Algorithm = "fifo"
)

// ParseAlgorithm accepts the algorithm names case-insensitively.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(s))); a {
	case AlgorithmGreedy, AlgorithmFifo:
		return a, nil
	default:
		return "", fmt.Errorf("vcache: unknown algorithm %q (want %q or %q)", s, AlgorithmGreedy, AlgorithmFifo)
	}
}

// Options selects the algorithm used by Optimize. CacheSize only applies to the FIFO variant;
// the greedy variant always simulates 16 entries.
type Options struct {
	Algorithm Algorithm
	CacheSize uint32
}

// DefaultOptions returns the greedy optimizer with a 16 entry cache.
func DefaultOptions() Options {
	return Options{Algorithm: AlgorithmGreedy, CacheSize: cacheSize}
}

// Optimize dispatches to OptimizeVertexCache or OptimizeVertexCacheFifo.
func (o Options) Optimize(destination, indices []uint32, vertexCount int) error {
	switch o.Algorithm {
	case AlgorithmGreedy, "":
		return OptimizeVertexCache(destination, indices, vertexCount)
	case AlgorithmFifo:
		return OptimizeVertexCacheFifo(destination, indices, vertexCount, o.CacheSize)
	default:
		return fmt.Errorf("vcache: unknown algorithm %q", o.Algorithm)
	}
}

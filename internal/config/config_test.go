package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxelsplace/vcache/mesh"
	"github.com/voxelsplace/vcache/vcache"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, vcache.DefaultOptions(), cfg.Options())
	assert.Equal(t, mesh.CompZstd, cfg.Compression())
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vcache.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[optimize]
algorithm = "FIFO"
cache_size = 24

[analyze]
warp_size = 32

[container]
compression = "zlib"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, vcache.Options{Algorithm: vcache.AlgorithmFifo, CacheSize: 24}, cfg.Options())
	assert.Equal(t, uint32(16), cfg.Analyze.CacheSize, "unset keys keep defaults")
	assert.Equal(t, uint32(32), cfg.Analyze.WarpSize)
	assert.Equal(t, mesh.CompZlib, cfg.Compression())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown key", "[optimize]\ncache_sizes = 3\n"},
		{"unknown section", "[render]\nx = 1\n"},
		{"bad algorithm", "[optimize]\nalgorithm = \"tipsy\"\n"},
		{"small cache", "[optimize]\ncache_size = 2\n"},
		{"zero analyze cache", "[analyze]\ncache_size = 0\n"},
		{"small warp", "[analyze]\nwarp_size = 2\n"},
		{"bad compression", "[container]\ncompression = \"lz4\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), Default())
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}

	_, err := Parse([]byte("[optimize\n"), Default())
	assert.Error(t, err)
}

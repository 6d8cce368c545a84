// Package config loads the optional vcachetool TOML settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/voxelsplace/vcache/mesh"
	"github.com/voxelsplace/vcache/vcache"
)

// ErrInvalid wraps every validation and unknown-key error.
var ErrInvalid = errors.New("config: invalid value")

// Optimize selects the reordering algorithm.
type Optimize struct {
	Algorithm string `toml:"algorithm"`
	CacheSize uint32 `toml:"cache_size"`
}

// Analyze configures the simulated cache used for statistics.
type Analyze struct {
	CacheSize     uint32 `toml:"cache_size"`
	WarpSize      uint32 `toml:"warp_size"`
	PrimGroupSize uint32 `toml:"primgroup_size"`
}

// Container picks the .vcm payload codec.
type Container struct {
	Compression string `toml:"compression"`
}

// Config mirrors the file layout:
//
//	[optimize]
//	algorithm = "greedy"
//	cache_size = 16
//
//	[analyze]
//	cache_size = 16
//	warp_size = 0
//	primgroup_size = 0
//
//	[container]
//	compression = "zstd"
type Config struct {
	Optimize  Optimize  `toml:"optimize"`
	Analyze   Analyze   `toml:"analyze"`
	Container Container `toml:"container"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	opts := vcache.DefaultOptions()
	return Config{
		Optimize:  Optimize{Algorithm: string(opts.Algorithm), CacheSize: opts.CacheSize},
		Analyze:   Analyze{CacheSize: 16},
		Container: Container{Compression: mesh.CompZstd.String()},
	}
}

// Load reads path over Default. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	return Parse(data, cfg)
}

// Parse decodes data over base and rejects keys it does not know.
func Parse(data []byte, base Config) (Config, error) {
	cfg := base
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return base, fmt.Errorf("config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return base, fmt.Errorf("%w: unknown keys %s", ErrInvalid, strings.Join(keys, ", "))
	}
	return cfg, cfg.Validate()
}

// Validate checks every section.
func (c Config) Validate() error {
	if _, err := vcache.ParseAlgorithm(c.Optimize.Algorithm); err != nil {
		return fmt.Errorf("%w: optimize.algorithm: %v", ErrInvalid, err)
	}
	if c.Optimize.CacheSize < 3 {
		return fmt.Errorf("%w: optimize.cache_size must be at least 3, got %d", ErrInvalid, c.Optimize.CacheSize)
	}
	if c.Analyze.CacheSize == 0 {
		return fmt.Errorf("%w: analyze.cache_size must be positive", ErrInvalid)
	}
	if c.Analyze.WarpSize != 0 && c.Analyze.WarpSize < 3 {
		return fmt.Errorf("%w: analyze.warp_size must be 0 or at least 3, got %d", ErrInvalid, c.Analyze.WarpSize)
	}
	if _, err := mesh.ParseCompression(c.Container.Compression); err != nil {
		return fmt.Errorf("%w: container.compression: %v", ErrInvalid, err)
	}
	return nil
}

// Options returns the optimizer settings.
func (c Config) Options() vcache.Options {
	alg, err := vcache.ParseAlgorithm(c.Optimize.Algorithm)
	if err != nil {
		alg = vcache.AlgorithmGreedy
	}
	return vcache.Options{Algorithm: alg, CacheSize: c.Optimize.CacheSize}
}

// Compression returns the container codec, falling back to zstd.
func (c Config) Compression() mesh.Compression {
	comp, err := mesh.ParseCompression(c.Container.Compression)
	if err != nil {
		return mesh.CompZstd
	}
	return comp
}

package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/voxelsplace/vcache/gltfio"
	"github.com/voxelsplace/vcache/mesh"
	"github.com/voxelsplace/vcache/vcache"
)

func isVCM(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".vcm")
}

func newOptimizeCmd() *cobra.Command {
	var (
		algorithm string
		cacheSize uint32
	)

	cmd := &cobra.Command{
		Use:   "optimize <in.glb|in.gltf|in.vcm> <out>",
		Short: "Reorder triangles for vertex cache locality",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg := configFromContext(ctx)

			opts := cfg.Options()
			if cmd.Flags().Changed("algorithm") {
				alg, err := vcache.ParseAlgorithm(algorithm)
				if err != nil {
					return err
				}
				opts.Algorithm = alg
			}
			if cmd.Flags().Changed("cache-size") {
				opts.CacheSize = cacheSize
			}

			in, out := args[0], args[1]
			prog := newProgress(logger)
			if isVCM(in) {
				if !isVCM(out) {
					return fmt.Errorf("output of a .vcm input must be .vcm, got %q", out)
				}
				if err := optimizeVCM(in, out, opts, cfg.Analyze.CacheSize, logger); err != nil {
					return err
				}
			} else if err := optimizeGLTF(in, out, opts, cfg.Analyze.CacheSize, logger); err != nil {
				return err
			}
			prog.done("optimized", "in", in, "out", out, "algorithm", opts.Algorithm)
			return nil
		},
	}

	cmd.Flags().StringVar(&algorithm, "algorithm", string(vcache.AlgorithmGreedy), "greedy or fifo")
	cmd.Flags().Uint32Var(&cacheSize, "cache-size", 16, "FIFO cache size for the fifo algorithm")
	return cmd
}

func optimizeVCM(in, out string, opts vcache.Options, statsCacheSize uint32, logger *log.Logger) error {
	m, hdr, err := mesh.Load(in)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", in, err)
	}
	before, err := m.Analyze(statsCacheSize)
	if err != nil {
		return err
	}
	if err := m.Optimize(opts); err != nil {
		return err
	}
	after, err := m.Analyze(statsCacheSize)
	if err != nil {
		return err
	}
	logger.Info("mesh", "triangles", m.TriangleCount(), "vertices", len(m.Vertices),
		"acmr_before", before.ACMR, "acmr_after", after.ACMR)

	return mesh.Save(m, out, hdr.Comp, mesh.OrderingOf(opts.Algorithm))
}

func optimizeGLTF(in, out string, opts vcache.Options, statsCacheSize uint32, logger *log.Logger) error {
	doc, err := gltfio.Open(in)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", in, err)
	}
	report, err := gltfio.OptimizeDocument(doc, opts, statsCacheSize)
	if err != nil {
		return err
	}
	for _, p := range report.Primitives {
		logger.Info("primitive", "mesh", p.Mesh, "name", p.Name, "primitive", p.Primitive,
			"triangles", p.Triangles, "acmr_before", p.Stats.ACMR, "acmr_after", p.After.ACMR)
	}
	if report.Skipped > 0 {
		logger.Debug("skipped primitives", "count", report.Skipped)
	}
	return gltfio.Save(doc, out)
}

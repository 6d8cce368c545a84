package cli

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxelsplace/vcache/mesh"
	"github.com/voxelsplace/vcache/voxel"
)

// noiseJob describes one gennoise run.
type noiseJob struct {
	minPercentage float64
	maxPercentage float64
	amount        int
	outDir        string
	seed          uint64
	compression   mesh.Compression
}

func newGenNoiseCmd() *cobra.Command {
	var (
		seed        uint64
		compression string
	)

	cmd := &cobra.Command{
		Use:   "gennoise <percentage> <amount> <output_dir> | <percentageMin> <percentageMax> <amount> <output_dir>",
		Short: "Write random voxel chunks as optimized .vcm files",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg := configFromContext(ctx)

			job, err := parseNoiseArgs(args)
			if err != nil {
				return err
			}
			job.compression = cfg.Compression()
			if cmd.Flags().Changed("compression") {
				if job.compression, err = mesh.ParseCompression(compression); err != nil {
					return err
				}
			}
			job.seed = seed
			if !cmd.Flags().Changed("seed") {
				job.seed = uint64(time.Now().UnixNano())
			}
			logger.Debug("gennoise", "seed", job.seed, "compression", job.compression)

			if err := os.MkdirAll(job.outDir, 0o755); err != nil {
				return err
			}
			opts := cfg.Options()
			prog := newProgress(logger)
			for i := 0; i < job.amount; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				r := rand.New(rand.NewSource(voxel.SeedFor(job.seed, i)))
				perc := job.minPercentage
				if job.maxPercentage > job.minPercentage {
					perc += r.Float64() * (job.maxPercentage - job.minPercentage)
				}

				m := voxel.Mesh(voxel.NoiseGrid(perc, r))
				if err := m.Optimize(opts); err != nil {
					return err
				}
				path := filepath.Join(job.outDir, fmt.Sprintf("%d.vcm", i))
				if err := mesh.Save(m, path, job.compression, mesh.OrderingOf(opts.Algorithm)); err != nil {
					return fmt.Errorf("failed to save %s: %w", path, err)
				}
				logger.Debug("wrote chunk", "path", path, "fill", perc, "triangles", m.TriangleCount())
			}
			prog.done("generated chunks", "amount", job.amount, "dir", job.outDir)
			return nil
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 0, "base seed; defaults to the current time")
	cmd.Flags().StringVar(&compression, "compression", "zstd", "payload codec: none, zlib or zstd")
	return cmd
}

func parseNoiseArgs(args []string) (noiseJob, error) {
	var job noiseJob
	floats := args[:len(args)-2]
	pcts := make([]float64, len(floats))
	for i, a := range floats {
		p, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return job, fmt.Errorf("invalid percentage %q: %w", a, err)
		}
		pcts[i] = max(0, min(100, p))
	}
	job.minPercentage, job.maxPercentage = pcts[0], pcts[len(pcts)-1]
	if job.maxPercentage < job.minPercentage {
		job.minPercentage, job.maxPercentage = job.maxPercentage, job.minPercentage
	}

	amount, err := strconv.Atoi(args[len(args)-2])
	if err != nil {
		return job, fmt.Errorf("invalid amount %q: %w", args[len(args)-2], err)
	}
	job.amount = max(0, amount)

	job.outDir = args[len(args)-1]
	if job.outDir == "" {
		job.outDir = "."
	}
	return job, nil
}

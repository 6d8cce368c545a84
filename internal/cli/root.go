// Package cli implements the vcachetool command-line interface.
//
// Commands:
//   - optimize: reorder the triangles of a .glb, .gltf or .vcm file for vertex cache locality
//   - analyze: report simulated cache statistics of a mesh file
//   - gennoise: write random voxel chunks as optimized .vcm files
//   - vcm2glb: convert a .vcm file to binary glTF
//
// Every command accepts --verbose (-v) for debug logging and --config for a TOML settings file.
// The logger and the loaded settings travel through context.Context.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/voxelsplace/vcache/internal/config"
)

// version is shown by --version; release builds set it with -ldflags "-X".
var version = "dev"

// Execute runs the CLI with the process arguments.
func Execute(ctx context.Context) error {
	return newRootCmd(os.Stderr).ExecuteContext(ctx)
}

func newRootCmd(logOut io.Writer) *cobra.Command {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:           "vcachetool",
		Short:         "vcachetool reorders mesh triangles for GPU vertex cache locality",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			logger := newLogger(logOut, level)

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if configPath != "" {
				logger.Debug("loaded config", "path", configPath)
			}

			ctx := withLogger(cmd.Context(), logger)
			cmd.SetContext(context.WithValue(ctx, configKey, cfg))
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML settings file")

	root.AddCommand(newOptimizeCmd())
	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newGenNoiseCmd())
	root.AddCommand(newVCM2GLBCmd())

	return root
}

// configFromContext returns the settings loaded by the root command, or the defaults.
func configFromContext(ctx context.Context) config.Config {
	if cfg, ok := ctx.Value(configKey).(config.Config); ok {
		return cfg
	}
	return config.Default()
}

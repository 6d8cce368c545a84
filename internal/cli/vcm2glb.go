package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voxelsplace/vcache/gltfio"
	"github.com/voxelsplace/vcache/mesh"
	"github.com/voxelsplace/vcache/voxel"
)

func newVCM2GLBCmd() *cobra.Command {
	var spacing float32

	cmd := &cobra.Command{
		Use:   "vcm2glb <in.vcm> [in.vcm ...] <out.glb>",
		Short: "Convert .vcm meshes to glTF, one node each, keeping their triangle order",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			inputs, out := args[:len(args)-1], args[len(args)-1]

			items := make([]gltfio.Named, 0, len(inputs))
			for _, in := range inputs {
				if err := ctx.Err(); err != nil {
					return err
				}
				m, hdr, err := mesh.Load(in)
				if err != nil {
					return fmt.Errorf("failed to load %s: %w", in, err)
				}
				name := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
				items = append(items, gltfio.Named{Name: name, Mesh: m})
				logger.Debug("loaded", "path", in, "triangles", m.TriangleCount(), "ordering", hdr.Ordering)
			}
			if err := gltfio.Save(gltfio.FromMeshes(items, spacing), out); err != nil {
				return err
			}
			logger.Info("converted", "meshes", len(items), "out", out)
			return nil
		},
	}

	cmd.Flags().Float32Var(&spacing, "spacing", voxel.Width, "distance between node origins when converting several meshes")
	return cmd
}

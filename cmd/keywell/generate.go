package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/keywell/keywell"
	"github.com/soypat/sdf"
	"github.com/spf13/cobra"
)

func generateCmd() *cobra.Command {
	var (
		outDir     string
		resolution float64
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "mesh the case halves and bottom plate to STL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if resolution > 0 {
				cfg.Preview.Resolution = resolution
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			layout, err := keywell.SolveLayout(cfg)
			if err != nil {
				return err
			}
			solids, err := keywell.BuildCase(cfg, layout)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			mesher := keywell.NewMesher(0)
			defer mesher.Close()

			parts := []struct {
				name  string
				solid sdf.SDF3
			}{
				{"right.stl", solids.RightHalf},
				{"left.stl", solids.LeftHalf},
				{"bottom_plate.stl", solids.BottomPlate},
			}
			for _, part := range parts {
				mesh, err := mesher.Mesh(ctx, part.solid, cfg.Preview.Resolution)
				if err != nil {
					return fmt.Errorf("%s: %w", part.name, err)
				}
				path := filepath.Join(outDir, part.name)
				if err := keywell.SaveSTL(path, mesh); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d triangles\n", path, mesh.TriangleCount())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	cmd.Flags().Float64VarP(&resolution, "resolution", "r", 0, "override the configured mesh resolution (mm)")
	return cmd
}

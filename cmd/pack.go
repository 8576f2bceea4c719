package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TFMV/devarchive/internal/archiver"
	"github.com/TFMV/devarchive/internal/gfx"
	"github.com/TFMV/devarchive/internal/walker"
)

var packCmd = &cobra.Command{
	Use:   "pack <shader-dir>",
	Short: "Pack a directory of shader files into a shader-library archive",
	Long: `pack walks a directory tree for shader sources and bytecode (.hlsl,
.glsl, .vert, .frag, .comp, .metal, .spv), deduplicates them by content,
and writes an archive holding the debug chunk and a shaders chunk for the
selected backend.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		output, _ := cmd.Flags().GetString("output")
		backendName, _ := cmd.Flags().GetString("backend")
		commit, _ := cmd.Flags().GetString("commit")
		if output == "" {
			return fmt.Errorf("--output must be specified")
		}
		backend, err := gfx.ParseBackend(backendName)
		if err != nil {
			return err
		}

		shaders, err := walker.Walk(ctx, args[0], walker.DefaultWalkOptions())
		if err != nil {
			return err
		}
		if len(shaders) == 0 {
			return fmt.Errorf("no shader files found under %s", args[0])
		}

		a := archiver.New(nil)
		a.SetCommitHash(commit)
		unique := make(map[uint32]struct{})
		for _, sh := range shaders {
			idx := a.SerializeShader(backend, &sh.CI, sh.Payload)
			unique[idx] = struct{}{}
		}

		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := a.SerializeToStream(f); err != nil {
			return err
		}

		fmt.Printf("Packed %d shader files (%d unique) into %s\n", len(shaders), len(unique), output)
		return nil
	},
}

func init() {
	packCmd.Flags().String("output", "", "Output archive path")
	packCmd.Flags().String("backend", defaultBackend, "Backend the shaders belong to")
	packCmd.Flags().String("commit", "", "Source commit recorded in the debug chunk")
	RootCmd.AddCommand(packCmd)
}

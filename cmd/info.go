package cmd

import (
	"fmt"
	"os"

	kitlog "github.com/go-kit/log"
	"github.com/spf13/cobra"

	"github.com/TFMV/devarchive/internal/blob"
	"github.com/TFMV/devarchive/internal/dearchiver"
	"github.com/TFMV/devarchive/internal/gfx"
	"github.com/TFMV/devarchive/internal/layout"
)

func openArchive(path, backendName string) (*dearchiver.Dearchiver, *blob.FileSource, error) {
	backend, err := gfx.ParseBackend(backendName)
	if err != nil {
		return nil, nil, err
	}
	src, err := blob.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	logger := kitlog.NewLogfmtLogger(os.Stderr)
	d, err := dearchiver.New(src, backend, logger)
	if err != nil {
		src.Close()
		return nil, nil, err
	}
	return d, src, nil
}

var infoCmd = &cobra.Command{
	Use:   "info <archive>",
	Short: "Show archive header, debug info, and content summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backendName, _ := cmd.Flags().GetString("backend")
		d, src, err := openArchive(args[0], backendName)
		if err != nil {
			return err
		}
		defer src.Close()

		info := d.DebugInfo()
		fmt.Printf("Archive: %s (%d bytes)\n", args[0], src.Size())
		fmt.Printf("Engine API version: 0x%08X\n", info.APIVersion)
		if info.CommitHash != "" {
			fmt.Printf("Built from commit: %s\n", info.CommitHash)
		}

		counts := make(map[layout.ChunkKind]int)
		for _, res := range d.Resources() {
			counts[res.Kind]++
		}
		for kind := layout.ChunkKind(0); kind < layout.ChunkCount; kind++ {
			if n := counts[kind]; n > 0 {
				fmt.Printf("%-22s %d\n", kind.String()+":", n)
			}
		}
		if n := d.ShaderCount(); n > 0 {
			fmt.Printf("%-22s %d (%s)\n", "shaders:", n, d.Backend())
		}

		bases := d.BlockBaseOffsets()
		for b := gfx.Backend(0); b < gfx.BackendCount; b++ {
			if bases[b] != layout.InvalidOffset {
				fmt.Printf("%s block at offset %d\n", b, bases[b])
			}
		}
		return nil
	},
}

func init() {
	infoCmd.Flags().String("backend", defaultBackend, "Backend whose data to inspect")
	RootCmd.AddCommand(infoCmd)
}

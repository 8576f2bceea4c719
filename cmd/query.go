package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	kitlog "github.com/go-kit/log"
	"github.com/spf13/cobra"

	"github.com/TFMV/devarchive/internal/dearchiver"
	"github.com/TFMV/devarchive/internal/gfx"
	"github.com/TFMV/devarchive/internal/metadata"
	"github.com/TFMV/devarchive/internal/storage"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the metadata index of an archive store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		storeDir, _ := cmd.Flags().GetString("store")
		if storeDir == "" {
			return fmt.Errorf("--store must be specified")
		}
		logger := kitlog.NewLogfmtLogger(os.Stderr)

		store, err := storage.NewArchiveStore(storeDir)
		if err != nil {
			return err
		}
		defer store.Close()

		meta, err := metadata.New(filepath.Join(storeDir, "metadata.db"), metadata.DefaultOptions())
		if err != nil {
			return err
		}
		defer meta.Close()

		names, err := store.ListArchives()
		if err != nil {
			return err
		}
		for _, name := range names {
			src, err := store.OpenArchive(name)
			if err != nil {
				return err
			}
			d, err := dearchiver.New(src, gfx.Vulkan, logger)
			if err != nil {
				logger.Log("msg", "skipping unreadable archive", "archive", name, "err", err)
				continue
			}
			digest, err := store.Digest(name)
			if err != nil {
				return err
			}

			resources := d.Resources()
			if err := meta.PutArchive(name, metadata.ArchiveMetadata{
				Digest:      digest,
				ChunkCount:  len(resources),
				ShaderCount: d.ShaderCount(),
			}); err != nil {
				return err
			}
			for _, res := range resources {
				err := meta.PutResource(name, res.Kind.String(), res.Name, metadata.ResourceMetadata{
					Kind: res.Kind.String(),
					Size: res.Size,
				})
				if err != nil {
					return err
				}
			}
			fmt.Printf("indexed %s: %d resources\n", name, len(resources))
		}
		return nil
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <name-substring>",
	Short: "Find resources across the archives of a store",
	Long: `query searches the store's metadata index for resources whose name
contains the given substring. With --exact, archives are scanned with a
per-archive bloom filter over resource names instead of the index.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		storeDir, _ := cmd.Flags().GetString("store")
		exact, _ := cmd.Flags().GetBool("exact")
		if storeDir == "" {
			return fmt.Errorf("--store must be specified")
		}
		pattern := ""
		if len(args) > 0 {
			pattern = args[0]
		}

		if exact {
			return queryExact(storeDir, pattern)
		}

		meta, err := metadata.New(filepath.Join(storeDir, "metadata.db"), metadata.DefaultOptions())
		if err != nil {
			return err
		}
		defer meta.Close()

		matches, err := meta.FindResources(pattern)
		if err != nil {
			return err
		}
		for _, m := range matches {
			fmt.Printf("%-20s %-22s %-40s %8d bytes\n", m.Archive, m.Kind, m.Name, m.Size)
		}
		return nil
	},
}

// queryExact scans the store's archives directly, skipping archives
// whose bloom filter rules the name out.
func queryExact(storeDir, name string) error {
	store, err := storage.NewArchiveStore(storeDir)
	if err != nil {
		return err
	}
	defer store.Close()

	archives, err := store.ListArchives()
	if err != nil {
		return err
	}
	for _, archive := range archives {
		src, err := store.OpenArchive(archive)
		if err != nil {
			return err
		}
		d, err := dearchiver.New(src, gfx.Vulkan, nil)
		if err != nil {
			continue
		}

		var names []string
		for _, res := range d.Resources() {
			names = append(names, res.Name)
		}
		filter := storage.NewBloomFilterFromNames(names)
		if !filter.Contains([]byte(name)) {
			continue
		}
		for _, res := range d.Resources() {
			if res.Name == name {
				fmt.Printf("%-20s %-22s %-40s %8d bytes\n", archive, res.Kind, res.Name, res.Size)
			}
		}
	}
	return nil
}

func init() {
	indexCmd.Flags().String("store", "", "Archive store directory")
	queryCmd.Flags().String("store", "", "Archive store directory")
	queryCmd.Flags().Bool("exact", false, "Match the full resource name via bloom-filtered scan")
	RootCmd.AddCommand(indexCmd)
	RootCmd.AddCommand(queryCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TFMV/devarchive/internal/hash"
)

var digestCmd = &cobra.Command{
	Use:   "digest <archive>...",
	Short: "Print the BLAKE3 digest of archive files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			sum, err := hash.File(path, hash.BLAKE3)
			if err != nil {
				return err
			}
			fmt.Printf("%s  %s\n", sum, path)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(digestCmd)
}

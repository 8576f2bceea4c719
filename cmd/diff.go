package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/TFMV/devarchive/internal/diff"
)

var diffCmd = &cobra.Command{
	Use:   "diff <old> <new>",
	Short: "Compare the contents of two archives",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		oldFile, newFile := args[0], args[1]

		log.Printf("Comparing archives: %s and %s", oldFile, newFile)
		start := time.Now()

		diffs, err := diff.Compare(ctx, oldFile, newFile)
		if err != nil {
			return err
		}

		for _, d := range diffs {
			fmt.Println(d)
		}
		log.Printf("Found %d differences in %v", len(diffs), time.Since(start))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(diffCmd)
}

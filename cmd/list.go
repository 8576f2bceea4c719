package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <archive>",
	Short: "List the named resources stored in an archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backendName, _ := cmd.Flags().GetString("backend")
		d, src, err := openArchive(args[0], backendName)
		if err != nil {
			return err
		}
		defer src.Close()

		for _, res := range d.Resources() {
			fmt.Printf("%-22s %-40s %8d bytes\n", res.Kind, res.Name, res.Size)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().String("backend", defaultBackend, "Backend whose data to inspect")
	RootCmd.AddCommand(listCmd)
}

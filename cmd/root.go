package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// RootCmd is the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "devarchive",
	Short: "Device Object Archive Tool",
	Long: `devarchive inspects and builds device-object archives: binary containers
of serialized graphics pipelines, resource signatures, render passes, and
per-backend shader data.`,
}

// Execute executes the root command.
func Execute() error {
	return RootCmd.Execute()
}

// ExecuteWithContext executes the root command with the given context.
func ExecuteWithContext(ctx context.Context) error {
	RootCmd.SetContext(ctx)
	return RootCmd.Execute()
}

// defaultBackend is the backend inspection commands assume when
// --backend is not given.
const defaultBackend = "vulkan"

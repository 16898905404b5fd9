package client

import (
	logpkg "github.com/rzbill/flightreview/pkg/log"
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command holding every client command.
func NewRoot(logger logpkg.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "flightreview",
		Short: "flightreview client commands",
	}
	AddPersistentFlags(root)
	AddCommands(root, logger)
	return root
}

// AddPersistentFlags registers the configuration flags shared by the local
// commands.
func AddPersistentFlags(root *cobra.Command) {
	root.PersistentFlags().String("config", "", "Config file (.json, .yaml)")
	root.PersistentFlags().String("log-dir", "", "Directory holding {id}.ulg files")
	root.PersistentFlags().String("metadata-backend", "", "Metadata backend: sqlite|pebble|none")
	root.PersistentFlags().String("metadata-path", "", "Metadata database path")
	root.PersistentFlags().Bool("strict", false, "Fail on the first corrupt record")
	root.PersistentFlags().StringSlice("topics", nil, "Decode only these topics (\"*\" for all)")
}

// AddCommands registers the client commands on root.
func AddCommands(root *cobra.Command, logger logpkg.Logger) {
	root.AddCommand(
		newInspectCommand(logger),
		newTimelineCommand(logger),
		newRowsCommand(logger),
		newExportCommand(logger),
		newImportCommand(logger),
		newMetaCommand(logger),
		newRemoteCommand(),
	)
}

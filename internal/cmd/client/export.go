package client

import (
	"github.com/rzbill/flightreview/internal/runtime"
	logpkg "github.com/rzbill/flightreview/pkg/log"
	"github.com/spf13/cobra"
)

// Export is a full dump of a reviewed log: the bundle document plus every
// decoded topic's rows.
type Export struct {
	Document runtime.Document    `json:"document" cbor:"document"`
	Tables   []runtime.TableView `json:"tables" cbor:"tables"`
}

// newExportCommand constructs the `export` command.
func newExportCommand(logger logpkg.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file|id>",
		Short: "Write the decoded log with all rows as JSON or CBOR",
		Example: `  flightreview export flight.ulg -o flight.cbor
  flightreview export 1a2b3c --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, logger, func(rt *runtime.Runtime) error {
				logID, l, err := loadTarget(cmd.Context(), cmd, rt, args[0])
				if err != nil {
					return err
				}
				b := rt.Assemble(cmd.Context(), logID, l)
				exp := Export{Document: b.Document(), Tables: make([]runtime.TableView, 0, len(b.Topics))}
				for _, t := range b.Topics {
					exp.Tables = append(exp.Tables, runtime.Table(t, nil))
				}
				return writeOutput(cmd, exp)
			})
		},
	}
	cmd.Flags().String("id", "", "Log id used for the metadata lookup when exporting a file")
	addOutputFlags(cmd)
	return cmd
}

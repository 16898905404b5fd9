package client

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/rzbill/flightreview/internal/runtime"
	logpkg "github.com/rzbill/flightreview/pkg/log"
	"github.com/spf13/cobra"
)

// newInspectCommand constructs the `inspect` command.
func newInspectCommand(logger logpkg.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file|id>",
		Short: "Decode a log and print its summary, topics, timelines and diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, logger, func(rt *runtime.Runtime) error {
				logID, l, err := loadTarget(cmd.Context(), cmd, rt, args[0])
				if err != nil {
					return err
				}
				doc := rt.Assemble(cmd.Context(), logID, l).Document()
				if text, _ := cmd.Flags().GetBool("text"); text {
					return printDocument(cmd, doc)
				}
				return writeOutput(cmd, doc)
			})
		},
	}
	cmd.Flags().String("id", "", "Log id used for the metadata lookup when inspecting a file")
	cmd.Flags().Bool("text", false, "Print a human-readable summary")
	addOutputFlags(cmd)
	return cmd
}

func printDocument(cmd *cobra.Command, doc runtime.Document) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	s := doc.Summary
	fmt.Fprintf(w, "vehicle:\t%s\n", s.VehicleType)
	fmt.Fprintf(w, "software:\t%s\n", s.SoftwareVersion)
	fmt.Fprintf(w, "hardware:\t%s\n", s.HardwareVersion)
	fmt.Fprintf(w, "duration:\t%s\n", s.Duration.Round(time.Millisecond))
	if !doc.Metadata.IsZero() {
		fmt.Fprintf(w, "description:\t%s\n", doc.Metadata.Description)
		fmt.Fprintf(w, "rating:\t%d\n", doc.Metadata.Rating)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "TOPIC\tINSTANCE\tROWS\tFLAGGED\tCOLUMNS")
	for _, t := range doc.Topics {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", t.Name, t.Instance, t.Rows, t.Flagged, len(t.Columns))
	}
	for name, tl := range doc.Timelines {
		fmt.Fprintf(w, "\ntimeline %s:\t%d events\n", name, len(tl.Events))
	}
	if doc.Diagnostics.Total > 0 {
		fmt.Fprintf(w, "\ndiagnostics:\t%d\n", doc.Diagnostics.Total)
		for kind, n := range doc.Diagnostics.Counts {
			fmt.Fprintf(w, "  %s\t%d\n", kind, n)
		}
	}
	return w.Flush()
}

package client

import (
	"fmt"

	"github.com/rzbill/flightreview/internal/runtime"
	"github.com/rzbill/flightreview/internal/timeline"
	logpkg "github.com/rzbill/flightreview/pkg/log"
	"github.com/spf13/cobra"
)

// newTimelineCommand constructs the `timeline` command.
func newTimelineCommand(logger logpkg.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeline <file|id>",
		Short: "Print the change timeline of a discrete field",
		Long: "Print a configured timeline (--name, default flight_mode) or one " +
			"extracted from --topic and --field.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			topic, _ := cmd.Flags().GetString("topic")
			field, _ := cmd.Flags().GetString("field")
			instance, _ := cmd.Flags().GetUint8("instance")
			closed, _ := cmd.Flags().GetFloat64("closed")
			intervals, _ := cmd.Flags().GetBool("intervals")
			if (topic == "") != (field == "") {
				return fmt.Errorf("--topic and --field go together")
			}
			return withRuntime(cmd, logger, func(rt *runtime.Runtime) error {
				_, l, err := loadTarget(cmd.Context(), cmd, rt, args[0])
				if err != nil {
					return err
				}
				var tl timeline.Timeline
				if topic != "" {
					tl = timeline.FromLog(l, topic, instance, field, closed)
				} else {
					b := rt.Assemble(cmd.Context(), "", l)
					var ok bool
					if tl, ok = b.Timelines[name]; !ok {
						return fmt.Errorf("unknown timeline %q (configured: %v)", name, b.TimelineNames())
					}
				}
				if intervals {
					return writeOutput(cmd, runtime.ViewIntervals(name, tl))
				}
				return writeOutput(cmd, runtime.ViewTimeline(name, tl))
			})
		},
	}
	cmd.Flags().String("name", timeline.FlightMode, "Configured timeline name")
	cmd.Flags().String("topic", "", "Topic to extract from")
	cmd.Flags().String("field", "", "Field to extract")
	cmd.Flags().Uint8("instance", 0, "Topic instance (multi_id)")
	cmd.Flags().Float64("closed", timeline.ClosedMode, "Value of the terminal event")
	cmd.Flags().Bool("intervals", false, "Print spans instead of change events")
	addOutputFlags(cmd)
	return cmd
}

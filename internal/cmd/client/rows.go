package client

import (
	"fmt"

	"github.com/rzbill/flightreview/internal/query"
	"github.com/rzbill/flightreview/internal/runtime"
	logpkg "github.com/rzbill/flightreview/pkg/log"
	"github.com/spf13/cobra"
)

// newRowsCommand constructs the `rows` command.
func newRowsCommand(logger logpkg.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rows <file|id> <topic>",
		Short: "Print the rows of one topic, optionally filtered",
		Example: `  flightreview rows flight.ulg vehicle_status --where 'row.nav_state == 4.0' --limit 20
  flightreview rows flight.ulg battery_status --where 'time_s > 60.0 && row.voltage_v < 14.0'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			instance, _ := cmd.Flags().GetUint8("instance")
			where, _ := cmd.Flags().GetString("where")
			limit, _ := cmd.Flags().GetInt("limit")
			filter, err := query.Compile(where)
			if err != nil {
				return fmt.Errorf("--where: %w", err)
			}
			return withRuntime(cmd, logger, func(rt *runtime.Runtime) error {
				_, l, err := loadTarget(cmd.Context(), cmd, rt, args[0])
				if err != nil {
					return err
				}
				t, ok := l.Topic(args[1], instance)
				if !ok {
					return fmt.Errorf("topic %s[%d] not in log", args[1], instance)
				}
				rows := filter.Rows(t, l.StartTimestamp, limit)
				if rows == nil {
					rows = []int{}
				}
				return writeOutput(cmd, runtime.Table(t, rows))
			})
		},
	}
	cmd.Flags().Uint8("instance", 0, "Topic instance (multi_id)")
	cmd.Flags().String("where", "", "Row filter expression over timestamp, time_s, flagged and row")
	cmd.Flags().Int("limit", 0, "Stop after N rows (0 = all)")
	addOutputFlags(cmd)
	return cmd
}

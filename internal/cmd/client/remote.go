package client

import (
	"fmt"

	transports "github.com/rzbill/flightreview/internal/cmd/client/transports"
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

func getTransport() transports.LogTransport {
	return transports.NewGrpcTransport(dialGRPC)
}

// newRemoteCommand constructs the `remote` command group, which talks to a
// running server over gRPC (FLIGHTREVIEW_GRPC).
func newRemoteCommand() *cobra.Command {
	remoteCmd := &cobra.Command{Use: "remote", Short: "Query a running flightreview server"}
	remoteCmd.AddCommand(
		&cobra.Command{
			Use:   "health",
			Short: "Check server health",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ok, err := getTransport().Health(cmd.Context())
				if err != nil {
					return err
				}
				status := "not_serving"
				if ok {
					status = "ok"
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "status:", status)
				return nil
			},
		},
		&cobra.Command{
			Use:   "summary <id>",
			Short: "Print the bundle document of a stored log",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				res, err := getTransport().Summary(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printStruct(cmd, res)
			},
		},
		&cobra.Command{
			Use:   "timeline <id> <name>",
			Short: "Print one timeline of a stored log",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				res, err := getTransport().Timeline(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return printStruct(cmd, res)
			},
		},
		&cobra.Command{
			Use:   "meta <id>",
			Short: "Print the stored metadata of a log",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				res, err := getTransport().Metadata(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printStruct(cmd, res)
			},
		},
	)
	return remoteCmd
}

func printStruct(cmd *cobra.Command, s *structpb.Struct) error {
	b, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(s)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}

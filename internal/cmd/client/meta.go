package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rzbill/flightreview/internal/codec"
	"github.com/rzbill/flightreview/internal/metadata"
	"github.com/rzbill/flightreview/internal/runtime"
	logpkg "github.com/rzbill/flightreview/pkg/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// errNoWriter is returned when the configured backend cannot store records.
var errNoWriter = errors.New("metadata backend is not writable; set --metadata-backend sqlite|pebble")

// newMetaCommand constructs the `meta` command group.
func newMetaCommand(logger logpkg.Logger) *cobra.Command {
	metaCmd := &cobra.Command{Use: "meta", Short: "Read and write per-log metadata"}
	metaCmd.AddCommand(
		newMetaGetCommand(logger),
		newMetaPutCommand(logger),
		newMetaListCommand(logger),
		newMetaDeleteCommand(logger),
	)
	return metaCmd
}

// newMetaListCommand constructs the `meta list` subcommand.
func newMetaListCommand(logger logpkg.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List log ids that have stored metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, logger, func(rt *runtime.Runtime) error {
				l, ok := rt.Store().(metadata.Lister)
				if !ok {
					return errors.New("metadata backend cannot list records")
				}
				ids, err := l.IDs(cmd.Context())
				if err != nil {
					return err
				}
				for _, logID := range ids {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), logID)
				}
				return nil
			})
		},
	}
}

// newMetaDeleteCommand constructs the `meta delete` subcommand.
func newMetaDeleteCommand(logger logpkg.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove the stored metadata of a log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, logger, func(rt *runtime.Runtime) error {
				if err := rt.ValidateID(args[0]); err != nil {
					return err
				}
				w, ok := rt.Store().(metadata.Writer)
				if !ok {
					return errNoWriter
				}
				if err := w.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "status:", "OK")
				return nil
			})
		},
	}
}

// newMetaGetCommand constructs the `meta get` subcommand.
func newMetaGetCommand(logger logpkg.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print the stored metadata of a log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, logger, func(rt *runtime.Runtime) error {
				if err := rt.ValidateID(args[0]); err != nil {
					return err
				}
				return writeOutput(cmd, rt.Metadata(cmd.Context(), args[0]))
			})
		},
	}
	addOutputFlags(cmd)
	return cmd
}

// newMetaPutCommand constructs the `meta put` subcommand. Only the flags
// given on the command line replace stored values.
func newMetaPutCommand(logger logpkg.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <id>",
		Short: "Create or update the metadata of a log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logID := args[0]
			return withRuntime(cmd, logger, func(rt *runtime.Runtime) error {
				if err := rt.ValidateID(logID); err != nil {
					return err
				}
				w, ok := rt.Store().(metadata.Writer)
				if !ok {
					return errNoWriter
				}
				m := rt.Metadata(cmd.Context(), logID)
				f := cmd.Flags()
				if f.Changed("description") {
					m.Description, _ = f.GetString("description")
				}
				if f.Changed("feedback") {
					m.Feedback, _ = f.GetString("feedback")
				}
				if f.Changed("type") {
					m.Type, _ = f.GetString("type")
				}
				if f.Changed("wind-speed") {
					m.WindSpeed, _ = f.GetInt("wind-speed")
				}
				if f.Changed("rating") {
					m.Rating, _ = f.GetInt("rating")
				}
				if f.Changed("video-url") {
					m.VideoURL, _ = f.GetString("video-url")
				}
				if err := w.Put(cmd.Context(), logID, m); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "status:", "OK")
				return nil
			})
		},
	}
	cmd.Flags().String("description", "", "Flight description")
	cmd.Flags().String("feedback", "", "Pilot feedback")
	cmd.Flags().String("type", "", "Log type (e.g. flightreport, personal)")
	cmd.Flags().Int("wind-speed", 0, "Wind speed category")
	cmd.Flags().Int("rating", 0, "Flight rating")
	cmd.Flags().String("video-url", "", "Video URL")
	return cmd
}

// newImportCommand constructs the `import` command.
func newImportCommand(logger logpkg.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <records.{yaml,json,cbor}>",
		Short: "Bulk-load metadata records keyed by log id",
		Example: `  # records.yaml
  #   1a2b3c:
  #     description: hover test
  #     rating: 4
  flightreview import records.yaml --metadata-backend pebble --metadata-path ./meta`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readRecords(args[0])
			if err != nil {
				return err
			}
			return withRuntime(cmd, logger, func(rt *runtime.Runtime) error {
				w, ok := rt.Store().(metadata.Writer)
				if !ok {
					return errNoWriter
				}
				for logID := range records {
					if err := rt.ValidateID(logID); err != nil {
						return err
					}
				}
				if err := w.PutAll(cmd.Context(), records); err != nil {
					return fmt.Errorf("import %s: %w", args[0], err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported: %d\n", len(records))
				return nil
			})
		},
	}
	return cmd
}

func readRecords(path string) (map[string]metadata.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	records := make(map[string]metadata.Metadata)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.NewDecoder(f).Decode(&records)
	default:
		err = codec.Decode(f, codec.FormatForPath(path), &records)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}

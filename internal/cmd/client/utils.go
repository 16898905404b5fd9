package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	cfgpkg "github.com/rzbill/flightreview/internal/config"
	"github.com/rzbill/flightreview/internal/codec"
	"github.com/rzbill/flightreview/internal/dataset"
	"github.com/rzbill/flightreview/internal/runtime"
	logpkg "github.com/rzbill/flightreview/pkg/log"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// grpcAddrFromEnv returns the gRPC server address from FLIGHTREVIEW_GRPC or a default.
func grpcAddrFromEnv() string {
	if addr := os.Getenv("FLIGHTREVIEW_GRPC"); addr != "" {
		return addr
	}
	return "127.0.0.1:5007"
}

// dialGRPC creates a client for the flightreview gRPC endpoint with
// insecure transport for local/dev.
func dialGRPC(_ context.Context) (*grpc.ClientConn, error) {
	return grpc.NewClient(grpcAddrFromEnv(), grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// loadConfig layers the --config file, FLIGHTREVIEW_* variables and flags.
func loadConfig(cmd *cobra.Command) (cfgpkg.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, err
	}
	cfgpkg.FromEnv(&cfg)
	if v, _ := cmd.Flags().GetString("log-dir"); v != "" {
		cfg.LogDir = v
	}
	if v, _ := cmd.Flags().GetString("metadata-backend"); v != "" {
		cfg.Metadata.Backend = v
	}
	if v, _ := cmd.Flags().GetString("metadata-path"); v != "" {
		cfg.Metadata.Path = v
	}
	if cmd.Flags().Changed("strict") {
		cfg.Strict, _ = cmd.Flags().GetBool("strict")
	}
	if cmd.Flags().Changed("topics") {
		topics, _ := cmd.Flags().GetStringSlice("topics")
		cfg.Topics = nil
		if !(len(topics) == 1 && topics[0] == "*") {
			cfg.Topics = topics
		}
	}
	return cfg, nil
}

// withRuntime opens a Runtime from the command's configuration and closes it
// after fn returns.
func withRuntime(cmd *cobra.Command, logger logpkg.Logger, fn func(*runtime.Runtime) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rt, err := runtime.Open(runtime.Options{Config: cfg, Logger: logger})
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt)
}

// loadTarget loads arg as a file path when it names an existing file and as
// a log id otherwise. The returned id is empty for files unless --id is set.
func loadTarget(ctx context.Context, cmd *cobra.Command, rt *runtime.Runtime, arg string) (string, *dataset.Log, error) {
	logID, _ := cmd.Flags().GetString("id")
	if info, err := os.Stat(arg); err == nil && info.Mode().IsRegular() {
		l, err := rt.LoadFile(ctx, arg)
		return logID, l, err
	}
	if strings.ContainsAny(arg, `/\`) {
		return "", nil, fmt.Errorf("%s: no such file", arg)
	}
	l, err := rt.LoadLog(ctx, arg)
	return arg, l, err
}

// addOutputFlags registers --format and --out.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "", "Output format: json|cbor (default from --out extension, else json)")
	cmd.Flags().StringP("out", "o", "", "Write to file instead of stdout")
	cmd.Flags().Bool("diag", false, "Print CBOR output in diagnostic notation")
}

// writeOutput encodes v according to the output flags.
func writeOutput(cmd *cobra.Command, v any) error {
	out, _ := cmd.Flags().GetString("out")
	name, _ := cmd.Flags().GetString("format")
	diag, _ := cmd.Flags().GetBool("diag")
	f := codec.FormatForPath(out)
	if name != "" {
		parsed, err := codec.ParseFormat(name)
		if err != nil {
			return err
		}
		f = parsed
	}
	if diag {
		b, err := codec.Marshal(v)
		if err != nil {
			return err
		}
		s, err := codec.Diagnose(b)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), s)
		return err
	}
	var w io.Writer = cmd.OutOrStdout()
	if out != "" && out != "-" {
		file, err := os.Create(out)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
		if err := codec.Encode(w, f, v, f == codec.JSON); err != nil {
			return err
		}
		return file.Close()
	}
	if f == codec.CBOR && isTerminal(cmd.OutOrStdout()) {
		return errors.New("refusing to write CBOR to a terminal; use --out or --diag")
	}
	return codec.Encode(w, f, v, f == codec.JSON)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

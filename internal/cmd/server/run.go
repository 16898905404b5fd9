package serverrun

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	cfgpkg "github.com/rzbill/flightreview/internal/config"
	"github.com/rzbill/flightreview/internal/runtime"
	grpcserver "github.com/rzbill/flightreview/internal/server/grpc"
	httpserver "github.com/rzbill/flightreview/internal/server/http"
	logpkg "github.com/rzbill/flightreview/pkg/log"
)

func getenvDefault(key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

// small wrapper to allow testing
var getenv = func(key string) string { return os.Getenv(key) }

// Options configures Run. Empty listen addresses disable that server.
type Options struct {
	Config cfgpkg.Config
	// Logger overrides the logger built from Config.Log.
	Logger logpkg.Logger
	// Ready, when set, receives the servers once they are constructed.
	Ready func(*httpserver.Server, *grpcserver.Server)
}

// Run starts gRPC and HTTP servers and blocks until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	procLogger := opts.Logger
	if procLogger == nil {
		lc := &logpkg.Config{
			Level:  getenvDefault("FLIGHTREVIEW_LOG_LEVEL", cfg.Log.Level),
			Format: getenvDefault("FLIGHTREVIEW_LOG_FORMAT", cfg.Log.Format),
		}
		l, err := logpkg.ApplyConfig(lc)
		if err != nil {
			lvl := logpkg.InfoLevel
			if parsed, e := logpkg.ParseLevel(lc.Level); e == nil {
				lvl = parsed
			}
			l = logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
		}
		procLogger = l
	}
	// Pebble and net/http report through the standard library logger.
	logpkg.RedirectStdLog(procLogger)

	if cfg.Server.HTTPAddr == "" && cfg.Server.GRPCAddr == "" {
		return errors.New("no listen address configured")
	}
	rt, err := runtime.Open(runtime.Options{Config: cfg, Logger: procLogger})
	if err != nil {
		return err
	}
	defer rt.Close()

	procLogger.Info("Starting flightreview server",
		logpkg.Str("grpc", cfg.Server.GRPCAddr),
		logpkg.Str("http", cfg.Server.HTTPAddr),
		logpkg.Str("log_dir", cfg.LogDir),
		logpkg.Str("metadata", cfg.Metadata.Backend),
		logpkg.Bool("strict", cfg.Strict),
	)

	var (
		wg   sync.WaitGroup
		hsrv *httpserver.Server
		gsrv *grpcserver.Server
	)
	if cfg.Server.GRPCAddr != "" {
		gsrv = grpcserver.New(rt, procLogger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := gsrv.ListenAndServe(sctx, cfg.Server.GRPCAddr); err != nil && sctx.Err() == nil {
				procLogger.Error("grpc server stopped", logpkg.Err(err))
				stop()
			}
		}()
	}
	if cfg.Server.HTTPAddr != "" {
		hsrv = httpserver.New(rt, procLogger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := hsrv.ListenAndServe(sctx, cfg.Server.HTTPAddr); err != nil && sctx.Err() == nil {
				procLogger.Error("http server stopped", logpkg.Err(err))
				stop()
			}
		}()
	}
	if opts.Ready != nil {
		opts.Ready(hsrv, gsrv)
	}

	<-sctx.Done()
	// Stop the servers before the deferred runtime Close.
	if gsrv != nil {
		gsrv.Close()
	}
	if hsrv != nil {
		hsrv.Close()
	}
	wg.Wait()
	return nil
}

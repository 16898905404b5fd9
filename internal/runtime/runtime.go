package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	cfgpkg "github.com/rzbill/flightreview/internal/config"
	"github.com/rzbill/flightreview/internal/dataset"
	"github.com/rzbill/flightreview/internal/derive"
	"github.com/rzbill/flightreview/internal/metadata"
	"github.com/rzbill/flightreview/internal/ulog"
	"github.com/rzbill/flightreview/pkg/id"
	"github.com/rzbill/flightreview/pkg/log"
)

// ErrLogNotFound is returned when no file exists for a valid log id.
var ErrLogNotFound = errors.New("log not found")

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	// Store overrides the metadata backend named in Config. The Runtime
	// does not close a store passed here.
	Store  metadata.Store
	Logger log.Logger
}

// Runtime owns the metadata store and the load pipeline settings shared by
// the HTTP, gRPC and CLI front ends.
type Runtime struct {
	config    cfgpkg.Config
	store     metadata.Store
	ownsStore bool
	resolver  *metadata.Resolver
	validator *id.Validator
	loadOpts  dataset.Options
	logger    log.Logger
}

// Open validates the configuration and opens the metadata store.
func Open(opts Options) (*Runtime, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewLogger(log.WithOutput(log.NewNullOutput()))
	}
	validator, err := id.NewValidator(cfg.IDPattern)
	if err != nil {
		return nil, err
	}
	policy, err := dataset.ParseZeroTimestampPolicy(cfg.ZeroTimestampPolicy)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		config:    cfg,
		store:     opts.Store,
		validator: validator,
		logger:    logger.WithComponent("runtime"),
	}
	if rt.store == nil {
		store, err := metadata.Open(cfg.Metadata.Backend, cfg.Metadata.Path, cfg.Metadata.ReadOnly, logger)
		if err != nil {
			return nil, fmt.Errorf("metadata store: %w", err)
		}
		rt.store = store
		rt.ownsStore = store != nil
	}
	rt.resolver = metadata.NewResolver(rt.store, metadata.WithValidator(validator), metadata.WithLogger(logger))

	rt.loadOpts = dataset.Options{
		Decode: ulog.Options{
			Topics:           cfg.Topics,
			Strict:           cfg.Strict,
			DiagnosticsLimit: cfg.DiagnosticsLimit,
			Logger:           logger,
		},
		ZeroTimestamp: policy,
	}
	if cfg.DeriveAttitude {
		rt.loadOpts.Derive = append(rt.loadOpts.Derive, derive.AddRollPitchYaw)
	}
	rt.logger.Debug("runtime opened",
		log.Str("log_dir", cfg.LogDir),
		log.Str("metadata_backend", cfg.Metadata.Backend),
		log.Int("topics", len(cfg.Topics)))
	return rt, nil
}

// Close closes the metadata store if the Runtime opened it.
func (r *Runtime) Close() error {
	if r.store == nil || !r.ownsStore {
		return nil
	}
	return r.store.Close()
}

type pinger interface {
	Ping(ctx context.Context) error
}

// CheckHealth verifies the log directory is readable and the metadata store
// answers.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	info, err := os.Stat(r.config.LogDir)
	if err != nil {
		return fmt.Errorf("log dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("log dir %s is not a directory", r.config.LogDir)
	}
	if p, ok := r.store.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("metadata store: %w", err)
		}
	}
	return nil
}

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// Store returns the metadata store, which may be nil.
func (r *Runtime) Store() metadata.Store { return r.store }

// ValidateID checks a log identifier against the configured pattern.
func (r *Runtime) ValidateID(logID string) error { return r.validator.Validate(logID) }

// LogPath resolves a log id to an existing file in the log directory. The
// id is validated before the filesystem is touched.
func (r *Runtime) LogPath(logID string) (string, error) {
	if err := r.validator.Validate(logID); err != nil {
		return "", err
	}
	for _, p := range cfgpkg.LogPath(r.config.LogDir, logID) {
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrLogNotFound, logID)
}

// LoadOptions returns a copy of the pipeline options derived from config.
func (r *Runtime) LoadOptions() dataset.Options {
	opts := r.loadOpts
	opts.Derive = append([]dataset.Deriver(nil), r.loadOpts.Derive...)
	return opts
}

// LoadLog decodes the stored log with the given id.
func (r *Runtime) LoadLog(ctx context.Context, logID string) (*dataset.Log, error) {
	path, err := r.LogPath(logID)
	if err != nil {
		return nil, err
	}
	return r.LoadFile(ctx, path)
}

// LoadFile decodes the log at path. ctx is checked between reads.
func (r *Runtime) LoadFile(ctx context.Context, path string) (*dataset.Log, error) {
	rc, err := ulog.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return r.Load(ctx, rc)
}

// Load decodes a log from rd.
func (r *Runtime) Load(ctx context.Context, rd io.Reader) (*dataset.Log, error) {
	l, err := dataset.Load(&ctxReader{ctx: ctx, r: rd}, r.LoadOptions())
	// A cancelled read looks like a truncated file to the decoder.
	if cerr := ctx.Err(); cerr != nil {
		return nil, cerr
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Metadata returns the stored record for logID, or the empty record.
func (r *Runtime) Metadata(ctx context.Context, logID string) metadata.Metadata {
	return r.resolver.Lookup(ctx, logID)
}

// Review loads the stored log and assembles its Bundle.
func (r *Runtime) Review(ctx context.Context, logID string) (*Bundle, error) {
	l, err := r.LoadLog(ctx, logID)
	if err != nil {
		return nil, err
	}
	return r.Assemble(ctx, logID, l), nil
}

// Render reviews logID and hands the Bundle to renderer.
func (r *Runtime) Render(ctx context.Context, logID string, renderer Renderer) error {
	b, err := r.Review(ctx, logID)
	if err != nil {
		return err
	}
	return renderer.Render(ctx, b)
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"soundpack/internal/asset"
	"soundpack/internal/assetindex"
	"soundpack/internal/catalog"
	"soundpack/internal/config"
	"soundpack/internal/hashing"
	"soundpack/internal/logging"
	"soundpack/internal/pack"
	"soundpack/internal/probe"
	"soundpack/internal/services"
	"soundpack/internal/upload"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	prober   asset.Prober
	uploader upload.Uploader
}

// contextOption replaces collaborators, mainly for tests.
type contextOption func(*commandContext)

func withProber(p asset.Prober) contextOption {
	return func(c *commandContext) {
		c.prober = p
	}
}

func withUploader(u upload.Uploader) contextOption {
	return func(c *commandContext) {
		c.uploader = u
	}
}

func newCommandContext(configFlag, logLevelFlag *string, opts ...contextOption) *commandContext {
	c := &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.TrimSpace(*c.logLevelFlag); level != "" {
				cfg.Logging.Level = strings.ToLower(level)
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) loggerFor(w io.Writer) (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg, w)
	})
	return c.logger, c.loggerErr
}

// logFailure records a failed command in the run log. Commands that failed
// before building a logger are left to main's stderr message.
func (c *commandContext) logFailure(cmd *cobra.Command, err error) {
	if c.logger == nil || errors.Is(err, context.Canceled) {
		return
	}
	logging.ErrorWithContext(c.logger, "command failed", "command_failed",
		logging.Error(err),
		logging.String("command", cmd.CommandPath()),
	)
}

// runContext tags the command context with a fresh run id and the
// operation name so every log line of one invocation can be correlated.
func runContext(cmd *cobra.Command, operation string) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = services.WithRunID(ctx, uuid.NewString())
	return services.WithOperation(ctx, operation)
}

func (c *commandContext) hasher() (*hashing.Hasher, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return hashing.New(cfg.Hashing.Algorithm, cfg.Hashing.ShortLength)
}

func (c *commandContext) assetProber(logger *slog.Logger) asset.Prober {
	if c.prober != nil {
		return c.prober
	}
	cfg := c.config
	return probe.New(cfg.FFprobeBinary(),
		probe.WithTimeout(time.Duration(cfg.Probe.TimeoutSeconds)*time.Second),
		probe.WithLogger(logger),
	)
}

// uploadClient returns the configured uploader. A nil uploader with a nil
// error means upload is disabled.
func (c *commandContext) uploadClient() (upload.Uploader, error) {
	if c.uploader != nil {
		return c.uploader, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Upload.Enabled {
		return nil, nil
	}
	return upload.NewClient(uploadConfig(cfg.Upload)), nil
}

func uploadConfig(u config.Upload) upload.Config {
	return upload.Config{
		JWT:            u.JWT,
		FileURL:        u.FileURL,
		JSONURL:        u.JSONURL,
		Gateway:        u.Gateway,
		TimeoutSeconds: u.TimeoutSeconds,
	}
}

// newAssembler wires an Assembler from configuration. The returned close
// function releases the asset index when one was opened.
func (c *commandContext) newAssembler(logger *slog.Logger) (*pack.Assembler, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	h, err := c.hasher()
	if err != nil {
		return nil, nil, err
	}
	layout := pack.LayoutFromConfig(cfg)
	builder := asset.NewBuilder(h, c.assetProber(logger), layout.ResourceRoot, logger)
	opts := []pack.Option{
		pack.WithLogger(logger),
		pack.WithDefaultCreator(cfg.Packaging.DefaultCreator),
	}
	closeFn := func() {}
	if cfg.Index.Enabled {
		store, err := assetindex.Open(cfg.Paths.IndexPath)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, pack.WithIndexer(store))
		closeFn = func() {
			if err := store.Close(); err != nil {
				logger.Warn("close asset index", logging.Error(err))
			}
		}
	}
	return pack.NewAssembler(layout, builder, h, opts...), closeFn, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func (c *commandContext) catalog(cmd *cobra.Command) (*catalog.Aggregator, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.loggerFor(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return catalog.New(cfg.PackagesDir(), cfg.Packaging.ManifestName, cfg.Packaging.CatalogName, logger), nil
}

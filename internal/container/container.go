// Package container provides dependency injection for the merchant resolver.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"fjacquet/merchant-resolver/internal/config"
	"fjacquet/merchant-resolver/internal/dateutils"
	"fjacquet/merchant-resolver/internal/detector"
	"fjacquet/merchant-resolver/internal/inspect"
	"fjacquet/merchant-resolver/internal/logging"
	"fjacquet/merchant-resolver/internal/pipeline"
	"fjacquet/merchant-resolver/internal/resolver"
	"fjacquet/merchant-resolver/internal/rules"
	"fjacquet/merchant-resolver/internal/signs"
	"fjacquet/merchant-resolver/internal/store"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation - all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger    logging.Logger
	config    *config.Config
	db        *store.DB
	book      *rules.Book
	detector  *detector.Detector
	generator resolver.TextGenerator
	resolver  *resolver.BatchResolver
	importer  *pipeline.Importer
	corrector *pipeline.Corrector
	inspector *inspect.Inspector
	dates     *dateutils.Parser
}

// Option customizes container construction.
type Option func(*options)

type options struct {
	logger    logging.Logger
	generator resolver.TextGenerator
}

// WithLogger replaces the logger built from the log config.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithGenerator replaces the configured external model.
func WithGenerator(gen resolver.TextGenerator) Option {
	return func(o *options) { o.generator = gen }
}

// NewContainer opens the database, loads rules and wires every component.
// The caller must Close the container.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	// Create logger first as it's needed by other components
	logger := o.logger
	if logger == nil {
		logger = config.NewLogger(cfg)
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Init(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	book := rules.NewBook(db, logger)
	if err := book.Refresh(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if cfg.Rules.SeedFile != "" {
		if _, err := book.LoadFile(ctx, cfg.Rules.SeedFile); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to load rules seed file: %w", err)
		}
	}

	gen := o.generator
	if gen == nil {
		gen, err = resolver.NewTextGenerator(ctx, resolver.ModelConfig{
			Enabled: cfg.AI.Enabled,
			Backend: cfg.AI.Backend,
			Model:   cfg.AI.Model,
			APIKey:  cfg.AI.APIKey,
		})
		switch {
		case errors.Is(err, resolver.ErrNoModel):
			logger.Info("External merchant resolution disabled")
		case err != nil:
			logger.WithError(err).Warn("External model unavailable, continuing without it",
				logging.F(logging.FieldBackend, cfg.AI.Backend))
		}
	}

	det := detector.NewDetector()
	res := resolver.NewBatchResolver(gen, det, ResolverOptions(cfg), logger)
	sn := signs.NewNormalizer(signs.Options{
		Enabled:        cfg.Signs.Enabled,
		FlipThreshold:  cfg.Signs.FlipThreshold,
		CreditKeywords: cfg.Signs.CreditKeywords,
	}, logger)

	importer := pipeline.NewImporter(db, book, det, res, sn, pipeline.Options{AutoLearn: cfg.Rules.AutoLearn}, logger)

	logger.Debug("Container initialized successfully",
		logging.F("ai_enabled", gen != nil),
		logging.F("rules", len(book.Rules())))

	return &Container{
		logger:    logger,
		config:    cfg,
		db:        db,
		book:      book,
		detector:  det,
		generator: gen,
		resolver:  res,
		importer:  importer,
		corrector: pipeline.NewCorrector(db, book, logger),
		inspector: inspect.NewInspector(det, res, book),
		dates:     dateutils.NewParser(cfg.Import.DateFormats),
	}, nil
}

// ResolverOptions maps the resolver and ai sections onto resolver.Options.
func ResolverOptions(cfg *config.Config) resolver.Options {
	return resolver.Options{
		BatchSize:           cfg.Resolver.BatchSize,
		MaxRetries:          cfg.Resolver.MaxRetries,
		BackoffBase:         cfg.Resolver.BackoffBase,
		BackoffCap:          time.Duration(cfg.Resolver.BackoffCapSeconds) * time.Second,
		FallbackConcurrency: cfg.Resolver.FallbackConcurrency,
		RequestsPerMinute:   cfg.AI.RequestsPerMinute,
		Timeout:             time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
	}
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetDB returns the open database.
func (c *Container) GetDB() *store.DB {
	return c.db
}

// GetRuleBook returns the shared rule book.
func (c *Container) GetRuleBook() *rules.Book {
	return c.book
}

// GetDetector returns the provider detector.
func (c *Container) GetDetector() *detector.Detector {
	return c.detector
}

// GetResolver returns the batched external resolver.
func (c *Container) GetResolver() *resolver.BatchResolver {
	return c.resolver
}

// GetImporter returns the import pipeline.
func (c *Container) GetImporter() *pipeline.Importer {
	return c.importer
}

// GetCorrector returns the correction pipeline.
func (c *Container) GetCorrector() *pipeline.Corrector {
	return c.corrector
}

// GetInspector returns the read-only line inspector.
func (c *Container) GetInspector() *inspect.Inspector {
	return c.inspector
}

// GetDateParser returns the date parser configured from import.date_formats.
func (c *Container) GetDateParser() *dateutils.Parser {
	return c.dates
}

// Close releases the model client and the database.
func (c *Container) Close() error {
	var errs []error
	if closer, ok := c.generator.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	errs = append(errs, c.db.Close())
	c.logger.Debug("Container closed")
	return errors.Join(errs...)
}

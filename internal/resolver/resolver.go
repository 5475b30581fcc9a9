// Package resolver sends transaction lines the detector cannot resolve to an
// external text model, in bounded batches with retries and a per-item
// fallback. It never returns an error to its caller: anything it cannot
// resolve comes back as the unresolved sentinel.
package resolver

import (
	"context"
	"sync"
	"time"

	"fjacquet/merchant-resolver/internal/detector"
	"fjacquet/merchant-resolver/internal/logging"
	"fjacquet/merchant-resolver/internal/models"
	"fjacquet/merchant-resolver/internal/parsererror"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Defaults for Options fields left at zero.
const (
	DefaultBatchSize           = 40
	DefaultMaxRetries          = 3
	DefaultBackoffBase         = 1.6
	DefaultBackoffCap          = 30 * time.Second
	DefaultFallbackConcurrency = 4
)

// Options configure a BatchResolver.
type Options struct {
	BatchSize           int
	MaxRetries          int
	BackoffBase         float64
	BackoffCap          time.Duration
	FallbackConcurrency int
	// RequestsPerMinute limits calls to the model. Zero means unlimited.
	RequestsPerMinute int
	// Timeout bounds a whole Resolve call. Zero means no deadline.
	Timeout time.Duration
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		BatchSize:           DefaultBatchSize,
		MaxRetries:          DefaultMaxRetries,
		BackoffBase:         DefaultBackoffBase,
		BackoffCap:          DefaultBackoffCap,
		FallbackConcurrency: DefaultFallbackConcurrency,
	}
}

func (o Options) withDefaults() Options {
	if o.BatchSize < 1 {
		o.BatchSize = DefaultBatchSize
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.BackoffBase < 1 {
		o.BackoffBase = DefaultBackoffBase
	}
	if o.BackoffCap <= 0 {
		o.BackoffCap = DefaultBackoffCap
	}
	if o.FallbackConcurrency < 1 {
		o.FallbackConcurrency = 1
	}
	return o
}

// Resolution is one resolved line and where the answer came from.
type Resolution struct {
	Name   string
	Source models.Source
}

// BatchResolver is safe for concurrent use.
type BatchResolver struct {
	gen      TextGenerator
	detector *detector.Detector
	opts     Options
	logger   logging.Logger
	limiter  *rate.Limiter
	backoff  Backoff
	sleep    func(ctx context.Context, d time.Duration) error
	warnOnce sync.Once
}

// NewBatchResolver wires a resolver. gen may be nil, in which case only the
// detector answers and everything else is the sentinel. det may be nil to
// skip detector prefill.
func NewBatchResolver(gen TextGenerator, det *detector.Detector, opts Options, logger logging.Logger) *BatchResolver {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	opts = opts.withDefaults()
	limit := rate.Inf
	if opts.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(opts.RequestsPerMinute) / 60.0)
	}
	return &BatchResolver{
		gen:      gen,
		detector: det,
		opts:     opts,
		logger:   logger,
		limiter:  rate.NewLimiter(limit, 1),
		backoff:  Backoff{Base: opts.BackoffBase, Cap: opts.BackoffCap},
		sleep:    sleepContext,
	}
}

// Available reports whether an external model is configured.
func (r *BatchResolver) Available() bool {
	return r.gen != nil
}

// Resolve returns one name per input text, in input order.
func (r *BatchResolver) Resolve(ctx context.Context, texts []string) []string {
	res := r.ResolveWithSource(ctx, texts)
	out := make([]string, len(res))
	for i, x := range res {
		out[i] = x.Name
	}
	return out
}

// ResolveWithSource is Resolve with provenance. Lines the detector resolves
// to a named counterparty are never sent to the model.
func (r *BatchResolver) ResolveWithSource(ctx context.Context, texts []string) []Resolution {
	out := make([]Resolution, len(texts))
	var pending []int
	for i, t := range texts {
		if r.detector != nil {
			if phrase, ok := r.detector.Prefill(t); ok {
				out[i] = Resolution{Name: phrase, Source: models.SourceDeterministic}
				continue
			}
		}
		out[i] = Resolution{Name: models.UnresolvedSentinel}
		pending = append(pending, i)
	}
	if len(pending) == 0 {
		return out
	}

	if r.gen == nil {
		r.warnOnce.Do(func() {
			r.logger.Warn("External resolver not configured; unresolved lines stay unknown",
				logging.F(logging.FieldCount, len(pending)))
		})
		return out
	}

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	for start := 0; start < len(pending); start += r.opts.BatchSize {
		end := start + r.opts.BatchSize
		if end > len(pending) {
			end = len(pending)
		}
		idx := pending[start:end]
		if ctx.Err() != nil {
			r.logger.Warn("Resolver deadline reached, leaving remaining lines unresolved",
				logging.F(logging.FieldCount, len(pending)-start))
			break
		}

		batch := make([]string, len(idx))
		for j, i := range idx {
			batch[j] = texts[i]
		}
		names := r.resolveBatch(ctx, batch)
		for j, i := range idx {
			out[i] = Resolution{Name: names[j]}
			if names[j] != models.UnresolvedSentinel {
				out[i].Source = models.SourceExternalService
			}
		}
	}
	return out
}

// resolveBatch retries the whole batch, then falls back to one call per
// item. The result always has len(texts) entries.
func (r *BatchResolver) resolveBatch(ctx context.Context, texts []string) []string {
	batchID := uuid.NewString()
	log := r.logger.WithFields(
		logging.F(logging.FieldBatchID, batchID),
		logging.F(logging.FieldBatchSize, len(texts)),
		logging.F(logging.FieldBackend, r.gen.Name()),
	)

	attempt := 0
	for {
		names, err := r.call(ctx, texts, attempt)
		if err == nil {
			log.Debug("Resolved batch", logging.F(logging.FieldAttempt, attempt))
			return names
		}
		attempt++
		log.WithError(err).Warn("Batch resolution failed", logging.F(logging.FieldAttempt, attempt))

		if ctx.Err() != nil {
			return sentinels(len(texts))
		}
		if attempt > r.opts.MaxRetries {
			break
		}
		if err := r.sleep(ctx, r.backoff.Delay(attempt)); err != nil {
			return sentinels(len(texts))
		}
	}

	log.Info("Retries exhausted, resolving items one by one")
	return r.fallback(ctx, texts, log)
}

// fallback resolves each item independently. Results are merged by index.
func (r *BatchResolver) fallback(ctx context.Context, texts []string, log logging.Logger) []string {
	out := sentinels(len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.FallbackConcurrency)
	for i := range texts {
		g.Go(func() error {
			names, err := r.call(gctx, texts[i:i+1], 0)
			if err != nil {
				log.WithError(err).Debug("Single item resolution failed")
				return nil
			}
			out[i] = names[0]
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (r *BatchResolver) call(ctx context.Context, texts []string, attempt int) ([]string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, r.wrap(texts, attempt, err)
	}
	raw, err := r.gen.Generate(ctx, systemInstructions, buildPrompt(texts))
	if err != nil {
		return nil, r.wrap(texts, attempt, err)
	}
	names, err := parseMerchants(raw, len(texts))
	if err != nil {
		return nil, r.wrap(texts, attempt, err)
	}
	return names, nil
}

func (r *BatchResolver) wrap(texts []string, attempt int, err error) error {
	return &parsererror.ResolutionError{Backend: r.gen.Name(), Items: len(texts), Attempt: attempt, Err: err}
}

func sentinels(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = models.UnresolvedSentinel
	}
	return out
}

// Package pipeline drives a batch of raw transactions through resolution,
// rule learning, fingerprinting and storage.
package pipeline

import (
	"context"
	"strconv"
	"strings"
	"time"

	"fjacquet/merchant-resolver/internal/canonical"
	"fjacquet/merchant-resolver/internal/detector"
	"fjacquet/merchant-resolver/internal/fingerprint"
	"fjacquet/merchant-resolver/internal/logging"
	"fjacquet/merchant-resolver/internal/models"
	"fjacquet/merchant-resolver/internal/parsererror"
	"fjacquet/merchant-resolver/internal/resolver"
	"fjacquet/merchant-resolver/internal/rules"
	"fjacquet/merchant-resolver/internal/signs"
	"fjacquet/merchant-resolver/internal/store"
	"fjacquet/merchant-resolver/internal/textnorm"

	"github.com/google/uuid"
)

// Store is the persistence the pipeline needs.
type Store interface {
	GetOrCreateAccount(ctx context.Context, name string) (int64, error)
	NextTransactionID(ctx context.Context) (int64, error)
	InsertTransaction(ctx context.Context, r *models.TransactionRecord) (bool, error)
	GetTransaction(ctx context.Context, transactionID string) (*models.TransactionRecord, error)
	ListTransactions(ctx context.Context, f store.TransactionFilter) ([]models.TransactionRecord, error)
	FillSuggested(ctx context.Context, id int64, category, subcategory, merchant *string) (bool, error)
	FillFinal(ctx context.Context, id int64, category, subcategory, merchant *string) (bool, error)
	ApplyCorrection(ctx context.Context, transactionID string, category, subcategory, merchant *string) (bool, error)
}

// MerchantResolver resolves lines no local strategy could.
type MerchantResolver interface {
	ResolveWithSource(ctx context.Context, texts []string) []resolver.Resolution
}

// Options tune the importer.
type Options struct {
	// AutoLearn upserts a rule for every accepted resolution.
	AutoLearn bool
}

// Importer runs import batches. It holds no per-batch state.
type Importer struct {
	store      Store
	book       *rules.Book
	strategies []MerchantStrategy
	resolver   MerchantResolver
	engine     *fingerprint.Engine
	signs      *signs.Normalizer
	opts       Options
	logger     logging.Logger
}

// NewImporter wires the default strategy chain: detector, learned rules,
// known brands. signs may be nil to keep amounts as given.
func NewImporter(st Store, book *rules.Book, det *detector.Detector, res MerchantResolver,
	sn *signs.Normalizer, opts Options, logger logging.Logger) *Importer {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Importer{
		store: st,
		book:  book,
		strategies: []MerchantStrategy{
			NewDetectorStrategy(det),
			NewRuleStrategy(book),
			BrandStrategy{},
		},
		resolver: res,
		engine:   fingerprint.NewEngine(det),
		signs:    sn,
		opts:     opts,
		logger:   logger,
	}
}

// FingerprintRecord computes the fingerprint an import stores for r. A
// fingerprint rebuild must use the same function.
func (im *Importer) FingerprintRecord(r models.TransactionRecord) string {
	return im.engine.ForRecord(strconv.FormatInt(r.AccountID, 10), r)
}

type pendingRow struct {
	row       models.ImportRow
	candidate Candidate
	resolved  bool
}

// Import resolves, fingerprints and stores rows for one account. Missing
// required fields fail the whole batch before anything is written; rows
// that collide with stored ones are counted as skipped.
func (im *Importer) Import(ctx context.Context, account string, rows []models.ImportRow) (models.ImportSummary, error) {
	summary := models.ImportSummary{BatchID: uuid.NewString()}
	log := im.logger.WithFields(logging.F(logging.FieldBatchID, summary.BatchID), logging.F(logging.FieldAccount, account))
	start := time.Now()

	if err := validate(account, rows); err != nil {
		return summary, err
	}
	if len(rows) == 0 {
		return summary, nil
	}

	batch := make([]models.ImportRow, len(rows))
	copy(batch, rows)
	for i := range batch {
		if strings.TrimSpace(batch[i].CleanedDescription) == "" {
			batch[i].CleanedDescription = cleanDescription(batch[i].Description)
		}
	}
	if im.signs != nil {
		if n := im.signs.Apply(batch); n > 0 {
			log.Debug("Adjusted amount signs", logging.F(logging.FieldCount, n))
		}
	}

	accountID, err := im.store.GetOrCreateAccount(ctx, account)
	if err != nil {
		return summary, &parsererror.StoreError{Operation: "get account", Err: err}
	}

	pending, err := im.resolve(ctx, batch, log)
	if err != nil {
		return summary, err
	}

	nextID := int64(0)
	for _, p := range pending {
		rec, learn := im.buildRecord(accountID, p)
		if rec.Merchant == nil {
			summary.Unresolved++
		}
		if learn && im.opts.AutoLearn {
			if err := im.book.Learn(ctx, *rec.Merchant, models.Deref(rec.SuggestedCategory), models.Deref(rec.SuggestedSubcategory)); err != nil {
				return summary, &parsererror.StoreError{Operation: "learn rule", Err: err}
			}
		}

		if rec.TransactionID == "" {
			if nextID == 0 {
				if nextID, err = im.store.NextTransactionID(ctx); err != nil {
					return summary, &parsererror.StoreError{Operation: "allocate transaction id", Err: err}
				}
			}
			rec.TransactionID = strconv.FormatInt(nextID, 10)
			nextID++
		}

		inserted, err := im.store.InsertTransaction(ctx, rec)
		if err != nil {
			return summary, &parsererror.StoreError{Operation: "insert transaction", Err: err}
		}
		if inserted {
			summary.Added++
		} else {
			summary.Skipped++
			log.Debug("Skipped duplicate transaction",
				logging.F(logging.FieldTransactionID, rec.TransactionID),
				logging.F(logging.FieldFingerprint, models.Deref(rec.Fingerprint)))
		}
	}

	log.Info("Import finished",
		logging.F("added", summary.Added),
		logging.F("skipped", summary.Skipped),
		logging.F("unresolved", summary.Unresolved),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	return summary, nil
}

// resolve runs the local strategies per row and sends the rest to the
// external resolver in one call.
func (im *Importer) resolve(ctx context.Context, batch []models.ImportRow, log logging.Logger) ([]pendingRow, error) {
	pending := make([]pendingRow, len(batch))
	var external []int
	for i, row := range batch {
		pending[i].row = row
		if m := strings.TrimSpace(row.Merchant); m != "" {
			pending[i].candidate = Candidate{Merchant: m}
			pending[i].resolved = true
			continue
		}
		line := Line{Original: row.Description, Cleaned: row.CleanedDescription}
		for _, s := range im.strategies {
			c, ok, err := s.Resolve(ctx, line)
			if err != nil {
				log.WithError(err).Warn("Merchant strategy failed", logging.F("strategy", s.Name()))
				continue
			}
			if ok {
				pending[i].candidate = c
				pending[i].resolved = true
				break
			}
		}
		if !pending[i].resolved {
			external = append(external, i)
		}
	}

	if len(external) > 0 && im.resolver != nil {
		texts := make([]string, len(external))
		for j, i := range external {
			texts[j] = batch[i].Description
		}
		for j, res := range im.resolver.ResolveWithSource(ctx, texts) {
			i := external[j]
			pending[i].candidate = Candidate{Merchant: res.Name, Source: res.Source}
			pending[i].resolved = !canonical.IsUnresolved(res.Name)
		}
	}
	return pending, nil
}

// buildRecord canonicalizes the merchant, fills advisory categories from
// rules and fingerprints the row. It reports whether the resolution should
// be learned.
func (im *Importer) buildRecord(accountID int64, p pendingRow) (*models.TransactionRecord, bool) {
	row := p.row
	rec := &models.TransactionRecord{
		TransactionID:        strings.TrimSpace(row.TransactionID),
		Date:                 row.Date,
		AccountID:            accountID,
		Amount:               row.Amount,
		OriginalDescription:  strings.TrimSpace(row.Description),
		CleanedDescription:   row.CleanedDescription,
		SuggestedCategory:    models.StringPtr(row.SuggestedCategory),
		SuggestedSubcategory: models.StringPtr(row.SuggestedSubcategory),
	}
	if p.resolved {
		rec.Merchant = canonical.ForStorage(p.candidate.Merchant)
	}

	matchText := rec.MatchText()
	if rec.SuggestedCategory == nil {
		if r, ok := im.book.Match(matchText); ok && r.Category != models.CategoryUncategorized {
			rec.SuggestedCategory = models.StringPtr(r.Category)
			if rec.SuggestedSubcategory == nil {
				rec.SuggestedSubcategory = models.StringPtr(r.Subcategory)
			}
		}
	}
	if rec.SuggestedCategory != nil && rec.SuggestedSubcategory == nil {
		rec.SuggestedSubcategory = models.StringPtr(im.book.SuggestSubcategory(matchText, *rec.SuggestedCategory))
	}

	rec.Fingerprint = models.StringPtr(im.FingerprintRecord(*rec))

	learn := rec.Merchant != nil &&
		(p.candidate.Source == models.SourceDeterministic || p.candidate.Source == models.SourceExternalService)
	return rec, learn
}

func validate(account string, rows []models.ImportRow) error {
	if strings.TrimSpace(account) == "" {
		return &parsererror.ValidationError{Source: "import", Reason: "account is required"}
	}
	for i, r := range rows {
		if r.Date.IsZero() {
			return &parsererror.ValidationError{Source: "import", Row: i + 1, Field: "date", Reason: "is required"}
		}
		if strings.TrimSpace(r.Description) == "" {
			return &parsererror.ValidationError{Source: "import", Row: i + 1, Field: "description", Reason: "is required"}
		}
	}
	return nil
}

// cleanDescription is the display form of a raw description.
func cleanDescription(desc string) string {
	if s := textnorm.Normalize(desc); s != "" {
		return strings.ToUpper(s)
	}
	return strings.ToUpper(textnorm.CollapseSpaces(desc))
}

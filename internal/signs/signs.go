// Package signs repairs the sign convention of imported amounts. Some bank
// exports list expenses as positive numbers; this is a best-effort
// heuristic, tunable through Options.
package signs

import (
	"strings"

	"fjacquet/merchant-resolver/internal/logging"
	"fjacquet/merchant-resolver/internal/models"
)

// DefaultFlipThreshold is the share of positive non-credit amounts at which
// a batch is assumed to list expenses as positive.
const DefaultFlipThreshold = 0.5

// DefaultCreditKeywords mark a line as money coming in.
func DefaultCreditKeywords() []string {
	return []string{
		"payment", "thank you", "refund", "reversal", "credit", "deposit",
		"interest", "cashback", "direct deposit", "transfer in", "payroll",
		"ach credit", "zelle from", "incoming",
	}
}

// Options tune the heuristic.
type Options struct {
	Enabled        bool
	FlipThreshold  float64
	CreditKeywords []string
}

// Normalizer applies the sign heuristic to import batches.
type Normalizer struct {
	opts     Options
	keywords []string
	logger   logging.Logger
}

// NewNormalizer builds a Normalizer. Empty keyword lists fall back to the
// defaults.
func NewNormalizer(opts Options, logger logging.Logger) *Normalizer {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if opts.FlipThreshold <= 0 || opts.FlipThreshold > 1 {
		opts.FlipThreshold = DefaultFlipThreshold
	}
	kw := opts.CreditKeywords
	if len(kw) == 0 {
		kw = DefaultCreditKeywords()
	}
	lowered := make([]string, 0, len(kw))
	for _, k := range kw {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lowered = append(lowered, k)
		}
	}
	return &Normalizer{opts: opts, keywords: lowered, logger: logger}
}

// IsCredit reports whether text contains a credit keyword.
func (n *Normalizer) IsCredit(text string) bool {
	lower := strings.ToLower(text)
	for _, k := range n.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Apply fixes amounts in place and returns how many rows changed. Credits
// become positive. When at least FlipThreshold of the other rows are
// positive, all of them become negative.
func (n *Normalizer) Apply(rows []models.ImportRow) int {
	if !n.opts.Enabled || len(rows) == 0 {
		return 0
	}

	changed := 0
	credit := make([]bool, len(rows))
	nonCredit, positive := 0, 0
	for i := range rows {
		credit[i] = n.IsCredit(rows[i].CleanedDescription + " " + rows[i].Description)
		if credit[i] {
			if rows[i].Amount.IsNegative() {
				rows[i].Amount = rows[i].Amount.Abs()
				changed++
			}
			continue
		}
		nonCredit++
		if rows[i].Amount.IsPositive() {
			positive++
		}
	}

	if nonCredit == 0 || float64(positive)/float64(nonCredit) < n.opts.FlipThreshold {
		return changed
	}
	for i := range rows {
		if !credit[i] && rows[i].Amount.IsPositive() {
			rows[i].Amount = rows[i].Amount.Neg()
			changed++
		}
	}
	n.logger.Debug("Flipped expense signs",
		logging.F(logging.FieldCount, positive),
		logging.F("non_credit", nonCredit))
	return changed
}

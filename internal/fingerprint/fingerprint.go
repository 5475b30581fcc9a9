// Package fingerprint derives the dedup identity of a transaction.
package fingerprint

import (
	"crypto/sha1" // #nosec G505 -- identity key, not a security boundary
	"encoding/hex"
	"strings"
	"time"

	"fjacquet/merchant-resolver/internal/detector"
	"fjacquet/merchant-resolver/internal/models"
	"fjacquet/merchant-resolver/internal/textnorm"

	"github.com/shopspring/decimal"
)

// Length is the number of hex characters kept from the digest.
const Length = 24

const delimiter = "|"

// Engine computes fingerprints. It holds no mutable state.
type Engine struct {
	detector *detector.Detector
}

// NewEngine returns an Engine that prefers det's canonical phrase as the
// event signature.
func NewEngine(det *detector.Detector) *Engine {
	return &Engine{detector: det}
}

// Signature is the case-stable event signature of text: the detector's
// canonical phrase when it recognizes the line, the normalized text
// otherwise.
func (e *Engine) Signature(text string) string {
	if res, ok := e.detector.Detect(text); ok && res.CanonicalPhrase != "" {
		return strings.ToUpper(res.CanonicalPhrase)
	}
	return strings.ToUpper(textnorm.Normalize(text))
}

// Compute returns the fingerprint of one economic event.
func (e *Engine) Compute(accountID string, date time.Time, text string, amount decimal.Decimal) string {
	return Hash(accountID, date.Format(models.DateLayoutISO), models.FormatAmount(amount), e.Signature(text))
}

// ForRecord fingerprints a stored record from its original and cleaned
// descriptions combined.
func (e *Engine) ForRecord(accountID string, r models.TransactionRecord) string {
	text := strings.TrimSpace(r.OriginalDescription + " " + r.CleanedDescription)
	return e.Compute(accountID, r.Date, text, r.Amount)
}

// Hash joins the parts with the delimiter and returns the truncated hex
// SHA-1 digest.
func Hash(parts ...string) string {
	sum := sha1.Sum([]byte(strings.Join(parts, delimiter))) // #nosec G401
	return hex.EncodeToString(sum[:])[:Length]
}

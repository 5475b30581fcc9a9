// Package detector recognizes peer-to-peer payment platforms and generic
// account transfers in raw bank text and pulls out the counterparty.
package detector

import (
	"regexp"
	"strings"

	"fjacquet/merchant-resolver/internal/models"
	"fjacquet/merchant-resolver/internal/textnorm"
)

var (
	trailerRe  = regexp.MustCompile(`(?i)[-:,;]?\s*\b(?:id|ref|reference|confirmation|conf|auth|trace|txn)\b.*$`)
	numberRe   = regexp.MustCompile(`\b\d{2,}\b`)
	handleRe   = regexp.MustCompile(`(?:^|[^\w.@])@([A-Za-z0-9_.]{2,40})`)
	emailRe    = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	toFromRe   = regexp.MustCompile(`(?i)\b(to|from)\b[:\s]+([A-Za-z][A-Za-z\s'.\-]*)`)
	adjacentRe = regexp.MustCompile(`(?i)^[\s*:#-]*(?:(?:payment|transfer|xfer|sent|received)\s+)*(?:(to|from)\b[:\s]*)?([A-Za-z@][A-Za-z0-9_@.\-\s']*)`)
	digitsOnly = regexp.MustCompile(`^[\d\s.\-]+$`)
)

// stopWords end a "to/from <name>" span.
var stopWords = wordSet("on", "for", "via", "with", "memo", "note", "id", "ref",
	"reference", "conf", "confirmation", "auth", "trace", "txn", "payment", "transfer")

// junkWords never belong in a counterparty name.
var junkWords = wordSet("payment", "transfer", "online", "mobile", "memo", "note",
	"id", "ref", "reference", "confirmation", "conf", "auth", "trace", "txn", "xfer",
	"p2p", "pos", "debit", "credit", "cashout", "inst", "instant", "web", "ach",
	"purchase", "sent", "received", "request")

func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// extraction is the intermediate form shared by the counterparty extractors.
type extraction struct {
	// text is the line after trailer and number scrubbing.
	text string
	// sigEnd is where the provider's surface form ends in text, or -1.
	sigEnd int
}

// extractor tries one strategy. It reports ok=false to let the next one run.
type extractor struct {
	name string
	fn   func(e extraction) (models.Direction, string, bool)
}

// Detector holds the compiled signature and extractor tables. It is
// immutable after construction and safe for concurrent use.
type Detector struct {
	signatures []signature
	extractors []extractor
}

// NewDetector builds a Detector with the built-in provider table.
func NewDetector() *Detector {
	return &Detector{
		signatures: defaultSignatures(),
		extractors: []extractor{
			{name: "handle", fn: extractHandle},
			{name: "email", fn: extractEmail},
			{name: "to_from", fn: extractToFrom},
			{name: "adjacent", fn: extractAdjacent},
		},
	}
}

// Detect classifies text. The boolean is false when neither a provider nor a
// generic transfer was recognized. A provider line with no extractable
// counterparty still reports the provider with an empty Counterparty.
func (d *Detector) Detect(text string) (models.ResolutionResult, bool) {
	if strings.TrimSpace(text) == "" {
		return models.ResolutionResult{}, false
	}
	if p, _, ok := matchSignature(d.signatures, text); ok {
		return d.detectProvider(p, text), true
	}
	if dir, name, ok := extractGenericTransfer(text); ok {
		return result(models.ProviderGenericTransfer, dir, name), true
	}
	return models.ResolutionResult{}, false
}

// Provider reports only which platform, if any, text mentions.
func (d *Detector) Provider(text string) models.Provider {
	p, _, _ := matchSignature(d.signatures, text)
	return p
}

// Prefill returns the canonical phrase when text resolves to a named
// counterparty. A bare provider name does not count.
func (d *Detector) Prefill(text string) (string, bool) {
	res, ok := d.Detect(text)
	if !ok || !res.HasCounterparty() {
		return "", false
	}
	return res.CanonicalPhrase, true
}

func (d *Detector) detectProvider(p models.Provider, text string) models.ResolutionResult {
	// Masked account numbers and account tails go before digits are
	// stripped, otherwise their letter prefixes leak into the name.
	cleaned := textnorm.Normalize(text)
	cleaned = textnorm.CollapseSpaces(numberRe.ReplaceAllString(trailerRe.ReplaceAllString(cleaned, ""), " "))
	e := extraction{text: cleaned, sigEnd: signatureEnd(d.signatures, p, cleaned)}
	for _, ex := range d.extractors {
		if dir, name, ok := ex.fn(e); ok {
			return result(p, dir, name)
		}
	}
	return result(p, models.DirectionNone, "")
}

func result(p models.Provider, dir models.Direction, name string) models.ResolutionResult {
	return models.ResolutionResult{
		Provider:        p,
		Direction:       dir,
		Counterparty:    name,
		CanonicalPhrase: models.BuildCanonicalPhrase(p, dir, name),
		Source:          models.SourceDeterministic,
	}
}

func extractHandle(e extraction) (models.Direction, string, bool) {
	m := handleRe.FindStringSubmatch(e.text)
	if m == nil {
		return models.DirectionNone, "", false
	}
	handle := strings.TrimRight(m[1], ".")
	if len(handle) < 2 {
		return models.DirectionNone, "", false
	}
	return directionNear(e.text), "@" + handle, true
}

func extractEmail(e extraction) (models.Direction, string, bool) {
	m := emailRe.FindString(e.text)
	if m == "" {
		return models.DirectionNone, "", false
	}
	return directionNear(e.text), m, true
}

// extractToFrom takes the first "to/from <name>" span whose name survives
// scrubbing. The span ends at the first stop word.
func extractToFrom(e extraction) (models.Direction, string, bool) {
	for _, m := range toFromRe.FindAllStringSubmatch(e.text, -1) {
		name := cleanName(cutAtStopWord(m[2]))
		if name == "" {
			continue
		}
		return models.ParseDirection(m[1]), name, true
	}
	return models.DirectionNone, "", false
}

// extractAdjacent reads the words right after the provider signature, as
// in "ZELLE JOHN SMITH" or "VENMO PAYMENT FROM JANE".
func extractAdjacent(e extraction) (models.Direction, string, bool) {
	if e.sigEnd < 0 || e.sigEnd >= len(e.text) {
		return models.DirectionNone, "", false
	}
	m := adjacentRe.FindStringSubmatch(e.text[e.sigEnd:])
	if m == nil {
		return models.DirectionNone, "", false
	}
	dir, span := m[1], m[2]
	// A bare "TO"/"FROM" with nothing usable after it lands in the name group.
	if dir == "" {
		if fields := strings.Fields(span); len(fields) > 0 && isDirectionWord(fields[0]) {
			dir, span = fields[0], strings.Join(fields[1:], " ")
		}
	}
	name := cleanName(cutAtStopWord(span))
	if name == "" {
		return models.DirectionNone, "", false
	}
	return models.ParseDirection(dir), name, true
}

func isDirectionWord(w string) bool {
	switch strings.ToLower(strings.Trim(w, ".:,;-")) {
	case "to", "from":
		return true
	}
	return false
}

// directionNear picks up a to/from keyword anywhere in the line.
func directionNear(s string) models.Direction {
	if m := toFromRe.FindStringSubmatch(s); m != nil {
		return models.ParseDirection(m[1])
	}
	return models.DirectionNone
}

func cutAtStopWord(span string) string {
	fields := strings.Fields(span)
	for i, f := range fields {
		if _, stop := stopWords[strings.ToLower(strings.Trim(f, ".:,;'-"))]; stop {
			return strings.Join(fields[:i], " ")
		}
	}
	return strings.Join(fields, " ")
}

// cleanName drops junk tokens and stray digits, then title-cases the rest.
// Handles and emails keep their casing.
func cleanName(s string) string {
	s = numberRe.ReplaceAllString(s, " ")
	var kept []string
	for _, f := range strings.Fields(s) {
		bare := strings.ToLower(strings.Trim(f, ".:,;-*#"))
		if bare == "" {
			continue
		}
		if _, junk := junkWords[bare]; junk {
			continue
		}
		kept = append(kept, f)
	}
	name := textnorm.Trim(strings.Join(kept, " "))
	name = strings.Trim(name, "'")
	if len(name) < 2 || digitsOnly.MatchString(name) {
		return ""
	}
	if textnorm.IsHandleOrEmail(name) {
		return name
	}
	return textnorm.TitleCase(name)
}

package detector

import (
	"regexp"
	"strings"

	"fjacquet/merchant-resolver/internal/models"
	"fjacquet/merchant-resolver/internal/textnorm"
)

var (
	transferWordRe = regexp.MustCompile(`(?i)\b(?:transfer|payment|pmt|xfer)\b`)
	transferTailRe = regexp.MustCompile(`(?i)\b(to|from)\b\s*[:#-]?\s*(.+)`)
	tailMetaRe     = regexp.MustCompile(`(?i)\b(?:ref(?:erence)?|id|trace|conf(?:irmation)?|txn)\b\s*[:#]?\s*[\w-]+.*$`)
	tailDateRe     = regexp.MustCompile(`(?i)\bon\s+\d{1,2}[/-]\d{1,2}(?:[/-]\d{2,4})?\b`)
	tailMaskedRe   = regexp.MustCompile(`(?i)(?:\bx{2,}|[*#]{2,})\d{2,}\b`)
	tailAccountRe  = regexp.MustCompile(`(?i)\b(?:acct|account|ending|number)\b[:#]?\s*`)
	strayCodeRe    = regexp.MustCompile(`^(?:[A-Za-z]{0,2}\d[\w-]*|[\W_]+)$`)
)

// accountLabels expands common bank abbreviations in transfer tails.
var accountLabels = map[string]string{
	"chk":  "checking",
	"chkg": "checking",
	"sav":  "savings",
	"svgs": "savings",
	"loc":  "line of credit",
}

// extractGenericTransfer recognizes "... TRANSFER FROM <account> ..." lines
// that name no payment platform.
func extractGenericTransfer(text string) (models.Direction, string, bool) {
	if !transferWordRe.MatchString(text) {
		return models.DirectionNone, "", false
	}
	m := transferTailRe.FindStringSubmatch(text)
	if m == nil {
		return models.DirectionNone, "", false
	}
	tail := scrubTransferTail(m[2])
	if tail == "" {
		return models.DirectionNone, "", false
	}
	return models.ParseDirection(m[1]), tail, true
}

func scrubTransferTail(tail string) string {
	tail = tailMetaRe.ReplaceAllString(tail, "")
	tail = tailDateRe.ReplaceAllString(tail, " ")
	tail = tailMaskedRe.ReplaceAllString(tail, " ")
	tail = tailAccountRe.ReplaceAllString(tail, " ")
	tail = numberRe.ReplaceAllString(tail, " ")
	tail = textnorm.Trim(cutAtStopWord(textnorm.CollapseSpaces(tail)))

	var words []string
	for _, f := range strings.Fields(tail) {
		lower := strings.ToLower(f)
		if full, ok := accountLabels[lower]; ok {
			f = full
		}
		words = append(words, f)
	}
	tail = strings.Join(words, " ")
	if tail == "" || strayCodeRe.MatchString(tail) || onlyStopWords(tail) {
		return ""
	}
	return textnorm.TitleCase(tail)
}

func onlyStopWords(s string) bool {
	for _, f := range strings.Fields(strings.ToLower(s)) {
		if _, stop := stopWords[f]; !stop {
			return false
		}
	}
	return true
}

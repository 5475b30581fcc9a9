package detector

import (
	"regexp"

	"fjacquet/merchant-resolver/internal/models"
)

// signature is one surface form of a provider name as it appears in bank
// text. The table is scanned top to bottom and the first hit wins, so
// multi-word forms come before short tokens that could collide with
// unrelated text.
type signature struct {
	provider models.Provider
	re       *regexp.Regexp
}

func sig(p models.Provider, expr string) signature {
	return signature{provider: p, re: regexp.MustCompile(`(?i)` + expr)}
}

func defaultSignatures() []signature {
	return []signature{
		sig(models.ProviderZelle, `zelle\s*(?:payment|xfer|transfer)`),
		sig(models.ProviderZelle, `\b(?:ach|web)\s*zelle`),
		sig(models.ProviderVenmo, `venmo\s*payment`),
		sig(models.ProviderVenmo, `\b(?:web|xfer)\s*venmo`),
		sig(models.ProviderCashApp, `square\s*cash`),
		sig(models.ProviderCashApp, `\bsq\s*cash\b`),
		sig(models.ProviderCashApp, `cash\s+app`),
		sig(models.ProviderPayPal, `paypal\s*inst\s*xfer`),
		sig(models.ProviderAppleCash, `apple\s*pay\s*cash`),
		sig(models.ProviderAppleCash, `apple\s*cash`),
		sig(models.ProviderGooglePay, `google\s*pay`),
		sig(models.ProviderGooglePay, `google\s*wallet`),
		sig(models.ProviderAppleCash, `apple\s*pay`),

		sig(models.ProviderZelle, `\bzelle\b`),
		sig(models.ProviderVenmo, `\bvenmo\b`),
		sig(models.ProviderCashApp, `\bcashapp\b`),
		sig(models.ProviderPayPal, `\bpaypal\b`),
		sig(models.ProviderPayPal, `\bpypl\b\*?`),
		sig(models.ProviderGooglePay, `\bgpay\b`),
		sig(models.ProviderPayPal, `\bpp\*?\b`),
	}
}

// matchSignature returns the first signature found in s and the byte offset
// just past it.
func matchSignature(sigs []signature, s string) (models.Provider, int, bool) {
	for _, sg := range sigs {
		if loc := sg.re.FindStringIndex(s); loc != nil {
			return sg.provider, loc[1], true
		}
	}
	return models.ProviderNone, -1, false
}

// signatureEnd finds where the given provider's first surface form ends in s.
func signatureEnd(sigs []signature, p models.Provider, s string) int {
	for _, sg := range sigs {
		if sg.provider != p {
			continue
		}
		if loc := sg.re.FindStringIndex(s); loc != nil {
			return loc[1]
		}
	}
	return -1
}

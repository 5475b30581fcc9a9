package models

import "strings"

// Provider identifies the payment platform an event went through.
type Provider string

const (
	ProviderNone            Provider = ""
	ProviderZelle           Provider = "Zelle"
	ProviderVenmo           Provider = "Venmo"
	ProviderCashApp         Provider = "CashApp"
	ProviderPayPal          Provider = "PayPal"
	ProviderAppleCash       Provider = "AppleCash"
	ProviderGooglePay       Provider = "GooglePay"
	ProviderGenericTransfer Provider = "GenericTransfer"
)

var providerDisplay = map[Provider]string{
	ProviderZelle:           "Zelle",
	ProviderVenmo:           "Venmo",
	ProviderCashApp:         "Cash App",
	ProviderPayPal:          "PayPal",
	ProviderAppleCash:       "Apple Cash",
	ProviderGooglePay:       "Google Pay",
	ProviderGenericTransfer: "Transfer",
}

// DisplayName is the human form used in canonical phrases ("Cash App").
func (p Provider) DisplayName() string {
	return providerDisplay[p]
}

// IsPeerToPeer reports whether p is one of the peer-to-peer platforms.
func (p Provider) IsPeerToPeer() bool {
	return p != ProviderNone && p != ProviderGenericTransfer
}

// Direction is the money flow relative to the account holder.
type Direction string

const (
	DirectionNone Direction = ""
	DirectionTo   Direction = "To"
	DirectionFrom Direction = "From"
)

// ParseDirection maps "to"/"from" in any case to a Direction.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "to":
		return DirectionTo
	case "from":
		return DirectionFrom
	default:
		return DirectionNone
	}
}

// Source records which component produced a resolution.
type Source string

const (
	SourceNone            Source = ""
	SourceDeterministic   Source = "Deterministic"
	SourceExternalService Source = "ExternalService"
	SourceRuleStore       Source = "RuleStore"
)

// ResolutionResult is the outcome of resolving a single raw line. It is
// never persisted as its own entity.
type ResolutionResult struct {
	Provider        Provider  `json:"provider"`
	Direction       Direction `json:"direction"`
	Counterparty    string    `json:"counterparty"`
	CanonicalPhrase string    `json:"canonical_phrase"`
	Source          Source    `json:"source"`
}

// HasCounterparty reports whether a counterparty was extracted.
func (r ResolutionResult) HasCounterparty() bool {
	return strings.TrimSpace(r.Counterparty) != ""
}

// IsMatch reports whether the detector recognized anything at all.
func (r ResolutionResult) IsMatch() bool {
	return r.Provider != ProviderNone
}

// BuildCanonicalPhrase renders "{Provider} {Direction} {Counterparty}",
// dropping the parts that are unknown.
func BuildCanonicalPhrase(p Provider, d Direction, counterparty string) string {
	name := p.DisplayName()
	if name == "" {
		return ""
	}
	counterparty = strings.TrimSpace(counterparty)
	switch {
	case d != DirectionNone && counterparty != "":
		return name + " " + string(d) + " " + counterparty
	case counterparty != "":
		return name + " " + counterparty
	default:
		return name
	}
}

package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRecord is a stored transaction. Pointer fields are nullable;
// nil means "not determined" and is distinct from any string value.
type TransactionRecord struct {
	ID                   int64
	TransactionID        string
	Date                 time.Time
	AccountID            int64
	AccountName          string
	Amount               decimal.Decimal
	OriginalDescription  string
	CleanedDescription   string
	Merchant             *string
	Category             *string
	Subcategory          *string
	SuggestedCategory    *string
	SuggestedSubcategory *string
	Fingerprint          *string
}

// ISODate returns the record date as YYYY-MM-DD.
func (r TransactionRecord) ISODate() string {
	return r.Date.Format(DateLayoutISO)
}

// MatchText is the text rules are matched against: the merchant when known,
// otherwise the cleaned description.
func (r TransactionRecord) MatchText() string {
	if m := Deref(r.Merchant); m != "" {
		return m
	}
	return r.CleanedDescription
}

// DateLayoutISO is the calendar date layout used throughout storage.
const DateLayoutISO = "2006-01-02"

// StringPtr returns a pointer to the trimmed value, or nil when it is blank.
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

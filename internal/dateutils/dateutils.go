// Package dateutils coerces the dates found in bank CSV exports.
package dateutils

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"fjacquet/merchant-resolver/internal/parsererror"
)

// Date layouts seen in bank exports.
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutUS       = "01/02/2006"
	DateLayoutUSShort  = "01/02/06"
	DateLayoutEuropean = "02.01.2006"
	DateLayoutFull     = "2006-01-02 15:04:05"
)

// DefaultFormats is tried in order when no layouts are configured. US
// layouts come before European ones, so 03/04/2025 is March 4th.
var DefaultFormats = []string{
	DateLayoutISO,
	DateLayoutUS,
	"1/2/2006",
	DateLayoutUSShort,
	"1/2/06",
	DateLayoutEuropean,
	DateLayoutFull,
	time.RFC3339,
	"Jan 2, 2006",
	"January 2, 2006",
	"02 Jan 2006",
}

// Errors wrapped by the ParseError that Parse returns.
var (
	ErrEmptyDate = errors.New("empty date")
	ErrNoLayout  = errors.New("no known layout matches")
)

var spaceRe = regexp.MustCompile(`\s+`)

// Parser parses dates against an ordered list of layouts.
type Parser struct {
	layouts []string
}

// NewParser creates a Parser. An empty list uses DefaultFormats.
func NewParser(layouts []string) *Parser {
	if len(layouts) == 0 {
		layouts = DefaultFormats
	}
	return &Parser{layouts: layouts}
}

// Parse returns the calendar date in UTC at midnight. Time-of-day and zone
// information are dropped.
func (p *Parser) Parse(dateStr string) (time.Time, error) {
	clean := CleanDateString(dateStr)
	if clean == "" {
		return time.Time{}, &parsererror.ParseError{Parser: "date", Field: "date", Value: dateStr, Err: ErrEmptyDate}
	}
	for _, layout := range p.layouts {
		if t, err := time.Parse(layout, clean); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, &parsererror.ParseError{Parser: "date", Field: "date", Value: dateStr, Err: ErrNoLayout}
}

// Layouts returns the layouts in the order they are tried.
func (p *Parser) Layouts() []string {
	out := make([]string, len(p.layouts))
	copy(out, p.layouts)
	return out
}

// ParseDate parses with DefaultFormats.
func ParseDate(dateStr string) (time.Time, error) {
	return NewParser(nil).Parse(dateStr)
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD)
func ToISODate(date time.Time) string {
	if date.IsZero() {
		return ""
	}
	return date.Format(DateLayoutISO)
}

// CleanDateString trims the value and collapses inner whitespace.
func CleanDateString(dateStr string) string {
	return spaceRe.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}

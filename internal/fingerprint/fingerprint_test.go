package fingerprint

import (
	"testing"
	"time"

	"fjacquet/merchant-resolver/internal/detector"
	"fjacquet/merchant-resolver/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newEngine() *Engine {
	return NewEngine(detector.NewDetector())
}

func date(s string) time.Time {
	d, err := time.Parse(models.DateLayoutISO, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestSignature(t *testing.T) {
	e := newEngine()
	tests := []struct {
		input string
		want  string
	}{
		{"ZELLE TO JANE DOE REF 12345", "ZELLE TO JANE DOE"},
		{"zelle to jane doe", "ZELLE TO JANE DOE"},
		{"ONLINE TRANSFER FROM SAVINGS XXXXXX4311", "TRANSFER FROM SAVINGS"},
		{"Blue Bottle Coffee conf: AB99", "BLUE BOTTLE COFFEE"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Signature(tt.input))
		})
	}
}

func TestCompute_StableAcrossReimports(t *testing.T) {
	e := newEngine()
	d := date("2025-08-12")
	amt := decimal.RequireFromString("-125.5")

	a := e.Compute("1", d, "ONLINE TRANSFER TO SAVINGS XXXXXX4311 REF 1111", amt)
	b := e.Compute("1", d, "ONLINE TRANSFER TO SAVINGS XXXXXX9981 REF 2222", amt)
	assert.Equal(t, a, b)
	assert.Len(t, a, Length)

	c := e.Compute("1", d, "ZELLE TO JANE DOE REF 12345", amt)
	f := e.Compute("1", d, "Zelle to Jane Doe conf AB99", amt)
	assert.Equal(t, c, f)
}

func TestCompute_DistinguishesEvents(t *testing.T) {
	e := newEngine()
	d := date("2025-08-12")
	amt := decimal.RequireFromString("10.00")
	base := e.Compute("1", d, "ZELLE TO JANE DOE", amt)

	assert.NotEqual(t, base, e.Compute("2", d, "ZELLE TO JANE DOE", amt), "account")
	assert.NotEqual(t, base, e.Compute("1", date("2025-08-13"), "ZELLE TO JANE DOE", amt), "date")
	assert.NotEqual(t, base, e.Compute("1", d, "ZELLE TO JANE DOE", decimal.RequireFromString("10.01")), "amount")
	assert.NotEqual(t, base, e.Compute("1", d, "ZELLE TO JOHN DOE", amt), "counterparty")
}

func TestCompute_AmountPrecision(t *testing.T) {
	e := newEngine()
	d := date("2025-01-02")
	assert.Equal(t,
		e.Compute("1", d, "COFFEE", decimal.RequireFromString("4.5")),
		e.Compute("1", d, "COFFEE", decimal.RequireFromString("4.50")),
	)
}

func TestHash(t *testing.T) {
	got := Hash("a", "b")
	assert.Len(t, got, Length)
	assert.Equal(t, Hash("a", "b"), got)
	assert.NotEqual(t, Hash("a|b"), Hash("a", "c"))
	assert.Equal(t, Hash("a|b"), got)
}

func TestForRecord(t *testing.T) {
	e := newEngine()
	r := models.TransactionRecord{
		Date:                date("2025-03-04"),
		Amount:              decimal.RequireFromString("-20"),
		OriginalDescription: "ZELLE TO JANE DOE REF 12345",
		CleanedDescription:  "ZELLE TO JANE DOE",
	}
	reimport := r
	reimport.OriginalDescription = "ZELLE TO JANE DOE REF 99999"
	assert.Equal(t, e.ForRecord("7", r), e.ForRecord("7", reimport))
}

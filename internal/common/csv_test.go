package common

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fjacquet/merchant-resolver/internal/dateutils"
	"fjacquet/merchant-resolver/internal/logging"
	"fjacquet/merchant-resolver/internal/models"
	"fjacquet/merchant-resolver/internal/parsererror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSVFile_ImportRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	content := `date,description,amount,merchant
08/12/2025,ZELLE PAYMENT TO JANE DOE REF 12345,-50.00,
2025-08-13,"AMZN MKTP US*2K4, SEATTLE WA","$1,019.99",
,,,
2025-08-14,COFFEE,(4.50),Blue Bottle
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	c := NewCSV(',', logging.NewMockLogger())
	rows, err := ReadCSVFile[ImportCSVRow](c, path)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	imported, err := ToImportRows(rows, dateutils.NewParser(nil))
	require.NoError(t, err)
	require.Len(t, imported, 3, "blank lines are dropped")

	assert.Equal(t, time.Date(2025, 8, 12, 0, 0, 0, 0, time.UTC), imported[0].Date)
	assert.Equal(t, "-50.00", models.FormatAmount(imported[0].Amount))
	assert.Equal(t, "AMZN MKTP US*2K4, SEATTLE WA", imported[1].Description)
	assert.Equal(t, "1019.99", models.FormatAmount(imported[1].Amount))
	assert.Equal(t, "-4.50", models.FormatAmount(imported[2].Amount))
	assert.Equal(t, "Blue Bottle", imported[2].Merchant)
}

func TestReadCSV_Semicolon(t *testing.T) {
	c := NewCSV(';', nil)
	rows, err := ReadCSV[CorrectionCSVRow](c, strings.NewReader("transaction_id;category;merchant\n7;Food;Blue Bottle\n"))
	require.NoError(t, err)

	corrections := ToCorrections(rows)
	require.Len(t, corrections, 1)
	assert.Equal(t, models.Correction{TransactionID: "7", Category: "Food", Merchant: "Blue Bottle"}, corrections[0])
}

func TestReadCSVFile_Missing(t *testing.T) {
	_, err := ReadCSVFile[ImportCSVRow](NewCSV(0, nil), filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestToImportRows_Errors(t *testing.T) {
	dates := dateutils.NewParser(nil)
	tests := []struct {
		name  string
		row   ImportCSVRow
		field string
	}{
		{"bad date", ImportCSVRow{Date: "someday", Description: "X", Amount: "1"}, "date (line 2)"},
		{"bad amount", ImportCSVRow{Date: "2025-08-01", Description: "X", Amount: "abc"}, "amount (line 2)"},
		{"missing amount", ImportCSVRow{Date: "2025-08-01", Description: "X"}, "amount (line 2)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToImportRows([]ImportCSVRow{tt.row}, dates)
			var pe *parsererror.ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.field, pe.Field)
		})
	}
}

func TestWriteCSVFile_Export(t *testing.T) {
	merchant := "Blue Bottle Coffee"
	fp := "abc123"
	records := []models.TransactionRecord{{
		TransactionID:       "1",
		Date:                time.Date(2025, 8, 12, 0, 0, 0, 0, time.UTC),
		AccountName:         "Checking",
		Amount:              decimal.RequireFromString("-6.5"),
		OriginalDescription: "BLUE BOTTLE COFFEE 123",
		CleanedDescription:  "BLUE BOTTLE COFFEE 123",
		Merchant:            &merchant,
		Fingerprint:         &fp,
	}}

	path := filepath.Join(t.TempDir(), "out", "export.csv")
	c := NewCSV(',', nil)
	require.NoError(t, WriteCSVFile(c, path, ToExportRows(records)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "transaction_id,date,account,amount,original_description,cleaned_description,merchant,category,subcategory,ai_category,ai_subcategory,unique_fingerprint", lines[0])
	assert.Equal(t, "1,2025-08-12,Checking,-6.50,BLUE BOTTLE COFFEE 123,BLUE BOTTLE COFFEE 123,Blue Bottle Coffee,,,,,abc123", lines[1])
}

func TestWriteCSV_NilRows(t *testing.T) {
	var rows []ExportCSVRow
	assert.Error(t, WriteCSVFile(NewCSV(0, nil), filepath.Join(t.TempDir(), "x.csv"), rows))

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(NewCSV(';', nil), &buf, []CorrectionCSVRow{{TransactionID: "1", Category: "Food"}}))
	assert.Equal(t, "transaction_id;category;subcategory;merchant\n1;Food;;\n", buf.String())
}

func TestCheckHeader(t *testing.T) {
	c := NewCSV(',', logging.NewMockLogger())
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
		return path
	}

	ok := write("ok.csv", "\ufeffDate, Description ,Amount,merchant\n2025-01-02,X,1\n")
	require.NoError(t, CheckHeader(c, ok, ImportColumns...))

	bad := write("bad.csv", "date,memo\n2025-01-02,X\n")
	err := CheckHeader(c, bad, ImportColumns...)
	var formatErr *parsererror.InvalidFormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, "missing column description, amount", formatErr.Msg)
	assert.Equal(t, "date,memo", formatErr.ActualContentSnippet)

	empty := write("empty.csv", "")
	assert.Error(t, CheckHeader(c, empty, CorrectionColumns...))

	assert.Error(t, CheckHeader(c, filepath.Join(dir, "missing.csv"), ImportColumns...))
}

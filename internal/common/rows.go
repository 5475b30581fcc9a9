package common

import (
	"strconv"
	"strings"

	"fjacquet/merchant-resolver/internal/dateutils"
	"fjacquet/merchant-resolver/internal/models"
	"fjacquet/merchant-resolver/internal/parsererror"
)

// ImportCSVRow is one line of an import file. Only date, description and
// amount are required.
type ImportCSVRow struct {
	TransactionID string `csv:"transaction_id"`
	Date          string `csv:"date"`
	Description   string `csv:"description"`
	Amount        string `csv:"amount"`
	Merchant      string `csv:"merchant"`
	Category      string `csv:"category"`
	Subcategory   string `csv:"subcategory"`
}

// CorrectionCSVRow is one line of a corrections file.
type CorrectionCSVRow struct {
	TransactionID string `csv:"transaction_id"`
	Category      string `csv:"category"`
	Subcategory   string `csv:"subcategory"`
	Merchant      string `csv:"merchant"`
}

// ExportCSVRow is one stored transaction in an export file.
type ExportCSVRow struct {
	TransactionID        string `csv:"transaction_id"`
	Date                 string `csv:"date"`
	Account              string `csv:"account"`
	Amount               string `csv:"amount"`
	OriginalDescription  string `csv:"original_description"`
	CleanedDescription   string `csv:"cleaned_description"`
	Merchant             string `csv:"merchant"`
	Category             string `csv:"category"`
	Subcategory          string `csv:"subcategory"`
	SuggestedCategory    string `csv:"ai_category"`
	SuggestedSubcategory string `csv:"ai_subcategory"`
	Fingerprint          string `csv:"unique_fingerprint"`
}

// ToImportRows coerces dates and amounts. Blank lines are dropped; a value
// that cannot be coerced fails the whole file with a ParseError naming the
// line. Missing descriptions are left for the importer to reject.
func ToImportRows(rows []ImportCSVRow, dates *dateutils.Parser) ([]models.ImportRow, error) {
	out := make([]models.ImportRow, 0, len(rows))
	for i, r := range rows {
		if isBlank(r) {
			continue
		}
		line := i + 2 // header is line 1
		date, err := dates.Parse(r.Date)
		if err != nil {
			return nil, &parsererror.ParseError{Parser: "import", Field: lineField("date", line), Value: r.Date, Err: err}
		}
		amount, err := models.ParseAmount(r.Amount)
		if err != nil {
			return nil, &parsererror.ParseError{Parser: "import", Field: lineField("amount", line), Value: r.Amount, Err: err}
		}
		out = append(out, models.ImportRow{
			TransactionID:        strings.TrimSpace(r.TransactionID),
			Date:                 date,
			Description:          strings.TrimSpace(r.Description),
			Amount:               amount,
			Merchant:             strings.TrimSpace(r.Merchant),
			SuggestedCategory:    strings.TrimSpace(r.Category),
			SuggestedSubcategory: strings.TrimSpace(r.Subcategory),
		})
	}
	return out, nil
}

// ToCorrections converts correction rows, dropping blank lines.
func ToCorrections(rows []CorrectionCSVRow) []models.Correction {
	out := make([]models.Correction, 0, len(rows))
	for _, r := range rows {
		if strings.TrimSpace(r.TransactionID+r.Category+r.Subcategory+r.Merchant) == "" {
			continue
		}
		out = append(out, models.Correction{
			TransactionID: strings.TrimSpace(r.TransactionID),
			Category:      strings.TrimSpace(r.Category),
			Subcategory:   strings.TrimSpace(r.Subcategory),
			Merchant:      strings.TrimSpace(r.Merchant),
		})
	}
	return out
}

// ToExportRows flattens stored records. Null columns become empty cells.
func ToExportRows(records []models.TransactionRecord) []ExportCSVRow {
	out := make([]ExportCSVRow, len(records))
	for i, r := range records {
		out[i] = ExportCSVRow{
			TransactionID:        r.TransactionID,
			Date:                 r.ISODate(),
			Account:              r.AccountName,
			Amount:               models.FormatAmount(r.Amount),
			OriginalDescription:  r.OriginalDescription,
			CleanedDescription:   r.CleanedDescription,
			Merchant:             models.Deref(r.Merchant),
			Category:             models.Deref(r.Category),
			Subcategory:          models.Deref(r.Subcategory),
			SuggestedCategory:    models.Deref(r.SuggestedCategory),
			SuggestedSubcategory: models.Deref(r.SuggestedSubcategory),
			Fingerprint:          models.Deref(r.Fingerprint),
		}
	}
	return out
}

func isBlank(r ImportCSVRow) bool {
	return strings.TrimSpace(r.TransactionID+r.Date+r.Description+r.Amount+r.Merchant+r.Category+r.Subcategory) == ""
}

func lineField(field string, line int) string {
	return field + " (line " + strconv.Itoa(line) + ")"
}

// Package common holds the CSV surface of the command line: reading import
// and correction files and writing exports.
package common

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/merchant-resolver/internal/logging"
	"fjacquet/merchant-resolver/internal/models"
	"fjacquet/merchant-resolver/internal/parsererror"

	"github.com/gocarina/gocsv"
)

// CSV reads and writes gocsv-tagged rows with a fixed delimiter.
type CSV struct {
	delimiter rune
	logger    logging.Logger
}

// NewCSV creates a CSV codec. A zero delimiter means ','.
func NewCSV(delimiter rune, logger logging.Logger) *CSV {
	if delimiter == 0 {
		delimiter = ','
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &CSV{delimiter: delimiter, logger: logger}
}

// ReadCSVFile reads a CSV file with a header row into rows of TCSVRow.
func ReadCSVFile[TCSVRow any](c *CSV, filePath string) ([]TCSVRow, error) {
	c.logger.Debug("Reading CSV file", logging.F(logging.FieldFile, filePath))

	file, err := os.Open(filePath) // #nosec G304 -- user-supplied input file
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			c.logger.WithError(err).Warn("Failed to close file")
		}
	}()

	rows, err := ReadCSV[TCSVRow](c, file)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Read CSV data", logging.F(logging.FieldFile, filePath), logging.F(logging.FieldCount, len(rows)))
	return rows, nil
}

// Required columns of the files read by the command line.
var (
	ImportColumns     = []string{"date", "description", "amount"}
	CorrectionColumns = []string{"transaction_id"}
)

// CheckHeader fails with an InvalidFormatError when the header row of
// filePath lacks any of the required columns. Column names are compared
// case-insensitively.
func CheckHeader(c *CSV, filePath string, required ...string) error {
	file, err := os.Open(filePath) // #nosec G304 -- user-supplied input file
	if err != nil {
		return fmt.Errorf("error opening CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.Comma = c.delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("error reading CSV header: %w", err)
	}

	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = true
	}
	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &parsererror.InvalidFormatError{
		FilePath:             filePath,
		ExpectedFormat:       strings.Join(required, string(c.delimiter)),
		ActualContentSnippet: strings.Join(header, string(c.delimiter)),
		Msg:                  "missing column " + strings.Join(missing, ", "),
	}
}

// ReadCSV parses CSV data with a header row into rows of TCSVRow.
func ReadCSV[TCSVRow any](c *CSV, in io.Reader) ([]TCSVRow, error) {
	reader := csv.NewReader(in)
	reader.Comma = c.delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var rows []TCSVRow
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return nil, fmt.Errorf("error parsing CSV file: %w", err)
	}
	return rows, nil
}

// WriteCSVFile writes rows with a header to filePath, creating parent
// directories as needed.
func WriteCSVFile[TCSVRow any](c *CSV, filePath string, rows []TCSVRow) error {
	if rows == nil {
		return fmt.Errorf("cannot write nil rows to CSV")
	}
	if err := os.MkdirAll(filepath.Dir(filePath), models.PermissionDirectory); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	file, err := os.Create(filePath) // #nosec G304 -- user-supplied output file
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			c.logger.WithError(err).Warn("Failed to close file")
		}
	}()

	if err := WriteCSV(c, file, rows); err != nil {
		return err
	}
	c.logger.Info("Wrote CSV file",
		logging.F(logging.FieldFile, filePath),
		logging.F(logging.FieldCount, len(rows)))
	return nil
}

// WriteCSV writes rows with a header to out.
func WriteCSV[TCSVRow any](c *CSV, out io.Writer, rows []TCSVRow) error {
	csvWriter := csv.NewWriter(out)
	csvWriter.Comma = c.delimiter
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}

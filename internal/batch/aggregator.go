// Package batch groups a directory of exports by account so each account
// can be imported as one batch.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"fjacquet/merchant-resolver/internal/common"
	"fjacquet/merchant-resolver/internal/logging"
	"fjacquet/merchant-resolver/internal/models"
)

// DateRange represents a date range with start and end dates
type DateRange struct {
	Start time.Time
	End   time.Time
}

// String returns the date range in the format "YYYY-MM-DD_YYYY-MM-DD"
func (dr DateRange) String() string {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s_%s", dr.Start.Format("2006-01-02"), dr.End.Format("2006-01-02"))
}

// Merge combines this date range with another, returning the overall range
func (dr DateRange) Merge(other DateRange) DateRange {
	start, end := dr.Start, dr.End
	if start.IsZero() || (!other.Start.IsZero() && other.Start.Before(start)) {
		start = other.Start
	}
	if end.IsZero() || (!other.End.IsZero() && other.End.After(end)) {
		end = other.End
	}
	return DateRange{Start: start, End: end}
}

// FileGroup is the set of files that belong to one account.
type FileGroup struct {
	AccountID string
	Files     []string
	DateRange DateRange
}

// LoadFunc reads the rows of one file.
type LoadFunc func(path string) ([]models.ImportRow, error)

var (
	rangeRe = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})[_\-. ]+(\d{4}-\d{2}-\d{2})`)
	dayRe   = regexp.MustCompile(`(?:^|[_\-. ])(\d{8})(?:[_\-. ]|$)`)
)

// Aggregator groups and loads import files.
type Aggregator struct {
	logger logging.Logger
}

// NewAggregator creates a new Aggregator
func NewAggregator(logger logging.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// ListImportFiles returns the CSV files directly inside dir, sorted by name.
func ListImportFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading directory %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// GroupFilesByAccount groups files by the account derived from their name.
// Within a group files are ordered by the date range in their name, then by
// name; groups are ordered by account.
func (a *Aggregator) GroupFilesByAccount(files []string) []FileGroup {
	byAccount := make(map[string]*FileGroup)
	ranges := make(map[string]DateRange, len(files))

	for _, file := range files {
		acct := common.ExtractAccountFromFilename(file)
		a.logger.Debug("File mapped to account",
			logging.F(logging.FieldFile, filepath.Base(file)),
			logging.F(logging.FieldAccount, acct.ID),
			logging.F(logging.FieldSource, acct.Source))

		group, ok := byAccount[acct.ID]
		if !ok {
			group = &FileGroup{AccountID: acct.ID}
			byAccount[acct.ID] = group
		}
		group.Files = append(group.Files, file)
		ranges[file] = DateRangeFromFilename(file)
		group.DateRange = group.DateRange.Merge(ranges[file])
	}

	groups := make([]FileGroup, 0, len(byAccount))
	for _, g := range byAccount {
		sort.SliceStable(g.Files, func(i, j int) bool {
			ri, rj := ranges[g.Files[i]], ranges[g.Files[j]]
			if !ri.Start.Equal(rj.Start) {
				return ri.Start.Before(rj.Start)
			}
			return g.Files[i] < g.Files[j]
		})
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].AccountID < groups[j].AccountID })

	a.logger.Info("Grouped files into account groups",
		logging.F(logging.FieldCount, len(files)),
		logging.F("account_groups", len(groups)))
	return groups
}

// DateRangeFromFilename reads "2025-04-01_2025-04-30" or a single
// "20250812" from a file name. Other names give a zero range.
func DateRangeFromFilename(filename string) DateRange {
	base := filepath.Base(filename)
	if m := rangeRe.FindStringSubmatch(base); m != nil {
		start, err1 := time.Parse("2006-01-02", m[1])
		end, err2 := time.Parse("2006-01-02", m[2])
		if err1 == nil && err2 == nil {
			return DateRange{Start: start, End: end}
		}
	}
	if m := dayRe.FindStringSubmatch(base); m != nil {
		if day, err := time.Parse("20060102", m[1]); err == nil {
			return DateRange{Start: day, End: day}
		}
	}
	return DateRange{}
}

// AggregateRows loads every file of the group and returns the rows in date
// order. Files that fail to load are logged and skipped; their names are
// returned so the caller can report them.
func (a *Aggregator) AggregateRows(group FileGroup, load LoadFunc) ([]models.ImportRow, []string) {
	var (
		rows   []models.ImportRow
		failed []string
	)
	log := a.logger.WithField(logging.FieldAccount, group.AccountID)

	for _, file := range group.Files {
		loaded, err := load(file)
		if err != nil {
			log.WithError(err).Error("Failed to load file", logging.F(logging.FieldFile, file))
			failed = append(failed, file)
			continue
		}
		log.Debug("Loaded rows from file",
			logging.F(logging.FieldCount, len(loaded)),
			logging.F(logging.FieldFile, filepath.Base(file)))
		rows = append(rows, loaded...)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	if n := countOverlaps(rows); n > 0 {
		log.Info("Files overlap; repeated rows will be skipped on import", logging.F(logging.FieldCount, n))
	}
	return rows, failed
}

// countOverlaps counts rows that repeat an earlier row's date, amount and
// description. Rows must be sorted by date.
func countOverlaps(rows []models.ImportRow) int {
	seen := make(map[string]struct{}, len(rows))
	n := 0
	for _, r := range rows {
		key := r.Date.Format("2006-01-02") + "|" + r.Amount.String() + "|" +
			strings.ToUpper(strings.Join(strings.Fields(r.Description), " "))
		if _, ok := seen[key]; ok {
			n++
			continue
		}
		seen[key] = struct{}{}
	}
	return n
}

package importer

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	models "github.com/phillip/chama-tracker-go/models"
)

var errProcessCsv = errors.New("error while parsing CSV file")

// MemberRow is one member line: a name plus per-month amounts.
type MemberRow struct {
	Line          int
	MemberName    string
	Contributions map[string]float64
}

// ReportRow is one month's balance sheet.
type ReportRow struct {
	Line   int
	Month  string
	Report models.MonthlyReport
}

func rowError(line int, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", errProcessCsv, line, fmt.Sprintf(format, args...))
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comma = ','
	return reader
}

func header(reader *csv.Reader, first string) ([]string, error) {
	cols, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", errProcessCsv)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errProcessCsv, err)
	}
	for i := range cols {
		cols[i] = strings.TrimSpace(cols[i])
	}
	cols[0] = strings.TrimPrefix(cols[0], "\ufeff")
	if !strings.EqualFold(cols[0], first) {
		return nil, rowError(1, "first column must be %q, got %q", first, cols[0])
	}
	return cols, nil
}

// ReadMembers parses a member_name,YYYY-MM,... sheet. Blank and zero cells are skipped.
func ReadMembers(r io.Reader) ([]MemberRow, error) {
	reader := newReader(r)
	cols, err := header(reader, "member_name")
	if err != nil {
		return nil, err
	}
	for _, month := range cols[1:] {
		if !models.ValidMonth(month) {
			return nil, rowError(1, "column %q is not a YYYY-MM month", month)
		}
	}

	var rows []MemberRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errProcessCsv, err)
		}
		name := strings.TrimSpace(record[0])
		if name == "" {
			continue
		}
		row := MemberRow{Line: line, MemberName: name, Contributions: map[string]float64{}}
		for i := 1; i < len(record) && i < len(cols); i++ {
			cell := strings.TrimSpace(record[i])
			if cell == "" {
				continue
			}
			v, err := parseAmount(cell)
			if err != nil {
				return nil, rowError(line, "%s for %s: %v", cols[i], name, err)
			}
			if v > 0 {
				row.Contributions[cols[i]] = v
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadReports parses a month,<report field>... sheet. Columns use the JSON field names of MonthlyReport.
func ReadReports(r io.Reader) ([]ReportRow, error) {
	reader := newReader(r)
	cols, err := header(reader, "month")
	if err != nil {
		return nil, err
	}

	var rows []ReportRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errProcessCsv, err)
		}
		month := strings.TrimSpace(record[0])
		if month == "" {
			continue
		}
		if !models.ValidMonth(month) {
			return nil, rowError(line, "month %q is not YYYY-MM", month)
		}

		fields := map[string]float64{}
		for i := 1; i < len(record) && i < len(cols); i++ {
			cell := strings.TrimSpace(record[i])
			if cell == "" {
				continue
			}
			v, err := parseAmount(cell)
			if err != nil {
				return nil, rowError(line, "%s: %v", cols[i], err)
			}
			fields[cols[i]] = v
		}

		// round-trip through JSON so the struct tags decide which columns count
		raw, err := json.Marshal(fields)
		if err != nil {
			return nil, rowError(line, "%v", err)
		}
		var report models.MonthlyReport
		if err := json.Unmarshal(raw, &report); err != nil {
			return nil, rowError(line, "%v", err)
		}
		rows = append(rows, ReportRow{Line: line, Month: month, Report: report})
	}
	return rows, nil
}

// parseAmount accepts spreadsheet style numbers such as "1,500" or "KES 2000".
func parseAmount(cell string) (float64, error) {
	cell = strings.TrimSpace(strings.TrimPrefix(strings.ToUpper(cell), "KES"))
	cell = strings.ReplaceAll(cell, ",", "")
	return strconv.ParseFloat(cell, 64)
}

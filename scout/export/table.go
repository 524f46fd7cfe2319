// Package export renders discovery results into tabular formats and handles
// the link-opening side effects of the result UI.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"scout/scout/api"
)

// DefaultColumns is the column ordering the original result table presents.
var DefaultColumns = []string{
	"Name", "Institution", "Department", "Email", "Cited_By_Count",
	"Keyword", "Recent_Work_Title", "DOI", "Paper_URL", "ORCID",
}

func columnValue(record api.AuthorRecord, column string) (string, error) {
	switch column {
	case "Name":
		return record.FullName, nil
	case "Institution":
		return record.Institution, nil
	case "Department":
		return record.Department, nil
	case "Email":
		return record.Email, nil
	case "Cited_By_Count":
		return fmt.Sprintf("%d", record.CitedByCount), nil
	case "Works_Count":
		return fmt.Sprintf("%d", record.WorksCount), nil
	case "Keyword":
		return record.MatchedKeyword, nil
	case "Recent_Work_Title":
		return record.RecentWorkTitle, nil
	case "DOI":
		return record.Doi, nil
	case "Paper_URL":
		return record.PaperUrl, nil
	case "ORCID":
		return record.Orcid, nil
	case "OpenAlex_ID":
		return record.AuthorId, nil
	}
	return "", fmt.Errorf("unknown column %q", column)
}

// WriteCSV renders records with the given column ordering. A nil columns
// slice uses DefaultColumns.
func WriteCSV(w io.Writer, records []api.AuthorRecord, columns []string) error {
	if columns == nil {
		columns = DefaultColumns
	}

	writer := csv.NewWriter(w)

	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("error writing csv header: %w", err)
	}

	row := make([]string, len(columns))
	for _, record := range records {
		for i, column := range columns {
			value, err := columnValue(record, column)
			if err != nil {
				return err
			}
			row[i] = value
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("error writing csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteXLSX renders records as a single-sheet spreadsheet with the given
// column ordering.
func WriteXLSX(w io.Writer, records []api.AuthorRecord, columns []string) error {
	if columns == nil {
		columns = DefaultColumns
	}

	file := excelize.NewFile()
	defer file.Close()

	const sheet = "Sheet1"

	header := make([]interface{}, len(columns))
	for i, column := range columns {
		header[i] = column
	}
	if err := file.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("error writing sheet header: %w", err)
	}

	for i, record := range records {
		row := make([]interface{}, len(columns))
		for j, column := range columns {
			value, err := columnValue(record, column)
			if err != nil {
				return err
			}
			row[j] = value
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("error computing cell name: %w", err)
		}
		if err := file.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("error writing sheet row: %w", err)
		}
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("error writing spreadsheet: %w", err)
	}

	return nil
}

// SortByCitations orders records by citation count descending, the order the
// result table presents them in.
func SortByCitations(records []api.AuthorRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CitedByCount > records[j].CitedByCount
	})
}

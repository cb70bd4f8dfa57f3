package trace

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Row is one line of a flattened, single-case-notion event table.
type Row struct {
	CaseID    string
	Timestamp time.Time
	Activity  string
	Amount    int
}

var rowColumns = []string{"case_id", "timestamp", "activity", "amount"}

// WriteRows writes rows as CSV with a header line.
func WriteRows(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(rowColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range rows {
		rec := []string{r.CaseID, r.Timestamp.Format(TimeLayout), r.Activity, strconv.Itoa(r.Amount)}
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadRows parses a table written by WriteRows.
func ReadRows(r io.Reader) ([]Row, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty table: missing header")
	}
	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != len(rowColumns) {
			return nil, fmt.Errorf("row %d: expected %d columns, got %d", i+1, len(rowColumns), len(rec))
		}
		ts, err := time.Parse(TimeLayout, rec[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		amount, err := strconv.Atoi(rec[3])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		rows = append(rows, Row{CaseID: rec[0], Timestamp: ts, Activity: rec[2], Amount: amount})
	}
	return rows, nil
}

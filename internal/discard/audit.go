package discard

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/models"
)

// DefaultAuditLog is the audit file name, resolved against the working directory
const DefaultAuditLog = "discard_log.csv"

// AppendRecord appends one row to the audit log at path, creating the file on
// first use. The file is opened and closed on every call and has no header row.
func AppendRecord(path string, rec models.DiscardRecord) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(rec.Fields()); err != nil {
		_ = f.Close()
		return fmt.Errorf("write audit record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("write audit record: %w", err)
	}
	return f.Close()
}

// ReadRecords parses every row of the audit log. A missing log yields no records.
func ReadRecords(path string) ([]models.DiscardRecord, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 4

	var records []models.DiscardRecord
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read audit log %s: %w", path, err)
		}

		ts, err := time.Parse(models.TimestampLayout, row[0])
		if err != nil {
			return nil, fmt.Errorf("audit log %s: bad timestamp %q: %w", path, row[0], err)
		}
		records = append(records, models.DiscardRecord{
			Timestamp:    ts,
			Original:     row[1],
			Segmentation: row[2],
			Comment:      row[3],
		})
	}
	return records, nil
}

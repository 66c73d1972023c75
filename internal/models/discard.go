package models

import "time"

// DiscardRecord is one row of the append-only discard audit log
type DiscardRecord struct {
	Timestamp time.Time
	Original  string
	// Segmentation is the segmentation file path, or for a series the series
	// directory (relative to the segmentations root) joined with the slice file name
	Segmentation string
	Comment      string
}

// TimestampLayout is the ISO-8601 layout used in the audit log
const TimestampLayout = time.RFC3339

// Fields returns the record in audit-log column order
func (r DiscardRecord) Fields() []string {
	return []string{
		r.Timestamp.Format(TimestampLayout),
		r.Original,
		r.Segmentation,
		r.Comment,
	}
}

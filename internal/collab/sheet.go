package collab

import (
	"context"

	"voice-lead-pipeline/internal/records"
)

// RecordSheet backs the sheet-append tool with the local record store, so a
// mid-call append seeds the same row the completion event later updates.
type RecordSheet struct {
	sync *records.Synchronizer
}

// NewRecordSheet wires a RecordSheet over the synchronizer.
func NewRecordSheet(sync *records.Synchronizer) *RecordSheet {
	return &RecordSheet{sync: sync}
}

// AppendRow locates or creates the row for the call and writes the values.
func (s *RecordSheet) AppendRow(ctx context.Context, callID, phone string, values map[string]string) error {
	_, err := s.sync.EnsureRow(ctx, callID, phone, values)
	return err
}

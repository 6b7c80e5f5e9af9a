// Package records keeps one external row per real-world call and fills it in
// idempotently as deliveries for that call arrive.
package records

import (
	"context"
	"strings"
	"time"
)

// Row is one record in the external store. Fields holds the column values;
// only columns present in an update are ever overwritten.
type Row struct {
	ID        string
	CallID    string
	Phone     string // normalized: no leading +, no whitespace or dashes
	CreatedAt time.Time
	Fields    map[string]string
}

// Store is the narrow interface the synchronizer needs from the record
// store. Find methods return (nil, nil) when no row matches. Update is
// column-scoped: columns absent from cols are left untouched.
type Store interface {
	FindByCallID(ctx context.Context, callID string) (*Row, error)
	FindByPhone(ctx context.Context, phone string) (*Row, error)
	Recent(ctx context.Context, limit int) ([]*Row, error)
	Create(ctx context.Context, row *Row) (string, error)
	Update(ctx context.Context, id string, cols map[string]string) error
}

// NormalizePhone strips the leading + and all whitespace and dashes so both
// sides of a phone comparison share one shape.
func NormalizePhone(phone string) string {
	p := strings.TrimSpace(phone)
	p = strings.TrimPrefix(p, "+")
	p = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-', '(', ')':
			return -1
		}
		return r
	}, p)
	return p
}

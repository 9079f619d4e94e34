// Package store gives typed access to the external tabular store. The store
// is the sole durable owner of enrollment and content data; nothing here
// caches across requests.
package store

import "context"

// Client is the narrow contract the engine consumes. Rows and columns are
// 1-indexed; cells are string-typed. Lookups that match nothing return
// domain.ErrRowNotFound; every transport, auth, or API-quota failure is
// converted to a retryable store-unavailable error before it leaves this
// package.
type Client interface {
	// FindRow returns the row number of the first cell in column whose
	// trimmed value equals value.
	FindRow(ctx context.Context, sheet string, column int, value string) (int, error)
	// ReadRow returns every populated cell of one row, left to right.
	// Trailing empty cells are not included.
	ReadRow(ctx context.Context, sheet string, row int) ([]string, error)
	// ReadCell returns the cell's value, or "" for an empty cell.
	ReadCell(ctx context.Context, sheet string, row, column int) (string, error)
	// WriteCell overwrites a single cell. Writes are idempotent.
	WriteCell(ctx context.Context, sheet string, row, column int, value string) error
	// ReadAllRecords reads the whole sheet, treating the first row as the
	// header, and returns one field map per data row.
	ReadAllRecords(ctx context.Context, sheet string) ([]map[string]string, error)
}

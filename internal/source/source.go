// Package source pulls raw appointment rows per office from the external
// tabular feed. Pull-based only; a failure is transient and the next scheduled
// run retries from scratch.
package source

import "context"

// RawRow is one appointment snapshot as positional string fields. Column
// meanings are assigned by the normalizer.
type RawRow []string

// RowSource fetches the raw rows for a single office.
type RowSource interface {
	FetchRows(ctx context.Context, officeSheet string) ([]RawRow, error)
}

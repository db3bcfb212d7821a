// Package repository is the storage gateway: paginated, filtered access to the
// protocol_stats, projected_stats and trader_stats tables over gorm. The store
// caps rows per query, so every multi-row read goes through FetchAllPages; no
// call site may assume a single query returns everything. This layer never
// retries — retry policy belongs to the ingestion pipeline.
package repository

import "context"

// MaxPageSize is the row ceiling the store enforces per query.
const MaxPageSize = 1000

// PageFunc fetches one page of rows starting at offset, at most limit rows.
type PageFunc[T any] func(offset, limit int) ([]T, error)

// FetchAllPages loops a page fetch until a short page signals exhaustion.
// It checks ctx between pages so a cancelled read stops issuing requests.
func FetchAllPages[T any](ctx context.Context, fetch PageFunc[T]) ([]T, error) {
	var all []T
	for offset := 0; ; offset += MaxPageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := fetch(offset, MaxPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < MaxPageSize {
			return all, nil
		}
	}
}

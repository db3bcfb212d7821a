package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/sairaghavaa/sol-analytics/internal/model"
)

// StatFilter scopes a protocol_stats read. Zero-valued fields are unfiltered.
type StatFilter struct {
	Protocols []string
	Chains    []model.Chain
	Scope     model.DataScope
	From      *time.Time
	To        *time.Time
}

type ProtocolStatRepository interface {
	// FetchStats returns every matching row, paging internally.
	FetchStats(ctx context.Context, f StatFilter) ([]model.ProtocolStat, error)

	// LatestDate returns the most recent date among matching rows.
	// ok is false when no rows match.
	LatestDate(ctx context.Context, f StatFilter) (time.Time, bool, error)

	// DeleteStats removes all rows for a protocol and scope, returning the
	// number deleted.
	DeleteStats(ctx context.Context, protocol string, scope model.DataScope) (int64, error)

	// BulkInsertStats inserts rows in one all-or-nothing call.
	BulkInsertStats(ctx context.Context, rows []model.ProtocolStat) error
}

type gormStatRepository struct {
	db *gorm.DB
}

func NewGormStatRepository(db *gorm.DB) ProtocolStatRepository {
	return &gormStatRepository{db: db}
}

func (r *gormStatRepository) apply(q *gorm.DB, f StatFilter) *gorm.DB {
	if len(f.Protocols) > 0 {
		q = q.Where("protocol_name IN ?", f.Protocols)
	}
	if len(f.Chains) > 0 {
		q = q.Where("chain IN ?", f.Chains)
	}
	if f.Scope != "" {
		q = q.Where("data_type = ?", f.Scope)
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date <= ?", *f.To)
	}
	return q
}

func (r *gormStatRepository) FetchStats(ctx context.Context, f StatFilter) ([]model.ProtocolStat, error) {
	return FetchAllPages(ctx, func(offset, limit int) ([]model.ProtocolStat, error) {
		var page []model.ProtocolStat
		q := r.apply(r.db.WithContext(ctx).Model(&model.ProtocolStat{}), f)
		err := q.Order("date, protocol_name, chain, data_type").
			Offset(offset).Limit(limit).
			Find(&page).Error
		if err != nil {
			return nil, fmt.Errorf("fetch protocol_stats page at offset %d: %w", offset, err)
		}
		return page, nil
	})
}

func (r *gormStatRepository) LatestDate(ctx context.Context, f StatFilter) (time.Time, bool, error) {
	var latest *time.Time
	q := r.apply(r.db.WithContext(ctx).Model(&model.ProtocolStat{}), f)
	if err := q.Select("max(date)").Scan(&latest).Error; err != nil {
		return time.Time{}, false, fmt.Errorf("latest protocol_stats date: %w", err)
	}
	if latest == nil {
		return time.Time{}, false, nil
	}
	return *latest, true, nil
}

func (r *gormStatRepository) DeleteStats(ctx context.Context, protocol string, scope model.DataScope) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("protocol_name = ? AND data_type = ?", protocol, scope).
		Delete(&model.ProtocolStat{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete protocol_stats for %s/%s: %w", protocol, scope, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *gormStatRepository) BulkInsertStats(ctx context.Context, rows []model.ProtocolStat) error {
	if len(rows) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("bulk insert %d protocol_stats: %w", len(rows), err)
	}
	return nil
}

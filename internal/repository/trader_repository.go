package repository

import (
	"context"
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm"

	"github.com/sairaghavaa/sol-analytics/internal/model"
)

type TraderStatRepository interface {
	// FetchRankedPage returns one page of traders ordered by volume descending.
	FetchRankedPage(ctx context.Context, protocol string, offset, limit int) ([]model.TraderStat, error)

	// Count returns the number of trader rows for a protocol.
	Count(ctx context.Context, protocol string) (int64, error)

	// CountInRange counts traders with volume >= min and, when max is finite,
	// volume < max.
	CountInRange(ctx context.Context, protocol string, min, max float64) (int64, error)

	// SumInRange sums volume over the same bounded range. A bounded scan, never
	// a full-table fetch.
	SumInRange(ctx context.Context, protocol string, min, max float64) (float64, error)

	// TotalVolume returns the protocol's summed volume, preferring the
	// server-side aggregate and falling back to a paginated client-side sum
	// when the function is absent.
	TotalVolume(ctx context.Context, protocol string) (float64, error)

	// PercentileBrackets delegates to the server-side aggregate. There is no
	// client-side fallback; its absence is an error to the caller.
	PercentileBrackets(ctx context.Context, protocol string) ([]model.PercentileBracket, error)

	// FetchIDPage returns up to limit row IDs for a protocol, lowest first.
	// Used to paginate large deletes.
	FetchIDPage(ctx context.Context, protocol string, limit int) ([]uint64, error)

	// DeleteByIDs removes the identified rows, returning the number deleted.
	DeleteByIDs(ctx context.Context, ids []uint64) (int64, error)

	// BulkInsert inserts a chunk in one all-or-nothing call.
	BulkInsert(ctx context.Context, rows []model.TraderStat) error
}

type gormTraderRepository struct {
	db *gorm.DB
}

func NewGormTraderRepository(db *gorm.DB) TraderStatRepository {
	return &gormTraderRepository{db: db}
}

func (r *gormTraderRepository) FetchRankedPage(ctx context.Context, protocol string, offset, limit int) ([]model.TraderStat, error) {
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	var rows []model.TraderStat
	err := r.db.WithContext(ctx).
		Where("protocol_name = ?", protocol).
		Order("volume_usd DESC, user_address").
		Offset(offset).Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetch ranked traders for %s at offset %d: %w", protocol, offset, err)
	}
	return rows, nil
}

func (r *gormTraderRepository) Count(ctx context.Context, protocol string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TraderStat{}).
		Where("protocol_name = ?", protocol).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count traders for %s: %w", protocol, err)
	}
	return count, nil
}

func (r *gormTraderRepository) rangeQuery(ctx context.Context, protocol string, min, max float64) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.TraderStat{}).
		Where("protocol_name = ? AND volume_usd >= ?", protocol, min)
	if !math.IsInf(max, 1) {
		q = q.Where("volume_usd < ?", max)
	}
	return q
}

func (r *gormTraderRepository) CountInRange(ctx context.Context, protocol string, min, max float64) (int64, error) {
	var count int64
	if err := r.rangeQuery(ctx, protocol, min, max).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count traders for %s in [%v,%v): %w", protocol, min, max, err)
	}
	return count, nil
}

func (r *gormTraderRepository) SumInRange(ctx context.Context, protocol string, min, max float64) (float64, error) {
	var sum *float64
	if err := r.rangeQuery(ctx, protocol, min, max).Select("sum(volume_usd)").Scan(&sum).Error; err != nil {
		return 0, fmt.Errorf("sum trader volume for %s in [%v,%v): %w", protocol, min, max, err)
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

func (r *gormTraderRepository) TotalVolume(ctx context.Context, protocol string) (float64, error) {
	var total *float64
	err := r.db.WithContext(ctx).
		Raw("SELECT trader_volume_total(?)", protocol).
		Scan(&total).Error
	if err == nil {
		if total == nil {
			return 0, nil
		}
		return *total, nil
	}
	if !isMissingAggregate(err) {
		return 0, fmt.Errorf("trader_volume_total(%s): %w", protocol, err)
	}

	// Aggregate function not installed: sum row pages client-side.
	pages, pageErr := FetchAllPages(ctx, func(offset, limit int) ([]model.TraderStat, error) {
		var page []model.TraderStat
		e := r.db.WithContext(ctx).
			Where("protocol_name = ?", protocol).
			Order("id").
			Offset(offset).Limit(limit).
			Find(&page).Error
		if e != nil {
			return nil, fmt.Errorf("fetch trader_stats page at offset %d: %w", offset, e)
		}
		return page, nil
	})
	if pageErr != nil {
		return 0, pageErr
	}
	var sum float64
	for _, row := range pages {
		sum += row.VolumeUSD
	}
	return sum, nil
}

func (r *gormTraderRepository) PercentileBrackets(ctx context.Context, protocol string) ([]model.PercentileBracket, error) {
	var brackets []model.PercentileBracket
	err := r.db.WithContext(ctx).
		Raw("SELECT percentile, trader_count, rank_from, rank_to, volume_usd, volume_share_percent FROM trader_percentile_brackets(?)", protocol).
		Scan(&brackets).Error
	if err != nil {
		return nil, fmt.Errorf("trader_percentile_brackets(%s): %w", protocol, err)
	}
	return brackets, nil
}

func (r *gormTraderRepository) FetchIDPage(ctx context.Context, protocol string, limit int) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).Model(&model.TraderStat{}).
		Where("protocol_name = ?", protocol).
		Order("id").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("fetch trader id page for %s: %w", protocol, err)
	}
	return ids, nil
}

func (r *gormTraderRepository) DeleteByIDs(ctx context.Context, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.TraderStat{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete %d trader rows: %w", len(ids), res.Error)
	}
	return res.RowsAffected, nil
}

func (r *gormTraderRepository) BulkInsert(ctx context.Context, rows []model.TraderStat) error {
	if len(rows) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("bulk insert %d trader rows: %w", len(rows), err)
	}
	return nil
}

// isMissingAggregate detects the postgres "function does not exist" class of
// errors (SQLSTATE 42883) so callers can fall back to row-level computation.
func isMissingAggregate(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "does not exist") || strings.Contains(msg, "42883")
}

package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/sairaghavaa/sol-analytics/internal/model"
)

type ProjectedStatRepository interface {
	// FetchProjected returns projected rows for the protocols within the
	// optional date bounds, paging internally.
	FetchProjected(ctx context.Context, protocols []string, from, to *time.Time) ([]model.ProjectedStat, error)

	// UpsertProjected replaces rows matching (protocol_name, date).
	UpsertProjected(ctx context.Context, rows []model.ProjectedStat) error
}

type gormProjectedRepository struct {
	db *gorm.DB
}

func NewGormProjectedRepository(db *gorm.DB) ProjectedStatRepository {
	return &gormProjectedRepository{db: db}
}

func (r *gormProjectedRepository) FetchProjected(ctx context.Context, protocols []string, from, to *time.Time) ([]model.ProjectedStat, error) {
	return FetchAllPages(ctx, func(offset, limit int) ([]model.ProjectedStat, error) {
		var page []model.ProjectedStat
		q := r.db.WithContext(ctx).Model(&model.ProjectedStat{})
		if len(protocols) > 0 {
			q = q.Where("protocol_name IN ?", protocols)
		}
		if from != nil {
			q = q.Where("date >= ?", *from)
		}
		if to != nil {
			q = q.Where("date <= ?", *to)
		}
		err := q.Order("date, protocol_name").Offset(offset).Limit(limit).Find(&page).Error
		if err != nil {
			return nil, fmt.Errorf("fetch projected_stats page at offset %d: %w", offset, err)
		}
		return page, nil
	})
}

func (r *gormProjectedRepository) UpsertProjected(ctx context.Context, rows []model.ProjectedStat) error {
	if len(rows) == 0 {
		return nil
	}
	for _, row := range rows {
		res := r.db.WithContext(ctx).
			Where("protocol_name = ? AND date = ?", row.ProtocolName, row.Date).
			Delete(&model.ProjectedStat{})
		if res.Error != nil {
			return fmt.Errorf("replace projected_stats for %s: %w", row.ProtocolName, res.Error)
		}
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("bulk insert %d projected_stats: %w", len(rows), err)
	}
	return nil
}

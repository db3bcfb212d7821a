package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sairaghavaa/sol-analytics/internal/cache"
	"github.com/sairaghavaa/sol-analytics/internal/model"
	"github.com/sairaghavaa/sol-analytics/internal/repository"
)

// VolumeStrategy picks the authoritative volume for one (protocol, date) given
// the measured value and the provider's projection, if any.
type VolumeStrategy func(actual float64, projected *float64) float64

// preferProjected uses a positive projected value when one exists, otherwise
// the actual volume.
func preferProjected(actual float64, projected *float64) float64 {
	if projected != nil && *projected > 0 {
		return *projected
	}
	return actual
}

// actualOnly ignores the projected signal entirely.
func actualOnly(actual float64, _ *float64) float64 {
	return actual
}

// VolumePolicy selects between the actual and projected volume signals.
// Strategy is keyed by protocol category so adding an override category is a
// data change, not a code change. Mobile apps always report actuals: the
// projected signal is unreliable for that category.
type VolumePolicy struct {
	byCategory map[model.Category]VolumeStrategy
	fallback   VolumeStrategy
}

func NewVolumePolicy() *VolumePolicy {
	return &VolumePolicy{
		byCategory: map[model.Category]VolumeStrategy{
			model.CategoryMobileApp: actualOnly,
		},
		fallback: preferProjected,
	}
}

// DisplayVolume resolves the volume shown for one day.
func (p *VolumePolicy) DisplayVolume(category model.Category, actual float64, projected *float64) float64 {
	if strategy, ok := p.byCategory[category]; ok {
		return strategy(actual, projected)
	}
	return p.fallback(actual, projected)
}

// DailyGrowth compares a day against the previous one, preferring a
// projected-vs-projected comparison. When the previous day has no projected
// value the comparison falls back to actual-vs-actual. This decision is
// independent of DisplayVolume and the two must not be conflated.
func (p *VolumePolicy) DailyGrowth(actual, prevActual float64, projected, prevProjected *float64) float64 {
	if projected != nil && prevProjected != nil && *prevProjected > 0 {
		return model.VolumeGrowth(*prevProjected, *projected)
	}
	return model.VolumeGrowth(prevActual, actual)
}

// DisplayPoint is one day of display-ready volume for a protocol.
type DisplayPoint struct {
	Date        time.Time `json:"date"`
	DisplayDate string    `json:"display_date"`
	VolumeUSD   float64   `json:"volume_usd"`
	FeesUSD     float64   `json:"fees_usd"`
	Projected   bool      `json:"projected"`
	Growth      float64   `json:"growth"`
}

// DisplayVolumeService merges the measured and projected volume signals into a
// display series under the category policy.
type DisplayVolumeService struct {
	stats     repository.ProtocolStatRepository
	projected repository.ProjectedStatRepository
	policy    *VolumePolicy
	cache     *cache.Cache
	logger    *logrus.Logger
}

func NewDisplayVolumeService(
	stats repository.ProtocolStatRepository,
	projected repository.ProjectedStatRepository,
	policy *VolumePolicy,
	c *cache.Cache,
	logger *logrus.Logger,
) *DisplayVolumeService {
	return &DisplayVolumeService{stats: stats, projected: projected, policy: policy, cache: c, logger: logger}
}

// DisplaySeries returns per-day display volumes for a protocol, newest first,
// with day-over-day growth attached.
func (s *DisplayVolumeService) DisplaySeries(ctx context.Context, protocol string, scope model.DataScope) ([]DisplayPoint, error) {
	protocol = model.NormalizeProtocol(protocol)
	key := cache.Key("display", protocol, string(scope))
	if v, ok := s.cache.Get(key); ok {
		return v.([]DisplayPoint), nil
	}

	entry, known := model.LookupProtocol(protocol)
	category := entry.Category
	if !known {
		category = model.CategoryWebDEX
	}

	rows, err := s.stats.FetchStats(ctx, repository.StatFilter{Protocols: []string{protocol}, Scope: scope})
	if err != nil {
		return nil, fmt.Errorf("display series fetch for %s: %w", protocol, err)
	}
	rows = excludeLatestDate(rows)
	if len(rows) == 0 {
		s.cache.Set(key, []DisplayPoint{})
		return []DisplayPoint{}, nil
	}

	projectedRows, err := s.projected.FetchProjected(ctx, []string{protocol}, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("display series projected fetch for %s: %w", protocol, err)
	}
	projectedByDay := make(map[string]model.ProjectedStat, len(projectedRows))
	for _, row := range projectedRows {
		projectedByDay[row.Date.Format("2006-01-02")] = row
	}

	// Sum multi-chain rows per day before applying the policy.
	type day struct {
		date   time.Time
		volume float64
		fees   float64
	}
	byDay := make(map[string]*day)
	for _, row := range rows {
		dk := row.Date.Format("2006-01-02")
		d, ok := byDay[dk]
		if !ok {
			d = &day{date: truncateToDay(row.Date)}
			byDay[dk] = d
		}
		d.volume += row.TotalVolumeUSD
		d.fees += row.TotalFeesUSD
	}
	days := make([]*day, 0, len(byDay))
	for _, d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].date.Before(days[j].date) })

	points := make([]DisplayPoint, len(days))
	for i, d := range days {
		dk := d.date.Format("2006-01-02")
		var projVolume *float64
		fees := d.fees
		if p, ok := projectedByDay[dk]; ok {
			v := p.ProjectedVolumeUSD
			projVolume = &v
			if p.ProjectedFeesUSD > 0 && category != model.CategoryMobileApp {
				fees = p.ProjectedFeesUSD
			}
		}
		display := s.policy.DisplayVolume(category, d.volume, projVolume)

		var growth float64
		if i > 0 {
			prev := days[i-1]
			var prevProj *float64
			if p, ok := projectedByDay[prev.date.Format("2006-01-02")]; ok && p.ProjectedVolumeUSD > 0 {
				v := p.ProjectedVolumeUSD
				prevProj = &v
			}
			growth = s.policy.DailyGrowth(d.volume, prev.volume, projVolume, prevProj)
		}

		points[i] = DisplayPoint{
			Date:        d.date,
			DisplayDate: d.date.Format(model.DisplayDateLayout),
			VolumeUSD:   display,
			FeesUSD:     fees,
			Projected:   category != model.CategoryMobileApp && projVolume != nil && *projVolume > 0,
			Growth:      growth,
		}
	}

	// Newest first, matching the metric series ordering.
	sort.Slice(points, func(i, j int) bool { return points[i].Date.After(points[j].Date) })
	s.cache.Set(key, points)
	return points, nil
}

// Package service holds the aggregation, trader-distribution, volume-display
// and resync services served by the API layer. Every read path consults the
// shared TTL cache before touching storage.
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

// StatsQuery scopes an aggregation read. Zero-valued fields are unfiltered.
type StatsQuery struct {
	Protocols []string
	Group     model.ChainGroup
	Scope     model.DataScope
	From      *time.Time
	To        *time.Time
}

func (q StatsQuery) filter() repository.StatFilter {
	protocols := make([]string, len(q.Protocols))
	for i, p := range q.Protocols {
		protocols[i] = model.NormalizeProtocol(p)
	}
	return repository.StatFilter{
		Protocols: protocols,
		Chains:    q.Group.Chains(),
		Scope:     q.Scope,
		From:      q.From,
		To:        q.To,
	}
}

func (q StatsQuery) cacheKey(op string) string {
	return cache.Key(op,
		cache.ProtocolsPart(q.Protocols),
		string(q.Group),
		string(q.Scope),
		cache.DatePart(q.From),
		cache.DatePart(q.To),
	)
}

// StatsService aggregates daily protocol_stats rows into totals, series,
// snapshots, window growth and chain breakdowns.
type StatsService struct {
	stats  repository.ProtocolStatRepository
	cache  *cache.Cache
	logger *logrus.Logger
}

func NewStatsService(stats repository.ProtocolStatRepository, c *cache.Cache, logger *logrus.Logger) *StatsService {
	return &StatsService{stats: stats, cache: c, logger: logger}
}

// fetchComplete pulls all matching rows, merges EVM chains per date when the
// query targets the EVM group, then drops the most recent date present. The
// latest day's data is assumed still arriving and never enters an aggregate.
func (s *StatsService) fetchComplete(ctx context.Context, q StatsQuery) ([]model.ProtocolStat, error) {
	rows, err := s.stats.FetchStats(ctx, q.filter())
	if err != nil {
		return nil, fmt.Errorf("aggregation fetch for %v: %w", q.Protocols, err)
	}
	s.logger.WithFields(logrus.Fields{
		"protocols": q.Protocols,
		"group":     q.Group,
		"rows":      len(rows),
	}).Debug("aggregation fetch complete")
	if q.Group == model.GroupEVM {
		rows = mergeEVMByDate(rows)
	}
	return excludeLatestDate(rows), nil
}

// TotalMetrics sums every complete day matching the query. An empty match
// yields zero metrics, not an error.
func (s *StatsService) TotalMetrics(ctx context.Context, q StatsQuery) (model.Metrics, error) {
	key := q.cacheKey("total")
	if v, ok := s.cache.Get(key); ok {
		return v.(model.Metrics), nil
	}
	rows, err := s.fetchComplete(ctx, q)
	if err != nil {
		return model.Metrics{}, err
	}
	var total model.Metrics
	for _, row := range rows {
		total.Add(model.MetricsOf(row))
	}
	s.cache.Set(key, total)
	return total, nil
}

// Series returns the per-date records matching the query, newest first, each
// annotated with a day-month-year display date.
func (s *StatsService) Series(ctx context.Context, q StatsQuery) ([]model.SeriesPoint, error) {
	key := q.cacheKey("series")
	if v, ok := s.cache.Get(key); ok {
		return v.([]model.SeriesPoint), nil
	}
	rows, err := s.fetchComplete(ctx, q)
	if err != nil {
		return nil, err
	}
	points := make([]model.SeriesPoint, len(rows))
	for i, row := range rows {
		chain := string(row.Chain)
		if q.Group == model.GroupEVM {
			chain = string(model.GroupEVM)
		}
		points[i] = model.SeriesPoint{
			Date:        row.Date,
			DisplayDate: row.Date.Format(model.DisplayDateLayout),
			Chain:       chain,
			Metrics:     model.MetricsOf(row),
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.After(points[j].Date) })
	s.cache.Set(key, points)
	return points, nil
}

// DailySnapshot returns per-protocol metrics for one calendar date. When the
// requested date is the latest date in storage the map is empty: a partial day
// is never served.
func (s *StatsService) DailySnapshot(ctx context.Context, date time.Time, scope model.DataScope) (map[string]model.Metrics, error) {
	date = truncateToDay(date)
	key := cache.Key("daily", string(scope), date.Format("2006-01-02"))
	if v, ok := s.cache.Get(key); ok {
		return v.(map[string]model.Metrics), nil
	}

	latest, haveRows, err := s.stats.LatestDate(ctx, repository.StatFilter{Scope: scope})
	if err != nil {
		return nil, fmt.Errorf("daily snapshot latest date: %w", err)
	}
	snapshot := make(map[string]model.Metrics)
	if haveRows && sameDay(latest, date) {
		s.cache.Set(key, snapshot)
		return snapshot, nil
	}

	rows, err := s.stats.FetchStats(ctx, repository.StatFilter{Scope: scope, From: &date, To: &date})
	if err != nil {
		return nil, fmt.Errorf("daily snapshot fetch for %s: %w", date.Format("2006-01-02"), err)
	}
	for _, row := range rows {
		m := snapshot[row.ProtocolName]
		m.Add(model.MetricsOf(row))
		snapshot[row.ProtocolName] = m
	}
	s.cache.Set(key, snapshot)
	return snapshot, nil
}

// WeeklyMetrics compares the 7 days ending at endDate against the 7 days
// before them.
func (s *StatsService) WeeklyMetrics(ctx context.Context, endDate time.Time, scope model.DataScope) (map[string]model.GrowthMetrics, error) {
	return s.windowMetrics(ctx, "weekly", endDate, 7, scope)
}

// MonthlyMetrics compares the 30 days ending at endDate against the 30 days
// before them.
func (s *StatsService) MonthlyMetrics(ctx context.Context, endDate time.Time, scope model.DataScope) (map[string]model.GrowthMetrics, error) {
	return s.windowMetrics(ctx, "monthly", endDate, 30, scope)
}

// windowMetrics fetches the current and preceding window in one pass and
// derives per-protocol volume growth.
func (s *StatsService) windowMetrics(ctx context.Context, op string, endDate time.Time, days int, scope model.DataScope) (map[string]model.GrowthMetrics, error) {
	endDate = truncateToDay(endDate)
	key := cache.Key(op, string(scope), endDate.Format("2006-01-02"))
	if v, ok := s.cache.Get(key); ok {
		return v.(map[string]model.GrowthMetrics), nil
	}

	from := endDate.AddDate(0, 0, -(2*days - 1))
	rows, err := s.stats.FetchStats(ctx, repository.StatFilter{Scope: scope, From: &from, To: &endDate})
	if err != nil {
		return nil, fmt.Errorf("%s window fetch ending %s: %w", op, endDate.Format("2006-01-02"), err)
	}

	cutoff := endDate.AddDate(0, 0, -days)
	result := make(map[string]model.GrowthMetrics)
	for _, row := range rows {
		// Protocols seen only in raw rows are still included.
		g := result[row.ProtocolName]
		if row.Date.After(cutoff) {
			g.Current.Add(model.MetricsOf(row))
		} else {
			g.Previous.Add(model.MetricsOf(row))
		}
		result[row.ProtocolName] = g
	}
	for name, g := range result {
		g.Growth = model.VolumeGrowth(g.Previous.TotalVolumeUSD, g.Current.TotalVolumeUSD)
		result[name] = g
	}
	s.cache.Set(key, result)
	return result, nil
}

// ChainBreakdown returns a protocol's volume share per EVM chain. Chains with
// zero volume are excluded; shares are proportional to the summed total.
func (s *StatsService) ChainBreakdown(ctx context.Context, protocol string, scope model.DataScope) ([]model.ChainShare, error) {
	protocol = model.NormalizeProtocol(protocol)
	key := cache.Key("chains", protocol, string(scope))
	if v, ok := s.cache.Get(key); ok {
		return v.([]model.ChainShare), nil
	}

	rows, err := s.stats.FetchStats(ctx, repository.StatFilter{
		Protocols: []string{protocol},
		Chains:    model.EVMChains,
		Scope:     scope,
	})
	if err != nil {
		return nil, fmt.Errorf("chain breakdown fetch for %s: %w", protocol, err)
	}
	rows = excludeLatestDate(rows)

	byChain := make(map[model.Chain]float64)
	var total float64
	for _, row := range rows {
		byChain[row.Chain] += row.TotalVolumeUSD
		total += row.TotalVolumeUSD
	}

	shares := make([]model.ChainShare, 0, len(byChain))
	for _, chain := range model.EVMChains {
		volume := byChain[chain]
		if volume == 0 {
			continue
		}
		shares = append(shares, model.ChainShare{
			Chain:        chain,
			VolumeUSD:    volume,
			SharePercent: model.SharePercent(volume, total),
		})
	}
	s.cache.Set(key, shares)
	return shares, nil
}

// InvalidateCache drops every cached read. Called after a successful resync so
// stale aggregates never outlive a refresh.
func (s *StatsService) InvalidateCache() {
	s.cache.InvalidateAll()
}

// mergeEVMByDate sums same-protocol same-date rows across the EVM chain set
// into one synthetic record labeled "evm". Runs before the most-recent-date
// exclusion so a multi-chain latest day is dropped as a whole.
func mergeEVMByDate(rows []model.ProtocolStat) []model.ProtocolStat {
	type dateKey struct {
		protocol string
		date     time.Time
	}
	merged := make(map[dateKey]*model.ProtocolStat)
	order := make([]dateKey, 0, len(rows))
	for _, row := range rows {
		k := dateKey{protocol: row.ProtocolName, date: truncateToDay(row.Date)}
		if existing, ok := merged[k]; ok {
			existing.TotalVolumeUSD += row.TotalVolumeUSD
			existing.DailyUsers += row.DailyUsers
			existing.NewUsers += row.NewUsers
			existing.DailyTrades += row.DailyTrades
			existing.TotalFeesUSD += row.TotalFeesUSD
			continue
		}
		combined := row
		combined.Chain = model.Chain(model.GroupEVM)
		combined.Date = k.date
		merged[k] = &combined
		order = append(order, k)
	}
	out := make([]model.ProtocolStat, 0, len(order))
	for _, k := range order {
		out = append(out, *merged[k])
	}
	return out
}

// excludeLatestDate drops every row belonging to the single most recent date
// in the set, across all chains and protocols.
func excludeLatestDate(rows []model.ProtocolStat) []model.ProtocolStat {
	if len(rows) == 0 {
		return rows
	}
	var latest time.Time
	for _, row := range rows {
		if row.Date.After(latest) {
			latest = row.Date
		}
	}
	kept := make([]model.ProtocolStat, 0, len(rows))
	for _, row := range rows {
		if sameDay(row.Date, latest) {
			continue
		}
		kept = append(kept, row)
	}
	return kept
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

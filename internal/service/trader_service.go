package service

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/sairaghavaa/sol-analytics/internal/cache"
	"github.com/sairaghavaa/sol-analytics/internal/model"
	"github.com/sairaghavaa/sol-analytics/internal/repository"
)

// RankedPage is one page of traders ordered by volume descending, with the
// protocol-wide totals computed once and cached alongside it.
type RankedPage struct {
	Traders        []model.TraderStat `json:"traders"`
	Page           int                `json:"page"`
	PageSize       int                `json:"page_size"`
	TotalTraders   int64              `json:"total_traders"`
	TotalVolumeUSD float64            `json:"total_volume_usd"`
}

// traderTotals is the cached (count, volume) pair shared across pages.
type traderTotals struct {
	count  int64
	volume float64
}

// TraderService computes rank pages, volume-bucket distributions and
// percentile brackets over a protocol's trader rows.
type TraderService struct {
	traders repository.TraderStatRepository
	cache   *cache.Cache
	logger  *logrus.Logger
}

func NewTraderService(traders repository.TraderStatRepository, c *cache.Cache, logger *logrus.Logger) *TraderService {
	return &TraderService{traders: traders, cache: c, logger: logger}
}

func (s *TraderService) totals(ctx context.Context, protocol string) (traderTotals, error) {
	key := cache.Key("trader-totals", protocol)
	if v, ok := s.cache.Get(key); ok {
		return v.(traderTotals), nil
	}
	count, err := s.traders.Count(ctx, protocol)
	if err != nil {
		return traderTotals{}, err
	}
	volume, err := s.traders.TotalVolume(ctx, protocol)
	if err != nil {
		return traderTotals{}, err
	}
	t := traderTotals{count: count, volume: volume}
	s.cache.Set(key, t)
	return t, nil
}

// RankedTraders returns one offset-limited page of traders by volume
// descending. Pages are 1-indexed.
func (s *TraderService) RankedTraders(ctx context.Context, protocol string, page, pageSize int) (RankedPage, error) {
	protocol = model.NormalizeProtocol(protocol)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > repository.MaxPageSize {
		pageSize = 100
	}

	key := cache.Key("trader-page", protocol, strconv.Itoa(page), strconv.Itoa(pageSize))
	if v, ok := s.cache.Get(key); ok {
		return v.(RankedPage), nil
	}

	totals, err := s.totals(ctx, protocol)
	if err != nil {
		return RankedPage{}, fmt.Errorf("trader totals for %s: %w", protocol, err)
	}
	rows, err := s.traders.FetchRankedPage(ctx, protocol, (page-1)*pageSize, pageSize)
	if err != nil {
		return RankedPage{}, fmt.Errorf("ranked page %d for %s: %w", page, protocol, err)
	}

	result := RankedPage{
		Traders:        rows,
		Page:           page,
		PageSize:       pageSize,
		TotalTraders:   totals.count,
		TotalVolumeUSD: totals.volume,
	}
	s.cache.Set(key, result)
	return result, nil
}

// VolumeBuckets segments a protocol's traders into the ten fixed volume
// ranges. Each bucket is a bounded count+sum query pair; the protocol total is
// the sum of the ten bucket sums, never a full-table fetch.
func (s *TraderService) VolumeBuckets(ctx context.Context, protocol string) ([]model.VolumeBucket, error) {
	protocol = model.NormalizeProtocol(protocol)
	key := cache.Key("trader-buckets", protocol)
	if v, ok := s.cache.Get(key); ok {
		return v.([]model.VolumeBucket), nil
	}

	ranges := model.VolumeRanges()
	buckets := make([]model.VolumeBucket, len(ranges))
	var totalTraders int64
	var totalVolume float64
	for i, r := range ranges {
		count, err := s.traders.CountInRange(ctx, protocol, r.Min, r.Max)
		if err != nil {
			return nil, fmt.Errorf("bucket count for %s [%v,%v): %w", protocol, r.Min, r.Max, err)
		}
		volume, err := s.traders.SumInRange(ctx, protocol, r.Min, r.Max)
		if err != nil {
			return nil, fmt.Errorf("bucket sum for %s [%v,%v): %w", protocol, r.Min, r.Max, err)
		}
		buckets[i] = model.VolumeBucket{
			MinVolumeUSD: r.Min,
			TraderCount:  count,
			VolumeUSD:    volume,
		}
		if !math.IsInf(r.Max, 1) {
			buckets[i].MaxVolumeUSD = r.Max
		}
		totalTraders += count
		totalVolume += volume
	}

	for i := range buckets {
		buckets[i].VolumeSharePercent = model.SharePercent(buckets[i].VolumeUSD, totalVolume)
		buckets[i].TraderSharePercent = model.SharePercent(float64(buckets[i].TraderCount), float64(totalTraders))
	}

	s.logger.WithFields(logrus.Fields{
		"protocol": protocol,
		"traders":  totalTraders,
	}).Debug("volume buckets computed")
	s.cache.Set(key, buckets)
	return buckets, nil
}

// PercentileBrackets passes through the server-side bracket aggregate. Its
// absence surfaces as an error; there is no client-side fallback.
func (s *TraderService) PercentileBrackets(ctx context.Context, protocol string) ([]model.PercentileBracket, error) {
	protocol = model.NormalizeProtocol(protocol)
	key := cache.Key("trader-percentiles", protocol)
	if v, ok := s.cache.Get(key); ok {
		return v.([]model.PercentileBracket), nil
	}
	brackets, err := s.traders.PercentileBrackets(ctx, protocol)
	if err != nil {
		return nil, fmt.Errorf("percentile brackets for %s: %w", protocol, err)
	}
	s.cache.Set(key, brackets)
	return brackets, nil
}

package model

import "math"

// VolumeBucketBounds are the lower bounds of the fixed trader-volume ranges,
// descending order for display. Each bucket covers [Min, Max); the top bucket
// is unbounded.
var VolumeBucketBounds = []float64{
	5_000_000,
	4_000_000,
	3_000_000,
	2_000_000,
	1_000_000,
	500_000,
	250_000,
	100_000,
	50_000,
	0,
}

// VolumeRange is one bucket boundary pair. Max is +Inf for the top bucket.
type VolumeRange struct {
	Min float64
	Max float64
}

// VolumeRanges returns the ten fixed bucket ranges in descending order.
func VolumeRanges() []VolumeRange {
	ranges := make([]VolumeRange, len(VolumeBucketBounds))
	prev := math.Inf(1)
	for i, min := range VolumeBucketBounds {
		ranges[i] = VolumeRange{Min: min, Max: prev}
		prev = min
	}
	return ranges
}

// VolumeBucket is one computed distribution row. Buckets are stateless and
// recomputed per query, never persisted.
type VolumeBucket struct {
	MinVolumeUSD       float64 `json:"min_volume_usd"`
	MaxVolumeUSD       float64 `json:"max_volume_usd,omitempty"`
	TraderCount        int64   `json:"trader_count"`
	VolumeUSD          float64 `json:"volume_usd"`
	VolumeSharePercent float64 `json:"volume_share_percent"`
	TraderSharePercent float64 `json:"trader_share_percent"`
}

// PercentileBracket is a rank-range statistic produced by the server-side
// aggregate: the share of total volume held by the top N% of traders.
type PercentileBracket struct {
	Percentile         float64 `json:"percentile"`
	TraderCount        int64   `json:"trader_count"`
	RankFrom           int64   `json:"rank_from"`
	RankTo             int64   `json:"rank_to"`
	VolumeUSD          float64 `json:"volume_usd"`
	VolumeSharePercent float64 `json:"volume_share_percent"`
}

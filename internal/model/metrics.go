package model

import "time"

// DisplayDateLayout is the day-month-year format used on series points.
const DisplayDateLayout = "02-01-2006"

// Metrics is a summed set of daily metrics.
type Metrics struct {
	TotalVolumeUSD float64 `json:"total_volume_usd"`
	DailyUsers     int64   `json:"daily_users"`
	NewUsers       int64   `json:"new_users"`
	DailyTrades    int64   `json:"daily_trades"`
	TotalFeesUSD   float64 `json:"total_fees_usd"`
}

// Add accumulates another metrics value into m.
func (m *Metrics) Add(o Metrics) {
	m.TotalVolumeUSD += o.TotalVolumeUSD
	m.DailyUsers += o.DailyUsers
	m.NewUsers += o.NewUsers
	m.DailyTrades += o.DailyTrades
	m.TotalFeesUSD += o.TotalFeesUSD
}

// MetricsOf extracts the summable metrics from a stat row.
func MetricsOf(s ProtocolStat) Metrics {
	return Metrics{
		TotalVolumeUSD: s.TotalVolumeUSD,
		DailyUsers:     s.DailyUsers,
		NewUsers:       s.NewUsers,
		DailyTrades:    s.DailyTrades,
		TotalFeesUSD:   s.TotalFeesUSD,
	}
}

// SeriesPoint is one dated entry in a metrics time series, newest first.
type SeriesPoint struct {
	Date        time.Time `json:"date"`
	DisplayDate string    `json:"display_date"`
	Chain       string    `json:"chain"`
	Metrics
}

// GrowthMetrics compares the current window against the immediately preceding
// window of equal length. Growth is a ratio: 0.25 means +25%.
type GrowthMetrics struct {
	Current  Metrics `json:"current"`
	Previous Metrics `json:"previous"`
	Growth   float64 `json:"growth"`
}

// ChainShare is one chain's slice of a protocol's EVM volume.
type ChainShare struct {
	Chain        Chain   `json:"chain"`
	VolumeUSD    float64 `json:"volume_usd"`
	SharePercent float64 `json:"share_percent"`
}

// VolumeGrowth computes window-over-window growth. A zero baseline with
// nonzero current volume reports +100%, never a division error.
func VolumeGrowth(previous, current float64) float64 {
	if previous > 0 {
		return (current - previous) / previous
	}
	if current > 0 {
		return 1
	}
	return 0
}

// SharePercent computes part/whole*100 with a zero whole reported as 0.
func SharePercent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

package model

import "time"

// ProtocolStat is one day of metrics for a protocol on one chain.
// At most one row exists per (protocol_name, chain, date, data_type).
type ProtocolStat struct {
	ProtocolName string    `gorm:"column:protocol_name;primaryKey" json:"protocol_name"`
	Chain        Chain     `gorm:"column:chain;primaryKey" json:"chain"`
	Date         time.Time `gorm:"column:date;type:date;primaryKey" json:"date"`
	DataType     DataScope `gorm:"column:data_type;primaryKey" json:"data_type"`

	TotalVolumeUSD float64 `gorm:"column:total_volume_usd" json:"total_volume_usd"`
	DailyUsers     int64   `gorm:"column:daily_users" json:"daily_users"`
	NewUsers       int64   `gorm:"column:new_users" json:"new_users"`
	DailyTrades    int64   `gorm:"column:daily_trades" json:"daily_trades"`
	TotalFeesUSD   float64 `gorm:"column:total_fees_usd" json:"total_fees_usd"`
}

func (ProtocolStat) TableName() string {
	return "protocol_stats"
}

// ProjectedStat is an independently-sourced same-day volume and fee estimate
// for a protocol. It substitutes for volume/fees only, never users or trades.
type ProjectedStat struct {
	ProtocolName string    `gorm:"column:protocol_name;primaryKey" json:"protocol_name"`
	Date         time.Time `gorm:"column:date;type:date;primaryKey" json:"date"`

	ProjectedVolumeUSD float64 `gorm:"column:projected_volume_usd" json:"projected_volume_usd"`
	ProjectedFeesUSD   float64 `gorm:"column:projected_fees_usd" json:"projected_fees_usd"`
}

func (ProjectedStat) TableName() string {
	return "projected_stats"
}

// TraderStat is one trader's volume on a protocol for one day.
// Unique per (protocol_name, user_address, date); duplicate addresses within a
// day must be summed before persistence, never stored twice.
type TraderStat struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	ProtocolName string    `gorm:"column:protocol_name" json:"protocol_name"`
	UserAddress  string    `gorm:"column:user_address" json:"user_address"`
	Date         time.Time `gorm:"column:date;type:date" json:"date"`
	Chain        Chain     `gorm:"column:chain" json:"chain"`
	VolumeUSD    float64   `gorm:"column:volume_usd" json:"volume_usd"`
}

func (TraderStat) TableName() string {
	return "trader_stats"
}

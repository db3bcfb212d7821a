package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sairaghavaa/sol-analytics/internal/cache"
	"github.com/sairaghavaa/sol-analytics/internal/errs"
	"github.com/sairaghavaa/sol-analytics/internal/feed"
	"github.com/sairaghavaa/sol-analytics/internal/ingest"
	"github.com/sairaghavaa/sol-analytics/internal/model"
	"github.com/sairaghavaa/sol-analytics/internal/repository"
)

// SyncReport summarizes a protocol resync.
type SyncReport struct {
	Protocol       string        `json:"protocol"`
	QueriesTotal   int           `json:"queries_total"`
	QueriesFailed  int           `json:"queries_failed"`
	FailedQueryIDs []int         `json:"failed_query_ids,omitempty"`
	RowsDeleted    int64         `json:"rows_deleted"`
	RowsInserted   int64         `json:"rows_inserted"`
	Elapsed        time.Duration `json:"elapsed"`
}

// SyncService pulls a protocol's daily rows from the analytics provider and
// replaces the stored data. Metric resyncs tolerate partial query failure;
// trader resyncs run through the batch ingestion pipeline.
type SyncService struct {
	feed      feed.Feed
	stats     repository.ProtocolStatRepository
	projected repository.ProjectedStatRepository
	pipeline  *ingest.Pipeline
	cache     *cache.Cache
	logger    *logrus.Logger
}

func NewSyncService(
	f feed.Feed,
	stats repository.ProtocolStatRepository,
	projected repository.ProjectedStatRepository,
	pipeline *ingest.Pipeline,
	c *cache.Cache,
	logger *logrus.Logger,
) *SyncService {
	return &SyncService{feed: f, stats: stats, projected: projected, pipeline: pipeline, cache: c, logger: logger}
}

// ResyncProtocol refreshes a protocol's protocol_stats rows from every query
// mapped to it. Failed queries are counted and reported; the resync proceeds
// on the successful subset as long as at least one query succeeded.
func (s *SyncService) ResyncProtocol(ctx context.Context, protocol string, scope model.DataScope) (SyncReport, error) {
	started := time.Now()
	protocol = model.NormalizeProtocol(protocol)
	report := SyncReport{Protocol: protocol}

	entry, ok := model.LookupProtocol(protocol)
	if !ok {
		return report, &errs.ConfigurationError{Key: protocol, Reason: "protocol not in registry"}
	}
	report.QueriesTotal = len(entry.StatQueries)

	var rows []model.ProtocolStat
	var projected []model.ProjectedStat
	for _, q := range entry.StatQueries {
		if err := model.ValidateScope(q.Chain, scope); err != nil {
			return report, fmt.Errorf("resync %s: %w", protocol, err)
		}
		raw, err := s.feed.FetchQueryResultsAsRows(ctx, q.QueryID)
		if err != nil {
			report.QueriesFailed++
			report.FailedQueryIDs = append(report.FailedQueryIDs, q.QueryID)
			s.logger.WithFields(logrus.Fields{
				"protocol": protocol,
				"query_id": q.QueryID,
			}).WithError(err).Warn("feed query failed, continuing with remainder")
			continue
		}
		parsed, err := parseStatRows(protocol, q.Chain, scope, raw)
		if err != nil {
			return report, err
		}
		rows = append(rows, parsed...)

		proj, err := parseProjectedRows(protocol, raw)
		if err != nil {
			return report, err
		}
		projected = append(projected, proj...)
	}

	if report.QueriesFailed == report.QueriesTotal {
		return report, &errs.UpstreamFeedError{Reason: fmt.Sprintf("all %d queries failed for %s", report.QueriesTotal, protocol)}
	}

	deleted, err := s.stats.DeleteStats(ctx, protocol, scope)
	if err != nil {
		return report, fmt.Errorf("resync %s: %w", protocol, err)
	}
	report.RowsDeleted = deleted

	for start := 0; start < len(rows); start += repository.MaxPageSize {
		end := start + repository.MaxPageSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := s.stats.BulkInsertStats(ctx, rows[start:end]); err != nil {
			return report, fmt.Errorf("resync %s: %w", protocol, err)
		}
		report.RowsInserted += int64(end - start)
	}

	if len(projected) > 0 {
		if err := s.projected.UpsertProjected(ctx, projected); err != nil {
			return report, fmt.Errorf("resync %s projected rows: %w", protocol, err)
		}
	}

	// Invalidation happens after the writes are visible so no reader caches a
	// pre-refresh aggregate past this point.
	s.cache.InvalidateAll()
	report.Elapsed = time.Since(started)
	s.logger.WithFields(logrus.Fields{
		"protocol": protocol,
		"inserted": report.RowsInserted,
		"deleted":  report.RowsDeleted,
		"failed":   report.QueriesFailed,
	}).Info("protocol resync complete")
	return report, nil
}

// ResyncTraders refreshes a protocol's trader rows through the batch
// ingestion pipeline.
func (s *SyncService) ResyncTraders(ctx context.Context, protocol string) (ingest.Report, error) {
	protocol = model.NormalizeProtocol(protocol)

	entry, ok := model.LookupProtocol(protocol)
	if !ok {
		return ingest.Report{}, &errs.ConfigurationError{Key: protocol, Reason: "protocol not in registry"}
	}
	if entry.TraderQueryID == 0 {
		return ingest.Report{}, &errs.ConfigurationError{Key: protocol, Reason: "no trader query configured"}
	}

	raw, err := s.feed.FetchQueryResultsAsRows(ctx, entry.TraderQueryID)
	if err != nil {
		return ingest.Report{}, err
	}

	records := make([]ingest.RawTraderRecord, 0, len(raw))
	for _, row := range raw {
		address := feed.StringField(row, "user_address", "trader", "address")
		if address == "" {
			return ingest.Report{}, &errs.DataIntegrityError{Protocol: protocol, Field: "user_address", Value: "", Err: fmt.Errorf("missing trader address")}
		}
		date, err := feed.DateField(row, "date", "day", "block_date")
		if err != nil {
			return ingest.Report{}, &errs.DataIntegrityError{Protocol: protocol, Field: "date", Value: feed.StringField(row, "date", "day", "block_date"), Err: err}
		}
		volume, err := feed.NumberString(row, "volume_usd", "total_volume_usd", "volume")
		if err != nil {
			return ingest.Report{}, &errs.DataIntegrityError{Protocol: protocol, Field: "volume", Value: feed.StringField(row, "volume_usd", "total_volume_usd", "volume"), Err: err}
		}
		records = append(records, ingest.RawTraderRecord{
			Address: address,
			Date:    date.Format("2006-01-02"),
			Volume:  volume,
		})
	}

	report, err := s.pipeline.Run(ctx, protocol, records)
	if err != nil {
		return report, err
	}
	s.cache.InvalidateAll()
	return report, nil
}

// parseProjectedRows extracts the provider's same-day volume projections when a
// query exposes them. Rows without a projected column are skipped; one row per
// date survives.
func parseProjectedRows(protocol string, raw []feed.Row) ([]model.ProjectedStat, error) {
	byDate := make(map[string]model.ProjectedStat)
	var order []string
	for _, r := range raw {
		if feed.StringField(r, "projected_volume_usd", "projected_volume") == "" {
			continue
		}
		date, err := feed.DateField(r, "date", "day", "block_date")
		if err != nil {
			return nil, &errs.DataIntegrityError{Protocol: protocol, Field: "date", Value: feed.StringField(r, "date", "day", "block_date"), Err: err}
		}
		volume, err := feed.NumberField(r, "projected_volume_usd", "projected_volume")
		if err != nil {
			return nil, &errs.DataIntegrityError{Protocol: protocol, Field: "projected_volume_usd", Value: feed.StringField(r, "projected_volume_usd", "projected_volume"), Err: err}
		}
		fees, err := feed.NumberField(r, "projected_fees_usd", "projected_fees")
		if err != nil {
			return nil, &errs.DataIntegrityError{Protocol: protocol, Field: "projected_fees_usd", Value: feed.StringField(r, "projected_fees_usd", "projected_fees"), Err: err}
		}
		dk := date.Format("2006-01-02")
		if _, seen := byDate[dk]; !seen {
			order = append(order, dk)
		}
		byDate[dk] = model.ProjectedStat{
			ProtocolName:       protocol,
			Date:               date,
			ProjectedVolumeUSD: volume,
			ProjectedFeesUSD:   fees,
		}
	}
	rows := make([]model.ProjectedStat, 0, len(order))
	for _, dk := range order {
		rows = append(rows, byDate[dk])
	}
	return rows, nil
}

// parseStatRows maps raw feed rows to protocol_stats rows for one chain.
func parseStatRows(protocol string, chain model.Chain, scope model.DataScope, raw []feed.Row) ([]model.ProtocolStat, error) {
	rows := make([]model.ProtocolStat, 0, len(raw))
	for _, r := range raw {
		date, err := feed.DateField(r, "date", "day", "block_date")
		if err != nil {
			return nil, &errs.DataIntegrityError{Protocol: protocol, Field: "date", Value: feed.StringField(r, "date", "day", "block_date"), Err: err}
		}
		volume, err := feed.NumberField(r, "total_volume_usd", "volume_usd")
		if err != nil {
			return nil, &errs.DataIntegrityError{Protocol: protocol, Field: "total_volume_usd", Value: feed.StringField(r, "total_volume_usd", "volume_usd"), Err: err}
		}
		users, err := feed.NumberField(r, "daily_users", "users")
		if err != nil {
			return nil, &errs.DataIntegrityError{Protocol: protocol, Field: "daily_users", Value: feed.StringField(r, "daily_users", "users"), Err: err}
		}
		newUsers, err := feed.NumberField(r, "new_users", "numberOfNewUsers")
		if err != nil {
			return nil, &errs.DataIntegrityError{Protocol: protocol, Field: "new_users", Value: feed.StringField(r, "new_users", "numberOfNewUsers"), Err: err}
		}
		trades, err := feed.NumberField(r, "daily_trades", "trades")
		if err != nil {
			return nil, &errs.DataIntegrityError{Protocol: protocol, Field: "daily_trades", Value: feed.StringField(r, "daily_trades", "trades"), Err: err}
		}
		fees, err := feed.NumberField(r, "total_fees_usd", "fees_usd")
		if err != nil {
			return nil, &errs.DataIntegrityError{Protocol: protocol, Field: "total_fees_usd", Value: feed.StringField(r, "total_fees_usd", "fees_usd"), Err: err}
		}
		rows = append(rows, model.ProtocolStat{
			ProtocolName:   protocol,
			Chain:          chain,
			Date:           date,
			DataType:       scope,
			TotalVolumeUSD: volume,
			DailyUsers:     int64(users),
			NewUsers:       int64(newUsers),
			DailyTrades:    int64(trades),
			TotalFeesUSD:   fees,
		})
	}
	return rows, nil
}

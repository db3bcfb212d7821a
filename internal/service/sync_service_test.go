package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sairaghavaa/sol-analytics/internal/cache"
	"github.com/sairaghavaa/sol-analytics/internal/errs"
	"github.com/sairaghavaa/sol-analytics/internal/feed"
	"github.com/sairaghavaa/sol-analytics/internal/ingest"
	"github.com/sairaghavaa/sol-analytics/internal/model"
)

// fakeFeed serves canned rows per query ID.
type fakeFeed struct {
	results  map[int][]feed.Row
	failures map[int]error
}

func (f *fakeFeed) FetchQueryResultsAsRows(ctx context.Context, queryID int) ([]feed.Row, error) {
	if err, ok := f.failures[queryID]; ok {
		return nil, err
	}
	rows, ok := f.results[queryID]
	if !ok {
		return nil, &errs.UpstreamFeedError{QueryID: queryID, Reason: "empty result set"}
	}
	return rows, nil
}

func statRow(date string, volume float64) feed.Row {
	return feed.Row{
		"date":             date,
		"total_volume_usd": volume,
		"daily_users":      float64(3),
		"new_users":        float64(1),
		"daily_trades":     float64(9),
		"total_fees_usd":   float64(2),
	}
}

func newSyncService(f feed.Feed) (*SyncService, *fakeStatRepo, *fakeProjectedRepo, *fakeTraderRepo, *cache.Cache) {
	statRepo := &fakeStatRepo{}
	projRepo := &fakeProjectedRepo{}
	traderRepo := &fakeTraderRepo{}
	readCache := cache.New(30 * time.Second)

	cfg := ingest.DefaultConfig()
	cfg.Retry.BaseDelay = time.Millisecond
	pipeline := ingest.NewPipeline(traderRepo, cfg, testLogger())

	svc := NewSyncService(f, statRepo, projRepo, pipeline, readCache, testLogger())
	return svc, statRepo, projRepo, traderRepo, readCache
}

func TestResyncProtocolReplacesRows(t *testing.T) {
	f := &fakeFeed{results: map[int][]feed.Row{
		3622411: {statRow("2024-03-01", 100), statRow("2024-03-02", 200)},
	}}
	svc, statRepo, _, _, readCache := newSyncService(f)
	statRepo.rows = []model.ProtocolStat{solanaRow("photon", "2024-01-01", 5)}
	readCache.Set("stale", 1)

	report, err := svc.ResyncProtocol(context.Background(), "photon", model.ScopePrivate)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if report.RowsDeleted != 1 {
		t.Errorf("Expected 1 old row deleted, got %d", report.RowsDeleted)
	}
	if report.RowsInserted != 2 {
		t.Errorf("Expected 2 rows inserted, got %d", report.RowsInserted)
	}
	if len(statRepo.rows) != 2 {
		t.Errorf("Expected store to hold 2 rows, got %d", len(statRepo.rows))
	}
	if statRepo.inserted[0].Chain != model.ChainSolana || statRepo.inserted[0].DataType != model.ScopePrivate {
		t.Errorf("Unexpected inserted row dimensions: %+v", statRepo.inserted[0])
	}
	if readCache.Len() != 0 {
		t.Error("Expected cache cleared after resync")
	}
}

func TestResyncProtocolRejectsScopeMixing(t *testing.T) {
	svc, _, _, _, _ := newSyncService(&fakeFeed{})
	if _, err := svc.ResyncProtocol(context.Background(), "photon", model.ScopePublic); err == nil {
		t.Error("Expected public scope rejected for a solana protocol")
	}
}

func TestResyncProtocolToleratesPartialFailure(t *testing.T) {
	// maestro maps five EVM queries; three fail here.
	f := &fakeFeed{
		results: map[int][]feed.Row{
			2518301: {statRow("2024-03-01", 100)},
			2518302: {statRow("2024-03-01", 50)},
		},
		failures: map[int]error{
			2518303: errors.New("boom"),
			2518304: errors.New("boom"),
			2518305: errors.New("boom"),
		},
	}
	svc, statRepo, _, _, _ := newSyncService(f)

	report, err := svc.ResyncProtocol(context.Background(), "maestro", model.ScopePublic)
	if err != nil {
		t.Fatalf("Expected partial failure tolerated, got %v", err)
	}
	if report.QueriesFailed != 3 || len(report.FailedQueryIDs) != 3 {
		t.Errorf("Expected 3 failed queries reported, got %+v", report)
	}
	if report.RowsInserted != 2 {
		t.Errorf("Expected rows from the successful queries, got %d", report.RowsInserted)
	}
	if len(statRepo.inserted) != 2 {
		t.Errorf("Expected 2 inserted rows, got %d", len(statRepo.inserted))
	}
}

func TestResyncProtocolAllQueriesFailedIsError(t *testing.T) {
	f := &fakeFeed{failures: map[int]error{3622411: errors.New("down")}}
	svc, statRepo, _, _, _ := newSyncService(f)

	_, err := svc.ResyncProtocol(context.Background(), "photon", model.ScopePrivate)
	var feedErr *errs.UpstreamFeedError
	if !errors.As(err, &feedErr) {
		t.Fatalf("Expected UpstreamFeedError when every query fails, got %v", err)
	}
	if statRepo.deleted != 0 {
		t.Error("Expected no delete when nothing was fetched")
	}
}

func TestResyncProtocolBadRowAborts(t *testing.T) {
	f := &fakeFeed{results: map[int][]feed.Row{
		3622411: {feed.Row{"date": "garbage", "total_volume_usd": 1.0}},
	}}
	svc, statRepo, _, _, _ := newSyncService(f)

	_, err := svc.ResyncProtocol(context.Background(), "photon", model.ScopePrivate)
	var integrity *errs.DataIntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("Expected DataIntegrityError, got %v", err)
	}
	if statRepo.deleted != 0 || len(statRepo.inserted) != 0 {
		t.Error("Expected the store untouched after a parse abort")
	}
}

func TestResyncProtocolStoresProjectedRows(t *testing.T) {
	row := statRow("2024-03-01", 100)
	row["projected_volume_usd"] = 120.0
	row["projected_fees_usd"] = 3.0
	f := &fakeFeed{results: map[int][]feed.Row{3622411: {row, statRow("2024-03-02", 200)}}}
	svc, _, projRepo, _, _ := newSyncService(f)

	if _, err := svc.ResyncProtocol(context.Background(), "photon", model.ScopePrivate); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(projRepo.rows) != 1 {
		t.Fatalf("Expected 1 projected row (day without projection skipped), got %d", len(projRepo.rows))
	}
	p := projRepo.rows[0]
	if p.ProtocolName != "photon" || p.ProjectedVolumeUSD != 120 || p.ProjectedFeesUSD != 3 {
		t.Errorf("Unexpected projected row: %+v", p)
	}
}

func TestResyncTradersRunsPipeline(t *testing.T) {
	f := &fakeFeed{results: map[int][]feed.Row{
		3622490: {
			feed.Row{"user_address": "a", "date": "2024-03-01", "volume_usd": 10.0},
			feed.Row{"user_address": "b", "date": "2024-03-01", "volume_usd": "2.5e+01"},
		},
	}}
	svc, _, _, traderRepo, readCache := newSyncService(f)
	readCache.Set("stale", 1)

	report, err := svc.ResyncTraders(context.Background(), "photon")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if report.RowsInserted != 2 {
		t.Errorf("Expected 2 trader rows inserted, got %d", report.RowsInserted)
	}
	if len(traderRepo.rows) != 2 {
		t.Errorf("Expected store to hold 2 trader rows, got %d", len(traderRepo.rows))
	}
	var total float64
	for _, r := range traderRepo.rows {
		total += r.VolumeUSD
	}
	if total != 35 {
		t.Errorf("Expected summed volume 35, got %v", total)
	}
	if readCache.Len() != 0 {
		t.Error("Expected cache cleared after trader resync")
	}
}

func TestResyncTradersUnknownProtocol(t *testing.T) {
	svc, _, _, _, _ := newSyncService(&fakeFeed{})
	_, err := svc.ResyncTraders(context.Background(), "ghost")
	var cfgErr *errs.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigurationError for unknown protocol, got %v", err)
	}
}

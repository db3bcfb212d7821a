// Package ingest implements the full-resync bulk replace of a protocol's
// trader rows: delete everything, prepare the fresh rowset, insert it in
// chunks under a bounded concurrency window. Semantics are at-least-once:
// committed chunks are never rolled back; re-running the job is the recovery
// path and is safe because the delete phase is idempotent.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/sairaghavaa/sol-analytics/internal/errs"
	"github.com/sairaghavaa/sol-analytics/internal/model"
	"github.com/sairaghavaa/sol-analytics/internal/repository"
)

// JobState tracks an import job through its phases.
type JobState string

const (
	StateIdle      JobState = "idle"
	StateDeleting  JobState = "deleting"
	StatePreparing JobState = "preparing"
	StateInserting JobState = "inserting"
	StateDone      JobState = "done"
	StateFailed    JobState = "failed"
)

// Config holds pipeline tuning parameters.
type Config struct {
	// ChunkSize is the number of rows per insert call.
	ChunkSize int

	// MaxInFlight is the concurrency window for chunk inserts. Backpressure
	// against the store, not an ordering mechanism.
	MaxInFlight int

	// DeletePageSize bounds each fetch-IDs-then-delete round of the delete
	// phase, since the store rejects unbounded deletes.
	DeletePageSize int

	// Retry configures per-chunk insert retries.
	Retry RetryConfig
}

// DefaultConfig returns the reference pipeline parameters.
func DefaultConfig() Config {
	return Config{
		ChunkSize:      10_000,
		MaxInFlight:    3,
		DeletePageSize: 50_000,
		Retry:          DefaultRetryConfig("chunk-insert"),
	}
}

// RawTraderRecord is one trader row as it arrives from the feed, fields still
// unparsed. Parsing failures abort the job rather than dropping the row.
type RawTraderRecord struct {
	Address string
	Date    string
	Volume  string
}

// Report summarizes a finished or failed job.
type Report struct {
	Protocol      string        `json:"protocol"`
	State         JobState      `json:"state"`
	RowsDeleted   int64         `json:"rows_deleted"`
	RowsInserted  int64         `json:"rows_inserted"`
	Elapsed       time.Duration `json:"elapsed"`
	RowsPerSecond float64       `json:"rows_per_second"`
}

// Pipeline is the bulk delete+insert machine. Jobs for different protocols are
// independent; one Pipeline may run them concurrently.
type Pipeline struct {
	traders repository.TraderStatRepository
	cfg     Config
	logger  *logrus.Logger
}

func NewPipeline(traders repository.TraderStatRepository, cfg Config, logger *logrus.Logger) *Pipeline {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 10_000
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 3
	}
	if cfg.DeletePageSize <= 0 {
		cfg.DeletePageSize = 50_000
	}
	return &Pipeline{traders: traders, cfg: cfg, logger: logger}
}

// Run executes one import job: Deleting -> Preparing -> Inserting -> Done.
// Any unrecoverable error fails the job, leaving whatever partial state it
// reached; the caller re-runs the whole job to recover.
func (p *Pipeline) Run(ctx context.Context, protocol string, records []RawTraderRecord) (Report, error) {
	protocol = model.NormalizeProtocol(protocol)
	started := time.Now()
	report := Report{Protocol: protocol, State: StateIdle}

	report.State = StateDeleting
	deleted, err := p.deleteAll(ctx, protocol)
	report.RowsDeleted = deleted
	if err != nil {
		report.State = StateFailed
		return report, fmt.Errorf("delete phase for %s: %w", protocol, err)
	}
	p.logger.WithFields(logrus.Fields{"protocol": protocol, "deleted": deleted}).Info("delete phase complete")

	report.State = StatePreparing
	rows, err := p.prepare(protocol, records)
	if err != nil {
		report.State = StateFailed
		return report, err
	}

	report.State = StateInserting
	inserted, err := p.insertChunks(ctx, protocol, rows)
	report.RowsInserted = inserted
	if err != nil {
		report.State = StateFailed
		return report, fmt.Errorf("insert phase for %s: %w", protocol, err)
	}

	report.State = StateDone
	report.Elapsed = time.Since(started)
	if secs := report.Elapsed.Seconds(); secs > 0 {
		report.RowsPerSecond = float64(inserted) / secs
	}
	p.logger.WithFields(logrus.Fields{
		"protocol": protocol,
		"deleted":  report.RowsDeleted,
		"inserted": report.RowsInserted,
		"elapsed":  report.Elapsed,
	}).Info("import job complete")
	return report, nil
}

// deleteAll removes every existing trader row for the protocol in bounded
// rounds: fetch a page of row IDs, delete by ID set, repeat until the
// pre-counted total is exhausted.
func (p *Pipeline) deleteAll(ctx context.Context, protocol string) (int64, error) {
	total, err := p.traders.Count(ctx, protocol)
	if err != nil {
		return 0, err
	}
	var deleted int64
	for deleted < total {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		ids, err := p.traders.FetchIDPage(ctx, protocol, p.cfg.DeletePageSize)
		if err != nil {
			return deleted, err
		}
		if len(ids) == 0 {
			break
		}
		n, err := p.traders.DeleteByIDs(ctx, ids)
		if err != nil {
			return deleted, err
		}
		deleted += n
	}
	return deleted, nil
}

// prepare maps raw records to trader rows, summing duplicate (address, date)
// volumes so the unique key is never violated. A single bad date or number
// aborts the job: skip-and-continue would silently drop trader records.
func (p *Pipeline) prepare(protocol string, records []RawTraderRecord) ([]model.TraderStat, error) {
	entry, ok := model.LookupProtocol(protocol)
	if !ok {
		return nil, &errs.ConfigurationError{Key: protocol, Reason: "protocol not in registry"}
	}
	chain := entry.PrimaryChain()

	type dayKey struct {
		address string
		day     string
	}
	merged := make(map[dayKey]*model.TraderStat, len(records))
	order := make([]dayKey, 0, len(records))
	for _, rec := range records {
		date, err := time.Parse("2006-01-02", rec.Date)
		if err != nil {
			return nil, &errs.DataIntegrityError{Protocol: protocol, Field: "date", Value: rec.Date, Err: err}
		}
		volume, err := decimal.NewFromString(rec.Volume)
		if err != nil {
			return nil, &errs.DataIntegrityError{Protocol: protocol, Field: "volume", Value: rec.Volume, Err: err}
		}
		k := dayKey{address: rec.Address, day: rec.Date}
		if row, exists := merged[k]; exists {
			row.VolumeUSD += volume.InexactFloat64()
			continue
		}
		merged[k] = &model.TraderStat{
			ProtocolName: protocol,
			UserAddress:  rec.Address,
			Date:         date,
			Chain:        chain,
			VolumeUSD:    volume.InexactFloat64(),
		}
		order = append(order, k)
	}

	rows := make([]model.TraderStat, 0, len(order))
	for _, k := range order {
		rows = append(rows, *merged[k])
	}
	return rows, nil
}

// insertChunks writes the rowset in fixed-size chunks with a rolling window of
// at most MaxInFlight concurrent inserts. Chunk order is irrelevant; the first
// unrecoverable failure cancels scheduling but leaves committed chunks.
func (p *Pipeline) insertChunks(ctx context.Context, protocol string, rows []model.TraderStat) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	chunks := chunkRows(rows, p.cfg.ChunkSize)
	retryer := NewRetryer(p.cfg.Retry, p.logger)

	insertCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, p.cfg.MaxInFlight)
	var wg sync.WaitGroup
	var inserted atomic.Int64
	var failMu sync.Mutex
	var firstErr error

	for i, chunk := range chunks {
		if insertCtx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(idx int, chunk []model.TraderStat) {
			defer wg.Done()
			defer func() { <-sem }()

			err := retryer.Execute(insertCtx, func() error {
				return p.traders.BulkInsert(insertCtx, chunk)
			})
			if err != nil {
				failMu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("chunk %d (%d rows): %w", idx, len(chunk), err)
				}
				failMu.Unlock()
				cancel()
				return
			}
			inserted.Add(int64(len(chunk)))
		}(i, chunk)
	}
	wg.Wait()

	if firstErr != nil {
		return inserted.Load(), firstErr
	}
	if err := ctx.Err(); err != nil {
		return inserted.Load(), err
	}
	return inserted.Load(), nil
}

func chunkRows(rows []model.TraderStat, size int) [][]model.TraderStat {
	var chunks [][]model.TraderStat
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		chunks = append(chunks, rows[start:end])
	}
	return chunks
}

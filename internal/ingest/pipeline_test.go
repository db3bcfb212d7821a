package ingest

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sairaghavaa/sol-analytics/internal/errs"
	"github.com/sairaghavaa/sol-analytics/internal/model"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// memTraderRepo is an in-memory trader_stats table with optional injected
// insert failures.
type memTraderRepo struct {
	mu     sync.Mutex
	rows   map[uint64]model.TraderStat
	nextID uint64

	failInserts   int   // fail this many inserts before succeeding
	insertFailErr error // error to return for injected failures
	insertCalls   int
	maxInFlight   int
	inFlight      int
}

func newMemTraderRepo() *memTraderRepo {
	return &memTraderRepo{rows: make(map[uint64]model.TraderStat), nextID: 1}
}

func (m *memTraderRepo) FetchRankedPage(ctx context.Context, protocol string, offset, limit int) ([]model.TraderStat, error) {
	return nil, errors.New("not used")
}

func (m *memTraderRepo) Count(ctx context.Context, protocol string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, row := range m.rows {
		if row.ProtocolName == protocol {
			n++
		}
	}
	return n, nil
}

func (m *memTraderRepo) CountInRange(ctx context.Context, protocol string, min, max float64) (int64, error) {
	return 0, errors.New("not used")
}

func (m *memTraderRepo) SumInRange(ctx context.Context, protocol string, min, max float64) (float64, error) {
	return 0, errors.New("not used")
}

func (m *memTraderRepo) TotalVolume(ctx context.Context, protocol string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum float64
	for _, row := range m.rows {
		if row.ProtocolName == protocol {
			sum += row.VolumeUSD
		}
	}
	return sum, nil
}

func (m *memTraderRepo) PercentileBrackets(ctx context.Context, protocol string) ([]model.PercentileBracket, error) {
	return nil, errors.New("not used")
}

func (m *memTraderRepo) FetchIDPage(ctx context.Context, protocol string, limit int) ([]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uint64
	for id, row := range m.rows {
		if row.ProtocolName == protocol {
			ids = append(ids, id)
			if len(ids) == limit {
				break
			}
		}
	}
	return ids, nil
}

func (m *memTraderRepo) DeleteByIDs(ctx context.Context, ids []uint64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := m.rows[id]; ok {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func (m *memTraderRepo) BulkInsert(ctx context.Context, rows []model.TraderStat) error {
	m.mu.Lock()
	m.insertCalls++
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	if m.failInserts > 0 {
		m.failInserts--
		m.inFlight--
		err := m.insertFailErr
		m.mu.Unlock()
		return err
	}
	for _, row := range rows {
		row.ID = m.nextID
		m.nextID++
		m.rows[row.ID] = row
	}
	m.inFlight--
	m.mu.Unlock()
	return nil
}

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.ChunkSize = 2
	cfg.MaxInFlight = 2
	cfg.DeletePageSize = 3
	cfg.Retry = RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Name: "test"}
	return cfg
}

func records(n int) []RawTraderRecord {
	out := make([]RawTraderRecord, n)
	for i := range out {
		out[i] = RawTraderRecord{
			Address: string(rune('a'+i%26)) + string(rune('0'+i/26)),
			Date:    "2024-03-01",
			Volume:  "100",
		}
	}
	return out
}

func TestRunReplacesAllRows(t *testing.T) {
	repo := newMemTraderRepo()
	p := NewPipeline(repo, fastConfig(), testLogger())

	report, err := p.Run(context.Background(), "photon", records(7))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if report.State != StateDone {
		t.Errorf("Expected Done state, got %s", report.State)
	}
	if report.RowsInserted != 7 {
		t.Errorf("Expected 7 inserted, got %d", report.RowsInserted)
	}
	count, _ := repo.Count(context.Background(), "photon")
	if count != 7 {
		t.Errorf("Expected 7 stored rows, got %d", count)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	repo := newMemTraderRepo()
	p := NewPipeline(repo, fastConfig(), testLogger())
	input := records(9)

	first, err := p.Run(context.Background(), "photon", input)
	if err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	second, err := p.Run(context.Background(), "photon", input)
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	if second.RowsDeleted != first.RowsInserted {
		t.Errorf("Expected second run to delete %d rows, deleted %d", first.RowsInserted, second.RowsDeleted)
	}
	count, _ := repo.Count(context.Background(), "photon")
	if count != 9 {
		t.Errorf("Expected 9 rows after re-run, got %d", count)
	}
	volume, _ := repo.TotalVolume(context.Background(), "photon")
	if volume != 900 {
		t.Errorf("Expected volume 900 after re-run, got %v", volume)
	}
}

func TestDuplicateAddressesSummedNotStoredTwice(t *testing.T) {
	repo := newMemTraderRepo()
	p := NewPipeline(repo, fastConfig(), testLogger())

	report, err := p.Run(context.Background(), "photon", []RawTraderRecord{
		{Address: "whale", Date: "2024-03-01", Volume: "100"},
		{Address: "whale", Date: "2024-03-01", Volume: "50"},
		{Address: "whale", Date: "2024-03-02", Volume: "10"},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if report.RowsInserted != 2 {
		t.Errorf("Expected intra-day duplicates merged to 2 rows, got %d", report.RowsInserted)
	}
	volume, _ := repo.TotalVolume(context.Background(), "photon")
	if volume != 160 {
		t.Errorf("Expected summed volume 160, got %v", volume)
	}
}

func TestBadDateAbortsJob(t *testing.T) {
	repo := newMemTraderRepo()
	p := NewPipeline(repo, fastConfig(), testLogger())

	report, err := p.Run(context.Background(), "photon", []RawTraderRecord{
		{Address: "a", Date: "2024-03-01", Volume: "1"},
		{Address: "b", Date: "not-a-date", Volume: "2"},
	})
	if err == nil {
		t.Fatal("Expected job to abort on bad date")
	}
	var integrity *errs.DataIntegrityError
	if !errors.As(err, &integrity) {
		t.Errorf("Expected DataIntegrityError, got %v", err)
	}
	if report.State != StateFailed {
		t.Errorf("Expected Failed state, got %s", report.State)
	}
	if report.RowsInserted != 0 {
		t.Errorf("Expected no inserts after abort in prepare, got %d", report.RowsInserted)
	}
}

func TestScientificNotationVolumeAccepted(t *testing.T) {
	repo := newMemTraderRepo()
	p := NewPipeline(repo, fastConfig(), testLogger())

	_, err := p.Run(context.Background(), "photon", []RawTraderRecord{
		{Address: "a", Date: "2024-03-01", Volume: "1.5e+06"},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	volume, _ := repo.TotalVolume(context.Background(), "photon")
	if volume != 1_500_000 {
		t.Errorf("Expected 1.5M volume, got %v", volume)
	}
}

func TestTransientInsertFailureRetried(t *testing.T) {
	repo := newMemTraderRepo()
	repo.failInserts = 2
	repo.insertFailErr = errors.New("connection refused")
	p := NewPipeline(repo, fastConfig(), testLogger())

	report, err := p.Run(context.Background(), "photon", records(2))
	if err != nil {
		t.Fatalf("Expected retries to recover, got %v", err)
	}
	if report.RowsInserted != 2 {
		t.Errorf("Expected 2 inserted after retry, got %d", report.RowsInserted)
	}
	if repo.insertCalls != 3 {
		t.Errorf("Expected 3 insert attempts, got %d", repo.insertCalls)
	}
}

func TestNonTransientFailureFailsJob(t *testing.T) {
	repo := newMemTraderRepo()
	repo.failInserts = 1
	repo.insertFailErr = errors.New("duplicate key value violates unique constraint")
	p := NewPipeline(repo, fastConfig(), testLogger())

	report, err := p.Run(context.Background(), "photon", records(2))
	if err == nil {
		t.Fatal("Expected job failure on non-transient error")
	}
	if report.State != StateFailed {
		t.Errorf("Expected Failed state, got %s", report.State)
	}
	if repo.insertCalls != 1 {
		t.Errorf("Expected no retries for non-transient error, got %d attempts", repo.insertCalls)
	}
}

func TestExhaustedRetriesFailJob(t *testing.T) {
	repo := newMemTraderRepo()
	repo.failInserts = 100
	repo.insertFailErr = errors.New("timeout")
	p := NewPipeline(repo, fastConfig(), testLogger())

	_, err := p.Run(context.Background(), "photon", records(2))
	if err == nil {
		t.Fatal("Expected failure after exhausting retries")
	}
	if repo.insertCalls != 3 {
		t.Errorf("Expected exactly 3 attempts for one chunk, got %d", repo.insertCalls)
	}
}

func TestConcurrencyWindowBounded(t *testing.T) {
	repo := newMemTraderRepo()
	cfg := fastConfig()
	cfg.MaxInFlight = 2
	p := NewPipeline(repo, cfg, testLogger())

	if _, err := p.Run(context.Background(), "photon", records(20)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if repo.maxInFlight > 2 {
		t.Errorf("Expected at most 2 concurrent inserts, observed %d", repo.maxInFlight)
	}
}

func TestCancelledJobStopsScheduling(t *testing.T) {
	repo := newMemTraderRepo()
	p := NewPipeline(repo, fastConfig(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := p.Run(ctx, "photon", records(10))
	if err == nil {
		t.Fatal("Expected cancelled job to fail")
	}
	if report.State != StateFailed {
		t.Errorf("Expected Failed state, got %s", report.State)
	}
}

func TestChunkRows(t *testing.T) {
	rows := make([]model.TraderStat, 25)
	chunks := chunkRows(rows, 10)
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[2]) != 5 {
		t.Errorf("Expected last chunk of 5, got %d", len(chunks[2]))
	}
	if chunkRows(nil, 10) != nil {
		t.Error("Expected nil chunks for empty input")
	}
}

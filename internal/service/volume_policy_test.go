package service

import (
	"context"
	"testing"
	"time"

	"github.com/sairaghavaa/sol-analytics/internal/cache"
	"github.com/sairaghavaa/sol-analytics/internal/model"
)

func ptr(f float64) *float64 { return &f }

func TestDisplayVolumePrefersProjected(t *testing.T) {
	policy := NewVolumePolicy()

	if got := policy.DisplayVolume(model.CategoryWebDEX, 100, ptr(120)); got != 120 {
		t.Errorf("Expected projected 120, got %v", got)
	}
	if got := policy.DisplayVolume(model.CategoryWebDEX, 100, nil); got != 100 {
		t.Errorf("Expected actual 100 without projection, got %v", got)
	}
	if got := policy.DisplayVolume(model.CategoryWebDEX, 100, ptr(0)); got != 100 {
		t.Errorf("Expected actual 100 for zero projection, got %v", got)
	}
}

func TestMobileAppAlwaysUsesActual(t *testing.T) {
	policy := NewVolumePolicy()
	if got := policy.DisplayVolume(model.CategoryMobileApp, 100, ptr(500)); got != 100 {
		t.Errorf("Expected actual 100 despite projection, got %v", got)
	}
}

func TestDailyGrowthPrefersProjectedPair(t *testing.T) {
	policy := NewVolumePolicy()

	// Both days projected: projected-vs-projected.
	if got := policy.DailyGrowth(100, 100, ptr(220), ptr(200)); got != 0.1 {
		t.Errorf("Expected projected growth 0.1, got %v", got)
	}
	// Previous day has no projection: actual-vs-actual for that comparison.
	if got := policy.DailyGrowth(150, 100, ptr(999), nil); got != 0.5 {
		t.Errorf("Expected actual growth 0.5, got %v", got)
	}
	// Growth selection is independent of the display decision.
	if got := policy.DailyGrowth(150, 100, nil, ptr(200)); got != 0.5 {
		t.Errorf("Expected actual growth 0.5 when current projection missing, got %v", got)
	}
}

// fakeProjectedRepo serves projected rows from memory.
type fakeProjectedRepo struct {
	rows []model.ProjectedStat
}

func (f *fakeProjectedRepo) FetchProjected(ctx context.Context, protocols []string, from, to *time.Time) ([]model.ProjectedStat, error) {
	var out []model.ProjectedStat
	for _, row := range f.rows {
		for _, p := range protocols {
			if row.ProtocolName == p {
				out = append(out, row)
			}
		}
	}
	return out, nil
}

func (f *fakeProjectedRepo) UpsertProjected(ctx context.Context, rows []model.ProjectedStat) error {
	f.rows = append(f.rows, rows...)
	return nil
}

func TestDisplaySeriesMergesSignals(t *testing.T) {
	statRepo := &fakeStatRepo{rows: []model.ProtocolStat{
		solanaRow("photon", "2024-03-01", 100),
		solanaRow("photon", "2024-03-02", 200),
		solanaRow("photon", "2024-03-03", 400), // latest, excluded
	}}
	projRepo := &fakeProjectedRepo{rows: []model.ProjectedStat{
		{ProtocolName: "photon", Date: day("2024-03-02"), ProjectedVolumeUSD: 250},
	}}
	svc := NewDisplayVolumeService(statRepo, projRepo, NewVolumePolicy(), cache.New(30*time.Second), testLogger())

	points, err := svc.DisplaySeries(context.Background(), "photon", model.ScopePrivate)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("Expected 2 points (latest excluded), got %d", len(points))
	}

	// Newest first: 03-02 then 03-01.
	if points[0].VolumeUSD != 250 || !points[0].Projected {
		t.Errorf("Expected projected 250 on 03-02, got %+v", points[0])
	}
	if points[1].VolumeUSD != 100 || points[1].Projected {
		t.Errorf("Expected actual 100 on 03-01, got %+v", points[1])
	}
	// 03-01 has no projection, so the 03-02 growth comparison is
	// actual-vs-actual: (200-100)/100.
	if points[0].Growth != 1 {
		t.Errorf("Expected growth 1, got %v", points[0].Growth)
	}
}

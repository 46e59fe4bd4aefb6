package semindex

import (
	"context"
	"errors"
	"testing"

	"liftbot/domain/abtest"
	"liftbot/domain/core"
	"liftbot/internal/config"
)

// constEmbedder gives every text the same vector, making the text space a
// constant so tests can isolate filter and numeric-space behavior.
type constEmbedder struct{}

func (constEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("upstream unavailable")
}

func testIndexConfig() config.IndexConfig {
	return config.IndexConfig{
		ExperimentNegativeFilter: 0.8,
		RegionNegativeFilter:     0.7,
		StoreTypeNegativeFilter:  0.7,
		UsersMax:                 500,
		ConversionsMax:           50,
		RevenueMax:               1000,
		ConversionRateMax:        20,
		DescriptionWeight:        1.0,
		ExperimentWeight:         0.9,
		RegionWeight:             0.8,
		StoreTypeWeight:          0.8,
		UsersWeight:              0.6,
		ConversionsWeight:        0.8,
		RevenueWeight:            0.8,
		ConversionRateWeight:     0.9,
		EmbedWorkers:             2,
	}
}

func testRecord(experiment, storeID, region, storeType string, row, users, conversions int, revenue, rate float64) abtest.Record {
	rec := abtest.Record{
		ID:             core.NewRecordID(experiment, storeID, row),
		Experiment:     experiment,
		StoreID:        storeID,
		Region:         region,
		StoreType:      storeType,
		Users:          users,
		Conversions:    conversions,
		Revenue:        revenue,
		ConversionRate: rate,
	}
	rec.Description = abtest.Describe(rec)
	return rec
}

func testRecords() []abtest.Record {
	return []abtest.Record{
		testRecord("Control", "T_Control_001", "Norte", "Mall", 0, 100, 10, 1000, 10),
		testRecord("Control", "T_Control_002", "Sur", "Street", 1, 200, 30, 100, 15),
		testRecord("Experimento_A", "T_Experimento_A_001", "Este", "Outlet", 2, 150, 12, 600, 8),
	}
}

func builtIndex(t *testing.T) *Index {
	t.Helper()
	ix := New(testIndexConfig(), constEmbedder{})
	if err := ix.Build(context.Background(), testRecords()); err != nil {
		t.Fatalf("build index: %v", err)
	}
	return ix
}

func TestBuildIndexesAllRecords(t *testing.T) {
	ix := builtIndex(t)
	if ix.Len() != 3 {
		t.Errorf("expected 3 entries, got %d", ix.Len())
	}
}

func TestBuildPropagatesEmbeddingFailure(t *testing.T) {
	ix := New(testIndexConfig(), failingEmbedder{})
	err := ix.Build(context.Background(), testRecords())
	if !errors.Is(err, core.ErrEmbedding) {
		t.Fatalf("expected embedding error, got %v", err)
	}
}

func TestQueryFiltersRestrictCandidates(t *testing.T) {
	ix := builtIndex(t)

	hits, err := ix.Query(context.Background(), "tiendas control", Params{
		Filters: map[string]string{"experimento": "Control"},
		Limit:   10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 control hits, got %d", len(hits))
	}
	for _, hit := range hits {
		if hit.Score < 0 || hit.Score > 1 {
			t.Errorf("score outside [0,1]: %f", hit.Score)
		}
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Errorf("hits not in descending score order: %v", hits)
		}
	}
}

func TestQueryTiesKeepInsertionOrder(t *testing.T) {
	ix := builtIndex(t)

	// Constant embedder and no filters: every entry scores the same.
	hits, err := ix.Query(context.Background(), "cualquier consulta", Params{Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"Control_T_Control_001_0",
		"Control_T_Control_002_1",
		"Experimento_A_T_Experimento_A_001_2",
	}
	if len(hits) != len(want) {
		t.Fatalf("expected %d hits, got %d", len(want), len(hits))
	}
	for i, hit := range hits {
		if hit.RecordID.String() != want[i] {
			t.Errorf("hit %d: want %s, got %s", i, want[i], hit.RecordID)
		}
	}
}

func TestQueryNumericTargetRanksProximity(t *testing.T) {
	ix := builtIndex(t)

	hits, err := ix.Query(context.Background(), "revenue alto", Params{
		NumericTargets: map[string]float64{"revenue": 1000},
		Limit:          3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits[0].RecordID.String() != "Control_T_Control_001_0" {
		t.Errorf("record closest to the revenue target should rank first, got %s", hits[0].RecordID)
	}
	if last := hits[len(hits)-1].RecordID.String(); last != "Control_T_Control_002_1" {
		t.Errorf("record farthest from the target should rank last, got %s", last)
	}
}

func TestQueryRejectsUnknownFields(t *testing.T) {
	ix := builtIndex(t)

	_, err := ix.Query(context.Background(), "q", Params{
		Filters: map[string]string{"ciudad": "Madrid"},
	})
	if !errors.Is(err, core.ErrInvalidField) {
		t.Fatalf("expected invalid field error, got %v", err)
	}

	_, err = ix.Query(context.Background(), "q", Params{
		NumericTargets: map[string]float64{"margen": 10},
	})
	if !errors.Is(err, core.ErrInvalidField) {
		t.Fatalf("expected invalid field error, got %v", err)
	}
}

func TestQueryLimitTruncates(t *testing.T) {
	ix := builtIndex(t)

	hits, err := ix.Query(context.Background(), "q", Params{Limit: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("expected 1 hit, got %d", len(hits))
	}
}

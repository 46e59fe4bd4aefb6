package query

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"liftbot/domain/abtest"
	"liftbot/domain/core"
	"liftbot/internal/config"
	"liftbot/internal/semindex"
	"liftbot/internal/store"
)

type constEmbedder struct{}

func (constEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
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
		testRecord("Control", "T_Control_001", "Norte", "Mall", 0, 100, 10, 10, 10),
		testRecord("Control", "T_Control_002", "Sur", "Street", 1, 200, 30, 50, 15),
		testRecord("Experimento_A", "T_Experimento_A_001", "Este", "Outlet", 2, 150, 12, 30, 8),
		testRecord("Experimento_A", "T_Experimento_A_002", "Oeste", "Mall", 3, 120, 14, 50, 11),
	}
}

func testEngine(t *testing.T, records []abtest.Record) (*Engine, *store.RecordStore) {
	t.Helper()
	s, err := store.New(records)
	if err != nil {
		t.Fatalf("build store: %v", err)
	}
	ix := semindex.New(testIndexConfig(), constEmbedder{})
	if err := ix.Build(context.Background(), records); err != nil {
		t.Fatalf("build index: %v", err)
	}
	return New(s, ix, 5, 20), s
}

func TestSemanticSearchResolvesRealRecords(t *testing.T) {
	engine, s := testEngine(t, testRecords())

	results, err := engine.SemanticSearch(context.Background(), "tiendas en el norte", nil, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for _, res := range results {
		stored, err := s.Get(res.Record.ID)
		if err != nil {
			t.Fatalf("result carries an id the store does not know: %v", err)
		}
		if res.Record != stored {
			t.Errorf("result attributes diverge from the store: %+v vs %+v", res.Record, stored)
		}
		if res.Record.Users == 0 && res.Record.Revenue == 0 {
			t.Errorf("result looks like a placeholder record: %+v", res.Record)
		}
	}
}

func TestSemanticSearchDropsUnresolvableHits(t *testing.T) {
	records := testRecords()
	stored, err := store.New(records[:3])
	if err != nil {
		t.Fatalf("build store: %v", err)
	}
	// Index one record the store does not hold; its hit must be dropped,
	// never padded with fabricated attributes.
	ix := semindex.New(testIndexConfig(), constEmbedder{})
	if err := ix.Build(context.Background(), records); err != nil {
		t.Fatalf("build index: %v", err)
	}
	engine := New(stored, ix, 5, 20)

	results, err := engine.SemanticSearch(context.Background(), "todas las tiendas", nil, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 resolvable results, got %d", len(results))
	}
	for _, res := range results {
		if res.Record.ID == records[3].ID {
			t.Errorf("unresolvable hit leaked into results: %+v", res)
		}
	}
}

func TestFilterSearch(t *testing.T) {
	engine, _ := testEngine(t, testRecords())

	results, err := engine.FilterSearch(map[string]string{"experimento": "Control"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 control records, got %d", len(results))
	}
	for _, rec := range results {
		if !rec.IsControl() {
			t.Errorf("non-control record matched: %+v", rec)
		}
	}

	if _, err := engine.FilterSearch(map[string]string{"ciudad": "Madrid"}); !errors.Is(err, core.ErrInvalidField) {
		t.Errorf("expected invalid field error, got %v", err)
	}
}

func TestFilterSearchCap(t *testing.T) {
	var records []abtest.Record
	for i := range 10 {
		storeID := fmt.Sprintf("T_Control_%03d", i+1)
		records = append(records, testRecord("Control", storeID, "Norte", "Mall", i, 100, 10, 10, 10))
	}
	s, err := store.New(records)
	if err != nil {
		t.Fatalf("build store: %v", err)
	}
	ix := semindex.New(testIndexConfig(), constEmbedder{})
	if err := ix.Build(context.Background(), records); err != nil {
		t.Fatalf("build index: %v", err)
	}
	engine := New(s, ix, 5, 4)

	results, err := engine.FilterSearch(map[string]string{"experimento": "Control"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 4 {
		t.Errorf("expected the cap of 4 results, got %d", len(results))
	}
}

func TestTopPerformersStableTies(t *testing.T) {
	records := []abtest.Record{
		testRecord("Control", "T_Control_001", "Norte", "Mall", 0, 100, 10, 10, 10),
		testRecord("Control", "T_Control_002", "Sur", "Street", 1, 200, 30, 50, 15),
		testRecord("Experimento_A", "T_Experimento_A_001", "Este", "Outlet", 2, 150, 12, 30, 8),
		testRecord("Experimento_A", "T_Experimento_A_002", "Oeste", "Mall", 3, 120, 14, 50, 11),
	}
	engine, _ := testEngine(t, records)

	top, err := engine.TopPerformers("revenue", "desc", 3, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"T_Control_002", "T_Experimento_A_002", "T_Experimento_A_001"}
	if len(top) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(top))
	}
	for i, rec := range top {
		if rec.StoreID != want[i] {
			t.Errorf("rank %d: want %s, got %s", i, want[i], rec.StoreID)
		}
	}

	bottom, err := engine.TopPerformers("revenue", "asc", 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bottom[0].StoreID != "T_Control_001" {
		t.Errorf("ascending rank 0: want T_Control_001, got %s", bottom[0].StoreID)
	}
}

func TestTopPerformersRejectsUnknownInputs(t *testing.T) {
	engine, _ := testEngine(t, testRecords())

	if _, err := engine.TopPerformers("margen", "desc", 5, nil); !errors.Is(err, core.ErrInvalidMetric) {
		t.Errorf("expected invalid metric error, got %v", err)
	}
	if _, err := engine.TopPerformers("revenue", "sideways", 5, nil); !errors.Is(err, core.ErrInvalidMetric) {
		t.Errorf("expected invalid direction error, got %v", err)
	}
}

func TestExtractFilters(t *testing.T) {
	engine, _ := testEngine(t, testRecords())

	tests := []struct {
		query string
		want  map[string]string
	}{
		{"tiendas control en la región este", map[string]string{"experimento": "Control", "region": "Este"}},
		{"resultados del oeste", map[string]string{"region": "Oeste"}},
		{"tiendas tipo mall con experimento", map[string]string{"experimento": "Experimento_A", "tipo_tienda": "Mall"}},
		{"locales en la calle", map[string]string{"tipo_tienda": "Street"}},
		{"cómo va el negocio", map[string]string{}},
	}
	for _, tc := range tests {
		got := engine.ExtractFilters(tc.query)
		if len(got) != len(tc.want) {
			t.Errorf("%q: want %v, got %v", tc.query, tc.want, got)
			continue
		}
		for field, value := range tc.want {
			if got[field] != value {
				t.Errorf("%q: field %s: want %s, got %s", tc.query, field, value, got[field])
			}
		}
	}
}

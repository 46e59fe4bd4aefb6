package store

import (
	"testing"

	"liftbot/domain/abtest"
	"liftbot/domain/core"
)

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
		testRecord("Control", "T_Control_001", "Norte", "Mall", 0, 100, 10, 500, 10),
		testRecord("Control", "T_Control_002", "Sur", "Street", 1, 200, 30, 800, 15),
		testRecord("Experimento_A", "T_Experimento_A_001", "Este", "Outlet", 2, 150, 12, 600, 8),
	}
}

func TestNewRejectsDuplicateIDs(t *testing.T) {
	rec := testRecord("Control", "T_Control_001", "Norte", "Mall", 0, 100, 10, 500, 10)
	if _, err := New([]abtest.Record{rec, rec}); !core.IsDataFormatError(err) {
		t.Fatalf("expected data format error for duplicate ids, got %v", err)
	}
}

func TestGet(t *testing.T) {
	s, err := New(testRecords())
	if err != nil {
		t.Fatalf("build store: %v", err)
	}

	rec, err := s.Get(core.NewRecordID("Control", "T_Control_002", 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.StoreID != "T_Control_002" || rec.Users != 200 {
		t.Errorf("resolved wrong record: %+v", rec)
	}

	if _, err := s.Get(core.RecordID("missing_id_99")); !core.IsNotFoundError(err) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestFindByStoreID(t *testing.T) {
	s, err := New(testRecords())
	if err != nil {
		t.Fatalf("build store: %v", err)
	}

	rec, ok := s.FindByStoreID("T_Experimento_A_001")
	if !ok {
		t.Fatal("expected a match")
	}
	if rec.Experiment != "Experimento_A" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if _, ok := s.FindByStoreID("T_Control_999"); ok {
		t.Error("unexpected match for unknown store id")
	}
}

func TestFilterIsLazyAndRestartable(t *testing.T) {
	s, err := New(testRecords())
	if err != nil {
		t.Fatalf("build store: %v", err)
	}
	controls := s.Filter(func(r abtest.Record) bool { return r.IsControl() })

	// First pass stops early; the sequence must still replay in full.
	for range controls {
		break
	}

	var ids []string
	for rec := range controls {
		ids = append(ids, rec.StoreID)
	}
	if len(ids) != 2 || ids[0] != "T_Control_001" || ids[1] != "T_Control_002" {
		t.Errorf("expected both control records in insertion order, got %v", ids)
	}
}

func TestSummary(t *testing.T) {
	s, err := New(testRecords())
	if err != nil {
		t.Fatalf("build store: %v", err)
	}
	sum := s.Summary()

	if sum.TotalRecords != 3 {
		t.Errorf("total records: want 3, got %d", sum.TotalRecords)
	}
	if sum.TotalUsers != 450 || sum.TotalConversions != 52 {
		t.Errorf("unexpected totals: %+v", sum)
	}
	if sum.TotalRevenue != 1900 {
		t.Errorf("total revenue: want 1900, got %f", sum.TotalRevenue)
	}
	wantExperiments := []string{"Control", "Experimento_A"}
	for i, name := range wantExperiments {
		if sum.Experiments[i] != name {
			t.Errorf("experiments not in first-encountered order: %v", sum.Experiments)
		}
	}
	if want := (10.0 + 15.0 + 8.0) / 3; sum.AvgConversionRate != want {
		t.Errorf("avg conversion rate: want %f, got %f", want, sum.AvgConversionRate)
	}
}

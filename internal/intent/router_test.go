package intent

import (
	"strings"
	"testing"

	"liftbot/domain/abtest"
	"liftbot/domain/core"
	"liftbot/internal/store"
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

func testRouter(t *testing.T) *Router {
	t.Helper()
	records := []abtest.Record{
		testRecord("Control", "T_Control_001", "Norte", "Mall", 0, 100, 10, 500, 10),
		testRecord("Control", "T_Control_002", "Sur", "Street", 1, 150, 18, 700, 12),
		testRecord("Experimento_A", "T_Experimento_A_001", "Este", "Outlet", 2, 200, 30, 900, 15),
		testRecord("Experimento_B", "T_Experimento_B_001", "Oeste", "Mall", 3, 120, 12, 400, 10),
	}
	s, err := store.New(records)
	if err != nil {
		t.Fatalf("build store: %v", err)
	}
	return New(s, 15)
}

func TestClassify(t *testing.T) {
	r := testRouter(t)

	tests := []struct {
		query string
		want  Type
	}{
		{"Hola", Greeting},
		{"¿Cuántas tiendas hay en total?", CountQuery},
		{"¿Qué datos tienes disponibles?", DataInfo},
		{"Dame los datos de T_Control_001", StoreIDQuery},
		{"Analiza el impacto cultural en las ventas", Unknown},
	}
	for _, tc := range tests {
		if got := r.Classify(tc.query); got != tc.want {
			t.Errorf("%q: want %s, got %s", tc.query, tc.want, got)
		}
	}
}

func TestGreeting(t *testing.T) {
	r := testRouter(t)

	answer, handled := r.Route("Hola")
	if !handled {
		t.Fatal("short greeting should be handled")
	}
	if !strings.Contains(answer, "Hola") {
		t.Errorf("unexpected greeting answer: %q", answer)
	}
}

func TestLongGreetingFallsThrough(t *testing.T) {
	r := testRouter(t)

	// Carries a real question; must reach the full pipeline.
	if _, handled := r.Route("Hola, quiero ver el análisis completo de conversiones"); handled {
		t.Error("long greeting with content must not be short-circuited")
	}
}

func TestCountUsersForGroup(t *testing.T) {
	r := testRouter(t)

	answer, handled := r.Route("¿Cuántos usuarios tiene el grupo Control?")
	if !handled {
		t.Fatal("count query should be handled")
	}
	if !strings.Contains(answer, "250") {
		t.Errorf("expected the exact control user total 250, got %q", answer)
	}
}

func TestCountStoresForExperiment(t *testing.T) {
	r := testRouter(t)

	answer, handled := r.Route("¿Cuántas tiendas tiene el experimento A?")
	if !handled {
		t.Fatal("count query should be handled")
	}
	if !strings.Contains(answer, "Experimento A") || !strings.Contains(answer, "1") {
		t.Errorf("unexpected answer: %q", answer)
	}
}

func TestCountTotals(t *testing.T) {
	r := testRouter(t)

	answer, handled := r.Route("¿Cuántas conversiones hay en total?")
	if !handled {
		t.Fatal("count query should be handled")
	}
	if !strings.Contains(answer, "70") {
		t.Errorf("expected the total of 70 conversiones, got %q", answer)
	}
}

func TestStoreIDLookup(t *testing.T) {
	r := testRouter(t)

	answer, handled := r.Route("Muéstrame los datos de la tienda T_Experimento_A_001")
	if !handled {
		t.Fatal("store id query should be handled")
	}
	for _, want := range []string{"T_Experimento_A_001", "Este", "Outlet", "200"} {
		if !strings.Contains(answer, want) {
			t.Errorf("answer missing %q: %q", want, answer)
		}
	}
}

func TestStoreIDUnknown(t *testing.T) {
	r := testRouter(t)

	answer, handled := r.Route("Dame los datos de T_Control_999")
	if !handled {
		t.Fatal("store id query should be handled")
	}
	if !strings.Contains(answer, "No se encontraron datos") {
		t.Errorf("expected a not-found answer, got %q", answer)
	}
}

func TestDataInfo(t *testing.T) {
	r := testRouter(t)

	answer, handled := r.Route("¿Qué datos tienes disponibles?")
	if !handled {
		t.Fatal("data info query should be handled")
	}
	for _, want := range []string{"4 registros", "Control", "Experimento_A", "Norte", "Mall"} {
		if !strings.Contains(answer, want) {
			t.Errorf("answer missing %q: %q", want, answer)
		}
	}
}

func TestUnknownQueryFallsThrough(t *testing.T) {
	r := testRouter(t)

	if _, handled := r.Route("Analiza el impacto cultural en las ventas"); handled {
		t.Error("unknown queries must fall through to the pipeline")
	}
}

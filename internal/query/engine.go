package query

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"

	"liftbot/domain/abtest"
	"liftbot/domain/core"
	"liftbot/internal/semindex"
	"liftbot/internal/store"
)

// Engine executes semantic search, attribute filtering and performer ranking.
// Its defining responsibility: an index hit is never returned without being
// resolved to a real, fully-populated record from the store.
type Engine struct {
	store        *store.RecordStore
	index        *semindex.Index
	defaultLimit int
	filterCap    int
}

// ScoredRecord pairs a resolved record with its retrieval score.
type ScoredRecord struct {
	Record abtest.Record `json:"record"`
	Score  float64       `json:"score"`
}

// New creates a query engine over the given store and index.
func New(s *store.RecordStore, ix *semindex.Index, defaultLimit, filterCap int) *Engine {
	if defaultLimit <= 0 {
		defaultLimit = 5
	}
	if filterCap <= 0 {
		filterCap = 20
	}
	return &Engine{store: s, index: ix, defaultLimit: defaultLimit, filterCap: filterCap}
}

// SemanticSearch runs the index query and resolves every hit through the
// record store. A hit whose id the store cannot resolve is logged and
// dropped; it is never padded with placeholder attributes.
func (e *Engine) SemanticSearch(ctx context.Context, text string, filters map[string]string, limit int) ([]ScoredRecord, error) {
	if limit <= 0 {
		limit = e.defaultLimit
	}
	hits, err := e.index.Query(ctx, text, semindex.Params{Filters: filters, Limit: limit})
	if err != nil {
		return nil, err
	}

	results := make([]ScoredRecord, 0, len(hits))
	for _, hit := range hits {
		rec, err := e.store.Get(hit.RecordID)
		if err != nil {
			log.Printf("[QueryEngine] dropping hit: %v", core.NewResolutionError(hit.RecordID))
			continue
		}
		results = append(results, ScoredRecord{Record: rec, Score: hit.Score})
	}
	return results, nil
}

// FilterSearch returns records matching every field equality exactly,
// bypassing similarity scoring. The result is capped to bound response size.
func (e *Engine) FilterSearch(filters map[string]string) ([]abtest.Record, error) {
	pred, err := buildPredicate(filters)
	if err != nil {
		return nil, err
	}

	var results []abtest.Record
	for rec := range e.store.Filter(pred) {
		results = append(results, rec)
		if len(results) >= e.filterCap {
			break
		}
	}
	return results, nil
}

// TopPerformers ranks records by one metric, reading the authoritative store
// rather than the approximate similarity space. The sort is stable, so ties
// keep their original relative order. Unknown metrics or directions are
// rejected, never silently replaced.
func (e *Engine) TopPerformers(metric, direction string, limit int, filters map[string]string) ([]abtest.Record, error) {
	accessor, err := abtest.Metric(metric)
	if err != nil {
		return nil, err
	}

	var descending bool
	switch strings.ToLower(direction) {
	case "desc":
		descending = true
	case "asc":
		descending = false
	default:
		return nil, fmt.Errorf("%w: direction %q (want asc or desc)", core.ErrInvalidMetric, direction)
	}

	pred, err := buildPredicate(filters)
	if err != nil {
		return nil, err
	}
	var candidates []abtest.Record
	for rec := range e.store.Filter(pred) {
		candidates = append(candidates, rec)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if descending {
			return accessor(candidates[i]) > accessor(candidates[j])
		}
		return accessor(candidates[i]) < accessor(candidates[j])
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func buildPredicate(filters map[string]string) (func(abtest.Record) bool, error) {
	type check struct {
		accessor abtest.FieldAccessor
		want     string
	}
	checks := make([]check, 0, len(filters))
	for field, want := range filters {
		accessor, err := abtest.Field(field)
		if err != nil {
			return nil, err
		}
		checks = append(checks, check{accessor: accessor, want: want})
	}
	return func(r abtest.Record) bool {
		for _, c := range checks {
			if c.accessor(r) != c.want {
				return false
			}
		}
		return true
	}, nil
}

var tokenSplit = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// filterRules map keyword presence to a field equality. Per field, the first
// matching rule wins; later rules for the same field are ignored.
var filterRules = []struct {
	field    string
	keywords []string
	value    string
}{
	{"experimento", []string{"control"}, "Control"},
	{"experimento", []string{"experimento", "variante"}, "Experimento_A"},
	{"region", []string{"este"}, "Este"},
	{"region", []string{"norte"}, "Norte"},
	{"region", []string{"sur"}, "Sur"},
	{"region", []string{"oeste"}, "Oeste"},
	{"tipo_tienda", []string{"mall"}, "Mall"},
	{"tipo_tienda", []string{"street", "calle"}, "Street"},
	{"tipo_tienda", []string{"outlet"}, "Outlet"},
}

// ExtractFilters derives field equalities from the query text with a small
// deterministic lexical rule set. Matching is token-based, so "oeste" does
// not trigger the "este" rule. Returns an empty map when nothing matches.
func (e *Engine) ExtractFilters(text string) map[string]string {
	tokens := map[string]bool{}
	for _, tok := range tokenSplit.Split(strings.ToLower(text), -1) {
		if tok != "" {
			tokens[tok] = true
		}
	}

	filters := map[string]string{}
	for _, rule := range filterRules {
		if _, done := filters[rule.field]; done {
			continue
		}
		for _, kw := range rule.keywords {
			if tokens[kw] {
				filters[rule.field] = rule.value
				break
			}
		}
	}
	return filters
}

package semindex

import (
	"context"
	"fmt"
	"log"
	"sort"

	"liftbot/domain/abtest"
	"liftbot/domain/core"
	"liftbot/internal/config"
	"liftbot/ports"

	"golang.org/x/sync/errgroup"
)

// Entry is the indexed representation of one record. It references the
// record by id only; attributes are always fetched fresh from the record
// store at resolution time, never served from the index.
type Entry struct {
	RecordID     core.RecordID
	Categoricals map[string]string
	Numerics     map[string]float64 // normalized into [0,1]
	Embedding    []float32          // L2-normalized description embedding
}

// Hit is one scored index match. Scores are bounded to [0,1] and comparable
// across queries.
type Hit struct {
	RecordID core.RecordID `json:"record_id"`
	Score    float64       `json:"score"`
}

// Params tunes one index query.
type Params struct {
	// Filters restrict candidates to exact categorical equality before any
	// scoring happens.
	Filters map[string]string
	// NumericTargets engage the numeric proximity spaces against raw target
	// values, e.g. revenue close to 800.
	NumericTargets map[string]float64
	Limit          int
}

// Index is the composite similarity index: categorical spaces, numeric
// proximity spaces and one text embedding space over the record description.
// Build is a one-time bulk operation; the index is rebuilt from scratch when
// the dataset changes and is immutable in between.
type Index struct {
	embedder    ports.Embedder
	textWeight  float64
	workers     int
	categorical map[string]CategoricalSpace
	numeric     map[string]NumberSpace
	entries     []Entry
}

// New creates an empty index with the configured spaces.
func New(cfg config.IndexConfig, embedder ports.Embedder) *Index {
	catSpaces, numSpaces := buildSpaces(cfg)
	ix := &Index{
		embedder:    embedder,
		textWeight:  cfg.DescriptionWeight,
		workers:     cfg.EmbedWorkers,
		categorical: make(map[string]CategoricalSpace, len(catSpaces)),
		numeric:     make(map[string]NumberSpace, len(numSpaces)),
	}
	for _, s := range catSpaces {
		ix.categorical[s.Name] = s
	}
	for _, s := range numSpaces {
		ix.numeric[s.Name] = s
	}
	return ix
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Build indexes the full record set, replacing any previous contents.
// Description embedding runs with bounded parallelism; entry order matches
// record insertion order so ties stay deterministic.
func (ix *Index) Build(ctx context.Context, records []abtest.Record) error {
	entries := make([]Entry, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)
	for i, rec := range records {
		g.Go(func() error {
			vec, err := ix.embedder.Embed(gctx, rec.Description)
			if err != nil {
				return fmt.Errorf("%w: record %s: %v", core.ErrEmbedding, rec.ID, err)
			}
			normalizeL2InPlace(vec)
			entries[i] = ix.buildEntry(rec, vec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	ix.entries = entries
	log.Printf("[SemanticIndex] Indexed %d records across %d spaces",
		len(entries), len(ix.categorical)+len(ix.numeric)+1)
	return nil
}

func (ix *Index) buildEntry(rec abtest.Record, embedding []float32) Entry {
	entry := Entry{
		RecordID:     rec.ID,
		Categoricals: make(map[string]string, len(ix.categorical)),
		Numerics:     make(map[string]float64, len(ix.numeric)),
		Embedding:    embedding,
	}
	for name, space := range ix.categorical {
		entry.Categoricals[name] = space.Value(rec)
	}
	for name, space := range ix.numeric {
		entry.Numerics[name] = space.Normalize(space.Value(rec))
	}
	return entry
}

// Query scores every candidate entry against the query text and optional
// numeric targets, after applying the categorical filters. Results are
// ordered by descending score, ties broken by record insertion order, and
// truncated to Limit.
func (ix *Index) Query(ctx context.Context, text string, p Params) ([]Hit, error) {
	if err := ix.validateParams(p); err != nil {
		return nil, err
	}

	queryVec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", core.ErrEmbedding, err)
	}
	normalizeL2InPlace(queryVec)

	hits := make([]Hit, 0, len(ix.entries))
	for _, entry := range ix.entries {
		if !ix.matchesFilters(entry, p.Filters) {
			continue
		}
		hits = append(hits, Hit{RecordID: entry.RecordID, Score: ix.score(entry, queryVec, p)})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if p.Limit > 0 && len(hits) > p.Limit {
		hits = hits[:p.Limit]
	}
	return hits, nil
}

func (ix *Index) validateParams(p Params) error {
	var known []string
	for name := range ix.categorical {
		known = append(known, name)
	}
	sort.Strings(known)
	for field := range p.Filters {
		if _, ok := ix.categorical[field]; !ok {
			return core.NewInvalidFieldError(field, known)
		}
	}
	var knownNum []string
	for name := range ix.numeric {
		knownNum = append(knownNum, name)
	}
	sort.Strings(knownNum)
	for field := range p.NumericTargets {
		if _, ok := ix.numeric[field]; !ok {
			return core.NewInvalidFieldError(field, knownNum)
		}
	}
	return nil
}

func (ix *Index) matchesFilters(entry Entry, filters map[string]string) bool {
	for field, want := range filters {
		if entry.Categoricals[field] != want {
			return false
		}
	}
	return true
}

// score combines the engaged spaces into one weighted average in [0,1].
// The text space is always engaged; a categorical space participates when a
// filter names it, a numeric space when a target names it.
func (ix *Index) score(entry Entry, queryVec []float32, p Params) float64 {
	scoreSum := cosineSimilarity01(queryVec, entry.Embedding) * ix.textWeight
	weightSum := ix.textWeight

	for field, want := range p.Filters {
		space := ix.categorical[field]
		scoreSum += space.Similarity(entry.Categoricals[field], want) * space.Weight
		weightSum += space.Weight
	}
	for field, target := range p.NumericTargets {
		space := ix.numeric[field]
		scoreSum += space.Similarity(entry.Numerics[field], space.Normalize(target)) * space.Weight
		weightSum += space.Weight
	}

	if weightSum == 0 {
		return 0
	}
	return scoreSum / weightSum
}

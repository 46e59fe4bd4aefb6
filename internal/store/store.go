package store

import (
	"iter"

	"liftbot/domain/abtest"
	"liftbot/domain/core"
)

// RecordStore holds the full dataset in memory. It is immutable after
// construction and safe to share across concurrent pipeline instances.
type RecordStore struct {
	records []abtest.Record
	byID    map[core.RecordID]int
	byStore map[string]int
	summary abtest.DatasetSummary
}

// New builds a store from loaded records. Duplicate record ids violate the
// dataset invariant and are rejected.
func New(records []abtest.Record) (*RecordStore, error) {
	s := &RecordStore{
		records: records,
		byID:    make(map[core.RecordID]int, len(records)),
		byStore: make(map[string]int, len(records)),
	}
	for i, rec := range records {
		if _, dup := s.byID[rec.ID]; dup {
			return nil, core.NewDataFormatError("duplicate record id " + rec.ID.String())
		}
		s.byID[rec.ID] = i
		if _, seen := s.byStore[rec.StoreID]; !seen {
			s.byStore[rec.StoreID] = i
		}
	}
	s.summary = buildSummary(records)
	return s, nil
}

// Len returns the number of records.
func (s *RecordStore) Len() int {
	return len(s.records)
}

// All returns every record in insertion order. Callers must treat the slice
// as read-only.
func (s *RecordStore) All() []abtest.Record {
	return s.records
}

// Get resolves a record id to its record.
func (s *RecordStore) Get(id core.RecordID) (abtest.Record, error) {
	i, ok := s.byID[id]
	if !ok {
		return abtest.Record{}, core.NewNotFoundError("record", id.String())
	}
	return s.records[i], nil
}

// FindByStoreID returns the first record for a store identifier.
func (s *RecordStore) FindByStoreID(storeID string) (abtest.Record, bool) {
	i, ok := s.byStore[storeID]
	if !ok {
		return abtest.Record{}, false
	}
	return s.records[i], true
}

// Filter returns a lazy, restartable sequence of records matching pred, in
// insertion order.
func (s *RecordStore) Filter(pred func(abtest.Record) bool) iter.Seq[abtest.Record] {
	return func(yield func(abtest.Record) bool) {
		for _, rec := range s.records {
			if !pred(rec) {
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// Summary returns the dataset-wide summary computed at construction.
func (s *RecordStore) Summary() abtest.DatasetSummary {
	return s.summary
}

func buildSummary(records []abtest.Record) abtest.DatasetSummary {
	sum := abtest.DatasetSummary{TotalRecords: len(records)}
	seenExp := map[string]bool{}
	seenRegion := map[string]bool{}
	seenType := map[string]bool{}

	var rateTotal float64
	for _, rec := range records {
		if !seenExp[rec.Experiment] {
			seenExp[rec.Experiment] = true
			sum.Experiments = append(sum.Experiments, rec.Experiment)
		}
		if !seenRegion[rec.Region] {
			seenRegion[rec.Region] = true
			sum.Regions = append(sum.Regions, rec.Region)
		}
		if !seenType[rec.StoreType] {
			seenType[rec.StoreType] = true
			sum.StoreTypes = append(sum.StoreTypes, rec.StoreType)
		}
		sum.TotalUsers += rec.Users
		sum.TotalConversions += rec.Conversions
		sum.TotalRevenue += rec.Revenue
		rateTotal += rec.ConversionRate
	}
	if len(records) > 0 {
		sum.AvgConversionRate = rateTotal / float64(len(records))
	}
	return sum
}

package analytics

import (
	"fmt"
	"log"

	"liftbot/domain/abtest"
	"liftbot/domain/core"
	"liftbot/internal/store"

	"github.com/montanaflynn/stats"
)

// Analyzer computes experiment lift and significance for an arbitrary number
// of variants against one control group. It is stateless; every Analyze call
// recomputes from the store.
type Analyzer struct {
	store       *store.RecordStore
	controlName string
}

// NewAnalyzer creates an analyzer comparing every non-control group against
// controlName.
func NewAnalyzer(s *store.RecordStore, controlName string) *Analyzer {
	if controlName == "" {
		controlName = abtest.ControlGroup
	}
	return &Analyzer{store: s, controlName: controlName}
}

// Analyze produces the full report: per-group metrics, lifts, significance
// tests, and segment breakdowns by region and store type. A group whose
// significance test lacks samples is reported with the reason and does not
// suppress the remaining groups.
func (a *Analyzer) Analyze() (*abtest.AnalysisReport, error) {
	groupNames, groups := a.partitionByExperiment()

	control, ok := groups[a.controlName]
	if !ok || len(control) == 0 {
		return nil, fmt.Errorf("%w: expected group %q", core.ErrNoControlGroup, a.controlName)
	}

	report := &abtest.AnalysisReport{
		ControlName: a.controlName,
		Control:     groupMetrics(control),
	}

	controlRates := conversionRates(control)
	for _, name := range groupNames {
		if name == a.controlName {
			continue
		}
		records := groups[name]
		if len(records) == 0 {
			continue
		}

		metrics := groupMetrics(records)
		result := abtest.GroupResult{
			Name:           name,
			Metrics:        metrics,
			ConversionLift: lift(metrics.AvgConversionRate, report.Control.AvgConversionRate),
			RevenueLift:    lift(metrics.TotalRevenue, report.Control.TotalRevenue),
		}

		sig, err := a.significance(controlRates, records, report.Control, metrics)
		if err != nil {
			log.Printf("[Analytics] significance test skipped for %s: %v", name, err)
			result.SignificanceErr = err.Error()
		} else {
			result.Significance = sig
		}
		report.Groups = append(report.Groups, result)
	}

	report.Regional = a.segmentBreakdown(groupNames, groups, func(r abtest.Record) string { return r.Region })
	report.StoreTypes = a.segmentBreakdown(groupNames, groups, func(r abtest.Record) string { return r.StoreType })
	report.Summary = buildSummary(report)

	return report, nil
}

func (a *Analyzer) significance(controlRates []float64, records []abtest.Record,
	controlMetrics, metrics abtest.GroupMetrics) (*abtest.SignificanceResult, error) {

	tRes, err := StudentTTest(controlRates, conversionRates(records))
	if err != nil {
		return nil, err
	}
	chiRes, err := ChiSquare2x2(
		controlMetrics.TotalConversions, controlMetrics.TotalUsers,
		metrics.TotalConversions, metrics.TotalUsers,
	)
	if err != nil {
		return nil, err
	}
	return &abtest.SignificanceResult{
		TTest:              tRes,
		ChiSquare:          chiRes,
		OverallSignificant: tRes.Significant && chiRes.Significant,
	}, nil
}

// partitionByExperiment splits records by group, keeping first-encountered
// group order for deterministic reports.
func (a *Analyzer) partitionByExperiment() ([]string, map[string][]abtest.Record) {
	var names []string
	groups := make(map[string][]abtest.Record)
	for _, rec := range a.store.All() {
		if _, seen := groups[rec.Experiment]; !seen {
			names = append(names, rec.Experiment)
		}
		groups[rec.Experiment] = append(groups[rec.Experiment], rec)
	}
	return names, groups
}

// segmentBreakdown compares control vs each non-control group within every
// distinct segment value. Segments lacking a control side or an experiment
// side are omitted entirely.
func (a *Analyzer) segmentBreakdown(groupNames []string, groups map[string][]abtest.Record,
	segment func(abtest.Record) string) []abtest.SegmentResult {

	var values []string
	seen := map[string]bool{}
	for _, rec := range a.store.All() {
		if v := segment(rec); !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}

	var results []abtest.SegmentResult
	for _, value := range values {
		control := filterBySegment(groups[a.controlName], segment, value)
		if len(control) == 0 {
			continue
		}
		controlCR := meanConversionRate(control)
		controlRevenue := totalRevenue(control)

		for _, name := range groupNames {
			if name == a.controlName {
				continue
			}
			subset := filterBySegment(groups[name], segment, value)
			if len(subset) == 0 {
				continue
			}
			cr := meanConversionRate(subset)
			results = append(results, abtest.SegmentResult{
				Segment:                  value,
				Group:                    name,
				ControlConversionRate:    controlCR,
				ExperimentConversionRate: cr,
				Lift:                     lift(cr, controlCR),
				ControlRevenue:           controlRevenue,
				ExperimentRevenue:        totalRevenue(subset),
				ControlSamples:           len(control),
				ExperimentSamples:        len(subset),
			})
		}
	}
	return results
}

// lift is the percentage change relative to control. Defined as 0 when the
// control baseline is 0; that avoids the division, it is not a statistical
// claim.
func lift(experiment, control float64) float64 {
	if control == 0 {
		return 0
	}
	return (experiment - control) / control * 100
}

func groupMetrics(records []abtest.Record) abtest.GroupMetrics {
	m := abtest.GroupMetrics{Records: len(records)}
	for _, rec := range records {
		m.TotalUsers += rec.Users
		m.TotalConversions += rec.Conversions
		m.TotalRevenue += rec.Revenue
	}

	rates := conversionRates(records)
	m.AvgConversionRate, _ = stats.Mean(rates)
	m.MedianConversionRate, _ = stats.Median(rates)
	if len(rates) > 1 {
		m.StdConversionRate, _ = stats.StandardDeviationSample(rates)
	}
	if m.TotalUsers > 0 {
		m.RevenuePerUser = m.TotalRevenue / float64(m.TotalUsers)
	}
	if m.TotalConversions > 0 {
		m.RevenuePerConversion = m.TotalRevenue / float64(m.TotalConversions)
	}
	return m
}

func conversionRates(records []abtest.Record) []float64 {
	rates := make([]float64, len(records))
	for i, rec := range records {
		rates[i] = rec.ConversionRate
	}
	return rates
}

func meanConversionRate(records []abtest.Record) float64 {
	mean, _ := stats.Mean(conversionRates(records))
	return mean
}

func totalRevenue(records []abtest.Record) float64 {
	total := 0.0
	for _, rec := range records {
		total += rec.Revenue
	}
	return total
}

func filterBySegment(records []abtest.Record, segment func(abtest.Record) string, value string) []abtest.Record {
	var out []abtest.Record
	for _, rec := range records {
		if segment(rec) == value {
			out = append(out, rec)
		}
	}
	return out
}

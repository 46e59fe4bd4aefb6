package abtest

import (
	"fmt"
	"strings"

	"liftbot/domain/core"
)

// ControlGroup is the experiment partition treated as the baseline for every
// lift and significance comparison.
const ControlGroup = "Control"

// Record is one store/experiment observation. Immutable once loaded.
// ConversionRate is stored as given by the source file and never recomputed
// from Users/Conversions.
type Record struct {
	ID             core.RecordID `json:"id"`
	Experiment     string        `json:"experimento"`
	StoreID        string        `json:"tienda_id"`
	Region         string        `json:"region"`
	StoreType      string        `json:"tipo_tienda"`
	Users          int           `json:"usuarios"`
	Conversions    int           `json:"conversiones"`
	Revenue        float64       `json:"revenue"`
	ConversionRate float64       `json:"conversion_rate"`
	Description    string        `json:"description"`
}

// IsControl reports whether the record belongs to the control partition.
func (r Record) IsControl() bool {
	return r.Experiment == ControlGroup
}

// Describe builds the rich Spanish description indexed by the text space.
// Deterministic function of the other fields, generated once at load time.
func Describe(r Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Experimento %s en tienda %s ubicada en la región %s de tipo %s. ",
		r.Experiment, r.StoreID, r.Region, r.StoreType)
	fmt.Fprintf(&b, "Resultados: %d usuarios visitaron la tienda, generando %d conversiones y un revenue de $%.2f. ",
		r.Users, r.Conversions, r.Revenue)
	fmt.Fprintf(&b, "La tasa de conversión fue del %.2f%%. ", r.ConversionRate)
	fmt.Fprintf(&b, "Métricas clave: usuarios %d, conversiones %d, revenue $%.2f, conversion rate %.2f%%, ubicación %s - %s, grupo %s.",
		r.Users, r.Conversions, r.Revenue, r.ConversionRate, r.Region, r.StoreType, r.Experiment)
	return b.String()
}

// DatasetSummary describes the loaded dataset as a whole. Distinct values
// keep first-encountered order.
type DatasetSummary struct {
	TotalRecords      int      `json:"total_records"`
	Experiments       []string `json:"experiments"`
	Regions           []string `json:"regions"`
	StoreTypes        []string `json:"store_types"`
	TotalUsers        int      `json:"total_users"`
	TotalConversions  int      `json:"total_conversions"`
	TotalRevenue      float64  `json:"total_revenue"`
	AvgConversionRate float64  `json:"avg_conversion_rate"`
}

// GroupMetrics aggregates one experiment partition. Recomputed on demand,
// cached only for the lifetime of a single analysis call.
type GroupMetrics struct {
	Records              int     `json:"records"`
	TotalUsers           int     `json:"total_usuarios"`
	TotalConversions     int     `json:"total_conversiones"`
	TotalRevenue         float64 `json:"total_revenue"`
	AvgConversionRate    float64 `json:"avg_conversion_rate"`
	MedianConversionRate float64 `json:"median_conversion_rate"`
	StdConversionRate    float64 `json:"std_conversion_rate"`
	RevenuePerUser       float64 `json:"avg_revenue_per_user"`
	RevenuePerConversion float64 `json:"avg_revenue_per_conversion"`
}

// TTestResult is a two-sample mean-difference test on per-record conversion rates.
type TTestResult struct {
	Statistic   float64 `json:"t_statistic"`
	PValue      float64 `json:"p_value"`
	Significant bool    `json:"is_significant"`
}

// ChiSquareResult is a 2x2 contingency test on conversion counts.
type ChiSquareResult struct {
	Statistic        float64 `json:"chi2_statistic"`
	PValue           float64 `json:"p_value"`
	DegreesOfFreedom int     `json:"degrees_of_freedom"`
	Significant      bool    `json:"is_significant"`
}

// SignificanceResult combines both independent tests. OverallSignificant
// requires the two tests to agree at the 0.05 threshold.
type SignificanceResult struct {
	TTest              TTestResult     `json:"t_test"`
	ChiSquare          ChiSquareResult `json:"chi_square_test"`
	OverallSignificant bool            `json:"overall_significance"`
}

// GroupResult compares one non-control group against control.
// Significance is nil when the comparison lacked samples; SignificanceErr
// then carries the reason and the rest of the analysis is unaffected.
type GroupResult struct {
	Name            string              `json:"name"`
	Metrics         GroupMetrics        `json:"metrics"`
	ConversionLift  float64             `json:"conversion_lift"`
	RevenueLift     float64             `json:"revenue_lift"`
	Significance    *SignificanceResult `json:"statistical_significance,omitempty"`
	SignificanceErr string              `json:"significance_error,omitempty"`
}

// SegmentResult compares control against one non-control group inside a
// single region or store-type segment. Segments lacking either side are
// omitted from the report, not emitted as zeros.
type SegmentResult struct {
	Segment                  string  `json:"segment"`
	Group                    string  `json:"group"`
	ControlConversionRate    float64 `json:"control_conversion_rate"`
	ExperimentConversionRate float64 `json:"experiment_conversion_rate"`
	Lift                     float64 `json:"lift"`
	ControlRevenue           float64 `json:"control_revenue"`
	ExperimentRevenue        float64 `json:"experiment_revenue"`
	ControlSamples           int     `json:"sample_size_control"`
	ExperimentSamples        int     `json:"sample_size_experiment"`
}

// AnalysisReport is the full experiment analysis. Deterministic for an
// unchanged record store.
type AnalysisReport struct {
	ControlName string          `json:"control_name"`
	Control     GroupMetrics    `json:"control"`
	Groups      []GroupResult   `json:"groups"`
	Regional    []SegmentResult `json:"regional_analysis"`
	StoreTypes  []SegmentResult `json:"store_type_analysis"`
	Summary     string          `json:"summary"`
}

// BestGroup returns the non-control group with the highest conversion lift.
// Ties are broken by first-encountered order. ok is false when there are no
// comparison groups.
func (r *AnalysisReport) BestGroup() (GroupResult, bool) {
	if len(r.Groups) == 0 {
		return GroupResult{}, false
	}
	best := r.Groups[0]
	for _, g := range r.Groups[1:] {
		if g.ConversionLift > best.ConversionLift {
			best = g
		}
	}
	return best, true
}

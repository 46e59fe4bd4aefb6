package abtest

import "liftbot/domain/core"

// Closed registries mapping field names to typed accessors. These replace
// reflection-style attribute lookup: an unknown name is an error, never a
// silent skip or a fallback to some other field.

// MetricAccessor reads one numeric ranking metric from a record.
type MetricAccessor func(Record) float64

var metricAccessors = map[string]MetricAccessor{
	"usuarios":        func(r Record) float64 { return float64(r.Users) },
	"conversiones":    func(r Record) float64 { return float64(r.Conversions) },
	"revenue":         func(r Record) float64 { return r.Revenue },
	"conversion_rate": func(r Record) float64 { return r.ConversionRate },
}

// metricNames is the stable ordering used in error messages.
var metricNames = []string{"usuarios", "conversiones", "revenue", "conversion_rate"}

// MetricNames lists the supported ranking metrics.
func MetricNames() []string {
	out := make([]string, len(metricNames))
	copy(out, metricNames)
	return out
}

// Metric resolves a metric name to its accessor. Unknown names fail with
// ErrInvalidMetric; callers must not fall back to an arbitrary metric.
func Metric(name string) (MetricAccessor, error) {
	acc, ok := metricAccessors[name]
	if !ok {
		return nil, core.NewInvalidMetricError(name, metricNames)
	}
	return acc, nil
}

// FieldAccessor reads one categorical filter field from a record.
type FieldAccessor func(Record) string

var fieldAccessors = map[string]FieldAccessor{
	"experimento": func(r Record) string { return r.Experiment },
	"region":      func(r Record) string { return r.Region },
	"tipo_tienda": func(r Record) string { return r.StoreType },
	"tienda_id":   func(r Record) string { return r.StoreID },
}

var fieldNames = []string{"experimento", "region", "tipo_tienda", "tienda_id"}

// FieldNames lists the filterable categorical fields.
func FieldNames() []string {
	out := make([]string, len(fieldNames))
	copy(out, fieldNames)
	return out
}

// Field resolves a filter field name to its accessor.
func Field(name string) (FieldAccessor, error) {
	acc, ok := fieldAccessors[name]
	if !ok {
		return nil, core.NewInvalidFieldError(name, fieldNames)
	}
	return acc, nil
}

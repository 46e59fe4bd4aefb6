package semindex

import (
	"liftbot/domain/abtest"
	"liftbot/internal/config"
)

// CategoricalSpace scores equality-like similarity on one categorical field.
// An exact match scores 1.0; a mismatch scores the configured negative
// filter constant, discounting rather than excluding the record.
type CategoricalSpace struct {
	Name           string
	Weight         float64
	NegativeFilter float64
	Value          abtest.FieldAccessor
}

// Similarity compares two categorical values.
func (s CategoricalSpace) Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	return s.NegativeFilter
}

// NumberSpace scores proximity on one numeric field, normalized into [0,1]
// by the configured domain range. Out-of-range values are clamped.
type NumberSpace struct {
	Name   string
	Weight float64
	Min    float64
	Max    float64
	Value  abtest.MetricAccessor
}

// Normalize maps a raw value into [0,1].
func (s NumberSpace) Normalize(v float64) float64 {
	if v <= s.Min {
		return 0
	}
	if v >= s.Max {
		return 1
	}
	return (v - s.Min) / (s.Max - s.Min)
}

// Similarity compares two normalized values: closer raw values score higher.
func (s NumberSpace) Similarity(na, nb float64) float64 {
	d := na - nb
	if d < 0 {
		d = -d
	}
	return 1 - d
}

// buildSpaces wires the configured spaces over the record schema. The field
// accessors come from the closed registry in domain/abtest, so an index can
// never reference a field the schema does not have.
func buildSpaces(cfg config.IndexConfig) ([]CategoricalSpace, []NumberSpace) {
	mustField := func(name string) abtest.FieldAccessor {
		acc, err := abtest.Field(name)
		if err != nil {
			panic(err) // registry and space definitions ship together
		}
		return acc
	}
	mustMetric := func(name string) abtest.MetricAccessor {
		acc, err := abtest.Metric(name)
		if err != nil {
			panic(err)
		}
		return acc
	}

	categorical := []CategoricalSpace{
		{Name: "experimento", Weight: cfg.ExperimentWeight, NegativeFilter: cfg.ExperimentNegativeFilter, Value: mustField("experimento")},
		{Name: "region", Weight: cfg.RegionWeight, NegativeFilter: cfg.RegionNegativeFilter, Value: mustField("region")},
		{Name: "tipo_tienda", Weight: cfg.StoreTypeWeight, NegativeFilter: cfg.StoreTypeNegativeFilter, Value: mustField("tipo_tienda")},
	}
	numeric := []NumberSpace{
		{Name: "usuarios", Weight: cfg.UsersWeight, Min: 0, Max: cfg.UsersMax, Value: mustMetric("usuarios")},
		{Name: "conversiones", Weight: cfg.ConversionsWeight, Min: 0, Max: cfg.ConversionsMax, Value: mustMetric("conversiones")},
		{Name: "revenue", Weight: cfg.RevenueWeight, Min: 0, Max: cfg.RevenueMax, Value: mustMetric("revenue")},
		{Name: "conversion_rate", Weight: cfg.ConversionRateWeight, Min: 0, Max: cfg.ConversionRateMax, Value: mustMetric("conversion_rate")},
	}
	return categorical, numeric
}

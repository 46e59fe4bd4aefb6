package analytics

import (
	"fmt"
	"sort"
	"strings"

	"liftbot/domain/abtest"
)

// buildSummary renders the Spanish executive summary: control baseline,
// every comparison group ranked by conversion lift, and the best experiment.
func buildSummary(report *abtest.AnalysisReport) string {
	var b strings.Builder

	b.WriteString("RESUMEN EJECUTIVO DEL AB TESTING MULTI-VARIANTE:\n\n")
	fmt.Fprintf(&b, "GRUPO %s:\n", strings.ToUpper(report.ControlName))
	fmt.Fprintf(&b, "• %d conversiones de %d usuarios\n",
		report.Control.TotalConversions, report.Control.TotalUsers)
	fmt.Fprintf(&b, "• Conversion Rate: %.2f%%\n", report.Control.AvgConversionRate)
	fmt.Fprintf(&b, "• Revenue: $%.2f\n", report.Control.TotalRevenue)

	if len(report.Groups) == 0 {
		b.WriteString("\nNo hay grupos de experimento para comparar.")
		return b.String()
	}

	ranked := make([]abtest.GroupResult, len(report.Groups))
	copy(ranked, report.Groups)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ConversionLift > ranked[j].ConversionLift
	})

	b.WriteString("\nRESULTADOS POR EXPERIMENTO:\n")
	for _, g := range ranked {
		fmt.Fprintf(&b, "\n• %s:\n", g.Name)
		fmt.Fprintf(&b, "  - CR: %.2f%% (Lift: %+.2f%%)\n", g.Metrics.AvgConversionRate, g.ConversionLift)
		fmt.Fprintf(&b, "  - Revenue: $%.2f (Lift: %+.2f%%)\n", g.Metrics.TotalRevenue, g.RevenueLift)
		switch {
		case g.Significance == nil:
			fmt.Fprintf(&b, "  - Significancia no disponible: %s\n", g.SignificanceErr)
		case g.Significance.OverallSignificant:
			fmt.Fprintf(&b, "  - Significativo (p-value: %.4f)\n", g.Significance.TTest.PValue)
		default:
			fmt.Fprintf(&b, "  - No significativo (p-value: %.4f)\n", g.Significance.TTest.PValue)
		}
	}

	if best, ok := report.BestGroup(); ok {
		fmt.Fprintf(&b, "\nMEJOR EXPERIMENTO: %s (Lift: %+.2f%%)", best.Name, best.ConversionLift)
	}

	return b.String()
}

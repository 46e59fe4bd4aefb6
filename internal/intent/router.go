package intent

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"liftbot/domain/abtest"
	"liftbot/internal/store"
)

// Type classifies a user query into one deterministic intent.
type Type string

const (
	Greeting     Type = "greeting"
	CountQuery   Type = "count_query"
	DataInfo     Type = "data_info"
	StoreIDQuery Type = "store_id_query"
	Unknown      Type = "unknown"
)

// Intent is one row of the dispatch table: match rules, priority and the
// handler they route to. Handlers either return a final answer or decline,
// causing fallthrough to the retrieval + generation pipeline; they never do
// both.
type Intent struct {
	Type     Type
	Patterns []*regexp.Regexp
	Keywords []string
	Priority int
	Handler  func(r *Router, query string) (string, bool)
}

// storeIDPattern matches exact store identifiers like T_Control_001.
var storeIDPattern = regexp.MustCompile(`T_(Control|Experimento_[ABC])_\d{3}`)

// Router classifies queries against a declarative intent table and resolves
// cheap deterministic questions without touching retrieval or generation.
// State-free: all answers read live store data.
type Router struct {
	store          *store.RecordStore
	greetingMaxLen int
	intents        []Intent // descending priority
}

// New builds the router and its intent table.
func New(s *store.RecordStore, greetingMaxLen int) *Router {
	if greetingMaxLen <= 0 {
		greetingMaxLen = 15
	}
	r := &Router{store: s, greetingMaxLen: greetingMaxLen}
	r.intents = []Intent{
		{
			Type:     Greeting,
			Patterns: compile(`^(hola|hello|hi|buenos días|buenas tardes)[\s.!¡¿?]*$`),
			Keywords: []string{"hola", "hello", "hi", "buenos días", "buenas tardes"},
			Priority: 3,
			Handler:  (*Router).handleGreeting,
		},
		{
			Type: StoreIDQuery,
			Patterns: compile(
				`t_(control|experimento_[abc])_\d{3}`,
				`(tienda|store).*\bid\b`,
				`datos.*de.*t_`,
			),
			Keywords: []string{"t_control", "t_experimento", "tienda id", "store id"},
			Priority: 3,
			Handler:  (*Router).handleStoreID,
		},
		{
			Type: CountQuery,
			Patterns: compile(
				`(cuántos|cuántas|cantidad|número|total)`,
				`(how many|count of)`,
			),
			Keywords: []string{"cuántos", "cuántas", "cantidad", "número", "total", "how many", "count"},
			Priority: 2,
			Handler:  (*Router).handleCount,
		},
		{
			Type: DataInfo,
			Patterns: compile(
				`(qué datos|qué información|datos disponibles)`,
				`(what data|available data)`,
			),
			Keywords: []string{"qué datos", "qué información", "datos disponibles"},
			Priority: 1,
			Handler:  (*Router).handleDataInfo,
		},
	}
	sort.SliceStable(r.intents, func(i, j int) bool {
		return r.intents[i].Priority > r.intents[j].Priority
	})
	return r
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// Classify returns the first full match: patterns across all intents in
// priority order, then keyword presence in the same order.
func (r *Router) Classify(query string) Type {
	lower := strings.ToLower(strings.TrimSpace(query))

	for _, intent := range r.intents {
		for _, pattern := range intent.Patterns {
			if pattern.MatchString(lower) {
				return intent.Type
			}
		}
	}
	for _, intent := range r.intents {
		for _, kw := range intent.Keywords {
			if strings.Contains(lower, kw) {
				return intent.Type
			}
		}
	}
	return Unknown
}

// Route classifies the query and dispatches to its handler. handled=false
// means the query falls through to the full pipeline; the handler's return
// value alone decides.
func (r *Router) Route(query string) (string, bool) {
	t := r.Classify(query)
	for _, intent := range r.intents {
		if intent.Type == t {
			return intent.Handler(r, query)
		}
	}
	return "", false
}

func (r *Router) handleGreeting(query string) (string, bool) {
	if len(strings.TrimSpace(query)) > r.greetingMaxLen {
		// Long greetings usually carry a real question; let the pipeline see it.
		return "", false
	}
	return "¡Hola! Estoy aquí para ayudarte con el análisis de AB Testing. ¿Qué te gustaría saber sobre los datos?", true
}

func (r *Router) handleDataInfo(query string) (string, bool) {
	sum := r.store.Summary()
	return fmt.Sprintf(`Datos disponibles en el dataset:
• %d registros de tiendas
• Experimentos: %s
• Regiones: %s
• Tipos de tienda: %s
• Total usuarios: %d
• Total conversiones: %d
• Revenue total: $%.2f`,
		sum.TotalRecords,
		strings.Join(sum.Experiments, ", "),
		strings.Join(sum.Regions, ", "),
		strings.Join(sum.StoreTypes, ", "),
		sum.TotalUsers,
		sum.TotalConversions,
		sum.TotalRevenue,
	), true
}

func (r *Router) handleStoreID(query string) (string, bool) {
	storeID := storeIDPattern.FindString(query)
	if storeID == "" {
		// Matched on loose keywords only; no concrete id to look up.
		return "", false
	}

	rec, ok := r.store.FindByStoreID(storeID)
	if !ok {
		return fmt.Sprintf("No se encontraron datos para la tienda %s.", storeID), true
	}
	return fmt.Sprintf(`Datos de la tienda %s:
• Experimento: %s
• Región: %s
• Tipo de tienda: %s
• Usuarios: %d
• Conversiones: %d
• Revenue: $%.2f
• Conversion Rate: %.2f%%`,
		rec.StoreID, rec.Experiment, rec.Region, rec.StoreType,
		rec.Users, rec.Conversions, rec.Revenue, rec.ConversionRate,
	), true
}

func (r *Router) handleCount(query string) (string, bool) {
	lower := strings.ToLower(query)
	sum := r.store.Summary()

	hasStores := strings.Contains(lower, "tienda") || strings.Contains(lower, "store")
	hasUsers := strings.Contains(lower, "usuario") || strings.Contains(lower, "user")
	if hasStores && hasUsers {
		return r.countStoresAndUsers(lower, sum), true
	}

	switch {
	case hasUsers:
		return r.countUsers(lower, sum), true
	case strings.Contains(lower, "conversiones") || strings.Contains(lower, "conversion"):
		return r.countConversions(lower, sum), true
	case hasStores:
		return r.countStores(lower, sum), true
	case strings.Contains(lower, "regiones") || strings.Contains(lower, "región"):
		return fmt.Sprintf("Hay %d regiones en el dataset: %s",
			len(sum.Regions), strings.Join(sum.Regions, ", ")), true
	case strings.Contains(lower, "tipos"):
		return fmt.Sprintf("Hay %d tipos de tienda: %s",
			len(sum.StoreTypes), strings.Join(sum.StoreTypes, ", ")), true
	}

	return fmt.Sprintf("El dataset contiene %d tiendas con %d usuarios y %d conversiones en total.",
		sum.TotalRecords, sum.TotalUsers, sum.TotalConversions), true
}

func (r *Router) countUsers(lower string, sum abtest.DatasetSummary) string {
	if name, ok := r.matchGroup(lower, sum); ok {
		stores, users, _ := r.groupTotals(name)
		if name == abtest.ControlGroup {
			return fmt.Sprintf("Las tiendas del grupo %s tienen un total de %d usuarios.", name, users)
		}
		return fmt.Sprintf("El %s tiene %d tiendas con un total de %d usuarios.",
			strings.ReplaceAll(name, "_", " "), stores, users)
	}

	if strings.Contains(lower, "experimento") || strings.Contains(lower, "experiment") || strings.Contains(lower, "variante") {
		var b strings.Builder
		b.WriteString("Total de usuarios por experimento:")
		for _, name := range sum.Experiments {
			if name == abtest.ControlGroup {
				continue
			}
			_, users, _ := r.groupTotals(name)
			fmt.Fprintf(&b, "\n• %s: %d usuarios", name, users)
		}
		return b.String()
	}

	return fmt.Sprintf("En total hay %d usuarios en todo el dataset.", sum.TotalUsers)
}

func (r *Router) countConversions(lower string, sum abtest.DatasetSummary) string {
	if name, ok := r.matchGroup(lower, sum); ok {
		_, _, conversions := r.groupTotals(name)
		return fmt.Sprintf("El grupo %s tiene un total de %d conversiones.", name, conversions)
	}
	return fmt.Sprintf("En total hay %d conversiones en todo el dataset.", sum.TotalConversions)
}

func (r *Router) countStores(lower string, sum abtest.DatasetSummary) string {
	if name, ok := r.matchGroup(lower, sum); ok {
		stores, _, _ := r.groupTotals(name)
		if name == abtest.ControlGroup {
			return fmt.Sprintf("Hay %d tiendas en el grupo %s.", stores, name)
		}
		return fmt.Sprintf("El %s tiene %d tiendas.", strings.ReplaceAll(name, "_", " "), stores)
	}

	if strings.Contains(lower, "experimento") {
		var b strings.Builder
		b.WriteString("Cantidad de tiendas por experimento:")
		for _, name := range sum.Experiments {
			if name == abtest.ControlGroup {
				continue
			}
			stores, _, _ := r.groupTotals(name)
			fmt.Fprintf(&b, "\n• %s: %d tiendas", name, stores)
		}
		return b.String()
	}

	return fmt.Sprintf("El dataset contiene %d tiendas en total.", sum.TotalRecords)
}

func (r *Router) countStoresAndUsers(lower string, sum abtest.DatasetSummary) string {
	if name, ok := r.matchGroup(lower, sum); ok {
		stores, users, _ := r.groupTotals(name)
		if name == abtest.ControlGroup {
			return fmt.Sprintf("El grupo %s tiene %d tiendas con un total de %d usuarios.", name, stores, users)
		}
		return fmt.Sprintf("El %s tiene %d tiendas con un total de %d usuarios.",
			strings.ReplaceAll(name, "_", " "), stores, users)
	}
	return fmt.Sprintf("El dataset contiene %d tiendas con %d usuarios en total.",
		sum.TotalRecords, sum.TotalUsers)
}

// matchGroup resolves a query mention to one experiment group. Group names
// match either verbatim or with underscores spoken as spaces
// ("experimento a" for Experimento_A). Control is checked last so that
// queries naming a specific experiment win over the generic wording.
func (r *Router) matchGroup(lower string, sum abtest.DatasetSummary) (string, bool) {
	control := ""
	for _, name := range sum.Experiments {
		if name == abtest.ControlGroup {
			control = name
			continue
		}
		ln := strings.ToLower(name)
		if strings.Contains(lower, ln) || strings.Contains(lower, strings.ReplaceAll(ln, "_", " ")) {
			return name, true
		}
	}
	if control != "" && strings.Contains(lower, strings.ToLower(control)) {
		return control, true
	}
	return "", false
}

// groupTotals counts stores, users and conversions for one experiment group.
func (r *Router) groupTotals(name string) (stores, users, conversions int) {
	for rec := range r.store.Filter(func(rec abtest.Record) bool { return rec.Experiment == name }) {
		stores++
		users += rec.Users
		conversions += rec.Conversions
	}
	return stores, users, conversions
}

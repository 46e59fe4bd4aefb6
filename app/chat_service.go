package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"liftbot/domain/abtest"
	"liftbot/internal/analytics"
	"liftbot/internal/config"
	"liftbot/internal/intent"
	"liftbot/internal/query"
	"liftbot/internal/store"
	"liftbot/ports"

	"github.com/google/uuid"
)

const systemPrompt = `Eres un analista experto en AB Testing y estadística.

ESTILO DE RESPUESTA:
- Respuestas CONCISAS y DIRECTAS
- Solo información relevante a la pregunta específica
- Evita análisis extensos no solicitados
- Máximo 3-4 oraciones para preguntas simples
- Análisis detallado solo cuando se solicite explícitamente

REGLAS:
- Basa respuestas solo en datos proporcionados
- Sé específico con números y porcentajes
- Si la pregunta es simple (conteo, datos básicos), responde directamente
- Solo proporciona análisis extenso si se solicita explícitamente`

const apologyResponse = "Lo siento, ocurrió un error al procesar tu consulta. Por favor, inténtalo de nuevo."

// ChatService runs the multi-strategy query-resolution pipeline: intent
// short-circuit first, then retrieval plus statistical context handed to the
// external generator. One instance serves one caller; the memoized analysis
// report is instance-local, so independent instances can run concurrently
// over the same shared store and index.
type ChatService struct {
	queryCfg  config.QueryConfig
	openaiCfg config.OpenAIConfig
	store     *store.RecordStore
	engine    *query.Engine
	analyzer  *analytics.Analyzer
	router    *intent.Router
	llm       ports.LLMClient
	sessionID string

	analysisOnce sync.Once
	analysis     *abtest.AnalysisReport
	analysisErr  error
}

// NewChatService wires a pipeline instance.
func NewChatService(cfg *config.Config, s *store.RecordStore, engine *query.Engine,
	analyzer *analytics.Analyzer, router *intent.Router, llm ports.LLMClient) *ChatService {
	return &ChatService{
		queryCfg:  cfg.Query,
		openaiCfg: cfg.OpenAI,
		store:     s,
		engine:    engine,
		analyzer:  analyzer,
		router:    router,
		llm:       llm,
		sessionID: uuid.NewString(),
	}
}

// SessionID identifies this pipeline instance in logs.
func (s *ChatService) SessionID() string {
	return s.sessionID
}

// Analysis returns the memoized analysis report. The underlying store never
// changes after load, so computing it once per instance is safe.
func (s *ChatService) Analysis() (*abtest.AnalysisReport, error) {
	s.analysisOnce.Do(func() {
		s.analysis, s.analysisErr = s.analyzer.Analyze()
	})
	return s.analysis, s.analysisErr
}

// Answer resolves one user query. Deterministic intents answer immediately;
// everything else goes through retrieval and the external generator. Any
// generator failure is reported as a user-visible apology, never a crash,
// and per-query errors leave the store and index untouched.
func (s *ChatService) Answer(ctx context.Context, userQuery string) string {
	if answer, handled := s.router.Route(userQuery); handled {
		log.Printf("[ChatService] session=%s intent=%s resolved without generation",
			s.sessionID, s.router.Classify(userQuery))
		return answer
	}

	filters := s.engine.ExtractFilters(userQuery)

	var performance []abtest.Record
	if metric, direction, ok := detectPerformanceQuery(userQuery); ok {
		var err error
		performance, err = s.engine.TopPerformers(metric, direction, s.queryCfg.DefaultLimit, filters)
		if err != nil {
			log.Printf("[ChatService] session=%s performance query failed: %v", s.sessionID, err)
		}
	}

	semantic, err := s.engine.SemanticSearch(ctx, userQuery, filters, s.queryCfg.DefaultLimit)
	if err != nil {
		log.Printf("[ChatService] session=%s semantic search failed: %v", s.sessionID, err)
	}

	var filterResults []abtest.Record
	if len(filters) > 0 {
		filterResults, err = s.engine.FilterSearch(filters)
		if err != nil {
			log.Printf("[ChatService] session=%s filter search failed: %v", s.sessionID, err)
		}
	}

	report, err := s.Analysis()
	if err != nil {
		log.Printf("[ChatService] session=%s analysis unavailable: %v", s.sessionID, err)
	}

	userContext := buildContext(userQuery, report, semantic, filterResults, performance)

	answer, err := s.llm.ChatCompletion(ctx, systemPrompt, userContext,
		s.openaiCfg.Temperature, s.openaiCfg.MaxTokens)
	if err != nil {
		log.Printf("[ChatService] session=%s generation failed: %v", s.sessionID, err)
		return apologyResponse
	}
	return answer
}

// performanceKeywords mark ranking questions that need exact top/bottom
// records rather than similarity search.
var performanceKeywords = []string{
	"mayor", "menor", "máximo", "mínimo", "mejor", "peor",
	"top", "ranking", "más alto", "más bajo", "highest", "lowest",
	"best", "worst", "máx", "mín",
}

var ascendingKeywords = []string{"menor", "mínimo", "peor", "lowest", "worst", "mín"}

func detectPerformanceQuery(userQuery string) (metric, direction string, ok bool) {
	lower := strings.ToLower(userQuery)

	found := false
	for _, kw := range performanceKeywords {
		if strings.Contains(lower, kw) {
			found = true
			break
		}
	}
	if !found {
		return "", "", false
	}

	metric = "conversion_rate"
	switch {
	case strings.Contains(lower, "revenue") || strings.Contains(lower, "ingreso") || strings.Contains(lower, "ganancia"):
		metric = "revenue"
	case strings.Contains(lower, "usuario") || strings.Contains(lower, "users") || strings.Contains(lower, "tráfico"):
		metric = "usuarios"
	}

	direction = "desc"
	for _, kw := range ascendingKeywords {
		if strings.Contains(lower, kw) {
			direction = "asc"
			break
		}
	}
	return metric, direction, true
}

// buildContext assembles the structured context handed to the generator.
// Retrieved records carry their real attributes resolved from the store; a
// missing analysis section is noted rather than invented.
func buildContext(userQuery string, report *abtest.AnalysisReport,
	semantic []query.ScoredRecord, filterResults, performance []abtest.Record) string {

	var b strings.Builder
	fmt.Fprintf(&b, "CONSULTA DEL USUARIO: %s\n\n", userQuery)

	if report == nil {
		b.WriteString("ANÁLISIS NO DISPONIBLE: el dataset no tiene grupo control configurado.\n")
	} else {
		b.WriteString(report.Summary)
		b.WriteString("\n")

		if len(report.Regional) > 0 {
			b.WriteString("\nANÁLISIS POR REGIÓN:\n")
			for _, seg := range report.Regional {
				fmt.Fprintf(&b, "• %s / %s: Lift %+.2f%% (Control: %.2f%% → Experimento: %.2f%%)\n",
					seg.Segment, seg.Group, seg.Lift, seg.ControlConversionRate, seg.ExperimentConversionRate)
			}
		}
		if len(report.StoreTypes) > 0 {
			b.WriteString("\nANÁLISIS POR TIPO DE TIENDA:\n")
			for _, seg := range report.StoreTypes {
				fmt.Fprintf(&b, "• %s / %s: Lift %+.2f%% (Control: %.2f%% → Experimento: %.2f%%)\n",
					seg.Segment, seg.Group, seg.Lift, seg.ControlConversionRate, seg.ExperimentConversionRate)
			}
		}
	}

	if len(semantic) > 0 {
		b.WriteString("\nDATOS MÁS RELEVANTES (búsqueda semántica):\n")
		for i, res := range semantic {
			if i >= 3 {
				break
			}
			fmt.Fprintf(&b, "%d. %s (Relevancia: %.3f)\n", i+1, res.Record.Description, res.Score)
		}
	}

	if len(filterResults) > 0 {
		b.WriteString("\nDATOS FILTRADOS:\n")
		for i, rec := range filterResults {
			if i >= 3 {
				break
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, rec.Description)
		}
	}

	if len(performance) > 0 {
		b.WriteString("\nTOP PERFORMERS (ranking por métricas):\n")
		for i, rec := range performance {
			fmt.Fprintf(&b, "%d. Tienda ID: %s - Experimento: %s - Conversión: %.2f%% - Revenue: $%.2f - Usuarios: %d\n",
				i+1, rec.StoreID, rec.Experiment, rec.ConversionRate, rec.Revenue, rec.Users)
		}
	}

	b.WriteString("\nResponde de manera clara y precisa basándote en estos datos.")
	return b.String()
}

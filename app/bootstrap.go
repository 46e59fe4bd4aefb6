package app

import (
	"context"
	"fmt"
	"log"

	"liftbot/adapters/excel"
	"liftbot/adapters/llm"
	"liftbot/adapters/llm/heuristic"
	"liftbot/internal/analytics"
	"liftbot/internal/config"
	"liftbot/internal/intent"
	"liftbot/internal/query"
	"liftbot/internal/semindex"
	"liftbot/internal/store"
	"liftbot/ports"
)

// System is the fully wired application: shared read-only components plus a
// ready ChatService. Both the console and the HTTP binary boot through it.
type System struct {
	Config *config.Config
	Store  *store.RecordStore
	Index  *semindex.Index
	Chat   *ChatService
}

// Bootstrap loads the dataset, builds the store, index and analysis
// components, and wires the chat pipeline. When no API key is configured it
// degrades to the local hashing embedder and a mock generator so offline
// runs still work end to end.
func Bootstrap(ctx context.Context, cfg *config.Config) (*System, error) {
	reader := excel.NewDataReader(cfg.Dataset.Path)
	records, err := reader.ReadData()
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", cfg.Dataset.Path, err)
	}
	log.Printf("[Bootstrap] Loaded %d records from %s", len(records), cfg.Dataset.Path)

	recordStore, err := store.New(records)
	if err != nil {
		return nil, fmt.Errorf("build record store: %w", err)
	}

	var embedder ports.Embedder
	var generator ports.LLMClient
	if cfg.OpenAI.Offline() {
		log.Printf("[Bootstrap] ⚠️ No OPENAI_API_KEY set; using local embedder and mock generator")
		embedder = heuristic.NewEmbedder()
		generator = &llm.MockLLMClient{}
	} else {
		embedder, err = llm.NewOpenAIEmbedder(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL,
			cfg.OpenAI.EmbeddingModel, cfg.OpenAI.Timeout)
		if err != nil {
			return nil, fmt.Errorf("build embedder: %w", err)
		}
		generator, err = llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL,
			cfg.OpenAI.Model, cfg.OpenAI.Timeout)
		if err != nil {
			return nil, fmt.Errorf("build chat client: %w", err)
		}
	}

	index := semindex.New(cfg.Index, embedder)
	if err := index.Build(ctx, recordStore.All()); err != nil {
		return nil, fmt.Errorf("build semantic index: %w", err)
	}

	engine := query.New(recordStore, index, cfg.Query.DefaultLimit, cfg.Query.FilterCap)
	analyzer := analytics.NewAnalyzer(recordStore, "")
	router := intent.New(recordStore, cfg.Query.GreetingMaxLen)
	chat := NewChatService(cfg, recordStore, engine, analyzer, router, generator)

	log.Printf("[Bootstrap] Chat pipeline ready, session %s", chat.SessionID())
	return &System{Config: cfg, Store: recordStore, Index: index, Chat: chat}, nil
}

// Package app wires configuration into a ready-to-use set of components.
// The HTTP server, the CLI and the terminal chat all go through App.
package app

import (
	"cmp"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/0xcro3dile/pdfrag-go/internal/adapters/audit"
	"github.com/0xcro3dile/pdfrag-go/internal/adapters/embedding"
	"github.com/0xcro3dile/pdfrag-go/internal/adapters/index"
	"github.com/0xcro3dile/pdfrag-go/internal/adapters/llm"
	"github.com/0xcro3dile/pdfrag-go/internal/adapters/loader"
	"github.com/0xcro3dile/pdfrag-go/internal/adapters/parser"
	"github.com/0xcro3dile/pdfrag-go/internal/adapters/scoring"
	"github.com/0xcro3dile/pdfrag-go/internal/config"
	"github.com/0xcro3dile/pdfrag-go/internal/domain/ports"
	"github.com/0xcro3dile/pdfrag-go/internal/domain/usecases"
)

// Version is reported by the health endpoint and the CLI.
const Version = "2.0.0"

// App holds every long-lived component.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Index     ports.ContentIndex
	Extractor ports.TextExtractor
	Completer ports.Completer
	Audit     ports.AuditStore
	Loader    *loader.PDFLoader
	Ingester  *usecases.IngestUseCase
	Querier   *usecases.QueryUseCase

	closers []func() error
}

// New builds all components described by cfg. Call Close when done.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger, Loader: loader.NewPDFLoader(cfg.MaxFileSize())}

	if err := a.initIndex(); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize index: %w", err)
	}
	if err := a.initAudit(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize audit store: %w", err)
	}
	a.initExtractor()
	a.initCompleter()

	a.Ingester = usecases.NewIngestUseCase(a.Extractor, a.Index,
		usecases.WithPolicySelector(cfg.PolicySelector()),
		usecases.WithIngestLogger(logger.Named("ingest")),
	)
	a.Querier = usecases.NewQueryUseCase(a.Index, a.Completer,
		usecases.WithQueryLimits(cfg.QueryLimits()),
		usecases.WithDegradeWhenUnavailable(cfg.LLM.DegradeWhenUnavailable),
		usecases.WithQueryLogger(logger.Named("query")),
	)

	av := a.Completer.Availability()
	logger.Info("components initialized",
		zap.String("index", cfg.Index.Backend),
		zap.String("scorer", cfg.Retrieval.Scorer),
		zap.String("extractor", cfg.Extractor.Kind),
		zap.String("llm", cfg.LLM.Provider),
		zap.Bool("llm_available", av.Available),
		zap.String("audit", cfg.Audit.Driver),
	)
	if !av.Available {
		logger.Warn("answer generation unavailable", zap.String("reason", av.Reason))
	}
	return a, nil
}

func (a *App) initIndex() error {
	var embedder ports.EmbeddingService
	if a.Config.Retrieval.Scorer == "embedding" {
		embedder = embedding.NewOllamaAdapter(a.Config.Embedding.URL, a.Config.Embedding.Model, a.Logger)
	}
	scorer, err := scoring.New(a.Config.Retrieval.Scorer, embedder)
	if err != nil {
		return err
	}

	switch a.Config.Index.Backend {
	case "memory":
		a.Index = index.NewMemoryIndex(scorer, a.Logger.Named("index"))
	case "sqlite":
		idx, err := index.NewSQLiteIndex(a.Config.Index.Path, scorer, a.Logger.Named("index"))
		if err != nil {
			return err
		}
		a.Index = idx
		a.closers = append(a.closers, idx.Close)
	default:
		return fmt.Errorf("unknown index backend %q", a.Config.Index.Backend)
	}
	return nil
}

func (a *App) initAudit(ctx context.Context) error {
	switch a.Config.Audit.Driver {
	case "none":
		a.Audit = audit.NewMemoryStore()
	case audit.DriverSQLite, audit.DriverPostgres:
		store, err := audit.OpenSQL(ctx, a.Config.Audit.Driver, a.Config.Audit.DSN, a.Logger)
		if err != nil {
			return err
		}
		a.Audit = store
	default:
		return fmt.Errorf("unknown audit driver %q", a.Config.Audit.Driver)
	}
	a.closers = append(a.closers, a.Audit.Close)
	return nil
}

func (a *App) initExtractor() {
	if a.Config.Extractor.Kind == "sidecar" {
		a.Extractor = parser.NewSidecarExtractor(a.Config.Extractor.URL, a.Config.Extractor.Timeout)
		return
	}
	a.Extractor = parser.NewPDFExtractor(a.Logger)
}

func (a *App) initCompleter() {
	c := a.Config.LLM
	switch c.Provider {
	case "groq", "openai":
		base, model := c.BaseURL, c.Model
		if c.Provider == "openai" {
			base = cmp.Or(base, "https://api.openai.com/v1")
			model = cmp.Or(model, "gpt-4o-mini")
		}
		a.Completer = llm.NewOpenAICompleter(llm.OpenAIConfig{
			APIKey:      c.APIKey,
			BaseURL:     base,
			Model:       model,
			Temperature: c.Temperature,
			MaxTokens:   c.MaxTokens,
			Timeout:     c.Timeout,
		})
	case "ollama":
		base := cmp.Or(c.BaseURL, a.Config.Embedding.URL)
		a.Completer = llm.NewOllamaCompleter(base, c.Model, c.Temperature, c.Timeout)
	default:
		a.Completer = llm.DisabledCompleter{Reason: "no LLM provider configured"}
	}
}

// Close releases databases in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

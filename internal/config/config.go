// Package config loads application settings. Values are layered: built-in
// defaults, then the YAML file, then .env, then process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/usecases"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "pdfrag.yaml"

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Index     IndexConfig     `yaml:"index"`
	Extractor ExtractorConfig `yaml:"extractor"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Audit     AuditConfig     `yaml:"audit"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps"`
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
}

// ChunkingConfig mirrors usecases.PolicySelector.
type ChunkingConfig struct {
	SmallSize     int `yaml:"small_size"`
	SmallOverlap  int `yaml:"small_overlap"`
	MediumSize    int `yaml:"medium_size"`
	MediumOverlap int `yaml:"medium_overlap"`
	LargeSize     int `yaml:"large_size"`
	LargeOverlap  int `yaml:"large_overlap"`
	MediumFrom    int `yaml:"medium_from"`
	LargeFrom     int `yaml:"large_from"`
}

// RetrievalConfig bounds queries and picks the scorer.
type RetrievalConfig struct {
	DefaultK          int    `yaml:"default_k"`
	MaxK              int    `yaml:"max_k"`
	MinQuestionLength int    `yaml:"min_question_length"`
	MaxQuestionLength int    `yaml:"max_question_length"`
	Scorer            string `yaml:"scorer"` // keyword, tfidf or embedding
}

// IndexConfig selects the content index backend.
type IndexConfig struct {
	Backend string `yaml:"backend"` // memory or sqlite
	Path    string `yaml:"path"`
}

// ExtractorConfig selects the PDF text extractor.
type ExtractorConfig struct {
	Kind    string        `yaml:"kind"` // native or sidecar
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// LLMConfig configures the completion provider.
type LLMConfig struct {
	Provider               string        `yaml:"provider"` // groq, openai, ollama or none
	BaseURL                string        `yaml:"base_url"`
	Model                  string        `yaml:"model"`
	APIKey                 string        `yaml:"api_key"`
	Temperature            float64       `yaml:"temperature"`
	MaxTokens              int           `yaml:"max_tokens"`
	Timeout                time.Duration `yaml:"timeout"`
	DegradeWhenUnavailable bool          `yaml:"degrade_when_unavailable"`
}

// EmbeddingConfig is used by the embedding scorer.
type EmbeddingConfig struct {
	URL   string `yaml:"url"`
	Model string `yaml:"model"`
}

// AuditConfig selects where ingestion and query history is kept.
type AuditConfig struct {
	Driver string `yaml:"driver"` // none, sqlite3 or postgres
	DSN    string `yaml:"dsn"`
}

// IngestConfig holds upload and inbox settings.
type IngestConfig struct {
	MaxFileSizeMB   int           `yaml:"max_file_size_mb"`
	DuplicatePolicy string        `yaml:"duplicate_policy"` // allow or reject
	InboxDir        string        `yaml:"inbox_dir"`
	SettleDelay     time.Duration `yaml:"settle_delay"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
	File   string `yaml:"file"`
}

// Duplicate policies.
const (
	DuplicateAllow  = "allow"
	DuplicateReject = "reject"
)

// Default returns the built-in configuration.
func Default() *Config {
	p := usecases.DefaultPolicySelector()
	l := usecases.DefaultQueryLimits()
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
			RateLimitBurst:  20,
		},
		Chunking: ChunkingConfig{
			SmallSize: p.Small.Size, SmallOverlap: p.Small.Overlap,
			MediumSize: p.Medium.Size, MediumOverlap: p.Medium.Overlap,
			LargeSize: p.Large.Size, LargeOverlap: p.Large.Overlap,
			MediumFrom: p.MediumFrom, LargeFrom: p.LargeFrom,
		},
		Retrieval: RetrievalConfig{
			DefaultK:          l.DefaultK,
			MaxK:              l.MaxK,
			MinQuestionLength: l.MinQuestionLength,
			MaxQuestionLength: l.MaxQuestionLength,
			Scorer:            "keyword",
		},
		Index:     IndexConfig{Backend: "sqlite", Path: "data"},
		Extractor: ExtractorConfig{Kind: "native", URL: "http://localhost:8081", Timeout: 60 * time.Second},
		LLM: LLMConfig{
			Provider:               "groq",
			Temperature:            0.3,
			MaxTokens:              2048,
			Timeout:                120 * time.Second,
			DegradeWhenUnavailable: true,
		},
		Embedding: EmbeddingConfig{URL: "http://localhost:11434", Model: "nomic-embed-text"},
		Audit:     AuditConfig{Driver: "sqlite3", DSN: "data/app.db"},
		Ingest: IngestConfig{
			MaxFileSizeMB:   50,
			DuplicatePolicy: DuplicateReject,
			SettleDelay:     500 * time.Millisecond,
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads path (a missing file means defaults), applies .env and
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	_ = godotenv.Load(".env")
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Addr = getEnv("PDFRAG_ADDR", c.Server.Addr)
	c.Server.RateLimitRPS = getEnvAsFloat("PDFRAG_RATE_LIMIT_RPS", c.Server.RateLimitRPS)

	c.Retrieval.Scorer = getEnv("PDFRAG_SCORER", c.Retrieval.Scorer)
	c.Retrieval.DefaultK = getEnvAsInt("DEFAULT_SEARCH_K", c.Retrieval.DefaultK)
	c.Retrieval.MaxK = getEnvAsInt("MAX_SEARCH_K", c.Retrieval.MaxK)

	c.Index.Backend = getEnv("PDFRAG_INDEX_BACKEND", c.Index.Backend)
	c.Index.Path = getEnv("PDFRAG_DATA_DIR", c.Index.Path)

	c.Extractor.Kind = getEnv("PDFRAG_EXTRACTOR", c.Extractor.Kind)
	c.Extractor.URL = getEnv("PDFRAG_EXTRACTOR_URL", c.Extractor.URL)

	c.LLM.Provider = getEnv("PDFRAG_LLM_PROVIDER", c.LLM.Provider)
	c.LLM.BaseURL = getEnv("PDFRAG_LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.Model = getEnv("LLM_MODEL", c.LLM.Model)
	c.LLM.Temperature = getEnvAsFloat("LLM_TEMPERATURE", c.LLM.Temperature)
	c.LLM.MaxTokens = getEnvAsInt("LLM_MAX_TOKENS", c.LLM.MaxTokens)
	c.LLM.DegradeWhenUnavailable = getEnvAsBool("PDFRAG_LLM_DEGRADE", c.LLM.DegradeWhenUnavailable)
	switch c.LLM.Provider {
	case "groq":
		c.LLM.APIKey = getEnv("GROQ_API_KEY", c.LLM.APIKey)
	case "openai":
		c.LLM.APIKey = getEnv("OPENAI_API_KEY", c.LLM.APIKey)
	}

	c.Embedding.URL = getEnv("OLLAMA_URL", c.Embedding.URL)

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Audit.DSN = dsn
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			c.Audit.Driver = "postgres"
		}
	}
	c.Audit.Driver = getEnv("PDFRAG_AUDIT_DRIVER", c.Audit.Driver)

	c.Ingest.MaxFileSizeMB = getEnvAsInt("MAX_FILE_SIZE_MB", c.Ingest.MaxFileSizeMB)
	c.Ingest.DuplicatePolicy = getEnv("PDFRAG_DUPLICATE_POLICY", c.Ingest.DuplicatePolicy)
	c.Ingest.InboxDir = getEnv("PDFRAG_INBOX_DIR", c.Ingest.InboxDir)

	c.Log.Level = strings.ToLower(getEnv("LOG_LEVEL", c.Log.Level))
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Log.File = getEnv("LOG_FILE", c.Log.File)
}

// Validate checks that all settings are usable together.
func (c *Config) Validate() error {
	if err := c.PolicySelector().Validate(); err != nil {
		return err
	}

	r := c.Retrieval
	if r.MaxK < 1 || r.DefaultK < 1 || r.DefaultK > r.MaxK {
		return fmt.Errorf("retrieval: need 1 <= default_k (%d) <= max_k (%d)", r.DefaultK, r.MaxK)
	}
	if r.MinQuestionLength < 1 || r.MaxQuestionLength < r.MinQuestionLength {
		return fmt.Errorf("retrieval: invalid question length bounds [%d, %d]", r.MinQuestionLength, r.MaxQuestionLength)
	}

	checks := []struct{ field, value string; allowed []string }{
		{"retrieval.scorer", r.Scorer, []string{"keyword", "tfidf", "embedding"}},
		{"index.backend", c.Index.Backend, []string{"memory", "sqlite"}},
		{"extractor.kind", c.Extractor.Kind, []string{"native", "sidecar"}},
		{"llm.provider", c.LLM.Provider, []string{"groq", "openai", "ollama", "none"}},
		{"audit.driver", c.Audit.Driver, []string{"none", "sqlite3", "postgres"}},
		{"ingest.duplicate_policy", c.Ingest.DuplicatePolicy, []string{DuplicateAllow, DuplicateReject}},
		{"log.format", c.Log.Format, []string{"console", "json"}},
	}
	for _, ch := range checks {
		if !slices.Contains(ch.allowed, ch.value) {
			return fmt.Errorf("%s: %q is not one of %s", ch.field, ch.value, strings.Join(ch.allowed, ", "))
		}
	}

	if c.Audit.Driver == "postgres" && c.Audit.DSN == "" {
		return fmt.Errorf("audit: postgres driver requires a dsn")
	}
	if c.Ingest.MaxFileSizeMB <= 0 {
		return fmt.Errorf("ingest: max_file_size_mb must be positive")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm: temperature %.2f out of range [0, 2]", c.LLM.Temperature)
	}
	return nil
}

// PolicySelector converts the chunking section.
func (c *Config) PolicySelector() usecases.PolicySelector {
	ch := c.Chunking
	return usecases.PolicySelector{
		Small:      usecases.ChunkPolicy{Size: ch.SmallSize, Overlap: ch.SmallOverlap},
		Medium:     usecases.ChunkPolicy{Size: ch.MediumSize, Overlap: ch.MediumOverlap},
		Large:      usecases.ChunkPolicy{Size: ch.LargeSize, Overlap: ch.LargeOverlap},
		MediumFrom: ch.MediumFrom,
		LargeFrom:  ch.LargeFrom,
	}
}

// QueryLimits converts the retrieval section.
func (c *Config) QueryLimits() usecases.QueryLimits {
	return usecases.QueryLimits{
		DefaultK:          c.Retrieval.DefaultK,
		MaxK:              c.Retrieval.MaxK,
		MinQuestionLength: c.Retrieval.MinQuestionLength,
		MaxQuestionLength: c.Retrieval.MaxQuestionLength,
	}
}

// MaxFileSize is the upload limit in bytes.
func (c *Config) MaxFileSize() int64 {
	return int64(c.Ingest.MaxFileSizeMB) << 20
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

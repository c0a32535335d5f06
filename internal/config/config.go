package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgallion1/chunkgrid/internal/chunkmodel"
	"github.com/dgallion1/chunkgrid/internal/rowtemplate"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     string
	LogLevel string

	// Auth
	APIKey string

	// Grid defaults
	ChunkSize        int
	ChunkMarkerClass string
	ReadyClass       string

	// Row templates
	RowFormat       string
	RowLineHeight   int
	RowWordsPerLine int
	RowPadding      int

	// Upload limits
	MaxUploadBytes int64

	// Grid state
	GridTTL time.Duration

	// Optional YAML overrides for grid options
	OptionsFile string

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port:     envOr("PORT", "8091"),
		LogLevel: envOr("LOG_LEVEL", "info"),

		APIKey: os.Getenv("CHUNKGRID_API_KEY"),

		ChunkSize:        envInt("CHUNK_SIZE", 50),
		ChunkMarkerClass: envOr("CHUNK_MARKER_CLASS", "chunk"),
		ReadyClass:       envOr("READY_CLASS", "chunk-ready"),

		RowFormat:       envOr("ROW_FORMAT", "html"),
		RowLineHeight:   envInt("ROW_LINE_HEIGHT", 20),
		RowWordsPerLine: envInt("ROW_WORDS_PER_LINE", 12),
		RowPadding:      envInt("ROW_PADDING", 8),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		GridTTL: envDuration("GRID_TTL", 1*time.Hour),

		OptionsFile: os.Getenv("OPTIONS_FILE"),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.RowLineHeight <= 0 {
		cfg.RowLineHeight = 20
	}
	if cfg.RowWordsPerLine <= 0 {
		cfg.RowWordsPerLine = 12
	}
	if cfg.RowPadding < 0 {
		cfg.RowPadding = 8
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.GridTTL <= 0 {
		cfg.GridTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("CHUNKGRID_API_KEY is required")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if f := rowtemplate.Format(c.RowFormat); f != rowtemplate.FormatHTML && f != rowtemplate.FormatMarkdown {
		return fmt.Errorf("ROW_FORMAT must be html or markdown, got %q", c.RowFormat)
	}
	return nil
}

// GridOptions returns the model options from env, overlaid with the options
// file when one is configured. Unless templateStart is given explicitly the
// chunk wrapper is a div carrying the marker class.
func (c Config) GridOptions() (chunkmodel.Options, error) {
	opts := chunkmodel.Options{
		ChunkSize:        c.ChunkSize,
		ChunkMarkerClass: c.ChunkMarkerClass,
		ReadyClass:       c.ReadyClass,
	}
	if c.OptionsFile != "" {
		return LoadOptions(c.OptionsFile, opts)
	}
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("grid options: %w", err)
	}
	return opts, nil
}

// LoadOptions reads a YAML options file over base. Fields missing from the
// file keep their base values. The merged options must pass Validate.
func LoadOptions(path string, base chunkmodel.Options) (chunkmodel.Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read options file: %w", err)
	}
	opts := base
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return base, fmt.Errorf("parse options file %s: %w", path, err)
	}
	if opts.ChunkSize <= 0 {
		return base, fmt.Errorf("options file %s: chunkSize must be positive, got %d", path, opts.ChunkSize)
	}
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return base, fmt.Errorf("options file %s: %w", path, err)
	}
	return opts, nil
}

// RowTemplates returns the row template configuration.
func (c Config) RowTemplates() rowtemplate.Config {
	return rowtemplate.Config{
		Format:       rowtemplate.Format(c.RowFormat),
		LineHeight:   c.RowLineHeight,
		WordsPerLine: c.RowWordsPerLine,
		Padding:      c.RowPadding,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

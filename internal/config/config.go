// Package config loads releaselink's TOML configuration.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// EnvConfigPath names the environment variable consulted when no path is given.
const EnvConfigPath = "RELEASELINK_CONFIG"

// ErrNoSources is returned when a command needs at least one source and none are configured.
var ErrNoSources = errors.New("no sources configured")

// Source is one parsed release batch on disk. Sources are merged in the order listed.
type Source struct {
	Name        string `toml:"name"`
	Path        string `toml:"path"`
	ExpectedMin int    `toml:"expected_min"`
}

// Defaults fill record fields a source left empty.
type Defaults struct {
	Label       string `toml:"label"`
	Format      string `toml:"format"`
	ReleaseDate string `toml:"release_date"`
}

// Enrich controls the post-merge genre passes.
type Enrich struct {
	ReferenceCSV  string   `toml:"reference_csv"`
	InferGenres   bool     `toml:"infer_genres"`
	LLM           bool     `toml:"llm"`
	AllowedGenres []string `toml:"allowed_genres"`
	LLMLimit      int      `toml:"llm_limit"`
}

// LLM contains provider settings for the optional genre classifier.
type LLM struct {
	Provider       string  `toml:"provider"`
	Model          string  `toml:"model"`
	Temperature    float64 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Build contains catalog build settings.
type Build struct {
	Aliases         bool   `toml:"aliases"`
	Locale          string `toml:"locale"`
	MinImageEntries int    `toml:"min_image_entries"`
	MaxParallel     int    `toml:"max_parallel"`
	CoverageWarning int    `toml:"coverage_warning_percent"`
}

// Output names the files written by a build.
type Output struct {
	Database string `toml:"database"`
	Report   string `toml:"report"`
}

// Server contains HTTP lookup API settings.
type Server struct {
	Bind string `toml:"bind"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for releaselink.
type Config struct {
	Sources  []Source `toml:"sources"`
	Defaults Defaults `toml:"defaults"`
	Enrich   Enrich   `toml:"enrich"`
	LLM      LLM      `toml:"llm"`
	Build    Build    `toml:"build"`
	Output   Output   `toml:"output"`
	Server   Server   `toml:"server"`
	Logging  Logging  `toml:"logging"`
}

// Load locates, parses and validates a configuration file. Relative paths in
// the file are resolved against the file's directory. When no file exists the
// defaults are returned. The resolved path and whether it existed are returned
// alongside the config.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	baseDir := "."
	if exists {
		baseDir = filepath.Dir(resolvedPath)
	}
	cfg.normalize(baseDir)

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		path = "releaselink.toml"
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return path, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %q is a directory", path)
	}
	return path, true, nil
}

// RequireSources returns ErrNoSources when no source is configured.
func (c *Config) RequireSources() error {
	if len(c.Sources) == 0 {
		return ErrNoSources
	}
	return nil
}

// SampleConfig returns the annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes the sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func (c *Config) normalize(baseDir string) {
	for i := range c.Sources {
		s := &c.Sources[i]
		s.Name = strings.TrimSpace(s.Name)
		s.Path = resolvePath(baseDir, s.Path)
		if s.Name == "" {
			s.Name = strings.TrimSuffix(filepath.Base(s.Path), filepath.Ext(s.Path))
		}
	}
	c.Enrich.ReferenceCSV = resolvePath(baseDir, c.Enrich.ReferenceCSV)
	c.Output.Database = resolvePath(baseDir, c.Output.Database)
	c.Output.Report = resolvePath(baseDir, c.Output.Report)

	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if strings.TrimSpace(c.Defaults.Label) == "" {
		c.Defaults.Label = defaultLabel
	}
	if strings.TrimSpace(c.Defaults.Format) == "" {
		c.Defaults.Format = defaultFormat
	}
}

func resolvePath(baseDir, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(baseDir, p)
}

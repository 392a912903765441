package config

import (
	"errors"
	"fmt"
	"slices"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateEnrich(); err != nil {
		return err
	}
	if err := c.validateBuild(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSources() error {
	seen := make(map[string]struct{}, len(c.Sources))
	for i, s := range c.Sources {
		if s.Path == "" {
			return fmt.Errorf("sources[%d].path must be set", i)
		}
		if s.ExpectedMin < 0 {
			return fmt.Errorf("sources[%d].expected_min must not be negative", i)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("sources[%d].name %q is used more than once", i, s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}

func (c *Config) validateEnrich() error {
	if !c.Enrich.LLM {
		return nil
	}
	if !slices.Contains([]string{"gemini", "ollama", "openai"}, c.LLM.Provider) {
		return fmt.Errorf("llm.provider must be gemini, ollama or openai, got %q", c.LLM.Provider)
	}
	if len(c.Enrich.AllowedGenres) == 0 {
		return errors.New("enrich.allowed_genres must not be empty when enrich.llm is enabled")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be between 0 and 2")
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	if c.Enrich.LLMLimit < 0 {
		return errors.New("enrich.llm_limit must not be negative")
	}
	return nil
}

func (c *Config) validateBuild() error {
	if _, err := language.Parse(c.Build.Locale); err != nil {
		return fmt.Errorf("build.locale: %w", err)
	}
	if c.Build.MinImageEntries < 0 {
		return errors.New("build.min_image_entries must not be negative")
	}
	if c.Build.MaxParallel < 0 {
		return errors.New("build.max_parallel must not be negative")
	}
	if c.Build.CoverageWarning < 0 || c.Build.CoverageWarning > 100 {
		return errors.New("build.coverage_warning_percent must be between 0 and 100")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains([]string{"auto", "text", "json"}, c.Logging.Format) {
		return fmt.Errorf("logging.format must be auto, text or json, got %q", c.Logging.Format)
	}
	if !slices.Contains([]string{"", "debug", "info", "warn", "error"}, c.Logging.Level) {
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

// LocaleTag returns the collation locale for artist sorting.
func (c *Config) LocaleTag() language.Tag {
	tag, err := language.Parse(c.Build.Locale)
	if err != nil {
		return language.English
	}
	return tag
}

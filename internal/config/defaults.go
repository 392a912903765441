package config

const (
	defaultLabel           = "Unknown"
	defaultFormat          = "LP"
	defaultLLMProvider     = "gemini"
	defaultLLMModel        = "gemini-2.5-flash"
	defaultLLMTimeout      = 30
	defaultLocale          = "en"
	defaultMinImageEntries = 100
	defaultMaxParallel     = 4
	defaultCoverageWarning = 95
	defaultDatabase        = "releaselink.db"
	defaultReport          = "releaselink_report.yaml"
	defaultBind            = ":8888"
	defaultLogLevel        = "info"
	defaultLogFormat       = "auto"
)

// DefaultAllowedGenres is the closed list the LLM classifier may answer with.
var DefaultAllowedGenres = []string{
	"Blues", "Country", "Electronic", "Folk", "Hip Hop", "Jazz", "Latin", "Metal",
	"Pop", "Punk", "Reggae", "Rock", "Soul/Funk", "Soundtrack", "World",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	allowed := make([]string, len(DefaultAllowedGenres))
	copy(allowed, DefaultAllowedGenres)

	return Config{
		Defaults: Defaults{
			Label:  defaultLabel,
			Format: defaultFormat,
		},
		Enrich: Enrich{
			InferGenres:   true,
			AllowedGenres: allowed,
		},
		LLM: LLM{
			Provider:       defaultLLMProvider,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeout,
		},
		Build: Build{
			Aliases:         true,
			Locale:          defaultLocale,
			MinImageEntries: defaultMinImageEntries,
			MaxParallel:     defaultMaxParallel,
			CoverageWarning: defaultCoverageWarning,
		},
		Output: Output{
			Database: defaultDatabase,
			Report:   defaultReport,
		},
		Server: Server{
			Bind: defaultBind,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}

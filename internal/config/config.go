package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Renderer backends.
const (
	RendererChrome = "chrome"
	RendererHTTP   = "http"
)

// LLM providers.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// Site profile (organization constants and selector cascades)
	ProfileFile string
	Profile     Profile

	// Files
	CorpusFile string
	KBDir      string
	StateDir   string

	// Rendering
	Renderer          string
	ListingTimeout    time.Duration
	DetailTimeout     time.Duration
	SettleDelay       time.Duration
	RequestsPerSecond float64
	UserAgent         string

	// Harvest limits
	MaxCandidates     int
	MaxDetails        int
	MaxRequirements   int
	DetailConcurrency int

	// Knowledge store / assistant configuration service
	VapiAPIKey  string
	VapiBaseURL string

	// LLM (corpus Q&A preview)
	LLMProvider string
	LLMModel    string
	OllamaHost  string
	AWSRegion   string

	OpenAIAPIKey    string
	AnthropicAPIKey string

	// SurrealDB run archive (disabled when URL is empty)
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string

	// Logging and metrics
	LogFile     string
	LogLevel    slog.Level
	MetricsFile string
}

// Load reads configuration from the environment, after loading the first
// .env found in the working directory or its parents.
func Load() (Config, error) {
	loadDotEnv()

	profileFile := getEnv("CIVICKB_PROFILE", "")
	profile := DefaultProfile()
	if profileFile != "" {
		p, err := LoadProfile(profileFile)
		if err != nil {
			return Config{}, err
		}
		profile = p
	}
	if listing := getEnv("CIVICKB_LISTING_URL", ""); listing != "" {
		profile.ListingURL = listing
	}

	return Config{
		ProfileFile: profileFile,
		Profile:     profile,

		CorpusFile: getEnv("CIVICKB_CORPUS_FILE", "services_data_real.json"),
		KBDir:      getEnv("CIVICKB_KB_DIR", "knowledge-base"),
		StateDir:   getEnv("CIVICKB_STATE_DIR", "."),

		Renderer:          strings.ToLower(getEnv("CIVICKB_RENDERER", RendererChrome)),
		ListingTimeout:    getEnvDuration("CIVICKB_LISTING_TIMEOUT", 10*time.Second),
		DetailTimeout:     getEnvDuration("CIVICKB_DETAIL_TIMEOUT", 15*time.Second),
		SettleDelay:       getEnvDuration("CIVICKB_SETTLE_DELAY", 2*time.Second),
		RequestsPerSecond: getEnvFloat("CIVICKB_REQUESTS_PER_SECOND", 1),
		UserAgent:         getEnv("CIVICKB_USER_AGENT", "civickb/1.0 (+knowledge base builder)"),

		MaxCandidates:     getEnvInt("CIVICKB_MAX_CANDIDATES", 10),
		MaxDetails:        getEnvInt("CIVICKB_MAX_DETAILS", 5),
		MaxRequirements:   getEnvInt("CIVICKB_MAX_REQUIREMENTS", 5),
		DetailConcurrency: getEnvInt("CIVICKB_DETAIL_CONCURRENCY", 1),

		VapiAPIKey:  getEnv("VAPI_API_KEY", ""),
		VapiBaseURL: strings.TrimRight(getEnv("VAPI_BASE_URL", "https://api.vapi.ai"), "/"),

		LLMProvider: strings.ToLower(getEnv("LLM_PROVIDER", ProviderOllama)),
		LLMModel:    getEnv("LLM_MODEL", "llama3.2"),
		OllamaHost:  getEnv("OLLAMA_HOST", "http://localhost:11434"),
		AWSRegion:   getEnv("AWS_REGION", "eu-central-1"),

		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),

		SurrealDBURL:       getEnv("SURREALDB_URL", ""),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "civickb"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "runs"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),

		LogFile:     getEnv("CIVICKB_LOG_FILE", ""),
		LogLevel:    parseLogLevel(getEnv("CIVICKB_LOG_LEVEL", "INFO")),
		MetricsFile: getEnv("CIVICKB_METRICS_FILE", ""),
	}, nil
}

// ArchiveEnabled reports whether runs should be archived to SurrealDB.
func (c Config) ArchiveEnabled() bool {
	return c.SurrealDBURL != ""
}

// loadDotEnv loads .env from the working directory or up to two parents.
func loadDotEnv() {
	for _, p := range []string{".env", filepath.Join("..", ".env"), filepath.Join("..", "..", ".env")} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("failed to load env file", "file", p, "error", err)
		}
		return
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", val)
		return defaultVal
	}
	return n
}

func getEnvFloat(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f <= 0 {
		slog.Warn("invalid number in environment, using default", "key", key, "value", val)
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", val)
		return defaultVal
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Storage    StorageConfig
	Worker     WorkerConfig
	Pipeline   PipelineConfig
	Embedding  EmbeddingConfig
	LLM        LLMConfig
	Qdrant     QdrantConfig
	Resilience ResilienceConfig

	// EnvFileLoaded is false when no .env file was found and only the
	// process environment and defaults apply.
	EnvFileLoaded bool
}

type ServerConfig struct {
	Port     string
	Env      string
	LogJSON  bool
	LogDebug bool
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string

	// CandidateAPI enables the persisted candidate intake routes.
	CandidateAPI bool
}

type StorageConfig struct {
	UploadPath  string
	MaxFileSize int64
}

type WorkerConfig struct {
	Concurrency  int
	PollInterval time.Duration
}

type PipelineConfig struct {
	ChunkSize     int
	ChunkOverlap  int
	TopK          int
	VectorBackend string
}

type EmbeddingConfig struct {
	Provider     string
	Model        string
	GoogleAPIKey string
	OpenAIAPIKey string
	OpenAIURL    string
}

type LLMConfig struct {
	Provider     string
	Model        string
	BaseURL      string
	APIKey       string
	GoogleAPIKey string
	Temperature  float32
	MaxTokens    int
}

type QdrantConfig struct {
	URL              string
	APIKey           string
	CollectionPrefix string
}

type ResilienceConfig struct {
	RemoteURL     string
	RemoteTimeout time.Duration
	LocalTimeout  time.Duration
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"

	BackendMemory = "memory"
	BackendQdrant = "qdrant"

	groqBaseURL = "https://api.groq.com/openai/v1"
)

func Load() *Config {
	envFileLoaded := godotenv.Load() == nil

	googleKey := getEnv("GOOGLE_API_KEY", getEnv("GEMINI_API_KEY", ""))
	llmProvider := strings.ToLower(getEnv("LLM_PROVIDER", ProviderGroq))

	return &Config{
		EnvFileLoaded: envFileLoaded,
		Server: ServerConfig{
			Port:     getEnv("PORT", "3000"),
			Env:      getEnv("ENV", "development"),
			LogJSON:  getEnvAsBool("LOG_JSON", false),
			LogDebug: getEnvAsBool("LOG_DEBUG", false),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			DBName:       getEnv("DB_NAME", "cv_align"),
			CandidateAPI: getEnvAsBool("ENABLE_CANDIDATE_API", false),
		},
		Storage: StorageConfig{
			UploadPath:  getEnv("UPLOAD_PATH", "./uploads"),
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 10485760),
		},
		Worker: WorkerConfig{
			Concurrency:  getEnvAsInt("WORKER_CONCURRENCY", 3),
			PollInterval: getEnvAsDuration("WORKER_POLL_INTERVAL", "10s"),
		},
		Pipeline: PipelineConfig{
			ChunkSize:     getEnvAsInt("CHUNK_SIZE", 1000),
			ChunkOverlap:  getEnvAsInt("CHUNK_OVERLAP", 200),
			TopK:          getEnvAsInt("RETRIEVAL_TOP_K", 5),
			VectorBackend: strings.ToLower(getEnv("VECTOR_BACKEND", BackendMemory)),
		},
		Embedding: EmbeddingConfig{
			Provider:     strings.ToLower(getEnv("EMBEDDING_PROVIDER", ProviderGemini)),
			Model:        getEnv("EMBEDDING_MODEL", ""),
			GoogleAPIKey: googleKey,
			OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
			OpenAIURL:    getEnv("OPENAI_BASE_URL", ""),
		},
		LLM: LLMConfig{
			Provider:     llmProvider,
			Model:        getEnv("LLM_MODEL", defaultLLMModel(llmProvider)),
			BaseURL:      getEnv("LLM_BASE_URL", defaultLLMBaseURL(llmProvider)),
			APIKey:       getEnv("LLM_API_KEY", defaultLLMKey(llmProvider)),
			GoogleAPIKey: googleKey,
			Temperature:  float32(getEnvAsFloat("LLM_TEMPERATURE", 0.1)),
			MaxTokens:    getEnvAsInt("LLM_MAX_TOKENS", 2048),
		},
		Qdrant: QdrantConfig{
			URL:              getEnv("QDRANT_URL", "http://localhost:6334"),
			APIKey:           getEnv("QDRANT_API_KEY", ""),
			CollectionPrefix: getEnv("QDRANT_COLLECTION_PREFIX", "cv_align_eval"),
		},
		Resilience: ResilienceConfig{
			RemoteURL:     getEnv("REMOTE_EVALUATOR_URL", ""),
			RemoteTimeout: getEnvAsDuration("REMOTE_TIMEOUT", "60s"),
			LocalTimeout:  getEnvAsDuration("LOCAL_TIMEOUT", "120s"),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// MissingCredentials lists the environment variables that must be set for
// the configured embedding and language model providers.
func (c *Config) MissingCredentials() []string {
	var missing []string

	switch c.Embedding.Provider {
	case ProviderOpenAI:
		if c.Embedding.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	default:
		if c.Embedding.GoogleAPIKey == "" {
			missing = append(missing, "GOOGLE_API_KEY")
		}
	}

	switch c.LLM.Provider {
	case ProviderGemini:
		if c.LLM.GoogleAPIKey == "" && !contains(missing, "GOOGLE_API_KEY") {
			missing = append(missing, "GOOGLE_API_KEY")
		}
	case ProviderOpenAI:
		if c.LLM.APIKey == "" && !contains(missing, "OPENAI_API_KEY") {
			missing = append(missing, "OPENAI_API_KEY")
		}
	default:
		if c.LLM.APIKey == "" {
			missing = append(missing, "GROQ_API_KEY")
		}
	}

	return missing
}

// ValidateCredentials returns an error naming every missing provider key.
func (c *Config) ValidateCredentials() error {
	if missing := c.MissingCredentials(); len(missing) > 0 {
		return fmt.Errorf("missing required API keys: %s", strings.Join(missing, ", "))
	}
	return nil
}

func defaultLLMModel(provider string) string {
	switch provider {
	case ProviderGemini:
		return "gemini-2.5-flash"
	case ProviderOpenAI:
		return "gpt-4o-mini"
	default:
		return "gemma2-9b-it"
	}
}

func defaultLLMBaseURL(provider string) string {
	if provider == ProviderGroq {
		return groqBaseURL
	}
	return ""
}

func defaultLLMKey(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return getEnv("OPENAI_API_KEY", "")
	case ProviderGroq:
		return getEnv("GROQ_API_KEY", "")
	}
	return ""
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

package config

import (
	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
	Storage  *storageConfig
	Llm      *llmConfig
	Google   *googleConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"recruitflow"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address        string `envconfig:"RECRUITFLOW_ADDRESS" default:":3443"`
	MetricsAddress string `envconfig:"RECRUITFLOW_METRICS_ADDRESS" default:":8080"`
	LogLevel       string `envconfig:"RECRUITFLOW_LOG_LEVEL" default:"info"`
	MaxBatchFiles  int    `envconfig:"RECRUITFLOW_MAX_BATCH_FILES" default:"20"`
}

type storageConfig struct {
	Endpoint  string `envconfig:"RECRUITFLOW_S3_ENDPOINT" default:"localhost:9000"`
	AccessKey string `envconfig:"RECRUITFLOW_S3_ACCESS_KEY" default:""`
	SecretKey string `envconfig:"RECRUITFLOW_S3_SECRET_KEY" default:""`
	Bucket    string `envconfig:"RECRUITFLOW_S3_BUCKET" default:"resumes"`
	UseSSL    bool   `envconfig:"RECRUITFLOW_S3_USE_SSL" default:"false"`
}

type llmConfig struct {
	OpenAiApiKey   string `envconfig:"RECRUITFLOW_OPENAI_API_KEY" default:""`
	OpenAiModel    string `envconfig:"RECRUITFLOW_OPENAI_MODEL" default:"gpt-4o-mini"`
	GroqApiKey     string `envconfig:"RECRUITFLOW_GROQ_API_KEY" default:""`
	GroqModel      string `envconfig:"RECRUITFLOW_GROQ_MODEL" default:"llama-3.3-70b-versatile"`
	EmbeddingModel string `envconfig:"RECRUITFLOW_EMBEDDING_MODEL" default:"text-embedding-3-small"`
	TimeoutSeconds int    `envconfig:"RECRUITFLOW_LLM_TIMEOUT_SECONDS" default:"60"`
}

type googleConfig struct {
	ClientID     string `envconfig:"RECRUITFLOW_GOOGLE_CLIENT_ID" default:""`
	ClientSecret string `envconfig:"RECRUITFLOW_GOOGLE_CLIENT_SECRET" default:""`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns a config backed by an in-memory sqlite database,
// used in tests.
func NewDefault() *Config {
	return &Config{
		Database: &dbConfig{Type: "sqlite", Name: ":memory:"},
		Service:  &svcConfig{Address: ":3443", MetricsAddress: ":8080", LogLevel: "info", MaxBatchFiles: 20},
		Storage:  &storageConfig{Endpoint: "localhost:9000", Bucket: "resumes"},
		Llm:      &llmConfig{TimeoutSeconds: 60},
		Google:   &googleConfig{},
	}
}

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Search  SearchConfig
	LLM     LLMConfig
	Storage StorageConfig
	Ingest  IngestConfig
	Redis   RedisConfig
	Ops     OpsConfig
	Ledger  LedgerConfig
	Logging LoggingConfig
}

// SearchConfig describes the hosted document search service.
type SearchConfig struct {
	Endpoint   string
	AdminKey   string
	APIVersion string
	TopK       int
}

type LLMConfig struct {
	Endpoint   string
	APIKey     string
	Model      string
	MaxTokens  int
	TimeoutSec int
}

// StorageConfig describes the object store holding feedback blobs.
type StorageConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

type IngestConfig struct {
	ChunkSize      int
	ChunkOverlap   int
	LinksFile      string
	TranscriptsDir string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type OpsConfig struct {
	Enabled bool
	Addr    string
}

type LedgerConfig struct {
	Path string
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/lumina")

	viper.SetEnvPrefix("LUMINA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validateSecrets(); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateSecrets fails startup when a required credential is absent. The
// session cannot run partially authenticated, so nothing here is retried.
func (c *Config) validateSecrets() error {
	required := map[string]string{
		"search.adminKey":   c.Search.AdminKey,
		"search.endpoint":   c.Search.Endpoint,
		"llm.apiKey":        c.LLM.APIKey,
		"storage.bucket":    c.Storage.Bucket,
		"storage.accessKey": c.Storage.AccessKey,
		"storage.secretKey": c.Storage.SecretKey,
	}

	var missing []string
	for name, value := range required {
		if value == "" {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required secrets: %s", strings.Join(missing, ", "))
	}

	return nil
}

func setDefaults() {
	// Secrets default to empty so the keys are registered for environment
	// lookup; validateSecrets rejects them when they stay empty.
	viper.SetDefault("search.endpoint", "")
	viper.SetDefault("search.adminKey", "")
	viper.SetDefault("search.apiVersion", "2021-04-30-Preview")
	viper.SetDefault("search.topK", 4)

	viper.SetDefault("llm.endpoint", "")
	viper.SetDefault("llm.apiKey", "")

	viper.SetDefault("storage.endpoint", "")
	viper.SetDefault("storage.bucket", "")
	viper.SetDefault("storage.accessKey", "")
	viper.SetDefault("storage.secretKey", "")

	viper.SetDefault("llm.model", "gpt-4o")
	viper.SetDefault("llm.maxTokens", 4000)
	viper.SetDefault("llm.timeoutSec", 120)

	viper.SetDefault("storage.region", "us-east-1")

	viper.SetDefault("ingest.chunkSize", 3000)
	viper.SetDefault("ingest.chunkOverlap", 300)
	viper.SetDefault("ingest.linksFile", "links.txt")
	viper.SetDefault("ingest.transcriptsDir", "MeetingTranscripts")

	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("ops.enabled", true)
	viper.SetDefault("ops.addr", "127.0.0.1:9301")

	viper.SetDefault("ledger.path", "./data/lumina.db")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "lumina.log")
}

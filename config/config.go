package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the assistant.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Dialogue  DialogueConfig  `mapstructure:"dialogue"`
	Sessions  SessionsConfig  `mapstructure:"sessions"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	Brand    string `mapstructure:"brand"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig selects and configures the generation/embedding provider.
type LLMConfig struct {
	Provider        string        `mapstructure:"provider"` // openai, gemini
	APIKey          string        `mapstructure:"api_key"`
	CompletionModel string        `mapstructure:"completion_model"`
	EmbeddingModel  string        `mapstructure:"embedding_model"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

func (l LLMConfig) Validate() error {
	if strings.TrimSpace(l.Provider) == "" {
		return fmt.Errorf("llm.provider required")
	}
	return nil
}

// KnowledgeConfig describes the document sources and the vector index.
type KnowledgeConfig struct {
	CSVFiles     []string `mapstructure:"csv_files"`
	TextFiles    []string `mapstructure:"text_files"`
	ProfilePath  string   `mapstructure:"profile_path"`
	IndexPath    string   `mapstructure:"index_path"`
	ChunkSize    int      `mapstructure:"chunk_size"`
	ChunkOverlap int      `mapstructure:"chunk_overlap"`
	TopK         int      `mapstructure:"top_k"`
	Retrieval    string   `mapstructure:"retrieval"` // vector (default) or hybrid
}

func (k KnowledgeConfig) Validate() error {
	if k.ChunkOverlap >= k.ChunkSize {
		return fmt.Errorf("knowledge.chunk_overlap must be smaller than knowledge.chunk_size")
	}
	if k.TopK < 1 {
		return fmt.Errorf("knowledge.top_k must be >= 1")
	}
	switch k.Retrieval {
	case "", "vector", "hybrid":
	default:
		return fmt.Errorf("knowledge.retrieval must be vector or hybrid")
	}
	return nil
}

// DialogueConfig contains turn orchestration budgets.
type DialogueConfig struct {
	RetrievalTimeout  time.Duration `mapstructure:"retrieval_timeout"`
	GenerationTimeout time.Duration `mapstructure:"generation_timeout"`
	MaxInflightCalls  int           `mapstructure:"max_inflight_calls"`
}

func (d DialogueConfig) Validate() error {
	if d.MaxInflightCalls < 1 {
		return fmt.Errorf("dialogue.max_inflight_calls must be >= 1")
	}
	if d.RetrievalTimeout <= 0 || d.GenerationTimeout <= 0 {
		return fmt.Errorf("dialogue timeouts must be positive")
	}
	return nil
}

// SessionsConfig selects the session store backend.
type SessionsConfig struct {
	Store string        `mapstructure:"store"` // inmemory (default) or redis
	TTL   time.Duration `mapstructure:"ttl"`
}

// StorageConfig contains backing store connection settings.
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains Postgres connection settings for the turn audit log.
type PostgresConfig struct {
	URL     string `mapstructure:"url"`
	Host    string `mapstructure:"host"`
	Port    string `mapstructure:"port"`
	User    string `mapstructure:"user"`
	Pass    string `mapstructure:"password"`
	DBName  string `mapstructure:"dbname"`
	SSLMode string `mapstructure:"sslmode"`
}

// DSN builds a postgres connection string, preferring an explicit URL.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", fmt.Errorf("postgres not configured (storage.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Pass, p.Host, port, p.DBName, ssl), nil
}

// RedisConfig contains Redis connection settings for the session store.
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Pass string `mapstructure:"password"`
	DB   int    `mapstructure:"db"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// TelemetryConfig contains monitoring settings.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig loads config from file with environment overrides (ESTATELINE_*).
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("general.brand", "Baaz Landmark")
	viper.SetDefault("server.address", ":10010")
	viper.SetDefault("llm.provider", "gemini")
	viper.SetDefault("llm.temperature", 0.2)
	viper.SetDefault("llm.max_tokens", 1024)
	viper.SetDefault("llm.timeout", 30*time.Second)
	viper.SetDefault("knowledge.index_path", "estateline_index.gob")
	viper.SetDefault("knowledge.chunk_size", 1000)
	viper.SetDefault("knowledge.chunk_overlap", 200)
	viper.SetDefault("knowledge.top_k", 2)
	viper.SetDefault("knowledge.retrieval", "vector")
	viper.SetDefault("dialogue.retrieval_timeout", 3*time.Second)
	viper.SetDefault("dialogue.generation_timeout", 4*time.Second)
	viper.SetDefault("dialogue.max_inflight_calls", 8)
	viper.SetDefault("sessions.store", "inmemory")
	viper.SetDefault("sessions.ttl", 30*time.Minute)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("ESTATELINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.LLM.Validate(); err != nil {
		panic(err)
	}
	if err := config.Knowledge.Validate(); err != nil {
		panic(err)
	}
	if err := config.Dialogue.Validate(); err != nil {
		panic(err)
	}
	if config.Sessions.Store == "redis" {
		if err := config.Storage.Redis.Validate(); err != nil {
			panic(err)
		}
	}
	return &config
}

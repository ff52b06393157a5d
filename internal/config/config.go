package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	DBPath      string           `json:"db_path"`
	Port        int              `json:"port"`
	CacheDir    string           `json:"cache_dir"`
	DocsDir     string           `json:"docs_dir"`
	CORSOrigin  []string         `json:"cors_origin"`
	RateLimitMS int              `json:"rate_limit_ms"`
	LogConfig   logger.LogConfig `json:"log_config"`
	Chat        ChatConfig       `json:"chat"`
	Embed       EmbedConfig      `json:"embed"`
	RAG         RAGConfig        `json:"rag"`
	MCP         MCPConfig        `json:"mcp"`
	Jobs        JobsConfig       `json:"jobs"`
}

type ChatConfig struct {
	Provider string                 `json:"provider"`
	Model    string                 `json:"model"`
	Args     map[string]interface{} `json:"args"`
}

type EmbedConfig struct {
	Provider      string                 `json:"provider"`
	Model         string                 `json:"model"`
	Args          map[string]interface{} `json:"args"`
	LRUSize       int                    `json:"lru_size"`
	LRUTTLSeconds int                    `json:"lru_ttl_seconds"`
}

type RAGConfig struct {
	ChunkWords    int     `json:"chunk_words"`
	TopK          int     `json:"top_k"`
	MinSimilarity float64 `json:"min_similarity"`
}

type MCPConfig struct {
	Enabled map[string]bool `json:"enabled"`
}

type JobsConfig struct {
	CacheCleanupSpec string `json:"cache_cleanup_spec"`
	CacheMaxAgeDays  int    `json:"cache_max_age_days"`
	RescanSpec       string `json:"rescan_spec"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	// Secrets like api keys come from the environment, not the file.
	raw = []byte(os.ExpandEnv(string(raw)))

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db_path is required")
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.CacheDir == "" {
		return nil, fmt.Errorf("cache_dir is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Chat.Provider == "" {
		cfg.Chat.Provider = "ollama"
	}
	if cfg.Embed.Provider == "" {
		cfg.Embed.Provider = "ollama"
	}
	if cfg.Embed.Model == "" {
		cfg.Embed.Model = "nomic-embed-text"
	}
	if cfg.Embed.LRUSize == 0 {
		cfg.Embed.LRUSize = 2048
	}
	if cfg.Embed.LRUTTLSeconds == 0 {
		cfg.Embed.LRUTTLSeconds = 3600
	}
	if cfg.RAG.ChunkWords == 0 {
		cfg.RAG.ChunkWords = 300
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 3
	}
	if cfg.Jobs.CacheCleanupSpec == "" {
		cfg.Jobs.CacheCleanupSpec = "0 4 * * *"
	}
	if cfg.Jobs.RescanSpec == "" {
		cfg.Jobs.RescanSpec = "*/10 * * * *"
	}
	return &cfg, nil
}

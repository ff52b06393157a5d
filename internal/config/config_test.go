package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{"db_path":"/tmp/r.db","port":8080,"cache_dir":"/tmp/cache"}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "ollama", cfg.Chat.Provider)
	require.Equal(t, "nomic-embed-text", cfg.Embed.Model)
	require.Equal(t, 300, cfg.RAG.ChunkWords)
	require.Equal(t, 3, cfg.RAG.TopK)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.NotEmpty(t, cfg.Jobs.CacheCleanupSpec)
}

func TestLoadRejectsMissingRequiredFields(t *testing.T) {
	for _, body := range []string{
		`{}`,
		`{"db_path":"/tmp/r.db"}`,
		`{"db_path":"/tmp/r.db","port":8080}`,
	} {
		_, err := Load(writeConfig(t, body))
		require.Error(t, err)
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_API_KEY", "sk-test-123")
	path := writeConfig(t, `{
		"db_path": "/tmp/r.db",
		"port": 8080,
		"cache_dir": "/tmp/cache",
		"chat": {"provider": "openai", "args": {"api_key": "${TEST_API_KEY}"}}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "sk-test-123", cfg.Chat.Args["api_key"])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

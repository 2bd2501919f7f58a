package bootstrap

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort               string `mapstructure:"SERVER_PORT"`
	EnginePaths              string `mapstructure:"ENGINE_PATHS"`
	EngineHandshakeTimeoutMs int    `mapstructure:"ENGINE_HANDSHAKE_TIMEOUT_MS"`
	EnginePollIntervalMs     int    `mapstructure:"ENGINE_POLL_INTERVAL_MS"`
	EngineDefaultDepth       int    `mapstructure:"ENGINE_DEFAULT_DEPTH"`
	ReviewDepth              int    `mapstructure:"REVIEW_DEPTH"`
	RedisUrl                 string `mapstructure:"REDIS_URL"`
	MongoUri                 string `mapstructure:"MONGO_URI"`
	IsLocalCors              bool   `mapstructure:"LOCAL_CORS"`
	MistralApiKey            string `mapstructure:"MISTRAL_API_KEY"`
	MistralAgentKey          string `mapstructure:"MISTRAL_AGENT_KEY"`
	ArchiveImportDir         string `mapstructure:"ARCHIVE_IMPORT_DIR"`
}

func Setup(cfgPath string) (*Config, error) {
	viper.SetConfigFile(cfgPath)

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("ENGINE_PATHS", "stockfish,/usr/games/stockfish,/usr/local/bin/stockfish")
	viper.SetDefault("ENGINE_HANDSHAKE_TIMEOUT_MS", 5000)
	viper.SetDefault("ENGINE_POLL_INTERVAL_MS", 100)
	viper.SetDefault("ENGINE_DEFAULT_DEPTH", 12)
	viper.SetDefault("REVIEW_DEPTH", 12)

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// EngineCandidates returns the ranked list of engine binaries to try on startup.
func (c *Config) EngineCandidates() []string {
	parts := strings.Split(c.EnginePaths, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

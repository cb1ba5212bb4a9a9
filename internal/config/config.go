package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	// Secret signs session cookies and, when set, is required to verify
	// handshake tokens.
	Secret     string `mapstructure:"secret"`
	SQLitePath string `mapstructure:"sqlite_path"`
	// RedisURL selects the distributed cursor store; empty keeps cursors
	// in process memory.
	RedisURL    string         `mapstructure:"redis_url"`
	DefaultPlan string         `mapstructure:"default_plan"`
	Tiers       map[string]int `mapstructure:"tiers"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("read_limit", 65536)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("sqlite_path", "data/collab.db")
	v.SetDefault("default_plan", "free")
	v.SetDefault("tiers", map[string]int{
		"free":     5,
		"pro":      25,
		"business": 100,
	})

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

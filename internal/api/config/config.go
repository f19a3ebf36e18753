package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg
func LoadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file not found: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	Cfg = &cfg

	return nil
}

// applyDefaults 兜底缺省项，保证同步层在最小配置下可用
func applyDefaults(cfg *Config) {
	if cfg.Sync.PresenceChannel == "" {
		cfg.Sync.PresenceChannel = "global"
	}
	if cfg.Sync.HeartbeatTTL <= 0 {
		cfg.Sync.HeartbeatTTL = 60
	}
	if cfg.KafkaFeed.TopicPrefix == "" {
		cfg.KafkaFeed.TopicPrefix = "driftline-row-"
	}
	if cfg.KafkaFeed.GroupID == "" {
		cfg.KafkaFeed.GroupID = "driftline-feed"
	}
}

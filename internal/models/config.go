package models

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Job names understood by the scheduler. The set is fixed; config entries
// under other keys are ignored.
const (
	JobWeeklyInsumoGeneration = "weekly-insumo-generation"
	JobWeeklyOrderGeneration  = "weekly-order-generation"
	JobDailyFinalization      = "daily-finalization"
	JobPeriodicAlertPoll      = "periodic-alert-poll"
)

// JobConfig describes one scheduled job. Weekly jobs set Day and Time, daily
// jobs set only Time, polling jobs set Interval.
type JobConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Day      string        `mapstructure:"day"`      // e.g. "Monday"
	Time     string        `mapstructure:"time"`     // "HH:MM", 24h
	Interval time.Duration `mapstructure:"interval"` // e.g. "30m"
}

type TelegramConfig struct {
	BotToken    string        `mapstructure:"bot_token"`
	ChatID      int64         `mapstructure:"chat_id"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Bucket  string `mapstructure:"bucket"`
	Region  string `mapstructure:"region"`
	Prefix  string `mapstructure:"prefix"`
}

type Config struct {
	DatabaseURL     string               `mapstructure:"database_url"`
	SafetyBuffer    float64              `mapstructure:"safety_buffer"`  // shortfall over-order fraction, default 0.2
	DinerStrategy   string               `mapstructure:"diner_strategy"` // "estimate" or "split"
	KafkaEnabled    bool                 `mapstructure:"kafka_enabled"`
	KafkaBrokerList string               `mapstructure:"kafka_broker_list"`
	Telegram        TelegramConfig       `mapstructure:"telegram"`
	Archive         ArchiveConfig        `mapstructure:"archive"`
	Jobs            map[string]JobConfig `mapstructure:"jobs"`
}

// LoadConfig initializes and reads the configuration using Viper
func LoadConfig(cfgFile string) (*Config, error) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("json")
	}

	viper.AutomaticEnv()

	viper.SetDefault("safety_buffer", 0.2)
	viper.SetDefault("diner_strategy", "estimate")
	viper.SetDefault("telegram.send_timeout", "10s")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := decodeConfig()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// WatchConfig re-decodes the configuration whenever the file changes on disk
// and hands the result to onChange. Decode failures keep the previous
// configuration in effect.
func WatchConfig(onChange func(*Config)) {
	viper.OnConfigChange(func(in fsnotify.Event) {
		cfg, err := decodeConfig()
		if err != nil {
			fmt.Printf("ignoring config change %s: %v\n", in.Name, err)
			return
		}
		onChange(cfg)
	})
	viper.WatchConfig()
}

func decodeConfig() (*Config, error) {
	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			mapstructure.StringToTimeDurationHookFunc(),
		)
	})
	if err := viper.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	if config.Telegram.SendTimeout <= 0 {
		config.Telegram.SendTimeout = 10 * time.Second
	}
	return &config, nil
}

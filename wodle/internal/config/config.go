package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/telhawk-systems/telhawk-wodles/common/messaging"
	"github.com/telhawk-systems/telhawk-wodles/common/messaging/nats"
	"github.com/telhawk-systems/telhawk-wodles/wodle/internal/sources/file"
	"github.com/telhawk-systems/telhawk-wodles/wodle/internal/sources/jetstream"
	"github.com/telhawk-systems/telhawk-wodles/wodle/pkg/analysisd"
)

type Config struct {
	Analysisd AnalysisdConfig `mapstructure:"analysisd" yaml:"analysisd"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	File      FileConfig      `mapstructure:"file" yaml:"file"`
	JetStream JetStreamConfig `mapstructure:"jetstream" yaml:"jetstream"`
	Seed      SeedConfig      `mapstructure:"seed" yaml:"seed"`
}

type AnalysisdConfig struct {
	Socket string `mapstructure:"socket" yaml:"socket"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type MetricsConfig struct {
	// Textfile is written after each run when set.
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

type FileConfig struct {
	Path         string `mapstructure:"path" yaml:"path"`
	MaxLineBytes int    `mapstructure:"max_line_bytes" yaml:"max_line_bytes"`
}

type JetStreamConfig struct {
	URL         string        `mapstructure:"url" yaml:"url"`
	Name        string        `mapstructure:"name" yaml:"name"`
	Token       string        `mapstructure:"token" yaml:"-"`
	Stream      string        `mapstructure:"stream" yaml:"stream"`
	Consumer    string        `mapstructure:"consumer" yaml:"consumer"`
	Subject     string        `mapstructure:"subject" yaml:"subject"`
	Provision   bool          `mapstructure:"provision" yaml:"provision"`
	MaxMessages int           `mapstructure:"max_messages" yaml:"max_messages"`
	BatchSize   int           `mapstructure:"batch_size" yaml:"batch_size"`
	FetchWait   time.Duration `mapstructure:"fetch_wait" yaml:"fetch_wait"`
}

type SeedConfig struct {
	Count      int           `mapstructure:"count" yaml:"count"`
	Seed       int64         `mapstructure:"seed" yaml:"seed"`
	Kinds      []string      `mapstructure:"kinds" yaml:"kinds"`
	TimeSpread time.Duration `mapstructure:"time_spread" yaml:"time_spread"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	natsDefaults := nats.DefaultConfig()
	v.SetDefault("analysisd.socket", analysisd.DefaultSocketPath)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("file.path", file.Stdin)
	v.SetDefault("file.max_line_bytes", file.DefaultMaxLineBytes)
	v.SetDefault("jetstream.url", natsDefaults.URL)
	v.SetDefault("jetstream.name", natsDefaults.Name)
	v.SetDefault("jetstream.token", "")
	v.SetDefault("jetstream.stream", messaging.StreamWodleEvents)
	v.SetDefault("jetstream.consumer", messaging.ConsumerWodleForwarder)
	v.SetDefault("jetstream.subject", messaging.WodleEventsSubject(analysisd.GCloud.Integration))
	v.SetDefault("jetstream.provision", false)
	v.SetDefault("jetstream.max_messages", jetstream.DefaultMaxMessages)
	v.SetDefault("jetstream.batch_size", jetstream.DefaultBatchSize)
	v.SetDefault("jetstream.fetch_wait", jetstream.DefaultFetchWait.String())
	v.SetDefault("seed.count", 10)
	v.SetDefault("seed.seed", 0)
	v.SetDefault("seed.kinds", []string{})
	v.SetDefault("seed.time_spread", "0s")

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/telhawk/wodle")
	}

	// Environment variables override
	v.SetEnvPrefix("WODLE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate rejects values no run could succeed with.
func (c *Config) Validate() error {
	var errs []error
	if c.Analysisd.Socket == "" {
		errs = append(errs, errors.New("analysisd.socket must be set"))
	}
	if c.File.MaxLineBytes <= 0 {
		errs = append(errs, fmt.Errorf("file.max_line_bytes must be positive, got %d", c.File.MaxLineBytes))
	}
	if c.JetStream.MaxMessages <= 0 {
		errs = append(errs, fmt.Errorf("jetstream.max_messages must be positive, got %d", c.JetStream.MaxMessages))
	}
	if c.JetStream.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("jetstream.batch_size must be positive, got %d", c.JetStream.BatchSize))
	}
	if c.Seed.Count < 0 {
		errs = append(errs, fmt.Errorf("seed.count must not be negative, got %d", c.Seed.Count))
	}
	return errors.Join(errs...)
}

package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort         = 3306
	DefaultConcurrency  = 8
	DefaultQueryTimeout = 5 * time.Second
	DefaultListen       = ":1337"
	DefaultButtonsTable = "jafi.till_buttons"

	SinkConsole = "console"
	SinkKafka   = "kafka"
)

var ErrUnsupportedSource = errors.New("source.type must be mysql")

type Config struct {
	Source    SourceConfig   `yaml:"source"`
	Databases DatabaseFilter `yaml:"databases"`
	Walk      WalkConfig     `yaml:"walk"`
	Report    ReportConfig   `yaml:"report"`
	Log       LogConfig      `yaml:"log"`
	Buttons   ButtonsConfig  `yaml:"buttons"`
}

type SourceConfig struct {
	Type     string            `yaml:"type"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	User     string            `yaml:"user"`
	Password string            `yaml:"password"`
	Params   map[string]string `yaml:"params"`
}

// Addr is the host:port pair the driver dials.
func (s SourceConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type DatabaseFilter struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// Allows reports whether a database takes part in the walk. An empty
// include list admits everything not excluded.
func (f DatabaseFilter) Allows(name string) bool {
	for _, ex := range f.Exclude {
		if ex == name {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, in := range f.Include {
		if in == name {
			return true
		}
	}
	return false
}

type WalkConfig struct {
	Concurrency  int           `yaml:"concurrency"`
	QueryTimeout time.Duration `yaml:"queryTimeout"`
}

type ReportConfig struct {
	Sink  string      `yaml:"sink"`
	Kafka KafkaConfig `yaml:"kafka"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type ButtonsConfig struct {
	Listen string `yaml:"listen"`
	Table  string `yaml:"table"`
	Static string `yaml:"static"`
}

func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}

	_, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// .env is optional
	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SCHEMAWALK_HOST"); v != "" {
		c.Source.Host = v
	}
	if v := os.Getenv("SCHEMAWALK_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SCHEMAWALK_PORT: %w", err)
		}
		c.Source.Port = port
	}
	if v := os.Getenv("SCHEMAWALK_USER"); v != "" {
		c.Source.User = v
	}
	if v := os.Getenv("SCHEMAWALK_PASSWORD"); v != "" {
		c.Source.Password = v
	}
	if v := os.Getenv("SCHEMAWALK_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Buttons.Listen = ":" + v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Source.Port == 0 {
		c.Source.Port = DefaultPort
	}
	if c.Walk.Concurrency == 0 {
		c.Walk.Concurrency = DefaultConcurrency
	}
	if c.Walk.QueryTimeout == 0 {
		c.Walk.QueryTimeout = DefaultQueryTimeout
	}
	if c.Report.Sink == "" {
		c.Report.Sink = SinkConsole
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Buttons.Listen == "" {
		c.Buttons.Listen = DefaultListen
	}
	if c.Buttons.Table == "" {
		c.Buttons.Table = DefaultButtonsTable
	}
}

func (c *Config) validate() error {
	if c.Source.Type != "mysql" {
		return ErrUnsupportedSource
	}
	if c.Source.Host == "" {
		return errors.New("source.host is required")
	}
	if c.Source.User == "" {
		return errors.New("source.user is required")
	}
	if c.Source.Port < 1 || c.Source.Port > 65535 {
		return fmt.Errorf("source.port %d out of range", c.Source.Port)
	}
	if c.Walk.Concurrency < 0 {
		return errors.New("walk.concurrency must not be negative")
	}
	if c.Walk.QueryTimeout < 0 {
		return errors.New("walk.queryTimeout must not be negative")
	}
	switch c.Report.Sink {
	case SinkConsole:
	case SinkKafka:
		brokers := c.Report.Kafka.Brokers[:0]
		for _, b := range c.Report.Kafka.Brokers {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		c.Report.Kafka.Brokers = brokers
		if len(brokers) == 0 {
			return errors.New("report.kafka.brokers is required for the kafka sink")
		}
		if c.Report.Kafka.Topic == "" {
			return errors.New("report.kafka.topic is required for the kafka sink")
		}
	default:
		return fmt.Errorf("unknown report.sink %q", c.Report.Sink)
	}
	return nil
}

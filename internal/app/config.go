package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Listen    string    `yaml:"listen"`
	RateLimit RateLimit `yaml:"rate_limit"`
}

// RateLimit 每秒请求数和突发容量，RPS<=0 表示不限流。
type RateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type Log struct {
	Level string `yaml:"level"`
}

// Inventory 模拟机群参数。ReferenceTime 为空时使用进程启动时间。
type Inventory struct {
	ReferenceTime string `yaml:"reference_time"`
}

type Neo4j struct {
	URI                  string `yaml:"uri"`
	Username             string `yaml:"username"`
	Password             string `yaml:"password"`
	Database             string `yaml:"database"`
	MaxConnectionPool    int    `yaml:"max_connections"`
	ConnectTimeoutSecond int    `yaml:"connect_timeout_second"`
}

type Export struct {
	Enabled       bool   `yaml:"enabled"`
	InitialExport bool   `yaml:"initial_export"`
	JobCron       string `yaml:"job_cron"`
	BatchSize     int    `yaml:"batch_size"`
	Retry         Retry  `yaml:"retry"`
}

type Retry struct {
	Attempts       int `yaml:"attempts"`
	BackoffSeconds int `yaml:"backoff_seconds"`
}

type Patrol struct {
	Cron string `yaml:"cron"`
}

type Config struct {
	HTTP      HTTP      `yaml:"http"`
	Log       Log       `yaml:"log"`
	Inventory Inventory `yaml:"inventory"`
	Neo4j     Neo4j     `yaml:"neo4j"`
	Export    Export    `yaml:"export"`
	Patrol    Patrol    `yaml:"patrol"`
}

// LoadConfig 从文件加载配置并补齐默认值。
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("读取配置失败: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("解析配置失败: %w", err)
	}
	cfg.ApplyDefaults()
	if _, err := cfg.Inventory.Reference(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyDefaults 为未配置的字段填充默认值。
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.HTTP.Listen) == "" {
		c.HTTP.Listen = ":8080"
	}
	if c.HTTP.RateLimit.RPS > 0 && c.HTTP.RateLimit.Burst <= 0 {
		c.HTTP.RateLimit.Burst = int(c.HTTP.RateLimit.RPS)
		if c.HTTP.RateLimit.Burst < 1 {
			c.HTTP.RateLimit.Burst = 1
		}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Export.BatchSize <= 0 {
		c.Export.BatchSize = 500
	}
	if c.Export.Retry.Attempts <= 0 {
		c.Export.Retry.Attempts = 3
	}
	if c.Export.Retry.BackoffSeconds <= 0 {
		c.Export.Retry.BackoffSeconds = 1
	}
	if c.Patrol.Cron == "" {
		c.Patrol.Cron = "@every 10m"
	}
}

// Reference 解析参考时间，空串返回零值。
func (i Inventory) Reference() (time.Time, error) {
	s := strings.TrimSpace(i.ReferenceTime)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("inventory.reference_time 格式错误: %w", err)
	}
	return t, nil
}

// RetryBackoff 返回首次重试间隔。
func (e Export) RetryBackoff() time.Duration {
	return time.Duration(e.Retry.BackoffSeconds) * time.Second
}

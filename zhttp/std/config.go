package std

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 服务器配置，可从 YAML 文件加载
type Config struct {
	Name              string        `yaml:"name"`
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	// MaxBodyBytes 请求体上限，<= 0 表示不限制
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
	H2C          bool   `yaml:"h2c"`
	ReusePort    bool   `yaml:"reuse_port"`
	LogLevel     string `yaml:"log_level"`
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Name:              "zapi",
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
	}
}

// LoadConfig 读取 YAML 配置文件，未出现的字段保留默认值
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("std: read config: %w", err)
	}
	return ParseConfig(b)
}

// ParseConfig 解析 YAML 配置
func ParseConfig(b []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("std: parse config: %w", err)
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewLogger 按配置的日志级别创建输出到 stderr 的文本日志
func NewLogger(cfg Config) *slog.Logger {
	lv := new(slog.LevelVar)
	if l, err := parseLevel(cfg.LogLevel); err == nil {
		lv.Set(l)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv}))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("std: unknown log level %q", s)
}

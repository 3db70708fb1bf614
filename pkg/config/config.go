package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tarun-kavipurapu/lan-dfs/pkg/transport/tcp"
)

const (
	DefaultPort            = 4001
	DefaultMetricsInterval = time.Minute
)

// Config is everything a node needs besides its identity.
type Config struct {
	Port            int
	StoragePath     string
	Bootstrap       []string // host:port of nodes to PING at start
	LogLevel        string
	MaxMessageSize  int64
	MetricsInterval time.Duration
}

// DefaultStoragePath is where a node on port keeps its data when
// STORAGE_PATH is unset.
func DefaultStoragePath(port int) string {
	return filepath.Join("data", fmt.Sprintf("node-%d", port))
}

// FromEnv reads PORT, STORAGE_PATH, BOOTSTRAP, DFS_LOG_LEVEL (or LOG_LEVEL),
// DFS_MAX_MESSAGE_SIZE and DFS_METRICS_INTERVAL.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:            DefaultPort,
		MaxMessageSize:  tcp.DefaultMaxMessageSize,
		MetricsInterval: DefaultMetricsInterval,
	}

	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("PORT=%q: %w", v, err)
		}
		cfg.Port = port
	}

	cfg.StoragePath = strings.TrimSpace(os.Getenv("STORAGE_PATH"))
	cfg.Bootstrap = SplitList(os.Getenv("BOOTSTRAP"))

	cfg.LogLevel = strings.TrimSpace(os.Getenv("DFS_LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	}

	if v := strings.TrimSpace(os.Getenv("DFS_MAX_MESSAGE_SIZE")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("DFS_MAX_MESSAGE_SIZE=%q: %w", v, err)
		}
		cfg.MaxMessageSize = n
	}

	if v := strings.TrimSpace(os.Getenv("DFS_METRICS_INTERVAL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("DFS_METRICS_INTERVAL=%q: %w", v, err)
		}
		cfg.MetricsInterval = d
	}

	return cfg, nil
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Finalize fills derived defaults. Call it after flags have been applied.
func (c *Config) Finalize() {
	if c.StoragePath == "" {
		c.StoragePath = DefaultStoragePath(c.Port)
	}
}

func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.StoragePath == "" {
		return fmt.Errorf("storage path is empty")
	}
	if c.MaxMessageSize <= 0 {
		return fmt.Errorf("max message size must be positive, got %d", c.MaxMessageSize)
	}
	for _, addr := range c.Bootstrap {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("bootstrap peer %q: %w", addr, err)
		}
	}
	return nil
}

// LogFile is where the CLI writes the node's log.
func (c Config) LogFile() string {
	return filepath.Join(c.StoragePath, "logs", "dfs-node.log")
}

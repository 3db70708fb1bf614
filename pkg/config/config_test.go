package config

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"tarun-kavipurapu/lan-dfs/pkg/transport/tcp"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORAGE_PATH", "BOOTSTRAP", "DFS_LOG_LEVEL", "LOG_LEVEL", "DFS_MAX_MESSAGE_SIZE", "DFS_METRICS_INTERVAL"} {
		t.Setenv(k, "")
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	cfg.Finalize()

	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if want := filepath.Join("data", "node-4001"); cfg.StoragePath != want {
		t.Errorf("StoragePath = %q, want %q", cfg.StoragePath, want)
	}
	if cfg.MaxMessageSize != tcp.DefaultMaxMessageSize {
		t.Errorf("MaxMessageSize = %d, want %d", cfg.MaxMessageSize, tcp.DefaultMaxMessageSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "5000")
	t.Setenv("STORAGE_PATH", "/tmp/dfs-a")
	t.Setenv("BOOTSTRAP", "10.0.0.1:4001, ,10.0.0.2:4002")
	t.Setenv("DFS_LOG_LEVEL", "debug")
	t.Setenv("DFS_MAX_MESSAGE_SIZE", "1024")
	t.Setenv("DFS_METRICS_INTERVAL", "5s")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	cfg.Finalize()

	want := Config{
		Port:            5000,
		StoragePath:     "/tmp/dfs-a",
		Bootstrap:       []string{"10.0.0.1:4001", "10.0.0.2:4002"},
		LogLevel:        "debug",
		MaxMessageSize:  1024,
		MetricsInterval: 5 * time.Second,
	}
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("FromEnv() = %+v, want %+v", cfg, want)
	}
}

func TestFromEnvBadPort(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	if _, err := FromEnv(); err == nil {
		t.Errorf("FromEnv() with PORT=not-a-port returned no error")
	}
}

func TestValidate(t *testing.T) {
	good := Config{Port: 4001, StoragePath: "x", MaxMessageSize: 1}
	bad := []Config{
		{Port: 70000, StoragePath: "x", MaxMessageSize: 1},
		{Port: 4001, MaxMessageSize: 1},
		{Port: 4001, StoragePath: "x"},
		{Port: 4001, StoragePath: "x", MaxMessageSize: 1, Bootstrap: []string{"no-port"}},
	}

	if err := good.Validate(); err != nil {
		t.Errorf("Validate(%+v) = %v, want nil", good, err)
	}
	for _, c := range bad {
		if err := c.Validate(); err == nil {
			t.Errorf("Validate(%+v) = nil, want error", c)
		}
	}
}

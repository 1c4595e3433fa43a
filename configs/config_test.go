package configs

import (
	"testing"
	"time"
)

func TestDefaultConfigValidation(t *testing.T) {
	// 测试 DefaultConfig 可以通过验证
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig validation failed: %v", err)
	}
}

func TestServerConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  ServerConfig
		wantErr bool
	}{
		{
			name: "valid config passes",
			config: ServerConfig{
				Host:         "0.0.0.0",
				Port:         8080,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 30 * time.Second,
			},
			wantErr: false,
		},
		{
			name: "zero port fails",
			config: ServerConfig{
				Port:         0,
				ReadTimeout:  time.Second,
				WriteTimeout: time.Second,
			},
			wantErr: true,
		},
		{
			name: "port above range fails",
			config: ServerConfig{
				Port:         70000,
				ReadTimeout:  time.Second,
				WriteTimeout: time.Second,
			},
			wantErr: true,
		},
		{
			name: "zero read timeout fails",
			config: ServerConfig{
				Port:         8080,
				WriteTimeout: time.Second,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("ServerConfig.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPlantIDConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  PlantIDConfig
		wantErr bool
	}{
		{
			name: "valid header auth passes",
			config: PlantIDConfig{
				URL:      "https://plant.id/api/v3/identification",
				AuthMode: "header",
			},
			wantErr: false,
		},
		{
			name: "valid body auth passes",
			config: PlantIDConfig{
				URL:      "https://plant.id/api/v3/identification",
				AuthMode: "body",
			},
			wantErr: false,
		},
		{
			name: "missing url fails",
			config: PlantIDConfig{
				AuthMode: "header",
			},
			wantErr: true,
		},
		{
			name: "unknown auth mode fails",
			config: PlantIDConfig{
				URL:      "https://plant.id/api/v3/identification",
				AuthMode: "query",
			},
			wantErr: true,
		},
		{
			name: "negative max retries fails",
			config: PlantIDConfig{
				URL:        "https://plant.id/api/v3/identification",
				MaxRetries: -1,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("PlantIDConfig.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPlantIDConfigDefaults(t *testing.T) {
	// 验证空的认证方式和重试延迟会被填充默认值
	cfg := PlantIDConfig{URL: "https://plant.id/api/v3/identification"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.AuthMode != "header" {
		t.Errorf("AuthMode = %q, want %q", cfg.AuthMode, "header")
	}
	if cfg.Timeout <= 0 {
		t.Errorf("Timeout = %v, want positive default", cfg.Timeout)
	}
	if cfg.RetryDelay <= 0 {
		t.Errorf("RetryDelay = %v, want positive default", cfg.RetryDelay)
	}
}

func TestCacheConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  CacheConfig
		wantErr bool
	}{
		{
			name:    "positive ttl passes",
			config:  CacheConfig{TTL: time.Hour},
			wantErr: false,
		},
		{
			name:    "zero ttl fails",
			config:  CacheConfig{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("CacheConfig.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoggingConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  LoggingConfig
		wantErr bool
	}{
		{
			name:    "stdout text passes",
			config:  LoggingConfig{Level: "info", Output: "stdout", Format: "text"},
			wantErr: false,
		},
		{
			name:    "json format passes",
			config:  LoggingConfig{Level: "debug", Output: "stderr", Format: "json"},
			wantErr: false,
		},
		{
			name:    "invalid level fails",
			config:  LoggingConfig{Level: "verbose", Output: "stdout"},
			wantErr: true,
		},
		{
			name:    "file output without path fails",
			config:  LoggingConfig{Level: "info", Output: "file"},
			wantErr: true,
		},
		{
			name:    "invalid format fails",
			config:  LoggingConfig{Level: "info", Output: "stdout", Format: "xml"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("LoggingConfig.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetAddr(t *testing.T) {
	cfg := ServerConfig{Host: "127.0.0.1", Port: 9000}
	if got := cfg.GetAddr(); got != "127.0.0.1:9000" {
		t.Errorf("GetAddr() = %q, want %q", got, "127.0.0.1:9000")
	}
}

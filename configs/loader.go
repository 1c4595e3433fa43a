package configs

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load 加载并验证应用程序配置。
// 它按照以下优先级顺序加载配置：
// 1. 默认配置
// 2. 配置文件（config.yaml，支持多个搜索路径）
// 3. 环境变量（覆盖配置文件中的值）
//
// 参数 ctx: 上下文对象。
// 返回加载并验证后的 Config 指针，如果出错则返回 error。
func Load(ctx context.Context) (*Config, error) {
	// 加载 .env 文件（如果存在）
	// 忽略错误，因为 .env 文件是可选的
	_ = godotenv.Load()

	config := DefaultConfig()

	// 尝试加载配置文件
	configPaths := []string{
		"configs/config.yaml",
		"config.yaml",
		"/etc/plantcare/config.yaml",
	}

	for _, path := range configPaths {
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, err
			}
			break
		}
	}

	// 从环境变量覆盖配置
	loadFromEnv(config)

	// 验证配置
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig 创建并返回一个包含默认值的 Config 对象。
// 默认值覆盖了服务器、上游识别服务、缓存和日志的常用配置。
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                    "0.0.0.0",
			Port:                    8080,
			ReadTimeout:             30 * time.Second,
			WriteTimeout:            30 * time.Second,
			IdleTimeout:             60 * time.Second,
			GracefulShutdownTimeout: 30 * time.Second,
		},
		PlantID: PlantIDConfig{
			URL:        "https://plant.id/api/v3/identification",
			AuthMode:   "header",
			Details:    "common_names,description,best_watering,best_light_condition,watering",
			Language:   "en",
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			RetryDelay: 500 * time.Millisecond,
		},
		Cache: CacheConfig{
			TTL:         24 * time.Hour,
			DialTimeout: 5 * time.Second,
		},
		Supabase: SupabaseConfig{
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stdout",
		},
	}
}

// loadFromEnv 从环境变量中读取配置并覆盖 Config 中的值。
// 支持 PLANTCARE_PORT, PLANT_ID_API_KEY, REDIS_URL, SUPABASE_URL 等环境变量。
// REDIS_URL 未设置时保持进程内缓存。
func loadFromEnv(config *Config) {
	// Server 配置
	if port := os.Getenv("PLANTCARE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 && p <= 65535 {
			config.Server.Port = p
		}
	}

	// 上游识别服务配置
	if apiKey := os.Getenv("PLANT_ID_API_KEY"); apiKey != "" {
		config.PlantID.APIKey = apiKey
	}

	if url := os.Getenv("PLANT_ID_URL"); url != "" {
		config.PlantID.URL = url
	}

	if mode := os.Getenv("PLANT_ID_AUTH_MODE"); mode != "" {
		config.PlantID.AuthMode = mode
	}

	if details := os.Getenv("PLANT_ID_DETAILS"); details != "" {
		config.PlantID.Details = details
	}

	if language := os.Getenv("PLANT_ID_LANGUAGE"); language != "" {
		config.PlantID.Language = language
	}

	// 缓存配置
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		config.Cache.RedisURL = redisURL
	}

	// 数据存储配置
	if url := os.Getenv("SUPABASE_URL"); url != "" {
		config.Supabase.URL = url
	}

	if key := os.Getenv("SUPABASE_ANON_KEY"); key != "" {
		config.Supabase.AnonKey = key
	}
}

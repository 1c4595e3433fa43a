package configs

import (
	"fmt"
	"time"
)

// Config 主配置结构体，定义了应用程序的所有配置项。
// 包含服务器、上游识别服务、缓存、数据存储和日志等模块的配置信息。
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	PlantID  PlantIDConfig  `yaml:"plant_id"`
	Cache    CacheConfig    `yaml:"cache"`
	Supabase SupabaseConfig `yaml:"supabase"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig 定义服务器相关的配置参数。
// 包含监听地址、端口、超时设置等。
type ServerConfig struct {
	Host                    string        `yaml:"host"`
	Port                    int           `yaml:"port"`
	ReadTimeout             time.Duration `yaml:"read_timeout"`
	WriteTimeout            time.Duration `yaml:"write_timeout"`
	IdleTimeout             time.Duration `yaml:"idle_timeout"`
	GracefulShutdownTimeout time.Duration `yaml:"graceful_shutdown_timeout"`
}

// PlantIDConfig 定义上游植物识别服务的配置参数。
// 包含 API 端点、密钥、认证方式、请求的详情字段和重试策略等。
type PlantIDConfig struct {
	// URL 识别服务的 HTTP 端点
	URL string `yaml:"url"`
	// APIKey 识别服务的 API 密钥
	APIKey string `yaml:"api_key"`
	// AuthMode 认证方式：body（密钥放在请求体）或 header（密钥放在请求头）
	AuthMode string `yaml:"auth_mode"`
	// Details 请求的详情字段列表（逗号分隔），作为查询参数传递
	Details string `yaml:"details"`
	// Language 响应语言
	Language string `yaml:"language"`
	// Timeout 单次请求超时时间
	Timeout time.Duration `yaml:"timeout"`
	// MaxRetries 最大重试次数（不含首次请求）
	MaxRetries int `yaml:"max_retries"`
	// RetryDelay 首次重试延迟，之后按指数退避翻倍
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// CacheConfig 定义结果缓存的配置参数。
// RedisURL 为空时使用进程内缓存。
type CacheConfig struct {
	// RedisURL Redis 连接字符串，如 redis://localhost:6379/0
	RedisURL string `yaml:"redis_url"`
	// TTL 缓存项过期时间
	TTL time.Duration `yaml:"ttl"`
	// DialTimeout 启动时连接 Redis 的超时时间
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// SupabaseConfig 定义数据存储（Supabase REST 接口）的配置参数。
type SupabaseConfig struct {
	// URL Supabase 项目地址
	URL string `yaml:"url"`
	// AnonKey 匿名访问密钥
	AnonKey string `yaml:"anon_key"`
	// Timeout 单次请求超时时间
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig 定义日志系统的配置参数。
// 包含日志级别、输出目标（stdout/file）和格式（text/json）等。
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Output   string `yaml:"output"`
	Format   string `yaml:"format"`
	FilePath string `yaml:"file_path"`
}

// Validate 检查 Config 配置结构体的有效性。
// 依次调用各个子配置项的 Validate 方法，如果发现无效配置，返回相应的错误。
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}

	if err := c.PlantID.Validate(); err != nil {
		return fmt.Errorf("plant_id config validation failed: %w", err)
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config validation failed: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config validation failed: %w", err)
	}

	return nil
}

// Validate 检查 ServerConfig 配置的有效性。
// 确保端口号在有效范围内，且超时设置为正数。
func (s *ServerConfig) Validate() error {
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("invalid port: %d", s.Port)
	}

	if s.ReadTimeout <= 0 {
		return fmt.Errorf("read_timeout must be positive")
	}

	if s.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be positive")
	}

	return nil
}

// Validate 检查 PlantIDConfig 配置的有效性。
// 确保端点已指定、认证方式受支持，并为超时和重试设置默认值。
func (p *PlantIDConfig) Validate() error {
	if p.URL == "" {
		return fmt.Errorf("plant_id url is required")
	}

	switch p.AuthMode {
	case "body", "header":
	case "":
		p.AuthMode = "header"
	default:
		return fmt.Errorf("unsupported auth_mode: %s", p.AuthMode)
	}

	if p.Timeout <= 0 {
		p.Timeout = 30 * time.Second
	}

	if p.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}

	if p.RetryDelay <= 0 {
		p.RetryDelay = 500 * time.Millisecond
	}

	return nil
}

// Validate 检查 CacheConfig 配置的有效性。
// 确保 TTL 为正数，并为连接超时设置默认值。
func (c *CacheConfig) Validate() error {
	if c.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}

	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}

	return nil
}

// Validate 检查 LoggingConfig 配置的有效性。
// 确保日志级别、输出目标和格式有效，如果输出到文件，确保文件路径已指定。
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}

	if !validLevels[l.Level] {
		return fmt.Errorf("invalid log level: %s", l.Level)
	}

	validOutputs := map[string]bool{
		"stdout": true, "stderr": true, "file": true,
	}

	if !validOutputs[l.Output] {
		return fmt.Errorf("invalid log output: %s", l.Output)
	}

	if l.Output == "file" && l.FilePath == "" {
		return fmt.Errorf("file path is required when output is file")
	}

	// 验证日志格式，空值默认为 text
	validFormats := map[string]bool{
		"text": true, "json": true, "": true,
	}

	if !validFormats[l.Format] {
		return fmt.Errorf("invalid log format: %s", l.Format)
	}

	return nil
}

// GetAddr 获取服务器的完整监听地址。
// 返回格式为 "Host:Port" 的字符串。
func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

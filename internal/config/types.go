// Package config 统一配置管理
//
// 配置加载优先级（高→低）：
//  1. 环境变量（通过 .env 文件或 shell/systemd 注入）
//  2. YAML 配置文件（configs/{env}.yaml）
//  3. 代码硬编码默认值
//
// 凭据单一数据源：
//
//	密码/密钥只存在环境变量中（YAML 中不存储任何密码）。
//	MONGODB_URI 与 JWT_SECRET 缺失时启动失败；
//	Stripe/Mailgun/MinIO 凭据缺失时对应功能降级为"未配置"而不是崩溃。
//
// 环境：
//   - 开发: APP_ENV=dev → configs/dev.yaml + .env.dev
//   - 测试: APP_ENV=test → configs/test.yaml + .env.test
//   - 生产: APP_ENV=prod → 环境变量注入，不搜索 .env
package config

import "time"

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Auth     AuthConfig     `yaml:"auth"`
	Frontend FrontendConfig `yaml:"frontend"`
	Mailgun  MailgunConfig  `yaml:"mailgun"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port string `yaml:"port"`
}

// DatabaseConfig MongoDB 配置
type DatabaseConfig struct {
	URI  string `yaml:"-"` // 只从 MONGODB_URI 环境变量读取
	Name string `yaml:"name"`
}

// RedisConfig Redis 配置（可选，缺失时历史缓存退化为内存实现）
type RedisConfig struct {
	URL string `yaml:"url"`
}

// MinIOConfig MinIO 对象存储配置
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"` // 例如 localhost:9000
	AccessKey string `yaml:"-"`        // 只从 MINIO_ROOT_USER 环境变量读取
	SecretKey string `yaml:"-"`        // 只从 MINIO_ROOT_PASSWORD 环境变量读取
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"`
}

// Configured 是否已配置对象存储
func (c MinIOConfig) Configured() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != ""
}

// AuthConfig 认证配置
// JWTSecret 只从 JWT_SECRET 环境变量读取，不存储在 YAML 中
type AuthConfig struct {
	JWTSecret string        `yaml:"-"`
	TokenTTL  time.Duration `yaml:"token_ttl"` // 例如 "24h"
}

// FrontendConfig 浏览器前端配置
type FrontendConfig struct {
	URL string `yaml:"url"` // 允许的跨域来源
}

// MailgunConfig 邮件服务配置
type MailgunConfig struct {
	APIKey string `yaml:"-"` // 只从 MAILGUN_API_KEY 环境变量读取
	Domain string `yaml:"domain"`
}

// Configured 是否已配置邮件服务
func (c MailgunConfig) Configured() bool {
	return c.APIKey != "" && c.Domain != ""
}

// StripeConfig 支付服务配置（全部来自环境变量）
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

// Configured 是否已配置支付服务
func (c StripeConfig) Configured() bool {
	return c.SecretKey != ""
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env         Environment
	APIPort     string
	MongoURI    string
	MongoDBName string
	RedisURL    string
	FrontendURL string
	Auth        AuthConfig
	MinIO       MinIOConfig
	Mailgun     MailgunConfig
	Stripe      StripeConfig
}

// IsProduction 是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// IsTest 是否为测试环境
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var configPaths = []string{
	"configs",
	"../configs",
	"../../configs",
}

var envSearchDirs = []string{
	".",
	"..",
}

// Load 加载配置
// 1. 加载 .env.{env}（敏感信息 + APP_ENV）
// 2. 根据 APP_ENV 加载 configs/{env}.yaml
// 3. 环境变量覆盖
func Load() *Config {
	env := parseEnv(getEnv("APP_ENV", "dev"))
	loadEnvFiles(env)
	// .env 可能修正 APP_ENV
	env = parseEnv(getEnv("APP_ENV", string(env)))

	yamlCfg := loadYAMLConfig(env)

	cfg := &Config{
		Env:         env,
		APIPort:     getEnv("PORT", yamlCfg.Server.Port),
		MongoURI:    os.Getenv("MONGODB_URI"),
		MongoDBName: getEnv("MONGODB_DB", yamlCfg.Database.Name),
		RedisURL:    getEnv("REDIS_URL", yamlCfg.Redis.URL),
		FrontendURL: getEnv("FRONTEND_URL", yamlCfg.Frontend.URL),
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			TokenTTL:  yamlCfg.Auth.TokenTTL,
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", yamlCfg.MinIO.Endpoint),
			AccessKey: os.Getenv("MINIO_ROOT_USER"),
			SecretKey: os.Getenv("MINIO_ROOT_PASSWORD"),
			UseSSL:    yamlCfg.MinIO.UseSSL,
			Bucket:    yamlCfg.MinIO.Bucket,
		},
		Mailgun: MailgunConfig{
			APIKey: os.Getenv("MAILGUN_API_KEY"),
			Domain: getEnv("MAILGUN_DOMAIN", yamlCfg.Mailgun.Domain),
		},
		Stripe: StripeConfig{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		},
	}

	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}

	return cfg
}

// Validate 校验必需配置
// 数据库连接串和令牌密钥缺失是启动级错误；
// 支付/邮件/对象存储凭据缺失只是降级，不在此校验。
func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGODB_URI is not defined in environment variables")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not defined in environment variables")
	}
	return nil
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → {env}.yaml
func loadYAMLConfig(env Environment) *YAMLConfig {
	cfg := &YAMLConfig{
		Server:   ServerConfig{Port: "5000"},
		Database: DatabaseConfig{Name: "rankwise"},
		MinIO:    MinIOConfig{Bucket: "rankwise"},
		Auth:     AuthConfig{TokenTTL: 24 * time.Hour},
		Frontend: FrontendConfig{URL: "http://localhost:3000"},
	}

	filename := fmt.Sprintf("%s.yaml", env)
	for _, base := range configPaths {
		path := filepath.Join(base, filename)
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	return cfg
}

// loadEnvFiles 加载 .env 文件
//
// 生产环境不搜索 .env 文件（密钥由 systemd EnvironmentFile 或 shell 环境注入）。
// dev/test 环境加载 .env.{env}，godotenv.Load 不覆盖已有环境变量。
func loadEnvFiles(env Environment) {
	if env == EnvProduction {
		return
	}
	envFileName := fmt.Sprintf(".env.%s", string(env))
	for _, dir := range envSearchDirs {
		if err := godotenv.Load(filepath.Join(dir, envFileName)); err == nil {
			return
		}
	}
	// 回退到普通 .env
	for _, dir := range envSearchDirs {
		if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
			return
		}
	}
}

func parseEnv(env string) Environment {
	switch strings.ToLower(env) {
	case "test":
		return EnvTest
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// String 返回配置摘要（隐藏密码）
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, Mongo: %s/%s, Redis: %s, Frontend: %s}",
		c.Env, maskPassword(c.MongoURI), c.MongoDBName, c.RedisURL, c.FrontendURL)
}

// maskPassword 隐藏连接串中的密码
func maskPassword(url string) string {
	re := regexp.MustCompile(`(://[^:/@]+:)([^@]+)(@)`)
	return re.ReplaceAllString(url, "${1}***${3}")
}
